package editor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RequestReset records a pending reset and returns the token that confirms it.
// A new request supersedes any earlier one.
func (e *Editor) RequestReset() string {
	token := uuid.NewString()

	e.mu.Lock()
	e.resetToken = token
	e.mu.Unlock()

	return token
}

// ResetPending reports whether a reset awaits confirmation
func (e *Editor) ResetPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resetToken != ""
}

// CancelReset drops a pending reset. Declining is not an error.
func (e *Editor) CancelReset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetToken = ""
}

// ConfirmReset performs the pending reset identified by token, then reloads.
// The pending request is consumed whether or not the device call succeeds.
func (e *Editor) ConfirmReset(ctx context.Context, token string) error {
	e.mu.Lock()
	switch {
	case e.resetToken == "":
		e.mu.Unlock()
		return ErrResetNotRequested
	case e.resetToken != token:
		e.mu.Unlock()
		return ErrStaleResetToken
	}
	e.resetToken = ""
	e.mu.Unlock()

	if err := e.device.Reset(ctx); err != nil {
		return err
	}
	log.Info().Msg("device keymap reset to defaults")

	if err := e.Load(ctx); err != nil {
		return fmt.Errorf("reset succeeded but reload failed: %w", err)
	}
	return nil
}

// Reset runs the two-step protocol with confirm as the prompt. It returns
// false without error when the user declines.
func (e *Editor) Reset(ctx context.Context, confirm func() bool) (bool, error) {
	token := e.RequestReset()
	if !confirm() {
		e.CancelReset()
		return false, nil
	}
	if err := e.ConfirmReset(ctx, token); err != nil {
		return true, err
	}
	return true, nil
}
