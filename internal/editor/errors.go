package editor

import (
	"errors"
	"fmt"

	"github.com/studiowebux/kexedit/internal/keymap"
)

var (
	// ErrNotEditing is returned by operations that need a selected entry
	ErrNotEditing = errors.New("no entry is being edited")
	// ErrResetNotRequested is returned by ConfirmReset without a pending request
	ErrResetNotRequested = errors.New("reset was not requested")
	// ErrStaleResetToken is returned by ConfirmReset with a token other than the pending one
	ErrStaleResetToken = errors.New("reset confirmation token does not match the pending request")
)

// ValidationError reports a draft field that is not a valid hex byte.
// Nothing is sent to the device when it is returned.
type ValidationError struct {
	Field Field
	Input string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s value %q: expected hex 00-FF or empty", e.Field, e.Input)
}

func (e *ValidationError) Unwrap() error {
	return keymap.ErrInvalidHex
}
