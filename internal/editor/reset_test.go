package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/studiowebux/kexedit/internal/device"
)

func TestReset_ConfirmReloads(t *testing.T) {
	dev := newFakeDevice()
	ed := loadedEditor(t, dev)

	token := ed.RequestReset()
	if !ed.ResetPending() {
		t.Fatal("Expected reset to be pending")
	}

	if err := ed.ConfirmReset(context.Background(), token); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dev.resets != 1 {
		t.Errorf("Expected one reset call, got %d", dev.resets)
	}
	if dev.loads != 2 {
		t.Errorf("Expected a reload after reset, got %d loads", dev.loads)
	}
	if ed.Store().Get(0x04).Base != 0x1E {
		t.Errorf("Expected legacy defaults after reset, got %+v", ed.Store().Get(0x04))
	}
	if ed.ResetPending() {
		t.Error("Expected pending reset to be consumed")
	}
}

func TestReset_NotRequested(t *testing.T) {
	dev := newFakeDevice()
	ed := loadedEditor(t, dev)

	if err := ed.ConfirmReset(context.Background(), "anything"); !errors.Is(err, ErrResetNotRequested) {
		t.Errorf("Expected ErrResetNotRequested, got %v", err)
	}
	if dev.resets != 0 {
		t.Errorf("Expected no reset call, got %d", dev.resets)
	}
}

func TestReset_StaleToken(t *testing.T) {
	dev := newFakeDevice()
	ed := loadedEditor(t, dev)

	first := ed.RequestReset()
	second := ed.RequestReset()

	if err := ed.ConfirmReset(context.Background(), first); !errors.Is(err, ErrStaleResetToken) {
		t.Errorf("Expected ErrStaleResetToken, got %v", err)
	}
	if dev.resets != 0 {
		t.Errorf("Expected no reset call, got %d", dev.resets)
	}
	if err := ed.ConfirmReset(context.Background(), second); err != nil {
		t.Errorf("Expected latest token to confirm, got %v", err)
	}
}

func TestReset_Declined(t *testing.T) {
	dev := newFakeDevice()
	ed := loadedEditor(t, dev)

	token := ed.RequestReset()
	ed.CancelReset()

	if err := ed.ConfirmReset(context.Background(), token); !errors.Is(err, ErrResetNotRequested) {
		t.Errorf("Expected cancelled request to be gone, got %v", err)
	}

	performed, err := ed.Reset(context.Background(), func() bool { return false })
	if err != nil || performed {
		t.Errorf("Expected declined reset to be a silent no-op, got %v %v", performed, err)
	}
	if dev.resets != 0 || dev.loads != 1 {
		t.Errorf("Expected no device calls, got %d resets %d loads", dev.resets, dev.loads)
	}
}

func TestReset_DeviceFailure(t *testing.T) {
	dev := newFakeDevice()
	ed := loadedEditor(t, dev)
	dev.resetErr = &device.TransportError{Op: device.OpReset, Status: 500}

	performed, err := ed.Reset(context.Background(), func() bool { return true })
	if !performed {
		t.Error("Expected reset to be attempted")
	}
	var terr *device.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TransportError, got %v", err)
	}
	if dev.loads != 1 {
		t.Errorf("Expected no reload after failed reset, got %d loads", dev.loads)
	}
	if ed.ResetPending() {
		t.Error("Expected failed reset to consume the request")
	}
}
