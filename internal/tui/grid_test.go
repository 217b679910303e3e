package tui

import (
	"strings"
	"testing"

	"github.com/studiowebux/kexedit/internal/keymap"
)

func TestCellLabel(t *testing.T) {
	tests := []struct {
		name  string
		entry keymap.Entry
		usb   int
		want  string
	}{
		{"mapped", keymap.Entry{Base: 0x1E}, 0x04, "1E"},
		{"unmapped shows index", keymap.Entry{}, 0xF0, "F0"},
		{"unmapped zero", keymap.Entry{}, 0, "00"},
		{"base zero with shift", keymap.Entry{Shift: 0x2A}, 0x10, "10"},
		{"single digit padded", keymap.Entry{Base: 0x05}, 0x30, "05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CellLabel(tt.entry, tt.usb); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestGridView_RefreshCell(t *testing.T) {
	g := NewGridView()
	g.Refresh(keymap.LegacyTable())

	if got := g.Label(0x04); got != "1E" {
		t.Errorf("Expected 1E, got %q", got)
	}

	g.RefreshCell(keymap.Entry{USB: 0x04})
	if got := g.Label(0x04); got != "04" {
		t.Errorf("Expected cleared cell to show 04, got %q", got)
	}

	g.RefreshCell(keymap.Entry{USB: 300, Base: 1})
	if got := g.Label(300); got != "" {
		t.Errorf("Expected empty label out of range, got %q", got)
	}
}

func TestGridView_CursorClamps(t *testing.T) {
	g := NewGridView()

	g.Move(-1, -1)
	if g.Cursor() != 0 {
		t.Errorf("Expected 0, got %d", g.Cursor())
	}

	g.SetCursor(0xFF)
	g.Move(1, 1)
	if g.Cursor() != 0xFF {
		t.Errorf("Expected FF, got %d", g.Cursor())
	}

	g.SetCursor(0x4F)
	g.Move(0, 1)
	if g.Cursor() != 0x4F {
		t.Errorf("Expected cursor to stay on row end, got %X", g.Cursor())
	}

	if g.SetCursor(256) {
		t.Error("Expected SetCursor(256) to fail")
	}
	if g.SetCursor(-1) {
		t.Error("Expected SetCursor(-1) to fail")
	}
}

func TestGridView_Select(t *testing.T) {
	g := NewGridView()
	g.SetCursor(0x2C)

	msg, ok := g.Select()().(cellSelectedMsg)
	if !ok {
		t.Fatal("Expected cellSelectedMsg")
	}
	if msg.usb != 0x2C {
		t.Errorf("Expected 2C, got %X", msg.usb)
	}
}

func TestGridView_Highlight(t *testing.T) {
	g := NewGridView()
	g.Highlight([]int{1, 2})
	g.Highlight([]int{3})

	if g.Highlighted(1) || !g.Highlighted(3) {
		t.Error("Expected highlight to be replaced")
	}

	g.Highlight(nil)
	if g.Highlighted(3) {
		t.Error("Expected highlight cleared")
	}
}

func TestGridView_View(t *testing.T) {
	g := NewGridView()
	view := g.View(-1)

	lines := strings.Split(view, "\n")
	if len(lines) != gridRows+1 {
		t.Fatalf("Expected %d lines, got %d", gridRows+1, len(lines))
	}
	if !strings.Contains(lines[len(lines)-1], "FF") {
		t.Error("Expected last row to contain FF")
	}
}
