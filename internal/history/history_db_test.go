package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/studiowebux/kexedit/internal/device"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "nested", "kexedit.db"))
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestManager_SaveAndLoad(t *testing.T) {
	m := newTestManager(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	entries := []Entry{
		{Timestamp: base, Device: "desk", Op: "load", Method: "GET", Path: "/api/map_ex", USB: -1, Status: 200, Duration: 40 * time.Millisecond},
		{Timestamp: base.Add(time.Second), Device: "desk", Op: "save", Method: "POST", Path: "/api/map_ex_set", USB: 65, Status: 500, Error: "save failed"},
		{Timestamp: base.Add(2 * time.Second), Device: "lab", Op: "reset", Method: "POST", Path: "/api/map_ex_reset", USB: -1, Status: 200},
	}
	for _, e := range entries {
		if err := m.Save(e); err != nil {
			t.Fatalf("Unexpected save error: %v", err)
		}
	}

	all, err := m.Load("", 0)
	if err != nil {
		t.Fatalf("Unexpected load error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(all))
	}
	if all[0].Op != "reset" || all[2].Op != "load" {
		t.Errorf("Expected newest first, got %s..%s", all[0].Op, all[2].Op)
	}

	desk, err := m.Load("desk", 0)
	if err != nil {
		t.Fatalf("Unexpected load error: %v", err)
	}
	if len(desk) != 2 {
		t.Fatalf("Expected 2 desk entries, got %d", len(desk))
	}
	save := desk[0]
	if save.USB != 65 || save.Status != 500 || save.Error != "save failed" {
		t.Errorf("Unexpected save entry %+v", save)
	}
	if !save.Timestamp.Equal(base.Add(time.Second)) {
		t.Errorf("Expected timestamp %s, got %s", base.Add(time.Second), save.Timestamp)
	}
	if desk[1].USB != -1 || desk[1].Duration != 40*time.Millisecond {
		t.Errorf("Unexpected load entry %+v", desk[1])
	}

	limited, err := m.Load("", 1)
	if err != nil {
		t.Fatalf("Unexpected load error: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit to apply, got %d", len(limited))
	}
}

func TestManager_Clear(t *testing.T) {
	m := newTestManager(t)
	_ = m.Save(Entry{Device: "desk", Op: "load", Method: "GET", Path: "/api/map_ex", USB: -1})

	if err := m.Clear(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	count, err := m.GetCount()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected empty journal, got %d", count)
	}
}

func TestManager_Observer(t *testing.T) {
	m := newTestManager(t)
	observe := m.Observer("desk", "http://10.0.0.5")

	observe(device.Result{Op: device.OpSave, Method: "POST", Path: device.PathSet, USB: 4, Status: 200, Duration: time.Millisecond})
	observe(device.Result{Op: device.OpPing, Method: "GET", Path: device.PathPing, USB: -1, Status: 200})
	observe(device.Result{Op: device.OpLoad, Method: "GET", Path: device.PathMap, USB: -1, Err: errors.New("connection refused")})

	entries, err := m.Load("desk", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected ping to be skipped, got %d entries", len(entries))
	}
	if entries[0].Op != "load" || entries[0].Error != "connection refused" || entries[0].URL != "http://10.0.0.5" {
		t.Errorf("Unexpected failure entry %+v", entries[0])
	}
	if entries[1].USB != 4 {
		t.Errorf("Expected usb 4 on save entry, got %d", entries[1].USB)
	}
}
