package tui

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/kexedit/internal/device"
	"github.com/studiowebux/kexedit/internal/editor"
	"github.com/studiowebux/kexedit/internal/emulator"
	"github.com/studiowebux/kexedit/internal/history"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// testEnv is a model wired to an in-process emulator
type testEnv struct {
	m       *Model
	srv     *emulator.Server
	client  *device.Client
	history *history.Manager
}

// CreateTestModel creates a Model talking to a fresh emulator over HTTP.
// With withHistory the device client journals into a temp sqlite database.
func CreateTestModel(t *testing.T, withHistory bool) *testEnv {
	t.Helper()

	state, err := emulator.NewState("")
	if err != nil {
		t.Fatalf("Failed to create emulator state: %v", err)
	}
	srv := emulator.NewServer(&emulator.Config{Logging: true}, state)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	env := &testEnv{srv: srv}
	var opts device.Options
	if withHistory {
		mgr, err := history.NewManager(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("Failed to open history: %v", err)
		}
		t.Cleanup(func() { mgr.Close() })
		env.history = mgr
		opts.Observer = mgr.Observer("test", ts.URL)
	}

	client, err := device.NewClient(ts.URL, opts)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	env.client = client

	m, err := New(Options{
		Editor:     editor.New(keymap.NewStore(), client),
		DeviceName: "test",
		DeviceURL:  client.BaseURL(),
		Monitor:    client,
		History:    env.history,
	})
	if err != nil {
		t.Fatalf("Failed to create test model: %v", err)
	}
	m.width, m.height = 120, 40
	t.Cleanup(m.Cleanup)

	env.m = &m
	return env
}

// keyMsg builds the key event bubbletea would deliver for a binding name
func keyMsg(key string) tea.KeyMsg {
	special := map[string]tea.KeyType{
		"enter":     tea.KeyEnter,
		"esc":       tea.KeyEsc,
		"tab":       tea.KeyTab,
		"shift+tab": tea.KeyShiftTab,
		"space":     tea.KeySpace,
		"backspace": tea.KeyBackspace,
		"up":        tea.KeyUp,
		"down":      tea.KeyDown,
		"left":      tea.KeyLeft,
		"right":     tea.KeyRight,
		"home":      tea.KeyHome,
		"end":       tea.KeyEnd,
		"ctrl+c":    tea.KeyCtrlC,
	}
	if k, ok := special[key]; ok {
		if k == tea.KeySpace {
			return tea.KeyMsg{Type: k, Runes: []rune{' '}}
		}
		return tea.KeyMsg{Type: k}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// press sends keys one by one, running every resulting command to completion
func (e *testEnv) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, cmd := e.m.Update(keyMsg(k))
		e.drain(t, cmd)
	}
}

// typeText types s rune by rune
func (e *testEnv) typeText(t *testing.T, s string) {
	t.Helper()
	for _, r := range s {
		e.press(t, string(r))
	}
}

// drain runs cmd and feeds its messages back into the model. Monitor
// subscriptions block, so tests drive those by hand.
func (e *testEnv) drain(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil; i++ {
		if i > 20 {
			t.Fatal("Command chain did not settle")
		}
		msg := cmd()
		switch msg := msg.(type) {
		case nil, tea.QuitMsg:
			return
		case tea.BatchMsg:
			for _, c := range msg {
				e.drain(t, c)
			}
			return
		}
		_, cmd = e.m.Update(msg)
	}
}

// init runs the startup load
func (e *testEnv) init(t *testing.T) {
	t.Helper()
	e.drain(t, e.m.Init())
	if !e.m.loaded {
		t.Fatalf("Expected table loaded, error: %s", e.m.errorMsg)
	}
}

// AssertModelField is a helper to assert model field values
func AssertModelField(t *testing.T, fieldName string, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", fieldName, got, want)
	}
}
