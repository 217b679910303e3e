package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/sahilm/fuzzy"
	"github.com/studiowebux/kexedit/internal/device"
	"github.com/studiowebux/kexedit/internal/editor"
	"github.com/studiowebux/kexedit/internal/history"
	"github.com/studiowebux/kexedit/internal/keybinds"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeGrid Mode = iota
	ModeEdit
	ModeResetConfirm
	ModeImport
	ModeGoto
	ModeHistory
	ModeHelp
)

// Monitor streams scancode events until ctx is cancelled
type Monitor interface {
	Monitor(ctx context.Context, handler func(device.ScancodeEvent)) error
}

// Options wires the TUI to its collaborators
type Options struct {
	Editor     *editor.Editor
	DeviceName string
	DeviceURL  string

	// Monitor is nil when the device offers no scancode stream
	Monitor Monitor
	// MonitorOnStart subscribes as soon as the program starts
	MonitorOnStart bool

	// History is nil when the journal is disabled
	History *history.Manager

	// Keybinds defaults to keybinds.NewDefaultRegistry()
	Keybinds *keybinds.Registry
}

// Model represents the TUI state
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	editor     *editor.Editor
	store      *keymap.Store
	keybinds   *keybinds.Registry
	history    *history.Manager
	monitor    Monitor
	deviceName string
	deviceURL  string

	mode  Mode
	grid  *GridView
	panel *EditPanel

	// busy is set while a device request is in flight
	busy    bool
	busyOp  string
	loaded  bool
	autoMon bool

	resetToken string

	prompt       textinput.Model
	gotoMatches  fuzzy.Matches
	gotoIndex    int
	gotoNames    []string
	gotoUsages   []keymap.NamedUsage
	historyView  viewport.Model
	helpView     viewport.Model
	historyCount int

	monitoring  bool
	monitorGen  int
	monitorStop context.CancelFunc
	lastEvent   *device.ScancodeEvent

	width     int
	height    int
	statusMsg string
	errorMsg  string
}

// Init loads the table from the device
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadTable("load")}
	if m.autoMon && m.monitor != nil {
		cmds = append(cmds, m.startMonitor())
	}
	return tea.Batch(cmds...)
}

// Cleanup stops the monitor and aborts outstanding requests
func (m *Model) Cleanup() {
	if m.monitorStop != nil {
		m.monitorStop()
		m.monitorStop = nil
	}
	m.cancel()
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewports()

	case cellSelectedMsg:
		if err := m.editor.Select(msg.usb); err != nil {
			m.setErrorMessage(err.Error())
			break
		}
		m.panel.Load(m.editor.Draft())
		m.mode = ModeEdit
		m.errorMsg = ""

	case tableLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.setErrorMessage(describeError(msg.op, msg.err))
			break
		}
		m.loaded = true
		m.grid.Refresh(m.store.Snapshot())
		if m.mode == ModeEdit {
			m.mode = ModeGrid
		}
		m.setStatusMessage(loadedStatus(msg.op))

	case entrySavedMsg:
		m.busy = false
		if msg.err != nil {
			m.setErrorMessage(describeError("save", msg.err))
			break
		}
		m.grid.RefreshCell(msg.entry)
		if m.editor.Mode() == editor.Idle && m.mode == ModeEdit {
			m.mode = ModeGrid
		}
		m.setStatusMessage(fmt.Sprintf("Saved %s", msg.entry))

	case exportOpenedMsg:
		if msg.err != nil {
			m.setErrorMessage(fmt.Sprintf("Failed to open %s: %v", msg.url, msg.err))
			break
		}
		m.setStatusMessage(fmt.Sprintf("Opened %s", msg.url))

	case copiedMsg:
		if msg.err != nil {
			m.setErrorMessage(fmt.Sprintf("Failed to copy to clipboard: %v", msg.err))
			break
		}
		m.setStatusMessage(fmt.Sprintf("Entry %s copied to clipboard", keymap.FormatHexByte(byte(msg.usb))))

	case historyLoadedMsg:
		if msg.err != nil {
			m.setErrorMessage(fmt.Sprintf("Failed to load history: %v", msg.err))
			break
		}
		m.historyCount = len(msg.entries)
		m.historyView.SetContent(renderHistoryEntries(msg.entries))
		m.historyView.GotoTop()

	case historyClearedMsg:
		if msg.err != nil {
			m.setErrorMessage(fmt.Sprintf("Failed to clear history: %v", msg.err))
			break
		}
		m.setStatusMessage("History cleared")
		cmd = m.loadHistory()

	case scancodeMsg:
		if msg.gen != m.monitorGen {
			break
		}
		ev := msg.event
		m.lastEvent = &ev
		if ev.Type == device.EventMake {
			m.grid.Highlight(m.store.FindByBase(ev.Code))
		}
		cmd = waitForMonitor(msg.gen, msg.events, msg.errs)

	case monitorStoppedMsg:
		if msg.gen != m.monitorGen {
			break
		}
		m.monitoring = false
		m.monitorStop = nil
		m.grid.Highlight(nil)
		if msg.err != nil {
			m.setErrorMessage(fmt.Sprintf("Monitor stopped: %v", msg.err))
		} else {
			m.setStatusMessage("Monitor stopped")
		}
	}

	return m, cmd
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	switch m.mode {
	case ModeResetConfirm:
		return m.renderResetConfirm()
	case ModeHistory:
		return m.renderHistory()
	case ModeHelp:
		return m.renderHelp()
	default:
		return m.renderMain()
	}
}

// Custom message types
type tableLoadedMsg struct {
	op  string // load, reload, import or reset
	err error
}

type entrySavedMsg struct {
	entry keymap.Entry
	err   error
}

type exportOpenedMsg struct {
	url string
	err error
}

type copiedMsg struct {
	usb int
	err error
}

type historyLoadedMsg struct {
	entries []history.Entry
	err     error
}

type historyClearedMsg struct {
	err error
}

type scancodeMsg struct {
	gen    int
	event  device.ScancodeEvent
	events <-chan device.ScancodeEvent
	errs   <-chan error
}

type monitorStoppedMsg struct {
	gen int
	err error
}

func loadedStatus(op string) string {
	switch op {
	case "import":
		return "Import uploaded and table reloaded"
	case "reset":
		return "Device reset and table reloaded"
	}
	return "Table loaded"
}

// describeError turns an operation failure into a footer message
func describeError(op string, err error) string {
	var verr *editor.ValidationError
	var serr *keymap.ShapeError
	var terr *device.TransportError

	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("Not saved: %s %q is not a hex byte (00-FF)", verr.Field, verr.Input)
	case errors.As(err, &terr):
		// A bad table from the device is a device error, not a local rejection
		return fmt.Sprintf("Device error: %v", terr)
	case errors.As(err, &serr):
		return fmt.Sprintf("Not uploaded: %v", serr)
	}
	return fmt.Sprintf("%s failed: %v", op, err)
}

// Helper methods for setting messages
func (m *Model) setStatusMessage(msg string) {
	m.errorMsg = ""
	m.statusMsg = truncate(msg, maxStatusLen)
}

func (m *Model) setErrorMessage(msg string) {
	log.Debug().Str("error", msg).Msg("tui error")
	m.errorMsg = truncate(msg, maxStatusLen)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
