package tui

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/sahilm/fuzzy"
	"github.com/studiowebux/kexedit/internal/device"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// Replaced in tests
var (
	writeClipboard = clipboard.WriteAll
	openURL        = openInBrowser
)

// loadTable fetches the table; op names the workflow for the status line
func (m *Model) loadTable(op string) tea.Cmd {
	m.busy = true
	m.busyOp = op
	ed, ctx := m.editor, m.ctx
	return func() tea.Msg {
		return tableLoadedMsg{op: op, err: ed.Load(ctx)}
	}
}

// saveEntry submits the editor's draft
func (m *Model) saveEntry() tea.Cmd {
	if err := m.editor.SetDraft(m.panel.Draft()); err != nil {
		m.setErrorMessage(err.Error())
		return nil
	}
	m.busy = true
	m.busyOp = "save"
	ed, ctx := m.editor, m.ctx
	return func() tea.Msg {
		entry, err := ed.Save(ctx)
		return entrySavedMsg{entry: entry, err: err}
	}
}

// importFile uploads the table stored at path, then reloads
func (m *Model) importFile(path string) tea.Cmd {
	path = expandHome(strings.TrimSpace(path))
	if path == "" {
		m.setErrorMessage("No file given")
		return nil
	}
	m.busy = true
	m.busyOp = "import"
	ed, ctx := m.editor, m.ctx
	return func() tea.Msg {
		raw, err := os.ReadFile(path)
		if err != nil {
			return tableLoadedMsg{op: "import", err: fmt.Errorf("failed to read %s: %w", path, err)}
		}
		return tableLoadedMsg{op: "import", err: ed.Import(ctx, raw)}
	}
}

// confirmReset performs the reset the operator just confirmed
func (m *Model) confirmReset() tea.Cmd {
	token := m.resetToken
	m.resetToken = ""
	m.busy = true
	m.busyOp = "reset"
	ed, ctx := m.editor, m.ctx
	return func() tea.Msg {
		return tableLoadedMsg{op: "reset", err: ed.ConfirmReset(ctx, token)}
	}
}

// openExport sends the browser to the download endpoint; no state changes
func (m *Model) openExport() tea.Cmd {
	url := m.editor.ExportURL()
	return func() tea.Msg {
		return exportOpenedMsg{url: url, err: openURL(url)}
	}
}

// copyEntry copies the JSON of the entry under the cursor
func (m *Model) copyEntry() tea.Cmd {
	usb := m.grid.Cursor()
	entry := m.store.Get(usb)
	return func() tea.Msg {
		data, err := keymap.EncodeEntry(entry)
		if err == nil {
			err = writeClipboard(string(data))
		}
		return copiedMsg{usb: usb, err: err}
	}
}

func (m *Model) loadHistory() tea.Cmd {
	h, name := m.history, m.deviceName
	return func() tea.Msg {
		entries, err := h.Load(name, historyLimit)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (m *Model) clearHistory() tea.Cmd {
	h := m.history
	return func() tea.Msg {
		return historyClearedMsg{err: h.Clear()}
	}
}

// startMonitor subscribes to the scancode stream. Events arrive one message
// at a time through waitForMonitor.
func (m *Model) startMonitor() tea.Cmd {
	m.monitorGen++
	gen := m.monitorGen
	ctx, stop := context.WithCancel(m.ctx)
	m.monitorStop = stop
	m.monitoring = true

	events := make(chan device.ScancodeEvent, monitorBuffer)
	errs := make(chan error, 1)
	mon := m.monitor
	go func() {
		err := mon.Monitor(ctx, func(ev device.ScancodeEvent) {
			select {
			case events <- ev:
			default:
				log.Debug().Str("code", keymap.FormatHexByte(ev.Code)).Msg("monitor event dropped")
			}
		})
		errs <- err
		close(events)
	}()

	m.setStatusMessage("Monitor started")
	return waitForMonitor(gen, events, errs)
}

func (m *Model) stopMonitor() {
	if m.monitorStop != nil {
		m.monitorStop()
	}
}

func waitForMonitor(gen int, events <-chan device.ScancodeEvent, errs <-chan error) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return monitorStoppedMsg{gen: gen, err: <-errs}
		}
		return scancodeMsg{gen: gen, event: ev, events: events, errs: errs}
	}
}

// updateGotoMatches refreshes the fuzzy candidates for the goto prompt
func (m *Model) updateGotoMatches() {
	m.gotoIndex = 0
	query := strings.TrimSpace(m.prompt.Value())
	if query == "" {
		m.gotoMatches = nil
		return
	}
	m.gotoMatches = fuzzy.Find(query, m.gotoNames)
	if len(m.gotoMatches) > gotoMaxMatches {
		m.gotoMatches = m.gotoMatches[:gotoMaxMatches]
	}
}

// resolveGoto turns the goto input into a usage code. 0x-prefixed input is
// hex, all-digit input is decimal, anything else picks the fuzzy match.
func (m *Model) resolveGoto() (int, error) {
	query := strings.TrimSpace(m.prompt.Value())
	lower := strings.ToLower(query)
	switch {
	case query == "":
		return 0, fmt.Errorf("nothing to go to")
	case strings.HasPrefix(lower, "0x"):
		v, err := strconv.ParseUint(lower[2:], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("%q is not a usage code 0x00-0xFF", query)
		}
		return int(v), nil
	case isDigits(query):
		v, err := strconv.Atoi(query)
		if err != nil || !keymap.ValidUSB(v) {
			return 0, fmt.Errorf("%q is not a usage code 0-255", query)
		}
		return v, nil
	}
	if len(m.gotoMatches) == 0 {
		return 0, fmt.Errorf("no key named like %q", query)
	}
	return m.gotoUsages[m.gotoMatches[m.gotoIndex].Index].USB, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}

// openInBrowser hands url to the desktop's opener
func openInBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
