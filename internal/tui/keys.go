package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/kexedit/internal/keybinds"
)

// keyString names a key the way bindings spell it
func keyString(msg tea.KeyMsg) string {
	if s := msg.String(); s != " " {
		return s
	}
	return "space"
}

// handleKeyPress routes key presses based on current mode
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	key := keyString(msg)

	if action, ok := m.keybinds.Match(keybinds.ContextGlobal, key); ok && action == keybinds.ActionQuitForce {
		m.Cleanup()
		return tea.Quit
	}

	switch m.mode {
	case ModeGrid:
		return m.handleGridKeys(key)
	case ModeEdit:
		return m.handleEditKeys(msg, key)
	case ModeResetConfirm:
		return m.handleConfirmKeys(key)
	case ModeImport, ModeGoto:
		return m.handlePromptKeys(msg, key)
	case ModeHistory:
		return m.handleHistoryKeys(key)
	case ModeHelp:
		return m.handleHelpKeys(key)
	}
	return nil
}

// deviceBusy reports an in-flight request and tells the user about it
func (m *Model) deviceBusy() bool {
	if m.busy {
		m.setErrorMessage("Waiting for " + m.busyOp + " to finish")
	}
	return m.busy
}

func (m *Model) handleGridKeys(key string) tea.Cmd {
	action, ok, partial := m.keybinds.MatchMultiKey(keybinds.ContextGrid, key)
	if partial || !ok {
		return nil
	}

	switch action {
	case keybinds.ActionQuit:
		m.Cleanup()
		return tea.Quit

	case keybinds.ActionMoveUp:
		m.grid.Move(-1, 0)
	case keybinds.ActionMoveDown:
		m.grid.Move(1, 0)
	case keybinds.ActionMoveLeft:
		m.grid.Move(0, -1)
	case keybinds.ActionMoveRight:
		m.grid.Move(0, 1)
	case keybinds.ActionRowStart:
		m.grid.RowStart()
	case keybinds.ActionRowEnd:
		m.grid.RowEnd()
	case keybinds.ActionGoToTop:
		m.grid.SetCursor(0)
	case keybinds.ActionGoToBottom:
		m.grid.SetCursor(gridRows*gridCols - 1)

	case keybinds.ActionEdit:
		return m.grid.Select()

	case keybinds.ActionReload:
		if m.deviceBusy() {
			return nil
		}
		return m.loadTable("reload")

	case keybinds.ActionImport:
		m.openPrompt(ModeImport, "path/to/keymap_ex.json")

	case keybinds.ActionExport:
		return m.openExport()

	case keybinds.ActionReset:
		if m.deviceBusy() {
			return nil
		}
		m.resetToken = m.editor.RequestReset()
		m.mode = ModeResetConfirm

	case keybinds.ActionCopy:
		return m.copyEntry()

	case keybinds.ActionToggleMonitor:
		if m.monitor == nil {
			m.setErrorMessage("Scancode monitor not available")
			return nil
		}
		if m.monitoring {
			m.stopMonitor()
			return nil
		}
		return m.startMonitor()

	case keybinds.ActionOpenGoto:
		m.openPrompt(ModeGoto, "key name, 0x1E or 30")

	case keybinds.ActionOpenHistory:
		if m.history == nil {
			m.setErrorMessage("History is disabled")
			return nil
		}
		m.mode = ModeHistory
		m.historyView.SetContent("Loading...")
		return m.loadHistory()

	case keybinds.ActionOpenHelp:
		m.helpView.GotoTop()
		m.mode = ModeHelp
	}
	return nil
}

func (m *Model) handleEditKeys(msg tea.KeyMsg, key string) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextEdit, key)
	if !ok {
		value, cmd := m.panel.Update(msg)
		if err := m.editor.SetField(m.panel.Field(), value); err != nil {
			m.setErrorMessage(err.Error())
		}
		return cmd
	}

	switch action {
	case keybinds.ActionNextField:
		m.panel.Next()
	case keybinds.ActionPrevField:
		m.panel.Prev()
	case keybinds.ActionToggleDead:
		m.panel.ToggleDead()
		_ = m.editor.SetDead(m.panel.Dead())
	case keybinds.ActionSave:
		if m.deviceBusy() {
			return nil
		}
		return m.saveEntry()
	case keybinds.ActionCancel:
		m.editor.Cancel()
		m.mode = ModeGrid
		m.errorMsg = ""
	}
	return nil
}

func (m *Model) handleConfirmKeys(key string) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextConfirm, key)
	if !ok {
		return nil
	}

	switch action {
	case keybinds.ActionConfirm:
		m.mode = ModeGrid
		return m.confirmReset()
	case keybinds.ActionCancel:
		m.editor.CancelReset()
		m.resetToken = ""
		m.mode = ModeGrid
		m.setStatusMessage("Reset cancelled")
	}
	return nil
}

func (m *Model) openPrompt(mode Mode, placeholder string) {
	m.mode = mode
	m.prompt.Reset()
	m.prompt.Placeholder = placeholder
	m.prompt.Focus()
	m.gotoMatches = nil
	m.gotoIndex = 0
}

func (m *Model) closePrompt() {
	m.prompt.Blur()
	m.mode = ModeGrid
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg, key string) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextPrompt, key)
	if !ok {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		if m.mode == ModeGoto {
			m.updateGotoMatches()
		}
		return cmd
	}

	switch action {
	case keybinds.ActionSubmit:
		if m.mode == ModeImport {
			if m.deviceBusy() {
				return nil
			}
			path := m.prompt.Value()
			m.closePrompt()
			return m.importFile(path)
		}
		usb, err := m.resolveGoto()
		if err != nil {
			m.setErrorMessage(err.Error())
			return nil
		}
		m.grid.SetCursor(usb)
		m.closePrompt()

	case keybinds.ActionCancel:
		m.closePrompt()

	case keybinds.ActionMoveUp:
		if m.gotoIndex > 0 {
			m.gotoIndex--
		}
	case keybinds.ActionMoveDown:
		if m.gotoIndex < len(m.gotoMatches)-1 {
			m.gotoIndex++
		}
	}
	return nil
}

func (m *Model) handleHistoryKeys(key string) tea.Cmd {
	action, ok, partial := m.keybinds.MatchMultiKey(keybinds.ContextHistory, key)
	if partial || !ok {
		return nil
	}

	switch action {
	case keybinds.ActionCloseModal:
		m.mode = ModeGrid
	case keybinds.ActionScrollUp:
		m.historyView.LineUp(1)
	case keybinds.ActionScrollDown:
		m.historyView.LineDown(1)
	case keybinds.ActionGoToTop:
		m.historyView.GotoTop()
	case keybinds.ActionGoToBottom:
		m.historyView.GotoBottom()
	case keybinds.ActionHistoryClear:
		return m.clearHistory()
	}
	return nil
}

func (m *Model) handleHelpKeys(key string) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextHelp, key)
	if !ok {
		return nil
	}

	switch action {
	case keybinds.ActionCloseModal:
		m.mode = ModeGrid
	case keybinds.ActionScrollUp:
		m.helpView.LineUp(1)
	case keybinds.ActionScrollDown:
		m.helpView.LineDown(1)
	}
	return nil
}
