package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/kexedit/internal/editor"
	"github.com/studiowebux/kexedit/internal/history"
	"github.com/studiowebux/kexedit/internal/keybinds"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
	colorText   = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(colorText)

	styleEditing = lipgloss.NewStyle().
			Bold(true).
			Background(colorCyan).
			Foreground(lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"})

	styleHighlight = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	styleMapped = lipgloss.NewStyle().
			Foreground(colorText)

	styleFocusedLabel = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorGreen)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)
)

// renderMain renders the grid, the side panel and the status bar
func (m Model) renderMain() string {
	editing := -1
	if usb, ok := m.editor.Selected(); ok && m.mode == ModeEdit {
		editing = usb
	}

	gridBorder := colorGreen
	panelBorder := colorGray
	var side string
	if m.mode == ModeEdit && editing >= 0 {
		gridBorder, panelBorder = colorGray, colorGreen
		var preview *editor.Preview
		if p, err := m.editor.Preview(); err == nil {
			preview = &p
		}
		side = m.panel.View(editing, preview)
	} else {
		side = renderEntry(m.store.Get(m.grid.Cursor()))
	}

	gridBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(gridBorder).
		Padding(0, 1).
		Render(m.grid.View(editing))

	panelBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(panelBorder).
		Padding(0, 1).
		Width(30).
		Render(side)

	body := lipgloss.JoinHorizontal(lipgloss.Top, gridBox, panelBox)

	parts := []string{m.renderTitle(), body}
	if m.mode == ModeImport || m.mode == ModeGoto {
		parts = append(parts, m.renderPrompt())
	}
	parts = append(parts, m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTitle() string {
	title := styleTitle.Render("kexedit")
	target := fmt.Sprintf(" %s %s", m.deviceName, styleSubtle.Render(m.deviceURL))
	right := ""
	if m.monitoring {
		right = styleWarning.Render("monitor")
		if ev := m.lastEvent; ev != nil {
			right += fmt.Sprintf(" %s %s %s", ev.Proto, ev.Type, keymap.FormatHexByte(ev.Code))
		}
	}
	spacing := m.width - lipgloss.Width(title) - lipgloss.Width(target) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}
	return title + target + strings.Repeat(" ", spacing) + right
}

func (m Model) renderPrompt() string {
	label := "Import file: "
	if m.mode == ModeGoto {
		label = "Go to: "
	}
	var b strings.Builder
	b.WriteString(styleTitle.Render(label))
	b.WriteString(m.prompt.View())

	if m.mode == ModeGoto {
		for i, match := range m.gotoMatches {
			u := m.gotoUsages[match.Index]
			line := fmt.Sprintf("  %s %s", keymap.FormatHexByte(byte(u.USB)), u.Name)
			if i == m.gotoIndex {
				line = styleSelected.Render(line)
			}
			b.WriteString("\n" + line)
		}
	}
	return b.String()
}

// renderStatusBar renders the status bar at the bottom
func (m Model) renderStatusBar() string {
	left := fmt.Sprintf("Usage %s", keymap.FormatHexByte(byte(m.grid.Cursor())))
	if name := keymap.UsageName(m.grid.Cursor()); name != "" {
		left += " " + name
	}
	if !m.loaded {
		left += styleSubtle.Render(" (not loaded)")
	}

	right := ""
	switch {
	case m.busy:
		right = styleWarning.Render(m.busyOp + "...")
	case m.errorMsg != "":
		right = styleError.Render(m.errorMsg)
	case m.statusMsg != "":
		right = styleSuccess.Render(m.statusMsg)
	default:
		right = styleSubtle.Render(fmt.Sprintf("%s edit | %s help | %s quit",
			m.keybinds.GetBindingString(keybinds.ContextGrid, keybinds.ActionEdit),
			m.keybinds.GetBindingString(keybinds.ContextGrid, keybinds.ActionOpenHelp),
			m.keybinds.GetBindingString(keybinds.ContextGrid, keybinds.ActionQuit)))
	}

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}
	return left + strings.Repeat(" ", spacing) + right
}

func (m Model) renderModal(title, body, footer string) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styleTitle.Render(title),
		"",
		body,
		"",
		styleSubtle.Render(footer),
	)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCyan).
		Padding(1, 2).
		Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderResetConfirm() string {
	body := styleWarning.Render("Replace the whole keymap on the device with the built-in defaults?") +
		"\n" + fmt.Sprintf("Device: %s (%s)", m.deviceName, m.deviceURL)
	footer := fmt.Sprintf("%s reset | %s cancel",
		m.keybinds.GetBindingString(keybinds.ContextConfirm, keybinds.ActionConfirm),
		m.keybinds.GetBindingString(keybinds.ContextConfirm, keybinds.ActionCancel))
	return m.renderModal("Reset device", body, footer)
}

func (m Model) renderHistory() string {
	footer := fmt.Sprintf("%d entries | %s clear | %s close",
		m.historyCount,
		m.keybinds.GetBindingString(keybinds.ContextHistory, keybinds.ActionHistoryClear),
		m.keybinds.GetBindingString(keybinds.ContextHistory, keybinds.ActionCloseModal))
	return m.renderModal("History: "+m.deviceName, m.historyView.View(), footer)
}

func (m Model) renderHelp() string {
	footer := m.keybinds.GetBindingString(keybinds.ContextHelp, keybinds.ActionCloseModal) + " close"
	return m.renderModal("Keys", m.helpView.View(), footer)
}

// renderHistoryEntries formats journal rows, newest first
func renderHistoryEntries(entries []history.Entry) string {
	if len(entries) == 0 {
		return styleSubtle.Render("No operations recorded")
	}

	var b strings.Builder
	for i, e := range entries {
		usb := "  "
		if e.USB >= 0 {
			usb = keymap.FormatHexByte(byte(e.USB))
		}
		status := styleSuccess.Render(fmt.Sprintf("%3d", e.Status))
		if e.Error != "" || e.Status >= 400 || e.Status == 0 {
			status = styleError.Render(fmt.Sprintf("%3d", e.Status))
		}
		fmt.Fprintf(&b, "%s  %-8s %s  %s %6dms",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Op, usb, status, e.Duration.Milliseconds())
		if e.Error != "" {
			b.WriteString("  " + styleError.Render(truncate(e.Error, 60)))
		}
		if i < len(entries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// helpContent lists every binding by context
func (m Model) helpContent() string {
	sections := []struct {
		title   string
		context keybinds.Context
	}{
		{"Grid", keybinds.ContextGrid},
		{"Editor", keybinds.ContextEdit},
		{"Reset prompt", keybinds.ContextConfirm},
		{"Import / Go to", keybinds.ContextPrompt},
		{"History", keybinds.ContextHistory},
		{"Anywhere", keybinds.ContextGlobal},
	}

	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styleTitle.Render(s.title) + "\n")

		seen := make(map[keybinds.Action]bool)
		for _, binding := range m.keybinds.ListBindings(s.context) {
			if seen[binding.Action] {
				continue
			}
			seen[binding.Action] = true
			keys := m.keybinds.GetBinding(s.context, binding.Action)
			info := keybinds.GetActionInfo(binding.Action)
			fmt.Fprintf(&b, "  %-16s %s\n", strings.Join(keys, "/"), info.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// updateViewports sizes the modal viewports to the terminal
func (m *Model) updateViewports() {
	w := max(40, m.width-12)
	h := max(5, m.height-12)
	m.historyView.Width, m.historyView.Height = w, h
	m.helpView.Width, m.helpView.Height = w, h
}
