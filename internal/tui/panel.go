package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/kexedit/internal/editor"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// EditPanel holds the text inputs for the entry being edited
type EditPanel struct {
	inputs [4]textinput.Model
	focus  int
	dead   bool
}

func newTextInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = ""
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// NewEditPanel creates an empty panel
func NewEditPanel() *EditPanel {
	p := &EditPanel{}
	for i := range p.inputs {
		p.inputs[i] = newTextInput("--", 4)
		p.inputs[i].Width = 5
	}
	return p
}

// Load fills the inputs from d and focuses the base field
func (p *EditPanel) Load(d editor.Draft) {
	for i, f := range editor.Fields {
		p.inputs[i].SetValue(d.Get(f))
		p.inputs[i].CursorEnd()
	}
	p.dead = d.Dead
	p.setFocus(0)
}

// Draft returns the panel contents as a draft
func (p *EditPanel) Draft() editor.Draft {
	return editor.Draft{
		Base:  p.inputs[0].Value(),
		Shift: p.inputs[1].Value(),
		AltGr: p.inputs[2].Value(),
		Ctrl:  p.inputs[3].Value(),
		Dead:  p.dead,
	}
}

// Field returns the focused field
func (p *EditPanel) Field() editor.Field {
	return editor.Fields[p.focus]
}

// Dead reports the dead-key checkbox
func (p *EditPanel) Dead() bool {
	return p.dead
}

// ToggleDead flips the dead-key checkbox
func (p *EditPanel) ToggleDead() {
	p.dead = !p.dead
}

// Next focuses the following field, wrapping around
func (p *EditPanel) Next() {
	p.setFocus((p.focus + 1) % len(p.inputs))
}

// Prev focuses the preceding field, wrapping around
func (p *EditPanel) Prev() {
	p.setFocus((p.focus + len(p.inputs) - 1) % len(p.inputs))
}

func (p *EditPanel) setFocus(i int) {
	p.focus = i
	for j := range p.inputs {
		if j == i {
			p.inputs[j].Focus()
		} else {
			p.inputs[j].Blur()
		}
	}
}

// Update forwards a key to the focused input and returns the field's new text
func (p *EditPanel) Update(msg tea.Msg) (string, tea.Cmd) {
	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	return p.inputs[p.focus].Value(), cmd
}

// View renders the panel. preview is nil when the draft does not parse.
func (p *EditPanel) View(usb int, preview *editor.Preview) string {
	var b strings.Builder

	title := fmt.Sprintf("Usage %s (%d)", keymap.FormatHexByte(byte(usb)), usb)
	if name := keymap.UsageName(usb); name != "" {
		title += " " + name
	}
	b.WriteString(styleTitle.Render(title))
	b.WriteString("\n\n")

	for i, f := range editor.Fields {
		label := fmt.Sprintf("%-6s", f.String())
		if i == p.focus {
			label = styleFocusedLabel.Render(label)
		} else {
			label = styleSubtle.Render(label)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, p.inputs[i].View()))
	}

	check := "[ ]"
	if p.dead {
		check = "[x]"
	}
	b.WriteString(fmt.Sprintf("%s %s\n\n", styleSubtle.Render(fmt.Sprintf("%-6s", "dead")), check))

	b.WriteString(styleSubtle.Render("Output"))
	b.WriteString("\n")
	if preview == nil {
		b.WriteString(styleError.Render("  draft has invalid hex"))
		return b.String()
	}
	rows := []struct {
		name string
		code byte
	}{
		{"none", preview.Base},
		{"shift", preview.Shift},
		{"altgr", preview.AltGr},
		{"ctrl", preview.Ctrl},
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", r.name, previewCode(r.code)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func previewCode(code byte) string {
	if code == 0 {
		return styleSubtle.Render("—")
	}
	return keymap.FormatHexByte(code)
}

// renderEntry shows a stored entry read-only, for the cell under the cursor
func renderEntry(e keymap.Entry) string {
	var b strings.Builder

	title := fmt.Sprintf("Usage %s (%d)", keymap.FormatHexByte(byte(e.USB)), e.USB)
	if name := keymap.UsageName(e.USB); name != "" {
		title += " " + name
	}
	b.WriteString(styleTitle.Render(title))
	b.WriteString("\n\n")

	layers := []struct {
		name string
		code byte
	}{
		{"base", e.Base},
		{"shift", e.Shift},
		{"altgr", e.AltGr},
		{"ctrl", e.Ctrl},
	}
	for _, l := range layers {
		b.WriteString(fmt.Sprintf("%s %s\n", styleSubtle.Render(fmt.Sprintf("%-6s", l.name)), previewCode(l.code)))
	}
	dead := "no"
	if e.Dead {
		dead = "yes"
	}
	b.WriteString(fmt.Sprintf("%s %s", styleSubtle.Render(fmt.Sprintf("%-6s", "dead")), dead))
	return b.String()
}
