package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// CellLabel is what a grid cell shows: the base output in hex when mapped,
// otherwise the cell's own usage code so unmapped cells show their address.
func CellLabel(e keymap.Entry, usb int) string {
	if e.Base != 0 {
		return keymap.FormatHexByte(e.Base)
	}
	return keymap.FormatHexByte(byte(usb))
}

// cellSelectedMsg is emitted when the operator picks a cell
type cellSelectedMsg struct {
	usb int
}

// GridView renders the 256 entries as a 16x16 overview
type GridView struct {
	labels    [keymap.TableSize]string
	mapped    [keymap.TableSize]bool
	highlight map[int]bool
	cursor    int
}

// NewGridView creates a grid showing an empty table
func NewGridView() *GridView {
	g := &GridView{highlight: make(map[int]bool)}
	g.Refresh(keymap.NewTable())
	return g
}

// Refresh re-renders every cell from t
func (g *GridView) Refresh(t keymap.Table) {
	for i, e := range t {
		g.labels[i] = CellLabel(e, i)
		g.mapped[i] = e.Base != 0
	}
}

// RefreshCell re-renders the single cell of e
func (g *GridView) RefreshCell(e keymap.Entry) {
	if !keymap.ValidUSB(e.USB) {
		return
	}
	g.labels[e.USB] = CellLabel(e, e.USB)
	g.mapped[e.USB] = e.Base != 0
}

// Label returns the rendered text of cell usb
func (g *GridView) Label(usb int) string {
	if !keymap.ValidUSB(usb) {
		return ""
	}
	return g.labels[usb]
}

// Cursor returns the usage code under the cursor
func (g *GridView) Cursor() int {
	return g.cursor
}

// SetCursor moves the cursor to usb, reporting whether it was in range
func (g *GridView) SetCursor(usb int) bool {
	if !keymap.ValidUSB(usb) {
		return false
	}
	g.cursor = usb
	return true
}

// Move shifts the cursor by rows and columns, clamped to the grid edges
func (g *GridView) Move(rows, cols int) {
	row := clamp(g.cursor/gridCols+rows, 0, gridRows-1)
	col := clamp(g.cursor%gridCols+cols, 0, gridCols-1)
	g.cursor = row*gridCols + col
}

// RowStart moves the cursor to the first cell of its row
func (g *GridView) RowStart() {
	g.cursor -= g.cursor % gridCols
}

// RowEnd moves the cursor to the last cell of its row
func (g *GridView) RowEnd() {
	g.cursor += gridCols - 1 - g.cursor%gridCols
}

// Highlight marks cells, replacing any previous highlight
func (g *GridView) Highlight(cells []int) {
	g.highlight = make(map[int]bool, len(cells))
	for _, c := range cells {
		g.highlight[c] = true
	}
}

// Highlighted reports whether cell usb is highlighted
func (g *GridView) Highlighted(usb int) bool {
	return g.highlight[usb]
}

// Select emits a selection event for the cell under the cursor
func (g *GridView) Select() tea.Cmd {
	usb := g.cursor
	return func() tea.Msg {
		return cellSelectedMsg{usb: usb}
	}
}

// View renders the grid. editing is the cell open in the editor, or -1.
func (g *GridView) View(editing int) string {
	var b strings.Builder

	b.WriteString(styleSubtle.Render("    "))
	for col := 0; col < gridCols; col++ {
		b.WriteString(styleSubtle.Render(fmt.Sprintf(" %X ", col)))
	}
	b.WriteString("\n")

	for row := 0; row < gridRows; row++ {
		b.WriteString(styleSubtle.Render(fmt.Sprintf("%X0  ", row)))
		for col := 0; col < gridCols; col++ {
			usb := row*gridCols + col
			b.WriteString(g.cellStyle(usb, editing).Render(" " + g.labels[usb]))
		}
		if row < gridRows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (g *GridView) cellStyle(usb, editing int) lipgloss.Style {
	switch {
	case usb == editing:
		return styleEditing
	case usb == g.cursor:
		return styleSelected
	case g.highlight[usb]:
		return styleHighlight
	case g.mapped[usb]:
		return styleMapped
	}
	return styleSubtle
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
