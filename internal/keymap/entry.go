package keymap

import "fmt"

// TableSize is the number of entries in an extended keymap table, one per USB usage code
const TableSize = 256

// Entry maps one USB usage code to its output code on each layer.
// A layer value of 0 means unmapped (passthrough) for that layer.
type Entry struct {
	USB   int  `json:"usb" yaml:"usb"`
	Base  byte `json:"base" yaml:"base"`
	Shift byte `json:"shift" yaml:"shift"`
	AltGr byte `json:"altgr" yaml:"altgr"`
	Ctrl  byte `json:"ctrl" yaml:"ctrl"`
	Dead  bool `json:"dead" yaml:"dead"`
}

// Table is a complete keymap. Index i always holds usage code i.
type Table [TableSize]Entry

// NewTable returns an all-zero table with every entry indexed by its usage code
func NewTable() Table {
	var t Table
	for i := range t {
		t[i].USB = i
	}
	return t
}

// TableFromEntries builds a table from exactly TableSize entries.
// Entries are placed by position; their USB field is rewritten to match.
func TableFromEntries(entries []Entry) (Table, error) {
	if len(entries) != TableSize {
		return Table{}, &ShapeError{Got: len(entries)}
	}
	var t Table
	for i, e := range entries {
		e.USB = i
		t[i] = e
	}
	return t, nil
}

// Entries returns the table as a slice
func (t Table) Entries() []Entry {
	out := make([]Entry, TableSize)
	copy(out, t[:])
	return out
}

// ValidUSB reports whether code is a usage code the table can hold
func ValidUSB(code int) bool {
	return code >= 0 && code < TableSize
}

// Resolve returns the output code the firmware emits for this entry under the
// given modifier state. Dead keys always emit their base code; otherwise ctrl
// wins over altgr, which wins over shift.
func (e Entry) Resolve(shift, altgr, ctrl bool) byte {
	if e.Dead {
		return e.Base
	}
	switch {
	case ctrl:
		return e.Ctrl
	case altgr:
		return e.AltGr
	case shift:
		return e.Shift
	}
	return e.Base
}

// IsZero reports whether the entry maps nothing on any layer
func (e Entry) IsZero() bool {
	return e.Base == 0 && e.Shift == 0 && e.AltGr == 0 && e.Ctrl == 0 && !e.Dead
}

func (e Entry) String() string {
	dead := 0
	if e.Dead {
		dead = 1
	}
	return fmt.Sprintf("usb=%s base=%s shift=%s altgr=%s ctrl=%s dead=%d",
		FormatHexByte(byte(e.USB)), FormatHexByte(e.Base), FormatHexByte(e.Shift),
		FormatHexByte(e.AltGr), FormatHexByte(e.Ctrl), dead)
}

// ShapeError reports a table that is not an array of exactly TableSize entries
type ShapeError struct {
	Got    int    // number of elements seen, -1 when the input was not an array
	Reason string // set when the length was right but an element was not entry-shaped
}

func (e *ShapeError) Error() string {
	if e.Reason != "" {
		return "keymap table is malformed: " + e.Reason
	}
	if e.Got < 0 {
		return fmt.Sprintf("keymap table must be an array of %d entries", TableSize)
	}
	return fmt.Sprintf("keymap table must have exactly %d entries, got %d", TableSize, e.Got)
}
