package keymap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/jsonc"
)

// ErrInvalidEntry is returned for a wire entry whose fields are out of range
var ErrInvalidEntry = errors.New("invalid keymap entry")

// Flag is the dead-key flag as the device encodes it: 0 or 1.
// Decoding also accepts JSON booleans.
type Flag bool

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*f = true
		return nil
	case "false", "null":
		*f = false
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("dead flag must be 0, 1 or a boolean: %w", err)
	}
	*f = n != 0
	return nil
}

// WireEntry is one entry object of the device's JSON API.
// Pointers distinguish absent fields from explicit zeros.
type WireEntry struct {
	USB   *int  `json:"usb,omitempty"`
	Base  *int  `json:"base,omitempty"`
	Shift *int  `json:"shift,omitempty"`
	AltGr *int  `json:"altgr,omitempty"`
	Ctrl  *int  `json:"ctrl,omitempty"`
	Dead  *Flag `json:"dead,omitempty"`
}

// NewWireEntry encodes e with every field present
func NewWireEntry(e Entry) WireEntry {
	usb, base, shift, altgr, ctrl := e.USB, int(e.Base), int(e.Shift), int(e.AltGr), int(e.Ctrl)
	dead := Flag(e.Dead)
	return WireEntry{USB: &usb, Base: &base, Shift: &shift, AltGr: &altgr, Ctrl: &ctrl, Dead: &dead}
}

// ToEntry converts the wire object into an Entry for usage code usb.
// When fillFromBase is set, absent shift/altgr/ctrl layers take the base value,
// as the firmware does for set and upload requests; otherwise they are 0.
func (w WireEntry) ToEntry(usb int, fillFromBase bool) (Entry, error) {
	if !ValidUSB(usb) {
		return Entry{}, fmt.Errorf("%w: usb %d out of range", ErrInvalidEntry, usb)
	}
	if w.USB != nil && *w.USB != usb {
		return Entry{}, fmt.Errorf("%w: usb %d at position %d", ErrInvalidEntry, *w.USB, usb)
	}

	e := Entry{USB: usb}
	var err error
	if e.Base, err = layerValue("base", w.Base, 0); err != nil {
		return Entry{}, err
	}
	fallback := byte(0)
	if fillFromBase {
		fallback = e.Base
	}
	if e.Shift, err = layerValue("shift", w.Shift, fallback); err != nil {
		return Entry{}, err
	}
	if e.AltGr, err = layerValue("altgr", w.AltGr, fallback); err != nil {
		return Entry{}, err
	}
	if e.Ctrl, err = layerValue("ctrl", w.Ctrl, fallback); err != nil {
		return Entry{}, err
	}
	if w.Dead != nil {
		e.Dead = bool(*w.Dead)
	}
	return e, nil
}

func layerValue(name string, v *int, fallback byte) (byte, error) {
	if v == nil {
		return fallback, nil
	}
	if *v < 0 || *v > 255 {
		return 0, fmt.Errorf("%w: %s %d out of range", ErrInvalidEntry, name, *v)
	}
	return byte(*v), nil
}

// EncodeEntry renders e as the device's set-entry payload
func EncodeEntry(e Entry) ([]byte, error) {
	return json.Marshal(NewWireEntry(e))
}

// EncodeTable renders t as the device's 256-element array
func EncodeTable(t Table) ([]byte, error) {
	wire := make([]WireEntry, TableSize)
	for i, e := range t {
		wire[i] = NewWireEntry(e)
	}
	return json.Marshal(wire)
}

// DecodeTable parses a 256-element array. Entries are placed by position; an
// explicit usb field must agree with it. A wrong length yields a *ShapeError.
func DecodeTable(data []byte, fillFromBase bool) (Table, error) {
	var wire []WireEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return Table{}, fmt.Errorf("failed to decode keymap table: %w", err)
	}
	if len(wire) != TableSize {
		return Table{}, &ShapeError{Got: len(wire)}
	}
	var t Table
	for i, w := range wire {
		e, err := w.ToEntry(i, fillFromBase)
		if err != nil {
			return Table{}, err
		}
		t[i] = e
	}
	return t, nil
}

// CheckShape verifies that data is an array of exactly TableSize entry-shaped
// objects and returns it as compact JSON ready to upload. Comments and trailing
// commas are accepted in the input. A usb field is not checked against its
// position. Any failure is a *ShapeError.
func CheckShape(data []byte) ([]byte, error) {
	clean := jsonc.ToJSON(data)

	var elems []json.RawMessage
	if err := json.Unmarshal(clean, &elems); err != nil {
		return nil, &ShapeError{Got: -1}
	}
	if len(elems) != TableSize {
		return nil, &ShapeError{Got: len(elems)}
	}
	for i, raw := range elems {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, &ShapeError{Got: len(elems), Reason: fmt.Sprintf("entry %d is not an object", i)}
		}
		var w WireEntry
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, &ShapeError{Got: len(elems), Reason: fmt.Sprintf("entry %d: %v", i, err)}
		}
		// The device places uploaded entries by position and ignores usb
		w.USB = nil
		if _, err := w.ToEntry(i, true); err != nil {
			return nil, &ShapeError{Got: len(elems), Reason: fmt.Sprintf("entry %d: %v", i, err)}
		}
	}

	var out bytes.Buffer
	if err := json.Compact(&out, clean); err != nil {
		return nil, &ShapeError{Got: -1}
	}
	return out.Bytes(), nil
}
