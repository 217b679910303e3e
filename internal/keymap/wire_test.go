package keymap

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func tableJSON(n int, entry func(i int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = entry(i)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestDecodeTable(t *testing.T) {
	body := tableJSON(TableSize, func(i int) string {
		if i == 65 {
			return `{"usb":65,"base":97,"shift":65,"altgr":0,"ctrl":0,"dead":0}`
		}
		return `{"base":0,"shift":0,"altgr":0,"ctrl":0,"dead":0}`
	})

	table, err := DecodeTable([]byte(body), false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := Entry{USB: 65, Base: 0x61, Shift: 0x41}
	if table[65] != want {
		t.Errorf("Expected %+v, got %+v", want, table[65])
	}
	if table[10].USB != 10 {
		t.Errorf("Expected position to imply usb 10, got %d", table[10].USB)
	}
}

func TestDecodeTable_Errors(t *testing.T) {
	short := tableJSON(10, func(i int) string { return `{"base":1}` })
	_, err := DecodeTable([]byte(short), false)
	var shape *ShapeError
	if !errors.As(err, &shape) || shape.Got != 10 {
		t.Errorf("Expected ShapeError with Got=10, got %v", err)
	}

	if _, err := DecodeTable([]byte(`{"not":"an array"}`), false); err == nil {
		t.Error("Expected error decoding an object")
	}

	outOfRange := tableJSON(TableSize, func(i int) string { return `{"base":300}` })
	if _, err := DecodeTable([]byte(outOfRange), false); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Expected ErrInvalidEntry, got %v", err)
	}

	mismatch := tableJSON(TableSize, func(i int) string { return fmt.Sprintf(`{"usb":%d}`, (i+1)%TableSize) })
	if _, err := DecodeTable([]byte(mismatch), false); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Expected ErrInvalidEntry for misplaced usb, got %v", err)
	}
}

func TestWireEntry_FillFromBase(t *testing.T) {
	var w WireEntry
	if err := json.Unmarshal([]byte(`{"usb":4,"base":30,"altgr":0}`), &w); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	filled, err := w.ToEntry(4, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if filled.Shift != 30 || filled.Ctrl != 30 {
		t.Errorf("Expected absent layers to take base, got %+v", filled)
	}
	if filled.AltGr != 0 {
		t.Errorf("Expected explicit altgr 0 to be kept, got %d", filled.AltGr)
	}

	plain, err := w.ToEntry(4, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if plain.Shift != 0 || plain.Ctrl != 0 {
		t.Errorf("Expected absent layers to be 0, got %+v", plain)
	}
}

func TestFlag(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`{"dead":1}`, true},
		{`{"dead":0}`, false},
		{`{"dead":true}`, true},
		{`{"dead":false}`, false},
	}
	for _, tt := range tests {
		var w WireEntry
		if err := json.Unmarshal([]byte(tt.in), &w); err != nil {
			t.Fatalf("Unexpected error for %s: %v", tt.in, err)
		}
		if w.Dead == nil || bool(*w.Dead) != tt.want {
			t.Errorf("Expected dead=%v for %s", tt.want, tt.in)
		}
	}

	var w WireEntry
	if err := json.Unmarshal([]byte(`{"dead":"yes"}`), &w); err == nil {
		t.Error("Expected error for string dead flag")
	}
}

func TestEncodeEntry(t *testing.T) {
	data, err := EncodeEntry(Entry{USB: 10, Base: 0x1E, Dead: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := `{"usb":10,"base":30,"shift":0,"altgr":0,"ctrl":0,"dead":1}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestEncodeDecodeTable(t *testing.T) {
	table := LegacyTable()
	table[7].Dead = true

	data, err := EncodeTable(table)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	decoded, err := DecodeTable(data, false)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if decoded != table {
		t.Error("Expected decoded table to equal the encoded one")
	}
}

func TestCheckShape(t *testing.T) {
	valid := tableJSON(TableSize, func(i int) string { return `{"base":1}` })
	out, err := CheckShape([]byte(valid))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(out) != valid {
		t.Errorf("Expected compact output to match input")
	}

	commented := "// exported from device\n" + strings.Replace(valid, "]", ",]", 1)
	if _, err := CheckShape([]byte(commented)); err != nil {
		t.Errorf("Expected jsonc input to pass, got %v", err)
	}

	misplaced := tableJSON(TableSize, func(i int) string { return fmt.Sprintf(`{"usb":%d,"base":1}`, (i+1)%TableSize) })
	if _, err := CheckShape([]byte(misplaced)); err != nil {
		t.Errorf("Expected usb fields to be ignored on upload, got %v", err)
	}

	tests := []struct {
		name string
		in   string
		got  int
	}{
		{name: "too long", in: tableJSON(300, func(i int) string { return `{}` }), got: 300},
		{name: "too short", in: tableJSON(1, func(i int) string { return `{}` }), got: 1},
		{name: "not an array", in: `{"base":1}`, got: -1},
		{name: "not json", in: `nope`, got: -1},
		{name: "element not object", in: tableJSON(TableSize, func(i int) string { return "1" }), got: TableSize},
		{name: "element out of range", in: tableJSON(TableSize, func(i int) string { return `{"ctrl":-4}` }), got: TableSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckShape([]byte(tt.in))
			var shape *ShapeError
			if !errors.As(err, &shape) {
				t.Fatalf("Expected ShapeError, got %v", err)
			}
			if shape.Got != tt.got {
				t.Errorf("Expected Got=%d, got %d", tt.got, shape.Got)
			}
		})
	}
}
