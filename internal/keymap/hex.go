package keymap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidHex is returned for input that is not a hex byte in 00..FF
var ErrInvalidHex = errors.New("invalid hex byte")

// ParseHexByte parses a layer value typed by the user.
// Empty or whitespace-only input is the explicit "unmapped" shorthand and parses to 0.
// An optional 0x/0X prefix is accepted, followed by one or two hex digits. Anything
// else fails with ErrInvalidHex; it never coerces to 0.
func ParseHexByte(input string) (byte, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if s == "" || len(s) > 2 || s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHex, input)
	}
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHex, input)
	}
	return byte(v), nil
}

// FormatHexByte renders b as two uppercase hex digits
func FormatHexByte(b byte) string {
	return fmt.Sprintf("%02X", b)
}

// FormatOptionalHex renders 0 as the empty string so "unset" stays
// distinguishable from an explicit value in input fields.
func FormatOptionalHex(b byte) string {
	if b == 0 {
		return ""
	}
	return FormatHexByte(b)
}
