/*
Package keymap models the extended keymap table of the keyboard converter.

# Table

A Table holds exactly 256 entries, one per USB HID usage code. Each entry carries an
output code for four layers (base, shift, altgr, ctrl) plus a dead-key flag. A layer value
of 0 means the layer is unmapped and the key passes through.

The fixed-size array type makes the length invariant structural: a Table can never be
sparse or reordered. Slices coming from the wire are converted with TableFromEntries,
which rejects anything that is not exactly 256 long with a *ShapeError.

# Store

Store is the single owner of the in-memory table. It never talks to the device; the
editor commits into it only after the device has confirmed a change.

	store := keymap.NewStore()
	if err := store.ReplaceAll(entries); err != nil {
		var shape *keymap.ShapeError
		if errors.As(err, &shape) {
			// table kept unchanged
		}
	}
	e := store.Get(0x04)

# Hex values

ParseHexByte and FormatHexByte convert between user-typed layer values and bytes.
Empty input is the explicit shorthand for 0; anything unparsable fails with
ErrInvalidHex and is never coerced.
*/
package keymap
