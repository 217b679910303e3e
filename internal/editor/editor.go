// Package editor implements the selection and edit workflow over a keymap
// store. The store only changes after the device confirms a save, an upload
// followed by a reload, or a reset followed by a reload.
package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// Device is the subset of the device client the editor drives
type Device interface {
	Load(ctx context.Context) (keymap.Table, error)
	SaveEntry(ctx context.Context, e keymap.Entry) error
	UploadAll(ctx context.Context, raw []byte) error
	DownloadURL() string
	Reset(ctx context.Context) error
}

// Mode is the editor state
type Mode int

const (
	Idle Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "idle"
}

// Field identifies one hex field of the draft
type Field int

const (
	FieldBase Field = iota
	FieldShift
	FieldAltGr
	FieldCtrl
)

// Fields lists the hex fields in display order
var Fields = []Field{FieldBase, FieldShift, FieldAltGr, FieldCtrl}

func (f Field) String() string {
	switch f {
	case FieldBase:
		return "base"
	case FieldShift:
		return "shift"
	case FieldAltGr:
		return "altgr"
	case FieldCtrl:
		return "ctrl"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Draft holds the user's unsaved input for one entry.
// Hex fields are raw text; an empty field means 0.
type Draft struct {
	Base  string
	Shift string
	AltGr string
	Ctrl  string
	Dead  bool
}

// DraftFromEntry pre-fills a draft. Zero layers become empty strings.
func DraftFromEntry(e keymap.Entry) Draft {
	return Draft{
		Base:  keymap.FormatOptionalHex(e.Base),
		Shift: keymap.FormatOptionalHex(e.Shift),
		AltGr: keymap.FormatOptionalHex(e.AltGr),
		Ctrl:  keymap.FormatOptionalHex(e.Ctrl),
		Dead:  e.Dead,
	}
}

// Get returns the text of field f
func (d Draft) Get(f Field) string {
	switch f {
	case FieldShift:
		return d.Shift
	case FieldAltGr:
		return d.AltGr
	case FieldCtrl:
		return d.Ctrl
	}
	return d.Base
}

func (d *Draft) set(f Field, v string) {
	switch f {
	case FieldShift:
		d.Shift = v
	case FieldAltGr:
		d.AltGr = v
	case FieldCtrl:
		d.Ctrl = v
	default:
		d.Base = v
	}
}

// Entry validates every hex field and builds the candidate entry for usb
func (d Draft) Entry(usb int) (keymap.Entry, error) {
	values := make([]byte, len(Fields))
	for i, f := range Fields {
		v, err := keymap.ParseHexByte(d.Get(f))
		if err != nil {
			return keymap.Entry{}, &ValidationError{Field: f, Input: d.Get(f)}
		}
		values[i] = v
	}
	return keymap.Entry{
		USB:   usb,
		Base:  values[0],
		Shift: values[1],
		AltGr: values[2],
		Ctrl:  values[3],
		Dead:  d.Dead,
	}, nil
}

// Preview is the output each modifier state would produce for a draft
type Preview struct {
	Base, Shift, AltGr, Ctrl byte
}

// Editor is the selection/edit state machine. It is safe for concurrent use;
// device calls are made without holding the lock.
type Editor struct {
	mu     sync.Mutex
	store  *keymap.Store
	device Device

	mode  Mode
	usb   int
	draft Draft

	resetToken string
}

// New creates an idle editor over store, synchronized through dev
func New(store *keymap.Store, dev Device) *Editor {
	return &Editor{store: store, device: dev, usb: -1}
}

// Store returns the store the editor commits into
func (e *Editor) Store() *keymap.Store {
	return e.store
}

// Mode returns the current state
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Selected returns the usage code being edited
func (e *Editor) Selected() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.usb, e.mode == Editing
}

// Draft returns a copy of the current draft
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Select starts editing usb with a draft pre-filled from the store.
// Selecting while already editing discards the previous draft.
func (e *Editor) Select(usb int) error {
	if !keymap.ValidUSB(usb) {
		return fmt.Errorf("usb %d out of range 0-%d", usb, keymap.TableSize-1)
	}
	entry := e.store.Get(usb)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = Editing
	e.usb = usb
	e.draft = DraftFromEntry(entry)
	return nil
}

// Cancel discards the draft. It is a no-op while idle.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()
}

func (e *Editor) clearLocked() {
	e.mode = Idle
	e.usb = -1
	e.draft = Draft{}
}

// SetField replaces the text of one draft field
func (e *Editor) SetField(f Field, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != Editing {
		return ErrNotEditing
	}
	e.draft.set(f, value)
	return nil
}

// SetDead sets the draft's dead-key flag
func (e *Editor) SetDead(dead bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != Editing {
		return ErrNotEditing
	}
	e.draft.Dead = dead
	return nil
}

// SetDraft replaces the whole draft
func (e *Editor) SetDraft(d Draft) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != Editing {
		return ErrNotEditing
	}
	e.draft = d
	return nil
}

// Preview resolves the draft under each modifier state
func (e *Editor) Preview() (Preview, error) {
	e.mu.Lock()
	if e.mode != Editing {
		e.mu.Unlock()
		return Preview{}, ErrNotEditing
	}
	usb, draft := e.usb, e.draft
	e.mu.Unlock()

	entry, err := draft.Entry(usb)
	if err != nil {
		return Preview{}, err
	}
	return Preview{
		Base:  entry.Resolve(false, false, false),
		Shift: entry.Resolve(true, false, false),
		AltGr: entry.Resolve(false, true, false),
		Ctrl:  entry.Resolve(false, false, true),
	}, nil
}

// Save validates the draft and submits it. A validation failure returns a
// *ValidationError without contacting the device. On device confirmation the
// entry is committed to the store and the editor returns to Idle if it is
// still on the same entry. On failure the draft is kept.
func (e *Editor) Save(ctx context.Context) (keymap.Entry, error) {
	e.mu.Lock()
	if e.mode != Editing {
		e.mu.Unlock()
		return keymap.Entry{}, ErrNotEditing
	}
	entry, err := e.draft.Entry(e.usb)
	e.mu.Unlock()
	if err != nil {
		return keymap.Entry{}, err
	}

	if err := e.device.SaveEntry(ctx, entry); err != nil {
		log.Warn().Err(err).Int("usb", entry.USB).Msg("save failed")
		return entry, err
	}

	e.store.Set(entry)

	e.mu.Lock()
	if e.mode == Editing && e.usb == entry.USB {
		e.clearLocked()
	}
	e.mu.Unlock()

	log.Info().Int("usb", entry.USB).Str("entry", entry.String()).Msg("entry saved")
	return entry, nil
}

// Load replaces the store with the device's table and clears the editor.
// On failure the store and editor are left as they were.
func (e *Editor) Load(ctx context.Context) error {
	table, err := e.device.Load(ctx)
	if err != nil {
		return err
	}
	if err := e.store.ReplaceAll(table.Entries()); err != nil {
		return err
	}

	e.mu.Lock()
	e.clearLocked()
	e.mu.Unlock()
	return nil
}

// Import uploads a raw table and reloads. A table that is not exactly 256
// entry objects returns a *keymap.ShapeError before any request is made.
func (e *Editor) Import(ctx context.Context, raw []byte) error {
	if err := e.device.UploadAll(ctx, raw); err != nil {
		return err
	}
	if err := e.Load(ctx); err != nil {
		return fmt.Errorf("upload succeeded but reload failed: %w", err)
	}
	return nil
}

// ExportURL returns the download location for the device's table.
// It changes no state.
func (e *Editor) ExportURL() string {
	return e.device.DownloadURL()
}
