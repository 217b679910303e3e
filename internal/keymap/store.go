package keymap

import "sync"

// Store owns the canonical table cache. It performs no I/O; callers only
// mutate it after the device has confirmed the corresponding change.
type Store struct {
	mu     sync.RWMutex
	table  Table
	loaded bool
}

// NewStore creates a store holding an all-zero table
func NewStore() *Store {
	return &Store{table: NewTable()}
}

// Get returns the entry for usb. Out-of-range codes yield a zero entry.
func (s *Store) Get(usb int) Entry {
	if !ValidUSB(usb) {
		return Entry{USB: usb}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table[usb]
}

// Set overwrites the entry at e.USB. Out-of-range codes are ignored.
func (s *Store) Set(e Entry) {
	if !ValidUSB(e.USB) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[e.USB] = e
}

// ReplaceAll swaps the whole table. A slice that is not exactly TableSize long
// is rejected with a ShapeError and the current table is kept.
func (s *Store) ReplaceAll(entries []Entry) error {
	t, err := TableFromEntries(entries)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	s.loaded = true
	return nil
}

// Snapshot returns a copy of the current table
func (s *Store) Snapshot() Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Loaded reports whether a full table has been installed since creation
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// FindByBase returns the usage codes whose base output equals code
func (s *Store) FindByBase(code byte) []int {
	if code == 0 {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int
	for i, e := range s.table {
		if e.Base == code {
			out = append(out, i)
		}
	}
	return out
}
