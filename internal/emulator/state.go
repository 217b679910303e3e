package emulator

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/studiowebux/kexedit/internal/config"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// State is the emulated device's keymap together with its persisted copy
type State struct {
	mu    sync.RWMutex
	table keymap.Table
	path  string
	saved []byte // last persisted document, nil when nothing was persisted
}

// NewState loads the table persisted at path. A missing or invalid file
// falls back to the legacy defaults, which are then persisted. An empty path
// persists in memory only.
func NewState(path string) (*State, error) {
	s := &State{path: path}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			table, derr := keymap.DecodeTable(data, false)
			if derr == nil {
				s.table = table
				s.saved = data
				log.Info().Str("path", path).Msg("loaded extended keymap")
				return s, nil
			}
			log.Warn().Err(derr).Str("path", path).Msg("ignoring invalid keymap file")
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read keymap file: %w", err)
		}
	}

	log.Info().Msg("no extended keymap found, loading legacy base map")
	s.table = keymap.LegacyTable()
	if err := s.persistLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// Table returns a copy of the current table
func (s *State) Table() keymap.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Saved returns the persisted document
func (s *State) Saved() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.saved == nil {
		return nil, false
	}
	out := make([]byte, len(s.saved))
	copy(out, s.saved)
	return out, true
}

// Set stores one entry and persists the table
func (s *State) Set(e keymap.Entry) error {
	if !keymap.ValidUSB(e.USB) {
		return fmt.Errorf("usb %d out of range", e.USB)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[e.USB] = e
	return s.persistLocked()
}

// Replace swaps the whole table and persists it
func (s *State) Replace(t keymap.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
	return s.persistLocked()
}

// Reset restores the legacy defaults and persists them
func (s *State) Reset() error {
	return s.Replace(keymap.LegacyTable())
}

func (s *State) persistLocked() error {
	data, err := keymap.EncodeTable(s.table)
	if err != nil {
		return fmt.Errorf("failed to encode keymap: %w", err)
	}
	if s.path != "" {
		if err := os.WriteFile(s.path, data, config.FilePermissions); err != nil {
			return fmt.Errorf("failed to persist keymap: %w", err)
		}
	}
	s.saved = data
	return nil
}
