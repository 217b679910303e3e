package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/kexedit/internal/keybinds"
	"github.com/studiowebux/kexedit/internal/keymap"
)

// New creates a new TUI model
func New(opts Options) (Model, error) {
	if opts.Editor == nil {
		return Model{}, errors.New("tui: editor is required")
	}
	registry := opts.Keybinds
	if registry == nil {
		registry = keybinds.NewDefaultRegistry()
	}

	usages := keymap.NamedUsages()
	names := make([]string, len(usages))
	for i, u := range usages {
		names[i] = u.Name
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		ctx:         ctx,
		cancel:      cancel,
		editor:      opts.Editor,
		store:       opts.Editor.Store(),
		keybinds:    registry,
		history:     opts.History,
		monitor:     opts.Monitor,
		autoMon:     opts.MonitorOnStart,
		deviceName:  opts.DeviceName,
		deviceURL:   opts.DeviceURL,
		mode:        ModeGrid,
		grid:        NewGridView(),
		panel:       NewEditPanel(),
		prompt:      newTextInput("", 256),
		gotoNames:   names,
		gotoUsages:  usages,
		historyView: viewport.New(80, 20),
		helpView:    viewport.New(80, 20),
	}
	m.prompt.Width = 48
	m.helpView.SetContent(m.helpContent())

	return m, nil
}

// Run starts the TUI and blocks until the user quits
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}
	defer m.Cleanup()

	// Pass pointer since Update uses pointer receiver
	p := tea.NewProgram(&m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
