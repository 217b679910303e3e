package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerGridBindings(r)
	registerEditBindings(r)
	registerConfirmBindings(r)
	registerPromptBindings(r)
	registerHistoryBindings(r)
	registerHelpBindings(r)

	return r
}

func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuitForce)
}

func registerGridBindings(r *Registry) {
	r.Register(ContextGrid, "q", ActionQuit)

	r.RegisterMultiple(ContextGrid, []string{"up", "k"}, ActionMoveUp)
	r.RegisterMultiple(ContextGrid, []string{"down", "j"}, ActionMoveDown)
	r.RegisterMultiple(ContextGrid, []string{"left", "h"}, ActionMoveLeft)
	r.RegisterMultiple(ContextGrid, []string{"right", "l"}, ActionMoveRight)
	r.Register(ContextGrid, "home", ActionRowStart)
	r.Register(ContextGrid, "end", ActionRowEnd)
	r.Register(ContextGrid, "gg", ActionGoToTop)
	r.Register(ContextGrid, "G", ActionGoToBottom)

	r.Register(ContextGrid, "enter", ActionEdit)
	r.Register(ContextGrid, "r", ActionReload)
	r.Register(ContextGrid, "i", ActionImport)
	r.Register(ContextGrid, "e", ActionExport)
	r.Register(ContextGrid, "R", ActionReset)
	r.Register(ContextGrid, "y", ActionCopy)
	r.Register(ContextGrid, "m", ActionToggleMonitor)

	r.Register(ContextGrid, "/", ActionOpenGoto)
	r.Register(ContextGrid, "H", ActionOpenHistory)
	r.Register(ContextGrid, "?", ActionOpenHelp)
}

// Edit keys must not collide with hex digits typed into the fields
func registerEditBindings(r *Registry) {
	r.RegisterMultiple(ContextEdit, []string{"tab", "down"}, ActionNextField)
	r.RegisterMultiple(ContextEdit, []string{"shift+tab", "up"}, ActionPrevField)
	r.Register(ContextEdit, "space", ActionToggleDead)
	r.Register(ContextEdit, "enter", ActionSave)
	r.Register(ContextEdit, "esc", ActionCancel)
}

func registerConfirmBindings(r *Registry) {
	r.RegisterMultiple(ContextConfirm, []string{"y", "Y"}, ActionConfirm)
	r.RegisterMultiple(ContextConfirm, []string{"n", "N", "esc"}, ActionCancel)
}

func registerPromptBindings(r *Registry) {
	r.Register(ContextPrompt, "enter", ActionSubmit)
	r.Register(ContextPrompt, "esc", ActionCancel)
	r.Register(ContextPrompt, "up", ActionMoveUp)
	r.Register(ContextPrompt, "down", ActionMoveDown)
}

func registerHistoryBindings(r *Registry) {
	r.RegisterMultiple(ContextHistory, []string{"esc", "q", "H"}, ActionCloseModal)
	r.RegisterMultiple(ContextHistory, []string{"up", "k"}, ActionScrollUp)
	r.RegisterMultiple(ContextHistory, []string{"down", "j"}, ActionScrollDown)
	r.Register(ContextHistory, "gg", ActionGoToTop)
	r.Register(ContextHistory, "G", ActionGoToBottom)
	r.Register(ContextHistory, "C", ActionHistoryClear)
}

func registerHelpBindings(r *Registry) {
	r.RegisterMultiple(ContextHelp, []string{"esc", "q", "?"}, ActionCloseModal)
	r.RegisterMultiple(ContextHelp, []string{"up", "k"}, ActionScrollUp)
	r.RegisterMultiple(ContextHelp, []string{"down", "j"}, ActionScrollDown)
}
