package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the context in which keybindings are active
type Context string

const (
	ContextGlobal  Context = "global"  // Available everywhere
	ContextGrid    Context = "grid"    // 16x16 keymap overview
	ContextEdit    Context = "edit"    // Entry editor panel
	ContextConfirm Context = "confirm" // Reset confirmation
	ContextPrompt  Context = "prompt"  // Import path and goto inputs
	ContextHistory Context = "history" // Operation journal viewer
	ContextHelp    Context = "help"    // Help viewer
)

// Contexts lists every context a binding can live in
var Contexts = []Context{
	ContextGlobal,
	ContextGrid,
	ContextEdit,
	ContextConfirm,
	ContextPrompt,
	ContextHistory,
	ContextHelp,
}

const (
	ActionQuit      Action = "quit"
	ActionQuitForce Action = "quit_force"

	// Grid navigation
	ActionMoveUp     Action = "move_up"
	ActionMoveDown   Action = "move_down"
	ActionMoveLeft   Action = "move_left"
	ActionMoveRight  Action = "move_right"
	ActionRowStart   Action = "row_start"
	ActionRowEnd     Action = "row_end"
	ActionGoToTop    Action = "go_to_top"
	ActionGoToBottom Action = "go_to_bottom"

	// Device operations
	ActionEdit          Action = "edit"
	ActionReload        Action = "reload"
	ActionImport        Action = "import"
	ActionExport        Action = "export"
	ActionReset         Action = "reset"
	ActionCopy          Action = "copy"
	ActionToggleMonitor Action = "toggle_monitor"

	// Modal launchers
	ActionOpenGoto    Action = "open_goto"
	ActionOpenHistory Action = "open_history"
	ActionOpenHelp    Action = "open_help"

	// Editor panel
	ActionNextField  Action = "next_field"
	ActionPrevField  Action = "prev_field"
	ActionToggleDead Action = "toggle_dead"
	ActionSave       Action = "save"
	ActionCancel     Action = "cancel"

	// Modals
	ActionConfirm      Action = "confirm"
	ActionSubmit       Action = "submit"
	ActionCloseModal   Action = "close_modal"
	ActionScrollUp     Action = "scroll_up"
	ActionScrollDown   Action = "scroll_down"
	ActionHistoryClear Action = "history_clear"
)

// ActionInfo contains metadata about an action
type ActionInfo struct {
	Action      Action
	Description string
	Category    string
}

var actionInfos = []ActionInfo{
	{ActionQuit, "Quit", "Global"},
	{ActionQuitForce, "Force quit", "Global"},
	{ActionMoveUp, "Move up one row", "Navigation"},
	{ActionMoveDown, "Move down one row", "Navigation"},
	{ActionMoveLeft, "Move left one cell", "Navigation"},
	{ActionMoveRight, "Move right one cell", "Navigation"},
	{ActionRowStart, "Jump to row start", "Navigation"},
	{ActionRowEnd, "Jump to row end", "Navigation"},
	{ActionGoToTop, "Jump to usage 00", "Navigation"},
	{ActionGoToBottom, "Jump to usage FF", "Navigation"},
	{ActionEdit, "Edit selected entry", "Device"},
	{ActionReload, "Reload table from device", "Device"},
	{ActionImport, "Upload a keymap file", "Device"},
	{ActionExport, "Open the download URL", "Device"},
	{ActionReset, "Reset device to defaults", "Device"},
	{ActionCopy, "Copy entry JSON", "Device"},
	{ActionToggleMonitor, "Toggle scancode monitor", "Device"},
	{ActionOpenGoto, "Go to key by name or code", "Views"},
	{ActionOpenHistory, "Show operation history", "Views"},
	{ActionOpenHelp, "Show help", "Views"},
	{ActionNextField, "Next field", "Editor"},
	{ActionPrevField, "Previous field", "Editor"},
	{ActionToggleDead, "Toggle dead key", "Editor"},
	{ActionSave, "Save entry to device", "Editor"},
	{ActionCancel, "Cancel", "Editor"},
	{ActionConfirm, "Confirm", "Modal"},
	{ActionSubmit, "Submit input", "Modal"},
	{ActionCloseModal, "Close", "Modal"},
	{ActionScrollUp, "Scroll up", "Modal"},
	{ActionScrollDown, "Scroll down", "Modal"},
	{ActionHistoryClear, "Clear history", "Modal"},
}

// GetActionInfo returns human-readable information about an action
func GetActionInfo(action Action) ActionInfo {
	for _, info := range actionInfos {
		if info.Action == action {
			return info
		}
	}
	return ActionInfo{action, string(action), "Unknown"}
}

// KnownAction reports whether action is one the UI can perform
func KnownAction(action Action) bool {
	for _, info := range actionInfos {
		if info.Action == action {
			return true
		}
	}
	return false
}

// KnownContext reports whether context is a defined context
func KnownContext(context Context) bool {
	for _, c := range Contexts {
		if c == context {
			return true
		}
	}
	return false
}
