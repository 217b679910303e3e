package tui

const (
	gridCols = 16
	gridRows = 16

	// maxStatusLen truncates footer messages
	maxStatusLen = 100

	// historyLimit caps the journal rows shown in the viewer
	historyLimit = 200

	// gotoMaxMatches caps the fuzzy candidates listed under the goto prompt
	gotoMaxMatches = 8

	// monitorBuffer holds scancode events not yet drawn; extra events are dropped
	monitorBuffer = 64
)
