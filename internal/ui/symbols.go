package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess = "✓" // Action succeeded
	SymbolFail    = "✗" // Action failed
	SymbolWarning = "!" // Aborted or partial
	SymbolUp      = "●" // Daemon running
	SymbolDown    = "○" // Daemon stopped
	SymbolRestart = "↻" // Restart column, settled
	SymbolOn      = "☑" // Auto-start enabled
	SymbolOff     = "☐" // Auto-start disabled
	SymbolMarked  = "▸" // Row selected for an action
)

// StateSymbol renders the symbol for a daemon state.
func StateSymbol(state string) string {
	switch state {
	case "up":
		return SuccessStyle().Render(SymbolUp)
	case "restarting":
		return WarningStyle().Render(SymbolRestart)
	case "down":
		return ErrorStyle().Render(SymbolDown)
	}
	return MutedStyle().Render(SymbolDown)
}

// Checkbox renders a boolean flag.
func Checkbox(on bool) string {
	if on {
		return SuccessStyle().Render(SymbolOn)
	}
	return MutedStyle().Render(SymbolOff)
}
