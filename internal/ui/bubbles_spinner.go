package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// RestartFrames animates the restart icon of a row with a restart in flight.
// The CLI Spinner uses the same frames so both read alike.
var RestartFrames = spinner.Spinner{
	Frames: []string{"◐", "◓", "◑", "◒"},
	FPS:    time.Second / 8,
}

// NewRestartSpinner returns a bubbles spinner with the restart frames.
// One spinner drives every in-flight icon in a table.
func NewRestartSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = RestartFrames
	sp.Style = lipgloss.NewStyle().Foreground(ColorWarning)
	return sp
}

// RestartIcon renders the restart column: the spinner frame while a restart
// is in flight, the still icon otherwise.
func RestartIcon(inFlight bool, sp spinner.Model) string {
	if inFlight {
		return sp.View()
	}
	return MutedStyle().Render(SymbolRestart)
}
