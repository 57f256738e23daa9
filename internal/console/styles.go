package console

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/zenctl/internal/discovery"
	"github.com/rileyhilliard/zenctl/internal/ui"
)

// Console palette. State colors come from the ui package so CLI output and
// the console agree.
const (
	ColorSurfaceBg = lipgloss.Color("#1B1D2A")
	ColorBorder    = lipgloss.Color("#3A3F5C")

	ColorTextPrimary   = lipgloss.Color("#E8E8F0")
	ColorTextSecondary = lipgloss.Color("#A4A8C0")
	ColorTextMuted     = lipgloss.Color("#6A6E8A")

	ColorAccent = lipgloss.Color("#4FB3FF")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorBorder).
			Bold(true).
			Padding(0, 1)

	ColumnHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorTextSecondary).
				Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	SelectedNameStyle = lipgloss.NewStyle().
				Foreground(ColorTextPrimary).
				Bold(true)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StatusOKStyle  = lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	StatusErrStyle = lipgloss.NewStyle().Foreground(ui.ColorError)
)

// toneStyle colors a job status outside the table.
func toneStyle(t discovery.Tone) lipgloss.Style {
	switch t {
	case discovery.ToneInProgress, discovery.ToneWarning:
		return ui.WarningStyle()
	case discovery.ToneClear:
		return ui.SuccessStyle()
	case discovery.ToneCritical:
		return ui.ErrorStyle()
	}
	return ValueStyle
}
