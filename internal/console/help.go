package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Help overlay styles
var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			MarginBottom(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Width(10)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Width(18)
)

// renderHelpOverlay renders a centered box with the bindings of the
// current view, one column per binding group.
func (m Model) renderHelpOverlay() string {
	var columns []string
	for _, group := range (viewKeys{k: m.keys, view: m.view}).FullHelp() {
		var lines []string
		for _, b := range group {
			h := b.Help()
			lines = append(lines, helpKeyStyle.Render(h.Key)+helpDescStyle.Render(h.Desc))
		}
		columns = append(columns, strings.Join(lines, "\n"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		helpTitleStyle.Render(m.view.String()+" shortcuts"),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		"",
		LabelStyle.Render("Press ? to close"),
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		helpBoxStyle.Render(content),
		lipgloss.WithWhitespaceChars(" "),
	)
}
