package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// tableStyles returns the shared look of every table.
func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	s.Selected = s.Selected.
		Foreground(ColorPrimary).
		Background(ColorMuted).
		Bold(false)
	return s
}

// NewTable creates a bubbles table with the default styling. height is the
// number of visible rows; zero fits every row.
func NewTable(columns []TableColumn, rows []table.Row, height int) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}
	if height <= 0 {
		height = len(rows) + 1 // +1 for header
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(height),
	)
	t.SetStyles(tableStyles())
	return t
}

// RenderSimpleTable renders a non-interactive table for CLI output.
// Columns with a zero width are sized to their widest cell.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	cols := make([]TableColumn, len(columns))
	copy(cols, columns)
	for i := range cols {
		if cols[i].Width > 0 {
			continue
		}
		w := lipgloss.Width(cols[i].Title)
		for _, r := range rows {
			if i < len(r) && lipgloss.Width(r[i]) > w {
				w = lipgloss.Width(r[i])
			}
		}
		cols[i].Width = w
	}

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = padRight(c.Title, c.Width)
	}
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.TrimRight(strings.Join(header, "  "), " ")))
	b.WriteString("\n")
	for _, r := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cell := ""
			if i < len(r) {
				cell = r[i]
			}
			cells[i] = padRight(cell, c.Width)
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		b.WriteString("\n")
	}
	return b.String()
}

// padRight pads s to width visible cells.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// Indent prefixes name with two spaces per depth level.
func Indent(name string, depth int) string {
	return strings.Repeat("  ", depth) + name
}
