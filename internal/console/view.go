package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/zenctl/internal/daemons"
	"github.com/rileyhilliard/zenctl/internal/discovery"
	"github.com/rileyhilliard/zenctl/internal/ui"
)

// Daemon table column widths.
const (
	colName    = 34
	colType    = 11
	colState   = 14
	colAuto    = 11
	colRestart = 8
)

// chrome is the number of lines taken by header, status line and footer.
const chrome = 6

func (m Model) renderConsole() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.form != nil:
		b.WriteString(m.form.View())
	case m.jobLog != nil:
		b.WriteString(m.renderJobLog())
	case m.view == ViewDiscoveries:
		b.WriteString(m.renderJobs())
	default:
		b.WriteString(m.renderDaemons())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := TitleStyle.Render("zenctl")

	var tabs []string
	for _, v := range []ViewMode{ViewDaemons, ViewDiscoveries} {
		style := TabStyle
		if v == m.view {
			style = TabActiveStyle
		}
		tabs = append(tabs, style.Render(v.String()))
	}

	var updateText string
	switch secs := m.SecondsSinceUpdate(); {
	case m.lastUpdate.IsZero():
		updateText = "loading"
	case secs == 0:
		updateText = "updated just now"
	default:
		updateText = fmt.Sprintf("updated %ds ago", secs)
	}

	stats := LabelStyle.Render(fmt.Sprintf(" | %s | %d daemons | %s", m.cfg.URL, len(m.rows), updateText))
	return HeaderStyle.Render(title + "  " + strings.Join(tabs, "") + stats)
}

func cell(s string, width int) string {
	return lipgloss.NewStyle().Width(width).MaxWidth(width).Render(s)
}

func (m Model) renderDaemons() string {
	if len(m.rows) == 0 {
		if !m.loaded {
			return LabelStyle.Render("Loading daemons...")
		}
		return LabelStyle.Render("The console reported no daemons")
	}

	var b strings.Builder
	b.WriteString("    ")
	b.WriteString(ColumnHeaderStyle.Render(
		cell("NAME", colName) + cell("TYPE", colType) + cell("STATE", colState) +
			cell("AUTOSTART", colAuto) + cell("RESTART", colRestart)))
	b.WriteString("\n")

	detail := ""
	if m.showDetail {
		detail = m.renderDetail()
	}
	visible := m.height - chrome - 1 - lipgloss.Height(detail)
	start, end := window(len(m.rows), m.cursor, visible)

	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i, m.rows[i]))
		b.WriteString("\n")
	}
	if detail != "" {
		b.WriteString(detail)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderRow(i int, r daemons.Row) string {
	cursor, mark := "  ", "  "
	if i == m.cursor {
		cursor = CursorStyle.Render("› ")
	}
	if m.marked[r.ID] {
		mark = CursorStyle.Render(ui.SymbolMarked + " ")
	}

	name := ui.Indent(r.Name, r.Depth)
	if i == m.cursor {
		name = SelectedNameStyle.Render(name)
	}

	state := ""
	if r.State != "" {
		state = ui.StateSymbol(string(r.State)) + " " + string(r.State)
	}

	restart := ""
	if r.Type == daemons.KindDaemon || m.tracker.Restarting(r.ID) {
		restart = ui.RestartIcon(m.tracker.Restarting(r.ID), m.spinner)
	}

	return cursor + mark +
		cell(name, colName) +
		cell(LabelStyle.Render(string(r.Type)), colType) +
		cell(state, colState) +
		cell(ui.Checkbox(r.AutoStart), colAuto) +
		cell(restart, colRestart)
}

// window returns the slice of n rows to show so cursor stays visible.
func window(n, cursor, visible int) (int, int) {
	if visible <= 0 || n <= visible {
		return 0, n
	}
	start := cursor - visible/2
	start = clamp(start, 0, n-visible)
	return start, start + visible
}

func (m Model) renderDetail() string {
	d, ok := m.tree.Get(m.detailID)
	if !ok {
		return ""
	}
	field := func(label, value string) string {
		return LabelStyle.Render(fmt.Sprintf("%-12s", label)) + ValueStyle.Render(value)
	}
	lines := []string{
		TitleStyle.Render(d.Name),
		field("id", d.ID),
		field("uid", d.UID),
		field("type", string(d.Type)),
		field("state", string(d.State)),
		field("auto-start", fmt.Sprintf("%t", d.AutoStart)),
		field("restarting", fmt.Sprintf("%t", d.IsRestarting || m.tracker.Restarting(d.ID))),
	}
	if len(d.Children) > 0 {
		lines = append(lines, field("children", fmt.Sprintf("%d", len(d.Children))))
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderJobs() string {
	if m.grid.Len() == 0 {
		return LabelStyle.Render("No discovery jobs. Press n to start one.")
	}

	var b strings.Builder
	b.WriteString(m.jobs.View())

	if j, ok := m.selectedJob(); ok {
		b.WriteString("\n")
		sc := discovery.RenderStatus(j.Status)
		status := sc.Text
		if status == "" {
			status = strings.ToLower(j.Status)
		}
		b.WriteString(LabelStyle.Render("job ") + ValueStyle.Render(j.UUID) +
			LabelStyle.Render("  status ") + toneStyle(sc.Tone).Render(status))
		if j.Errors != "" {
			b.WriteString("\n")
			b.WriteString(ui.ErrorStyle().Render("errors: " + j.Errors))
		}
	}
	if total := m.grid.Total(); total > m.grid.Len() {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render(fmt.Sprintf("showing %d of %d jobs", m.grid.Len(), total)))
	}
	return b.String()
}

func (m Model) renderJobLog() string {
	title := TitleStyle.Render("Job log ") + ValueStyle.Render(m.jobLog.UUID)
	if m.jobLog.Logfile != "" {
		title += LabelStyle.Render("  " + discovery.Logfile(m.jobLog.Logfile))
	}
	if len(m.jobLog.Lines) == 0 {
		return title + "\n" + LabelStyle.Render("The log is empty")
	}
	return title + "\n" + m.logView.View()
}

func (m Model) renderStatus() string {
	var parts []string
	if n := m.tracker.Len(); n > 0 {
		parts = append(parts, ui.WarningStyle().Render(fmt.Sprintf("%s restarting %d", m.spinner.View(), n)))
	}
	if m.status.text != "" {
		if m.status.err {
			parts = append(parts, StatusErrStyle.Render(ui.SymbolFail+" "+m.status.text))
		} else {
			parts = append(parts, StatusOKStyle.Render(ui.SymbolSuccess+" "+m.status.text))
		}
	}
	if len(m.marked) > 0 && m.view == ViewDaemons {
		parts = append(parts, LabelStyle.Render(fmt.Sprintf("%d marked", len(m.marked))))
	}
	return " " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	switch {
	case m.form != nil:
		return FooterStyle.Render("esc cancel")
	case m.jobLog != nil:
		return FooterStyle.Render("↑/↓ scroll | esc close")
	}
	return FooterStyle.Render(m.help.View(viewKeys{k: m.keys, view: m.view}))
}
