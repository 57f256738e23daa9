package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/zenctl/internal/daemons"
	"github.com/rileyhilliard/zenctl/internal/discovery"
	"github.com/rileyhilliard/zenctl/internal/ui"
	"github.com/rileyhilliard/zenctl/internal/util"
)

// selection returns the marked rows in display order, or the cursor row
// when nothing is marked.
func (m *Model) selection() []daemons.Daemon {
	var out []daemons.Daemon
	for _, r := range m.rows {
		if m.marked[r.ID] {
			out = append(out, r.Daemon)
		}
	}
	if len(out) == 0 {
		if r, ok := m.cursorRow(); ok {
			out = append(out, r.Daemon)
		}
	}
	return out
}

func (m *Model) toggleMark() {
	r, ok := m.cursorRow()
	if !ok {
		return
	}
	if m.marked[r.ID] {
		delete(m.marked, r.ID)
	} else {
		m.marked[r.ID] = true
	}
	m.moveCursor(1)
}

// toggleMarkAll marks every row, or clears the marks when all are marked.
func (m *Model) toggleMarkAll() {
	if len(m.marked) == len(m.rows) {
		m.marked = make(map[string]bool)
		return
	}
	for _, r := range m.rows {
		m.marked[r.ID] = true
	}
}

type controlFunc func(ctx context.Context, c *daemons.Controller) (daemons.Change, error)

func (m *Model) controlCmd(action string, rows []daemons.Daemon, fn controlFunc) tea.Cmd {
	if len(rows) == 0 {
		return nil
	}
	ctrl := m.ctrl
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return m.call(func(ctx context.Context) tea.Msg {
		ch, err := fn(ctx, ctrl)
		return changeMsg{action: action, names: names, change: ch, err: err}
	})
}

func (m *Model) startCmd() tea.Cmd {
	rows := m.selection()
	return m.controlCmd("Started", rows, func(ctx context.Context, c *daemons.Controller) (daemons.Change, error) {
		return c.Start(ctx, rows)
	})
}

func (m *Model) stopCmd() tea.Cmd {
	rows := m.selection()
	return m.controlCmd("Stopped", rows, func(ctx context.Context, c *daemons.Controller) (daemons.Change, error) {
		return c.Stop(ctx, rows)
	})
}

func (m *Model) restartCmd() tea.Cmd {
	rows := m.selection()
	if len(rows) == 0 {
		return nil
	}
	m.track(rows)
	return tea.Batch(
		m.controlCmd("Restarting", rows, func(ctx context.Context, c *daemons.Controller) (daemons.Change, error) {
			return c.Restart(ctx, rows)
		}),
		m.startPolling(),
		m.ensureSpinner(),
	)
}

func (m *Model) restartRowCmd() tea.Cmd {
	r, ok := m.cursorRow()
	if !ok {
		return nil
	}
	row := r.Daemon
	m.track([]daemons.Daemon{row})
	return tea.Batch(
		m.controlCmd("Restarting", []daemons.Daemon{row}, func(ctx context.Context, c *daemons.Controller) (daemons.Change, error) {
			return c.RestartRow(ctx, row)
		}),
		m.startPolling(),
		m.ensureSpinner(),
	)
}

func (m *Model) toggleCmd() tea.Cmd {
	r, ok := m.cursorRow()
	if !ok {
		return nil
	}
	row := r.Daemon
	action := "Started"
	if row.IsUp() {
		action = "Stopped"
	}
	return m.controlCmd(action, []daemons.Daemon{row}, func(ctx context.Context, c *daemons.Controller) (daemons.Change, error) {
		return c.Toggle(ctx, row)
	})
}

// autoStartCmd flips auto-start on the selection, driven by the first row.
func (m *Model) autoStartCmd() tea.Cmd {
	rows := m.selection()
	if len(rows) == 0 {
		return nil
	}
	enabled := !rows[0].AutoStart
	action := "Auto-start off"
	if enabled {
		action = "Auto-start on"
	}
	return m.controlCmd(action, rows, func(ctx context.Context, c *daemons.Controller) (daemons.Change, error) {
		return c.SetAutoStart(ctx, rows, enabled)
	})
}

func (m *Model) applyChange(msg changeMsg) {
	if msg.err != nil {
		m.fail(msg.err)
		return
	}
	m.tree.Apply(m.stillRestarting(msg.change))
	m.syncRows()
	m.ok(fmt.Sprintf("%s: %s", msg.action, strings.Join(msg.names, ", ")))
}

// stillRestarting drops ids from a restarting change once a poll round has
// already settled them, so a late answer can't put a settled row back.
func (m *Model) stillRestarting(ch daemons.Change) daemons.Change {
	if ch.State != daemons.StateRestarting {
		return ch
	}
	ids := make([]string, 0, len(ch.IDs))
	for _, id := range ch.IDs {
		if m.tracker.Restarting(id) {
			ids = append(ids, id)
		}
	}
	ch.IDs = ids
	return ch
}

// track hands the cached rows to the restart tracker so their icons spin
// right away.
func (m *Model) track(rows []daemons.Daemon) {
	for _, r := range rows {
		if d, ok := m.tree.Get(r.ID); ok {
			m.tracker.Track(d)
		}
	}
}

// startPolling schedules the first poll round unless one is already on
// its way.
func (m *Model) startPolling() tea.Cmd {
	if m.polling || !m.tracker.Active() {
		return nil
	}
	m.polling = true
	return m.pollTickCmd()
}

func (m *Model) pollTickCmd() tea.Cmd {
	return m.tick(m.tracker.Interval(), func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func (m *Model) pollCmd() tea.Cmd {
	if !m.tracker.Active() {
		m.polling = false
		return nil
	}
	tracker, ids := m.tracker, m.tracker.Pending()
	return m.call(func(ctx context.Context) tea.Msg {
		return pollMsg{statuses: tracker.Lookup(ctx, ids)}
	})
}

// applyPoll folds a round into the tree and schedules the next one while
// anything is still restarting.
func (m *Model) applyPoll(msg pollMsg) tea.Cmd {
	settled := m.tracker.Apply(msg.statuses)
	for _, s := range msg.statuses {
		if s.Err != nil {
			m.log.Debug("restart poll %s: %v", s.ID, s.Err)
		}
	}
	m.syncRows()

	if len(settled) > 0 {
		names := make([]string, 0, len(settled))
		for _, id := range settled {
			if d, ok := m.tree.Get(id); ok {
				names = append(names, fmt.Sprintf("%s is %s", d.Name, d.State))
			}
		}
		m.ok(strings.Join(names, ", "))
	}

	if !m.tracker.Active() {
		m.polling = false
		return nil
	}
	return m.pollTickCmd()
}

// needsSpinner reports whether any icon is animating.
func (m *Model) needsSpinner() bool {
	return m.tracker.Active() || m.grid.HasActive()
}

func (m *Model) ensureSpinner() tea.Cmd {
	if m.spinning || !m.needsSpinner() {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// spin advances the shared spinner and lets the tick chain lapse once
// nothing animates.
func (m *Model) spin(msg spinner.TickMsg) tea.Cmd {
	if !m.needsSpinner() {
		m.spinning = false
		return nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	m.frame++
	if m.view == ViewDiscoveries {
		m.syncJobs()
	}
	return cmd
}

func (m *Model) openDetail() tea.Cmd {
	r, ok := m.cursorRow()
	if !ok {
		return nil
	}
	m.showDetail = true
	m.detailID = r.ID

	ctrl, id := m.ctrl, r.ID
	return m.call(func(ctx context.Context) tea.Msg {
		node, err := ctrl.Info(ctx, id)
		return infoMsg{node: node, err: err}
	})
}

// collectors lists the collectors the wizard offers. The tree wins over
// the config file.
func (m *Model) collectors() []string {
	if c := m.tree.Collectors(); len(c) > 0 {
		return c
	}
	return m.cfg.Collectors
}

func (m *Model) openForm(kind formKind, form *huh.Form) tea.Cmd {
	m.formKind = kind
	m.form = form.WithShowHelp(true)
	if m.width > 0 {
		m.form = m.form.WithWidth(min(m.width, 80))
	}
	m.status = statusLine{}
	return m.form.Init()
}

func (m *Model) closeForm() {
	m.form = nil
	m.formKind = formNone
	m.wizard = nil
	m.assign = nil
}

func (m *Model) openWizard() tea.Cmd {
	m.wizard = discovery.NewRequest()
	return m.openForm(formWizard, discovery.NewForm(m.wizard, m.collectors()))
}

// openAssign asks which devices go to the collector under the cursor.
func (m *Model) openAssign() tea.Cmd {
	r, ok := m.cursorRow()
	if !ok {
		return nil
	}
	if err := daemons.CheckAssignTarget(r.Daemon); err != nil {
		m.fail(err)
		return nil
	}

	a := &assignRequest{target: r.Daemon}
	m.assign = a
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Devices").
				Description("Device uids, one per line or comma separated").
				Value(&a.devices).
				Validate(func(s string) error {
					if len(discovery.SplitInput(s)) == 0 {
						return fmt.Errorf("enter at least one device uid")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewConfirm().
				TitleFunc(func() string {
					return assignPrompt(len(discovery.SplitInput(a.devices)), a.target.Name)
				}, &a.devices).
				Affirmative("Assign").
				Negative("Cancel").
				Value(&a.confirmed),
		),
	)
	return m.openForm(formAssign, form)
}

func assignPrompt(count int, collector string) string {
	return fmt.Sprintf("Assign %s to collector %s?", util.Pluralize(count, "device", "devices"), collector)
}

// updateForm feeds msg to the open form and submits it once complete.
func (m *Model) updateForm(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.keys.Back) {
		m.closeForm()
		m.ok("Cancelled")
		return nil
	}

	model, cmd := m.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return tea.Batch(cmd, m.submitForm())
	case huh.StateAborted:
		m.closeForm()
		m.ok("Cancelled")
		return nil
	}
	return cmd
}

func (m *Model) submitForm() tea.Cmd {
	kind, wizard, assign := m.formKind, m.wizard, m.assign
	m.closeForm()

	switch kind {
	case formWizard:
		networks := m.svc.Networks
		return m.call(func(ctx context.Context) tea.Msg {
			jobs, err := discovery.Submit(ctx, networks, wizard)
			return discoverMsg{jobs: jobs, err: err}
		})

	case formAssign:
		if !assign.confirmed {
			m.ok("Assignment cancelled")
			return nil
		}
		ctrl := m.ctrl
		uids := discovery.SplitInput(assign.devices)
		return m.call(func(ctx context.Context) tea.Msg {
			out, err := ctrl.AssignDevices(ctx, uids, assign.target, func(int, string) bool {
				return assign.confirmed
			})
			return assignMsg{out: out, err: err}
		})
	}
	return nil
}

func (m *Model) applyAssign(msg assignMsg) {
	switch {
	case msg.err != nil:
		m.fail(msg.err)
		return
	case !msg.out.Assigned:
		m.ok("Assignment cancelled")
		return
	}
	if msg.out.Target.ID != "" {
		m.tree.UpdateNode(msg.out.Target)
		m.syncRows()
	}
	m.ok(fmt.Sprintf("Assigned %s to %s", util.Pluralize(msg.out.Count, "device", "devices"), msg.out.Collector))
}

// selectedJob returns the job under the grid cursor.
func (m *Model) selectedJob() (discovery.Job, bool) {
	jobs := m.grid.Jobs()
	i := m.jobs.Cursor()
	if i < 0 || i >= len(jobs) {
		return discovery.Job{}, false
	}
	return jobs[i], true
}

// removeJobCmd deletes the job under the cursor. A job already being
// removed sends nothing.
func (m *Model) removeJobCmd() tea.Cmd {
	j, ok := m.selectedJob()
	if !ok || !m.grid.MarkPendingDelete(j.UUID) {
		return nil
	}
	m.syncJobs()

	grid, uuid := m.grid, j.UUID
	return m.call(func(ctx context.Context) tea.Msg {
		return deleteMsg{uuid: uuid, err: grid.Delete(ctx, uuid)}
	})
}

func (m *Model) jobLogCmd() tea.Cmd {
	j, ok := m.selectedJob()
	if !ok {
		return nil
	}
	grid, uuid := m.grid, j.UUID
	return m.call(func(ctx context.Context) tea.Msg {
		l, err := grid.JobLog(ctx, uuid)
		return logMsg{log: l, err: err}
	})
}

func jobColumns(showCollector bool) []ui.TableColumn {
	cols := []ui.TableColumn{
		{Title: "Status", Width: 10},
		{Title: "Networks", Width: 28},
		{Title: "Credentials", Width: 22},
	}
	if showCollector {
		cols = append(cols, ui.TableColumn{Title: "Collector", Width: 14})
	}
	return append(cols,
		ui.TableColumn{Title: "Duration", Width: 14},
		ui.TableColumn{Title: "Job Log", Width: 30},
	)
}

// syncJobs rebuilds the grid table. Cells are plain text; the table
// truncates by rune width.
func (m *Model) syncJobs() {
	showCollector := discovery.ShowCollector(m.collectors())

	cols := jobColumns(showCollector)
	tcols := make([]table.Column, len(cols))
	for i, c := range cols {
		tcols[i] = table.Column{Title: c.Title, Width: c.Width}
	}

	jobs := m.grid.Jobs()
	rows := make([]table.Row, 0, len(jobs))
	for _, j := range jobs {
		row := table.Row{m.jobStatus(j), j.Networks, discovery.Credentials(j.ZProperties)}
		if showCollector {
			row = append(row, j.Collector)
		}
		row = append(row, discovery.Duration(j.Duration), discovery.Logfile(j.Logfile))
		rows = append(rows, row)
	}

	// Clear the rows first so no row ever has more cells than columns.
	m.jobs.SetRows(nil)
	m.jobs.SetColumns(tcols)
	m.jobs.SetRows(rows)
	if m.jobs.Cursor() >= len(rows) {
		m.jobs.SetCursor(max(0, len(rows)-1))
	}
}

func (m *Model) jobStatus(j discovery.Job) string {
	if j.PendingDelete {
		return "removing"
	}
	cell := discovery.RenderStatus(j.Status)
	switch cell.Tone {
	case discovery.ToneInProgress:
		frames := ui.RestartFrames.Frames
		return frames[m.frame%len(frames)]
	case discovery.ToneSettled:
		return ui.SymbolDown
	}
	return cell.Text
}
