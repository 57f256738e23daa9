package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/zenctl/internal/config"
	"github.com/rileyhilliard/zenctl/internal/daemons"
	"github.com/rileyhilliard/zenctl/internal/discovery"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/logger"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	"github.com/rileyhilliard/zenctl/internal/ui"
	"github.com/rileyhilliard/zenctl/internal/util"
)

// Applications is the ApplicationRouter surface the console drives.
// *rpc.Applications satisfies it.
type Applications interface {
	GetTree(ctx context.Context, id string) ([]rpc.Node, error)
	daemons.Service
}

// Services bundles the routers the console talks to.
type Services struct {
	Apps     Applications
	Devices  daemons.Assigner
	Jobs     discovery.JobService
	Networks discovery.Discoverer
}

// NewServices wires every router wrapper to c.
func NewServices(c *rpc.Client) Services {
	return Services{
		Apps:     rpc.NewApplications(c),
		Devices:  rpc.NewDevices(c),
		Jobs:     rpc.NewJobs(c),
		Networks: rpc.NewNetworks(c),
	}
}

// Options configure a console model.
type Options struct {
	Config *config.Config
	// Select is the daemon id to open in the details panel on first load.
	Select string
	Log    logger.Logger
}

type formKind int

const (
	formNone formKind = iota
	formWizard
	formAssign
)

// assignRequest is what the assign form collects.
type assignRequest struct {
	target    daemons.Daemon
	devices   string
	confirmed bool
}

type statusLine struct {
	text string
	err  bool
}

// tickFunc schedules a message after d. tea.Tick in production.
type tickFunc func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Model is the Bubble Tea model for the console.
type Model struct {
	cfg  *config.Config
	svc  Services
	log  logger.Logger
	tick tickFunc

	tree    *daemons.Tree
	ctrl    *daemons.Controller
	tracker *daemons.RestartTracker
	grid    *discovery.Grid

	view     ViewMode
	rows     []daemons.Row
	cursor   int
	marked   map[string]bool
	selectID string
	loaded   bool

	showDetail bool
	detailID   string

	jobs    table.Model
	jobLog  *discovery.Log
	logView viewport.Model

	form     *huh.Form
	formKind formKind
	wizard   *discovery.Request
	assign   *assignRequest

	spinner  spinner.Model
	spinning bool
	frame    int
	polling  bool

	keys     keyMap
	help     help.Model
	showHelp bool
	status   statusLine

	width      int
	height     int
	lastUpdate time.Time
	quitting   bool
}

// refreshTickMsg reloads the tree (and jobs) every refresh interval.
type refreshTickMsg time.Time

// pollTickMsg starts the next restart poll round.
type pollTickMsg time.Time

type treeMsg struct {
	nodes []rpc.Node
	err   error
	at    time.Time
}

type pollMsg struct {
	statuses []daemons.Status
}

type changeMsg struct {
	action string
	names  []string
	change daemons.Change
	err    error
}

type infoMsg struct {
	node rpc.Node
	err  error
}

type assignMsg struct {
	out daemons.Assignment
	err error
}

type jobsMsg struct {
	res rpc.JobsResult
	err error
}

type deleteMsg struct {
	uuid string
	err  error
}

type discoverMsg struct {
	jobs []rpc.Job
	err  error
}

type logMsg struct {
	log discovery.Log
	err error
}

// NewModel creates a console model. Nothing is fetched until Init.
func NewModel(svc Services, opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := opts.Log
	if log == nil {
		log = logger.Noop()
	}

	m := Model{
		cfg:      cfg,
		svc:      svc,
		log:      log,
		tick:     tea.Tick,
		tree:     daemons.NewTree(cfg.RootNode),
		ctrl:     daemons.NewController(svc.Apps, svc.Devices, log),
		tracker:  daemons.NewRestartTracker(svc.Apps, cfg.PollInterval),
		grid:     discovery.NewGrid(svc.Jobs, log),
		marked:   make(map[string]bool),
		selectID: opts.Select,
		jobs:     ui.NewTable(jobColumns(true), nil, 10),
		logView:  viewport.New(80, 20),
		spinner:  ui.NewRestartSpinner(),
		keys:     defaultKeyMap(),
		help:     help.New(),
	}
	m.jobs.Focus()
	return m
}

// Init loads the tree and the jobs and starts the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadTreeCmd(),
		m.loadJobsCmd(),
		m.refreshTickCmd(),
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			cmd := m.updateForm(msg)
			return m, cmd
		}
	}

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case refreshTickMsg:
		cmds = append(cmds, m.refreshTickCmd(), m.loadTreeCmd())
		if m.view == ViewDiscoveries || m.grid.HasActive() {
			cmds = append(cmds, m.loadJobsCmd())
		}

	case treeMsg:
		cmds = append(cmds, m.applyTree(msg))

	case pollTickMsg:
		cmds = append(cmds, m.pollCmd())

	case pollMsg:
		cmds = append(cmds, m.applyPoll(msg))

	case changeMsg:
		m.applyChange(msg)

	case infoMsg:
		if msg.err != nil {
			m.fail(msg.err)
			break
		}
		m.tree.UpdateNode(msg.node)
		m.syncRows()

	case assignMsg:
		m.applyAssign(msg)

	case jobsMsg:
		if msg.err != nil {
			m.fail(msg.err)
			break
		}
		m.grid.Load(msg.res)
		m.syncJobs()
		cmds = append(cmds, m.ensureSpinner())

	case deleteMsg:
		if msg.err != nil {
			m.grid.ClearPendingDelete(msg.uuid)
			m.fail(msg.err)
		} else {
			m.grid.Drop(msg.uuid)
			m.ok("Removed job " + msg.uuid)
		}
		m.syncJobs()

	case discoverMsg:
		if msg.err != nil {
			m.fail(msg.err)
			break
		}
		m.grid.Add(msg.jobs...)
		m.syncJobs()
		m.ok(fmt.Sprintf("Scheduled %s", util.Pluralize(len(msg.jobs), "discovery job", "discovery jobs")))
		cmds = append(cmds, m.ensureSpinner())

	case logMsg:
		if msg.err != nil {
			m.fail(msg.err)
			break
		}
		l := msg.log
		m.jobLog = &l
		m.logView.SetContent(strings.Join(l.Lines, "\n"))
		m.logView.GotoBottom()

	case spinner.TickMsg:
		cmds = append(cmds, m.spin(msg))
	}

	if m.form != nil {
		cmds = append(cmds, m.updateForm(msg))
	}
	return m, tea.Batch(cmds...)
}

// View renders the console.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderConsole()
}

// Run starts the console on the terminal and blocks until it quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	m.jobs.SetWidth(width)
	m.jobs.SetHeight(max(3, height-9))

	m.logView.Width = width
	m.logView.Height = max(1, height-7)

	if m.form != nil {
		m.form = m.form.WithWidth(min(width, 80))
	}
}

// call wraps a router call in a tea.Cmd with the configured timeout.
func (m *Model) call(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	timeout := m.cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m *Model) refreshTickCmd() tea.Cmd {
	return m.tick(m.cfg.RefreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func (m *Model) loadTreeCmd() tea.Cmd {
	apps, root := m.svc.Apps, m.tree.RootID()
	return m.call(func(ctx context.Context) tea.Msg {
		nodes, err := apps.GetTree(ctx, root)
		return treeMsg{nodes: nodes, err: err, at: time.Now()}
	})
}

func (m *Model) loadJobsCmd() tea.Cmd {
	grid := m.grid
	return m.call(func(ctx context.Context) tea.Msg {
		res, err := grid.Fetch(ctx)
		return jobsMsg{res: res, err: err}
	})
}

// applyTree reconciles a getTree answer. The first successful load also
// resolves the deep-linked selection.
func (m *Model) applyTree(msg treeMsg) tea.Cmd {
	if msg.err != nil {
		m.fail(msg.err)
		return nil
	}
	stats := m.tree.Reconcile(msg.nodes)
	m.log.Debug("tree reconciled: %s", stats)
	m.lastUpdate = msg.at
	m.forgetVanished()
	m.syncRows()
	if stats.Changed() {
		m.syncJobs()
	}

	if m.loaded {
		return nil
	}
	m.loaded = true

	d, err := m.tree.Select(m.selectID)
	if err != nil {
		m.fail(err)
		return nil
	}
	m.cursorTo(d.ID)
	if m.selectID == "" {
		return nil
	}
	m.selectID = ""
	return m.openDetail()
}

// forgetVanished stops tracking restarts of daemons the server no longer
// reports. Their getInfo lookups would fail forever.
func (m *Model) forgetVanished() {
	var gone []string
	for _, id := range m.tracker.Pending() {
		if _, ok := m.tree.Get(id); !ok {
			gone = append(gone, id)
		}
	}
	if dropped := m.tracker.Forget(gone...); len(dropped) > 0 {
		m.log.Debug("restart tracking dropped for removed daemons: %s", strings.Join(dropped, ", "))
	}
}

// syncRows rebuilds the display rows from the tree, keeping the cursor on
// the same daemon when it is still there and dropping marks of daemons
// that went away.
func (m *Model) syncRows() {
	current := ""
	if r, ok := m.cursorRow(); ok {
		current = r.ID
	}
	m.rows = m.tree.Rows()

	present := make(map[string]bool, len(m.rows))
	for _, r := range m.rows {
		present[r.ID] = true
	}
	for id := range m.marked {
		if !present[id] {
			delete(m.marked, id)
		}
	}
	if m.showDetail && !present[m.detailID] {
		m.showDetail = false
	}

	if current != "" && m.cursorTo(current) {
		return
	}
	m.cursor = clamp(m.cursor, 0, len(m.rows)-1)
}

func (m *Model) cursorTo(id string) bool {
	for i, r := range m.rows {
		if r.ID == id {
			m.cursor = i
			return true
		}
	}
	return false
}

func (m *Model) cursorRow() (daemons.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return daemons.Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, len(m.rows)-1)
}

func (m *Model) fail(err error) {
	m.log.Debug("console: %s", errors.Short(err))
	m.status = statusLine{text: errors.Short(err), err: true}
}

func (m *Model) ok(text string) {
	m.status = statusLine{text: text}
}

// SelectedID returns the id of the daemon under the cursor.
func (m Model) SelectedID() string {
	if r, ok := m.cursorRow(); ok {
		return r.ID
	}
	return ""
}

// SecondsSinceUpdate returns how many seconds have passed since the tree
// was last loaded.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(time.Since(m.lastUpdate).Seconds())
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}
