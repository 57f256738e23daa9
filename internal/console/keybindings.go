package console

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewMode is the view the console shows.
type ViewMode int

const (
	ViewDaemons ViewMode = iota
	ViewDiscoveries
)

func (v ViewMode) String() string {
	switch v {
	case ViewDaemons:
		return "Daemons"
	case ViewDiscoveries:
		return "Discoveries"
	default:
		return "Daemons"
	}
}

// Next cycles to the other view.
func (v ViewMode) Next() ViewMode {
	return ViewMode((int(v) + 1) % 2)
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	NextView key.Binding
	Details  key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Back     key.Binding
	Quit     key.Binding

	// Daemons
	Mark       key.Binding
	MarkAll    key.Binding
	Start      key.Binding
	Stop       key.Binding
	Restart    key.Binding
	RestartRow key.Binding
	Toggle     key.Binding
	AutoStart  key.Binding
	Assign     key.Binding

	// Discoveries
	New    key.Binding
	Remove key.Binding
	Log    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home", "first row")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "last row")),
		NextView: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
		Details:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Refresh:  key.NewBinding(key.WithKeys("f5", "ctrl+r"), key.WithHelp("F5", "refresh")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Mark:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "mark")),
		MarkAll:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "mark all")),
		Start:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Stop:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Restart:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		RestartRow: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "restart row")),
		Toggle:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "start/stop row")),
		AutoStart:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "auto-start")),
		Assign:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "assign devices")),

		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new discovery")),
		Remove: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove job")),
		Log:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "job log")),
	}
}

// viewKeys is the help.KeyMap for one view.
type viewKeys struct {
	k    keyMap
	view ViewMode
}

func (v viewKeys) ShortHelp() []key.Binding {
	if v.view == ViewDiscoveries {
		return []key.Binding{v.k.New, v.k.Remove, v.k.Log, v.k.NextView, v.k.Help, v.k.Quit}
	}
	return []key.Binding{v.k.Mark, v.k.Start, v.k.Stop, v.k.Restart, v.k.NextView, v.k.Help, v.k.Quit}
}

func (v viewKeys) FullHelp() [][]key.Binding {
	nav := []key.Binding{v.k.Up, v.k.Down, v.k.Top, v.k.Bottom, v.k.NextView, v.k.Refresh, v.k.Back, v.k.Quit}
	if v.view == ViewDiscoveries {
		return [][]key.Binding{
			{v.k.New, v.k.Remove, v.k.Log},
			nav,
		}
	}
	return [][]key.Binding{
		{v.k.Mark, v.k.MarkAll, v.k.Start, v.k.Stop, v.k.Restart, v.k.RestartRow},
		{v.k.Toggle, v.k.AutoStart, v.k.Assign, v.k.Details},
		nav,
	}
}

// HandleKeyMsg processes keyboard input outside forms. Returns true when
// the key was handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	// Help toggle takes priority
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Back) {
			m.showHelp = false
		}
		return true, nil
	}

	if m.jobLog != nil {
		if key.Matches(msg, m.keys.Back, m.keys.Log) {
			m.jobLog = nil
			return true, nil
		}
		var cmd tea.Cmd
		m.logView, cmd = m.logView.Update(msg)
		return true, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return true, tea.Quit

	case key.Matches(msg, m.keys.Back):
		m.showDetail = false
		m.status = statusLine{}
		return true, nil

	case key.Matches(msg, m.keys.NextView):
		m.view = m.view.Next()
		m.showDetail = false
		if m.view == ViewDiscoveries {
			return true, m.loadJobsCmd()
		}
		return true, nil

	case key.Matches(msg, m.keys.Refresh):
		return true, tea.Batch(m.loadTreeCmd(), m.loadJobsCmd())
	}

	if m.view == ViewDiscoveries {
		return m.handleJobKey(msg)
	}
	return m.handleDaemonKey(msg)
}

func (m *Model) handleDaemonKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-len(m.rows))
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.rows))

	case key.Matches(msg, m.keys.Mark):
		m.toggleMark()
	case key.Matches(msg, m.keys.MarkAll):
		m.toggleMarkAll()

	case key.Matches(msg, m.keys.Start):
		return true, m.startCmd()
	case key.Matches(msg, m.keys.Stop):
		return true, m.stopCmd()
	case key.Matches(msg, m.keys.Restart):
		return true, m.restartCmd()
	case key.Matches(msg, m.keys.RestartRow):
		return true, m.restartRowCmd()
	case key.Matches(msg, m.keys.Toggle):
		return true, m.toggleCmd()
	case key.Matches(msg, m.keys.AutoStart):
		return true, m.autoStartCmd()
	case key.Matches(msg, m.keys.Assign):
		return true, m.openAssign()
	case key.Matches(msg, m.keys.Details):
		return true, m.openDetail()

	default:
		return false, nil
	}
	return true, nil
}

func (m *Model) handleJobKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.jobs.MoveUp(1)
	case key.Matches(msg, m.keys.Down):
		m.jobs.MoveDown(1)
	case key.Matches(msg, m.keys.Top):
		m.jobs.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.jobs.GotoBottom()

	case key.Matches(msg, m.keys.New):
		return true, m.openWizard()
	case key.Matches(msg, m.keys.Remove):
		return true, m.removeJobCmd()
	case key.Matches(msg, m.keys.Log):
		return true, m.jobLogCmd()

	default:
		return false, nil
	}
	return true, nil
}
