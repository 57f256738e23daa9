package daemons

import "github.com/rileyhilliard/zenctl/internal/rpc"

// State is the run state the console reports for a daemon.
type State string

const (
	StateUp         State = "up"
	StateDown       State = "down"
	StateRestarting State = "restarting"
)

// Kind is the node type in the daemon tree.
type Kind string

const (
	KindRoot      Kind = "root"
	KindHub       Kind = "hub"
	KindCollector Kind = "collector"
	KindDaemon    Kind = "daemon"
)

// Daemon is one row of the daemon tree: a daemon, a collector or a hub.
type Daemon struct {
	ID           string
	UID          string
	Name         string
	Type         Kind
	State        State
	AutoStart    bool
	IsRestarting bool

	Parent   string
	Children []string
}

// IsUp reports whether the daemon is running.
func (d Daemon) IsUp() bool {
	return d.State == StateUp
}

func newDaemon(n rpc.Node) *Daemon {
	d := &Daemon{ID: n.ID}
	d.update(n)
	return d
}

// update copies the server-reported fields of n onto d.
// Tree links are left alone.
func (d *Daemon) update(n rpc.Node) {
	d.UID = n.UID
	d.Name = n.Name
	if d.Name == "" {
		d.Name = n.Text
	}
	d.Type = Kind(n.Type)
	d.State = State(n.State)
	d.AutoStart = n.AutoStart
	d.IsRestarting = n.IsRestarting
}

// UIDs returns the uid of every row, in order.
func UIDs(rows []Daemon) []string {
	uids := make([]string, 0, len(rows))
	for _, r := range rows {
		uids = append(uids, r.UID)
	}
	return uids
}

func ids(rows []Daemon) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}
