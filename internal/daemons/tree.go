package daemons

import (
	"fmt"

	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/rpc"
)

// Tree is the client cache of the server's daemon tree.
// Nodes are indexed by id; each keeps its parent and ordered children.
type Tree struct {
	rootID string
	nodes  map[string]*Daemon
}

// Row is a daemon flattened for display, with its depth below the root.
type Row struct {
	Daemon
	Depth int
}

// ReconcileStats counts what a Reconcile pass changed.
type ReconcileStats struct {
	Updated int
	Added   int
	Removed int
}

// Changed reports whether the pass added or removed anything.
func (s ReconcileStats) Changed() bool {
	return s.Added > 0 || s.Removed > 0
}

func (s ReconcileStats) String() string {
	return fmt.Sprintf("%d updated, %d added, %d removed", s.Updated, s.Added, s.Removed)
}

// NewTree returns an empty tree rooted at rootID.
func NewTree(rootID string) *Tree {
	root := &Daemon{ID: rootID, Name: rootID, Type: KindRoot}
	return &Tree{
		rootID: rootID,
		nodes:  map[string]*Daemon{rootID: root},
	}
}

// RootID returns the id the tree is rooted at.
func (t *Tree) RootID() string {
	return t.rootID
}

// Root returns the root node.
func (t *Tree) Root() *Daemon {
	return t.nodes[t.rootID]
}

// Get returns the cached node for id.
func (t *Tree) Get(id string) (*Daemon, bool) {
	d, ok := t.nodes[id]
	return d, ok
}

// Len returns the number of nodes below the root.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

type flatNode struct {
	node   rpc.Node
	parent string
}

// flatten walks the server result depth-first so parents come before their
// children.
func flatten(parent string, nodes []rpc.Node, out []flatNode) []flatNode {
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		out = append(out, flatNode{node: n, parent: parent})
		out = flatten(n.ID, n.Children, out)
	}
	return out
}

// Reconcile syncs the cache against a fresh getTree result.
//
// Existing nodes are updated in place and keep their position. Unknown nodes
// are appended under their parent if the parent is cached, otherwise under
// the root. Cached nodes the server no longer reports are removed together
// with their subtree. The root is never removed.
func (t *Tree) Reconcile(nodes []rpc.Node) ReconcileStats {
	var stats ReconcileStats
	seen := map[string]bool{t.rootID: true}

	for _, f := range flatten(t.rootID, nodes, nil) {
		id := f.node.ID
		if id == t.rootID || seen[id] {
			continue
		}
		seen[id] = true

		if d, ok := t.nodes[id]; ok {
			d.update(f.node)
			stats.Updated++
			continue
		}

		parent := f.parent
		if _, ok := t.nodes[parent]; !ok {
			parent = t.rootID
		}
		d := newDaemon(f.node)
		d.Parent = parent
		t.nodes[id] = d
		t.nodes[parent].Children = append(t.nodes[parent].Children, id)
		stats.Added++
	}

	for _, row := range t.Rows() {
		if !seen[row.ID] {
			stats.Removed += t.remove(row.ID)
		}
	}
	return stats
}

// remove drops id and its subtree. Returns how many nodes went away.
func (t *Tree) remove(id string) int {
	d, ok := t.nodes[id]
	if !ok || id == t.rootID {
		return 0
	}
	n := 1
	for _, kid := range append([]string(nil), d.Children...) {
		n += t.remove(kid)
	}
	if p, ok := t.nodes[d.Parent]; ok {
		for i, kid := range p.Children {
			if kid == id {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	delete(t.nodes, id)
	return n
}

// UpdateNode refreshes one cached node from a getInfo record.
// Returns false when the node is not cached.
func (t *Tree) UpdateNode(n rpc.Node) bool {
	d, ok := t.nodes[n.ID]
	if !ok || n.ID == t.rootID {
		return false
	}
	d.update(n)
	return true
}

// Rows returns every node below the root, depth-first in display order.
func (t *Tree) Rows() []Row {
	rows := make([]Row, 0, t.Len())
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		for _, kid := range t.nodes[id].Children {
			d, ok := t.nodes[kid]
			if !ok {
				continue
			}
			rows = append(rows, Row{Daemon: *d, Depth: depth})
			walk(kid, depth+1)
		}
	}
	walk(t.rootID, 0)
	return rows
}

// Collectors returns the names of every collector node, in display order.
func (t *Tree) Collectors() []string {
	var names []string
	for _, r := range t.Rows() {
		if r.Type == KindCollector {
			names = append(names, r.Name)
		}
	}
	return names
}

// FindCollector looks a collector up by name.
func (t *Tree) FindCollector(name string) (Daemon, bool) {
	for _, r := range t.Rows() {
		if r.Type == KindCollector && r.Name == name {
			return r.Daemon, true
		}
	}
	return Daemon{}, false
}

// Select resolves the node shown in the details panel. An empty id selects
// the root's first child.
func (t *Tree) Select(id string) (Daemon, error) {
	if id == "" {
		root := t.Root()
		if len(root.Children) == 0 {
			return Daemon{}, errors.New(errors.ErrDaemon,
				"The console reported no daemons",
				"Check root_node in your config.")
		}
		return *t.nodes[root.Children[0]], nil
	}
	d, ok := t.nodes[id]
	if !ok || id == t.rootID {
		return Daemon{}, errors.New(errors.ErrDaemon,
			fmt.Sprintf("No daemon with id '%s'", id),
			"Run 'zenctl daemons list' to see the ids the console knows about.")
	}
	return *d, nil
}

// Apply writes a confirmed Change onto the cached rows.
// Returns how many cached rows it touched.
func (t *Tree) Apply(ch Change) int {
	n := 0
	for _, id := range ch.IDs {
		d, ok := t.nodes[id]
		if !ok {
			continue
		}
		ch.applyTo(d)
		n++
	}
	return n
}
