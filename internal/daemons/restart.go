package daemons

import (
	"context"
	"sort"
	"time"

	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	"golang.org/x/sync/errgroup"
)

// DefaultPollInterval is the delay between restart status rounds.
const DefaultPollInterval = time.Second

// maxLookups caps concurrent getInfo calls in one round.
const maxLookups = 8

// InfoGetter looks up the current record of one daemon.
type InfoGetter interface {
	GetInfo(ctx context.Context, id string) (rpc.InfoResult, error)
}

// Status is one getInfo answer from a poll round.
type Status struct {
	ID         string
	State      State
	Restarting bool
	Err        error
}

// RestartTracker follows daemons with a restart in flight.
//
// Each tracked id maps to its row. A round looks every pending id up once;
// every answer updates the row's state, and an answer that is no longer
// restarting settles the id. A failed lookup leaves it pending. Rounds are
// only scheduled while something is pending.
type RestartTracker struct {
	getter   InfoGetter
	interval time.Duration
	pending  map[string]*Daemon
}

// NewRestartTracker creates a tracker polling through getter every interval.
func NewRestartTracker(getter InfoGetter, interval time.Duration) *RestartTracker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &RestartTracker{
		getter:   getter,
		interval: interval,
		pending:  make(map[string]*Daemon),
	}
}

// Interval returns the delay between rounds.
func (t *RestartTracker) Interval() time.Duration {
	return t.interval
}

// Track marks rows as restarting. Tracking an id that is already pending
// replaces its entry.
func (t *RestartTracker) Track(rows ...*Daemon) {
	for _, r := range rows {
		if r == nil {
			continue
		}
		t.pending[r.ID] = r
	}
}

// Forget drops ids from the tracker without settling them. It returns the
// ids that were pending.
func (t *RestartTracker) Forget(ids ...string) []string {
	var dropped []string
	for _, id := range ids {
		if _, ok := t.pending[id]; ok {
			delete(t.pending, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

// Restarting reports whether id is waiting on a restart.
func (t *RestartTracker) Restarting(id string) bool {
	_, ok := t.pending[id]
	return ok
}

// Len returns the number of pending ids.
func (t *RestartTracker) Len() int {
	return len(t.pending)
}

// Active reports whether another round should be scheduled.
func (t *RestartTracker) Active() bool {
	return len(t.pending) > 0
}

// Pending returns the pending ids, sorted.
func (t *RestartTracker) Pending() []string {
	out := make([]string, 0, len(t.pending))
	for id := range t.pending {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Lookup runs one getInfo per id concurrently and returns the answers in the
// order of ids. It only reads the getter, so it is safe to run off the
// goroutine that owns the tracker.
func (t *RestartTracker) Lookup(ctx context.Context, ids []string) []Status {
	out := make([]Status, len(ids))

	var g errgroup.Group
	g.SetLimit(maxLookups)
	for i, id := range ids {
		g.Go(func() error {
			res, err := t.getter.GetInfo(ctx, id)
			switch {
			case err != nil:
				out[i] = Status{ID: id, Err: err}
			case !res.OK():
				out[i] = Status{ID: id, Err: errors.Rejected("getInfo", res.Msg)}
			default:
				out[i] = Status{ID: id, State: State(res.Data.State), Restarting: res.Data.IsRestarting}
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Apply folds a round's answers into the tracked rows and returns the ids
// that settled. Answers for ids no longer pending are ignored.
func (t *RestartTracker) Apply(statuses []Status) []string {
	var settled []string
	for _, s := range statuses {
		row, ok := t.pending[s.ID]
		if !ok || s.Err != nil {
			continue
		}
		row.State = s.State
		row.IsRestarting = s.Restarting
		if !s.Restarting {
			delete(t.pending, s.ID)
			settled = append(settled, s.ID)
		}
	}
	return settled
}

// Round is the result of one poll round.
type Round struct {
	Statuses []Status
	Settled  []string
}

// Wait polls until nothing is pending or ctx ends. onRound, when set, sees
// every round after it was applied.
func (t *RestartTracker) Wait(ctx context.Context, onRound func(Round)) error {
	for t.Active() {
		timer := time.NewTimer(t.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		statuses := t.Lookup(ctx, t.Pending())
		settled := t.Apply(statuses)
		if onRound != nil {
			onRound(Round{Statuses: statuses, Settled: settled})
		}
	}
	return nil
}
