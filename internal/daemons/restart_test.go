package daemons_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/zenctl/internal/daemons"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedInfo answers getInfo from a per-id queue; the last answer repeats.
type scriptedInfo struct {
	mu      sync.Mutex
	answers map[string][]rpc.InfoResult
	fail    map[string]error
	calls   map[string]int
}

func newScriptedInfo() *scriptedInfo {
	return &scriptedInfo{
		answers: make(map[string][]rpc.InfoResult),
		fail:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (s *scriptedInfo) script(id string, states ...string) {
	for _, st := range states {
		s.answers[id] = append(s.answers[id], rpc.InfoResult{
			Data: rpc.Node{ID: id, State: st, IsRestarting: st == string(daemons.StateRestarting)},
		})
	}
}

func (s *scriptedInfo) GetInfo(_ context.Context, id string) (rpc.InfoResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[id]++
	if err, ok := s.fail[id]; ok {
		return rpc.InfoResult{}, err
	}
	q := s.answers[id]
	if len(q) == 0 {
		return rpc.InfoResult{Result: rpc.Succeeded(false, "unknown")}, nil
	}
	res := q[0]
	if len(q) > 1 {
		s.answers[id] = q[1:]
	}
	return res, nil
}

func (s *scriptedInfo) count(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func TestRestartTracker_TrackOverwrites(t *testing.T) {
	tr := daemons.NewRestartTracker(newScriptedInfo(), 0)
	assert.Equal(t, daemons.DefaultPollInterval, tr.Interval())
	assert.False(t, tr.Active())

	first := &daemons.Daemon{ID: "zenhub"}
	second := &daemons.Daemon{ID: "zenhub"}
	tr.Track(first, nil)
	tr.Track(second)

	assert.Equal(t, 1, tr.Len(), "re-tracking replaces the entry")
	assert.True(t, tr.Restarting("zenhub"))
	assert.Equal(t, []string{"zenhub"}, tr.Pending())
}

func TestRestartTracker_Forget(t *testing.T) {
	tr := daemons.NewRestartTracker(newScriptedInfo(), 0)
	tr.Track(&daemons.Daemon{ID: "zenhub"}, &daemons.Daemon{ID: "zenping"})

	dropped := tr.Forget("zenhub", "ghost")
	assert.Equal(t, []string{"zenhub"}, dropped)
	assert.Equal(t, []string{"zenping"}, tr.Pending())

	assert.Empty(t, tr.Forget())
	tr.Forget("zenping")
	assert.False(t, tr.Active())
}

func TestRestartTracker_RoundUpdatesAndSettles(t *testing.T) {
	info := newScriptedInfo()
	info.script("zenhub", "restarting", "up")
	info.script("zenping", "up")

	hub := &daemons.Daemon{ID: "zenhub", State: daemons.StateUp}
	ping := &daemons.Daemon{ID: "zenping", State: daemons.StateDown}
	tr := daemons.NewRestartTracker(info, time.Millisecond)
	tr.Track(hub, ping)

	statuses := tr.Lookup(context.Background(), tr.Pending())
	require.Len(t, statuses, 2)
	assert.Equal(t, "zenhub", statuses[0].ID)
	assert.Equal(t, "zenping", statuses[1].ID)

	settled := tr.Apply(statuses)
	assert.Equal(t, []string{"zenping"}, settled)
	assert.Equal(t, daemons.StateRestarting, hub.State, "still-restarting answers update the row too")
	assert.True(t, hub.IsRestarting)
	assert.Equal(t, daemons.StateUp, ping.State)
	assert.Equal(t, []string{"zenhub"}, tr.Pending())

	settled = tr.Apply(tr.Lookup(context.Background(), tr.Pending()))
	assert.Equal(t, []string{"zenhub"}, settled)
	assert.False(t, tr.Active())
	assert.Equal(t, daemons.StateUp, hub.State)
}

func TestRestartTracker_FailedLookupStaysPending(t *testing.T) {
	info := newScriptedInfo()
	info.fail["zenhub"] = errors.New("connection refused")
	info.script("zenping") // no answers: rejected envelope

	hub := &daemons.Daemon{ID: "zenhub", State: daemons.StateUp}
	tr := daemons.NewRestartTracker(info, time.Millisecond)
	tr.Track(hub, &daemons.Daemon{ID: "zenping"})

	statuses := tr.Lookup(context.Background(), tr.Pending())
	for _, s := range statuses {
		assert.Error(t, s.Err, s.ID)
	}
	assert.Empty(t, tr.Apply(statuses))
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, daemons.StateUp, hub.State)
}

func TestRestartTracker_ApplyIgnoresUntracked(t *testing.T) {
	tr := daemons.NewRestartTracker(newScriptedInfo(), time.Millisecond)
	settled := tr.Apply([]daemons.Status{{ID: "ghost", State: daemons.StateUp}})
	assert.Empty(t, settled)
}

func TestRestartTracker_WaitStopsWhenEmpty(t *testing.T) {
	info := newScriptedInfo()
	info.script("zenhub", "restarting", "restarting", "up")

	hub := &daemons.Daemon{ID: "zenhub"}
	tr := daemons.NewRestartTracker(info, time.Millisecond)
	tr.Track(hub)

	var rounds []daemons.Round
	err := tr.Wait(context.Background(), func(r daemons.Round) { rounds = append(rounds, r) })
	require.NoError(t, err)

	assert.Len(t, rounds, 3, "one lookup per round until settled")
	assert.Equal(t, []string{"zenhub"}, rounds[2].Settled)
	assert.Equal(t, 3, info.count("zenhub"))
	assert.Equal(t, daemons.StateUp, hub.State)
}

func TestRestartTracker_WaitNothingPending(t *testing.T) {
	info := newScriptedInfo()
	tr := daemons.NewRestartTracker(info, time.Hour)

	require.NoError(t, tr.Wait(context.Background(), nil))
}

func TestRestartTracker_WaitCanceled(t *testing.T) {
	info := newScriptedInfo()
	info.script("zenhub", "restarting")

	tr := daemons.NewRestartTracker(info, 5*time.Millisecond)
	tr.Track(&daemons.Daemon{ID: "zenhub"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := tr.Wait(ctx, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, tr.Active(), "a canceled wait leaves entries pending")
}

func TestRestartTracker_AgainstFakeConsole(t *testing.T) {
	h := newHarness(t)
	h.fake.RestartTakes("zenhub", 2)

	row, _ := h.tree.Get("zenhub")
	tr := daemons.NewRestartTracker(h.apps, time.Millisecond)
	tr.Track(row)

	ch, err := h.ctrl.Restart(context.Background(), []daemons.Daemon{*row})
	require.NoError(t, err)
	h.tree.Apply(ch)

	rounds := 0
	require.NoError(t, tr.Wait(context.Background(), func(daemons.Round) { rounds++ }))
	assert.Equal(t, 3, rounds)
	assert.Equal(t, daemons.StateUp, row.State)
	assert.False(t, row.IsRestarting)
	assert.Len(t, h.fake.CallsTo("getInfo"), 3)
}
