package daemons_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rileyhilliard/zenctl/internal/daemons"
	zerrors "github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	rpctesting "github.com/rileyhilliard/zenctl/internal/rpc/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	fake *rpctesting.FakeConsole
	apps *rpc.Applications
	tree *daemons.Tree
	ctrl *daemons.Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := rpctesting.NewFakeConsole()
	t.Cleanup(fake.Close)
	fake.SetTree(sampleNodes()...)

	client := rpc.NewClient(fake.URL())
	apps := rpc.NewApplications(client)
	tree := daemons.NewTree("root")
	nodes, err := apps.GetTree(context.Background(), "root")
	require.NoError(t, err)
	tree.Reconcile(nodes)

	return &harness{
		fake: fake,
		apps: apps,
		tree: tree,
		ctrl: daemons.NewController(apps, rpc.NewDevices(client), nil),
	}
}

func (h *harness) rows(ids ...string) []daemons.Daemon {
	var out []daemons.Daemon
	for _, id := range ids {
		d, _ := h.tree.Get(id)
		out = append(out, *d)
	}
	return out
}

func TestController_EmptySelectionIsNoop(t *testing.T) {
	h := newHarness(t)

	ch, err := h.ctrl.Start(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ch.Empty())
	assert.Empty(t, h.fake.CallsTo("start"), "no request for an empty selection")
}

func TestController_StartStop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ch, err := h.ctrl.Start(ctx, h.rows("zenping", "zenperfsnmp"))
	require.NoError(t, err)
	assert.Equal(t, []string{"zenping", "zenperfsnmp"}, ch.IDs)
	assert.Equal(t, daemons.StateUp, ch.State)

	calls := h.fake.CallsTo("start")
	require.Len(t, calls, 1, "one request for the whole selection")
	var params struct{ UIDs []string }
	require.NoError(t, calls[0].Decode(&params))
	assert.Equal(t, []string{"/hub/coll/zenping", "/hub/coll/zenperfsnmp"}, params.UIDs)

	h.tree.Apply(ch)
	d, _ := h.tree.Get("zenping")
	assert.Equal(t, daemons.StateUp, d.State)

	ch, err = h.ctrl.Stop(ctx, h.rows("zenhub"))
	require.NoError(t, err)
	assert.Equal(t, daemons.StateDown, ch.State)
}

func TestController_FailureLeavesRowsAlone(t *testing.T) {
	h := newHarness(t)
	h.fake.FailMethod("stop", "permission denied")

	ch, err := h.ctrl.Stop(context.Background(), h.rows("zenhub"))
	require.Error(t, err)
	assert.True(t, zerrors.IsCode(err, zerrors.ErrDaemon))
	assert.Contains(t, err.Error(), "permission denied")
	assert.True(t, ch.Empty())

	h.tree.Apply(ch)
	d, _ := h.tree.Get("zenhub")
	assert.Equal(t, daemons.StateUp, d.State)
}

func TestController_Toggle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ch, err := h.ctrl.Toggle(ctx, h.rows("zenhub")[0])
	require.NoError(t, err)
	assert.Equal(t, daemons.StateDown, ch.State, "up daemons are stopped")
	assert.Len(t, h.fake.CallsTo("stop"), 1)

	ch, err = h.ctrl.Toggle(ctx, h.rows("zenping")[0])
	require.NoError(t, err)
	assert.Equal(t, daemons.StateUp, ch.State, "anything else is started")
	assert.Len(t, h.fake.CallsTo("start"), 1)
}

func TestController_RestartStates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ch, err := h.ctrl.Restart(ctx, h.rows("zenhub", "zenping"))
	require.NoError(t, err)
	assert.Equal(t, daemons.StateUp, ch.State)

	ch, err = h.ctrl.RestartRow(ctx, h.rows("zenhub")[0])
	require.NoError(t, err)
	assert.Equal(t, daemons.StateRestarting, ch.State)
	assert.Len(t, h.fake.CallsTo("restart"), 2)
}

func TestController_SetAutoStart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ch, err := h.ctrl.SetAutoStart(ctx, h.rows("zenping"), true)
	require.NoError(t, err)
	require.NotNil(t, ch.AutoStart)
	assert.True(t, *ch.AutoStart)
	assert.Empty(t, ch.State)

	node, _ := h.fake.Node("zenping")
	assert.True(t, node.AutoStart)

	h.fake.FailMethod("setAutoStart", "nope")
	ch, err = h.ctrl.SetAutoStart(ctx, h.rows("zenhub"), false)
	require.Error(t, err)
	assert.True(t, ch.Empty(), "rows only change on success")
}

func TestController_TransportError(t *testing.T) {
	h := newHarness(t)
	h.fake.RaiseMethod("start", "Traceback")

	_, err := h.ctrl.Start(context.Background(), h.rows("zenping"))
	require.Error(t, err)
	assert.True(t, zerrors.IsCode(err, zerrors.ErrRPC))
}

func TestController_AssignDevices(t *testing.T) {
	h := newHarness(t)
	coll, ok := h.tree.FindCollector("localhost")
	require.True(t, ok)

	var askedCount int
	var askedName string
	confirm := func(count int, collector string) bool {
		askedCount, askedName = count, collector
		return true
	}

	out, err := h.ctrl.AssignDevices(context.Background(), []string{"/dev/a", "/dev/b"}, coll, confirm)
	require.NoError(t, err)
	assert.True(t, out.Assigned)
	assert.Equal(t, 2, askedCount)
	assert.Equal(t, "localhost", askedName)
	assert.Equal(t, "localhost", h.fake.Collector("/dev/b"))
	assert.Equal(t, "coll", out.Target.ID, "details are refreshed after the move")

	calls := h.fake.Calls()
	require.GreaterOrEqual(t, len(calls), 2)
	assert.Equal(t, "setCollector", calls[len(calls)-2].Method)
	assert.Equal(t, "getInfo", calls[len(calls)-1].Method)
}

func TestController_AssignDevicesDeclined(t *testing.T) {
	h := newHarness(t)
	coll, _ := h.tree.FindCollector("localhost")

	out, err := h.ctrl.AssignDevices(context.Background(), []string{"/dev/a"}, coll, func(int, string) bool { return false })
	require.NoError(t, err)
	assert.False(t, out.Assigned)
	assert.Empty(t, h.fake.CallsTo("setCollector"))
}

func TestController_AssignDevicesRejectsNonCollector(t *testing.T) {
	h := newHarness(t)
	called := false

	_, err := h.ctrl.AssignDevices(context.Background(), []string{"/dev/a"}, h.rows("zenhub")[0], func(int, string) bool {
		called = true
		return true
	})
	require.Error(t, err)
	assert.False(t, called, "no prompt for a non-collector")
	assert.Empty(t, h.fake.CallsTo("setCollector"))
}

func TestController_AssignDevicesServerRefuses(t *testing.T) {
	h := newHarness(t)
	coll, _ := h.tree.FindCollector("localhost")
	h.fake.FailMethod("setCollector", "unknown collector")

	out, err := h.ctrl.AssignDevices(context.Background(), []string{"/dev/a"}, coll, nil)
	require.Error(t, err)
	assert.False(t, out.Assigned)
	assert.Empty(t, h.fake.CallsTo("getInfo"))
}

type stubService struct {
	err error
}

func (s stubService) Control(context.Context, string, []string) (rpc.Result, error) {
	return rpc.Result{}, s.err
}

func (s stubService) SetAutoStart(context.Context, []string, bool) (rpc.Result, error) {
	return rpc.Result{}, s.err
}

func (s stubService) GetInfo(context.Context, string) (rpc.InfoResult, error) {
	return rpc.InfoResult{}, s.err
}

func TestController_AssignWithoutAssigner(t *testing.T) {
	ctrl := daemons.NewController(stubService{}, nil, nil)
	_, err := ctrl.AssignDevices(context.Background(), []string{"/dev/a"},
		daemons.Daemon{ID: "c", Name: "c", Type: daemons.KindCollector}, nil)
	assert.Error(t, err)
}

func TestController_InfoPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	ctrl := daemons.NewController(stubService{err: boom}, nil, nil)

	_, err := ctrl.Info(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
