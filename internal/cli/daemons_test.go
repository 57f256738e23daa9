package cli

import (
	"encoding/json"
	"testing"

	"github.com/rileyhilliard/zenctl/internal/daemons"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaemonsList(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "daemons", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "  zenhub")
	assert.Contains(t, out, "    zenping")
	assert.Contains(t, out, "down")
	assert.Len(t, env.fake.CallsTo("getTree"), 1)
}

func TestDaemonsList_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "--json", "daemons", "list")
	require.NoError(t, err)

	var resp struct {
		Success bool           `json:"success"`
		Data    []DaemonOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 5)
	assert.Equal(t, "hub", resp.Data[0].ID)
	assert.Equal(t, 0, resp.Data[0].Depth)
	assert.Equal(t, "zenping", resp.Data[3].ID)
	assert.Equal(t, 2, resp.Data[3].Depth)
	assert.Equal(t, "coll", resp.Data[3].Parent)
	assert.True(t, resp.Data[1].AutoStart)
}

func TestDaemonsList_Rejected(t *testing.T) {
	env := newTestEnv(t)
	env.fake.FailMethod("getTree", "permission denied")

	_, err := env.run(t, "daemons", "list")
	require.Error(t, err)
	assert.Contains(t, errors.Short(err), "permission denied")
}

func TestDaemonsInfo(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "daemons", "info", "zenhub")
	require.NoError(t, err)

	assert.Contains(t, out, "/hub/zenhub")
	assert.Contains(t, out, "autostart")
	assert.Contains(t, out, "true")
	require.Len(t, env.fake.CallsTo("getInfo"), 1)
}

func TestDaemonsInfo_Unknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "daemons", "info", "nope")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDaemon))
	assert.Empty(t, env.fake.CallsTo("getInfo"))
}

func TestDaemonsStart(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "daemons", "start", "/hub/coll/zenping", "zenperfsnmp")
	require.NoError(t, err)

	assert.Contains(t, out, "Started zenping, zenperfsnmp")
	calls := env.fake.CallsTo(rpc.ActionStart)
	require.Len(t, calls, 1, "one call for every selected daemon")

	var p struct{ UIDs []string }
	require.NoError(t, calls[0].Decode(&p))
	assert.Equal(t, []string{"/hub/coll/zenping", "/hub/coll/zenperfsnmp"}, p.UIDs)

	n, _ := env.fake.Node("zenping")
	assert.Equal(t, "up", n.State)
}

func TestDaemonsStop_JSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "--json", "daemons", "stop", "zenhub")
	require.NoError(t, err)

	var resp struct {
		Data ActionOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "stopped", resp.Data.Action)
	require.Len(t, resp.Data.Daemons, 1)
	assert.Equal(t, "down", resp.Data.Daemons[0].State)
}

func TestDaemonsStart_Rejected(t *testing.T) {
	env := newTestEnv(t)
	env.fake.FailMethod(rpc.ActionStart, "zenping is locked")

	_, err := env.run(t, "daemons", "start", "zenping")
	require.Error(t, err)
	assert.Contains(t, errors.Short(err), "zenping is locked")

	n, _ := env.fake.Node("zenping")
	assert.Equal(t, "down", n.State)
}

func TestDaemonsStart_UnknownSendsNothing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "daemons", "start", "zenping", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
	assert.Empty(t, env.fake.CallsTo(rpc.ActionStart))
}

func TestDaemonsRestart_NoWait(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "daemons", "restart", "zenping")
	require.NoError(t, err)
	assert.Contains(t, out, "Restarting zenping")
	assert.Len(t, env.fake.CallsTo(rpc.ActionRestart), 1)
	assert.Empty(t, env.fake.CallsTo("getInfo"))
}

func TestDaemonsRestart_Wait(t *testing.T) {
	env := newTestEnv(t)
	env.fake.RestartTakes("zenping", 1)

	out, err := env.run(t, "--json", "daemons", "restart", "--wait", "zenping")
	require.NoError(t, err)

	var resp struct {
		Data ActionOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "restarted", resp.Data.Action)
	require.Len(t, resp.Data.Daemons, 1)
	assert.Equal(t, "up", resp.Data.Daemons[0].State)
	assert.False(t, resp.Data.Daemons[0].Restarting)
	assert.Len(t, env.fake.CallsTo("getInfo"), 2, "polls until the restart settles")
}

func TestDaemonsRestart_WaitTimesOut(t *testing.T) {
	env := newTestEnv(t)
	env.fake.RestartTakes("zenping", 1000)

	_, err := env.run(t, "daemons", "restart", "zenping", "--wait", "--wait-timeout", "600ms")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDaemon))
	assert.Contains(t, err.Error(), "zenping still restarting")
}

func TestDaemonsRestart_BadWaitTimeout(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "daemons", "restart", "zenping", "--wait", "--wait-timeout", "soon")
	require.Error(t, err)
	assert.Empty(t, env.fake.CallsTo(rpc.ActionRestart))
}

func TestDaemonsAutostart(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "daemons", "autostart", "on", "zenping", "zenperfsnmp")
	require.NoError(t, err)
	assert.Contains(t, out, "Auto-start on for zenping, zenperfsnmp")

	calls := env.fake.CallsTo("setAutoStart")
	require.Len(t, calls, 1)
	var p struct {
		UIDs    []string
		Enabled bool
	}
	require.NoError(t, calls[0].Decode(&p))
	assert.True(t, p.Enabled)
	assert.Len(t, p.UIDs, 2)
}

func TestDaemonsAutostart_BadValue(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "daemons", "autostart", "maybe", "zenping")
	require.Error(t, err)
	assert.Empty(t, env.fake.CallsTo("setAutoStart"))
}

func TestResolveRows(t *testing.T) {
	tree := daemons.NewTree("root")
	tree.Reconcile(sampleTree())

	rows, err := resolveRows(tree, []string{"/hub/zenhub", "coll", "zenping", "zenping"})
	require.NoError(t, err)
	require.Len(t, rows, 3, "duplicates collapse")
	assert.Equal(t, "zenhub", rows[0].ID)
	assert.Equal(t, "coll", rows[1].ID)
	assert.Equal(t, "zenping", rows[2].ID)

	// "localhost" is the hub's name; uid and id matches win over names.
	rows, err = resolveRows(tree, []string{"localhost"})
	require.NoError(t, err)
	assert.Equal(t, "hub", rows[0].ID)

	_, err = resolveRows(tree, []string{"missing"})
	assert.Error(t, err)
}

func TestResolveRows_SuggestsCloseNames(t *testing.T) {
	tree := daemons.NewTree("root")
	tree.Reconcile(sampleTree())

	_, err := resolveRows(tree, []string{"zenpng"})
	var zerr *errors.Error
	require.ErrorAs(t, err, &zerr)
	assert.Equal(t, "Did you mean zenping?", zerr.Suggestion)

	_, err = resolveRows(tree, []string{"collector-west"})
	require.ErrorAs(t, err, &zerr)
	assert.Contains(t, zerr.Suggestion, "zenctl daemons list")
}
