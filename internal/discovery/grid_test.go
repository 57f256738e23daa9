package discovery_test

import (
	"context"
	"testing"

	"github.com/rileyhilliard/zenctl/internal/discovery"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	rpctesting "github.com/rileyhilliard/zenctl/internal/rpc/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGrid(t *testing.T) (*rpctesting.FakeConsole, *discovery.Grid) {
	t.Helper()
	fake := rpctesting.NewFakeConsole()
	t.Cleanup(fake.Close)
	fake.AddJob(rpc.Job{UUID: "j1", Status: discovery.StatusSuccess, Networks: "10.0.0.0/24", Duration: 12, Logfile: "/opt/zenoss/log/jobs/j1.log"}, "started", "done")
	fake.AddJob(rpc.Job{UUID: "j2", Status: discovery.StatusStarted, Networks: "10.0.1.1-50"})

	grid := discovery.NewGrid(rpc.NewJobs(rpc.NewClient(fake.URL())), nil)
	require.NoError(t, grid.Refresh(context.Background()))
	return fake, grid
}

func TestGrid_Refresh(t *testing.T) {
	fake, grid := newGrid(t)

	assert.Equal(t, 2, grid.Len())
	assert.Equal(t, 2, grid.Total())
	assert.True(t, grid.HasActive())

	var q rpc.JobsQuery
	require.NoError(t, fake.CallsTo("getJobs")[0].Decode(&q))
	assert.Equal(t, discovery.DefaultPageSize, q.Limit)

	fake.SetJobStatus("j2", discovery.StatusSuccess)
	require.NoError(t, grid.Refresh(context.Background()))
	assert.False(t, grid.HasActive())
}

func TestGrid_RefreshRejected(t *testing.T) {
	fake, grid := newGrid(t)
	fake.FailMethod("getJobs", "nope")

	err := grid.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, grid.Len(), "rows survive a failed refresh")
}

func TestGrid_Remove(t *testing.T) {
	fake, grid := newGrid(t)

	sent, err := grid.Remove(context.Background(), "j1")
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 1, grid.Len())
	_, ok := grid.Get("j1")
	assert.False(t, ok)
	assert.Len(t, fake.Jobs(), 1)

	var params struct{ JobIDs []string }
	require.NoError(t, fake.CallsTo("deleteJobs")[0].Decode(&params))
	assert.Equal(t, []string{"j1"}, params.JobIDs)
}

func TestGrid_RemoveIgnoresPendingDelete(t *testing.T) {
	fake, grid := newGrid(t)

	require.True(t, grid.MarkPendingDelete("j1"))
	sent, err := grid.Remove(context.Background(), "j1")
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, fake.CallsTo("deleteJobs"))

	sent, err = grid.Remove(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestGrid_RemoveFailureClearsMark(t *testing.T) {
	fake, grid := newGrid(t)
	fake.FailMethod("deleteJobs", "job is running")

	sent, err := grid.Remove(context.Background(), "j2")
	require.Error(t, err)
	assert.True(t, sent)
	assert.True(t, errors.IsCode(err, errors.ErrDiscovery))

	job, ok := grid.Get("j2")
	require.True(t, ok, "job stays on failure")
	assert.False(t, job.PendingDelete)
}

func TestGrid_LoadKeepsPendingDelete(t *testing.T) {
	_, grid := newGrid(t)
	require.True(t, grid.MarkPendingDelete("j2"))

	require.NoError(t, grid.Refresh(context.Background()))
	job, _ := grid.Get("j2")
	assert.True(t, job.PendingDelete)
}

func TestGrid_Add(t *testing.T) {
	_, grid := newGrid(t)

	grid.Add(rpc.Job{UUID: "j3", Status: discovery.StatusPending}, rpc.Job{UUID: "j1"})
	jobs := grid.Jobs()
	require.Len(t, jobs, 3, "known jobs are not added twice")
	assert.Equal(t, "j3", jobs[0].UUID)
	assert.Equal(t, 3, grid.Total())
}

func TestGrid_JobLog(t *testing.T) {
	_, grid := newGrid(t)

	log, err := grid.JobLog(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"started", "done"}, log.Lines)
	assert.Equal(t, "/opt/zenoss/log/jobs/j1.log", log.Logfile)

	_, err = grid.JobLog(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDiscovery))
}
