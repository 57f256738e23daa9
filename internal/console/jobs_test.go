package console

import (
	"testing"

	"github.com/rileyhilliard/zenctl/internal/discovery"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withJobs(t *testing.T) (Model, func() []rpc.Job) {
	t.Helper()
	fake := newFake(t)
	fake.AddJob(rpc.Job{
		UUID:        "job-1",
		Status:      discovery.StatusSuccess,
		Networks:    "10.0.0.0/24",
		ZProperties: map[string]string{"zSnmpCommunities": "public", "zCommandPassword": "hunter2"},
		Collector:   "localhost",
		Duration:    12.5,
		Logfile:     discovery.JobLogDir + "job-1.log",
	}, "scanning 10.0.0.1", "found 3 devices")
	fake.AddJob(rpc.Job{UUID: "job-2", Status: discovery.StatusFailure, Networks: "10.1.0.1-10", Errors: "timeout"})

	m := loaded(t, fake)
	m = press(t, m, "tab")
	return m, fake.Jobs
}

func TestModel_TabShowsJobs(t *testing.T) {
	m, _ := withJobs(t)

	assert.Equal(t, ViewDiscoveries, m.view)
	require.Len(t, m.jobs.Rows(), 2)

	first := m.jobs.Rows()[0]
	assert.Equal(t, "Success", first[0])
	assert.Equal(t, "10.0.0.0/24", first[1])
	assert.Equal(t, "public", first[2], "passwords are not shown")
	assert.Len(t, first, 5, "single collector hides the collector column")
	assert.Equal(t, "12.5 seconds", first[3])
	assert.Equal(t, "job-1.log", first[4])

	view := m.View()
	assert.Contains(t, view, "job-1")
	assert.Contains(t, view, "Success")
}

func TestModel_JobErrorsShownForCursorRow(t *testing.T) {
	m, _ := withJobs(t)

	m = press(t, m, "j")
	assert.Contains(t, m.View(), "errors: timeout")
}

func TestModel_RemoveJob(t *testing.T) {
	m, jobs := withJobs(t)

	m = press(t, m, "d")

	assert.Equal(t, 1, m.grid.Len())
	_, ok := m.grid.Get("job-1")
	assert.False(t, ok)
	assert.Len(t, jobs(), 1)
	assert.Equal(t, "Removed job job-1", m.status.text)
}

func TestModel_RemoveJobPendingSendsNothing(t *testing.T) {
	m, _ := withJobs(t)
	require.True(t, m.grid.MarkPendingDelete("job-1"))

	assert.Nil(t, m.removeJobCmd())
}

func TestModel_RemoveJobFailureClearsMark(t *testing.T) {
	fake := newFake(t)
	fake.AddJob(rpc.Job{UUID: "job-1", Status: discovery.StatusSuccess})
	fake.FailMethod("deleteJobs", "job is running")
	m := press(t, loaded(t, fake), "tab", "d")

	j, ok := m.grid.Get("job-1")
	require.True(t, ok)
	assert.False(t, j.PendingDelete)
	assert.True(t, m.status.err)
	assert.Contains(t, m.status.text, "job is running")
}

func TestModel_JobLog(t *testing.T) {
	m, _ := withJobs(t)

	m = press(t, m, "l")
	require.NotNil(t, m.jobLog)
	assert.Equal(t, []string{"scanning 10.0.0.1", "found 3 devices"}, m.jobLog.Lines)
	assert.Contains(t, m.View(), "found 3 devices")

	m = press(t, m, "esc")
	assert.Nil(t, m.jobLog)
}

func TestModel_WizardSubmit(t *testing.T) {
	m, jobs := withJobs(t)

	m = press(t, m, "n")
	require.NotNil(t, m.form)
	require.Equal(t, formWizard, m.formKind)

	m.wizard.Ranges = "10.2.0.0/24, 10.3.0.1-20"
	m.wizard.Communities = "public"
	m = drive(t, m, m.submitForm())

	assert.Nil(t, m.form)
	assert.Len(t, jobs(), 3)
	assert.Equal(t, 3, m.grid.Len())
	assert.Equal(t, discovery.StatusPending, m.grid.Jobs()[0].Status, "new jobs go on top")
	assert.Equal(t, "Scheduled 1 discovery job", m.status.text)
}

func TestModel_WizardInvalidSendsNothing(t *testing.T) {
	fake := newFake(t)
	m := press(t, loaded(t, fake), "tab", "n")
	require.NotNil(t, m.form)

	m.wizard.Ranges = "bogus"
	m = drive(t, m, m.submitForm())

	assert.Empty(t, fake.CallsTo("discoverDevices"))
	assert.True(t, m.status.err)
	assert.Contains(t, m.status.text, discovery.RangeInputMessage)
}

func TestModel_JobStatusCells(t *testing.T) {
	m := NewModel(Services{}, Options{})

	m.frame = 1
	assert.Equal(t, "◓", m.jobStatus(discovery.Job{Job: rpc.Job{Status: discovery.StatusStarted}}))
	assert.Equal(t, "○", m.jobStatus(discovery.Job{Job: rpc.Job{Status: discovery.StatusPending}}))
	assert.Equal(t, "Aborted", m.jobStatus(discovery.Job{Job: rpc.Job{Status: discovery.StatusAborted}}))
	assert.Equal(t, "QUEUED", m.jobStatus(discovery.Job{Job: rpc.Job{Status: "QUEUED"}}))
	assert.Equal(t, "removing", m.jobStatus(discovery.Job{Job: rpc.Job{Status: discovery.StatusSuccess}, PendingDelete: true}))
}

func TestJobColumns(t *testing.T) {
	titles := func(show bool) []string {
		var out []string
		for _, c := range jobColumns(show) {
			out = append(out, c.Title)
		}
		return out
	}
	assert.Equal(t, []string{"Status", "Networks", "Credentials", "Collector", "Duration", "Job Log"}, titles(true))
	assert.Equal(t, []string{"Status", "Networks", "Credentials", "Duration", "Job Log"}, titles(false))
}
