package discovery

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/logger"
	"github.com/rileyhilliard/zenctl/internal/rpc"
)

// DefaultPageSize is how many jobs one refresh asks for.
const DefaultPageSize = 50

// JobService is the slice of JobsRouter the grid uses. *rpc.Jobs satisfies it.
type JobService interface {
	GetJobs(ctx context.Context, q rpc.JobsQuery) (rpc.JobsResult, error)
	DeleteJobs(ctx context.Context, jobIDs []string) (rpc.Result, error)
	Detail(ctx context.Context, jobID string) (rpc.DetailResult, error)
}

// Grid is the list of discovery jobs.
//
// Methods split into the RPC half (Fetch, Delete, JobLog), which only reads
// the service, and the state half (Load, MarkPendingDelete, Drop,
// ClearPendingDelete), which must stay on one goroutine. Refresh and Remove
// run both halves back to back for callers that don't care.
type Grid struct {
	svc   JobService
	log   logger.Logger
	jobs  []*Job
	total int
}

// NewGrid creates an empty grid.
func NewGrid(svc JobService, log logger.Logger) *Grid {
	if log == nil {
		log = logger.Noop()
	}
	return &Grid{svc: svc, log: log}
}

// Jobs returns a copy of the rows in display order.
func (g *Grid) Jobs() []Job {
	out := make([]Job, len(g.jobs))
	for i, j := range g.jobs {
		out[i] = *j
	}
	return out
}

// Len returns the number of rows.
func (g *Grid) Len() int {
	return len(g.jobs)
}

// Total is the server's job count from the last load.
func (g *Grid) Total() int {
	return g.total
}

// Get returns the row for uuid.
func (g *Grid) Get(uuid string) (Job, bool) {
	if j := g.find(uuid); j != nil {
		return *j, true
	}
	return Job{}, false
}

func (g *Grid) find(uuid string) *Job {
	for _, j := range g.jobs {
		if j.UUID == uuid {
			return j
		}
	}
	return nil
}

// HasActive reports whether any job is still started or pending, which
// keeps the console refreshing.
func (g *Grid) HasActive() bool {
	for _, j := range g.jobs {
		if j.Active() {
			return true
		}
	}
	return false
}

// Fetch asks the server for the newest page of jobs.
func (g *Grid) Fetch(ctx context.Context) (rpc.JobsResult, error) {
	res, err := g.svc.GetJobs(ctx, rpc.JobsQuery{Limit: DefaultPageSize, Sort: "scheduled", Dir: "DESC"})
	if err != nil {
		return res, err
	}
	if !res.OK() {
		return res, errors.RejectedWithCode(errors.ErrDiscovery, "getJobs", res.Msg)
	}
	return res, nil
}

// Load replaces the rows with a fetched page. Rows waiting on a delete keep
// that mark.
func (g *Grid) Load(res rpc.JobsResult) {
	pending := make(map[string]bool)
	for _, j := range g.jobs {
		if j.PendingDelete {
			pending[j.UUID] = true
		}
	}
	jobs := make([]*Job, 0, len(res.Jobs))
	for _, j := range res.Jobs {
		jobs = append(jobs, &Job{Job: j, PendingDelete: pending[j.UUID]})
	}
	g.jobs = jobs
	g.total = res.TotalCount
}

// Refresh fetches and loads in one go.
func (g *Grid) Refresh(ctx context.Context) error {
	res, err := g.Fetch(ctx)
	if err != nil {
		return err
	}
	g.Load(res)
	return nil
}

// Add puts freshly scheduled jobs at the top of the grid.
func (g *Grid) Add(jobs ...rpc.Job) {
	fresh := make([]*Job, 0, len(jobs)+len(g.jobs))
	for _, j := range jobs {
		if g.find(j.UUID) == nil {
			fresh = append(fresh, &Job{Job: j})
		}
	}
	g.total += len(fresh)
	g.jobs = append(fresh, g.jobs...)
}

// MarkPendingDelete flags uuid as being removed. Returns false when the job
// is unknown or already being removed, in which case no delete should be
// sent.
func (g *Grid) MarkPendingDelete(uuid string) bool {
	j := g.find(uuid)
	if j == nil || j.PendingDelete {
		return false
	}
	j.PendingDelete = true
	return true
}

// ClearPendingDelete drops the removal mark after a failed delete.
func (g *Grid) ClearPendingDelete(uuid string) {
	if j := g.find(uuid); j != nil {
		j.PendingDelete = false
	}
}

// Drop removes uuid from the grid.
func (g *Grid) Drop(uuid string) {
	for i, j := range g.jobs {
		if j.UUID == uuid {
			g.jobs = append(g.jobs[:i], g.jobs[i+1:]...)
			if g.total > 0 {
				g.total--
			}
			return
		}
	}
}

// Delete asks the server to remove one job.
func (g *Grid) Delete(ctx context.Context, uuid string) error {
	res, err := g.svc.DeleteJobs(ctx, []string{uuid})
	if err != nil {
		return err
	}
	if !res.OK() {
		return errors.RejectedWithCode(errors.ErrDiscovery, "deleteJobs", res.Msg)
	}
	return nil
}

// Remove deletes a job and takes it off the grid once the server agrees.
// A job already being removed is ignored. Returns whether a delete was sent.
func (g *Grid) Remove(ctx context.Context, uuid string) (bool, error) {
	if !g.MarkPendingDelete(uuid) {
		g.log.Debug("skipping remove of %s: unknown or already pending", uuid)
		return false, nil
	}
	if err := g.Delete(ctx, uuid); err != nil {
		g.ClearPendingDelete(uuid)
		return true, err
	}
	g.Drop(uuid)
	return true, nil
}

// Log is a job's log as returned by JobsRouter.detail.
type Log struct {
	UUID    string
	Logfile string
	Lines   []string
}

// JobLog fetches the log lines of one job.
func (g *Grid) JobLog(ctx context.Context, uuid string) (Log, error) {
	res, err := g.svc.Detail(ctx, uuid)
	if err != nil {
		return Log{}, err
	}
	if !res.OK() {
		return Log{}, errors.WrapWithCode(fmt.Errorf("%s", res.Msg), errors.ErrDiscovery,
			fmt.Sprintf("Can't read the log of job %s", uuid),
			"Run 'zenctl discover jobs' to check the job still exists.")
	}
	return Log{UUID: uuid, Logfile: res.Logfile, Lines: res.Content}, nil
}
