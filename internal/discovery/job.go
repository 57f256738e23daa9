package discovery

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rileyhilliard/zenctl/internal/rpc"
)

// Job statuses reported by JobsRouter.
const (
	StatusStarted = "STARTED"
	StatusPending = "PENDING"
	StatusAborted = "ABORTED"
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// JobLogDir is stripped from logfile paths before display.
const JobLogDir = "/opt/zenoss/log/jobs/"

// Job is one row of the discovery grid.
type Job struct {
	rpc.Job
	PendingDelete bool
}

// Active reports whether the job has not finished yet.
func (j Job) Active() bool {
	return j.Status == StatusStarted || j.Status == StatusPending
}

// Tone tells a renderer how to dress a status cell.
type Tone int

const (
	ToneNone Tone = iota
	ToneInProgress
	ToneSettled
	ToneWarning
	ToneClear
	ToneCritical
)

// StatusCell is a rendered job status. Text is empty for the icon-only
// states (in progress and settled).
type StatusCell struct {
	Text string
	Tone Tone
}

// RenderStatus maps a job status to its grid cell. Unknown statuses are
// shown as they came.
func RenderStatus(status string) StatusCell {
	switch status {
	case StatusStarted:
		return StatusCell{Tone: ToneInProgress}
	case StatusPending:
		return StatusCell{Tone: ToneSettled}
	case StatusAborted:
		return StatusCell{Text: "Aborted", Tone: ToneWarning}
	case StatusSuccess:
		return StatusCell{Text: "Success", Tone: ToneClear}
	case StatusFailure:
		return StatusCell{Text: "Failure", Tone: ToneCritical}
	}
	return StatusCell{Text: status}
}

// Credentials joins the zProperty values that are not passwords, in key
// order.
func Credentials(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		if !strings.Contains(k, "Password") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, k := range keys {
		values = append(values, props[k])
	}
	return strings.Join(values, ",")
}

// Duration renders a job duration in seconds, or "--" when there is none.
func Duration(seconds float64) string {
	if seconds == 0 {
		return "--"
	}
	return strconv.FormatFloat(seconds, 'f', -1, 64) + " seconds"
}

// Logfile renders the job log path relative to JobLogDir, or "--".
func Logfile(path string) string {
	if path == "" {
		return "--"
	}
	return strings.Replace(path, JobLogDir, "", 1)
}

// ShowCollector reports whether the collector column is worth showing.
// It is hidden when the console has a single collector.
func ShowCollector(collectors []string) bool {
	return len(collectors) != 1
}
