package rpc

// Router names as the console knows them.
const (
	ApplicationRouter = "ApplicationRouter"
	DeviceRouter      = "DeviceRouter"
	JobsRouter        = "JobsRouter"
	NetworkRouter     = "NetworkRouter"
)

// endpoints maps a router to its URL path segment under /zport/dmd.
var endpoints = map[string]string{
	ApplicationRouter: "application_router",
	DeviceRouter:      "device_router",
	JobsRouter:        "jobs_router",
	NetworkRouter:     "network_router",
}

// Endpoint returns the URL path segment for router, or "" if unknown.
func Endpoint(router string) string {
	return endpoints[router]
}

// RouterForEndpoint is the inverse of Endpoint.
func RouterForEndpoint(endpoint string) string {
	for r, e := range endpoints {
		if e == endpoint {
			return r
		}
	}
	return ""
}

// Result is the success envelope shared by most router methods.
// A missing success field means the call succeeded.
type Result struct {
	Success *bool  `json:"success,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

// OK reports whether the server accepted the call.
func (r Result) OK() bool {
	return r.Success == nil || *r.Success
}

// Succeeded builds a Result with an explicit success flag.
func Succeeded(ok bool, msg string) Result {
	return Result{Success: &ok, Msg: msg}
}

// Node is one entry of the daemon tree as reported by ApplicationRouter.
type Node struct {
	ID           string `json:"id"`
	UID          string `json:"uid"`
	Name         string `json:"name"`
	Text         string `json:"text,omitempty"`
	Type         string `json:"type"`
	State        string `json:"state"`
	AutoStart    bool   `json:"autostart"`
	IsRestarting bool   `json:"isRestarting"`
	Children     []Node `json:"children,omitempty"`
}

// InfoResult answers ApplicationRouter.getInfo.
type InfoResult struct {
	Result
	Data Node `json:"data"`
}

// Job is a discovery job as reported by JobsRouter and NetworkRouter.
type Job struct {
	UUID        string            `json:"uuid"`
	Status      string            `json:"status"`
	Networks    string            `json:"networks"`
	ZProperties map[string]string `json:"zProperties,omitempty"`
	Collector   string            `json:"collector"`
	Duration    float64           `json:"duration,omitempty"`
	Logfile     string            `json:"logfile,omitempty"`
	Errors      string            `json:"errors,omitempty"`
}

// JobsQuery pages and sorts JobsRouter.getJobs.
type JobsQuery struct {
	Start int    `json:"start"`
	Limit int    `json:"limit"`
	Sort  string `json:"sort,omitempty"`
	Dir   string `json:"dir,omitempty"`
}

// JobsResult answers JobsRouter.getJobs.
type JobsResult struct {
	Result
	Jobs       []Job `json:"jobs"`
	TotalCount int   `json:"totalCount"`
}

// DetailResult answers JobsRouter.detail with the job's log.
type DetailResult struct {
	Result
	Content  []string `json:"content"`
	Logfile  string   `json:"logfile"`
	MaxLimit bool     `json:"maxLimit"`
}

// DiscoverParams is the request of NetworkRouter.discoverDevices.
type DiscoverParams struct {
	Networks    []string          `json:"networks"`
	ZProperties map[string]string `json:"zProperties"`
	Collector   string            `json:"collector"`
}

// DiscoverResult answers NetworkRouter.discoverDevices.
type DiscoverResult struct {
	Result
	NewJobs []Job `json:"new_jobs"`
}
