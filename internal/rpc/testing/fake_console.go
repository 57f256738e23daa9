// Package testing provides an in-process fake console for router tests.
package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rileyhilliard/zenctl/internal/rpc"
)

// Call records one router call received by the fake.
type Call struct {
	Router string
	Method string
	Params json.RawMessage
}

// Decode unmarshals the call's params into v.
func (c Call) Decode(v interface{}) error {
	return json.Unmarshal(c.Params, v)
}

// FakeConsole serves the router endpoints over httptest from in-memory state.
// It succeeds by default; use FailMethod, RaiseMethod and RestartTakes to
// script other outcomes.
type FakeConsole struct {
	mu sync.Mutex

	Server *httptest.Server

	// Tree state
	rootID   string
	children map[string][]string // parent id -> ordered child ids
	parent   map[string]string
	nodes    map[string]*rpc.Node

	// restartPolls counts getInfo calls that still report isRestarting.
	restartPolls map[string]int

	jobs       []rpc.Job
	jobLogs    map[string][]string
	assignment map[string]string // device uid -> collector

	// Scripted outcomes
	failures   map[string]string // method -> msg for success=false
	exceptions map[string]string // method -> exception message
	username   string
	password   string

	calls []Call
}

// NewFakeConsole starts a fake console with an empty tree rooted at "root".
// Call Close when done.
func NewFakeConsole() *FakeConsole {
	f := &FakeConsole{
		rootID:       "root",
		children:     make(map[string][]string),
		parent:       make(map[string]string),
		nodes:        make(map[string]*rpc.Node),
		restartPolls: make(map[string]int),
		jobLogs:      make(map[string][]string),
		assignment:   make(map[string]string),
		failures:     make(map[string]string),
		exceptions:   make(map[string]string),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// URL returns the base url to hand to rpc.NewClient.
func (f *FakeConsole) URL() string {
	return f.Server.URL
}

// Close shuts the server down.
func (f *FakeConsole) Close() {
	f.Server.Close()
}

// RequireAuth makes the fake answer 401 unless these basic credentials are sent.
func (f *FakeConsole) RequireAuth(username, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.username = username
	f.password = password
}

// SetTree replaces the daemon tree with nodes as children of the root.
func (f *FakeConsole) SetTree(nodes ...rpc.Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.children = make(map[string][]string)
	f.parent = make(map[string]string)
	f.nodes = make(map[string]*rpc.Node)
	for _, n := range nodes {
		f.addLocked(f.rootID, n)
	}
}

// AddNode adds n (and its children) under parentID.
func (f *FakeConsole) AddNode(parentID string, n rpc.Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addLocked(parentID, n)
}

func (f *FakeConsole) addLocked(parentID string, n rpc.Node) {
	kids := n.Children
	n.Children = nil
	stored := n
	f.nodes[n.ID] = &stored
	f.parent[n.ID] = parentID
	f.children[parentID] = append(f.children[parentID], n.ID)
	for _, k := range kids {
		f.addLocked(n.ID, k)
	}
}

// RemoveNode drops a node and its subtree.
func (f *FakeConsole) RemoveNode(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(id)
	p := f.parent[id]
	delete(f.parent, id)
	siblings := f.children[p]
	for i, s := range siblings {
		if s == id {
			f.children[p] = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
}

func (f *FakeConsole) removeLocked(id string) {
	for _, k := range f.children[id] {
		f.removeLocked(k)
		delete(f.parent, k)
	}
	delete(f.children, id)
	delete(f.nodes, id)
}

// UpdateNode applies fn to the stored node with id.
func (f *FakeConsole) UpdateNode(id string, fn func(*rpc.Node)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.nodes[id]; ok {
		fn(n)
	}
}

// Node returns a copy of the stored node.
func (f *FakeConsole) Node(id string) (rpc.Node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[id]
	if !ok {
		return rpc.Node{}, false
	}
	return *n, true
}

// RestartTakes makes a restart of id report isRestarting for the next polls getInfo calls.
func (f *FakeConsole) RestartTakes(id string, polls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restartPolls[id] = polls
}

// AddJob appends a discovery job.
func (f *FakeConsole) AddJob(job rpc.Job, log ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	if len(log) > 0 {
		f.jobLogs[job.UUID] = log
	}
}

// SetJobStatus changes the status of a stored job.
func (f *FakeConsole) SetJobStatus(jobID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.jobs {
		if f.jobs[i].UUID == jobID {
			f.jobs[i].Status = status
		}
	}
}

// Jobs returns a copy of the stored jobs.
func (f *FakeConsole) Jobs() []rpc.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]rpc.Job, len(f.jobs))
	copy(out, f.jobs)
	return out
}

// Collector returns the collector a device was assigned to.
func (f *FakeConsole) Collector(deviceUID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assignment[deviceUID]
}

// FailMethod makes method answer success=false with msg.
func (f *FakeConsole) FailMethod(method, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = msg
}

// RaiseMethod makes method answer with an exception.
func (f *FakeConsole) RaiseMethod(method, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exceptions[method] = msg
}

// Reset clears scripted failures and exceptions.
func (f *FakeConsole) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = make(map[string]string)
	f.exceptions = make(map[string]string)
}

// Calls returns every call received so far.
func (f *FakeConsole) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the calls received for method.
func (f *FakeConsole) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type wireRequest struct {
	Action string            `json:"action"`
	Method string            `json:"method"`
	Data   []json.RawMessage `json:"data"`
	Type   string            `json:"type"`
	TID    int64             `json:"tid"`
}

type wireResponse struct {
	Type    string      `json:"type"`
	TID     int64       `json:"tid"`
	Action  string      `json:"action,omitempty"`
	Method  string      `json:"method,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Message string      `json:"message,omitempty"`
}

func (f *FakeConsole) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, "/zport/dmd/") {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	user, pass := f.username, f.password
	f.mu.Unlock()
	if user != "" {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	var req wireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	router := rpc.RouterForEndpoint(strings.TrimPrefix(r.URL.Path, "/zport/dmd/"))
	if router == "" || router != req.Action {
		http.NotFound(w, r)
		return
	}

	var params json.RawMessage = []byte("{}")
	if len(req.Data) > 0 {
		params = req.Data[0]
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Router: req.Action, Method: req.Method, Params: params})
	result, exc := f.dispatchLocked(req.Method, params)
	f.mu.Unlock()

	resp := wireResponse{Type: "rpc", TID: req.TID, Action: req.Action, Method: req.Method, Result: result}
	if exc != "" {
		resp = wireResponse{Type: "exception", TID: req.TID, Message: exc}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (f *FakeConsole) dispatchLocked(method string, params json.RawMessage) (interface{}, string) {
	if msg, ok := f.exceptions[method]; ok {
		return nil, msg
	}
	if msg, ok := f.failures[method]; ok {
		return rpc.Succeeded(false, msg), ""
	}

	switch method {
	case "getTree":
		var p struct{ ID string }
		_ = json.Unmarshal(params, &p)
		if p.ID == "" {
			p.ID = f.rootID
		}
		return f.subtreeLocked(p.ID), ""

	case "getInfo":
		var p struct{ ID string }
		_ = json.Unmarshal(params, &p)
		n, ok := f.nodes[p.ID]
		if !ok {
			return rpc.Succeeded(false, fmt.Sprintf("no such daemon %s", p.ID)), ""
		}
		if left, pending := f.restartPolls[p.ID]; pending && n.IsRestarting {
			if left <= 0 {
				n.IsRestarting = false
				n.State = "up"
				delete(f.restartPolls, p.ID)
			} else {
				f.restartPolls[p.ID] = left - 1
			}
		}
		return rpc.InfoResult{Result: rpc.Succeeded(true, ""), Data: *n}, ""

	case rpc.ActionStart, rpc.ActionStop, rpc.ActionRestart:
		var p struct{ UIDs []string }
		_ = json.Unmarshal(params, &p)
		for _, n := range f.nodesByUIDLocked(p.UIDs) {
			switch method {
			case rpc.ActionStart:
				n.State = "up"
			case rpc.ActionStop:
				n.State = "down"
			case rpc.ActionRestart:
				if f.restartPolls[n.ID] > 0 {
					n.State = "restarting"
					n.IsRestarting = true
				} else {
					n.State = "up"
				}
			}
		}
		return rpc.Succeeded(true, ""), ""

	case "setAutoStart":
		var p struct {
			UIDs    []string
			Enabled bool
		}
		_ = json.Unmarshal(params, &p)
		for _, n := range f.nodesByUIDLocked(p.UIDs) {
			n.AutoStart = p.Enabled
		}
		return rpc.Succeeded(true, ""), ""

	case "setCollector":
		var p struct {
			UIDs      []string
			Collector string
		}
		_ = json.Unmarshal(params, &p)
		for _, uid := range p.UIDs {
			f.assignment[uid] = p.Collector
		}
		return rpc.Succeeded(true, fmt.Sprintf("%d devices moved", len(p.UIDs))), ""

	case "getJobs":
		var q rpc.JobsQuery
		_ = json.Unmarshal(params, &q)
		jobs := make([]rpc.Job, len(f.jobs))
		copy(jobs, f.jobs)
		total := len(jobs)
		if q.Start > 0 {
			if q.Start >= len(jobs) {
				jobs = nil
			} else {
				jobs = jobs[q.Start:]
			}
		}
		if q.Limit > 0 && len(jobs) > q.Limit {
			jobs = jobs[:q.Limit]
		}
		return rpc.JobsResult{Result: rpc.Succeeded(true, ""), Jobs: jobs, TotalCount: total}, ""

	case "deleteJobs":
		var p struct{ JobIDs []string }
		_ = json.Unmarshal(params, &p)
		drop := make(map[string]bool)
		for _, id := range p.JobIDs {
			drop[id] = true
		}
		kept := f.jobs[:0]
		for _, j := range f.jobs {
			if !drop[j.UUID] {
				kept = append(kept, j)
			}
		}
		f.jobs = kept
		return rpc.Succeeded(true, ""), ""

	case "detail":
		var p struct{ JobID string }
		_ = json.Unmarshal(params, &p)
		for _, j := range f.jobs {
			if j.UUID == p.JobID {
				return rpc.DetailResult{Result: rpc.Succeeded(true, ""), Content: f.jobLogs[j.UUID], Logfile: j.Logfile}, ""
			}
		}
		return rpc.Succeeded(false, "no such job"), ""

	case "discoverDevices":
		var p rpc.DiscoverParams
		_ = json.Unmarshal(params, &p)
		job := rpc.Job{
			UUID:        uuid.NewString(),
			Status:      "PENDING",
			Networks:    strings.Join(p.Networks, ", "),
			ZProperties: p.ZProperties,
			Collector:   p.Collector,
		}
		f.jobs = append(f.jobs, job)
		return rpc.DiscoverResult{Result: rpc.Succeeded(true, ""), NewJobs: []rpc.Job{job}}, ""
	}

	return nil, fmt.Sprintf("unknown method %s", method)
}

func (f *FakeConsole) nodesByUIDLocked(uids []string) []*rpc.Node {
	want := make(map[string]bool)
	for _, u := range uids {
		want[u] = true
	}
	var out []*rpc.Node
	ids := make([]string, 0, len(f.nodes))
	for id := range f.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if want[f.nodes[id].UID] {
			out = append(out, f.nodes[id])
		}
	}
	return out
}

func (f *FakeConsole) subtreeLocked(id string) []rpc.Node {
	out := make([]rpc.Node, 0, len(f.children[id]))
	for _, kid := range f.children[id] {
		n := *f.nodes[kid]
		n.Children = f.subtreeLocked(kid)
		out = append(out, n)
	}
	return out
}
