package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rileyhilliard/zenctl/internal/errors"
)

// Daemon control actions accepted by ApplicationRouter.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
)

// Applications wraps ApplicationRouter: the daemon tree and daemon control.
type Applications struct {
	c *Client
}

// NewApplications returns the ApplicationRouter wrapper for c.
func NewApplications(c *Client) *Applications {
	return &Applications{c: c}
}

// GetTree returns the children of node id, each with its subtree.
// The console answers with a bare list, or an envelope when it refuses.
func (a *Applications) GetTree(ctx context.Context, id string) ([]Node, error) {
	var raw json.RawMessage
	if err := a.c.Call(ctx, ApplicationRouter, "getTree", map[string]string{"id": id}, &raw); err != nil {
		return nil, err
	}
	if len(raw) > 0 && raw[0] == '{' {
		var res Result
		if err := json.Unmarshal(raw, &res); err != nil || res.OK() {
			return nil, errors.New(errors.ErrRPC,
				fmt.Sprintf("getTree(%s) returned an object instead of a list", id),
				"The console may be running an incompatible version.")
		}
		return nil, errors.Rejected("getTree", res.Msg)
	}
	var nodes []Node
	if len(raw) == 0 {
		return nodes, nil
	}
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrRPC,
			"Unexpected getTree result",
			"The console may be running an incompatible version.")
	}
	return nodes, nil
}

// GetInfo returns the current record of one daemon.
func (a *Applications) GetInfo(ctx context.Context, id string) (InfoResult, error) {
	var res InfoResult
	err := a.c.Call(ctx, ApplicationRouter, "getInfo", map[string]string{"id": id}, &res)
	return res, err
}

// Control runs start, stop or restart on every uid.
func (a *Applications) Control(ctx context.Context, action string, uids []string) (Result, error) {
	var res Result
	err := a.c.Call(ctx, ApplicationRouter, action, map[string][]string{"uids": uids}, &res)
	return res, err
}

type autoStartParams struct {
	UIDs    []string `json:"uids"`
	Enabled bool     `json:"enabled"`
}

// SetAutoStart flips the auto-start flag on every uid.
func (a *Applications) SetAutoStart(ctx context.Context, uids []string, enabled bool) (Result, error) {
	var res Result
	err := a.c.Call(ctx, ApplicationRouter, "setAutoStart", autoStartParams{UIDs: uids, Enabled: enabled}, &res)
	return res, err
}

// Devices wraps DeviceRouter.
type Devices struct {
	c *Client
}

// NewDevices returns the DeviceRouter wrapper for c.
func NewDevices(c *Client) *Devices {
	return &Devices{c: c}
}

type setCollectorParams struct {
	UIDs      []string `json:"uids"`
	Collector string   `json:"collector"`
	HashCheck *string  `json:"hashcheck"`
}

// SetCollector moves devices to collector.
func (d *Devices) SetCollector(ctx context.Context, uids []string, collector string) (Result, error) {
	var res Result
	err := d.c.Call(ctx, DeviceRouter, "setCollector", setCollectorParams{UIDs: uids, Collector: collector}, &res)
	return res, err
}

// Jobs wraps JobsRouter.
type Jobs struct {
	c *Client
}

// NewJobs returns the JobsRouter wrapper for c.
func NewJobs(c *Client) *Jobs {
	return &Jobs{c: c}
}

// GetJobs lists discovery jobs.
func (j *Jobs) GetJobs(ctx context.Context, q JobsQuery) (JobsResult, error) {
	var res JobsResult
	err := j.c.Call(ctx, JobsRouter, "getJobs", q, &res)
	return res, err
}

// DeleteJobs removes jobs by uuid.
func (j *Jobs) DeleteJobs(ctx context.Context, jobIDs []string) (Result, error) {
	var res Result
	err := j.c.Call(ctx, JobsRouter, "deleteJobs", map[string][]string{"jobids": jobIDs}, &res)
	return res, err
}

// Detail returns the log of one job.
func (j *Jobs) Detail(ctx context.Context, jobID string) (DetailResult, error) {
	var res DetailResult
	err := j.c.Call(ctx, JobsRouter, "detail", map[string]string{"jobid": jobID}, &res)
	return res, err
}

// Networks wraps NetworkRouter.
type Networks struct {
	c *Client
}

// NewNetworks returns the NetworkRouter wrapper for c.
func NewNetworks(c *Client) *Networks {
	return &Networks{c: c}
}

// DiscoverDevices schedules discovery jobs for the given networks.
func (n *Networks) DiscoverDevices(ctx context.Context, p DiscoverParams) (DiscoverResult, error) {
	var res DiscoverResult
	err := n.c.Call(ctx, NetworkRouter, "discoverDevices", p, &res)
	return res, err
}
