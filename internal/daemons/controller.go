package daemons

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/logger"
	"github.com/rileyhilliard/zenctl/internal/rpc"
)

// Service is the slice of ApplicationRouter the controller drives.
// *rpc.Applications satisfies it.
type Service interface {
	Control(ctx context.Context, action string, uids []string) (rpc.Result, error)
	SetAutoStart(ctx context.Context, uids []string, enabled bool) (rpc.Result, error)
	GetInfo(ctx context.Context, id string) (rpc.InfoResult, error)
}

// Assigner moves devices between collectors. *rpc.Devices satisfies it.
type Assigner interface {
	SetCollector(ctx context.Context, uids []string, collector string) (rpc.Result, error)
}

// Change is a server-confirmed update to apply to cached rows.
type Change struct {
	IDs       []string
	State     State // empty leaves state alone
	AutoStart *bool // nil leaves autostart alone
}

// Empty reports whether the change touches nothing.
func (c Change) Empty() bool {
	return len(c.IDs) == 0
}

func (c Change) applyTo(d *Daemon) {
	if c.State != "" {
		d.State = c.State
	}
	if c.AutoStart != nil {
		d.AutoStart = *c.AutoStart
	}
}

// ConfirmFunc asks the operator whether to move count devices to collector.
type ConfirmFunc func(count int, collector string) bool

// Controller issues daemon and device actions against the console.
type Controller struct {
	svc     Service
	devices Assigner
	log     logger.Logger
}

// NewController creates a controller. devices may be nil when assignment is
// not needed.
func NewController(svc Service, devices Assigner, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Noop()
	}
	return &Controller{svc: svc, devices: devices, log: log}
}

// UpdateSelected runs action on every row in one call and, when the server
// reports success, returns a Change setting state on all of them. An empty
// selection is a no-op. A failed call returns an error and an empty Change
// so the cache stays as it was.
func (c *Controller) UpdateSelected(ctx context.Context, rows []Daemon, action string, state State) (Change, error) {
	if len(rows) == 0 {
		return Change{}, nil
	}

	uids := UIDs(rows)
	c.log.Debug("%s %v", action, uids)

	res, err := c.svc.Control(ctx, action, uids)
	if err != nil {
		return Change{}, err
	}
	if !res.OK() {
		return Change{}, errors.Rejected(action, res.Msg)
	}
	return Change{IDs: ids(rows), State: state}, nil
}

// Start starts every row.
func (c *Controller) Start(ctx context.Context, rows []Daemon) (Change, error) {
	return c.UpdateSelected(ctx, rows, rpc.ActionStart, StateUp)
}

// Stop stops every row.
func (c *Controller) Stop(ctx context.Context, rows []Daemon) (Change, error) {
	return c.UpdateSelected(ctx, rows, rpc.ActionStop, StateDown)
}

// Restart restarts every selected row. The caller tracks the rows in a
// RestartTracker before calling so the in-progress icon shows right away.
func (c *Controller) Restart(ctx context.Context, rows []Daemon) (Change, error) {
	return c.UpdateSelected(ctx, rows, rpc.ActionRestart, StateUp)
}

// RestartRow restarts a single row from its restart column. Unlike Restart
// the row reads "restarting" until the tracker settles it.
func (c *Controller) RestartRow(ctx context.Context, row Daemon) (Change, error) {
	return c.UpdateSelected(ctx, []Daemon{row}, rpc.ActionRestart, StateRestarting)
}

// Toggle flips a row from its status column: stop when up, start otherwise.
func (c *Controller) Toggle(ctx context.Context, row Daemon) (Change, error) {
	if row.IsUp() {
		return c.Stop(ctx, []Daemon{row})
	}
	return c.Start(ctx, []Daemon{row})
}

// SetAutoStart sets the auto-start flag on every row in one call.
// Rows are only updated when the server reports success.
func (c *Controller) SetAutoStart(ctx context.Context, rows []Daemon, enabled bool) (Change, error) {
	if len(rows) == 0 {
		return Change{}, nil
	}

	res, err := c.svc.SetAutoStart(ctx, UIDs(rows), enabled)
	if err != nil {
		return Change{}, err
	}
	if !res.OK() {
		return Change{}, errors.Rejected("setAutoStart", res.Msg)
	}
	return Change{IDs: ids(rows), AutoStart: &enabled}, nil
}

// Info fetches the current record of one daemon.
func (c *Controller) Info(ctx context.Context, id string) (rpc.Node, error) {
	res, err := c.svc.GetInfo(ctx, id)
	if err != nil {
		return rpc.Node{}, err
	}
	if !res.OK() {
		return rpc.Node{}, errors.Rejected("getInfo", res.Msg)
	}
	return res.Data, nil
}

// Assignment is the outcome of AssignDevices.
type Assignment struct {
	Assigned  bool
	Collector string
	Count     int
	Msg       string
	// Target is the collector's record after the move. Zero when the
	// follow-up getInfo failed.
	Target rpc.Node
}

// CheckAssignTarget rejects targets that can't receive devices.
func CheckAssignTarget(target Daemon) error {
	if target.Type != KindCollector {
		return errors.New(errors.ErrDaemon,
			fmt.Sprintf("'%s' is a %s, not a collector", target.Name, target.Type),
			"Devices can only be assigned to collectors.")
	}
	return nil
}

// AssignDevices moves devices to the target collector after confirm agrees.
// Targets that are not collectors are rejected without a request. Once the
// move succeeds the target's details are refreshed with getInfo.
func (c *Controller) AssignDevices(ctx context.Context, deviceUIDs []string, target Daemon, confirm ConfirmFunc) (Assignment, error) {
	out := Assignment{Collector: target.Name, Count: len(deviceUIDs)}

	if err := CheckAssignTarget(target); err != nil {
		return out, err
	}
	if len(deviceUIDs) == 0 {
		return out, errors.New(errors.ErrDaemon,
			"No devices to assign",
			"Pass at least one device uid.")
	}
	if c.devices == nil {
		return out, errors.New(errors.ErrDaemon,
			"Device assignment isn't available",
			"This is a bug in zenctl.")
	}
	if confirm != nil && !confirm(len(deviceUIDs), target.Name) {
		return out, nil
	}

	res, err := c.devices.SetCollector(ctx, deviceUIDs, target.Name)
	if err != nil {
		return out, err
	}
	if !res.OK() {
		return out, errors.Rejected("setCollector", res.Msg)
	}
	out.Assigned = true
	out.Msg = res.Msg

	node, err := c.Info(ctx, target.ID)
	if err != nil {
		c.log.Warn("refreshing %s after assignment: %s", target.Name, errors.Short(err))
		return out, nil
	}
	out.Target = node
	return out, nil
}
