package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/zenctl/internal/config"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/rpc"
)

// zProperty names the wizard can set.
const (
	PropSnmpCommunities = "zSnmpCommunities"
	PropCommandUsername = "zCommandUsername"
	PropCommandPassword = "zCommandPassword"
	PropWinRMUser       = "zWinRMUser"
	PropWinRMPassword   = "zWinRMPassword"
)

// Request is what the discovery wizard collects.
type Request struct {
	Ranges          string
	Collector       string
	Communities     string
	CommandUsername string
	CommandPassword string
	WinRMUser       string
	WinRMPassword   string
}

// NewRequest returns an empty request aimed at the default collector.
func NewRequest() *Request {
	return &Request{Collector: config.DefaultCollector}
}

// Networks returns the range tokens to send.
func (r *Request) Networks() []string {
	return SplitInput(r.Ranges)
}

// ZProperties returns the credentials to send. Empty values are left out.
func (r *Request) ZProperties() map[string]string {
	props := make(map[string]string)
	set := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			props[key] = v
		}
	}
	set(PropSnmpCommunities, r.Communities)
	set(PropCommandUsername, r.CommandUsername)
	set(PropCommandPassword, r.CommandPassword)
	set(PropWinRMUser, r.WinRMUser)
	set(PropWinRMPassword, r.WinRMPassword)
	return props
}

// Validate checks the required fields.
func (r *Request) Validate() error {
	if !ValidRangeInput(r.Ranges) {
		return errors.New(errors.ErrDiscovery, RangeInputMessage,
			"Enter networks such as 10.0.0.0/24 or ranges such as 10.0.0.1-50.")
	}
	if strings.TrimSpace(r.Communities) == "" {
		return errors.New(errors.ErrDiscovery, "SNMP community strings are required",
			"Enter at least one community, e.g. 'public'.")
	}
	return nil
}

// Params builds the discoverDevices request.
func (r *Request) Params() (rpc.DiscoverParams, error) {
	if err := r.Validate(); err != nil {
		return rpc.DiscoverParams{}, err
	}
	collector := r.Collector
	if collector == "" {
		collector = config.DefaultCollector
	}
	return rpc.DiscoverParams{
		Networks:    r.Networks(),
		ZProperties: r.ZProperties(),
		Collector:   collector,
	}, nil
}

// Discoverer schedules discovery jobs. *rpc.Networks satisfies it.
type Discoverer interface {
	DiscoverDevices(ctx context.Context, p rpc.DiscoverParams) (rpc.DiscoverResult, error)
}

// Submit validates the request and schedules it. Returns the new jobs.
func Submit(ctx context.Context, d Discoverer, r *Request) ([]rpc.Job, error) {
	params, err := r.Params()
	if err != nil {
		return nil, err
	}
	res, err := d.DiscoverDevices(ctx, params)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, errors.RejectedWithCode(errors.ErrDiscovery, "discoverDevices", res.Msg)
	}
	return res.NewJobs, nil
}

// NewForm builds the wizard form bound to r. The collector choice only
// appears when there is more than one collector.
func NewForm(r *Request, collectors []string) *huh.Form {
	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewText().
				Title("Networks/Range").
				Description("Enter one or more networks (such as 10.0.0.0/24) or IP ranges (such as 10.0.0.1-50)").
				Value(&r.Ranges).
				Validate(ValidateRangeInput),
		),
	}

	if len(collectors) > 1 {
		opts := make([]huh.Option[string], 0, len(collectors))
		for _, c := range collectors {
			opts = append(opts, huh.NewOption(c, c))
		}
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Collector").
				Options(opts...).
				Value(&r.Collector),
		))
	}

	groups = append(groups,
		huh.NewGroup(
			huh.NewText().
				Title("SNMP community strings").
				Description("Each community is tried in turn when connecting to a device").
				Value(&r.Communities).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("at least one community string is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SSH username").
				Placeholder("leave empty to skip").
				Value(&r.CommandUsername),
			huh.NewInput().
				Title("SSH password").
				EchoMode(huh.EchoModePassword).
				Value(&r.CommandPassword),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Windows administrator username").
				Description("Must be a member of the Local Administrators group").
				Placeholder("leave empty to skip").
				Value(&r.WinRMUser),
			huh.NewInput().
				Title("Windows password").
				EchoMode(huh.EchoModePassword).
				Value(&r.WinRMPassword),
		),
	)

	return huh.NewForm(groups...)
}
