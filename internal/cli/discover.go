package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rileyhilliard/zenctl/internal/discovery"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	"github.com/rileyhilliard/zenctl/internal/ui"
	"github.com/rileyhilliard/zenctl/internal/util"
	"github.com/spf13/cobra"
)

// previewLimit is the largest range whose addresses a text dry run lists
// one by one.
const previewLimit = 256

// discoverFlags holds the 'discover add' flags.
type discoverFlags struct {
	Ranges          []string
	Collector       string
	Communities     []string
	CommandUsername string
	CommandPassword string
	WinRMUser       string
	WinRMPassword   string
	DryRun          bool
}

var addFlags discoverFlags

// request builds a discovery request from the flags.
func (f discoverFlags) request() *discovery.Request {
	r := discovery.NewRequest()
	r.Ranges = strings.Join(f.Ranges, "\n")
	if f.Collector != "" {
		r.Collector = f.Collector
	}
	r.Communities = strings.Join(f.Communities, "\n")
	r.CommandUsername = f.CommandUsername
	r.CommandPassword = f.CommandPassword
	r.WinRMUser = f.WinRMUser
	r.WinRMPassword = f.WinRMPassword
	return r
}

// JobOutput is one discovery job in --json output. Password properties are
// left out.
type JobOutput struct {
	UUID        string  `json:"uuid"`
	Status      string  `json:"status"`
	Networks    string  `json:"networks"`
	Credentials string  `json:"credentials,omitempty"`
	Collector   string  `json:"collector,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	Logfile     string  `json:"logfile,omitempty"`
	Errors      string  `json:"errors,omitempty"`
}

func jobOutput(j rpc.Job) JobOutput {
	return JobOutput{
		UUID:        j.UUID,
		Status:      j.Status,
		Networks:    j.Networks,
		Credentials: discovery.Credentials(j.ZProperties),
		Collector:   j.Collector,
		Duration:    j.Duration,
		Logfile:     j.Logfile,
		Errors:      j.Errors,
	}
}

// RangePreview is one expanded range token of a dry run.
type RangePreview struct {
	Token     string   `json:"token"`
	First     string   `json:"first"`
	Last      string   `json:"last"`
	Size      uint64   `json:"size"`
	Addresses []string `json:"addresses,omitempty"`
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover devices on a network",
	Long: `Discover devices on a network.

Without a subcommand an interactive wizard asks for networks, a collector
and credentials, then schedules one discovery job per network.

Examples:
  zenctl discover
  zenctl discover add --ranges 10.0.0.0/24 --ranges 10.1.0.1-50 --snmp public
  zenctl discover add --ranges 10.0.0.1-10 --dry-run
  zenctl discover jobs
  zenctl discover log 4d1c0e6a-...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !interactive() {
			return errors.New(errors.ErrDiscovery,
				"The discovery wizard needs a terminal",
				"Use 'zenctl discover add --ranges ... --snmp ...' in scripts.")
		}

		s, err := loadSession(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		req := discovery.NewRequest()
		if err := discovery.NewForm(req, s.collectors(ctx)).Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrDiscovery,
				"Discovery cancelled",
				"Nothing was scheduled.")
		}

		jobs, err := discovery.Submit(ctx, s.svc.Networks, req)
		if err != nil {
			return err
		}
		return writeScheduled(cmd.OutOrStdout(), jobs)
	},
}

var discoverAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Schedule discovery without the wizard",
	Long: `Schedule discovery from flags.

Ranges may be networks (10.0.0.0/24), spans (10.0.0.1-50 or
10.0.0.1-10.0.0.50) or single addresses. Pass --ranges once per range or
separate them with commas. --dry-run checks and expands the ranges without
contacting the console.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := addFlags.request()
		w := cmd.OutOrStdout()

		if addFlags.DryRun {
			if err := discovery.ValidateRangeInput(req.Ranges); err != nil {
				return errors.New(errors.ErrDiscovery, err.Error(),
					"Enter networks such as 10.0.0.0/24 or ranges such as 10.0.0.1-50.")
			}
			previews, err := previewRanges(req.Networks())
			if err != nil {
				return err
			}
			return writePreview(w, previews)
		}

		s, err := loadSession(w)
		if err != nil {
			return err
		}
		jobs, err := discovery.Submit(cmd.Context(), s.svc.Networks, req)
		if err != nil {
			return err
		}
		return writeScheduled(w, jobs)
	},
}

// previewRanges parses every token. Addresses are listed for tokens small
// enough to expand.
func previewRanges(tokens []string) ([]RangePreview, error) {
	out := make([]RangePreview, 0, len(tokens))
	for _, tok := range tokens {
		r, err := discovery.ParseRange(tok)
		if err != nil {
			return nil, err
		}
		p := RangePreview{Token: r.Token, First: r.First.String(), Last: r.Last.String(), Size: r.Size()}
		if p.Size <= discovery.MaxExpand {
			if p.Addresses, err = discovery.ExpandRange(tok); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func writePreview(w io.Writer, previews []RangePreview) error {
	if machineMode {
		return WriteJSONSuccess(w, previews)
	}
	var total uint64
	for _, p := range previews {
		total += p.Size
		fmt.Fprintf(w, "%s %s\n", ui.InfoStyle().Render(p.Token), ui.MutedStyle().Render(fmt.Sprintf("(%d addresses)", p.Size)))
		if p.Size > previewLimit || p.Addresses == nil {
			fmt.Fprintf(w, "  %s ... %s\n", p.First, p.Last)
			continue
		}
		for _, a := range p.Addresses {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
	printSuccess(w, fmt.Sprintf("%s, %d addresses. Nothing was scheduled.", util.Pluralize(len(previews), "range", "ranges"), total))
	return nil
}

func writeScheduled(w io.Writer, jobs []rpc.Job) error {
	if machineMode {
		out := make([]JobOutput, len(jobs))
		for i, j := range jobs {
			out[i] = jobOutput(j)
		}
		return WriteJSONSuccess(w, out)
	}
	for _, j := range jobs {
		fmt.Fprintf(w, "  %s %s\n", ui.MutedStyle().Render(j.UUID), j.Networks)
	}
	printSuccess(w, fmt.Sprintf("Scheduled %s", util.Pluralize(len(jobs), "discovery job", "discovery jobs")))
	return nil
}

var discoverJobsCmd = &cobra.Command{
	Use:     "jobs",
	Aliases: []string{"ls"},
	Short:   "List discovery jobs, newest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		s, err := loadSession(w)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		g := discovery.NewGrid(s.svc.Jobs, s.log)
		if err := g.Refresh(ctx); err != nil {
			return err
		}
		return writeJobs(w, g, discovery.ShowCollector(s.collectors(ctx)))
	},
}

func writeJobs(w io.Writer, g *discovery.Grid, showCollector bool) error {
	jobs := g.Jobs()
	if machineMode {
		out := make([]JobOutput, len(jobs))
		for i, j := range jobs {
			out[i] = jobOutput(j.Job)
		}
		return WriteJSONSuccess(w, map[string]interface{}{"jobs": out, "total": g.Total()})
	}
	if len(jobs) == 0 {
		printWarning(w, "No discovery jobs")
		return nil
	}

	cols := []ui.TableColumn{{Title: "STATUS"}, {Title: "UUID"}, {Title: "NETWORKS"}, {Title: "CREDENTIALS"}}
	if showCollector {
		cols = append(cols, ui.TableColumn{Title: "COLLECTOR"})
	}
	cols = append(cols, ui.TableColumn{Title: "DURATION"}, ui.TableColumn{Title: "LOG"})

	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		row := []string{jobStatusText(j.Status), j.UUID, j.Networks, discovery.Credentials(j.ZProperties)}
		if showCollector {
			row = append(row, j.Collector)
		}
		row = append(row, discovery.Duration(j.Duration), discovery.Logfile(j.Logfile))
		rows[i] = row
	}
	fmt.Fprint(w, ui.RenderSimpleTable(cols, rows))
	if g.Total() > len(jobs) {
		fmt.Fprintln(w, ui.MutedStyle().Render(fmt.Sprintf("showing %d of %d jobs", len(jobs), g.Total())))
	}
	return nil
}

// jobStatusText renders a status cell for the terminal. The icon-only
// states get a word since there is no spinner here.
func jobStatusText(status string) string {
	sc := discovery.RenderStatus(status)
	switch sc.Tone {
	case discovery.ToneInProgress:
		return ui.WarningStyle().Render(ui.SymbolRestart + " started")
	case discovery.ToneSettled:
		return ui.MutedStyle().Render(ui.SymbolDown + " pending")
	case discovery.ToneWarning:
		return ui.WarningStyle().Render(ui.SymbolWarning + " " + sc.Text)
	case discovery.ToneClear:
		return ui.SuccessStyle().Render(ui.SymbolSuccess + " " + sc.Text)
	case discovery.ToneCritical:
		return ui.ErrorStyle().Render(ui.SymbolFail + " " + sc.Text)
	}
	return sc.Text
}

var discoverRmCmd = &cobra.Command{
	Use:     "rm <uuid>...",
	Aliases: []string{"remove"},
	Short:   "Remove discovery jobs",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		s, err := loadSession(w)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		g := discovery.NewGrid(s.svc.Jobs, s.log)
		if err := g.Refresh(ctx); err != nil {
			return err
		}

		removed := make([]string, 0, len(args))
		for _, id := range args {
			sent, err := g.Remove(ctx, id)
			if !sent {
				// Not on the first page; let the console decide.
				err = g.Delete(ctx, id)
			}
			if err != nil {
				return err
			}
			removed = append(removed, id)
		}

		if machineMode {
			return WriteJSONSuccess(w, map[string][]string{"removed": removed})
		}
		for _, id := range removed {
			printSuccess(w, "Removed job "+id)
		}
		return nil
	},
}

var discoverLogCmd = &cobra.Command{
	Use:   "log <uuid>",
	Short: "Print the log of a discovery job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		s, err := loadSession(w)
		if err != nil {
			return err
		}
		g := discovery.NewGrid(s.svc.Jobs, s.log)
		l, err := g.JobLog(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if machineMode {
			return WriteJSONSuccess(w, l)
		}
		if l.Logfile != "" {
			fmt.Fprintln(w, ui.MutedStyle().Render(discovery.Logfile(l.Logfile)))
		}
		for _, line := range l.Lines {
			fmt.Fprintln(w, line)
		}
		return nil
	},
}

func init() {
	f := discoverAddCmd.Flags()
	f.StringSliceVarP(&addFlags.Ranges, "ranges", "r", nil, "networks or ip ranges to scan")
	f.StringVar(&addFlags.Collector, "collector", "", "collector that runs the scan (default localhost)")
	f.StringSliceVar(&addFlags.Communities, "snmp", nil, "SNMP community strings")
	f.StringVar(&addFlags.CommandUsername, "ssh-user", "", "SSH username")
	f.StringVar(&addFlags.CommandPassword, "ssh-password", "", "SSH password")
	f.StringVar(&addFlags.WinRMUser, "winrm-user", "", "Windows administrator username")
	f.StringVar(&addFlags.WinRMPassword, "winrm-password", "", "Windows password")
	f.BoolVar(&addFlags.DryRun, "dry-run", false, "validate and expand the ranges without scheduling")

	discoverCmd.AddCommand(discoverAddCmd)
	discoverCmd.AddCommand(discoverJobsCmd)
	discoverCmd.AddCommand(discoverRmCmd)
	discoverCmd.AddCommand(discoverLogCmd)
	rootCmd.AddCommand(discoverCmd)
}
