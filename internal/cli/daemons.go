package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rileyhilliard/zenctl/internal/daemons"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/rpc"
	"github.com/rileyhilliard/zenctl/internal/ui"
	"github.com/rileyhilliard/zenctl/internal/util"
	"github.com/spf13/cobra"
)

// DefaultWaitTimeout bounds 'daemons restart --wait' when no timeout is given.
const DefaultWaitTimeout = 2 * time.Minute

var (
	restartWait        bool
	restartWaitTimeout string
)

// DaemonOutput is one daemon row in --json output.
type DaemonOutput struct {
	ID         string `json:"id"`
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	State      string `json:"state,omitempty"`
	AutoStart  bool   `json:"autostart"`
	Restarting bool   `json:"restarting"`
	Depth      int    `json:"depth"`
	Parent     string `json:"parent,omitempty"`
}

// ActionOutput reports a daemon action in --json output.
type ActionOutput struct {
	Action  string         `json:"action"`
	Daemons []DaemonOutput `json:"daemons"`
}

func daemonOutput(d daemons.Daemon, depth int) DaemonOutput {
	return DaemonOutput{
		ID:         d.ID,
		UID:        d.UID,
		Name:       d.Name,
		Type:       string(d.Type),
		State:      string(d.State),
		AutoStart:  d.AutoStart,
		Restarting: d.IsRestarting,
		Depth:      depth,
		Parent:     d.Parent,
	}
}

var daemonsCmd = &cobra.Command{
	Use:     "daemons",
	Aliases: []string{"daemon", "d"},
	Short:   "List and control daemons and collectors",
	Long: `List and control the daemons, collectors and hubs the console manages.

Daemons can be named by uid, id or name.

Examples:
  zenctl daemons list
  zenctl daemons info zenping
  zenctl daemons restart zenping zenperfsnmp --wait
  zenctl daemons autostart off zenmodeler`,
}

var daemonsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show the daemon tree",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		t, err := s.tree(cmd.Context())
		if err != nil {
			return err
		}
		return writeDaemonList(cmd.OutOrStdout(), t.Rows())
	},
}

func writeDaemonList(w io.Writer, rows []daemons.Row) error {
	if machineMode {
		out := make([]DaemonOutput, len(rows))
		for i, r := range rows {
			out[i] = daemonOutput(r.Daemon, r.Depth)
		}
		return WriteJSONSuccess(w, out)
	}

	if len(rows) == 0 {
		printWarning(w, "The console reported no daemons")
		return nil
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		state := ""
		if r.State != "" {
			state = ui.StateSymbol(string(r.State)) + " " + string(r.State)
		}
		if r.IsRestarting {
			state = ui.StateSymbol(string(daemons.StateRestarting)) + " " + string(daemons.StateRestarting)
		}
		cells[i] = []string{
			ui.Indent(r.Name, r.Depth),
			ui.MutedStyle().Render(string(r.Type)),
			state,
			ui.Checkbox(r.AutoStart),
			r.ID,
		}
	}
	fmt.Fprint(w, ui.RenderSimpleTable([]ui.TableColumn{
		{Title: "NAME"}, {Title: "TYPE"}, {Title: "STATE"}, {Title: "AUTOSTART"}, {Title: "ID"},
	}, cells))
	return nil
}

var daemonsInfoCmd = &cobra.Command{
	Use:   "info <daemon>",
	Short: "Show the current record of one daemon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSession(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		t, err := s.tree(ctx)
		if err != nil {
			return err
		}
		rows, err := resolveRows(t, args)
		if err != nil {
			return err
		}
		node, err := s.controller().Info(ctx, rows[0].ID)
		if err != nil {
			return err
		}
		return writeDaemonInfo(cmd.OutOrStdout(), node)
	},
}

func writeDaemonInfo(w io.Writer, n rpc.Node) error {
	if machineMode {
		return WriteJSONSuccess(w, n)
	}

	name := n.Name
	if name == "" {
		name = n.Text
	}
	field := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", ui.MutedStyle().Render(fmt.Sprintf("%-11s", label)), value)
	}
	fmt.Fprintln(w, ui.InfoStyle().Bold(true).Render(name))
	field("id", n.ID)
	field("uid", n.UID)
	field("type", n.Type)
	field("state", ui.StateSymbol(n.State)+" "+n.State)
	field("autostart", fmt.Sprintf("%t", n.AutoStart))
	field("restarting", fmt.Sprintf("%t", n.IsRestarting))
	if len(n.Children) > 0 {
		field("children", fmt.Sprintf("%d", len(n.Children)))
	}
	return nil
}

// controlFunc runs one controller action over the resolved rows.
type controlFunc func(ctx context.Context, c *daemons.Controller, rows []daemons.Daemon) (daemons.Change, error)

func newControlCmd(use, short, verb string, fn controlFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <daemon>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, rows, t, err := loadRows(cmd, args)
			if err != nil {
				return err
			}
			ch, err := fn(cmd.Context(), s.controller(), rows)
			if err != nil {
				return err
			}
			t.Apply(ch)
			return writeAction(cmd.OutOrStdout(), verb, t, rows)
		},
	}
}

// loadRows loads the session and tree and resolves args against it.
func loadRows(cmd *cobra.Command, args []string) (*session, []daemons.Daemon, *daemons.Tree, error) {
	s, err := loadSession(cmd.OutOrStdout())
	if err != nil {
		return nil, nil, nil, err
	}
	t, err := s.tree(cmd.Context())
	if err != nil {
		return nil, nil, nil, err
	}
	rows, err := resolveRows(t, args)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, rows, t, nil
}

// writeAction reports an accepted action using the rows' cached state.
func writeAction(w io.Writer, verb string, t *daemons.Tree, rows []daemons.Daemon) error {
	out := make([]DaemonOutput, 0, len(rows))
	for _, r := range rows {
		if d, ok := t.Get(r.ID); ok {
			r = *d
		}
		out = append(out, daemonOutput(r, 0))
	}
	if machineMode {
		return WriteJSONSuccess(w, ActionOutput{Action: strings.ToLower(verb), Daemons: out})
	}
	printSuccess(w, verb+" "+names(rows))
	return nil
}

var daemonsStartCmd = newControlCmd("start", "Start daemons", "Started",
	func(ctx context.Context, c *daemons.Controller, rows []daemons.Daemon) (daemons.Change, error) {
		return c.Start(ctx, rows)
	})

var daemonsStopCmd = newControlCmd("stop", "Stop daemons", "Stopped",
	func(ctx context.Context, c *daemons.Controller, rows []daemons.Daemon) (daemons.Change, error) {
		return c.Stop(ctx, rows)
	})

var daemonsRestartCmd = &cobra.Command{
	Use:   "restart <daemon>...",
	Short: "Restart daemons",
	Long: `Restart daemons.

With --wait the command polls every daemon until the console reports it
is no longer restarting.

Examples:
  zenctl daemons restart zenping
  zenctl daemons restart zenping zenperfsnmp --wait --wait-timeout 5m`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, err := ParseWaitTimeout(restartWaitTimeout)
		if err != nil {
			return err
		}
		s, rows, t, err := loadRows(cmd, args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ch, err := s.controller().Restart(ctx, rows)
		if err != nil {
			return err
		}
		t.Apply(ch)

		w := cmd.OutOrStdout()
		if !restartWait {
			return writeAction(w, "Restarting", t, rows)
		}

		if timeout == 0 {
			timeout = DefaultWaitTimeout
		}
		tracker := daemons.NewRestartTracker(s.svc.Apps, s.cfg.PollInterval)
		for _, r := range rows {
			if d, ok := t.Get(r.ID); ok {
				tracker.Track(d)
			}
		}
		if err := waitForRestart(ctx, cmd.ErrOrStderr(), tracker, t, timeout); err != nil {
			return err
		}
		return writeAction(w, "Restarted", t, rows)
	},
}

// waitForRestart runs the tracker until every row settles, the timeout
// passes or the user interrupts.
func waitForRestart(ctx context.Context, progress io.Writer, tracker *daemons.RestartTracker, t *daemons.Tree, timeout time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var sp *ui.Spinner
	if !machineMode {
		sp = ui.NewSpinner(fmt.Sprintf("Waiting for %s to restart", util.Pluralize(tracker.Len(), "daemon", "daemons")), progress)
		sp.Start()
	}

	err := tracker.Wait(ctx, func(r daemons.Round) {
		if sp == nil {
			return
		}
		for _, id := range r.Settled {
			if d, ok := t.Get(id); ok {
				sp.SetLabel(fmt.Sprintf("%s is %s, %d still restarting", d.Name, d.State, tracker.Len()))
			}
		}
	})

	if err != nil {
		if sp != nil {
			sp.Fail()
		}
		pending := make([]string, 0, tracker.Len())
		for _, id := range tracker.Pending() {
			if d, ok := t.Get(id); ok {
				pending = append(pending, d.Name)
			}
		}
		return errors.WrapWithCode(err, errors.ErrDaemon,
			fmt.Sprintf("Stopped waiting with %s still restarting", strings.Join(pending, ", ")),
			"The restart was sent. Check again with 'zenctl daemons list'.")
	}
	if sp != nil {
		sp.Success()
	}
	return nil
}

var daemonsAutostartCmd = &cobra.Command{
	Use:       "autostart <on|off> <daemon>...",
	Short:     "Turn auto-start on or off",
	Args:      cobra.MinimumNArgs(2),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := ParseOnOff(args[0])
		if err != nil {
			return err
		}
		s, rows, t, err := loadRows(cmd, args[1:])
		if err != nil {
			return err
		}
		ch, err := s.controller().SetAutoStart(cmd.Context(), rows, enabled)
		if err != nil {
			return err
		}
		t.Apply(ch)

		verb := "Auto-start off for"
		if enabled {
			verb = "Auto-start on for"
		}
		return writeAction(cmd.OutOrStdout(), verb, t, rows)
	},
}

func init() {
	daemonsRestartCmd.Flags().BoolVarP(&restartWait, "wait", "w", false, "poll until every daemon has finished restarting")
	daemonsRestartCmd.Flags().StringVar(&restartWaitTimeout, "wait-timeout", "", "give up waiting after this long (default 2m)")

	daemonsCmd.AddCommand(daemonsListCmd)
	daemonsCmd.AddCommand(daemonsInfoCmd)
	daemonsCmd.AddCommand(daemonsStartCmd)
	daemonsCmd.AddCommand(daemonsStopCmd)
	daemonsCmd.AddCommand(daemonsRestartCmd)
	daemonsCmd.AddCommand(daemonsAutostartCmd)
	rootCmd.AddCommand(daemonsCmd)
}
