package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/zenctl/internal/daemons"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/util"
	"github.com/spf13/cobra"
)

var (
	assignCollector string
	assignYes       bool
)

// AssignOutput reports a device move in --json output.
type AssignOutput struct {
	Assigned  bool     `json:"assigned"`
	Collector string   `json:"collector"`
	Devices   []string `json:"devices"`
	Message   string   `json:"message,omitempty"`
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage device placement",
}

var devicesAssignCmd = &cobra.Command{
	Use:   "assign --collector <name> <device-uid>...",
	Short: "Move devices to a collector",
	Long: `Move devices to a collector.

You are asked to confirm unless --yes is given or stdin is not a terminal.

Examples:
  zenctl devices assign --collector remote1 /zport/dmd/Devices/Server/Linux/devices/web01
  zenctl devices assign --collector localhost --yes dev1 dev2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if assignCollector == "" {
			return errors.New(errors.ErrConfig,
				"No collector given",
				"Pass --collector <name>.")
		}

		s, err := loadSession(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		t, err := s.tree(ctx)
		if err != nil {
			return err
		}
		target, err := assignTarget(t, assignCollector)
		if err != nil {
			return err
		}

		var confirm daemons.ConfirmFunc
		if !assignYes && interactive() {
			confirm = confirmAssign
		}
		res, err := s.controller().AssignDevices(ctx, args, target, confirm)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if machineMode {
			return WriteJSONSuccess(w, AssignOutput{
				Assigned:  res.Assigned,
				Collector: res.Collector,
				Devices:   args,
				Message:   res.Msg,
			})
		}
		if !res.Assigned {
			printWarning(w, "Assignment cancelled")
			return nil
		}
		printSuccess(w, fmt.Sprintf("Assigned %s to %s", util.Pluralize(res.Count, "device", "devices"), res.Collector))
		return nil
	},
}

// assignTarget looks the collector up by name, then by uid or id. A match
// that isn't a collector is rejected with the reason.
func assignTarget(t *daemons.Tree, name string) (daemons.Daemon, error) {
	if c, ok := t.FindCollector(name); ok {
		return c, nil
	}
	rows, err := resolveRows(t, []string{name})
	if err != nil {
		return daemons.Daemon{}, errors.New(errors.ErrDaemon,
			fmt.Sprintf("No collector named '%s'", name),
			"Run 'zenctl daemons list' to see the collectors.")
	}
	if err := daemons.CheckAssignTarget(rows[0]); err != nil {
		return daemons.Daemon{}, err
	}
	return rows[0], nil
}

// confirmAssign asks before moving devices. Tests override it.
var confirmAssign daemons.ConfirmFunc = func(count int, collector string) bool {
	ok := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Assign %s to collector %s?", util.Pluralize(count, "device", "devices"), collector)).
				Affirmative("Assign").
				Negative("Cancel").
				Value(&ok),
		),
	).Run()
	return err == nil && ok
}

func init() {
	devicesAssignCmd.Flags().StringVarP(&assignCollector, "collector", "c", "", "collector to move the devices to")
	devicesAssignCmd.Flags().BoolVarP(&assignYes, "yes", "y", false, "skip the confirmation prompt")

	devicesCmd.AddCommand(devicesAssignCmd)
	rootCmd.AddCommand(devicesCmd)
}
