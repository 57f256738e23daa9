package cli

import (
	"os"

	"github.com/rileyhilliard/zenctl/internal/console"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/logger"
	"github.com/rileyhilliard/zenctl/internal/ui"
	"github.com/spf13/cobra"
)

var consoleSelect string

var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"ui", "tui"},
	Short:   "Open the interactive console",
	Long: `Open the interactive console.

The Daemons view shows the daemon tree. Mark rows with space, then start
(s), stop (x), restart (r) or toggle auto-start (e). The Discoveries view
(tab) lists discovery jobs; n opens the discovery wizard.

Press ? inside the console for every shortcut.

Examples:
  zenctl console
  zenctl console --select zenping`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if machineMode {
			return errors.New(errors.ErrExec,
				"The console can't run with --json",
				"Use 'zenctl daemons list --json' for machine output.")
		}
		if !ui.IsTerminal(os.Stdout) {
			return errors.New(errors.ErrExec,
				"The console needs a terminal",
				"Use 'zenctl daemons list' when piping output.")
		}

		s, err := loadSession(os.Stdout)
		if err != nil {
			return err
		}

		// The alternate screen owns the terminal; only debug logs go out.
		log := logger.Noop()
		if verbose {
			log = s.log
		}
		m := console.NewModel(s.svc, console.Options{
			Config: s.cfg,
			Select: consoleSelect,
			Log:    log,
		})
		return console.Run(cmd.Context(), m)
	},
}

func init() {
	consoleCmd.Flags().StringVar(&consoleSelect, "select", "", "daemon id to open in the details panel")
	rootCmd.AddCommand(consoleCmd)
}
