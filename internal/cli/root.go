package cli

import (
	"fmt"
	"os"

	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/rileyhilliard/zenctl/internal/logger"
	"github.com/rileyhilliard/zenctl/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "zenctl",
	Short: "Operate a monitoring console from the terminal",
	Long: `zenctl talks to a monitoring console over its JSON routers.

It lists daemons and collectors, starts, stops and restarts them, toggles
auto-start, moves devices between collectors and schedules network
discovery. 'zenctl console' opens an interactive view of all of it.

Examples:
  zenctl daemons list
  zenctl daemons restart zenping --wait
  zenctl discover add --ranges 10.0.0.0/24 --snmp public
  zenctl console`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
		ui.ConfigureColor(colorMode(""), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .zenctl.yaml, then ~/.config/zenctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs, including every router call")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "wrap output in a JSON envelope")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// colorMode resolves the color mode: flags win over the configured mode.
func colorMode(configured string) string {
	if noColor || machineMode {
		return ui.ColorNever
	}
	if configured == "" {
		return ui.ColorAuto
	}
	return configured
}

// Execute runs the root command and exits with a non-zero code on failure.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	code, isExit := errors.GetExitCode(err)
	if !isExit {
		code = 1
		if machineMode {
			_ = WriteJSONFromError(os.Stdout, err)
		} else {
			fmt.Fprint(os.Stderr, renderError(err))
		}
	}
	os.Exit(code)
}

// renderError formats err for the terminal. Structured errors already carry
// their own layout.
func renderError(err error) string {
	msg := err.Error()
	if _, ok := err.(*errors.Error); !ok {
		msg = ui.SymbolFail + " " + msg + "\n"
	}
	return ui.ErrorStyle().Render(msg)
}
