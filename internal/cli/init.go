package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/zenctl/internal/config"
	"github.com/rileyhilliard/zenctl/internal/discovery"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/spf13/cobra"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	URL            string // Pre-specified console url
	Username       string
	Collectors     []string
	Global         bool // Write ~/.config/zenctl/config.yaml instead of ./.zenctl.yaml
	Overwrite      bool // Overwrite existing config without asking
	NonInteractive bool // Skip prompts, use flags and defaults
}

var initOpts InitOptions

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a zenctl config file",
	Long: `Create a .zenctl.yaml config file in the current directory, or the
global ~/.config/zenctl/config.yaml with --global.

The password is better kept in ZENCTL_PASSWORD than in the file.

Examples:
  zenctl init
  zenctl init --url https://zenoss.example.com --username admin --non-interactive
  zenctl init --global`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := initOpts
		if !interactive() {
			opts.NonInteractive = true
		}
		path, err := Init(opts)
		if err != nil || path == "" {
			return err
		}
		if machineMode {
			return WriteJSONSuccess(cmd.OutOrStdout(), map[string]string{"path": path})
		}
		printSuccess(cmd.OutOrStdout(), "Wrote "+path)
		return nil
	},
}

// initPrompt asks for the fields of cfg. Tests override it.
var initPrompt = func(cfg *config.Config) error {
	collectors := strings.Join(cfg.Collectors, ", ")
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Console url").
				Description("Base address of the monitoring console").
				Placeholder("https://zenoss.example.com").
				Value(&cfg.URL).
				Validate(func(s string) error {
					probe := config.DefaultConfig()
					probe.URL = strings.TrimSpace(s)
					if err := config.Validate(probe); err != nil {
						return fmt.Errorf("%s", errors.Short(err))
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Username (optional)").
				Placeholder("admin").
				Value(&cfg.Username),
			huh.NewInput().
				Title("Password (optional)").
				Description("Leave empty and set ZENCTL_PASSWORD instead").
				EchoMode(huh.EchoModePassword).
				Value(&cfg.Password),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Collectors").
				Description("Offered by the discovery wizard when the daemon tree can't be read").
				Value(&collectors),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	if names := discovery.SplitInput(collectors); len(names) > 0 {
		cfg.Collectors = names
	}
	return nil
}

// confirmOverwrite asks before replacing an existing file. Tests override it.
var confirmOverwrite = func(path string) (bool, error) {
	var overwrite bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", path)).
				Value(&overwrite),
		),
	).Run()
	return overwrite, err
}

// Init writes a new config file and returns its path. An empty path means
// the user backed out.
func Init(opts InitOptions) (string, error) {
	path := filepath.Join(".", config.ConfigFileName)
	if opts.Global {
		p, err := config.GlobalConfigPath()
		if err != nil {
			return "", err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return "", errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}
		overwrite, err := confirmOverwrite(path)
		if err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return "", nil
		}
	}

	cfg := config.DefaultConfig()
	cfg.URL = opts.URL
	cfg.Username = opts.Username
	if len(opts.Collectors) > 0 {
		cfg.Collectors = opts.Collectors
	}

	if !opts.NonInteractive {
		if err := initPrompt(cfg); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Pass --url and --non-interactive to skip the prompts")
		}
	}

	if err := config.Validate(cfg); err != nil {
		return "", err
	}
	if err := config.Save(path, cfg); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+path,
			"Check you can write to that directory.")
	}
	return path, nil
}

func init() {
	initCmd.Flags().StringVar(&initOpts.URL, "url", "", "console url, e.g. https://zenoss.example.com")
	initCmd.Flags().StringVar(&initOpts.Username, "username", "", "console username")
	initCmd.Flags().StringSliceVar(&initOpts.Collectors, "collectors", nil, "collector names offered by the wizard")
	initCmd.Flags().BoolVar(&initOpts.Global, "global", false, "write the global config instead of ./"+config.ConfigFileName)
	initCmd.Flags().BoolVarP(&initOpts.Overwrite, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initOpts.NonInteractive, "non-interactive", false, "skip prompts")
	rootCmd.AddCommand(initCmd)
}
