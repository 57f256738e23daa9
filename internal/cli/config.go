package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rileyhilliard/zenctl/internal/config"
	"github.com/rileyhilliard/zenctl/internal/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// settableKeys are the scalar keys 'config set' may write.
var settableKeys = map[string]bool{
	"url":              true,
	"username":         true,
	"password":         true,
	"timeout":          true,
	"poll_interval":    true,
	"refresh_interval": true,
	"root_node":        true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the zenctl config",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved config, environment overrides included",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return err
		}
		return writeConfig(cmd.OutOrStdout(), cfg, path)
	},
}

func writeConfig(w io.Writer, cfg *config.Config, path string) error {
	shown := *cfg
	if shown.Password != "" {
		shown.Password = "********"
	}
	if machineMode {
		return WriteJSONSuccess(w, map[string]interface{}{"path": path, "config": shown})
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Can't render the config", "")
	}
	if path == "" {
		path = "(defaults, no config file found)"
	}
	fmt.Fprintf(w, "# %s\n%s", path, data)
	return nil
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a top-level key in the config file",
	Long: `Set a top-level key in the config file, keeping comments and layout.

Keys: ` + strings.Join(sortedKeys(settableKeys), ", ") + `

Examples:
  zenctl config set url https://zenoss.example.com
  zenctl config set poll_interval 2s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if !settableKeys[key] {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("'%s' can't be set from the command line", key),
				"Settable keys: "+strings.Join(sortedKeys(settableKeys), ", "))
		}

		path, err := config.Find(cfgFile)
		if err != nil {
			return err
		}
		if path == "" {
			return errors.New(errors.ErrConfig,
				"No config file found",
				"Run 'zenctl init' first.")
		}
		if err := config.SetValue(path, key, value); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to update "+path, "")
		}

		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		if machineMode {
			return WriteJSONSuccess(cmd.OutOrStdout(), map[string]string{"path": path, "key": key})
		}
		printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Set %s in %s", key, path))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file zenctl would use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Find(cfgFile)
		if err != nil {
			return err
		}
		if machineMode {
			return WriteJSONSuccess(cmd.OutOrStdout(), map[string]string{"path": path})
		}
		if path == "" {
			printWarning(cmd.OutOrStdout(), "No config file found. Run 'zenctl init' to create one.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
