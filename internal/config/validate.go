package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/rileyhilliard/zenctl/internal/errors"
)

// Minimum intervals so a typo can't hammer the console.
const (
	MinPollInterval    = 250 * time.Millisecond
	MinRefreshInterval = time.Second
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but zenctl only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade zenctl.")
	}

	if err := validateURL(cfg.URL); err != nil {
		return err
	}

	if cfg.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			"timeout must be positive",
			"Set 'timeout' to something like 30s.")
	}

	if cfg.PollInterval < MinPollInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("poll_interval %s is too short", cfg.PollInterval),
			fmt.Sprintf("Use at least %s.", MinPollInterval))
	}

	if cfg.RefreshInterval < MinRefreshInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("refresh_interval %s is too short", cfg.RefreshInterval),
			fmt.Sprintf("Use at least %s.", MinRefreshInterval))
	}

	if cfg.RootNode == "" {
		return errors.New(errors.ErrConfig,
			"root_node can't be empty",
			fmt.Sprintf("Remove the key to use the default '%s'.", DefaultRootNode))
	}

	switch cfg.Output.Color {
	case "", "auto", "always", "never":
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown output.color '%s'", cfg.Output.Color),
			"Use one of: auto, always, never.")
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New(errors.ErrConfig,
			"No console url configured",
			"Run 'zenctl init' or set ZENCTL_URL.")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a valid url", raw),
			"Use something like https://zenoss.example.com")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("url '%s' needs an http or https scheme", raw),
			"Use something like https://zenoss.example.com")
	}
	if u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("url '%s' has no host", raw),
			"Use something like https://zenoss.example.com")
	}
	return nil
}
