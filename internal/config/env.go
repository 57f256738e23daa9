package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/rileyhilliard/zenctl/internal/errors"
)

// EnvOverrides are read from the environment and win over the config file.
// They keep credentials out of .zenctl.yaml on shared machines.
type EnvOverrides struct {
	URL      string `env:"ZENCTL_URL"`
	Username string `env:"ZENCTL_USERNAME"`
	Password string `env:"ZENCTL_PASSWORD"`
}

// ApplyEnv parses EnvOverrides and copies every set value into cfg.
func ApplyEnv(cfg *Config) error {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't read ZENCTL_* environment variables",
			"Unset the variable or fix its value.")
	}
	if o.URL != "" {
		cfg.URL = o.URL
	}
	if o.Username != "" {
		cfg.Username = o.Username
	}
	if o.Password != "" {
		cfg.Password = o.Password
	}
	return nil
}
