package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .zenctl.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// URL is the base address of the monitoring console, e.g. https://zenoss.example.com.
	URL string `yaml:"url" mapstructure:"url"`

	// Username and Password are sent as HTTP basic credentials when set.
	Username string `yaml:"username,omitempty" mapstructure:"username"`
	Password string `yaml:"password,omitempty" mapstructure:"password"`

	// Timeout bounds a single router call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// PollInterval is the delay between restart status checks.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// RefreshInterval is how often the console reconciles the daemon tree.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// RootNode is the id of the daemon tree root on the server.
	RootNode string `yaml:"root_node" mapstructure:"root_node"`

	// Collectors lists collector names offered by the discovery wizard
	// when the daemon tree can't be read.
	Collectors []string `yaml:"collectors" mapstructure:"collectors"`

	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// Defaults used when the config file leaves a field unset.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultPollInterval    = time.Second
	DefaultRefreshInterval = 10 * time.Second
	DefaultRootNode        = "root"
	DefaultCollector       = "localhost"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:         CurrentConfigVersion,
		Timeout:         DefaultTimeout,
		PollInterval:    DefaultPollInterval,
		RefreshInterval: DefaultRefreshInterval,
		RootNode:        DefaultRootNode,
		Collectors:      []string{DefaultCollector},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}
