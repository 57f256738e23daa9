package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config with durations spelled as strings ("30s"),
// which is how people write them by hand.
type fileConfig struct {
	Version         int          `yaml:"version"`
	URL             string       `yaml:"url"`
	Username        string       `yaml:"username,omitempty"`
	Password        string       `yaml:"password,omitempty"`
	Timeout         string       `yaml:"timeout"`
	PollInterval    string       `yaml:"poll_interval"`
	RefreshInterval string       `yaml:"refresh_interval"`
	RootNode        string       `yaml:"root_node"`
	Collectors      []string     `yaml:"collectors"`
	Output          OutputConfig `yaml:"output"`
}

// Save writes cfg to path as YAML, creating parent directories.
// The file is private to the user since it may carry a password.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(fileConfig{
		Version:         cfg.Version,
		URL:             cfg.URL,
		Username:        cfg.Username,
		Password:        cfg.Password,
		Timeout:         cfg.Timeout.String(),
		PollInterval:    cfg.PollInterval.String(),
		RefreshInterval: cfg.RefreshInterval.String(),
		RootNode:        cfg.RootNode,
		Collectors:      cfg.Collectors,
		Output:          cfg.Output,
	})
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// SetValue sets a top-level scalar key in the config file.
// It preserves the existing YAML structure and comments.
func SetValue(configPath, key, value string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	if valueNode := findMapValue(docNode, key); valueNode != nil {
		if valueNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("'%s' is not a scalar value", key)
		}
		valueNode.Value = value
		valueNode.Tag = ""
		valueNode.Style = 0
	} else {
		docNode.Content = append(docNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: value},
		)
	}

	out, err := yaml.Marshal(&root)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(configPath, out, 0o600)
}

// findMapValue returns the value node for key in a mapping node.
func findMapValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
