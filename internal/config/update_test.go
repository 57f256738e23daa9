package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.URL = "https://zenoss.example.com"
	cfg.Collectors = []string{"localhost", "dc2"}

	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.URL, loaded.URL)
	assert.Equal(t, cfg.Collectors, loaded.Collectors)
	assert.Equal(t, cfg.PollInterval, loaded.PollInterval)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "poll_interval: 1s")
}

func TestSetValue_ReplacesAndPreservesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := "# console settings\nurl: http://old.example.com # prod\nusername: admin\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	require.NoError(t, SetValue(path, "url", "https://new.example.com"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "# console settings")
	assert.Contains(t, out, "url: https://new.example.com")
	assert.Contains(t, out, "username: admin")
}

func TestSetValue_AppendsMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("url: http://x\n"), 0o600))

	require.NoError(t, SetValue(path, "root_node", "daemons"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "daemons", cfg.RootNode)
}

func TestSetValue_RejectsNonScalar(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("collectors:\n  - localhost\n"), 0o600))

	err := SetValue(path, "collectors", "dc2")
	assert.Error(t, err)
}
