package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde resolves a leading ~ in a config path to the current user's
// home directory. Paths without one, and ~user forms, come back unchanged.
func ExpandTilde(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
