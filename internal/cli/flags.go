package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/zenctl/internal/errors"
)

// ParseWaitTimeout parses a --wait-timeout value into a duration.
// Returns zero duration, meaning no limit, if the flag is empty.
func ParseWaitTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(flag)
	if err != nil || duration < 0 {
		if err == nil {
			err = fmt.Errorf("negative duration %s", flag)
		}
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid timeout", flag),
			"Try something like 30s, 2m, or 500ms.")
	}
	return duration, nil
}

// ParseOnOff reads the on|off argument of 'daemons autostart'.
func ParseOnOff(arg string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "on", "true", "yes", "enable":
		return true, nil
	case "off", "false", "no", "disable":
		return false, nil
	}
	return false, errors.New(errors.ErrConfig,
		fmt.Sprintf("'%s' is not on or off", arg),
		"Use 'zenctl daemons autostart on <uid>...' or 'off'.")
}
