package config

import (
	"fmt"
	"strings"
	"time"
)

// DurationField parses an optional duration field from the config. Empty and
// zero values fall back to def, so callers pass their default once instead of
// post-processing the result. path is the config key, used in error text.
func DurationField(path, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q (use Go syntax, e.g. \"30s\" or \"1h15m\"): %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %q", path, raw)
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
