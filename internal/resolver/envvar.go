package resolver

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrReservedMode is returned for the mode "local", which would clash with
// the ".local" override files.
var ErrReservedMode = errors.New(`"local" cannot be used as a mode name`)

// ErrEmptyMode is returned when no mode is given
var ErrEmptyMode = errors.New("mode must not be empty")

// EnvFiles returns the env file names read for a mode, lowest priority first.
// e.g., "production" -> .env, .env.local, .env.production, .env.production.local
func EnvFiles(mode string) ([]string, error) {
	if mode == "" {
		return nil, ErrEmptyMode
	}
	if mode == "local" {
		return nil, ErrReservedMode
	}
	return []string{
		".env",
		".env.local",
		".env." + mode,
		".env." + mode + ".local",
	}, nil
}

// HasPrefix reports whether name starts with one of prefixes. An empty list,
// or an empty prefix, matches every name.
func HasPrefix(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
