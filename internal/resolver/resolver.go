package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"envcheck/internal/schema"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Options controls where raw values are loaded from
type Options struct {
	Dir      string   // directory holding the .env files
	Mode     string   // selects .env.<mode> and .env.<mode>.local
	Prefixes []string // only names with one of these prefixes are kept
	Declared []string // names kept regardless of Prefixes
	Environ  []string // process environment ("KEY=VALUE"), overrides files
}

// Result holds the raw environment map and where it came from
type Result struct {
	Env   schema.Env
	Files []string // env files actually read, in load order
}

// Resolve loads the env files for opts.Mode from opts.Dir, later files
// overriding earlier ones, then applies the process environment on top.
// Missing files are skipped.
func Resolve(opts Options) (Result, error) {
	names, err := EnvFiles(opts.Mode)
	if err != nil {
		return Result{}, err
	}

	merged := make(map[string]string)
	var files []string
	for _, name := range names {
		path := filepath.Join(opts.Dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Result{}, errors.Wrapf(err, "failed to stat %s", path)
		}
		if info.IsDir() {
			continue
		}

		values, err := godotenv.Read(path)
		if err != nil {
			return Result{}, errors.Wrapf(err, "failed to load %s", path)
		}
		for k, v := range values {
			merged[k] = v
		}
		files = append(files, path)
	}

	for k, v := range ParseEnviron(opts.Environ) {
		merged[k] = v
	}

	declared := make(map[string]bool, len(opts.Declared))
	for _, name := range opts.Declared {
		declared[name] = true
	}

	env := make(schema.Env)
	for k, v := range merged {
		if declared[k] || HasPrefix(k, opts.Prefixes) {
			env[k] = v
		}
	}

	return Result{Env: env, Files: files}, nil
}

// ParseEnviron converts an environ slice (["KEY=VALUE", ...]) into a map.
// Handles edge cases like empty values ("KEY=") and values containing "=" ("KEY=a=b").
func ParseEnviron(environ []string) map[string]string {
	result := make(map[string]string)
	for _, entry := range environ {
		// Split on first "=" only - values can contain "="
		idx := strings.Index(entry, "=")
		if idx <= 0 {
			// No key, skip malformed entry
			continue
		}
		result[entry[:idx]] = entry[idx+1:]
	}
	return result
}

// Lookup returns the value of name in an environ slice
func Lookup(environ []string, name string) (string, bool) {
	prefix := name + "="
	for _, env := range environ {
		if strings.HasPrefix(env, prefix) {
			return strings.TrimPrefix(env, prefix), true
		}
	}
	return "", false
}
