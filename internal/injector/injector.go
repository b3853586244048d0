package injector

import (
	"sort"
	"strings"

	"envcheck/internal/artifact"
	"envcheck/internal/schema"

	"github.com/pkg/errors"
)

// InjectValues returns a new environ with every validated value rendered
// back to text. Existing entries for the same names are replaced; all other
// entries keep their order. Nil values are not injected.
func InjectValues(values schema.Env, environ []string) []string {
	names := make([]string, 0, len(values))
	for name, value := range values {
		if value != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	replaced := make(map[string]bool, len(names))
	for _, name := range names {
		replaced[name] = true
	}

	result := make([]string, 0, len(environ)+len(names))
	for _, env := range environ {
		if idx := strings.Index(env, "="); idx > 0 && replaced[env[:idx]] {
			continue
		}
		result = append(result, env)
	}
	for _, name := range names {
		result = append(result, name+"="+schema.FormatValue(values[name]))
	}
	return result
}

// InjectArtifact adds the artifact JSON to the environment under varName.
// Any existing entry for varName is dropped.
func InjectArtifact(art artifact.ConfigArtifact, environ []string, varName string) ([]string, error) {
	if varName == "" {
		return nil, errors.New("artifact variable name is empty")
	}

	jsonBytes, err := art.ToJSON()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize artifact")
	}

	result := make([]string, 0, len(environ)+1)
	prefix := varName + "="
	for _, env := range environ {
		if !strings.HasPrefix(env, prefix) {
			result = append(result, env)
		}
	}

	return append(result, prefix+string(jsonBytes)), nil
}
