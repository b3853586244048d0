package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"

	"envcheck/internal/schema"
)

// ConfigArtifact is the typed result of a successful validation
type ConfigArtifact struct {
	ConfigVersion string         `json:"configVersion"` // sha256:hex
	Mode          string         `json:"mode"`
	Values        map[string]any `json:"values"`
}

// Generate creates a config artifact from a validated environment map.
// Only schema-covered variables that applied to mode and hold a value are
// included. Non-finite numbers are kept in their text form since JSON
// cannot represent them.
func Generate(env schema.Env, s schema.Schema, mode string) ConfigArtifact {
	values := make(map[string]any)
	for _, v := range s.Variables {
		if !v.AppliesTo(mode) {
			continue
		}
		value, ok := env[v.Name]
		if !ok || value == nil {
			continue
		}
		if f, isFloat := value.(float64); isFloat && (math.IsInf(f, 0) || math.IsNaN(f)) {
			value = schema.FormatValue(f)
		}
		values[v.Name] = value
	}

	return ConfigArtifact{
		ConfigVersion: ComputeConfigVersion(values),
		Mode:          mode,
		Values:        values,
	}
}

// ComputeConfigVersion computes the SHA-256 hash of the values in canonical form.
// Returns the hash prefixed with "sha256:".
func ComputeConfigVersion(values map[string]any) string {
	canonical := canonicalValuesJSON(values)
	hash := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// ToCanonicalJSON serializes the artifact to canonical JSON (sorted keys, no whitespace).
func (a ConfigArtifact) ToCanonicalJSON() []byte {
	configVersionJSON, _ := json.Marshal(a.ConfigVersion)
	modeJSON, _ := json.Marshal(a.Mode)

	result := []byte(`{"configVersion":`)
	result = append(result, configVersionJSON...)
	result = append(result, `,"mode":`...)
	result = append(result, modeJSON...)
	result = append(result, `,"values":`...)
	result = append(result, canonicalValuesJSON(a.Values)...)
	result = append(result, '}')
	return result
}

// ToJSON serializes the artifact to pretty-printed JSON for human readability.
func (a ConfigArtifact) ToJSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// canonicalValuesJSON produces canonical JSON for just the values map.
// Keys are sorted alphabetically, no whitespace.
func canonicalValuesJSON(values map[string]any) []byte {
	if len(values) == 0 {
		return []byte("{}")
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyJSON, _ := json.Marshal(k)
		valueJSON, err := json.Marshal(values[k])
		if err != nil {
			valueJSON, _ = json.Marshal(schema.FormatValue(values[k]))
		}
		result = append(result, keyJSON...)
		result = append(result, ':')
		result = append(result, valueJSON...)
	}
	result = append(result, '}')
	return result
}
