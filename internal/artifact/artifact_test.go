package artifact

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"envcheck/internal/schema"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sha256HashPattern matches a valid sha256: prefixed hex string
var sha256HashPattern = regexp.MustCompile(`^sha256:[a-f0-9]{64}$`)

// validated is a validated env map with the schema that produced it
type validated struct {
	Env    schema.Env
	Schema schema.Schema
}

// genValidated generates a validated env map and a schema covering some of it
func genValidated() gopter.Gen {
	return gen.SliceOfN(5, gopter.CombineGens(
		gen.AlphaString(),
		gen.IntRange(-100, 100),
		gen.Bool(),
		gen.IntRange(0, 3),
	)).Map(func(rows [][]interface{}) validated {
		env := schema.Env{"UNDECLARED": "x"}
		var s schema.Schema
		for i, row := range rows {
			name := "VITE_" + string(rune('A'+i))
			switch row[3].(int) {
			case 0:
				env[name] = row[0].(string)
			case 1:
				env[name] = float64(row[1].(int))
			case 2:
				env[name] = row[2].(bool)
			}
			// case 3 leaves the variable unset
			s.Variables = append(s.Variables, schema.Variable{Name: name, Type: schema.TypeString})
		}
		return validated{Env: env, Schema: s}
	})
}

// Feature: envcheck, Property 11: Artifact Structure Validity
// For any validated map, the artifact SHALL carry a sha256 configVersion and
// exactly the schema-covered values that are set.
func TestArtifactStructureValidity_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("configVersion format and value coverage", prop.ForAll(
		func(in validated) bool {
			art := Generate(in.Env, in.Schema, "development")
			if !sha256HashPattern.MatchString(art.ConfigVersion) {
				return false
			}
			if _, ok := art.Values["UNDECLARED"]; ok {
				return false
			}
			count := 0
			for _, name := range in.Schema.Names() {
				v, ok := in.Env[name]
				if !ok {
					continue
				}
				count++
				if art.Values[name] != v {
					return false
				}
			}
			return len(art.Values) == count
		},
		genValidated(),
	))

	properties.Property("artifact JSON parses back", prop.ForAll(
		func(in validated) bool {
			art := Generate(in.Env, in.Schema, "development")
			data, err := art.ToJSON()
			if err != nil {
				return false
			}
			var parsed map[string]any
			if json.Unmarshal(art.ToCanonicalJSON(), &parsed) != nil {
				return false
			}
			return json.Valid(data) && parsed["configVersion"] == art.ConfigVersion
		},
		genValidated(),
	))

	properties.TestingRun(t)
}

// Feature: envcheck, Property 12: Deterministic Config Version
// The configVersion SHALL depend only on the values, not on map order.
func TestComputeConfigVersion_Deterministic_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("same values same version", prop.ForAll(
		func(keys []string, n int) bool {
			a := make(map[string]any)
			b := make(map[string]any)
			for i, k := range keys {
				a[k] = float64(n + i)
			}
			for i := len(keys) - 1; i >= 0; i-- {
				b[keys[i]] = a[keys[i]]
			}
			return ComputeConfigVersion(a) == ComputeConfigVersion(b)
		},
		gen.SliceOf(gen.Identifier()),
		gen.Int(),
	))

	properties.TestingRun(t)
}

func TestGenerate_ModeAndTypes(t *testing.T) {
	s := schema.Schema{Variables: []schema.Variable{
		{Name: "VITE_PORT", Type: schema.TypeNumber},
		{Name: "VITE_DEBUG", Type: schema.TypeBoolean},
		{Name: "VITE_PROD_ONLY", Type: schema.TypeString, Environments: []string{"production"}},
		{Name: "VITE_LIMIT", Type: schema.TypeNumber},
	}}
	env := schema.Env{
		"VITE_PORT":      float64(8080),
		"VITE_DEBUG":     true,
		"VITE_PROD_ONLY": "ignored in development",
		"VITE_LIMIT":     math.Inf(1),
	}

	art := Generate(env, s, "development")
	assert.Equal(t, "development", art.Mode)
	assert.Equal(t, map[string]any{
		"VITE_PORT":  float64(8080),
		"VITE_DEBUG": true,
		"VITE_LIMIT": "Infinity",
	}, art.Values)

	assert.Equal(t,
		`{"configVersion":"`+art.ConfigVersion+`","mode":"development","values":{"VITE_DEBUG":true,"VITE_LIMIT":"Infinity","VITE_PORT":8080}}`,
		string(art.ToCanonicalJSON()))

	_, err := art.ToJSON()
	assert.NoError(t, err)
}

func TestGenerate_EmptyValues(t *testing.T) {
	art := Generate(schema.Env{}, schema.Schema{}, "test")
	assert.Empty(t, art.Values)
	assert.Equal(t, ComputeConfigVersion(nil), art.ConfigVersion)
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.json")
	art := Generate(schema.Env{"VITE_API": "x"}, schema.Schema{Variables: []schema.Variable{{Name: "VITE_API"}}}, "test")

	require.NoError(t, art.WriteToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var parsed ConfigArtifact
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, art.ConfigVersion, parsed.ConfigVersion)
	assert.Equal(t, "x", parsed.Values["VITE_API"])
}

func TestWriteToFile_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	art := Generate(schema.Env{"VITE_PORT": float64(80)}, schema.Schema{Variables: []schema.Variable{{Name: "VITE_PORT"}}}, "production")
	require.NoError(t, art.WriteToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
