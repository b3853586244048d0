package schema

import (
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Feature: envcheck, Property 1: Schema Round-Trip
// For any valid schema, serializing to YAML and parsing back SHALL produce
// the same schema, including declaration order.
func TestProperty1_SchemaRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genType := gen.OneConstOf(TypeString, TypeNumber, TypeBoolean)

	genPrimitive := gen.OneGenOf(
		gen.AlphaString().Map(func(s string) *gopter.GenResult { return anyResult(s) }),
		gen.IntRange(-1000, 1000).Map(func(i int) *gopter.GenResult { return anyResult(float64(i)) }),
		gen.Bool().Map(func(b bool) *gopter.GenResult { return anyResult(b) }),
	)

	genVariable := gopter.CombineGens(
		genType,
		gen.Bool(),
		gen.SliceOfN(2, gen.OneConstOf("development", "production", "test")),
		gen.Bool(),
		gen.AlphaString(),
		genPrimitive,
		gen.Bool(),
		gen.SliceOfN(3, genPrimitive),
	).Map(func(vals []interface{}) Variable {
		v := Variable{
			Type:     vals[0].(VarType),
			Required: vals[1].(bool),
			Message:  vals[4].(string),
		}
		if vals[3].(bool) {
			v.Environments = vals[2].([]string)
		}
		if vals[6].(bool) {
			v.Default = vals[5]
			v.HasDefault = true
		}
		if allowed := vals[7].([]any); len(allowed) > 0 {
			v.Allowed = allowed
		}
		return v
	})

	genSchema := gen.SliceOfN(4, genVariable).Map(func(vars []Variable) Schema {
		s := Schema{Variables: []Variable{}}
		for i, v := range vars {
			// names are deliberately out of alphabetical order
			v.Name = "VITE_" + string(rune('Z'-i))
			s.Variables = append(s.Variables, v)
		}
		return s
	})

	properties.Property("round-trip preserves schema", prop.ForAll(
		func(original Schema) bool {
			yamlBytes, err := original.ToYAML()
			if err != nil {
				t.Logf("ToYAML failed: %v", err)
				return false
			}

			parsed, err := ParseSchema(yamlBytes)
			if err != nil {
				t.Logf("ParseSchema failed: %v\n%s", err, yamlBytes)
				return false
			}

			return reflect.DeepEqual(original, parsed)
		},
		genSchema,
	))

	properties.TestingRun(t)
}

// Feature: envcheck, Property 2: Invalid YAML Produces Parse Error
// For any malformed document, the schema parser SHALL return an error.
func TestProperty2_InvalidYAMLProducesParseError(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	genInvalidYAML := gen.OneGenOf(
		gen.Const([]byte("variables: {unclosed")),
		gen.Const([]byte("variables: [unclosed")),
		gen.Const([]byte("variables:\n  A: x\n B: y")),
		gen.Const([]byte("variables:\n\t\tA: x")),
		gen.Const([]byte("variables: @invalid")),
		gen.Const([]byte("variables: [a, b]")),
		gen.Const([]byte("other: {}")),
		gen.SliceOfN(50, gen.UInt8Range(128, 255)).Map(func(b []uint8) []byte {
			result := make([]byte, len(b))
			for i, v := range b {
				result[i] = byte(v)
			}
			return result
		}),
	)

	properties.Property("invalid YAML produces error", prop.ForAll(
		func(content []byte) bool {
			_, err := ParseSchema(content)
			return err != nil
		},
		genInvalidYAML,
	))

	properties.TestingRun(t)
}

func TestParseSchema_PreservesOrderAndFields(t *testing.T) {
	content := []byte(`variables:
  VITE_BOOLEAN:
    type: boolean
    required: true
    message: VITE_BOOLEAN is required to check booleans.
    allowed: [true, false]
  VITE_API:
    type: string
    required: true
    default: ""
  VITE_PORT:
    type: number
    required: false
    default: 8080
    environments: [production]
    allowed: [80, 8080, 80]
  VITE_NOWHERE:
    type: string
    environments: []
`)

	s, err := ParseSchema(content)
	require.NoError(t, err)
	require.Equal(t, []string{"VITE_BOOLEAN", "VITE_API", "VITE_PORT", "VITE_NOWHERE"}, s.Names())

	b := s.Variables[0]
	assert.Equal(t, TypeBoolean, b.Type)
	assert.True(t, b.Required)
	assert.Equal(t, "VITE_BOOLEAN is required to check booleans.", b.Message)
	assert.Equal(t, []any{true, false}, b.Allowed)
	assert.False(t, b.HasDefault)
	assert.Nil(t, b.Environments)

	api := s.Variables[1]
	assert.True(t, api.HasDefault)
	assert.Equal(t, "", api.Default)

	port := s.Variables[2]
	assert.Equal(t, float64(8080), port.Default)
	assert.Equal(t, []any{float64(80), float64(8080), float64(80)}, port.Allowed)
	assert.Equal(t, []string{"production"}, port.Environments)

	nowhere := s.Variables[3]
	assert.NotNil(t, nowhere.Environments)
	assert.Empty(t, nowhere.Environments)
	assert.False(t, nowhere.AppliesTo("development"))
}

func TestParseSchema_KeepsUnknownType(t *testing.T) {
	s, err := ParseSchema([]byte("variables:\n  VITE_X:\n    type: date\n"))
	require.NoError(t, err)

	v, ok := s.Lookup("VITE_X")
	require.True(t, ok)
	assert.Equal(t, VarType("date"), v.Type)
}

func TestParseSchema_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing section", "other: {}\n"},
		{"variables not mapping", "variables: [A]\n"},
		{"duplicate variable", "variables:\n  A:\n    type: string\n  A:\n    type: number\n"},
		{"entry not mapping", "variables:\n  A: string\n"},
		{"non-scalar default", "variables:\n  A:\n    type: string\n    default: [x]\n"},
		{"non-sequence allowed", "variables:\n  A:\n    type: string\n    allowed: x\n"},
		{"nested allowed item", "variables:\n  A:\n    type: string\n    allowed: [[x]]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestVariable_AppliesTo(t *testing.T) {
	all := Variable{Name: "A"}
	prodOnly := Variable{Name: "B", Environments: []string{"production"}}

	assert.True(t, all.AppliesTo("development"))
	assert.True(t, all.AppliesTo(""))
	assert.True(t, prodOnly.AppliesTo("production"))
	assert.False(t, prodOnly.AppliesTo("development"))
}

func TestIsUndefined(t *testing.T) {
	assert.True(t, IsUndefined(nil))
	assert.True(t, IsUndefined(""))
	assert.False(t, IsUndefined(" "))
	assert.False(t, IsUndefined(false))
	assert.False(t, IsUndefined(float64(0)))
}

func TestLoadSchemaFromPath(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSchema(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	content := "variables:\n  VITE_API:\n    type: string\n    required: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(content), 0644))

	s, err := LoadSchema(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"VITE_API"}, s.Names())
}

// anyResult wraps v in a GenResult typed as interface{}. gopter treats a
// mapper declared to return `any` as returning *GenResult, so mappers that
// produce mixed-type values must build the result explicitly.
func anyResult(v any) *gopter.GenResult {
	return &gopter.GenResult{Result: v, Shrinker: gopter.NoShrinker, ResultType: reflect.TypeOf((*any)(nil)).Elem()}
}
