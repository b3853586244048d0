package schema

// VarType is the declared primitive kind of a variable
type VarType string

const (
	TypeString  VarType = "string"
	TypeNumber  VarType = "number"
	TypeBoolean VarType = "boolean"
)

// Env maps variable names to values. Raw values are strings; after
// validation number and boolean variables hold float64 and bool.
type Env map[string]any

// Variable describes a single environment variable requirement
type Variable struct {
	Name         string
	Type         VarType // kept verbatim, unknown types are reported by the validator
	Required     bool
	Environments []string // nil applies to every mode, empty applies to none
	Message      string   // reason reported when a required value is missing
	Default      any
	HasDefault   bool
	Allowed      []any
}

// Schema is the ordered set of variable descriptors
type Schema struct {
	Variables []Variable
}

// AppliesTo reports whether the variable is checked in the given mode.
func (v Variable) AppliesTo(mode string) bool {
	if v.Environments == nil {
		return true
	}
	for _, env := range v.Environments {
		if env == mode {
			return true
		}
	}
	return false
}

// Lookup returns the descriptor for name
func (s Schema) Lookup(name string) (Variable, bool) {
	for _, v := range s.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Names returns variable names in declared order
func (s Schema) Names() []string {
	names := make([]string, len(s.Variables))
	for i, v := range s.Variables {
		names[i] = v.Name
	}
	return names
}

// IsUndefined reports whether a value counts as missing: nil or the empty string.
func IsUndefined(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// Normalize converts numeric values to float64 so they compare equal to
// coerced numbers. Other values are returned unchanged.
func Normalize(value any) any {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case float32:
		return float64(v)
	}
	return value
}
