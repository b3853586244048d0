// Package scaffold adds new variables to a project: a line in an env file and
// a descriptor at the top of the schema.
package scaffold

import (
	"regexp"
	"strings"

	"envcheck/internal/schema"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// DefaultPrefix is the name prefix new variables must carry
const DefaultPrefix = "VITE_"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// envname checks Name against ^<Prefix>[A-Z_]+$ using the sibling Prefix field.
	mustRegister(v, "envname", func(fl validator.FieldLevel) bool {
		prefix := fl.Parent().FieldByName("Prefix").String()
		pattern := "^" + regexp.QuoteMeta(prefix) + "[A-Z_]+$"
		matched, err := regexp.MatchString(pattern, fl.Field().String())
		return err == nil && matched
	})
	// singleline keeps text written into env files on one line.
	mustRegister(v, "singleline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(errors.Wrapf(err, "register %s validation", tag))
	}
}

// Entry is one variable to scaffold
type Entry struct {
	Prefix      string
	Name        string `validate:"required,envname"`
	Value       string `validate:"singleline"`
	Description string `validate:"required,singleline"`
	Type        string `validate:"required,oneof=string number boolean"`
	Required    bool
	Default     string `validate:"singleline"`
	HasDefault  bool
	Allowed     []string `validate:"dive,required,singleline"`
	EnvFile     string   `validate:"required,startswith=.env,excludes=/"`
}

// Validate checks the entry fields
func (e Entry) Validate() error {
	if err := validate.Struct(e); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return errors.Wrapf(err, "invalid %s", strings.ToLower(fieldErrs[0].Field()))
		}
		return err
	}
	return nil
}

// Variable builds the schema descriptor for the entry. String variables
// always get a default, other types only when one was given.
func (e Entry) Variable() (schema.Variable, error) {
	v := schema.Variable{
		Name:     e.Name,
		Type:     schema.VarType(e.Type),
		Required: e.Required,
		Message:  e.Name + " is required for " + e.Description + ".",
	}

	if e.Type == string(schema.TypeString) || e.HasDefault {
		value, err := parseDefault(e.Type, e.Default)
		if err != nil {
			return schema.Variable{}, errors.Wrap(err, "default")
		}
		v.Default = value
		v.HasDefault = true
	}

	for _, raw := range e.Allowed {
		value, err := parseAllowed(e.Type, strings.TrimSpace(raw))
		if err != nil {
			return schema.Variable{}, errors.Wrap(err, "allowed")
		}
		v.Allowed = append(v.Allowed, value)
	}
	return v, nil
}

// parseDefault turns raw into a default for typ. Boolean defaults stay text:
// they go through coercion like a raw env value.
func parseDefault(typ, raw string) (any, error) {
	switch schema.VarType(typ) {
	case schema.TypeNumber:
		return parseNumber(raw)
	case schema.TypeBoolean:
		if _, err := parseBool(raw); err != nil {
			return nil, err
		}
		return raw, nil
	default:
		return raw, nil
	}
}

// parseAllowed turns raw into an allow-list entry for typ. Entries are
// compared against coerced values, so booleans become bool.
func parseAllowed(typ, raw string) (any, error) {
	switch schema.VarType(typ) {
	case schema.TypeNumber:
		return parseNumber(raw)
	case schema.TypeBoolean:
		return parseBool(raw)
	default:
		return raw, nil
	}
}

func parseNumber(raw string) (any, error) {
	n, ok := schema.ParseNumber(raw)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, errors.Errorf("%q is not a number", raw)
	}
	return n, nil
}

func parseBool(raw string) (bool, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, errors.Errorf("%q is not true or false", raw)
}
