package validator

import (
	"fmt"
	"strings"

	"envcheck/internal/schema"
)

// Evaluate runs every check for each variable that applies to mode, in
// schema order: required, default, type, allowed. It collects all errors
// rather than stopping at the first one. The input map is not modified; the
// returned map holds the defaulted and coerced values.
func Evaluate(env schema.Env, s schema.Schema, mode string) (schema.Env, []ValidationError) {
	out := make(schema.Env, len(env))
	for k, v := range env {
		out[k] = v
	}

	var errs []ValidationError
	for _, v := range s.Variables {
		if !v.AppliesTo(mode) {
			continue
		}

		value := out[v.Name]

		if err := checkRequired(v, value); err != nil {
			errs = append(errs, *err)
		}

		if schema.IsUndefined(value) && v.HasDefault {
			value = v.Default
			out[v.Name] = value
		}

		if !schema.IsUndefined(value) {
			coerced, err := coerceType(v, value)
			if err != nil {
				errs = append(errs, *err)
			} else {
				value = coerced
				out[v.Name] = value
			}
		}

		if err := checkAllowed(v, value); err != nil {
			errs = append(errs, *err)
		}
	}

	return out, errs
}

// Validate is Evaluate with the errors folded into a single Errors value.
// On failure the returned map is nil.
func Validate(env schema.Env, s schema.Schema, mode string) (schema.Env, error) {
	out, errs := Evaluate(env, s, mode)
	if len(errs) > 0 {
		return nil, Errors(errs)
	}
	return out, nil
}

func checkRequired(v schema.Variable, value any) *ValidationError {
	if !v.Required || !schema.IsUndefined(value) {
		return nil
	}
	// a usable default satisfies the requirement; an empty one does not
	if v.HasDefault && !schema.IsUndefined(v.Default) {
		return nil
	}

	reason := v.Message
	if reason == "" {
		reason = fmt.Sprintf("%s is required", v.Name)
	}
	return &ValidationError{
		Variable: v.Name,
		Reason:   reason,
		Kind:     ErrMissingRequired,
	}
}

// coerceType validates value against the declared type and returns the
// coerced value. Only the literal strings "true" and "false" are booleans;
// numbers accept anything Number() would.
func coerceType(v schema.Variable, value any) (any, *ValidationError) {
	mismatch := func(reason string) (any, *ValidationError) {
		return nil, &ValidationError{
			Variable: v.Name,
			Reason:   reason,
			Kind:     ErrTypeMismatch,
			Value:    value,
		}
	}

	switch v.Type {
	case schema.TypeNumber:
		f, ok := schema.ParseNumber(value)
		if !ok {
			return mismatch(fmt.Sprintf("%s must be a number", v.Name))
		}
		return f, nil

	case schema.TypeString:
		if _, ok := value.(string); !ok {
			return mismatch(fmt.Sprintf("%s must be a string", v.Name))
		}
		return value, nil

	case schema.TypeBoolean:
		switch value {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return mismatch(fmt.Sprintf("%s must be a boolean (true or false)", v.Name))
	}

	return nil, &ValidationError{
		Variable: v.Name,
		Reason:   fmt.Sprintf("unknown variable type: %s", v.Type),
		Kind:     ErrUnknownType,
		Value:    value,
	}
}

func checkAllowed(v schema.Variable, value any) *ValidationError {
	if len(v.Allowed) == 0 || schema.IsUndefined(value) {
		return nil
	}

	allowed := dedupe(v.Allowed)
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}

	rendered := make([]string, len(allowed))
	for i, a := range allowed {
		rendered[i] = schema.FormatValue(a)
	}
	return &ValidationError{
		Variable: v.Name,
		Reason:   fmt.Sprintf("%s must be one of: %s", v.Name, strings.Join(rendered, ", ")),
		Kind:     ErrDisallowedValue,
		Value:    value,
		Allowed:  allowed,
	}
}

// dedupe drops repeated allow-list entries, keeping first occurrences in order
func dedupe(values []any) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		v = schema.Normalize(v)
		seen := false
		for _, o := range out {
			if o == v {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return out
}
