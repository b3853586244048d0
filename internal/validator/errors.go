package validator

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds, matched with errors.Is against a ValidationError or Errors
var (
	ErrMissingRequired = errors.New("missing required value")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrUnknownType     = errors.New("unknown variable type")
	ErrDisallowedValue = errors.New("value not allowed")
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Variable string // The environment variable name (e.g., "VITE_PORT")
	Reason   string // Human-readable reason
	Kind     error  // One of the Err* kinds above
	Value    any    // The offending value, nil for missing values
	Allowed  []any  // For disallowed values, the de-duplicated allow-list
}

func (e ValidationError) Error() string {
	return FormatError(e)
}

func (e ValidationError) Unwrap() error {
	return e.Kind
}

// Errors is the aggregated failure of a validation pass, in discovery order
type Errors []ValidationError

func (errs Errors) Error() string {
	blocks := make([]string, len(errs))
	for i, err := range errs {
		blocks[i] = fmt.Sprintf("Variable: %s\nReason: %s", err.Variable, err.Reason)
	}
	return "environment validation failed:\n\n" + strings.Join(blocks, "\n\n")
}

func (errs Errors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, err := range errs {
		out[i] = err
	}
	return out
}

// Variables returns the names of the failing variables, one per violation
func (errs Errors) Variables() []string {
	names := make([]string, len(errs))
	for i, err := range errs {
		names[i] = err.Variable
	}
	return names
}

// FormatError formats a ValidationError as a single line: "{variable}: {reason}"
func FormatError(err ValidationError) string {
	return fmt.Sprintf("%s: %s", err.Variable, err.Reason)
}

// FormatErrors formats all validation errors into a slice of human-readable messages.
func FormatErrors(errs []ValidationError) []string {
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = FormatError(err)
	}
	return messages
}
