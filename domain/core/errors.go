package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrLoad = errors.New("dataset load failed")

	// Schema errors
	ErrMissingColumn   = errors.New("missing column")
	ErrColumnType      = errors.New("unexpected column type")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrShapeMismatch   = errors.New("column length mismatch")

	// Argument errors
	ErrInvalidArgument = errors.New("invalid argument")

	// Model fitting errors
	ErrComputation      = errors.New("statistical computation failed")
	ErrInsufficientData = fmt.Errorf("%w: insufficient data", ErrComputation)
	ErrSingularDesign   = fmt.Errorf("%w: singular design matrix", ErrComputation)
)

// ComputationError describes a model that could not be fit. Combination
// names the factor levels involved, when the failure is tied to one.
type ComputationError struct {
	Test        string
	Reason      string
	Combination []string
	Cause       error
}

func (e *ComputationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Test)
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.Combination) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Combination, ", "))
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the computation sentinel and the cause
func (e *ComputationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrComputation, e.Cause}
	}
	return []error{ErrComputation}
}

// Error constructors with context
func NewLoadError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
}

func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrMissingColumn, column)
}

func NewColumnTypeError(column, want string) error {
	return fmt.Errorf("%w: %q is not %s", ErrColumnType, column, want)
}

func NewInvalidArgumentError(name string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, name, reason)
}

func NewComputationError(test, reason string, combination ...string) *ComputationError {
	return &ComputationError{Test: test, Reason: reason, Combination: combination}
}

// Error checking helpers
func IsLoadError(err error) bool {
	return errors.Is(err, ErrLoad)
}

func IsComputationError(err error) bool {
	return errors.Is(err, ErrComputation)
}

