// Package gperr defines the error categories shared by every package of the
// module. Package-specific sentinels wrap exactly one category, so callers can
// match either the precise failure or its category with errors.Is.
package gperr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParameter reports a required field or argument that is absent.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidParameter reports a value that is present but violates a constraint.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnknownType reports an unrecognized function or spec type.
	ErrUnknownType = errors.New("unknown type")

	// ErrIndexOutOfRange reports an index outside the valid bounds.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnsupportedInput reports an input kind the engine does not handle.
	ErrUnsupportedInput = errors.New("unsupported input")

	// ErrNumericalFailure reports a numerical routine that could not produce a result.
	ErrNumericalFailure = errors.New("numerical failure")
)

// New returns a sentinel with the given message that wraps category.
func New(msg string, category error) error {
	return fmt.Errorf("%s: %w", msg, category)
}

// DimensionError represents a shape mismatch between operands.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Err      error
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: expected size %d, got %d: %v", e.Op, e.Expected, e.Got, e.Err)
}

func (e *DimensionError) Unwrap() error {
	return e.Err
}
