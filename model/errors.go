package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks malformed call shapes: query, restriction or
	// exclusion tables with the wrong columns, invalid top-k and the like.
	ErrConfiguration = errors.New("configuration error")

	// ErrSchema marks columns that are unknown to the model or used in the
	// wrong role at query time.
	ErrSchema = errors.New("schema error")

	// ErrDimensionality marks feature or factor length mismatches raised by
	// scoring collaborators.
	ErrDimensionality = errors.New("dimensionality error")

	// ErrCanceled is returned when a call observed cooperative cancellation.
	ErrCanceled = errors.New("canceled")
)

// ConfigurationError describes a malformed call shape.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// Configurationf returns a ConfigurationError with a formatted reason.
func Configurationf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// SchemaError describes a column that cannot be used at query time.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: column %q %s", e.Column, e.Reason)
}

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// DimensionalityError indicates a vector length mismatch.
type DimensionalityError struct {
	What     string
	Expected int
	Actual   int
}

// NewDimensionalityError returns a DimensionalityError for the named quantity.
func NewDimensionalityError(what string, expected, actual int) *DimensionalityError {
	return &DimensionalityError{What: what, Expected: expected, Actual: actual}
}

func (e *DimensionalityError) Error() string {
	if e.What == "" {
		return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s dimension mismatch: expected %d, got %d", e.What, e.Expected, e.Actual)
}

// Is reports whether target is ErrDimensionality.
func (e *DimensionalityError) Is(target error) bool { return target == ErrDimensionality }

// CancellationError is returned when a call stops at a query boundary because
// its context was canceled. No partial output accompanies it.
//
// The context error can be accessed via errors.Unwrap.
type CancellationError struct {
	Completed uint64
	Total     int
	cause     error
}

// NewCancellationError wraps the context error observed after completed of
// total queries.
func NewCancellationError(completed uint64, total int, cause error) *CancellationError {
	return &CancellationError{Completed: completed, Total: total, cause: cause}
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("canceled after %d/%d queries: %v", e.Completed, e.Total, e.cause)
}

// Is reports whether target is ErrCanceled.
func (e *CancellationError) Is(target error) bool { return target == ErrCanceled }

func (e *CancellationError) Unwrap() error { return e.cause }
