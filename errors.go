package recgo

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/recgo/internal/resource"
	"github.com/hupe1980/recgo/model"
)

var (
	// ErrConfiguration matches every malformed call shape.
	ErrConfiguration = model.ErrConfiguration
	// ErrSchema matches unknown or misused columns.
	ErrSchema = model.ErrSchema
	// ErrDimensionality matches factor or feature length mismatches.
	ErrDimensionality = model.ErrDimensionality
	// ErrCanceled matches calls stopped by context cancellation.
	ErrCanceled = model.ErrCanceled

	// ErrInvalidTopK is returned when top-k is not positive.
	ErrInvalidTopK = fmt.Errorf("%w: top-k must be positive", ErrConfiguration)
	// ErrInvalidDiversity is returned for a negative or non-finite diversity factor.
	ErrInvalidDiversity = fmt.Errorf("%w: diversity factor must be a finite number >= 0", ErrConfiguration)

	// ErrMemoryLimitExceeded is returned when the output estimate of a call
	// does not fit the configured memory limit.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

type (
	// ConfigurationError describes a malformed call shape.
	ConfigurationError = model.ConfigurationError
	// SchemaError describes a column that cannot be used at query time.
	SchemaError = model.SchemaError
	// DimensionalityError indicates a vector length mismatch.
	DimensionalityError = model.DimensionalityError
	// CancellationError is returned when a call observed cancellation.
	CancellationError = model.CancellationError
)

// translateError maps a worker error to the public taxonomy. Context errors
// become CancellationErrors; everything else passes unmodified.
func translateError(err error, completed uint64, total int) error {
	if err == nil {
		return nil
	}
	var ce *CancellationError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return model.NewCancellationError(completed, total, err)
	}
	return err
}
