package flashmat

import (
	"errors"
	"fmt"

	"github.com/hupe1980/flashmat/blobstore"
	"github.com/hupe1980/flashmat/engine"
	"github.com/hupe1980/flashmat/format"
	"github.com/hupe1980/flashmat/matrix"
)

var (
	// ErrClosed is returned when operating on a closed Matrix.
	ErrClosed = errors.New("matrix closed")

	// ErrNotFound is returned when the named matrix does not exist.
	ErrNotFound = errors.New("matrix not found")

	// ErrCorrupt is returned when stored data fails validation.
	ErrCorrupt = errors.New("matrix data corrupt")

	// ErrInvalidOperator is returned for an operator that cannot serve the
	// requested operation.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrFailedBlocks is returned together with a partial result when reads
	// of some row blocks failed.
	ErrFailedBlocks = errors.New("row blocks failed")
)

// ErrDimensionMismatch indicates operands whose shapes do not fit.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrTypeMismatch indicates an operand or operator of the wrong element type.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrTypeMismatch struct {
	Expected matrix.ScalarType
	Actual   matrix.ScalarType
	cause    error
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: expected %v, got %v", e.Expected, e.Actual)
}

func (e *ErrTypeMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, format.ErrChecksumMismatch) ||
		errors.Is(err, format.ErrCorruptBlock) ||
		errors.Is(err, format.ErrInvalidHeader) {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if errors.Is(err, engine.ErrInvalidOperands) {
		return fmt.Errorf("%w: %w", ErrInvalidOperator, err)
	}

	return err
}
