package indexer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("indexer: k must be positive")
	// ErrReadOnly is returned by Insert on a tree loaded from file.
	ErrReadOnly = errors.New("indexer: index is read-only")
	// ErrDuplicateID is returned by Flat.Insert when the id is already present.
	ErrDuplicateID = errors.New("indexer: duplicate id")
	// ErrCorruptFile is returned when a persisted index cannot be parsed.
	ErrCorruptFile = errors.New("indexer: corrupt index file")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("indexer: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("indexer: invalid dimension: %d", e.Dimension)
}

// ErrInvalidMetric indicates an unsupported metric name or value.
type ErrInvalidMetric struct {
	Name string
}

func (e *ErrInvalidMetric) Error() string {
	return fmt.Sprintf("indexer: invalid metric %q", e.Name)
}

func checkDim(expected int, v []float32) error {
	if len(v) != expected {
		return &ErrDimensionMismatch{Expected: expected, Actual: len(v)}
	}
	return nil
}
