package dataset

import (
	"errors"
	"fmt"
	"io"
)

// ErrCardinalityMismatch is returned when a neighbor list does not have the expected size.
var ErrCardinalityMismatch = errors.New("cardinality mismatch")

// GroundTruth maps query index -> true nearest-neighbor ids, closest first.
// Every query has the same number of neighbors.
type GroundTruth struct {
	ids [][]uint64
	k   int
}

// NewGroundTruth validates that every row has the same cardinality.
func NewGroundTruth(ids [][]uint64) (*GroundTruth, error) {
	k := 0
	if len(ids) > 0 {
		k = len(ids[0])
	}
	for q, row := range ids {
		if len(row) != k {
			return nil, fmt.Errorf("dataset: ground truth row %d has %d ids, want %d: %w", q, len(row), k, ErrCardinalityMismatch)
		}
	}
	return &GroundTruth{ids: ids, k: k}, nil
}

// LoadGroundTruth reads an .ivecs ground-truth file.
func LoadGroundTruth(path string) (*GroundTruth, error) {
	var rowsOut [][]uint64
	err := withReader(path, func(r io.Reader) error {
		var err error
		rowsOut, err = ReadIvecs(r, 0)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: load %s: %w", path, err)
	}
	return NewGroundTruth(rowsOut)
}

// Len returns the number of queries.
func (g *GroundTruth) Len() int {
	return len(g.ids)
}

// K returns the stored cardinality per query.
func (g *GroundTruth) K() int {
	return g.k
}

// TopK returns the first k true neighbors of query q.
func (g *GroundTruth) TopK(q, k int) ([]uint64, error) {
	if q < 0 || q >= len(g.ids) {
		return nil, fmt.Errorf("dataset: query %d out of range [0, %d)", q, len(g.ids))
	}
	if k <= 0 || k > g.k {
		return nil, fmt.Errorf("dataset: top-%d of %d stored neighbors: %w", k, g.k, ErrCardinalityMismatch)
	}
	return g.ids[q][:k], nil
}
