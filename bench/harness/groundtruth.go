package harness

import (
	"fmt"

	"github.com/ic-timon/annbench/bench/metrics"
	"github.com/ic-timon/annbench/dataset"
	"github.com/ic-timon/annbench/indexer"
	"github.com/ic-timon/annbench/parallel"
)

// ExactGroundTruth computes the exact k nearest corpus rows of every query by brute force,
// spreading the queries over threads workers. Corpus row i has id i.
func ExactGroundTruth(corpus, queries *dataset.Matrix, k int, metric indexer.Metric, threads int) (*dataset.GroundTruth, error) {
	if k <= 0 {
		return nil, indexer.ErrInvalidK
	}
	if k > corpus.N {
		return nil, fmt.Errorf("harness: ground truth top-%d of %d vectors: %w", k, corpus.N, dataset.ErrCardinalityMismatch)
	}
	flat, err := indexer.NewFlatFromMatrix(corpus.Data, corpus.Dim, metric)
	if err != nil {
		return nil, err
	}
	if err := checkDims(flat, queries); err != nil {
		return nil, err
	}
	rows := make([][]uint64, queries.N)
	err = parallel.For(0, queries.N, threads, func(q, _ int) error {
		res, err := flat.Search(queries.Row(q), k)
		if err != nil {
			return err
		}
		rows[q] = metrics.IDs(res)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("harness: ground truth: %w", err)
	}
	return dataset.NewGroundTruth(rows)
}
