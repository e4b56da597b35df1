package metrics

import (
	"fmt"

	"github.com/ic-timon/annbench/dataset"
	"github.com/ic-timon/annbench/indexer"
)

// ErrCardinalityMismatch is returned when result or ground-truth sizes disagree with k.
var ErrCardinalityMismatch = dataset.ErrCardinalityMismatch

// Recall returns |unique(resultIDs) ∩ truthIDs| / k.
//
// k <= 0 means len(resultIDs). truthIDs must hold exactly k ids and resultIDs at most k;
// otherwise ErrCardinalityMismatch is returned. Order and distances are ignored, and an
// id repeated in resultIDs counts once.
func Recall(resultIDs, truthIDs []uint64, k int) (float64, error) {
	if k <= 0 {
		k = len(resultIDs)
	}
	if k == 0 || len(truthIDs) != k {
		return 0, fmt.Errorf("metrics: recall@%d with %d true neighbors: %w", k, len(truthIDs), ErrCardinalityMismatch)
	}
	if len(resultIDs) > k {
		return 0, fmt.Errorf("metrics: recall@%d with %d results: %w", k, len(resultIDs), ErrCardinalityMismatch)
	}
	truth := make(map[uint64]struct{}, k)
	for _, id := range truthIDs {
		truth[id] = struct{}{}
	}
	hits := 0
	for _, id := range resultIDs {
		if _, ok := truth[id]; ok {
			hits++
			delete(truth, id)
		}
	}
	return float64(hits) / float64(k), nil
}

// IDs extracts result ids in order.
func IDs(results []indexer.SearchResult) []uint64 {
	ids := make([]uint64, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

// MeanRecall averages per-query recall scores. Empty input yields 0.
func MeanRecall(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
