package indexer

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Flat is an exact index: Search scans every stored vector.
// It serves as ground truth for recall and as the reference index in tests.
type Flat struct {
	mu     sync.RWMutex
	dim    int
	metric Metric
	data   []float32
	ids    []uint64
	idSet  *roaring64.Bitmap
}

// NewFlat creates an empty exact index.
func NewFlat(dim int, metric Metric) (*Flat, error) {
	cfg := Config{Dim: dim, Metric: metric}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Flat{dim: dim, metric: metric, idSet: roaring64.New()}, nil
}

// NewFlatFromMatrix wraps n = len(data)/dim row-major vectors with ids 0..n-1.
// data is used in place and must not be modified afterwards.
func NewFlatFromMatrix(data []float32, dim int, metric Metric) (*Flat, error) {
	f, err := NewFlat(dim, metric)
	if err != nil {
		return nil, err
	}
	if len(data)%dim != 0 {
		return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(data) % dim}
	}
	n := len(data) / dim
	f.data = data
	f.ids = make([]uint64, n)
	for i := range f.ids {
		f.ids[i] = uint64(i)
	}
	if n > 0 {
		f.idSet.AddRange(0, uint64(n))
	}
	return f, nil
}

// Insert appends a vector. Safe for concurrent use; duplicate ids are rejected.
func (f *Flat) Insert(vec []float32, id uint64) error {
	if err := checkDim(f.dim, vec); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.idSet.CheckedAdd(id) {
		return ErrDuplicateID
	}
	f.data = append(f.data, vec...)
	f.ids = append(f.ids, id)
	return nil
}

// Search returns the exact k nearest vectors ordered by increasing distance.
// Safe for concurrent use.
func (f *Flat) Search(query []float32, k int) ([]SearchResult, error) {
	if err := checkDim(f.dim, query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := len(f.ids)
	if n == 0 {
		return nil, nil
	}
	bufs := getSearchBufs()
	defer putSearchBufs(bufs)
	bufs.scores = f.metric.batch(bufs.scores, query, f.data, n)
	h := make(resultHeap, 0, min(k, n)+1)
	for i, d := range bufs.scores[:n] {
		h.offer(SearchResult{ID: f.ids[i], Distance: float32(d)}, k)
	}
	return h.drain(), nil
}

// Contains reports whether id has been inserted.
func (f *Flat) Contains(id uint64) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.idSet.Contains(id)
}

// Dim returns the vector dimension.
func (f *Flat) Dim() int {
	return f.dim
}

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}
