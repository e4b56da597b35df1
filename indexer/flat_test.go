package indexer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlat_Search(t *testing.T) {
	f, err := NewFlat(2, L2)
	require.NoError(t, err)
	pts := [][]float32{{0, 0}, {1, 0}, {0, 2}, {3, 3}}
	for i, p := range pts {
		require.NoError(t, f.Insert(p, uint64(10+i)))
	}
	results, err := f.Search([]float32{0.1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []uint64{10, 11, 12}, []uint64{results[0].ID, results[1].ID, results[2].ID})
	assert.InDelta(t, 0.01, results[0].Distance, 1e-6)

	results, err = f.Search([]float32{3, 3}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.Equal(t, uint64(13), results[0].ID)
}

func TestFlat_TiesBreakByID(t *testing.T) {
	f, err := NewFlat(1, L2)
	require.NoError(t, err)
	for _, id := range []uint64{5, 3, 9, 1} {
		require.NoError(t, f.Insert([]float32{1}, id))
	}
	results, err := f.Search([]float32{0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []SearchResult{{ID: 1, Distance: 1}, {ID: 3, Distance: 1}}, results)
}

func TestFlat_Errors(t *testing.T) {
	_, err := NewFlat(0, L2)
	var dimErr *ErrInvalidDimension
	assert.ErrorAs(t, err, &dimErr)
	_, err = NewFlat(4, Metric(9))
	var metricErr *ErrInvalidMetric
	assert.ErrorAs(t, err, &metricErr)

	f, err := NewFlat(2, L2)
	require.NoError(t, err)
	require.NoError(t, f.Insert([]float32{1, 2}, 7))
	assert.ErrorIs(t, f.Insert([]float32{1, 2}, 7), ErrDuplicateID)
	assert.Equal(t, 1, f.Len())
	assert.True(t, f.Contains(7))
	assert.False(t, f.Contains(8))

	var mismatch *ErrDimensionMismatch
	assert.ErrorAs(t, f.Insert([]float32{1}, 8), &mismatch)
	_, err = f.Search([]float32{1, 2, 3}, 1)
	assert.ErrorAs(t, err, &mismatch)
	_, err = f.Search([]float32{1, 2}, -1)
	assert.ErrorIs(t, err, ErrInvalidK)

	empty, err := NewFlat(2, L2)
	require.NoError(t, err)
	results, err := empty.Search([]float32{0, 0}, 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFlat_FromMatrix(t *testing.T) {
	data := []float32{0, 0, 5, 5, 1, 1}
	f, err := NewFlatFromMatrix(data, 2, L2)
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())
	assert.ErrorIs(t, f.Insert([]float32{9, 9}, 1), ErrDuplicateID)
	require.NoError(t, f.Insert([]float32{9, 9}, 3))

	results, err := f.Search([]float32{1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), results[0].ID)
	assert.Equal(t, uint64(0), results[1].ID)

	_, err = NewFlatFromMatrix([]float32{1, 2, 3}, 2, L2)
	assert.Error(t, err)
}

func TestFlat_InnerProduct(t *testing.T) {
	f, err := NewFlat(2, InnerProduct)
	require.NoError(t, err)
	require.NoError(t, f.Insert([]float32{1, 0}, 0))
	require.NoError(t, f.Insert([]float32{0, 1}, 1))
	results, err := f.Search([]float32{0, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), results[0].ID)
	assert.InDelta(t, 0, results[0].Distance, 1e-6)
	assert.InDelta(t, 1, results[1].Distance, 1e-6)
}

func TestFlat_ConcurrentInsertAndSearch(t *testing.T) {
	const n = 1000
	vecs := randomVectors(n, 8, 3)
	f, err := NewFlat(8, L2)
	require.NoError(t, err)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < n; i += 4 {
				assert.NoError(t, f.Insert(vecs[i], uint64(i)))
				_, err := f.Search(vecs[i], 1)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, n, f.Len())
	results, err := f.Search(vecs[500], 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), results[0].ID)
}
