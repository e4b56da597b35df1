package simd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotProductMatchesScalar(t *testing.T) {
	for _, dim := range []int{1, 3, 4, 7, 8, 17, 128, 960} {
		a := make([]float32, dim)
		b := make([]float32, dim)
		var want float64
		for i := range a {
			a[i] = float32(i%7) - 3
			b[i] = float32(i%5) * 0.5
			want += float64(a[i] * b[i])
		}
		assert.InDelta(t, want, DotProduct(a, b), 1e-3, "dim=%d", dim)
		assert.InDelta(t, want, dotProductGo(a, b), 1e-3, "dim=%d", dim)
	}
}

func TestSquaredL2MatchesScalar(t *testing.T) {
	for _, dim := range []int{1, 5, 8, 9, 64, 513} {
		a := make([]float32, dim)
		b := make([]float32, dim)
		var want float64
		for i := range a {
			a[i] = float32(i) * 0.25
			b[i] = float32(dim-i) * 0.125
			d := float64(a[i] - b[i])
			want += d * d
		}
		assert.InEpsilon(t, want, SquaredL2(a, b), 1e-4, "dim=%d", dim)
		assert.InEpsilon(t, want, squaredL2Go(a, b), 1e-4, "dim=%d", dim)
	}
}

func TestKernelsRejectMismatchedLengths(t *testing.T) {
	assert.Zero(t, DotProduct([]float32{1, 2}, []float32{1}))
	assert.Zero(t, SquaredL2(nil, nil))
}

func TestBatchFlat(t *testing.T) {
	q := []float32{1, 0, 0}
	data := []float32{
		1, 0, 0,
		0, 1, 0,
		2, 0, 0,
	}
	dots := DotProductBatchFlat(nil, q, data, 3)
	require.Len(t, dots, 3)
	assert.Equal(t, []float64{1, 0, 2}, dots)

	l2 := SquaredL2BatchFlat(make([]float64, 0, 1), q, data, 3)
	assert.Equal(t, []float64{0, 2, 1}, l2)

	assert.Empty(t, DotProductBatchFlat(nil, q, data, 4), "short data")
}

func TestNormalize(t *testing.T) {
	src := []float32{3, 4}
	dst := make([]float32, 2)
	Normalize(dst, src)
	assert.InDelta(t, 0.6, dst[0], 1e-6)
	assert.InDelta(t, 0.8, dst[1], 1e-6)
	assert.InDelta(t, 1.0, math.Sqrt(DotProduct(dst, dst)), 1e-6)

	zero := make([]float32, 4)
	out := make([]float32, 4)
	Normalize(out, zero)
	assert.Equal(t, zero, out)
}
