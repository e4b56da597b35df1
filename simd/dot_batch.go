package simd

import "math"

// DotProductBatchFlat computes dot products of the first n vectors in data with query.
// Layout: data[i*dim:(i+1)*dim] is the i-th vector, dim = len(query).
// Results are written into dst (grown when too small) and returned.
func DotProductBatchFlat(dst []float64, query []float32, data []float32, n int) []float64 {
	dim := len(query)
	if dim == 0 || n <= 0 || len(data) < n*dim {
		return dst[:0]
	}
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = dotProductImpl(query, data[i*dim:(i+1)*dim])
	}
	return dst
}

// SquaredL2BatchFlat is the squared-Euclidean counterpart of DotProductBatchFlat.
func SquaredL2BatchFlat(dst []float64, query []float32, data []float32, n int) []float64 {
	dim := len(query)
	if dim == 0 || n <= 0 || len(data) < n*dim {
		return dst[:0]
	}
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for i := 0; i < n; i++ {
		dst[i] = squaredL2Impl(query, data[i*dim:(i+1)*dim])
	}
	return dst
}

// Normalize writes src scaled to unit L2 norm into dst. dst must have len(src).
// An epsilon keeps zero vectors finite (they stay zero).
func Normalize(dst, src []float32) {
	if len(dst) != len(src) {
		return
	}
	norm := dotProductGo(src, src)
	inv := float32(1.0 / (math.Sqrt(norm) + 1e-12))
	for i, x := range src {
		dst[i] = x * inv
	}
}
