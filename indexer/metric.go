package indexer

import "github.com/ic-timon/annbench/simd"

// distance returns the metric distance between a and b (equal lengths).
func (m Metric) distance(a, b []float32) float32 {
	if m == InnerProduct {
		return float32(1 - simd.DotProduct(a, b))
	}
	return float32(simd.SquaredL2(a, b))
}

// batch writes the distances of the first n rows of data to query into dst.
func (m Metric) batch(dst []float64, query, data []float32, n int) []float64 {
	if m == InnerProduct {
		dst = simd.DotProductBatchFlat(dst, query, data, n)
		for i := range dst {
			dst[i] = 1 - dst[i]
		}
		return dst
	}
	return simd.SquaredL2BatchFlat(dst, query, data, n)
}

// pruneLimit returns the largest child distance still explored given the best one.
func (m Metric) pruneLimit(best float32, eps float64) float32 {
	if m == InnerProduct {
		return best + float32(eps)
	}
	if best < 0 {
		best = 0
	}
	return best * float32(1+eps)
}
