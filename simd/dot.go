// Package simd provides accelerated float32 kernels (dot product, squared L2) for
// vectors of any dimension. The AVX2 path is selected at init when GOARCH=amd64,
// CGO is enabled and the CPU supports AVX2+FMA; everything else runs the Go kernels.
package simd

var (
	dotProductImpl func(a, b []float32) float64
	squaredL2Impl  func(a, b []float32) float64
	implDesc       string
)

func init() {
	// Default; dispatch files override in init() based on GOARCH and CGO.
	if dotProductImpl == nil {
		dotProductImpl = dotProductGo
		squaredL2Impl = squaredL2Go
		implDesc = "Go"
	}
}

// DotProduct computes the dot product of two float32 vectors (cosine similarity for L2-normalized vectors).
// Returns 0 when the lengths differ or the vectors are empty.
func DotProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return dotProductImpl(a, b)
}

// SquaredL2 computes the squared Euclidean distance between a and b.
// Returns 0 when the lengths differ or the vectors are empty.
func SquaredL2(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return squaredL2Impl(a, b)
}

// ImplDesc returns a description of the selected kernel set (for logging).
func ImplDesc() string {
	if implDesc != "" {
		return implDesc
	}
	return "Go"
}

// dotProductGo is the pure Go implementation (4-way unroll plus scalar tail).
func dotProductGo(a, b []float32) float64 {
	var sum float64
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 := a[i+0]*b[i+0] + a[i+1]*b[i+1]
		s1 := a[i+2]*b[i+2] + a[i+3]*b[i+3]
		sum += float64(s0 + s1)
	}
	for ; i < n; i++ {
		sum += float64(a[i] * b[i])
	}
	return sum
}

func squaredL2Go(a, b []float32) float64 {
	var sum float64
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		d0 := a[i+0] - b[i+0]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		sum += float64(d0*d0 + d1*d1 + d2*d2 + d3*d3)
	}
	for ; i < n; i++ {
		d := a[i] - b[i]
		sum += float64(d * d)
	}
	return sum
}
