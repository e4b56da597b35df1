package dataset

import (
	"fmt"

	"github.com/ic-timon/annbench/bench/gen"
)

// Matrix is N row-major vectors of Dim float32 each.
type Matrix struct {
	Data []float32
	N    int
	Dim  int
}

// NewMatrix wraps data as rows of dim values.
func NewMatrix(data []float32, dim int) (*Matrix, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dataset: invalid dimension %d", dim)
	}
	if len(data)%dim != 0 {
		return nil, fmt.Errorf("dataset: %d values do not divide into rows of %d", len(data), dim)
	}
	return &Matrix{Data: data, N: len(data) / dim, Dim: dim}, nil
}

// Row returns the i-th vector without copying.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Dim : (i+1)*m.Dim]
}

// Head returns a view of the first n rows (all rows if n exceeds N).
func (m *Matrix) Head(n int) *Matrix {
	n = min(max(n, 0), m.N)
	return &Matrix{Data: m.Data[:n*m.Dim], N: n, Dim: m.Dim}
}

// Synthetic returns n seeded uniform vectors of dimension dim.
func Synthetic(n, dim int, seed int64) *Matrix {
	return &Matrix{Data: gen.Uniform(n, dim, seed), N: n, Dim: dim}
}
