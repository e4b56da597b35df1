package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	us := []uint64{1000, 1000, 4, 2, 6, 8}
	s := Summarize(us, 2)
	assert.Equal(t, 4, s.N)
	assert.InDelta(t, 5, s.Mean, 1e-12)
	assert.InDelta(t, 20.0/3, s.Variance, 1e-9)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 8.0, s.Max)
	assert.Equal(t, 4.0, s.P50)
	assert.Equal(t, 8.0, s.P99)

	one := Summarize([]uint64{7}, 0)
	assert.Equal(t, 1, one.N)
	assert.Equal(t, 0.0, one.Variance)
	assert.Equal(t, 7.0, one.P95)

	assert.Equal(t, Summary{}, Summarize(us, 6))
	assert.Equal(t, Summary{}, Summarize(nil, 0))
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 10.0, Percentile(sorted, 100))
	assert.Equal(t, 5.0, Percentile(sorted, 50))
	assert.Equal(t, 10.0, Percentile(sorted, 95))
	assert.Equal(t, 0.0, Percentile(nil, 50))
}
