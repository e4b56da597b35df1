package parallel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCursor_ClaimAndHalt(t *testing.T) {
	c := newCursor(3, 6)
	i, ok := c.claim()
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	c.halt()
	_, ok = c.claim()
	assert.False(t, ok)
	assert.True(t, c.exhausted())
	assert.EqualValues(t, 6, c.position())
}

func TestCursor_HaltNeverMovesBackwards(t *testing.T) {
	c := newCursor(0, 2)
	for rep := 0; rep < 5; rep++ {
		c.claim()
	}
	before := c.next.Load()
	c.halt()
	assert.Equal(t, before, c.next.Load())
	assert.EqualValues(t, 2, c.position())
}

func TestComputeProgress(t *testing.T) {
	p := computeProgress(50, 200, 2*time.Second)
	assert.InDelta(t, 25.0, p.Percent, 1e-9)
	assert.InDelta(t, 25.0, p.Rate, 1e-9)
	assert.True(t, p.HasETA)
	assert.Equal(t, 6*time.Second, p.Remaining)

	p = computeProgress(0, 200, time.Second)
	assert.False(t, p.HasETA, "zero throughput has no ETA")
	assert.Zero(t, p.Remaining)

	p = computeProgress(10, 200, 0)
	assert.False(t, p.HasETA, "zero elapsed has no ETA")
	assert.Zero(t, p.Rate)
}

func TestScratch(t *testing.T) {
	n := 0
	s := NewScratch(4, func() []float32 {
		n++
		return make([]float32, 8)
	})
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 4, n)
	s.Get(2)[0] = 1
	assert.Equal(t, float32(1), s.Get(2)[0])
	assert.Zero(t, s.Get(1)[0])
}
