package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyTable_Dimensions(t *testing.T) {
	tbl := NewLatencyTable("k", []int{1, 5, 10}, 4)
	assert.Equal(t, 3, tbl.Rows())
	for row := 0; row < tbl.Rows(); row++ {
		for i := 0; i < 4; i++ {
			_, err := tbl.Time(row, func() error { return nil })
			require.NoError(t, err)
		}
		assert.Equal(t, 4, tbl.Filled(row))
	}
	assert.True(t, tbl.Complete())

	_, err := tbl.Time(0, func() error { return nil })
	assert.ErrorIs(t, err, ErrRowFull)
	assert.ErrorIs(t, tbl.Append(2, time.Millisecond), ErrRowFull)
}

func TestLatencyTable_TimeMeasuresOnlyOp(t *testing.T) {
	tbl := NewLatencyTable("k", []int{1}, 2)
	d, err := tbl.Time(0, func() error {
		time.Sleep(2 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, uint64(2000))
	assert.Equal(t, []uint64{d}, tbl.Row(0))

	boom := errors.New("boom")
	_, err = tbl.Time(0, func() error { return boom })
	assert.Same(t, boom, err)
	assert.Equal(t, 1, tbl.Filled(0), "failed op leaves the cell unset")
	assert.False(t, tbl.Complete())
}

func TestLatencyTable_AppendAndPartial(t *testing.T) {
	tbl := NewLatencyTable("search_width", []int{1, 2}, 3)
	require.NoError(t, tbl.Append(0, 1500*time.Microsecond))
	require.NoError(t, tbl.Append(0, -time.Second))
	assert.Equal(t, []uint64{1500, 0}, tbl.Row(0))
	assert.False(t, tbl.Complete())

	assert.Error(t, tbl.Append(5, time.Second))
	_, err := tbl.Time(-1, func() error { return nil })
	assert.Error(t, err)
}

func TestStopwatch(t *testing.T) {
	sw := StartStopwatch()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, sw.Micros(), uint64(1000))
	assert.GreaterOrEqual(t, sw.Elapsed(), time.Millisecond)
}
