package parallel

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor_ExactlyOnce(t *testing.T) {
	cases := []struct {
		start, end, threads int
	}{
		{0, 0, 4},
		{0, 1, 4},
		{0, 1000, 1},
		{0, 1000, 4},
		{10, 1010, 7},
		{0, 3, 16}, // more workers than units
		{-50, 50, 3},
		{0, 5000, 0}, // NumCPU
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_%d_%d", tc.start, tc.end, tc.threads), func(t *testing.T) {
			n := tc.end - tc.start
			visited := make([]atomic.Int32, n)
			err := For(tc.start, tc.end, tc.threads, func(i, worker int) error {
				visited[i-tc.start].Add(1)
				return nil
			})
			require.NoError(t, err)
			for i := range visited {
				require.EqualValues(t, 1, visited[i].Load(), "unit %d", i+tc.start)
			}
		})
	}
}

func TestFor_WorkerHandlesInRange(t *testing.T) {
	const threads = 6
	var bad atomic.Int32
	err := For(0, 2000, threads, func(i, worker int) error {
		if worker < 0 || worker >= threads {
			bad.Add(1)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, bad.Load())
}

func TestFor_SingleAndMultiThreadedAgree(t *testing.T) {
	const n = 4096
	run := func(threads int) []int {
		out := make([]int, n)
		err := For(0, n, threads, func(i, _ int) error {
			out[i] = i*i%97 + 1
			return nil
		})
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, run(1), run(8))
}

func TestFor_SingleThreadRunsOnCaller(t *testing.T) {
	var order []int
	err := For(0, 5, 1, func(i, worker int) error {
		assert.Zero(t, worker)
		order = append(order, i) // no locking: single goroutine
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_SingleThreadStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	err := For(0, 10, 1, func(i, _ int) error {
		calls++
		if i == 3 {
			return boom
		}
		return nil
	})
	assert.Same(t, boom, err)
	assert.Equal(t, 4, calls)
}

func TestFor_FailureSurfacesSameErrorAndHalts(t *testing.T) {
	const (
		n       = 10_000
		threads = 4
		failAt  = 10
	)
	boom := errors.New("insert 10 failed")
	var (
		executed     atomic.Int32
		afterFailure atomic.Int32
		failed       atomic.Bool
	)
	err := For(0, n, threads, func(i, _ int) error {
		executed.Add(1)
		if failed.Load() {
			afterFailure.Add(1)
		}
		if i == failAt {
			failed.Store(true)
			return boom
		}
		time.Sleep(50 * time.Microsecond)
		return nil
	})
	require.Error(t, err)
	assert.Same(t, boom, err)
	// 失败时其他 worker 各持有一个单元，halt 之前最多再领取一个
	assert.LessOrEqual(t, int(afterFailure.Load()), 2*(threads-1), "units claimed after the halt were executed")
	assert.LessOrEqual(t, int(executed.Load()), failAt+1+2*(threads-1), "remaining units must not be claimed after the halt")
}

func TestFor_FirstErrorWins(t *testing.T) {
	errs := make([]error, 64)
	for i := range errs {
		errs[i] = fmt.Errorf("unit %d", i)
	}
	err := For(0, len(errs), 8, func(i, _ int) error {
		return errs[i]
	})
	require.Error(t, err)
	found := false
	for _, e := range errs {
		if e == err {
			found = true
		}
	}
	assert.True(t, found, "returned error must be one of the work errors, unwrapped")
}

func TestFor_PanicBecomesError(t *testing.T) {
	err := For(0, 100, 4, func(i, _ int) error {
		if i == 42 {
			panic("bad vector")
		}
		return nil
	})
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 42, pe.Unit)
	assert.Equal(t, "bad vector", pe.Value)

	err = For(0, 3, 1, func(i, _ int) error { panic(i) })
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, pe.Unit)
}

func TestFor_InvalidRange(t *testing.T) {
	called := false
	err := For(5, 2, 4, func(int, int) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidRange)
	assert.False(t, called)
}

func TestFor_EmptyRangeDoesNothing(t *testing.T) {
	err := For(7, 7, 4, func(int, int) error {
		t.Fatal("must not be called")
		return nil
	}, WithProgress(time.Millisecond, func(Progress) {
		t.Fatal("monitor must not start")
	}))
	assert.NoError(t, err)
}

func TestFor_MonitorJoinedBeforeReturn(t *testing.T) {
	var returned atomic.Bool
	var late atomic.Int32
	var mu sync.Mutex
	var samples []Progress

	err := For(0, 200, 4, func(i, _ int) error {
		time.Sleep(500 * time.Microsecond)
		return nil
	}, WithProgress(time.Millisecond, func(p Progress) {
		if returned.Load() {
			late.Add(1)
		}
		mu.Lock()
		samples = append(samples, p)
		mu.Unlock()
	}))
	returned.Store(true)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	assert.Zero(t, late.Load())

	mu.Lock()
	defer mu.Unlock()
	for _, p := range samples {
		assert.EqualValues(t, 200, p.Total)
		assert.GreaterOrEqual(t, p.Done, int64(0))
		assert.LessOrEqual(t, p.Done, int64(200))
		assert.LessOrEqual(t, p.Percent, 100.0)
	}
}

func TestFor_MonitorStopsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	start := time.Now()
	err := For(0, 1_000_000, 2, func(i, _ int) error {
		if i == 1 {
			return boom
		}
		return nil
	}, WithProgress(time.Hour, func(Progress) {}))
	assert.Same(t, boom, err)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestFor_ReporterPanicIgnored(t *testing.T) {
	err := For(0, 100, 4, func(i, _ int) error {
		time.Sleep(200 * time.Microsecond)
		return nil
	}, WithProgress(time.Millisecond, func(Progress) { panic("reporter") }))
	assert.NoError(t, err)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 3, Workers(3))
	assert.Positive(t, Workers(0))
	assert.Equal(t, Workers(0), Workers(-1))
}

func BenchmarkFor(b *testing.B) {
	sink := make([]int64, 1<<16)
	for i := 0; i < b.N; i++ {
		_ = For(0, len(sink), 0, func(j, _ int) error {
			sink[j]++
			return nil
		})
	}
}
