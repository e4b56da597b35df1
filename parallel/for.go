package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidRange is returned when end < start.
var ErrInvalidRange = errors.New("parallel: end is before start")

// WorkFunc processes unit i on worker (0 <= worker < number of workers).
// It must tolerate any execution order across units.
type WorkFunc func(i, worker int) error

// PanicError reports a panic raised by a WorkFunc.
type PanicError struct {
	Unit   int
	Worker int
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parallel: unit %d panicked on worker %d: %v", e.Unit, e.Worker, e.Value)
}

// Workers resolves a requested worker count: n <= 0 means one per CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

type options struct {
	interval time.Duration
	reporter Reporter
}

// Option configures For.
type Option func(*options)

// WithProgress starts a monitor goroutine that calls r every interval while the range is
// being processed. interval <= 0 means one second. A nil reporter disables monitoring.
func WithProgress(interval time.Duration, r Reporter) Option {
	return func(o *options) {
		if interval <= 0 {
			interval = time.Second
		}
		o.interval = interval
		o.reporter = r
	}
}

// For calls fn(i, worker) for every i in [start, end) using numThreads workers and
// returns once all of them have exited.
//
// With one worker the loop runs on the calling goroutine and stops at the first error.
// Otherwise the first error returned by fn (or a *PanicError) stops further claims;
// units already claimed by other workers still run. The error returned is the one fn
// returned, unwrapped.
func For(start, end, numThreads int, fn WorkFunc, opts ...Option) error {
	if end < start {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, start, end)
	}
	if end == start {
		return nil
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	numThreads = Workers(numThreads)

	if numThreads == 1 {
		for i := start; i < end; i++ {
			if err := call(fn, i, 0); err != nil {
				return err
			}
		}
		return nil
	}

	cur := newCursor(start, end)

	var mon sync.WaitGroup
	stop := make(chan struct{})
	if o.reporter != nil {
		m := newMonitor(cur, start, end, o.interval, o.reporter)
		mon.Add(1)
		go func() {
			defer mon.Done()
			m.run(stop)
		}()
	}

	var g errgroup.Group
	for w := 0; w < numThreads; w++ {
		w := w
		g.Go(func() error {
			for {
				i, ok := cur.claim()
				if !ok {
					return nil
				}
				if err := call(fn, i, w); err != nil {
					cur.halt()
					return err
				}
			}
		})
	}
	err := g.Wait()

	close(stop)
	mon.Wait()
	return err
}

func call(fn WorkFunc, i, worker int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Unit: i, Worker: worker, Value: r}
		}
	}()
	return fn(i, worker)
}
