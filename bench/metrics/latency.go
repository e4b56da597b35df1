package metrics

import (
	"errors"
	"fmt"
	"time"
)

// ErrRowFull is returned when a row already holds every iteration.
var ErrRowFull = errors.New("metrics: latency row is full")

// LatencyTable holds one row of per-iteration latencies (µs) per configuration value.
// Rows are filled strictly in iteration order by a single goroutine.
type LatencyTable struct {
	Label      string // header of the configuration column, e.g. "k" or "search_width"
	Configs    []int  // configuration value of each row
	Iterations int    // cells per row
	us         [][]uint64
}

// NewLatencyTable allocates a table of len(configs) rows × iterations cells.
func NewLatencyTable(label string, configs []int, iterations int) *LatencyTable {
	if iterations < 0 {
		iterations = 0
	}
	us := make([][]uint64, len(configs))
	for i := range us {
		us[i] = make([]uint64, 0, iterations)
	}
	return &LatencyTable{
		Label:      label,
		Configs:    append([]int(nil), configs...),
		Iterations: iterations,
		us:         us,
	}
}

// Time runs op and, when it succeeds, records its wall-clock duration in µs as the next
// iteration of row. Only op is inside the measured interval. A failed op leaves the cell
// unset and its error is returned.
func (t *LatencyTable) Time(row int, op func() error) (uint64, error) {
	if err := t.checkRow(row); err != nil {
		return 0, err
	}
	sw := StartStopwatch()
	if err := op(); err != nil {
		return 0, err
	}
	d := sw.Micros()
	t.us[row] = append(t.us[row], d)
	return d, nil
}

// Append records an externally measured duration as the next iteration of row.
func (t *LatencyTable) Append(row int, d time.Duration) error {
	if err := t.checkRow(row); err != nil {
		return err
	}
	t.us[row] = append(t.us[row], uint64(max(d, 0).Microseconds()))
	return nil
}

func (t *LatencyTable) checkRow(row int) error {
	if row < 0 || row >= len(t.us) {
		return fmt.Errorf("metrics: row %d out of range [0, %d)", row, len(t.us))
	}
	if len(t.us[row]) >= t.Iterations {
		return fmt.Errorf("%w: row %d (%s=%d) has %d iterations", ErrRowFull, row, t.Label, t.Configs[row], t.Iterations)
	}
	return nil
}

// Row returns the recorded latencies of row. The slice must not be modified.
func (t *LatencyTable) Row(row int) []uint64 {
	return t.us[row]
}

// Rows returns the number of configurations.
func (t *LatencyTable) Rows() int {
	return len(t.us)
}

// Filled returns how many iterations of row are recorded.
func (t *LatencyTable) Filled(row int) int {
	return len(t.us[row])
}

// Complete reports whether every cell of every row is set.
func (t *LatencyTable) Complete() bool {
	for _, r := range t.us {
		if len(r) != t.Iterations {
			return false
		}
	}
	return true
}

// Stopwatch measures elapsed wall-clock time at microsecond resolution.
type Stopwatch struct {
	start time.Time
}

// StartStopwatch starts a stopwatch now.
func StartStopwatch() Stopwatch {
	return Stopwatch{start: time.Now()}
}

// Elapsed returns the time since start.
func (s Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Micros returns the elapsed time in whole microseconds.
func (s Stopwatch) Micros() uint64 {
	return uint64(max(time.Since(s.start), 0).Microseconds())
}
