package parallel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ic-timon/annbench/logger"
)

// Progress is one monitor sample.
type Progress struct {
	Done      int64         // units claimed so far
	Total     int64         // end - start
	Percent   float64       // 0..100
	Elapsed   time.Duration // since the monitor started
	Rate      float64       // units per second
	Remaining time.Duration // projected; valid only when HasETA
	HasETA    bool
}

// Reporter receives monitor samples. It runs on the monitor goroutine.
type Reporter func(Progress)

type monitor struct {
	cur      *cursor
	start    int64
	total    int64
	interval time.Duration
	report   Reporter
	begin    time.Time
}

func newMonitor(cur *cursor, start, end int, interval time.Duration, r Reporter) *monitor {
	return &monitor{
		cur:      cur,
		start:    int64(start),
		total:    int64(end - start),
		interval: interval,
		report:   r,
		begin:    time.Now(),
	}
}

func (m *monitor) run(stop <-chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		if m.cur.exhausted() {
			return
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.emit(m.sample(time.Since(m.begin)))
		}
	}
}

func (m *monitor) sample(elapsed time.Duration) Progress {
	done := m.cur.position() - m.start
	return computeProgress(done, m.total, elapsed)
}

// emit drops reporter panics; reporting never affects the pool.
func (m *monitor) emit(p Progress) {
	defer func() { _ = recover() }()
	m.report(p)
}

func computeProgress(done, total int64, elapsed time.Duration) Progress {
	p := Progress{Done: done, Total: total, Elapsed: elapsed}
	if total > 0 {
		p.Percent = float64(done) / float64(total) * 100
	}
	if secs := elapsed.Seconds(); secs > 0 {
		p.Rate = float64(done) / secs
	}
	if p.Rate > 0 {
		left := float64(total-done) / p.Rate
		p.Remaining = time.Duration(left * float64(time.Second))
		p.HasETA = true
	}
	return p
}

// LogReporter logs each sample at info level.
func LogReporter(l *logger.Logger) Reporter {
	return func(p Progress) {
		attrs := []slog.Attr{
			slog.String("percent", fmt.Sprintf("%.2f%%", p.Percent)),
			slog.Int64("done", p.Done),
			slog.Int64("total", p.Total),
			slog.Duration("elapsed", p.Elapsed.Truncate(time.Second)),
			slog.Float64("units_per_sec", p.Rate),
		}
		if p.HasETA {
			attrs = append(attrs, slog.Duration("remaining", p.Remaining.Truncate(time.Second)))
		}
		l.LogAttrs(context.Background(), slog.LevelInfo, "progress", attrs...)
	}
}
