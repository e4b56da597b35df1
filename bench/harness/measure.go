package harness

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/ic-timon/annbench/bench/metrics"
	"github.com/ic-timon/annbench/dataset"
	"github.com/ic-timon/annbench/indexer"
	"github.com/ic-timon/annbench/logger"
)

// WidthSetter is implemented by indexes with a tunable search breadth.
type WidthSetter interface {
	SetSearchWidth(w int)
}

// MeasureOptions configures the measurement stages.
type MeasureOptions struct {
	Stage      string // label for logs and metrics
	Warmup     int    // leading samples skipped in logged summaries
	Logger     *logger.Logger
	Collectors *metrics.Collectors // optional
}

func (o MeasureOptions) logger() *logger.Logger {
	if o.Logger == nil {
		return logger.Noop()
	}
	return o.Logger
}

// Measurement is a latency table with the mean recall of each row (NaN when unmeasured).
type Measurement struct {
	Table  *metrics.LatencyTable
	Recall []float64

	stopped bool // the run ended on an error
}

func newMeasurement(label string, configs []int, iterations int) *Measurement {
	recall := make([]float64, len(configs))
	for i := range recall {
		recall[i] = math.NaN()
	}
	return &Measurement{Table: metrics.NewLatencyTable(label, configs, iterations), Recall: recall}
}

// Partial reports whether the measurement ended on an error or left a latency cell or a
// recall value unset.
func (m *Measurement) Partial() bool {
	if m.stopped || !m.Table.Complete() {
		return true
	}
	return slices.ContainsFunc(m.Recall, math.IsNaN)
}

// stop marks m partial when err is non-nil and returns err.
func (m *Measurement) stop(err error) error {
	if err != nil {
		m.stopped = true
	}
	return err
}

// SweepTopK times searches queries[0..searches) once per k in ks, single-threaded, and
// scores each result against gt. On error the measurement collected so far is returned
// with it so the caller can export a partial table.
func SweepTopK(ctx context.Context, idx indexer.Index, queries *dataset.Matrix, gt *dataset.GroundTruth, ks []int, searches int, opts MeasureOptions) (*Measurement, error) {
	m := newMeasurement("k", ks, searches)
	return m, m.stop(sweepTopK(ctx, m, idx, queries, gt, ks, searches, opts))
}

func sweepTopK(ctx context.Context, m *Measurement, idx indexer.Index, queries *dataset.Matrix, gt *dataset.GroundTruth, ks []int, searches int, opts MeasureOptions) error {
	if err := checkDims(idx, queries); err != nil {
		return err
	}
	if searches > queries.N || searches > gt.Len() {
		return fmt.Errorf("harness: %d searches with %d queries and %d ground-truth rows", searches, queries.N, gt.Len())
	}
	l := opts.logger()
	for row, k := range ks {
		if err := ctx.Err(); err != nil {
			return err
		}
		scores := make([]float64, 0, searches)
		for it := 0; it < searches; it++ {
			q := queries.Row(it)
			var res []indexer.SearchResult
			us, err := m.Table.Time(row, func() error {
				var err error
				res, err = idx.Search(q, k)
				return err
			})
			if err != nil {
				return fmt.Errorf("harness: search k=%d query %d: %w", k, it, err)
			}
			truth, err := gt.TopK(it, k)
			if err != nil {
				return err
			}
			r, err := metrics.Recall(metrics.IDs(res), truth, k)
			if err != nil {
				return err
			}
			scores = append(scores, r)
			if opts.Collectors != nil {
				opts.Collectors.ObserveQuery(opts.Stage, k, us)
			}
		}
		m.Recall[row] = metrics.MeanRecall(scores)
		report(ctx, l, opts, "k", k, m.Table.Row(row), m.Recall[row])
	}
	return nil
}

// QueryRun is the single-query measurement at one search width.
type QueryRun struct {
	Width int
	*Measurement
}

// SingleQuery repeats each of the first nQueries queries runs times at every search width.
// Rows of each table are query ids; recall is scored on the last run of each query.
func SingleQuery(ctx context.Context, idx indexer.Index, queries *dataset.Matrix, gt *dataset.GroundTruth, widths []int, nQueries, runs, k int, opts MeasureOptions) ([]QueryRun, error) {
	if err := checkDims(idx, queries); err != nil {
		return nil, err
	}
	if nQueries > queries.N || nQueries > gt.Len() {
		return nil, fmt.Errorf("harness: %d queries requested, %d queries and %d ground-truth rows available", nQueries, queries.N, gt.Len())
	}
	ws, ok := idx.(WidthSetter)
	if !ok {
		return nil, fmt.Errorf("harness: index %T has no search width", idx)
	}
	ids := make([]int, nQueries)
	for i := range ids {
		ids[i] = i
	}
	l := opts.logger()
	var out []QueryRun
	for _, w := range widths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		ws.SetSearchWidth(w)
		wl := &logger.Logger{Logger: l.With("search_width", w)}
		run := QueryRun{Width: w, Measurement: newMeasurement("id", ids, runs)}
		out = append(out, run)
		if err := run.stop(measureQueries(ctx, run.Measurement, idx, queries, gt, w, runs, k, opts, wl)); err != nil {
			return out, fmt.Errorf("harness: search width=%d: %w", w, err)
		}
		if opts.Collectors != nil {
			opts.Collectors.SetRecall(opts.Stage, w, metrics.MeanRecall(run.Recall))
		}
	}
	return out, nil
}

// measureQueries fills one row per query id of m with runs repeated searches at width w.
func measureQueries(ctx context.Context, m *Measurement, idx indexer.Index, queries *dataset.Matrix, gt *dataset.GroundTruth, w, runs, k int, opts MeasureOptions, l *logger.Logger) error {
	for qid := range m.Table.Configs {
		q := queries.Row(qid)
		var res []indexer.SearchResult
		for r := 0; r < runs; r++ {
			us, err := m.Table.Time(qid, func() error {
				var err error
				res, err = idx.Search(q, k)
				return err
			})
			if err != nil {
				return fmt.Errorf("query %d: %w", qid, err)
			}
			if opts.Collectors != nil {
				opts.Collectors.ObserveQuery(opts.Stage, w, us)
			}
		}
		truth, err := gt.TopK(qid, k)
		if err != nil {
			return err
		}
		if m.Recall[qid], err = metrics.Recall(metrics.IDs(res), truth, k); err != nil {
			return err
		}
		report(ctx, l, opts, "id", qid, m.Table.Row(qid), m.Recall[qid])
	}
	return nil
}

func report(ctx context.Context, l *logger.Logger, opts MeasureOptions, label string, value int, us []uint64, recall float64) {
	s := metrics.Summarize(us, opts.Warmup)
	l.LogSummary(ctx, label, value, s.Mean, s.P99, recall)
	if opts.Collectors != nil && label == "k" {
		opts.Collectors.SetRecall(opts.Stage, value, recall)
	}
}
