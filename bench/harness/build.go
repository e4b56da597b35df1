// Package harness drives the benchmark stages: parallel index build, exact ground truth,
// latency sweeps with recall, and result export.
package harness

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ic-timon/annbench/bench/metrics"
	"github.com/ic-timon/annbench/dataset"
	"github.com/ic-timon/annbench/indexer"
	"github.com/ic-timon/annbench/logger"
	"github.com/ic-timon/annbench/parallel"
	"github.com/ic-timon/annbench/simd"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Name             string        // index label for logs and metrics
	Threads          int           // parallel.For workers, <= 0 means NumCPU
	Normalize        bool          // insert L2-normalized copies (cosine builds)
	ProgressInterval time.Duration // 0 disables the progress monitor
	Logger           *logger.Logger
	Collectors       *metrics.Collectors // optional
}

// BuildResult describes a finished (or failed) build.
type BuildResult struct {
	Inserted  int
	Elapsed   time.Duration
	Footprint metrics.BuildFootprint
}

// Build inserts every row of m into idx, using the row number as id, with parallel.For.
// The first failed insert stops the build and is returned unchanged.
func Build(ctx context.Context, idx indexer.Index, m *dataset.Matrix, opts BuildOptions) (BuildResult, error) {
	l := opts.Logger
	if l == nil {
		l = logger.Noop()
	}
	if m.Dim != idx.Dim() {
		return BuildResult{}, &indexer.ErrDimensionMismatch{Expected: idx.Dim(), Actual: m.Dim}
	}
	if err := ctx.Err(); err != nil {
		return BuildResult{}, err
	}

	var pOpts []parallel.Option
	if opts.ProgressInterval > 0 {
		report := parallel.LogReporter(l.WithIndex(opts.Name))
		pOpts = append(pOpts, parallel.WithProgress(opts.ProgressInterval, func(p parallel.Progress) {
			report(p)
			if opts.Collectors != nil {
				opts.Collectors.BuildProgress.WithLabelValues(opts.Name).Set(p.Percent / 100)
			}
		}))
	}

	var insert parallel.WorkFunc = func(i, _ int) error {
		return idx.Insert(m.Row(i), uint64(i))
	}
	if opts.Normalize {
		// 每个 worker 独占一块归一化缓冲区
		bufs := parallel.NewScratch(opts.Threads, func() []float32 { return make([]float32, m.Dim) })
		insert = func(i, worker int) error {
			buf := bufs.Get(worker)
			simd.Normalize(buf, m.Row(i))
			return idx.Insert(buf, uint64(i))
		}
	}

	var inserted atomic.Int64
	metrics.GC()
	before := metrics.Take()
	err := parallel.For(0, m.N, opts.Threads, func(i, worker int) error {
		if err := insert(i, worker); err != nil {
			if opts.Collectors != nil {
				opts.Collectors.InsertErrors.WithLabelValues(opts.Name).Inc()
			}
			return err
		}
		inserted.Add(1)
		return nil
	}, pOpts...)
	after := metrics.Take()

	res := BuildResult{
		Inserted:  int(inserted.Load()),
		Elapsed:   after.TS.Sub(before.TS),
		Footprint: metrics.Diff(before, after),
	}
	l.LogBuild(ctx, opts.Name, res.Inserted, res.Elapsed, err)
	if err != nil {
		return res, err
	}
	l.DebugContext(ctx, "build footprint",
		"index", opts.Name,
		"heap_growth_mb", res.Footprint.HeapGrowthMB,
		"alloc_rate_bps", res.Footprint.AllocRateBps,
		"gc_count", res.Footprint.GCCount,
	)
	if opts.Collectors != nil {
		opts.Collectors.BuildProgress.WithLabelValues(opts.Name).Set(1)
		opts.Collectors.ObserveBuild(opts.Name, res.Inserted, res.Elapsed, after)
	}
	return res, nil
}

// NormalizeRows returns a copy of m with every row scaled to unit length.
func NormalizeRows(m *dataset.Matrix) *dataset.Matrix {
	out := &dataset.Matrix{Data: make([]float32, len(m.Data)), N: m.N, Dim: m.Dim}
	for i := 0; i < m.N; i++ {
		simd.Normalize(out.Row(i), m.Row(i))
	}
	return out
}

func checkDims(idx indexer.Index, queries *dataset.Matrix) error {
	if queries.Dim != idx.Dim() {
		return fmt.Errorf("harness: queries: %w", &indexer.ErrDimensionMismatch{Expected: idx.Dim(), Actual: queries.Dim})
	}
	return nil
}
