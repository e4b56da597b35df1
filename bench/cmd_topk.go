package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ic-timon/annbench/bench/harness"
	"github.com/ic-timon/annbench/dataset"
	"github.com/ic-timon/annbench/indexer"
	"github.com/ic-timon/annbench/logger"
)

func newTopKCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topk <result-dir>",
		Short: "Sweep k on a synthetic corpus and record latency and recall",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runTopK(cmd, a, args[0]); err != nil {
				return fmt.Errorf("topk: %w", err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Int("dim", 0, "vector dimension")
	f.Int("nb", 0, "corpus size")
	f.Int("searches", 0, "queries timed per k")
	f.IntSlice("k", nil, "k values to sweep")
	f.Int("leaf-size", 0, "leaf split threshold")
	f.Int("block-size", 0, "vectors per block")
	f.Int("shards", 0, "> 1 builds a sharded index")
	f.Int("threads", 0, "build workers, 0 = NumCPU")
	return cmd
}

func runTopK(cmd *cobra.Command, a *app, resultDir string) error {
	cfg := a.cfg
	intFlag(cmd, "dim", &cfg.TopK.Dim)
	intFlag(cmd, "nb", &cfg.TopK.NB)
	intFlag(cmd, "searches", &cfg.TopK.Searches)
	intsFlag(cmd, "k", &cfg.TopK.Ks)
	intFlag(cmd, "leaf-size", &cfg.Index.SplitThreshold)
	intFlag(cmd, "block-size", &cfg.Index.VectorsPerBlock)
	intFlag(cmd, "shards", &cfg.Index.Shards)
	intFlag(cmd, "threads", &cfg.Threads)
	if err := cfg.Validate(); err != nil {
		return err
	}
	metric, err := indexer.ParseMetric(cfg.TopK.Metric)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	l := a.log.WithStage("topk")
	icfg := cfg.IndexConfig(cfg.TopK.Dim, metric)
	l.InfoContext(ctx, "configuration",
		"dim", cfg.TopK.Dim,
		"nb", cfg.TopK.NB,
		"searches", cfg.TopK.Searches,
		"ks", cfg.TopK.Ks,
		"metric", metric.String(),
		"leaf_size", icfg.SplitThreshold,
		"block_size", icfg.VectorsPerBlock,
		"shards", cfg.Index.Shards,
	)

	corpus := dataset.Synthetic(cfg.TopK.NB, cfg.TopK.Dim, cfg.TopK.Seed)
	if metric == indexer.InnerProduct {
		corpus = harness.NormalizeRows(corpus)
	}
	idx, closeIdx, err := newIndex(icfg, cfg.Index.Shards)
	if err != nil {
		return err
	}
	defer closeIdx()

	if _, err := harness.Build(ctx, idx, corpus, harness.BuildOptions{
		Name:             "topk",
		Threads:          cfg.Threads,
		ProgressInterval: cfg.ProgressInterval,
		Logger:           l,
		Collectors:       a.collectors,
	}); err != nil {
		return err
	}

	// 查询取语料库前 searches 条
	queries := corpus.Head(cfg.TopK.Searches)
	l.InfoContext(ctx, "computing exact ground truth", "queries", queries.N, "k", slices.Max(cfg.TopK.Ks))
	gt, err := harness.ExactGroundTruth(corpus, queries, slices.Max(cfg.TopK.Ks), metric, cfg.Threads)
	if err != nil {
		return err
	}

	m, err := harness.SweepTopK(ctx, idx, queries, gt, cfg.TopK.Ks, cfg.TopK.Searches, harness.MeasureOptions{
		Stage:      "topk",
		Warmup:     cfg.TopK.Warmup,
		Logger:     l,
		Collectors: a.collectors,
	})
	exporter := newExporter(a, resultDir, l, map[string]any{
		"dim":        cfg.TopK.Dim,
		"nb":         cfg.TopK.NB,
		"metric":     metric.String(),
		"leaf_size":  icfg.SplitThreshold,
		"block_size": icfg.VectorsPerBlock,
		"shards":     cfg.Index.Shards,
	})
	exporter.Export(ctx, "topk", harness.TopKBase(cfg.TopK.Dim, cfg.TopK.NB, icfg.SplitThreshold, icfg.VectorsPerBlock), m, cfg.TopK.Warmup)
	return err
}

// newIndex returns a single tree, or a sharded index when shards > 1.
func newIndex(cfg *indexer.Config, shards int) (indexer.Index, func() error, error) {
	if shards > 1 {
		s, err := indexer.NewShardedIndex(cfg, shards)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	t, err := indexer.NewTree(cfg)
	if err != nil {
		return nil, nil, err
	}
	return t, t.Close, nil
}

func newExporter(a *app, dir string, l *logger.Logger, params map[string]any) *harness.Exporter {
	return &harness.Exporter{
		Dir:      dir,
		RunID:    a.runID,
		Compress: a.cfg.Compress,
		Params:   params,
		Logger:   l,
	}
}
