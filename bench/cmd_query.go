package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ic-timon/annbench/bench/harness"
	"github.com/ic-timon/annbench/dataset"
	"github.com/ic-timon/annbench/indexer"
)

func newQueryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <dataset-dir> <result-dir> <index-file>",
		Short: "Repeat single queries on a saved index at each search width",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runQuery(cmd, a, args[0], args[1], args[2]); err != nil {
				return fmt.Errorf("query: %w", err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntSlice("search-width", nil, "search widths to measure")
	f.Int("queries", 0, "number of distinct queries")
	f.Int("runs", 0, "repetitions per query")
	f.Int("k", 0, "neighbors per search")
	return cmd
}

func runQuery(cmd *cobra.Command, a *app, datasetDir, resultDir, indexPath string) error {
	cfg := a.cfg
	intsFlag(cmd, "search-width", &cfg.Query.SearchWidths)
	intFlag(cmd, "queries", &cfg.Query.Queries)
	intFlag(cmd, "runs", &cfg.Query.Runs)
	intFlag(cmd, "k", &cfg.Query.K)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	l := a.log.WithStage("query")
	l.InfoContext(ctx, "configuration",
		"queries", cfg.Query.Queries,
		"runs", cfg.Query.Runs,
		"k", cfg.Query.K,
		"search_widths", cfg.Query.SearchWidths,
	)

	queryPath := filepath.Join(datasetDir, cfg.Query.QueryFile)
	queries, err := dataset.LoadFvecs(queryPath, 0)
	if err != nil {
		return err
	}
	l.InfoContext(ctx, "loaded queries", "path", queryPath, "nq", queries.N, "dim", queries.Dim)
	gtPath := filepath.Join(datasetDir, cfg.Query.GroundTruthFile)
	gt, err := dataset.LoadGroundTruth(gtPath)
	if err != nil {
		return err
	}
	l.InfoContext(ctx, "loaded ground truth", "path", gtPath, "nq", gt.Len(), "k", gt.K())

	l.InfoContext(ctx, "loading index", "path", indexPath)
	tree, err := indexer.NewTreeFromFile(indexPath, cfg.IndexConfig(0, indexer.L2))
	if err != nil {
		return err
	}
	defer tree.Close()
	icfg := tree.Config()
	if icfg.Metric == indexer.InnerProduct {
		queries = harness.NormalizeRows(queries)
	}

	runs, err := harness.SingleQuery(ctx, tree, queries, gt, cfg.Query.SearchWidths, cfg.Query.Queries, cfg.Query.Runs, cfg.Query.K, harness.MeasureOptions{
		Stage:      "query",
		Warmup:     cfg.Query.Warmup,
		Logger:     l,
		Collectors: a.collectors,
	})
	for _, r := range runs {
		exporter := newExporter(a, resultDir, l, map[string]any{
			"index":        filepath.Base(indexPath),
			"metric":       icfg.Metric.String(),
			"block_size":   icfg.VectorsPerBlock,
			"search_width": r.Width,
			"k":            cfg.Query.K,
		})
		exporter.Export(ctx, "query", harness.QueryBase(queries.Dim, tree.Len(), indexPath, r.Width), r.Measurement, cfg.Query.Warmup)
	}
	return err
}
