package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ic-timon/annbench/bench/harness"
	"github.com/ic-timon/annbench/dataset"
)

func newBuildCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <dataset-dir> <index-dir>",
		Short: "Build and save one index per leaf size × block size × metric",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runBuild(cmd, a, args[0], args[1]); err != nil {
				return fmt.Errorf("build: %w", err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntSlice("leaf-size", nil, "leaf split thresholds (default from config)")
	f.IntSlice("block-size", nil, "vectors per block (default from config)")
	f.String("metric", "", "l2, cosine or both")
	f.Int("threads", 0, "build workers, 0 = NumCPU")
	f.Int("limit", 0, "read at most this many base vectors, 0 = all")
	return cmd
}

func runBuild(cmd *cobra.Command, a *app, datasetDir, indexDir string) error {
	cfg := a.cfg
	intsFlag(cmd, "leaf-size", &cfg.Build.LeafSizes)
	intsFlag(cmd, "block-size", &cfg.Build.BlockSizes)
	intFlag(cmd, "threads", &cfg.Threads)
	intFlag(cmd, "limit", &cfg.Build.Limit)
	if cmd.Flags().Changed("metric") {
		cfg.Build.Metric, _ = cmd.Flags().GetString("metric")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	l := a.log.WithStage("build")
	basePath := filepath.Join(datasetDir, cfg.Build.BaseFile)
	base, err := dataset.LoadFvecs(basePath, cfg.Build.Limit)
	if err != nil {
		return err
	}
	l.InfoContext(ctx, "loaded base vectors", "path", basePath, "nb", base.N, "dim", base.Dim)
	l.InfoContext(ctx, "configuration",
		"leaf_sizes", cfg.Build.LeafSizes,
		"block_sizes", cfg.Build.BlockSizes,
		"metric", cfg.Build.Metric,
		"threads", cfg.Threads,
	)
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return err
	}
	results, err := harness.BuildGrid(ctx, base, indexDir, cfg, l, a.collectors)
	if err != nil {
		return err
	}
	built := 0
	for _, r := range results {
		if !r.Skipped {
			built++
		}
	}
	l.InfoContext(ctx, "build grid done", "built", built, "skipped", len(results)-built)
	return nil
}
