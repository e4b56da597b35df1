package harness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ic-timon/annbench/bench/config"
	"github.com/ic-timon/annbench/bench/metrics"
	"github.com/ic-timon/annbench/dataset"
	"github.com/ic-timon/annbench/indexer"
	"github.com/ic-timon/annbench/logger"
)

// GridPoint is one index configuration of the build grid.
type GridPoint struct {
	Leaf   int
	Block  int
	Metric indexer.Metric
}

// GridResult is the outcome of one grid point.
type GridResult struct {
	GridPoint
	Path    string
	Skipped bool
	Build   BuildResult
}

// SaveName returns the file name of a saved tree: tree_leaf_<L>_block_<B>_<l2|cos>.bin.
func SaveName(p GridPoint) string {
	return fmt.Sprintf("tree_leaf_%d_block_%d_%s.bin", p.Leaf, p.Block, metricSuffix(p.Metric))
}

func metricSuffix(m indexer.Metric) string {
	if m == indexer.InnerProduct {
		return "cos"
	}
	return "l2"
}

// Grid expands the build configuration in leaf, block, metric order.
func Grid(b config.BuildConfig) ([]GridPoint, error) {
	ms, err := config.BuildMetrics(b.Metric)
	if err != nil {
		return nil, err
	}
	var out []GridPoint
	for _, leaf := range b.LeafSizes {
		for _, block := range b.BlockSizes {
			for _, m := range ms {
				out = append(out, GridPoint{Leaf: leaf, Block: block, Metric: m})
			}
		}
	}
	return out, nil
}

// BuildGrid builds and saves one tree per grid point into indexDir. Points whose file
// already exists are skipped. Cosine points insert normalized vectors into an
// inner-product tree. The first failing point aborts the grid.
func BuildGrid(ctx context.Context, base *dataset.Matrix, indexDir string, cfg *config.Config, l *logger.Logger, c *metrics.Collectors) ([]GridResult, error) {
	points, err := Grid(cfg.Build)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = logger.Noop()
	}
	var out []GridResult
	for _, p := range points {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res := GridResult{GridPoint: p, Path: filepath.Join(indexDir, SaveName(p))}
		if _, err := os.Stat(res.Path); err == nil {
			l.InfoContext(ctx, "skipping index", "path", res.Path)
			res.Skipped = true
			out = append(out, res)
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return out, fmt.Errorf("harness: stat %s: %w", res.Path, err)
		}
		l.InfoContext(ctx, "generating index", "path", res.Path)
		if res.Build, err = buildPoint(ctx, base, p, res.Path, cfg, l, c); err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// buildPoint builds the tree of one grid point and saves it to path. The tree is closed on
// every return.
func buildPoint(ctx context.Context, base *dataset.Matrix, p GridPoint, path string, cfg *config.Config, l *logger.Logger, c *metrics.Collectors) (_ BuildResult, err error) {
	icfg := cfg.IndexConfig(base.Dim, p.Metric)
	icfg.SplitThreshold = p.Leaf
	icfg.VectorsPerBlock = p.Block
	tree, err := indexer.NewTree(icfg)
	if err != nil {
		return BuildResult{}, err
	}
	defer func() {
		if cerr := tree.Close(); err == nil {
			err = cerr
		}
	}()

	name := strings.TrimSuffix(SaveName(p), ".bin")
	res, err := Build(ctx, tree, base, BuildOptions{
		Name:             name,
		Threads:          cfg.Threads,
		Normalize:        p.Metric == indexer.InnerProduct,
		ProgressInterval: cfg.ProgressInterval,
		Logger:           l,
		Collectors:       c,
	})
	if err != nil {
		return res, fmt.Errorf("harness: build %s: %w", name, err)
	}
	stats := tree.Stats()
	l.InfoContext(ctx, "tree shape",
		"index", name,
		"leaves", stats.Leaves,
		"depth", stats.Depth,
		"blocks", stats.Blocks,
	)
	if err := tree.SaveToAtomic(path); err != nil {
		return res, fmt.Errorf("harness: save %s: %w", path, err)
	}
	return res, nil
}
