package harness

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ic-timon/annbench/bench/config"
	"github.com/ic-timon/annbench/dataset"
	"github.com/ic-timon/annbench/indexer"
)

func TestSaveName(t *testing.T) {
	assert.Equal(t, "tree_leaf_256_block_32_l2.bin", SaveName(GridPoint{Leaf: 256, Block: 32, Metric: indexer.L2}))
	assert.Equal(t, "tree_leaf_1024_block_64_cos.bin", SaveName(GridPoint{Leaf: 1024, Block: 64, Metric: indexer.InnerProduct}))
}

func TestGrid(t *testing.T) {
	points, err := Grid(config.BuildConfig{LeafSizes: []int{256, 512}, BlockSizes: []int{32}, Metric: "both"})
	require.NoError(t, err)
	assert.Equal(t, []GridPoint{
		{Leaf: 256, Block: 32, Metric: indexer.L2},
		{Leaf: 256, Block: 32, Metric: indexer.InnerProduct},
		{Leaf: 512, Block: 32, Metric: indexer.L2},
		{Leaf: 512, Block: 32, Metric: indexer.InnerProduct},
	}, points)

	_, err = Grid(config.BuildConfig{LeafSizes: []int{1}, BlockSizes: []int{1}, Metric: "hamming"})
	require.Error(t, err)
}

func TestBuildGrid_SavesAndSkips(t *testing.T) {
	dir := t.TempDir()
	base := dataset.Synthetic(300, 8, 4)
	cfg := config.DefaultConfig()
	cfg.Threads = 2
	cfg.Build.LeafSizes = []int{32}
	cfg.Build.BlockSizes = []int{8}
	cfg.Build.Metric = "both"

	results, err := BuildGrid(context.Background(), base, dir, cfg, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Skipped)
		assert.Equal(t, 300, r.Build.Inserted)
		_, err := os.Stat(r.Path)
		require.NoError(t, err)

		tree, err := indexer.NewTreeFromFile(r.Path, nil)
		require.NoError(t, err)
		assert.Equal(t, 300, tree.Len())
		assert.Equal(t, r.Metric, tree.Config().Metric)
		assert.Equal(t, 8, tree.Config().VectorsPerBlock)
		assert.True(t, tree.ReadOnly())
		require.NoError(t, tree.Close())
	}
	assert.Equal(t, filepath.Join(dir, "tree_leaf_32_block_8_l2.bin"), results[0].Path)
	assert.Equal(t, filepath.Join(dir, "tree_leaf_32_block_8_cos.bin"), results[1].Path)

	again, err := BuildGrid(context.Background(), base, dir, cfg, nil, nil)
	require.NoError(t, err)
	require.Len(t, again, 2)
	for _, r := range again {
		assert.True(t, r.Skipped)
		assert.Zero(t, r.Build.Inserted)
	}
}

func TestBuildGrid_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := config.DefaultConfig()
	cfg.Build.LeafSizes = []int{32}
	cfg.Build.BlockSizes = []int{8}
	_, err := BuildGrid(ctx, dataset.Synthetic(10, 8, 1), t.TempDir(), cfg, nil, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildGrid_ClosesTreeOnFailure(t *testing.T) {
	base := dataset.Synthetic(100, 8, 4)
	cfg := config.DefaultConfig()
	cfg.Threads = 1
	cfg.Index.SearchPoolWorkers = 8
	cfg.Build.LeafSizes = []int{32}
	cfg.Build.BlockSizes = []int{8}
	cfg.Build.Metric = "l2"

	before := runtime.NumGoroutine()
	// 目录不存在，保存失败
	missing := filepath.Join(t.TempDir(), "missing")
	results, err := BuildGrid(context.Background(), base, missing, cfg, nil, nil)
	require.Error(t, err)
	assert.Empty(t, results)
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, time.Second, 10*time.Millisecond, "search pool goroutines leaked")
}
