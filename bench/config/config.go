// Package config holds the benchmark configuration: defaults, YAML loading and validation.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ic-timon/annbench/bench/gen"
	"github.com/ic-timon/annbench/indexer"
)

// Config is the full benchmark configuration. Command-line flags override file values.
type Config struct {
	Threads          int           `yaml:"threads"`           // build workers, 0 = NumCPU
	ProgressInterval time.Duration `yaml:"progress_interval"` // build progress report period
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
	MetricsAddr      string        `yaml:"metrics_addr"` // serve /metrics when non-empty
	MetricsFile      string        `yaml:"metrics_file"` // write a textfile at exit when non-empty
	Compress         bool          `yaml:"compress"`     // zstd-compress result files

	Index IndexConfig `yaml:"index"`
	Build BuildConfig `yaml:"build"`
	TopK  TopKConfig  `yaml:"topk"`
	Query QueryConfig `yaml:"query"`
}

// IndexConfig mirrors indexer.Config without the dimension, which comes from the data.
type IndexConfig struct {
	VectorsPerBlock   int     `yaml:"vectors_per_block"`
	SplitThreshold    int     `yaml:"split_threshold"`
	SearchWidth       int     `yaml:"search_width"`
	PruneEpsilon      float64 `yaml:"prune_epsilon"`
	Seed              int64   `yaml:"seed"`
	Shards            int     `yaml:"shards"` // > 1 builds an indexer.ShardedIndex
	SearchPoolWorkers int     `yaml:"search_pool_workers"`
}

// BuildConfig is the index build grid (one saved tree per leaf size × block size × metric).
type BuildConfig struct {
	LeafSizes  []int  `yaml:"leaf_sizes"`
	BlockSizes []int  `yaml:"block_sizes"`
	Metric     string `yaml:"metric"` // l2, cosine or both
	Limit      int    `yaml:"limit"`  // read at most this many base vectors, 0 = all
	BaseFile   string `yaml:"base_file"`
}

// TopKConfig is the latency sweep over k on a synthetic corpus.
type TopKConfig struct {
	Dim      int    `yaml:"dim"`
	NB       int    `yaml:"nb"`
	Seed     int64  `yaml:"seed"`
	Searches int    `yaml:"searches"`
	Ks       []int  `yaml:"ks"`
	Warmup   int    `yaml:"warmup"`
	Metric   string `yaml:"metric"`
}

// QueryConfig is the repeated single-query latency measurement per search width.
type QueryConfig struct {
	SearchWidths    []int  `yaml:"search_widths"`
	Queries         int    `yaml:"queries"`
	Runs            int    `yaml:"runs"`
	K               int    `yaml:"k"`
	Warmup          int    `yaml:"warmup"`
	QueryFile       string `yaml:"query_file"`
	GroundTruthFile string `yaml:"ground_truth_file"`
}

// DefaultConfig returns the configuration of the reference benchmark runs.
func DefaultConfig() *Config {
	return &Config{
		ProgressInterval: time.Second,
		LogLevel:         "info",
		LogFormat:        "text",
		Index: IndexConfig{
			VectorsPerBlock: 64,
			SplitThreshold:  512,
			SearchWidth:     3,
			PruneEpsilon:    0.1,
			Seed:            1,
			Shards:          1,
		},
		Build: BuildConfig{
			LeafSizes:  []int{256, 512, 1024},
			BlockSizes: []int{32, 64},
			Metric:     "both",
			BaseFile:   "gist_base.fvecs",
		},
		TopK: TopKConfig{
			Dim:      960,
			NB:       1_000_000,
			Seed:     gen.DefaultSeed,
			Searches: 1000,
			Ks:       []int{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000},
			Warmup:   10,
			Metric:   "l2",
		},
		Query: QueryConfig{
			SearchWidths:    []int{1, 2, 3, 4, 6, 8},
			Queries:         5,
			Runs:            1000,
			K:               100,
			Warmup:          10,
			QueryFile:       "gist_query.fvecs",
			GroundTruthFile: "gist_groundtruth.ivecs",
		},
	}
}

// OrDefault returns c, or DefaultConfig() if c is nil. Zero scalar fields take defaults.
func (c *Config) OrDefault() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.ProgressInterval <= 0 {
		out.ProgressInterval = def.ProgressInterval
	}
	if out.LogLevel == "" {
		out.LogLevel = def.LogLevel
	}
	if out.LogFormat == "" {
		out.LogFormat = def.LogFormat
	}
	if out.Index.Shards <= 0 {
		out.Index.Shards = 1
	}
	if out.Build.Metric == "" {
		out.Build.Metric = def.Build.Metric
	}
	if out.TopK.Metric == "" {
		out.TopK.Metric = def.TopK.Metric
	}
	return &out
}

// Load reads a YAML file over DefaultConfig. Unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg = cfg.OrDefault()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(c.Threads >= 0, "threads must be >= 0, got %d", c.Threads)
	check(c.Index.VectorsPerBlock >= 0, "index.vectors_per_block must be >= 0")
	check(c.Index.SplitThreshold >= 0, "index.split_threshold must be >= 0")
	check(c.Index.SearchWidth >= 0, "index.search_width must be >= 0")
	check(c.Index.PruneEpsilon >= 0, "index.prune_epsilon must be >= 0")
	check(c.Index.SearchPoolWorkers >= 0, "index.search_pool_workers must be >= 0")

	check(allPositive(c.Build.LeafSizes), "build.leaf_sizes must be non-empty and positive")
	check(allPositive(c.Build.BlockSizes), "build.block_sizes must be non-empty and positive")
	_, err := BuildMetrics(c.Build.Metric)
	check(err == nil, "build.metric: %v", err)
	check(c.Build.Limit >= 0, "build.limit must be >= 0")

	check(c.TopK.Dim > 0, "topk.dim must be > 0, got %d", c.TopK.Dim)
	check(c.TopK.NB > 0, "topk.nb must be > 0, got %d", c.TopK.NB)
	check(c.TopK.Searches > 0 && c.TopK.Searches <= c.TopK.NB,
		"topk.searches must be in (0, nb], got %d", c.TopK.Searches)
	check(allPositive(c.TopK.Ks), "topk.ks must be non-empty and positive")
	check(c.TopK.Warmup >= 0, "topk.warmup must be >= 0")
	_, err = indexer.ParseMetric(c.TopK.Metric)
	check(err == nil, "topk.metric: %v", err)

	check(allPositive(c.Query.SearchWidths), "query.search_widths must be non-empty and positive")
	check(c.Query.Queries > 0, "query.queries must be > 0")
	check(c.Query.Runs > 0, "query.runs must be > 0")
	check(c.Query.K > 0, "query.k must be > 0")
	check(c.Query.Warmup >= 0, "query.warmup must be >= 0")

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// IndexConfig builds the indexer configuration for dim-dimensional vectors.
func (c *Config) IndexConfig(dim int, metric indexer.Metric) *indexer.Config {
	cfg := indexer.DefaultConfig(dim)
	cfg.Metric = metric
	cfg.VectorsPerBlock = c.Index.VectorsPerBlock
	cfg.SplitThreshold = c.Index.SplitThreshold
	cfg.SearchWidth = c.Index.SearchWidth
	cfg.PruneEpsilon = c.Index.PruneEpsilon
	cfg.Seed = c.Index.Seed
	cfg.SearchPoolWorkers = c.Index.SearchPoolWorkers
	return cfg.OrDefault()
}

// BuildMetrics expands the build.metric setting: "both" yields L2 then inner product.
func BuildMetrics(s string) ([]indexer.Metric, error) {
	if s == "both" {
		return []indexer.Metric{indexer.L2, indexer.InnerProduct}, nil
	}
	m, err := indexer.ParseMetric(s)
	if err != nil {
		return nil, err
	}
	return []indexer.Metric{m}, nil
}

func allPositive(xs []int) bool {
	if len(xs) == 0 {
		return false
	}
	for _, x := range xs {
		if x <= 0 {
			return false
		}
	}
	return true
}
