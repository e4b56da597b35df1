package indexer

import (
	"fmt"
	"strings"
)

// Metric selects the distance function.
type Metric uint8

const (
	// L2 is squared Euclidean distance.
	L2 Metric = iota
	// InnerProduct is 1 - dot(a, b); cosine distance when vectors are L2-normalized.
	InnerProduct
)

func (m Metric) String() string {
	switch m {
	case L2:
		return "l2"
	case InnerProduct:
		return "ip"
	default:
		return fmt.Sprintf("metric(%d)", uint8(m))
	}
}

// ParseMetric accepts l2/euclidean and ip/cosine/inner_product.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "l2", "euclidean":
		return L2, nil
	case "ip", "cosine", "cos", "inner_product":
		return InnerProduct, nil
	}
	return 0, &ErrInvalidMetric{Name: s}
}

// Config holds index parameters.
type Config struct {
	Dim             int     // vector dimension, required
	Metric          Metric  // distance function, default L2
	VectorsPerBlock int     // vectors per block, default 64
	SplitThreshold  int     // leaf split threshold (neighborhood scanned per leaf), default 512
	SearchWidth     int     // multi-path search width, default 3
	PruneEpsilon    float64 // prune branches farther than best + epsilon (relative for L2), default 0.1
	Seed            int64   // k-means initialisation seed, default 1
	PersistPath     string  // non-empty: NewTree loads this file (mmap, read-only)

	// SearchPoolWorkers > 0 routes Tree.Search through a resident worker pool of that size
	// (bounds concurrent searches on one tree). 0 disables it.
	SearchPoolWorkers int
}

// DefaultConfig returns the default configuration for vectors of dimension dim.
func DefaultConfig(dim int) *Config {
	return &Config{
		Dim:             dim,
		Metric:          L2,
		VectorsPerBlock: 64,
		SplitThreshold:  512,
		SearchWidth:     3,
		PruneEpsilon:    0.1,
		Seed:            1,
	}
}

// OrDefault returns a normalized copy of c. A nil c yields DefaultConfig(0).
func (c *Config) OrDefault() *Config {
	if c == nil {
		return DefaultConfig(0)
	}
	out := *c
	if out.VectorsPerBlock <= 0 {
		out.VectorsPerBlock = 64
	}
	if out.SplitThreshold <= 0 {
		out.SplitThreshold = 512
	}
	if out.SplitThreshold < 2 {
		out.SplitThreshold = 2
	}
	if out.SearchWidth <= 0 {
		out.SearchWidth = 3
	}
	if out.PruneEpsilon < 0 {
		out.PruneEpsilon = 0.1
	}
	if out.SearchPoolWorkers < 0 {
		out.SearchPoolWorkers = 0
	}
	if out.Seed == 0 {
		out.Seed = 1
	}
	return &out
}

// Validate reports configuration errors that defaults cannot fix.
func (c *Config) Validate() error {
	if c.Dim <= 0 {
		return &ErrInvalidDimension{Dimension: c.Dim}
	}
	if c.Metric != L2 && c.Metric != InnerProduct {
		return &ErrInvalidMetric{Name: c.Metric.String()}
	}
	return nil
}
