package harness

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ic-timon/annbench/bench/metrics"
	"github.com/ic-timon/annbench/logger"
)

// NewRunID returns a random identifier tagging every record and file of one run.
func NewRunID() string {
	return uuid.NewString()
}

// TopKBase names the top-k sweep results of a tree over a synthetic corpus.
func TopKBase(dim, nb, leaf, block int) string {
	return fmt.Sprintf("1-ST-CPU_dim_%d_nb_%d_leaf_%d_block_%d", dim, nb, leaf, block)
}

// QueryBase names the single-query results of a saved index at one search width.
func QueryBase(dim, nb int, indexPath string, width int) string {
	stem := strings.TrimSuffix(filepath.Base(indexPath), filepath.Ext(indexPath))
	return fmt.Sprintf("1-ST-CPU_dim_%d_nb_%d_%s_searchwidth_%d_same_vector", dim, nb, stem, width)
}

// Exporter writes measurements as a latency CSV plus a JSON summary. Write failures are
// logged and never abort the run.
type Exporter struct {
	Dir      string
	RunID    string
	Compress bool           // zstd-compress the CSV
	Params   map[string]any // copied into every summary
	Logger   *logger.Logger
}

// Export writes the files of one measurement and returns the CSV path.
func (e *Exporter) Export(ctx context.Context, stage, base string, m *Measurement, warmup int) string {
	l := e.Logger
	if l == nil {
		l = logger.Noop()
	}
	partial := m.Partial()
	ext := ".csv"
	if e.Compress {
		ext += ".zst"
	}
	csvPath := metrics.ResultPath(e.Dir, base, "latencies", ext, partial)
	l.LogExport(ctx, csvPath, metrics.WriteLatencyCSV(csvPath, m.Table, m.Recall))

	r := metrics.NewReport(e.RunID, stage, m.Table, m.Recall, warmup)
	r.Params = e.Params
	jsonPath := metrics.ResultPath(e.Dir, base, "summary", ".json", partial)
	l.LogExport(ctx, jsonPath, metrics.WriteSummaryJSON(jsonPath, r))
	return csvPath
}
