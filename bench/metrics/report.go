package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ReportRow 单个配置的统计结果
type ReportRow struct {
	Config  int      `json:"config"`
	Filled  int      `json:"iterations"`
	Recall  *float64 `json:"recall,omitempty"`
	Latency Summary  `json:"latency"`
}

// Report 一次测量的汇总，写为 JSON
type Report struct {
	RunID      string         `json:"run_id"`
	Stage      string         `json:"stage"`
	StartedAt  time.Time      `json:"started_at"`
	Label      string         `json:"label"`
	Iterations int            `json:"iterations"`
	Warmup     int            `json:"warmup"`
	Partial    bool           `json:"partial"`
	Params     map[string]any `json:"params,omitempty"`
	Rows       []ReportRow    `json:"rows"`
}

// NewReport derives per-row statistics from t. recall[i] belongs to row i; NaN or a
// missing entry leaves the row's recall unset.
func NewReport(runID, stage string, t *LatencyTable, recall []float64, warmup int) *Report {
	r := &Report{
		RunID:      runID,
		Stage:      stage,
		StartedAt:  time.Now().UTC(),
		Label:      t.Label,
		Iterations: t.Iterations,
		Warmup:     warmup,
		Partial:    !t.Complete(),
		Rows:       make([]ReportRow, t.Rows()),
	}
	for i := range r.Rows {
		r.Rows[i] = ReportRow{
			Config:  t.Configs[i],
			Filled:  t.Filled(i),
			Latency: Summarize(t.Row(i), warmup),
		}
		if v, ok := recallAt(recall, i); ok {
			r.Rows[i].Recall = &v
		}
	}
	return r
}

// WriteLatencyCSV writes t as a header line (label, iter1 (us), ..., iterN (us), recall)
// followed by one line per configuration. Unset cells and NaN recall are left empty.
// Paths ending in .zst are zstd-compressed.
func WriteLatencyCSV(path string, t *LatencyTable, recall []float64) error {
	return writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		header := make([]string, 0, t.Iterations+2)
		header = append(header, t.Label)
		for i := 1; i <= t.Iterations; i++ {
			header = append(header, fmt.Sprintf("iter%d (us)", i))
		}
		header = append(header, "recall")
		if err := cw.Write(header); err != nil {
			return err
		}
		rec := make([]string, len(header))
		for row := 0; row < t.Rows(); row++ {
			clear(rec)
			rec[0] = strconv.Itoa(t.Configs[row])
			for i, us := range t.Row(row) {
				rec[i+1] = strconv.FormatUint(us, 10)
			}
			if v, ok := recallAt(recall, row); ok {
				rec[len(rec)-1] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// WriteSummaryJSON 写入 JSON 汇总；.zst 结尾时压缩
func WriteSummaryJSON(path string, r *Report) error {
	return writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	})
}

// ResultPath 生成结果文件路径：<dir>/<base>_<kind>[_partial]<ext>
func ResultPath(dir, base, kind, ext string, partial bool) string {
	name := base + "_" + kind
	if partial {
		name += "_partial"
	}
	return filepath.Join(dir, name+ext)
}

func recallAt(recall []float64, i int) (float64, bool) {
	if i >= len(recall) || math.IsNaN(recall[i]) {
		return 0, false
	}
	return recall[i], true
}

// writeFile creates path (and its directory), optionally wraps it in a zstd encoder and
// calls fn. Errors wrap the underlying os error.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("metrics: create result dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("metrics: create result file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("metrics: close %s: %w", path, cerr)
		}
	}()
	if !strings.HasSuffix(path, ".zst") {
		if err := fn(f); err != nil {
			return fmt.Errorf("metrics: write %s: %w", path, err)
		}
		return nil
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("metrics: zstd: %w", err)
	}
	if err := fn(enc); err != nil {
		enc.Close()
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("metrics: flush %s: %w", path, err)
	}
	return nil
}
