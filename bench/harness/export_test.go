package harness

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ic-timon/annbench/bench/metrics"
)

func TestNames(t *testing.T) {
	assert.Equal(t, "1-ST-CPU_dim_960_nb_1000000_leaf_512_block_64", TopKBase(960, 1_000_000, 512, 64))
	assert.Equal(t,
		"1-ST-CPU_dim_960_nb_1000000_tree_leaf_512_block_64_l2_searchwidth_3_same_vector",
		QueryBase(960, 1_000_000, "/idx/tree_leaf_512_block_64_l2.bin", 3))
}

func TestNewRunID(t *testing.T) {
	id := NewRunID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewRunID())
}

func TestExporter_CompleteAndPartial(t *testing.T) {
	dir := t.TempDir()
	e := &Exporter{Dir: dir, RunID: NewRunID(), Params: map[string]any{"dim": 8}}

	m := newMeasurement("k", []int{1, 5}, 2)
	for row := 0; row < 2; row++ {
		for i := 0; i < 2; i++ {
			require.NoError(t, m.Table.Append(row, time.Duration(10+i)*time.Microsecond))
		}
		m.Recall[row] = 1
	}
	csvPath := e.Export(context.Background(), "topk", "base", m, 0)
	assert.Equal(t, filepath.Join(dir, "base_latencies.csv"), csvPath)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "k,iter1 (us),iter2 (us),recall\n"))

	raw, err := os.ReadFile(filepath.Join(dir, "base_summary.json"))
	require.NoError(t, err)
	var r metrics.Report
	require.NoError(t, json.Unmarshal(raw, &r))
	assert.Equal(t, e.RunID, r.RunID)
	assert.Equal(t, "topk", r.Stage)
	assert.False(t, r.Partial)
	require.Len(t, r.Rows, 2)
	require.NotNil(t, r.Rows[1].Recall)

	// 中断的测量写入 _partial 文件
	p := newMeasurement("k", []int{1, 5}, 2)
	require.NoError(t, p.Table.Append(0, time.Microsecond))
	e.Compress = true
	csvPath = e.Export(context.Background(), "topk", "base", p, 0)
	assert.Equal(t, filepath.Join(dir, "base_latencies_partial.csv.zst"), csvPath)
	_, err = os.Stat(csvPath)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "base_summary_partial.json"))
	require.NoError(t, err)
}

func TestExporter_WriteFailureDoesNotPanic(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	e := &Exporter{Dir: filepath.Join(blocker, "sub"), RunID: "x"}
	m := newMeasurement("k", []int{1}, 1)
	path := e.Export(context.Background(), "topk", "base", m, 0)
	_, err := os.Stat(path)
	assert.Error(t, err)
}
