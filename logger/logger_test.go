package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFlags(t *testing.T) {
	var buf bytes.Buffer
	l, err := FromFlags(&buf, "json", "debug")
	require.NoError(t, err)
	l.WithStage("build").Debug("hello", "k", 5)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "build", rec["stage"])
	assert.EqualValues(t, 5, rec["k"])

	_, err = FromFlags(&buf, "xml", "info")
	assert.Error(t, err)
	_, err = FromFlags(&buf, "text", "loud")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	lvl, err = ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
}

func TestLogHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, slog.LevelInfo)
	ctx := context.Background()

	l.LogBuild(ctx, "tree_leaf_512", 100, time.Second, nil)
	assert.Contains(t, buf.String(), "index built")

	buf.Reset()
	l.LogExport(ctx, "/nope/out.csv", errors.New("permission denied"))
	assert.Contains(t, buf.String(), "cannot write result file")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestNoop(t *testing.T) {
	l := Noop()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
