// Package logger wraps log/slog with the field names used across the benchmark stages.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog.Logger with benchmark-specific helpers.
type Logger struct {
	*slog.Logger
}

// New creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func New(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewText creates a Logger that writes human-readable text logs to w.
func NewText(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSON creates a Logger that writes JSON logs to w.
func NewJSON(w io.Writer, level slog.Level) *Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Noop creates a Logger that discards all output.
func Noop() *Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	}))
}

// FromFlags builds a Logger from --log-format and --log-level values.
func FromFlags(w io.Writer, format, level string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", "text":
		return NewText(w, lvl), nil
	case "json":
		return NewJSON(w, lvl), nil
	default:
		return nil, fmt.Errorf("logger: unknown format %q (want text or json)", format)
	}
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logger: %w", err)
	}
	return lvl, nil
}

// WithStage tags records with the benchmark stage (build, topk, query).
func (l *Logger) WithStage(stage string) *Logger {
	return &Logger{Logger: l.Logger.With("stage", stage)}
}

// WithIndex tags records with the index name.
func (l *Logger) WithIndex(name string) *Logger {
	return &Logger{Logger: l.Logger.With("index", name)}
}

// WithRun tags records with the run id.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{Logger: l.Logger.With("run_id", id)}
}

// LogBuild logs the outcome of one index build.
func (l *Logger) LogBuild(ctx context.Context, name string, count int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"index", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index built",
		"index", name,
		"count", count,
		"elapsed", elapsed,
		"units_per_sec", float64(count)/max(elapsed.Seconds(), 1e-9),
	)
}

// LogExport logs the outcome of writing a result file.
func (l *Logger) LogExport(ctx context.Context, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cannot write result file",
			"path", path,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "result file written",
		"path", path,
	)
}

// LogSummary logs per-configuration latency and recall.
func (l *Logger) LogSummary(ctx context.Context, label string, value int, meanUs, p99Us, recall float64) {
	l.InfoContext(ctx, "configuration measured",
		label, value,
		"mean_us", meanUs,
		"p99_us", p99Us,
		"recall", recall,
	)
}
