// 压测入口：build | topk | query
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ic-timon/annbench/bench/config"
	"github.com/ic-timon/annbench/bench/harness"
	"github.com/ic-timon/annbench/bench/metrics"
	"github.com/ic-timon/annbench/logger"
)

var version = "dev" // -ldflags "-X main.version=..."

// app is the state shared by every subcommand of one invocation.
type app struct {
	configPath string

	cfg        *config.Config
	log        *logger.Logger
	collectors *metrics.Collectors
	runID      string
	server     *http.Server
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:   "annbench",
		Short: "Latency and recall benchmarks for the tree ANN index",
		Long: `annbench builds tree indexes in parallel and measures single-threaded query
latency and recall against exact or file-based ground truth.

Stages:
  build  one saved index per leaf size × block size × metric
  topk   synthetic corpus, latency sweep over k
  query  repeated single queries on a saved index, per search width`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file (defaults apply to missing keys)")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-format", "text", "text or json")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	pf.String("metrics-file", "", "write Prometheus metrics to this textfile at exit")

	root.AddCommand(newBuildCmd(a), newTopKCmd(a), newQueryCmd(a))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// 不需要加载配置
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "annbench %s\n", version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		if a.log != nil {
			a.log.Error("benchmark failed", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, "annbench:", err)
		}
		os.Exit(1)
	}
}

// setup loads the configuration, applies global flag overrides and starts the metrics
// endpoint.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile, _ = flags.GetString("metrics-file")
	}
	l, err := logger.FromFlags(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.runID = harness.NewRunID()
	a.log = l.WithRun(a.runID)
	a.collectors = metrics.NewCollectors()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.collectors.Handler())
		a.server = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server stopped", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		a.log.Info("serving metrics", "addr", cfg.MetricsAddr)
	}
	return nil
}

// close flushes the metrics textfile and stops the metrics endpoint. It runs whether or
// not the command failed.
func (a *app) close() {
	if a.cfg == nil {
		return
	}
	if a.cfg.MetricsFile != "" {
		a.log.LogExport(context.Background(), a.cfg.MetricsFile, a.collectors.WriteTextfile(a.cfg.MetricsFile))
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.server.Shutdown(ctx)
	}
}

// intsFlag copies an int slice flag into dst when it was set on the command line.
func intsFlag(cmd *cobra.Command, name string, dst *[]int) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetIntSlice(name)
	}
}

// intFlag copies an int flag into dst when it was set on the command line.
func intFlag(cmd *cobra.Command, name string, dst *int) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}
