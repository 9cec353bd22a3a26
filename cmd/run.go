package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"triz/config"
	"triz/engine"
	"triz/metrics"
	"triz/searcher"
	"triz/tree"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation until the tree is complete",
	Long: `Runs the expansion loop until every node above the max depth is expanded.
Interrupting the run (Ctrl-C) pauses it: the in-flight tick is discarded and
the tree is left as of the last merge.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dump, _ := cmd.Flags().GetString("dump")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runSimulation(ctx, cfg, dump)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.Int("max-depth", engine.DefaultMaxDepth, "deepest level that receives generated nodes")
	flags.Duration("step-delay", engine.DefaultStepDelay, "wall-clock budget of one tick")
	flags.Uint64("seed", 0, "random seed for the oracle and batch sizes (0 = time based)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.String("dump", "", "write the final tree as YAML to this file")

	_ = viper.BindPFlag("simulation.max_depth", flags.Lookup("max-depth"))
	_ = viper.BindPFlag("simulation.step_delay", flags.Lookup("step-delay"))
	_ = viper.BindPFlag("oracle.seed", flags.Lookup("seed"))
	_ = viper.BindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
}

func runSimulation(ctx context.Context, cfg *config.Config, dump string) error {
	collector := metrics.NewCollector()
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		collector = metrics.NewPrometheusCollector(reg)

		srv := serveMetrics(cfg.Metrics.Addr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	options := append(cfg.EngineOptions(),
		engine.WithMetrics(collector),
		engine.WithObserver(engine.NewLogObserver(log.Logger)),
		engine.WithLogger(log.Logger),
	)
	e := engine.New(options...)
	if len(searcher.FindExpandable(e.Tree(), cfg.Simulation.MaxDepth)) == 0 {
		log.Warn().Msg("no nodes to expand")
	}

	outcome, err := e.Run(ctx, cfg.EngineConfig())

	stats := e.Stats()
	run := e.LastRun()
	log.Info().
		Stringer("outcome", outcome).
		Int("ticks", run.Ticks).
		Int("nodes", stats.TotalNodes).
		Int("expanded", stats.ExpandedNodes).
		Int("unexpanded", stats.UnexpandedNodes).
		Int("max_level", stats.MaxLevel).
		Dur("elapsed", run.Duration).
		Msg("simulation finished")

	if dump != "" {
		if dumpErr := dumpTree(dump, e.Tree()); dumpErr != nil {
			return errors.Join(err, dumpErr)
		}
		log.Info().Str("file", dump).Msg("tree written")
	}
	return err
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	return srv
}

func dumpTree(path string, root *tree.Node) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("failed to encode tree: %w", err)
	}
	return enc.Close()
}
