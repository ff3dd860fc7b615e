package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pario-ai/memogate/pkg/analyzer"
	"github.com/pario-ai/memogate/pkg/cache/lru"
	"github.com/pario-ai/memogate/pkg/config"
	"github.com/pario-ai/memogate/pkg/logging"
	"github.com/pario-ai/memogate/pkg/metrics"
	"github.com/pario-ai/memogate/pkg/models"
	"github.com/pario-ai/memogate/pkg/pipeline"
	"github.com/pario-ai/memogate/pkg/ratelimit"
	"github.com/pario-ai/memogate/pkg/router"
	"github.com/pario-ai/memogate/pkg/server"
	"github.com/pario-ai/memogate/pkg/tracker"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the memogate HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			cache, err := lru.New[models.Analysis](cfg.Cache.MaxSize, cfg.Cache.TTL,
				lru.WithLogger(log.With().Str("component", "cache").Logger()),
				lru.WithCleanupInterval(cfg.Cache.CleanupInterval),
			)
			if err != nil {
				return fmt.Errorf("init cache: %w", err)
			}
			defer cache.Close()

			limiter, err := ratelimit.New(ratelimit.Config{
				ShortLimit:   cfg.RateLimit.ShortLimit,
				ShortHorizon: cfg.RateLimit.ShortHorizon,
				LongLimit:    cfg.RateLimit.LongLimit,
				LongHorizon:  cfg.RateLimit.LongHorizon,
			},
				ratelimit.WithLogger(log.With().Str("component", "ratelimit").Logger()),
				ratelimit.WithSweepInterval(cfg.RateLimit.SweepInterval),
			)
			if err != nil {
				return fmt.Errorf("init limiter: %w", err)
			}
			defer limiter.Close()

			llm := analyzer.NewLLM(
				router.New(cfg.Providers, cfg.Router.Routes),
				cfg.Analyzer,
				log.With().Str("component", "analyzer").Logger(),
			)
			pipe := pipeline.New(cache, llm, log.With().Str("component", "pipeline").Logger())

			var tr tracker.Tracker
			if cfg.Tracker.Enabled {
				st, err := tracker.New(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("init tracker: %w", err)
				}
				defer func() { _ = st.Close() }()
				tr = st
			}

			var m *metrics.Metrics
			if cfg.Metrics.Enabled {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				m, err = metrics.New(reg, cache)
				if err != nil {
					return fmt.Errorf("init metrics: %w", err)
				}
			}

			srv := server.New(cfg, limiter, cache, pipe, tr, m, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().Str("config", configPath).Msg("starting memogate")

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.ListenAndServe(ctx) })
			if tr != nil && cfg.Tracker.Retention > 0 {
				g.Go(func() error {
					pruneLoop(ctx, tr, cfg.Tracker.Retention, log)
					return nil
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "memogate.yaml", "path to config file")
	return cmd
}

// pruneLoop drops request log rows older than the retention period.
func pruneLoop(ctx context.Context, tr tracker.Tracker, retention time.Duration, log zerolog.Logger) {
	interval := min(retention, time.Hour)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tr.Prune(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				log.Error().Err(err).Msg("prune request log")
				continue
			}
			if n > 0 {
				log.Info().Int64("rows", n).Msg("pruned request log")
			}
		}
	}
}
