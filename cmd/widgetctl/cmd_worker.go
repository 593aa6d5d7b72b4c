package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"sitewidgets/pkg/refresh"
	"sitewidgets/pkg/store"
	"sitewidgets/pkg/widgetdata"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh cached payloads for a site from the fetch directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, closeStore, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer closeStore()

		byKind := refreshers(s, cfg)
		var errs []error
		for _, kind := range refresh.PayloadKinds(widgetdata.Kinds(cfg.Jetpack)) {
			if err := byKind[kind].Refresh(ctx, siteFlag); err != nil {
				logger.Warn("refresh failed", slog.String("widget", string(kind)), slog.String("site_id", siteFlag), slog.String("error", err.Error()))
				errs = append(errs, fmt.Errorf("%s: %w", kind, err))
				continue
			}
			logger.Info("payload refreshed", slog.String("widget", string(kind)), slog.String("site_id", siteFlag))
		}
		return errors.Join(errs...)
	},
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue background refreshes for a site",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := openRiverPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		// Insert-only client: no queues, no workers.
		client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{Logger: logger})
		if err != nil {
			return fmt.Errorf("failed to create river client: %w", err)
		}
		if err := refresh.EnqueueSite(ctx, client, siteFlag, widgetdata.Kinds(cfg.Jetpack)); err != nil {
			return err
		}
		logger.Info("refresh queued", slog.String("site_id", siteFlag))
		return nil
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the River refresh worker and the metrics endpoint",
	Long: `Run the background refresh worker.

Jobs are consumed from River's Postgres tables (migrated on start). Payloads
are read from the fetch directory and written to the configured store.
Prometheus metrics are served on the configured address at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker(cmd.Context())
	},
}

func init() {
	refreshCmd.Flags().StringVarP(&siteFlag, "site", "s", "", "site id")
	refreshCmd.MarkFlagRequired("site")
	enqueueCmd.Flags().StringVarP(&siteFlag, "site", "s", "", "site id")
	enqueueCmd.MarkFlagRequired("site")
}

func openRiverPool(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Refresh.DatabaseURL == "" {
		return nil, errors.New("refresh.database_url is required")
	}
	pool, err := pgxpool.New(ctx, cfg.Refresh.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return pool, nil
}

func runWorker(ctx context.Context) error {
	s, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	pool, err := openRiverPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("failed to migrate river schema: %w", err)
	}

	// Metrics: Prometheus for scraping, OTel for whatever exporter the
	// global providers are wired to.
	registry := prometheus.NewRegistry()
	promObserver := widgetdata.NewPrometheusObserver(cfg.Metrics.Namespace, registry)
	otelObserver, err := widgetdata.NewOTelObserver(otel.Tracer("sitewidgets"), otel.Meter("sitewidgets"))
	if err != nil {
		return err
	}
	observer := &widgetdata.MultiObserver{Observers: []widgetdata.Observer{
		promObserver,
		otelObserver,
		widgetdata.NewSlogObserver(logger, slog.LevelInfo),
	}}

	worker := refresh.NewRefreshWorker(refreshers(s, cfg))
	worker.JobTimeout = cfg.Refresh.JobTimeout
	workers := river.NewWorkers()
	refresh.Register(workers, worker)

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.Refresh.MaxWorkers},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create river client: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/resolve", resolveHandler(s, observer))
	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()

	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start river client: %w", err)
	}
	logger.Info("refresh worker started", slog.String("metrics_addr", cfg.Metrics.Addr), slog.Int("max_workers", cfg.Refresh.MaxWorkers))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv.Shutdown(shutdownCtx)
	if err := client.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop river client: %w", err)
	}
	logger.Info("refresh worker stopped")
	return nil
}

// resolveHandler serves GET /resolve?widget=today&site=123 so the worker's
// view of a widget can be checked against what the widget renders.
func resolveHandler(s store.Store, observer widgetdata.Observer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := widgetdata.ParseKind(r.URL.Query().Get("widget"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := resolveWidget(r.Context(), s, kind, widgetdata.Identifier(r.URL.Query().Get("site")), cfg.DefaultSite(), cfg.Jetpack, observer)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := writeJSON(w, res); err != nil {
			logger.Warn("write resolve response", slog.String("error", err.Error()))
		}
	}
}
