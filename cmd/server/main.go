package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KenyYoshimura/event-aggregator-api/internal/cache"
	"github.com/KenyYoshimura/event-aggregator-api/internal/classify"
	"github.com/KenyYoshimura/event-aggregator-api/internal/config"
	"github.com/KenyYoshimura/event-aggregator-api/internal/httpclient"
	"github.com/KenyYoshimura/event-aggregator-api/internal/metrics"
	"github.com/KenyYoshimura/event-aggregator-api/internal/scheduler"
	"github.com/KenyYoshimura/event-aggregator-api/internal/server"
	"github.com/KenyYoshimura/event-aggregator-api/internal/service"
	"github.com/KenyYoshimura/event-aggregator-api/internal/source"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	client := httpclient.New(cfg.Fetch.Timeout, cfg.Fetch.UserAgent,
		httpclient.WithRateLimit(cfg.Fetch.RatePerSecond, cfg.Fetch.Burst),
	)

	m := metrics.New(prometheus.DefaultRegisterer)
	eventCache := cache.New(cfg.Cache.TTL)
	classifier := classify.New(cfg.Classifier.Keywords)

	orch := service.New(eventCache, classifier, logger,
		service.WithMetrics(m),
		service.WithFetchLimit(cfg.Fetch.MaxConcurrent),
	)

	// Build and register the configured datasets. Any mistake here is a
	// wiring error and must stop the process before it serves a request.
	for _, ds := range cfg.Datasets {
		adapters := make([]service.Adapter, 0, len(ds.Sources))
		for _, sc := range ds.Sources {
			adapter, err := source.FromConfig(sc, client, logger)
			if err != nil {
				logger.Error("failed to build source", "dataset", ds.Name, "error", err)
				os.Exit(1)
			}
			adapters = append(adapters, adapter)
		}
		if err := orch.RegisterDataset(ds.Name, ds.MaxItems, adapters...); err != nil {
			logger.Error("failed to register dataset", "dataset", ds.Name, "error", err)
			os.Exit(1)
		}
		logger.Info("registered dataset", "dataset", ds.Name, "sources", len(adapters))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if cfg.Cache.RefreshInterval > 0 {
		sched := scheduler.NewScheduler(orch, cfg.Cache.RefreshInterval, logger)
		go func() {
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scheduler error", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.New(orch, cfg.Datasets[0].Name, logger).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("starting event aggregator",
		"port", cfg.Server.Port,
		"datasets", len(cfg.Datasets),
		"cache_ttl", cfg.Cache.TTL,
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
