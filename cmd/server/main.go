package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"smartcity-air/internal/analytics"
	"smartcity-air/internal/auth"
	"smartcity-air/internal/cache"
	"smartcity-air/internal/config"
	"smartcity-air/internal/handlers"
	"smartcity-air/internal/history"
	"smartcity-air/internal/logging"
	"smartcity-air/internal/metrics"
	"smartcity-air/internal/scenario"
)

func main() {
	if err := run(); err != nil {
		slog.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("starting smart city air quality service", "port", cfg.ServerPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализация Redis
	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cache.Options{
		SnapshotTTL: cfg.SnapshotTTL,
		ReportTTL:   cfg.ReportTTL,
	})
	if err != nil {
		return err
	}
	defer redisCache.Close()
	slog.Info("connected to Redis", "addr", cfg.RedisAddr)

	store, err := history.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("history database opened", "path", cfg.DatabasePath)

	// Инициализация анализатора
	analyzer := analytics.NewAnalyzer(cfg.WindowSize, cfg.AnomalyThreshold, cfg.Thresholds())
	analyzer.Start(cfg.AnalyzerWorkers)
	slog.Info("analyzer started",
		"window_size", cfg.WindowSize,
		"threshold", cfg.AnomalyThreshold,
		"workers", cfg.AnalyzerWorkers,
	)

	handler := handlers.NewHandler(handlers.Deps{
		Cache:        redisCache,
		History:      store,
		Analyzer:     analyzer,
		Issuer:       auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Engine:       scenario.NewEngine(scenario.DefaultTuning().WithNoiseScale(cfg.NoiseScale)),
		Thresholds:   cfg.Thresholds(),
		LoginLimiter: rate.NewLimiter(rate.Limit(cfg.LoginRate), int(cfg.LoginRate)+1),
		CORSOrigins:  cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Результаты анализа читаются до закрытия канала в analyzer.Stop
	g.Go(func() error {
		return analytics.Drain(context.WithoutCancel(gctx), analyzer.GetResultsChan(), redisCache)
	})

	g.Go(func() error {
		cleanupHistory(gctx, store, cfg.HistoryRetention)
		return nil
	})

	g.Go(func() error {
		updateMetrics(gctx, analyzer)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		analyzer.Stop()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

// cleanupHistory удаляет устаревшие измерения раз в час
func cleanupHistory(ctx context.Context, store *history.Store, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Cleanup(ctx, time.Now().Add(-retention))
			metrics.HistoryOperations.WithLabelValues("cleanup", metrics.Status(err)).Inc()
			if err != nil {
				slog.Error("history cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("history cleanup", "deleted", n)
			}
		}
	}
}

// updateMetrics периодически обновляет gauge метрики анализатора
func updateMetrics(ctx context.Context, analyzer *analytics.Analyzer) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.ActiveSeries.Set(float64(analyzer.SeriesCount()))
			metrics.QueueSize.Set(float64(analyzer.QueueLen()))
		}
	}
}
