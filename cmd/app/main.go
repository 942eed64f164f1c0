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

	"go.uber.org/zap"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/config"
	"imagecompressor/internal/db"
	"imagecompressor/internal/handler"
	"imagecompressor/internal/janitor"
	"imagecompressor/internal/logger"
	"imagecompressor/internal/metrics"
	"imagecompressor/internal/middleware"
	"imagecompressor/internal/settings"
	"imagecompressor/internal/storage"
	"imagecompressor/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New("imagecompressor", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Errorw("exiting", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	trusted, err := middleware.ParseTrustedProxyCIDRs(cfg.TrustedProxyCIDRs)
	if err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	store := storage.New(cfg.DataDir)
	if err := store.Init(); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	database, err := db.InitDB(ctx, cfg.DatabasePath, log)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	defer database.Close()

	comp := compressor.New(log, compressor.WithMaxDimension(cfg.MaxDimension))
	builder, err := settings.NewBuilder(cfg.Compression.WatermarkFont)
	if err != nil {
		return err
	}
	events := metrics.New(database, log)
	defaults := settings.FromConfig(cfg.Compression)

	w := worker.NewWorker(database, store, comp, builder, events, log, worker.Config{
		Interval: cfg.WorkerInterval,
		Defaults: defaults,
	})
	w.Start(ctx)
	defer w.Stop()

	j := janitor.New(janitor.Config{
		DB:                database,
		Store:             store,
		Log:               log,
		Interval:          cfg.JanitorInterval,
		ArtifactRetention: cfg.ArtifactRetention,
		EventRetention:    cfg.EventRetention,
	})
	j.Start(ctx)
	defer j.Stop()

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		LockoutDuration:   5 * time.Minute,
		MaxViolations:     10,
		TrustedProxyCIDRs: trusted,
		Log:               log,
	})
	defer limiter.Stop()

	h := handler.New(database, store, comp, builder, events, w, log, handler.Config{
		UploadLimit: cfg.UploadLimit,
		Defaults:    defaults,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           h.NewRouter(limiter.Middleware()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server: listening", "addr", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		// Unblocks the worker and janitor before their deferred Stop.
		stop()
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
