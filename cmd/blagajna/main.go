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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/erazemk/blagajna/internal/api"
	"github.com/erazemk/blagajna/internal/config"
	"github.com/erazemk/blagajna/internal/db"
	"github.com/erazemk/blagajna/internal/imaging"
	"github.com/erazemk/blagajna/internal/inventory"
	"github.com/erazemk/blagajna/internal/store"
	"github.com/erazemk/blagajna/internal/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv, os.Stdout)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// INFO/WARN → stdout, ERROR → stderr, optionally everything to a file.
	logger, closeLog, err := telemetry.NewLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OtelEndpoint, version, cfg.OtelInsecure)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("flushing traces", zap.Error(err))
		}
	}()

	database, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return err
	}
	logger.Info("database ready", zap.String("driver", database.DriverName()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(reg)

	retries := cfg.MaxRetries
	if retries == 0 {
		retries = -1
	}
	s := store.New(database, store.Options{
		Timeout:    cfg.OpTimeout,
		MaxRetries: retries,
		OnRetry: func(op string, err error) {
			metrics.StoreRetries.WithLabelValues(op).Inc()
			logger.Warn("retrying store operation", zap.String("op", op), zap.Error(err))
		},
	})

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	router := api.NewRouter(api.Deps{
		Catalog: inventory.NewCatalog(s, imaging.NewQRGenerator(cfg.ImagesDir, cfg.QRSize), logger, metrics),
		Ledger:  inventory.NewLedger(s, logger, metrics),
		Reports: inventory.NewReports(s, logger, metrics, inventory.ReportOptions{
			LowStockThreshold: cfg.LowStock,
			TopLimit:          cfg.TopLimit,
		}),
		DB:        database,
		ImagesDir: cfg.ImagesDir,
		Logger:    logger,
		Metrics:   metrics,
		Gatherer:  reg,
		Limiter:   limiter,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info("server stopped, closing database")
	return nil
}
