package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"regdash/internal/backend"
	"regdash/internal/cli"
	apphttp "regdash/internal/http"
	"regdash/internal/log"
	"regdash/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.ConfigureLogger(cfg)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 2*time.Minute)
	ds, source, err := backend.LoadDataset(loadCtx, backend.NewFactory(logger), backend.FromAppConfig(cfg))
	cancelLoad()
	if err != nil {
		logger.Error("Failed to load dataset", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if ds.Len() == 0 {
		logger.Warn("Dataset is empty, the dashboard will show no data", "source", source)
	}

	dashboard := services.NewDashboardService(ds,
		services.WithSummaryCache(cfg.CacheSize, cfg.CacheTTL),
		services.WithSource(source))

	srv := apphttp.NewServer(":"+cfg.Port, dashboard, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             log.New(logger.Handler(), log.ComponentHTTP),
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting regdash server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"source", source,
		"rows", ds.Len())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
