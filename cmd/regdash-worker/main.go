package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"regdash/internal/amqp"
	"regdash/internal/cli"
	"regdash/internal/storage"
	"regdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	importSource := flag.String("import", "", "import this source once and exit (path or s3://bucket/key)")
	flag.Parse()

	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.ConfigureLogger(cfg)
	logger.Info("Starting regdash-worker")

	repo := cli.InitSQLite(context.Background(), logger, cfg.SQLiteDBPath)
	defer repo.Close()

	importer := worker.NewImportWorker(repo,
		worker.WithS3(cfg.AWSRegion, cfg.AWSProfile, worker.FileResolver))

	if *importSource != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		batch, err := importer.Import(ctx, storage.NewBatchID(), *importSource)
		if err != nil {
			logger.Error("Import failed", "error", err, "source", *importSource)
			os.Exit(1)
		}
		logger.Info("Import finished", "batch_id", batch.ID, "rows", batch.RowCount)
		return
	}

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required unless -import is given")
		os.Exit(1)
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	if latest, err := repo.LatestBatch(context.Background()); err == nil {
		logger.Info("Current batch", "batch_id", latest.ID, "source", latest.Source, "rows", latest.RowCount)
	} else if !errors.Is(err, storage.ErrNoBatch) {
		logger.Warn("Failed to read current batch", "error", err)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go func() {
		if err := client.ConsumeImportRequests(ctx, importer.HandleImportRequest); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
