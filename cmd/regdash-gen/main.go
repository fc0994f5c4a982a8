// Command regdash-gen writes a synthetic registrations table and, when
// AMQP_URL is set, asks regdash-worker to import it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"regdash/internal/amqp"
	"regdash/internal/cli"
	"regdash/internal/generator"
	"regdash/internal/services"
	"regdash/internal/sources"
	"regdash/internal/sources/csvfile"
	"regdash/internal/sources/google"
	s3source "regdash/internal/sources/s3"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.ConfigureLogger(cfg)

	dest := flag.String("dest", "csv", "destination: csv, s3 or sheets")
	output := flag.String("output", cfg.DataFile, "CSV output path for -dest=csv")
	profile := flag.String("profile", cfg.GeneratorProfile, fmt.Sprintf("generator profile %v", generator.Profiles()))
	seed := flag.Uint64("seed", cfg.GeneratorSeed, "random seed")
	publish := flag.Bool("publish", cfg.AMQPURL != "", "publish an import request after writing")
	flag.Parse()

	gen, err := generator.New(generator.Profile(*profile), *seed)
	if err != nil {
		logger.Error("Invalid generator settings", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var (
		writer sources.ObservationWriter
		source string
	)
	switch *dest {
	case "csv":
		writer, source = csvfile.New(*output), *output
	case "s3":
		store, err := s3source.New(ctx, s3source.Config{
			Region:  cfg.AWSRegion,
			Profile: cfg.AWSProfile,
			Bucket:  cfg.S3Bucket,
			Key:     cfg.S3Key,
		})
		if err != nil {
			logger.Error("Failed to initialize S3 store", "error", err)
			os.Exit(1)
		}
		writer, source = store, fmt.Sprintf("s3://%s/%s", cfg.S3Bucket, cfg.S3Key)
	case "sheets":
		client, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer, source = client, "sheets:"+cfg.GoogleSpreadsheetID
		if *publish {
			logger.Warn("The import worker cannot read Google Sheets, not publishing")
			*publish = false
		}
	default:
		logger.Error("Unknown destination", "dest", *dest)
		os.Exit(2)
	}

	var publisher services.ImportPublisher
	if *publish {
		if cfg.AMQPURL == "" {
			logger.Error("Publishing requires AMQP_URL")
			os.Exit(2)
		}
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
	}

	obs := gen.Generate()
	msg, err := services.NewImportService(writer, publisher).Publish(ctx, source, obs)
	if err != nil {
		logger.Error("Failed to write registrations", "error", err, "source", source)
		os.Exit(1)
	}

	attrs := []any{"source", source, "rows", len(obs), "profile", *profile, "seed", *seed}
	if msg != nil {
		attrs = append(attrs, "batch_id", msg.ID)
	}
	logger.Info("Registrations written", attrs...)
}
