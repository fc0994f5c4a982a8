package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"regdash/internal/core"
	"regdash/internal/generator"
	"regdash/internal/sources/csvfile"
	"regdash/internal/sources/google"
	"regdash/internal/sources/s3"
	"regdash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case S3Backend:
		return f.createS3Backend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVBackend(config Config) (*BackendResult, error) {
	src := &csvfile.Source{
		Path:     config.DataFile,
		Generate: config.GenerateIfMissing,
		Profile:  generator.Profile(config.GeneratorProfile),
		Seed:     config.GeneratorSeed,
	}

	f.logger.Info("Initialized CSV backend",
		"path", config.DataFile,
		"generate_if_missing", config.GenerateIfMissing)

	return &BackendResult{Reader: src, Source: "csv:" + config.DataFile}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(ctx, config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	source := "sqlite:" + config.SQLiteDBPath
	batch, err := repo.LatestBatch(ctx)
	switch {
	case err == nil:
		source += "#" + batch.ID
		f.logger.Info("Initialized SQLite backend",
			"db_path", config.SQLiteDBPath,
			"batch_id", batch.ID,
			"rows", batch.RowCount,
			"imported_at", batch.ImportedAt)
	case errors.Is(err, storage.ErrNoBatch):
		f.logger.Warn("SQLite backend has no imported batch yet", "db_path", config.SQLiteDBPath)
	default:
		repo.Close()
		return nil, fmt.Errorf("failed to read latest import batch: %w", err)
	}

	return &BackendResult{
		Reader:  repo,
		Source:  source,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := google.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)

	return &BackendResult{
		Reader: cli,
		Source: "sheets:" + config.GoogleSheetName,
	}, nil
}

func (f *DefaultFactory) createS3Backend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := s3.New(ctx, s3.Config{
		Profile: config.AWSProfile,
		Region:  config.AWSRegion,
		Bucket:  config.S3Bucket,
		Key:     config.S3Key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	f.logger.Info("Initialized S3 backend", "bucket", config.S3Bucket, "key", config.S3Key)

	return &BackendResult{
		Reader: store,
		Source: "s3://" + config.S3Bucket + "/" + config.S3Key,
	}, nil
}

// LoadDataset creates the configured backend, reads every observation once
// and releases the backend. The returned dataset is never reloaded.
func LoadDataset(ctx context.Context, factory Factory, config Config) (*core.Dataset, string, error) {
	result, err := factory.CreateBackend(ctx, config)
	if err != nil {
		return nil, "", err
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				slog.WarnContext(ctx, "Backend cleanup failed", "error", err)
			}
		}()
	}

	start := time.Now()
	obs, err := result.Reader.ReadObservations(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("read observations from %s: %w", result.Source, err)
	}
	ds, err := core.NewDataset(obs)
	if err != nil {
		return nil, "", fmt.Errorf("build dataset from %s: %w", result.Source, err)
	}

	minDate, maxDate := ds.DateRange()
	slog.InfoContext(ctx, "Dataset loaded",
		"source", result.Source,
		"rows", ds.Len(),
		"categories", len(ds.Categories()),
		"from", minDate,
		"to", maxDate,
		"duration", time.Since(start))
	return ds, result.Source, nil
}
