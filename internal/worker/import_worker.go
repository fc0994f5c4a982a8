package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"regdash/internal/amqp"
	"regdash/internal/core"
	"regdash/internal/sources"
	"regdash/internal/sources/csvfile"
	s3source "regdash/internal/sources/s3"
	"regdash/internal/storage"
)

// BatchStore is the flat-table store the worker loads into.
type BatchStore interface {
	ReplaceObservations(ctx context.Context, batchID, source string, obs []core.Observation) (storage.Batch, error)
	BatchByID(ctx context.Context, id string) (storage.Batch, error)
}

// Resolver maps an import source string to a reader.
type Resolver func(ctx context.Context, source string) (sources.ObservationReader, error)

// FileResolver reads plain paths as CSV files and rejects other schemes.
func FileResolver(ctx context.Context, source string) (sources.ObservationReader, error) {
	if scheme, _, ok := strings.Cut(source, "://"); ok {
		return nil, fmt.Errorf("unsupported import source scheme %q", scheme)
	}
	return csvfile.New(source), nil
}

// WithS3 extends next with s3://bucket/key sources read through the AWS SDK
// default credential chain.
func WithS3(region, profile string, next Resolver) Resolver {
	return func(ctx context.Context, source string) (sources.ObservationReader, error) {
		rest, ok := strings.CutPrefix(source, "s3://")
		if !ok {
			return next(ctx, source)
		}
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("invalid s3 source %q", source)
		}
		return s3source.New(ctx, s3source.Config{Region: region, Profile: profile, Bucket: bucket, Key: key})
	}
}

// ImportWorker loads registrations tables named by import requests into the
// flat-table store.
type ImportWorker struct {
	store   BatchStore
	resolve Resolver
}

func NewImportWorker(store BatchStore, resolve Resolver) *ImportWorker {
	if resolve == nil {
		resolve = FileResolver
	}
	return &ImportWorker{store: store, resolve: resolve}
}

// HandleImportRequest processes a single import request message from AMQP.
// Any batch that was already applied is skipped, not only the latest one.
func (w *ImportWorker) HandleImportRequest(ctx context.Context, msg *amqp.ImportRequestMessage) error {
	_, err := w.store.BatchByID(ctx, msg.ID)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Import request already applied, skipping", "id", msg.ID)
		return nil
	case !errors.Is(err, storage.ErrNoBatch):
		return fmt.Errorf("look up batch %s: %w", msg.ID, err)
	}

	_, err = w.Import(ctx, msg.ID, msg.Source)
	return err
}

// Import reads source and replaces the stored table with it.
func (w *ImportWorker) Import(ctx context.Context, batchID, source string) (storage.Batch, error) {
	reader, err := w.resolve(ctx, source)
	if err != nil {
		return storage.Batch{}, err
	}
	obs, err := reader.ReadObservations(ctx)
	if err != nil {
		return storage.Batch{}, fmt.Errorf("read %s: %w", source, err)
	}
	batch, err := w.store.ReplaceObservations(ctx, batchID, source, obs)
	if err != nil {
		return storage.Batch{}, fmt.Errorf("store batch: %w", err)
	}

	slog.InfoContext(ctx, "Import completed",
		"batch_id", batch.ID,
		"source", source,
		"rows", batch.RowCount)
	return batch, nil
}
