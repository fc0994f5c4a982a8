// Package s3 reads and writes the registrations table as a CSV object in an
// S3 bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"regdash/internal/core"
	"regdash/internal/dataset"
	ports "regdash/internal/sources"
)

var (
	_ ports.ObservationReader = (*Store)(nil)
	_ ports.ObservationWriter = (*Store)(nil)
)

// API is the subset of the S3 client used by Store.
type API interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

type Config struct {
	Profile string // Primarily for dev purposes
	Region  string
	Bucket  string
	Key     string
}

// Store is a single CSV object.
type Store struct {
	client API
	bucket string
	key    string
}

// LoadAWSConfig resolves credentials and region from the default chain.
func (c Config) LoadAWSConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(c.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return cfg, nil
}

// New builds an S3 client from cfg and returns a store for cfg.Bucket/cfg.Key.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, errors.New("missing S3_BUCKET or S3_KEY")
	}
	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for S3 client: %w", err)
	}
	return NewWithClient(awss3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Key), nil
}

// NewWithClient returns a store backed by an existing client.
func NewWithClient(client API, bucket, key string) *Store {
	return &Store{client: client, bucket: bucket, key: key}
}

// ReadObservations implements ports.ObservationReader
func (s *Store) ReadObservations(ctx context.Context) ([]core.Observation, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	obs, err := dataset.ParseCSV(out.Body)
	if err != nil {
		return nil, fmt.Errorf("parse s3://%s/%s: %w", s.bucket, s.key, err)
	}
	slog.InfoContext(ctx, "Registrations read from S3", "bucket", s.bucket, "key", s.key, "rows", len(obs))
	return obs, nil
}

// WriteObservations uploads obs as CSV, replacing the object.
func (s *Store) WriteObservations(ctx context.Context, obs []core.Observation) error {
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, obs); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}
