package backend

import (
	"context"

	"regdash/internal/sources"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the observation reader and optional cleanup function
type BackendResult struct {
	Reader sources.ObservationReader
	// Source describes where observations come from, for logs and /metrics.
	Source  string
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a reader for the registrations table
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// CSV specific
	DataFile          string
	GenerateIfMissing bool
	GeneratorProfile  string
	GeneratorSeed     uint64

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// S3 specific
	S3Bucket   string
	S3Key      string
	AWSRegion  string
	AWSProfile string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	S3Backend     BackendType = "s3"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SQLiteBackend, SheetsBackend, S3Backend:
		return true
	default:
		return false
	}
}
