package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"regdash/internal/core"
	ports "regdash/internal/sources"

	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var ErrNoBatch = errors.New("no import batch recorded")

var (
	_ ports.ObservationReader = (*SQLiteRepository)(nil)
	_ ports.ObservationWriter = (*SQLiteRepository)(nil)
)

// Batch records one replacement of the registrations table.
type Batch struct {
	ID         string
	Source     string
	RowCount   int64
	ImportedAt time.Time
}

type batchRow struct {
	ID         string `db:"id"`
	Source     string `db:"source"`
	RowCount   int64  `db:"row_count"`
	ImportedAt string `db:"imported_at"`
}

type registrationRow struct {
	BatchID       string          `db:"batch_id"`
	Date          string          `db:"date"`
	Category      string          `db:"category"`
	Manufacturer  string          `db:"manufacturer"`
	Registrations int64           `db:"registrations"`
	YoYGrowthPct  sql.NullFloat64 `db:"yoy_growth_pct"`
	QoQGrowthPct  sql.NullFloat64 `db:"qoq_growth_pct"`
}

type SQLiteRepository struct {
	db *sqlx.DB
}

func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// NewBatchID returns a fresh, time-ordered batch identifier.
func NewBatchID() string {
	return ulid.Make().String()
}

// ReplaceObservations swaps the registrations table for obs in a single
// transaction and records the import batch. A failure leaves the previous
// table intact.
func (r *SQLiteRepository) ReplaceObservations(ctx context.Context, batchID, source string, obs []core.Observation) (Batch, error) {
	for i, o := range obs {
		if err := o.Validate(); err != nil {
			return Batch{}, fmt.Errorf("observation %d: %w", i, err)
		}
	}
	if batchID == "" {
		batchID = NewBatchID()
	}
	batch := Batch{
		ID:         batchID,
		Source:     source,
		RowCount:   int64(len(obs)),
		ImportedAt: time.Now().UTC().Truncate(time.Second),
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Batch{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO import_batches (id, source, row_count, imported_at)
		 VALUES (:id, :source, :row_count, :imported_at)`,
		batchRow{
			ID:         batch.ID,
			Source:     batch.Source,
			RowCount:   batch.RowCount,
			ImportedAt: batch.ImportedAt.Format(time.RFC3339),
		})
	if err != nil {
		return Batch{}, fmt.Errorf("insert batch %s: %w", batch.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM registrations`); err != nil {
		return Batch{}, fmt.Errorf("clear registrations: %w", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx,
		`INSERT INTO registrations
		   (batch_id, date, category, manufacturer, registrations, yoy_growth_pct, qoq_growth_pct)
		 VALUES
		   (:batch_id, :date, :category, :manufacturer, :registrations, :yoy_growth_pct, :qoq_growth_pct)`)
	if err != nil {
		return Batch{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, toRow(batch.ID, o)); err != nil {
			return Batch{}, fmt.Errorf("insert registration: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Batch{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Registrations replaced",
		"batch_id", batch.ID,
		"source", batch.Source,
		"rows", batch.RowCount)
	return batch, nil
}

// WriteObservations implements ports.ObservationWriter
func (r *SQLiteRepository) WriteObservations(ctx context.Context, obs []core.Observation) error {
	_, err := r.ReplaceObservations(ctx, "", "direct", obs)
	return err
}

// ReadObservations implements ports.ObservationReader
func (r *SQLiteRepository) ReadObservations(ctx context.Context) ([]core.Observation, error) {
	var rows []registrationRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT batch_id, date, category, manufacturer, registrations, yoy_growth_pct, qoq_growth_pct
		 FROM registrations
		 ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("select registrations: %w", err)
	}

	out := make([]core.Observation, 0, len(rows))
	for _, row := range rows {
		o, err := row.observation()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// LatestBatch returns the most recent import batch.
func (r *SQLiteRepository) LatestBatch(ctx context.Context) (Batch, error) {
	return r.getBatch(ctx,
		`SELECT id, source, row_count, imported_at
		 FROM import_batches
		 ORDER BY imported_at DESC, id DESC
		 LIMIT 1`)
}

// BatchByID returns the import batch with id, or ErrNoBatch when it was
// never applied.
func (r *SQLiteRepository) BatchByID(ctx context.Context, id string) (Batch, error) {
	return r.getBatch(ctx,
		`SELECT id, source, row_count, imported_at
		 FROM import_batches
		 WHERE id = ?`, id)
}

func (r *SQLiteRepository) getBatch(ctx context.Context, query string, args ...any) (Batch, error) {
	var row batchRow
	err := r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, ErrNoBatch
	}
	if err != nil {
		return Batch{}, fmt.Errorf("select batch: %w", err)
	}
	importedAt, err := time.Parse(time.RFC3339, row.ImportedAt)
	if err != nil {
		return Batch{}, fmt.Errorf("batch %s: parse imported_at: %w", row.ID, err)
	}
	return Batch{ID: row.ID, Source: row.Source, RowCount: row.RowCount, ImportedAt: importedAt}, nil
}

func toRow(batchID string, o core.Observation) registrationRow {
	row := registrationRow{
		BatchID:       batchID,
		Date:          o.Date.String(),
		Category:      o.Category,
		Manufacturer:  o.Manufacturer,
		Registrations: o.Registrations,
	}
	if o.YoYGrowthPct != nil {
		row.YoYGrowthPct = sql.NullFloat64{Float64: *o.YoYGrowthPct, Valid: true}
	}
	if o.QoQGrowthPct != nil {
		row.QoQGrowthPct = sql.NullFloat64{Float64: *o.QoQGrowthPct, Valid: true}
	}
	return row
}

func (row registrationRow) observation() (core.Observation, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Observation{}, fmt.Errorf("batch %s: %w", row.BatchID, err)
	}
	o := core.Observation{
		Date:          date,
		Category:      row.Category,
		Manufacturer:  row.Manufacturer,
		Registrations: row.Registrations,
	}
	if row.YoYGrowthPct.Valid {
		v := row.YoYGrowthPct.Float64
		o.YoYGrowthPct = &v
	}
	if row.QoQGrowthPct.Valid {
		v := row.QoQGrowthPct.Float64
		o.QoQGrowthPct = &v
	}
	return o, nil
}
