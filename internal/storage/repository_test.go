package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"regdash/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "db", "regdash.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func ptr(f float64) *float64 { return &f }

func TestReplaceAndReadObservations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := []core.Observation{
		{Date: core.NewDate(2024, 2, 1), Category: "Car", Manufacturer: "Ford", Registrations: 50, QoQGrowthPct: ptr(-2.5)},
		{Date: core.NewDate(2024, 1, 1), Category: "Car", Manufacturer: "Toyota", Registrations: 100, YoYGrowthPct: ptr(12)},
		{Date: core.NewDate(2024, 1, 1), Category: "Truck", Manufacturer: "MAN", Registrations: 0},
	}
	batch, err := repo.ReplaceObservations(ctx, "", "test.csv", in)
	if err != nil {
		t.Fatalf("ReplaceObservations: %v", err)
	}
	if batch.ID == "" || batch.RowCount != 3 || batch.Source != "test.csv" {
		t.Fatalf("unexpected batch %+v", batch)
	}

	out, err := repo.ReadObservations(ctx)
	if err != nil {
		t.Fatalf("ReadObservations: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(out))
	}
	// ordered by date, then insertion order
	if out[0].Manufacturer != "Toyota" || out[1].Manufacturer != "MAN" || out[2].Manufacturer != "Ford" {
		t.Fatalf("unexpected order: %s, %s, %s", out[0].Manufacturer, out[1].Manufacturer, out[2].Manufacturer)
	}
	if out[0].YoYGrowthPct == nil || *out[0].YoYGrowthPct != 12 || out[0].QoQGrowthPct != nil {
		t.Errorf("growth columns not preserved: %+v", out[0])
	}
	if out[2].QoQGrowthPct == nil || *out[2].QoQGrowthPct != -2.5 {
		t.Errorf("qoq not preserved: %+v", out[2])
	}
}

func TestReplaceObservationsReplacesTable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []core.Observation{
		{Date: core.NewDate(2024, 1, 1), Category: "Car", Manufacturer: "Toyota", Registrations: 100},
		{Date: core.NewDate(2024, 2, 1), Category: "Car", Manufacturer: "Toyota", Registrations: 110},
	}
	if _, err := repo.ReplaceObservations(ctx, "01A", "first", first); err != nil {
		t.Fatal(err)
	}
	second := []core.Observation{
		{Date: core.NewDate(2025, 1, 1), Category: "Truck", Manufacturer: "Volvo", Registrations: 7},
	}
	if _, err := repo.ReplaceObservations(ctx, "01B", "second", second); err != nil {
		t.Fatal(err)
	}

	out, err := repo.ReadObservations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Manufacturer != "Volvo" {
		t.Fatalf("table not replaced: %+v", out)
	}

	latest, err := repo.LatestBatch(ctx)
	if err != nil {
		t.Fatalf("LatestBatch: %v", err)
	}
	if latest.ID != "01B" || latest.Source != "second" || latest.RowCount != 1 {
		t.Fatalf("unexpected latest batch %+v", latest)
	}
}

func TestReplaceObservationsRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	good := []core.Observation{{Date: core.NewDate(2024, 1, 1), Category: "Car", Manufacturer: "Toyota", Registrations: 1}}
	if err := repo.WriteObservations(ctx, good); err != nil {
		t.Fatal(err)
	}

	bad := []core.Observation{{Date: core.NewDate(2024, 1, 1), Category: "Car", Manufacturer: "", Registrations: 1}}
	if _, err := repo.ReplaceObservations(ctx, "", "bad", bad); !errors.Is(err, core.ErrEmptyManufacturer) {
		t.Fatalf("expected ErrEmptyManufacturer, got %v", err)
	}

	out, err := repo.ReadObservations(ctx)
	if err != nil || len(out) != 1 {
		t.Fatalf("previous table must survive a rejected import: %v, %v", out, err)
	}
}

func TestLatestBatchEmpty(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.LatestBatch(context.Background()); !errors.Is(err, ErrNoBatch) {
		t.Fatalf("expected ErrNoBatch, got %v", err)
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestBatchByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	obs := []core.Observation{{Date: core.NewDate(2024, 1, 1), Category: "Car", Manufacturer: "Ford", Registrations: 1}}

	first, err := repo.ReplaceObservations(ctx, NewBatchID(), "a.csv", obs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.ReplaceObservations(ctx, NewBatchID(), "b.csv", obs); err != nil {
		t.Fatal(err)
	}

	got, err := repo.BatchByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("BatchByID: %v", err)
	}
	if got.Source != "a.csv" || got.RowCount != 1 {
		t.Fatalf("unexpected batch %+v", got)
	}
	if _, err := repo.BatchByID(ctx, NewBatchID()); !errors.Is(err, ErrNoBatch) {
		t.Fatalf("expected ErrNoBatch for unknown id, got %v", err)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v1, err := RunMigrations(path)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := RunMigrations(path)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != 1 || v2 != 1 {
		t.Fatalf("unexpected versions %d, %d", v1, v2)
	}
}

func TestNewBatchIDUnique(t *testing.T) {
	a, b := NewBatchID(), NewBatchID()
	if a == b || len(a) != 26 {
		t.Fatalf("unexpected ids %q, %q", a, b)
	}
}
