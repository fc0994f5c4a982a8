package google

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"regdash/internal/core"
	"regdash/internal/dataset"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "")
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/nonexistent/creds.json")

	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: DefaultSheetName}
	if _, err := c.ReadObservations(context.Background()); err == nil {
		t.Fatal("expected error with nil service")
	}
	if err := c.WriteObservations(context.Background(), nil); err == nil {
		t.Fatal("expected error with nil service")
	}
	if got := c.tableRange(); got != "Registrations!A:F" {
		t.Errorf("unexpected range %q", got)
	}
}

func TestParseValues(t *testing.T) {
	// Sheets returns formatted strings by default, but numbers may also come
	// back as float64 when the caller asks for unformatted values.
	values := [][]interface{}{
		{"Date", "Category", "Manufacturer", "Registrations", "YoY Growth %", "QoQ Growth %"},
		{"2024-01-01", "Car", "Toyota", 2000.0, "", ""},
		{"2024-02-01", "Car", "Toyota", "2100", 5.5},
		{},
		{"2024-03-01", " Truck ", "MAN", float64(1400)},
	}
	obs, err := parseValues(values)
	if err != nil {
		t.Fatalf("parseValues: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(obs))
	}
	if obs[0].Registrations != 2000 || obs[0].YoYGrowthPct != nil {
		t.Errorf("unexpected first row %+v", obs[0])
	}
	if obs[1].YoYGrowthPct == nil || *obs[1].YoYGrowthPct != 5.5 || obs[1].QoQGrowthPct != nil {
		t.Errorf("unexpected growth on second row %+v", obs[1])
	}
	if obs[2].Category != "Truck" || !obs[2].Date.Equal(core.NewDate(2024, 3, 1)) {
		t.Errorf("unexpected third row %+v", obs[2])
	}
}

func TestParseValues_BadRow(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Category", "Manufacturer", "Registrations"},
		{"2024-01-01", "Car", "Toyota", "-1"},
	}
	_, err := parseValues(values)
	var rowErr *dataset.RowError
	if !errors.As(err, &rowErr) || rowErr.Line != 2 {
		t.Fatalf("expected row error on line 2, got %v", err)
	}
}

func TestToValues(t *testing.T) {
	got := toValues([][]string{{"a", "b"}, {"c"}})
	if len(got) != 2 || got[0][1] != "b" || got[1][0] != "c" {
		t.Fatalf("unexpected values %v", got)
	}
}
