package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"

	"regdash/internal/core"
)

func testDataset(t *testing.T) *core.Dataset {
	t.Helper()
	obs := []core.Observation{
		{Date: core.NewDate(2023, 1, 1), Category: "Car", Manufacturer: "Toyota", Registrations: 1000},
		{Date: core.NewDate(2023, 10, 1), Category: "Car", Manufacturer: "Toyota", Registrations: 1100},
		{Date: core.NewDate(2024, 1, 1), Category: "Car", Manufacturer: "Toyota", Registrations: 1500},
		{Date: core.NewDate(2024, 1, 1), Category: "Car", Manufacturer: "Ford", Registrations: 800},
		{Date: core.NewDate(2024, 1, 1), Category: "Truck", Manufacturer: "MAN", Registrations: 400},
		{Date: core.NewDate(2024, 2, 1), Category: "Motorcycle", Manufacturer: "Ducati", Registrations: 50},
	}
	ds, err := core.NewDataset(obs)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestParseSelection(t *testing.T) {
	ds := testDataset(t)
	tests := []struct {
		name              string
		query             url.Values
		wantStart         string
		wantEnd           string
		wantCategories    []string
		wantManufacturers []string
	}{
		{
			name:              "defaults select everything",
			query:             url.Values{},
			wantStart:         "2023-01-01",
			wantEnd:           "2024-02-01",
			wantCategories:    []string{"Car", "Motorcycle", "Truck"},
			wantManufacturers: []string{"Ducati", "Ford", "MAN", "Toyota"},
		},
		{
			name:              "manufacturers default to the chosen categories",
			query:             url.Values{"category": {"Car"}, "start": {"2024-01-01"}},
			wantStart:         "2024-01-01",
			wantEnd:           "2024-02-01",
			wantCategories:    []string{"Car"},
			wantManufacturers: []string{"Ford", "Toyota"},
		},
		{
			name:              "filtered form keeps empty sets empty",
			query:             url.Values{"filtered": {"1"}, "category": {"Truck"}},
			wantStart:         "2023-01-01",
			wantEnd:           "2024-02-01",
			wantCategories:    []string{"Truck"},
			wantManufacturers: nil,
		},
		{
			name:              "blank and duplicate values are dropped",
			query:             url.Values{"category": {" Car ", "", "Car"}, "manufacturer": {"Ford", "Ford"}},
			wantStart:         "2023-01-01",
			wantEnd:           "2024-02-01",
			wantCategories:    []string{"Car"},
			wantManufacturers: []string{"Ford"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseSelection(tt.query, ds)
			if err != nil {
				t.Fatalf("ParseSelection() error = %v", err)
			}
			if sel.Start.String() != tt.wantStart || sel.End.String() != tt.wantEnd {
				t.Errorf("range = %s..%s, want %s..%s", sel.Start, sel.End, tt.wantStart, tt.wantEnd)
			}
			if !reflect.DeepEqual(sel.Categories, tt.wantCategories) {
				t.Errorf("Categories = %v, want %v", sel.Categories, tt.wantCategories)
			}
			if !reflect.DeepEqual(sel.Manufacturers, tt.wantManufacturers) {
				t.Errorf("Manufacturers = %v, want %v", sel.Manufacturers, tt.wantManufacturers)
			}
		})
	}
}

func TestParseSelection_InvalidDates(t *testing.T) {
	ds := testDataset(t)
	for _, q := range []url.Values{
		{"start": {"2024/01/01"}},
		{"end": {"yesterday"}},
		{"start": {"2024-02-30"}},
	} {
		if _, err := ParseSelection(q, ds); !errors.Is(err, core.ErrInvalidDate) {
			t.Errorf("%v: expected ErrInvalidDate, got %v", q, err)
		}
	}
}

func TestParseSelection_ReversedRangeIsNotRejectedHere(t *testing.T) {
	sel, err := ParseSelection(url.Values{"start": {"2024-02-01"}, "end": {"2024-01-01"}}, testDataset(t))
	if err != nil {
		t.Fatalf("ParseSelection() error = %v", err)
	}
	if !errors.Is(sel.Validate(), core.ErrInvalidRange) {
		t.Fatal("reversed range should fail validation")
	}
}

func TestSelectionQuery_RoundTrip(t *testing.T) {
	ds := testDataset(t)
	want := core.Selection{
		Start:         core.NewDate(2023, 6, 1),
		End:           core.NewDate(2024, 1, 31),
		Categories:    []string{"Car"},
		Manufacturers: []string{"Toyota"},
	}
	got, err := ParseSelection(SelectionQuery(want), ds)
	if err != nil {
		t.Fatal(err)
	}
	if got.Key() != want.Key() {
		t.Errorf("round trip key = %s, want %s", got.Key(), want.Key())
	}

	empty := core.Selection{Start: want.Start, End: want.End}
	got, err = ParseSelection(SelectionQuery(empty), ds)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Categories) != 0 || len(got.Manufacturers) != 0 {
		t.Errorf("empty sets must survive the round trip, got %+v", got)
	}
}

func TestRequireMethod(t *testing.T) {
	if resp := RequireGET(httptest.NewRequest(http.MethodHead, "/", nil)); resp != nil {
		t.Error("HEAD should be accepted")
	}
	resp := RequireGET(httptest.NewRequest(http.MethodPost, "/", nil))
	if resp == nil {
		t.Fatal("POST should be rejected")
	}
	w := httptest.NewRecorder()
	resp.Write(w)
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != "GET, HEAD" {
		t.Errorf("got %d Allow=%q", w.Code, w.Header().Get("Allow"))
	}
}
