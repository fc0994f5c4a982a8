package core

import (
	"errors"
	"testing"
)

func sampleObservations() []Observation {
	return []Observation{
		{Date: NewDate(2025, 2, 1), Category: "Car", Manufacturer: "Toyota", Registrations: 10},
		{Date: NewDate(2025, 1, 1), Category: "Truck", Manufacturer: "Volvo", Registrations: 5},
		{Date: NewDate(2025, 1, 1), Category: "Car", Manufacturer: "Ford", Registrations: 7},
		{Date: NewDate(2024, 12, 1), Category: "Motorcycle", Manufacturer: "Yamaha", Registrations: 3},
	}
}

func TestNewDatasetOrdersByDate(t *testing.T) {
	in := sampleObservations()
	ds, err := NewDataset(in)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	if ds.Len() != 4 {
		t.Fatalf("Len = %d", ds.Len())
	}
	obs := ds.Observations()
	for i := 1; i < len(obs); i++ {
		if obs[i].Date.Before(obs[i-1].Date) {
			t.Fatalf("not ordered at %d", i)
		}
	}
	// stable: Volvo was loaded before Ford on the same date
	if obs[1].Manufacturer != "Volvo" || obs[2].Manufacturer != "Ford" {
		t.Fatalf("equal dates lost load order: %v, %v", obs[1].Manufacturer, obs[2].Manufacturer)
	}

	// input mutation must not leak into the dataset
	in[0].Registrations = 999
	for _, o := range ds.All() {
		if o.Registrations == 999 {
			t.Fatal("dataset shares memory with its input")
		}
	}
	// nor must mutating the returned copy
	obs[0].Registrations = 999
	if ds.Observations()[0].Registrations == 999 {
		t.Fatal("Observations returned shared memory")
	}
}

func TestNewDatasetRejectsInvalid(t *testing.T) {
	in := sampleObservations()
	in[2].Registrations = -4
	if _, err := NewDataset(in); !errors.Is(err, ErrNegativeRegistrations) {
		t.Fatalf("expected ErrNegativeRegistrations, got %v", err)
	}
}

func TestDatasetOptions(t *testing.T) {
	ds, err := NewDataset(sampleObservations())
	if err != nil {
		t.Fatal(err)
	}
	cats := ds.Categories()
	if len(cats) != 3 || cats[0] != "Car" || cats[1] != "Motorcycle" || cats[2] != "Truck" {
		t.Fatalf("unexpected categories %v", cats)
	}
	mfrs := ds.Manufacturers("Car")
	if len(mfrs) != 2 || mfrs[0] != "Ford" || mfrs[1] != "Toyota" {
		t.Fatalf("unexpected car manufacturers %v", mfrs)
	}
	if all := ds.Manufacturers(); len(all) != 4 {
		t.Fatalf("expected 4 manufacturers, got %v", all)
	}
	if none := ds.Manufacturers("Bus"); len(none) != 0 {
		t.Fatalf("unknown category should have no manufacturers, got %v", none)
	}

	lo, hi := ds.DateRange()
	if !lo.Equal(NewDate(2024, 12, 1)) || !hi.Equal(NewDate(2025, 2, 1)) {
		t.Fatalf("unexpected range %s..%s", lo, hi)
	}
	full := ds.FullSelection()
	if err := full.Validate(); err != nil {
		t.Fatalf("full selection invalid: %v", err)
	}
}

func TestEmptyDataset(t *testing.T) {
	ds, err := NewDataset(nil)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := ds.DateRange()
	if !lo.IsZero() || !hi.IsZero() || ds.Len() != 0 {
		t.Fatalf("empty dataset should have zero range")
	}
}

func TestSortedSet(t *testing.T) {
	got := SortedSet([]string{"b", "a", "b", "c", "a"})
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("SortedSet = %v", got)
	}
}
