package core

import (
	"fmt"
	"iter"
	"slices"
	"sort"
)

// Dataset is an immutable, date-ordered collection of observations. It is
// built once and can be shared freely between goroutines.
type Dataset struct {
	obs        []Observation
	categories []string
	// manufacturers per category, each sorted
	byCategory map[string][]string
	minDate    Date
	maxDate    Date
}

// NewDataset validates and copies obs, ordering it by date. Observations
// sharing a date keep their input order.
func NewDataset(obs []Observation) (*Dataset, error) {
	for i, o := range obs {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
	}

	owned := make([]Observation, len(obs))
	copy(owned, obs)
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].Date.Before(owned[j].Date)
	})

	ds := &Dataset{
		obs:        owned,
		byCategory: make(map[string][]string),
	}

	seen := make(map[string]map[string]struct{})
	for _, o := range owned {
		mfrs, ok := seen[o.Category]
		if !ok {
			mfrs = make(map[string]struct{})
			seen[o.Category] = mfrs
			ds.categories = append(ds.categories, o.Category)
		}
		if _, ok := mfrs[o.Manufacturer]; !ok {
			mfrs[o.Manufacturer] = struct{}{}
			ds.byCategory[o.Category] = append(ds.byCategory[o.Category], o.Manufacturer)
		}
	}
	sort.Strings(ds.categories)
	for _, list := range ds.byCategory {
		sort.Strings(list)
	}

	if len(owned) > 0 {
		ds.minDate = owned[0].Date
		ds.maxDate = owned[len(owned)-1].Date
	}
	return ds, nil
}

// Len returns the number of observations.
func (d *Dataset) Len() int {
	return len(d.obs)
}

// All iterates over the observations in date order without copying.
func (d *Dataset) All() iter.Seq2[int, Observation] {
	return func(yield func(int, Observation) bool) {
		for i, o := range d.obs {
			if !yield(i, o) {
				return
			}
		}
	}
}

// Observations returns a copy of the observations in date order.
func (d *Dataset) Observations() []Observation {
	return slices.Clone(d.obs)
}

// Categories returns the distinct categories, sorted.
func (d *Dataset) Categories() []string {
	return slices.Clone(d.categories)
}

// Manufacturers returns the sorted distinct manufacturers that appear in
// any of the given categories. With no categories it returns all of them.
func (d *Dataset) Manufacturers(categories ...string) []string {
	if len(categories) == 0 {
		categories = d.categories
	}
	seen := make(map[string]struct{})
	var out []string
	for _, c := range categories {
		for _, m := range d.byCategory[c] {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

// DateRange returns the earliest and latest observation dates. Both are
// zero for an empty dataset.
func (d *Dataset) DateRange() (Date, Date) {
	return d.minDate, d.maxDate
}

// FullSelection covers every observation in the dataset.
func (d *Dataset) FullSelection() Selection {
	return Selection{
		Start:         d.minDate,
		End:           d.maxDate,
		Categories:    d.Categories(),
		Manufacturers: d.Manufacturers(),
	}
}

// SortedSet returns the distinct values of in, sorted.
func SortedSet(in []string) []string {
	out := slices.Clone(in)
	sort.Strings(out)
	return slices.Compact(out)
}
