// Package analytics computes dashboard figures over a core.Dataset: it
// filters observations by selection, reduces subsets into totals and chart
// series, and compares a selection against its prior-year and prior-quarter
// windows.
//
// Every function here is pure and never mutates the dataset.
package analytics

import (
	"regdash/internal/core"
)

// Subset is the ordered result of filtering a dataset.
type Subset []core.Observation

// Filter returns every observation dated within [sel.Start, sel.End]
// whose category and manufacturer belong to the selection's sets, in
// dataset order. An empty category or manufacturer set yields an empty
// subset. A range with start after end fails with core.ErrInvalidRange.
func Filter(ds *core.Dataset, sel core.Selection) (Subset, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	return filterRange(ds, sel), nil
}

// filterRange assumes sel has been validated.
func filterRange(ds *core.Dataset, sel core.Selection) Subset {
	if ds == nil || len(sel.Categories) == 0 || len(sel.Manufacturers) == 0 {
		return Subset{}
	}
	cats := toSet(sel.Categories)
	mfrs := toSet(sel.Manufacturers)

	out := Subset{}
	for _, o := range ds.All() {
		if o.Date.Before(sel.Start) || o.Date.After(sel.End) {
			continue
		}
		if _, ok := cats[o.Category]; !ok {
			continue
		}
		if _, ok := mfrs[o.Manufacturer]; !ok {
			continue
		}
		out = append(out, o)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
