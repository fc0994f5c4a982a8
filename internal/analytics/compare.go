package analytics

import (
	"fmt"

	"regdash/internal/core"
)

// CompareToPrior totals the selection and the same selection shifted back
// by kind (one calendar year or three calendar months), and derives the
// growth percentage. A zero prior total reports 0.0 growth.
func CompareToPrior(ds *core.Dataset, sel core.Selection, kind core.OffsetKind) (core.GrowthMetric, error) {
	if err := sel.Validate(); err != nil {
		return core.GrowthMetric{}, err
	}
	current := TotalRegistrations(filterRange(ds, sel))
	return compareWithCurrent(ds, sel, kind, current)
}

// compareWithCurrent reuses an already computed current total.
func compareWithCurrent(ds *core.Dataset, sel core.Selection, kind core.OffsetKind, current int64) (core.GrowthMetric, error) {
	if !kind.IsValid() {
		return core.GrowthMetric{}, fmt.Errorf("%w: %q", core.ErrUnknownOffset, kind)
	}
	prior := TotalRegistrations(filterRange(ds, sel.Shift(kind)))
	return core.NewGrowthMetric(current, prior), nil
}
