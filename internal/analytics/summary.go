package analytics

import (
	"regdash/internal/core"
)

// Summary is everything the dashboard renders for one selection.
type Summary struct {
	Selection core.Selection
	// Empty is set when no observation matches; the other fields are then
	// left at their zero values.
	Empty         bool
	Total         int64
	YoY           core.GrowthMetric
	QoQ           core.GrowthMetric
	Trend         []TrendPoint
	Manufacturers []ManufacturerTotal
}

// Summarize runs one full pass for a selection: filter, then aggregate and
// compare against the prior year and quarter. When the filtered subset is
// empty it stops there and returns a Summary with Empty set.
func Summarize(ds *core.Dataset, sel core.Selection) (Summary, error) {
	subset, err := Filter(ds, sel)
	if err != nil {
		return Summary{}, err
	}
	if len(subset) == 0 {
		return Summary{Selection: sel, Empty: true}, nil
	}

	total := TotalRegistrations(subset)
	yoy, err := compareWithCurrent(ds, sel, core.YearOverYear, total)
	if err != nil {
		return Summary{}, err
	}
	qoq, err := compareWithCurrent(ds, sel, core.QuarterOverQuarter, total)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Selection:     sel,
		Total:         total,
		YoY:           yoy,
		QoQ:           qoq,
		Trend:         MonthlyTrendByCategory(subset),
		Manufacturers: ManufacturerTotals(subset),
	}, nil
}
