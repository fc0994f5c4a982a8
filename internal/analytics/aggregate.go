package analytics

import (
	"sort"

	"regdash/internal/core"
)

// TrendPoint is the registrations total of one category in one month.
type TrendPoint struct {
	Month    core.Date
	Category string
	Total    int64
}

// ManufacturerTotal is the registrations total of one manufacturer within
// one category.
type ManufacturerTotal struct {
	Manufacturer string
	Category     string
	Total        int64
}

// TotalRegistrations sums registrations over the subset. Both sides of a
// period comparison go through this function.
func TotalRegistrations(s Subset) int64 {
	var total int64
	for _, o := range s {
		total += o.Registrations
	}
	return total
}

// MonthlyTrendByCategory groups the subset by category and calendar month,
// summing registrations. Points are ordered by category, then month.
// Months without observations for a category produce no point.
func MonthlyTrendByCategory(s Subset) []TrendPoint {
	type key struct {
		category string
		month    core.Date
	}
	index := make(map[key]int)
	points := []TrendPoint{}
	for _, o := range s {
		k := key{category: o.Category, month: o.Date.MonthStart()}
		if i, ok := index[k]; ok {
			points[i].Total += o.Registrations
			continue
		}
		index[k] = len(points)
		points = append(points, TrendPoint{Month: k.month, Category: o.Category, Total: o.Registrations})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Category != points[j].Category {
			return points[i].Category < points[j].Category
		}
		return points[i].Month.Before(points[j].Month)
	})
	return points
}

// ManufacturerTotals groups the subset by manufacturer and category.
// Results are ordered by total descending; ties go to the manufacturer
// name ascending, then category ascending.
func ManufacturerTotals(s Subset) []ManufacturerTotal {
	type key struct {
		manufacturer string
		category     string
	}
	index := make(map[key]int)
	totals := []ManufacturerTotal{}
	for _, o := range s {
		k := key{manufacturer: o.Manufacturer, category: o.Category}
		if i, ok := index[k]; ok {
			totals[i].Total += o.Registrations
			continue
		}
		index[k] = len(totals)
		totals = append(totals, ManufacturerTotal{Manufacturer: o.Manufacturer, Category: o.Category, Total: o.Registrations})
	}
	sort.Slice(totals, func(i, j int) bool {
		a, b := totals[i], totals[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Manufacturer != b.Manufacturer {
			return a.Manufacturer < b.Manufacturer
		}
		return a.Category < b.Category
	})
	return totals
}
