// Package generator synthesizes mock registration tables.
//
// Two profiles are available. "seasonal" produces Car, Motorcycle and Truck
// series from Jan 2022 to Aug 2025 with a sinusoidal month factor and random
// informational growth columns. "growth" produces 2W, 3W and 4W series over
// 2023–2024 that compound a per-manufacturer growth rate; its growth columns
// are the real 12- and 3-period percent changes of each series.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"

	"regdash/internal/core"
)

const (
	ProfileSeasonal Profile = "seasonal"
	ProfileGrowth   Profile = "growth"
)

// Profile names a synthetic data shape.
type Profile string

// IsValid returns true if the profile is known
func (p Profile) IsValid() bool {
	switch p {
	case ProfileSeasonal, ProfileGrowth:
		return true
	default:
		return false
	}
}

// Profiles returns every known profile.
func Profiles() []Profile {
	return []Profile{ProfileSeasonal, ProfileGrowth}
}

type lineup struct {
	category      string
	manufacturers []string
}

var seasonalLineup = []lineup{
	{"Car", []string{"Toyota", "Ford", "Honda"}},
	{"Motorcycle", []string{"Harley-Davidson", "Yamaha", "Ducati"}},
	{"Truck", []string{"Volvo", "Scania", "MAN"}},
}

var seasonalBase = map[string]float64{
	"Toyota": 2000, "Ford": 1800, "Honda": 2200,
	"Harley-Davidson": 800, "Yamaha": 1200, "Ducati": 500,
	"Volvo": 1500, "Scania": 1300, "MAN": 1400,
}

var growthLineup = []lineup{
	{"2W", []string{"Hero", "Bajaj", "TVS"}},
	{"3W", []string{"Piaggio", "Bajaj Auto"}},
	{"4W", []string{"Tata", "Hyundai", "Maruti"}},
}

// Generator produces deterministic tables for a given seed.
type Generator struct {
	profile Profile
	rng     *rand.Rand
}

// New returns a generator for profile seeded with seed.
func New(profile Profile, seed uint64) (*Generator, error) {
	if !profile.IsValid() {
		return nil, fmt.Errorf("unknown generator profile %q", profile)
	}
	return &Generator{
		profile: profile,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Generate builds a full table for the generator's profile.
func (g *Generator) Generate() []core.Observation {
	switch g.profile {
	case ProfileGrowth:
		return g.growth()
	default:
		return g.seasonal()
	}
}

func (g *Generator) seasonal() []core.Observation {
	months := MonthRange(core.NewDate(2022, 1, 1), core.NewDate(2025, 8, 15))
	out := make([]core.Observation, 0, len(months)*len(seasonalBase))
	for _, month := range months {
		monthFactor := 1 + math.Sin(float64(int(month.Month())-1)*(2*math.Pi/12))*0.2
		for _, l := range seasonalLineup {
			for _, mfr := range l.manufacturers {
				noise := g.uniform(0.9, 1.1)
				yoy := g.uniform(-5, 15)
				qoq := g.uniform(-10, 10)
				out = append(out, core.Observation{
					Date:          month,
					Category:      l.category,
					Manufacturer:  mfr,
					Registrations: int64(seasonalBase[mfr] * monthFactor * noise),
					YoYGrowthPct:  &yoy,
					QoQGrowthPct:  &qoq,
				})
			}
		}
	}
	return out
}

func (g *Generator) growth() []core.Observation {
	months := MonthRange(core.NewDate(2023, 1, 1), core.NewDate(2024, 12, 1))
	var out []core.Observation
	for _, l := range growthLineup {
		for _, mfr := range l.manufacturers {
			base := float64(5000 + g.rng.IntN(15000))
			rate := g.uniform(0.01, 0.05)
			val := base
			series := make([]core.Observation, 0, len(months))
			for _, month := range months {
				val *= 1 + rate + g.uniform(-0.02, 0.02)
				series = append(series, core.Observation{
					Date:          month,
					Category:      l.category,
					Manufacturer:  mfr,
					Registrations: int64(val),
				})
			}
			out = append(out, series...)
		}
	}
	AnnotateGrowth(out)
	return out
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// MonthRange returns the first day of every month from start's month up to
// and including the last month start that is not after end.
func MonthRange(start, end core.Date) []core.Date {
	var out []core.Date
	for m := start.MonthStart(); !m.After(end); m = m.AddMonths(1) {
		out = append(out, m)
	}
	return out
}

// AnnotateGrowth fills YoYGrowthPct and QoQGrowthPct with the 12- and
// 3-observation percent change within each (category, manufacturer) series,
// in slice order. Observations without enough history, or whose base is
// zero, get nil.
func AnnotateGrowth(obs []core.Observation) {
	type key struct{ category, manufacturer string }
	series := make(map[key][]int)
	for i, o := range obs {
		k := key{o.Category, o.Manufacturer}
		series[k] = append(series[k], i)
	}
	for _, idx := range series {
		for pos, i := range idx {
			obs[i].YoYGrowthPct = pctChange(obs, idx, pos, 12)
			obs[i].QoQGrowthPct = pctChange(obs, idx, pos, 3)
		}
	}
}

func pctChange(obs []core.Observation, idx []int, pos, periods int) *float64 {
	if pos < periods {
		return nil
	}
	prev := obs[idx[pos-periods]].Registrations
	if prev == 0 {
		return nil
	}
	v := float64(obs[idx[pos]].Registrations-prev) / float64(prev) * 100
	return &v
}
