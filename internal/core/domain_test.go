package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateAddMonths(t *testing.T) {
	tests := []struct {
		name string
		in   Date
		n    int
		want Date
	}{
		{"same day exists", NewDate(2025, 5, 15), -3, NewDate(2025, 2, 15)},
		{"march 31 back one month non-leap", NewDate(2025, 3, 31), -1, NewDate(2025, 2, 28)},
		{"march 31 back one month leap", NewDate(2024, 3, 31), -1, NewDate(2024, 2, 29)},
		{"may 31 back a quarter", NewDate(2025, 5, 31), -3, NewDate(2025, 2, 28)},
		{"may 31 back a quarter leap", NewDate(2024, 5, 31), -3, NewDate(2024, 2, 29)},
		{"dec 31 back a quarter", NewDate(2025, 12, 31), -3, NewDate(2025, 9, 30)},
		{"july 31 back a quarter", NewDate(2025, 7, 31), -3, NewDate(2025, 4, 30)},
		{"crosses year boundary", NewDate(2025, 1, 31), -3, NewDate(2024, 10, 31)},
		{"february back a quarter", NewDate(2025, 2, 28), -3, NewDate(2024, 11, 28)},
		{"forward across year", NewDate(2024, 11, 30), 3, NewDate(2025, 2, 28)},
		{"zero offset", NewDate(2025, 6, 30), 0, NewDate(2025, 6, 30)},
		{"large negative", NewDate(2025, 1, 1), -25, NewDate(2022, 12, 1)},
		{"month start stays month start", NewDate(2025, 4, 1), -3, NewDate(2025, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.AddMonths(tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("%s.AddMonths(%d) = %s, want %s", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestDateAddYears(t *testing.T) {
	tests := []struct {
		name string
		in   Date
		want Date
	}{
		{"regular day", NewDate(2025, 1, 31), NewDate(2024, 1, 31)},
		{"leap day to non-leap year", NewDate(2024, 2, 29), NewDate(2023, 2, 28)},
		{"feb 28 stays feb 28", NewDate(2025, 2, 28), NewDate(2024, 2, 28)},
		{"dec 31", NewDate(2025, 12, 31), NewDate(2024, 12, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.AddYears(-1)
			if !got.Equal(tt.want) {
				t.Errorf("%s.AddYears(-1) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
	if got := NewDate(2020, 2, 29).AddYears(4); !got.Equal(NewDate(2024, 2, 29)) {
		t.Errorf("leap to leap = %s", got)
	}
}

func TestDaysIn(t *testing.T) {
	cases := map[string]struct {
		year  int
		month time.Month
		want  int
	}{
		"jan":          {2025, time.January, 31},
		"feb non-leap": {2025, time.February, 28},
		"feb leap":     {2024, time.February, 29},
		"feb 1900":     {1900, time.February, 28},
		"feb 2000":     {2000, time.February, 29},
		"april":        {2025, time.April, 30},
		"december":     {2025, time.December, 31},
	}
	for name, tc := range cases {
		if got := DaysIn(tc.year, tc.month); got != tc.want {
			t.Errorf("%s: DaysIn = %d, want %d", name, got, tc.want)
		}
	}
}

func TestOffsetKindShift(t *testing.T) {
	d := NewDate(2025, 3, 31)
	if got := YearOverYear.Shift(d); !got.Equal(NewDate(2024, 3, 31)) {
		t.Errorf("yoy shift = %s", got)
	}
	if got := QuarterOverQuarter.Shift(d); !got.Equal(NewDate(2024, 12, 31)) {
		t.Errorf("qoq shift = %s", got)
	}
	if OffsetKind("mom").IsValid() {
		t.Error("unexpected valid offset kind")
	}
}

func TestMonthStart(t *testing.T) {
	if got := NewDate(2025, 2, 17).MonthStart(); !got.Equal(NewDate(2025, 2, 1)) {
		t.Fatalf("MonthStart = %s", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-01-31 ")
	if err != nil || !d.Equal(NewDate(2025, 1, 31)) {
		t.Fatalf("ParseDate = %s, %v", d, err)
	}
	if _, err := ParseDate("31/01/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestObservationValidate(t *testing.T) {
	good := Observation{Date: NewDate(2025, 1, 1), Category: "Car", Manufacturer: "Toyota", Registrations: 0}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		obs  Observation
		want error
	}{
		{Observation{Category: "Car", Manufacturer: "Toyota"}, ErrInvalidDate},
		{Observation{Date: NewDate(2025, 1, 1), Category: " ", Manufacturer: "Toyota"}, ErrEmptyCategory},
		{Observation{Date: NewDate(2025, 1, 1), Category: "Car", Manufacturer: ""}, ErrEmptyManufacturer},
		{Observation{Date: NewDate(2025, 1, 1), Category: "Car", Manufacturer: "Toyota", Registrations: -1}, ErrNegativeRegistrations},
	}
	for i, tc := range bads {
		if err := tc.obs.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestSelectionValidate(t *testing.T) {
	ok := Selection{Start: NewDate(2025, 1, 1), End: NewDate(2025, 1, 1)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("single-day range should be valid: %v", err)
	}
	inverted := Selection{Start: NewDate(2025, 2, 1), End: NewDate(2025, 1, 1)}
	if err := inverted.Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if err := (Selection{End: NewDate(2025, 1, 1)}).Validate(); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for zero start, got %v", err)
	}
}

func TestSelectionShiftAndKey(t *testing.T) {
	sel := Selection{
		Start:         NewDate(2025, 1, 1),
		End:           NewDate(2025, 3, 31),
		Categories:    []string{"Truck", "Car"},
		Manufacturers: []string{"Volvo", "Ford", "Volvo"},
	}
	prior := sel.Shift(QuarterOverQuarter)
	if !prior.Start.Equal(NewDate(2024, 10, 1)) || !prior.End.Equal(NewDate(2024, 12, 31)) {
		t.Fatalf("unexpected prior window %s..%s", prior.Start, prior.End)
	}
	if len(prior.Categories) != 2 || len(prior.Manufacturers) != 3 {
		t.Fatalf("shift must keep the sets")
	}

	reordered := sel
	reordered.Categories = []string{"Car", "Truck"}
	reordered.Manufacturers = []string{"Ford", "Volvo"}
	if sel.Key() != reordered.Key() {
		t.Fatalf("key depends on set order: %q vs %q", sel.Key(), reordered.Key())
	}
}

func TestSelectionKeySeparatorsInNames(t *testing.T) {
	base := Selection{Start: NewDate(2024, 1, 1), End: NewDate(2024, 1, 31)}
	tests := []struct {
		name string
		a, b Selection
	}{
		{
			name: "comma in category",
			a:    Selection{Start: base.Start, End: base.End, Categories: []string{"A,B"}, Manufacturers: []string{"M"}},
			b:    Selection{Start: base.Start, End: base.End, Categories: []string{"A", "B"}, Manufacturers: []string{"M"}},
		},
		{
			name: "pipe moves a member across sets",
			a:    Selection{Start: base.Start, End: base.End, Categories: []string{"A|M"}},
			b:    Selection{Start: base.Start, End: base.End, Categories: []string{"A"}, Manufacturers: []string{"M"}},
		},
		{
			name: "quote in manufacturer",
			a:    Selection{Start: base.Start, End: base.End, Manufacturers: []string{`M","N`}},
			b:    Selection{Start: base.Start, End: base.End, Manufacturers: []string{"M", "N"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a.Key() == tt.b.Key() {
				t.Fatalf("distinct selections share key %q", tt.a.Key())
			}
		})
	}
}

func TestNewGrowthMetric(t *testing.T) {
	g := NewGrowthMetric(150, 100)
	if g.GrowthPct != 50.0 || !g.HasBaseline {
		t.Fatalf("unexpected growth %+v", g)
	}
	g = NewGrowthMetric(150, 0)
	if g.GrowthPct != 0.0 || g.HasBaseline {
		t.Fatalf("zero baseline must report 0.0 growth, got %+v", g)
	}
	g = NewGrowthMetric(50, 100)
	if g.GrowthPct != -50.0 {
		t.Fatalf("expected -50, got %v", g.GrowthPct)
	}
}
