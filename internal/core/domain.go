package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	YearOverYear       OffsetKind = "yoy"
	QuarterOverQuarter OffsetKind = "qoq"
)

type (
	// OffsetKind selects the prior window a selection is compared against.
	OffsetKind string

	Date struct {
		time.Time
	}

	// Observation is one row of the registrations table.
	Observation struct {
		Date          Date
		Category      string
		Manufacturer  string
		Registrations int64
		// Precomputed growth columns. Informational only, nil when absent.
		YoYGrowthPct *float64
		QoQGrowthPct *float64
	}

	// Selection is the user-chosen filter: an inclusive date range plus
	// category and manufacturer sets.
	Selection struct {
		Start         Date
		End           Date
		Categories    []string
		Manufacturers []string
	}

	// GrowthMetric compares a period total against its prior window.
	GrowthMetric struct {
		Current   int64
		Prior     int64
		GrowthPct float64
		// HasBaseline is false when Prior is zero; GrowthPct is then 0.
		HasBaseline bool
	}
)

var (
	ErrInvalidRange          = errors.New("invalid date range")
	ErrInvalidDate           = errors.New("invalid date")
	ErrEmptyCategory         = errors.New("empty category")
	ErrEmptyManufacturer     = errors.New("empty manufacturer")
	ErrNegativeRegistrations = errors.New("negative registrations")
	ErrUnknownOffset         = errors.New("unknown offset kind")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

// Equal reports whether d and o are the same instant.
func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// MonthStart returns the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// AddMonths shifts d by n calendar months. When the day of month does not
// exist in the target month it is clamped to that month's last day, so
// 2025-03-31 minus one month is 2025-02-28.
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Date()
	total := y*12 + int(m) - 1 + n
	ny, nm := floorDiv(total, 12), floorMod(total, 12)+1
	if last := DaysIn(ny, time.Month(nm)); day > last {
		day = last
	}
	return Date{Time: time.Date(ny, time.Month(nm), day,
		d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())}
}

// AddYears shifts d by n calendar years. Feb 29 maps to Feb 28 when the
// target year is not a leap year.
func (d Date) AddYears(n int) Date {
	return d.AddMonths(12 * n)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// IsValid returns true if the offset kind is known
func (k OffsetKind) IsValid() bool {
	switch k {
	case YearOverYear, QuarterOverQuarter:
		return true
	default:
		return false
	}
}

// Shift moves d back by one period of the offset kind.
func (k OffsetKind) Shift(d Date) Date {
	switch k {
	case YearOverYear:
		return d.AddYears(-1)
	case QuarterOverQuarter:
		return d.AddMonths(-3)
	default:
		return d
	}
}

// Label is the display name used on metric cards.
func (k OffsetKind) Label() string {
	switch k {
	case YearOverYear:
		return "Prev. Year"
	case QuarterOverQuarter:
		return "Prev. Quarter"
	default:
		return string(k)
	}
}

func (o Observation) Validate() error {
	if err := o.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(o.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(o.Manufacturer) == "" {
		return ErrEmptyManufacturer
	}
	if o.Registrations < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeRegistrations, o.Registrations)
	}
	return nil
}

// Validate rejects zero dates and ranges whose start is after the end.
// Empty category or manufacturer sets are valid.
func (s Selection) Validate() error {
	if s.Start.IsZero() || s.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRange)
	}
	if s.Start.After(s.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, s.Start, s.End)
	}
	return nil
}

// Shift returns the selection moved to the prior window of kind, keeping
// the same categories and manufacturers.
func (s Selection) Shift(kind OffsetKind) Selection {
	return Selection{
		Start:         kind.Shift(s.Start),
		End:           kind.Shift(s.End),
		Categories:    s.Categories,
		Manufacturers: s.Manufacturers,
	}
}

// Key returns a canonical string for the selection, independent of the
// order of the category and manufacturer sets.
func (s Selection) Key() string {
	var b strings.Builder
	b.WriteString(s.Start.String())
	b.WriteByte('|')
	b.WriteString(s.End.String())
	b.WriteByte('|')
	writeSet(&b, s.Categories)
	b.WriteByte('|')
	writeSet(&b, s.Manufacturers)
	return b.String()
}

// writeSet writes the sorted members quoted, so names containing the
// separators cannot collide with other sets.
func writeSet(b *strings.Builder, set []string) {
	for i, v := range SortedSet(set) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(v))
	}
}

// NewGrowthMetric derives the growth percentage. A zero baseline reports
// 0.0 growth rather than an infinite or undefined value.
func NewGrowthMetric(current, prior int64) GrowthMetric {
	g := GrowthMetric{Current: current, Prior: prior}
	if prior > 0 {
		g.GrowthPct = float64(current-prior) / float64(prior) * 100
		g.HasBaseline = true
	}
	return g
}
