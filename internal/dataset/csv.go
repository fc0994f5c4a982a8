// Package dataset reads and writes the registrations table.
//
// The table has the columns Date, Category, Manufacturer and Registrations,
// optionally followed by the informational YoY Growth % and QoQ Growth %
// columns. The same row codec serves CSV files, S3 objects and spreadsheet
// ranges.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"regdash/internal/core"
)

const (
	ColDate          = "Date"
	ColCategory      = "Category"
	ColManufacturer  = "Manufacturer"
	ColRegistrations = "Registrations"
	ColYoYGrowth     = "YoY Growth %"
	ColQoQGrowth     = "QoQ Growth %"
)

// Header is the column order written by WriteCSV.
var Header = []string{ColDate, ColCategory, ColManufacturer, ColRegistrations, ColYoYGrowth, ColQoQGrowth}

var ErrMissingColumn = errors.New("missing required column")

// RowError reports a row that could not be turned into an observation.
// Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// dateLayouts lists the accepted date formats, most common first.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339,
}

type columns struct {
	date, category, manufacturer, registrations int
	yoy, qoq                                    int
}

// ParseCSV reads a registrations table from r.
func ParseCSV(r io.Reader) ([]core.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return ParseRows(rows)
}

// ParseRows converts a header row followed by data rows into observations.
// Blank rows are skipped; any other malformed row fails the whole parse.
func ParseRows(rows [][]string) ([]core.Observation, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: table has no header", ErrMissingColumn)
	}
	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]core.Observation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		o, err := cols.parse(row)
		if err != nil {
			return nil, &RowError{Line: i + 2, Err: err}
		}
		out = append(out, o)
	}
	return out, nil
}

func mapHeader(header []string) (columns, error) {
	cols := columns{date: -1, category: -1, manufacturer: -1, registrations: -1, yoy: -1, qoq: -1}
	for i, h := range header {
		switch normalize(h) {
		case normalize(ColDate):
			cols.date = i
		case normalize(ColCategory):
			cols.category = i
		case normalize(ColManufacturer):
			cols.manufacturer = i
		case normalize(ColRegistrations):
			cols.registrations = i
		case normalize(ColYoYGrowth):
			cols.yoy = i
		case normalize(ColQoQGrowth):
			cols.qoq = i
		}
	}

	var missing []string
	if cols.date < 0 {
		missing = append(missing, ColDate)
	}
	if cols.category < 0 {
		missing = append(missing, ColCategory)
	}
	if cols.manufacturer < 0 {
		missing = append(missing, ColManufacturer)
	}
	if cols.registrations < 0 {
		missing = append(missing, ColRegistrations)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) parse(row []string) (core.Observation, error) {
	var o core.Observation

	date, err := parseDate(cell(row, c.date))
	if err != nil {
		return o, err
	}
	regs, err := parseCount(cell(row, c.registrations))
	if err != nil {
		return o, err
	}
	o = core.Observation{
		Date:          date,
		Category:      cell(row, c.category),
		Manufacturer:  cell(row, c.manufacturer),
		Registrations: regs,
	}
	if o.YoYGrowthPct, err = parseOptionalFloat(cell(row, c.yoy)); err != nil {
		return o, fmt.Errorf("%s: %w", ColYoYGrowth, err)
	}
	if o.QoQGrowthPct, err = parseOptionalFloat(cell(row, c.qoq)); err != nil {
		return o, fmt.Errorf("%s: %w", ColQoQGrowth, err)
	}
	return o, o.Validate()
}

func parseDate(s string) (core.Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}

// parseCount accepts integers and integral floats such as "1234.0".
func parseCount(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits.
	if err != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("invalid registrations %q", s)
	}
	return int64(f), nil
}

func parseOptionalFloat(s string) (*float64, error) {
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "n/a":
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(f) {
		return nil, nil
	}
	return &f, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Rows renders observations as a header row plus one row per observation.
func Rows(obs []core.Observation) [][]string {
	rows := make([][]string, 0, len(obs)+1)
	rows = append(rows, Header)
	for _, o := range obs {
		rows = append(rows, []string{
			o.Date.String(),
			o.Category,
			o.Manufacturer,
			strconv.FormatInt(o.Registrations, 10),
			formatOptionalFloat(o.YoYGrowthPct),
			formatOptionalFloat(o.QoQGrowthPct),
		})
	}
	return rows
}

// WriteCSV writes observations as a registrations table.
func WriteCSV(w io.Writer, obs []core.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(obs)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
