// Package http provides HTTP server and handler implementations.
//
// This file turns dashboard query strings into a core.Selection. The same
// parameters drive the HTML page and every JSON endpoint.

package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"regdash/internal/core"
)

// Query parameter names shared by the HTML form and the JSON API.
const (
	paramStart        = "start"
	paramEnd          = "end"
	paramCategory     = "category"
	paramManufacturer = "manufacturer"
	// paramFiltered marks a submitted filter form: absent sets then mean
	// "nothing selected" instead of "everything".
	paramFiltered = "filtered"
)

// ParseSelection builds a selection from query parameters against ds.
//
// Missing start/end default to the dataset date range. Without filtered=1
// a missing category set selects every category and a missing manufacturer
// set selects every manufacturer of the chosen categories. With filtered=1
// missing sets stay empty. Unparsable dates fail with core.ErrInvalidDate.
// Range ordering is not checked here.
func ParseSelection(q url.Values, ds *core.Dataset) (core.Selection, error) {
	minDate, maxDate := ds.DateRange()
	sel := core.Selection{Start: minDate, End: maxDate}

	if v := strings.TrimSpace(q.Get(paramStart)); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Selection{}, fmt.Errorf("start: %w", err)
		}
		sel.Start = d
	}
	if v := strings.TrimSpace(q.Get(paramEnd)); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Selection{}, fmt.Errorf("end: %w", err)
		}
		sel.End = d
	}

	explicit := q.Get(paramFiltered) == "1"

	sel.Categories = cleanValues(q[paramCategory])
	if len(sel.Categories) == 0 && !explicit {
		sel.Categories = ds.Categories()
	}
	sel.Manufacturers = cleanValues(q[paramManufacturer])
	if len(sel.Manufacturers) == 0 && !explicit {
		sel.Manufacturers = ds.Manufacturers(sel.Categories...)
	}
	return sel, nil
}

// SelectionQuery encodes sel as an explicit query string, so that a
// round trip through ParseSelection reproduces it exactly.
func SelectionQuery(sel core.Selection) url.Values {
	q := url.Values{}
	if !sel.Start.IsZero() {
		q.Set(paramStart, sel.Start.String())
	}
	if !sel.End.IsZero() {
		q.Set(paramEnd, sel.End.String())
	}
	for _, c := range sel.Categories {
		q.Add(paramCategory, c)
	}
	for _, m := range sel.Manufacturers {
		q.Add(paramManufacturer, m)
	}
	q.Set(paramFiltered, "1")
	return q
}

// cleanValues sanitizes, drops blanks and removes duplicates, keeping the
// first occurrence order.
func cleanValues(in []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = sanitizeInput(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequireGET is a convenience function for read-only handlers. HEAD is
// accepted as well.
func RequireGET(r *http.Request) *JSONResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}
