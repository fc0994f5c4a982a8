// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for JSON responses and the
// wire shapes of the dashboard API.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"regdash/internal/analytics"
	"regdash/internal/core"
	"regdash/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Payload sets the value encoded as the response body.
func (b *JSONResponseBuilder) Payload(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err, "status", b.statusCode)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Payload(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").
		Header("Allow", allowedMethods)
}

type growthResponse struct {
	Current     int64   `json:"current"`
	Prior       int64   `json:"prior"`
	GrowthPct   float64 `json:"growth_pct"`
	HasBaseline bool    `json:"has_baseline"`
	Label       string  `json:"label"`
	Delta       string  `json:"delta"`
}

type trendPointResponse struct {
	Month    string `json:"month"`
	Category string `json:"category"`
	Total    int64  `json:"total"`
}

type manufacturerResponse struct {
	Manufacturer string `json:"manufacturer"`
	Category     string `json:"category"`
	Total        int64  `json:"total"`
}

type summaryResponse struct {
	Start         string                 `json:"start"`
	End           string                 `json:"end"`
	Categories    []string               `json:"categories"`
	Manufacturers []string               `json:"manufacturers"`
	Empty         bool                   `json:"empty"`
	Total         int64                  `json:"total"`
	TotalLabel    string                 `json:"total_label"`
	YoY           growthResponse         `json:"yoy"`
	QoQ           growthResponse         `json:"qoq"`
	Trend         []trendPointResponse   `json:"trend"`
	ByMfr         []manufacturerResponse `json:"by_manufacturer"`
}

type optionsResponse struct {
	Categories    []string `json:"categories"`
	Manufacturers []string `json:"manufacturers"`
	MinDate       string   `json:"min_date,omitempty"`
	MaxDate       string   `json:"max_date,omitempty"`
}

func newGrowthResponse(g core.GrowthMetric, kind core.OffsetKind) growthResponse {
	return growthResponse{
		Current:     g.Current,
		Prior:       g.Prior,
		GrowthPct:   g.GrowthPct,
		HasBaseline: g.HasBaseline,
		Label:       formatGrowth(g.GrowthPct),
		Delta:       formatDelta(g.Prior, kind),
	}
}

func newTrendResponse(points []analytics.TrendPoint) []trendPointResponse {
	out := make([]trendPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, trendPointResponse{
			Month:    formatMonth(p.Month),
			Category: p.Category,
			Total:    p.Total,
		})
	}
	return out
}

func newManufacturerResponse(totals []analytics.ManufacturerTotal) []manufacturerResponse {
	out := make([]manufacturerResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, manufacturerResponse{
			Manufacturer: t.Manufacturer,
			Category:     t.Category,
			Total:        t.Total,
		})
	}
	return out
}

func newSummaryResponse(sum analytics.Summary) summaryResponse {
	return summaryResponse{
		Start:         formatDate(sum.Selection.Start),
		End:           formatDate(sum.Selection.End),
		Categories:    nonNil(sum.Selection.Categories),
		Manufacturers: nonNil(sum.Selection.Manufacturers),
		Empty:         sum.Empty,
		Total:         sum.Total,
		TotalLabel:    formatThousands(sum.Total),
		YoY:           newGrowthResponse(sum.YoY, core.YearOverYear),
		QoQ:           newGrowthResponse(sum.QoQ, core.QuarterOverQuarter),
		Trend:         newTrendResponse(sum.Trend),
		ByMfr:         newManufacturerResponse(sum.Manufacturers),
	}
}

func newOptionsResponse(o services.Options) optionsResponse {
	return optionsResponse{
		Categories:    nonNil(o.Categories),
		Manufacturers: nonNil(o.Manufacturers),
		MinDate:       formatDate(o.MinDate),
		MaxDate:       formatDate(o.MaxDate),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
