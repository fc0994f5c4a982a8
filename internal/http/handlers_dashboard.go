package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"regdash/internal/analytics"
	"regdash/internal/core"
	"regdash/internal/log"
)

const (
	dashboardTitle   = "Vehicle Registrations - Investor Dashboard"
	computeTimeout   = 10 * time.Second
	rangeWarning     = "Start date must not be after end date. Please adjust the date range."
	noDataWarning    = "No data available for the selected filters. Please adjust your selection."
	invalidDateError = "Dates must use the YYYY-MM-DD format."
)

type option struct {
	Value    string
	Selected bool
}

type metricCard struct {
	Label string
	Value string
	Delta string
	// Trend is "up", "down" or "" and only drives styling.
	Trend string
	Note  string
}

type dashboardView struct {
	Title         string
	Start         string
	End           string
	MinDate       string
	MaxDate       string
	Categories    []option
	Manufacturers []option
	Warning       string
	NoData        bool
	Metrics       []metricCard
	// Query is the encoded selection the charts fetch their series with.
	Query         template.URL
}

// isInputError reports whether err comes from bad user input rather than
// from the server.
func isInputError(err error) bool {
	return errors.Is(err, core.ErrInvalidRange) || errors.Is(err, core.ErrInvalidDate)
}

func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isInputError(err):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.FromContext(r.Context()).WarnContext(r.Context(), "Summary computation abandoned", "error", err)
		ErrorResponse(http.StatusServiceUnavailable, "request cancelled").Write(w)
	default:
		log.FromContext(r.Context()).LogError(r.Context(), "Summary computation failed", err, log.OpSummary, nil)
		InternalServerError("internal error").Write(w)
	}
}

// summaryFor parses the request selection and computes its summary.
func (s *Server) summaryFor(r *http.Request) (analytics.Summary, error) {
	sel, err := ParseSelection(r.URL.Query(), s.dashboard.Dataset())
	if err != nil {
		return analytics.Summary{}, err
	}
	ctx, cancel := context.WithTimeout(r.Context(), computeTimeout)
	defer cancel()
	return s.dashboard.Summary(ctx, sel)
}

// handleSummary returns the full dashboard summary as JSON.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	sum, err := s.summaryFor(r)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	NewJSONResponse().Payload(newSummaryResponse(sum)).Write(w)
}

// handleTrend returns the monthly per-category series for the line chart.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	sum, err := s.summaryFor(r)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	NewJSONResponse().Payload(newTrendResponse(sum.Trend)).Write(w)
}

// handleManufacturers returns per-manufacturer totals for the bar chart.
func (s *Server) handleManufacturers(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	sum, err := s.summaryFor(r)
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}
	NewJSONResponse().Payload(newManufacturerResponse(sum.Manufacturers)).Write(w)
}

// handleOptions returns the filter choices. Manufacturers are restricted to
// the requested categories when any are given.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	opts := s.dashboard.Options(cleanValues(r.URL.Query()[paramCategory]))
	NewJSONResponse().Payload(newOptionsResponse(opts)).Write(w)
}

// handleIndex renders the dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			"error_type", log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	view, status := s.buildDashboardView(r, q)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", view); err != nil {
		logger.LogError(r.Context(), "Dashboard template execution failed", err, log.OpRender,
			log.NewFields().WithComponent(log.ComponentTemplate))
	}
}

func (s *Server) buildDashboardView(r *http.Request, q url.Values) (dashboardView, int) {
	ds := s.dashboard.Dataset()
	minDate, maxDate := ds.DateRange()
	view := dashboardView{
		Title:   dashboardTitle,
		MinDate: formatDate(minDate),
		MaxDate: formatDate(maxDate),
	}

	sel, err := ParseSelection(q, ds)
	if err != nil {
		view.Start = sanitizeInput(q.Get(paramStart))
		view.End = sanitizeInput(q.Get(paramEnd))
		view.Categories = markSelected(ds.Categories(), nil)
		view.Manufacturers = markSelected(ds.Manufacturers(), nil)
		view.Warning = invalidDateError
		return view, http.StatusUnprocessableEntity
	}

	view.Start = formatDate(sel.Start)
	view.End = formatDate(sel.End)
	view.Categories = markSelected(ds.Categories(), sel.Categories)
	view.Manufacturers = markSelected(s.dashboard.Options(sel.Categories).Manufacturers, sel.Manufacturers)

	ctx, cancel := context.WithTimeout(r.Context(), computeTimeout)
	defer cancel()
	sum, err := s.dashboard.Summary(ctx, sel)
	switch {
	case errors.Is(err, core.ErrInvalidRange):
		view.Warning = rangeWarning
		return view, http.StatusUnprocessableEntity
	case err != nil:
		log.FromContext(r.Context()).LogError(r.Context(), "Summary computation failed", err, log.OpSummary,
			log.NewFields().WithSelection(sel))
		view.Warning = "The dashboard could not be computed. Please retry."
		return view, http.StatusInternalServerError
	case sum.Empty:
		view.NoData = true
		view.Warning = noDataWarning
		return view, http.StatusOK
	}

	view.Metrics = metricCards(sum)
	view.Query = template.URL(SelectionQuery(sel).Encode())
	return view, http.StatusOK
}

func metricCards(sum analytics.Summary) []metricCard {
	return []metricCard{
		{Label: "Total Registrations", Value: formatThousands(sum.Total)},
		growthCard("YoY Growth %", sum.YoY, core.YearOverYear),
		growthCard("QoQ Growth %", sum.QoQ, core.QuarterOverQuarter),
	}
}

func growthCard(label string, g core.GrowthMetric, kind core.OffsetKind) metricCard {
	card := metricCard{
		Label: label,
		Value: formatGrowth(g.GrowthPct),
		Delta: formatDelta(g.Prior, kind),
	}
	switch {
	case !g.HasBaseline:
		card.Note = "no baseline"
	case g.GrowthPct > 0:
		card.Trend = "up"
	case g.GrowthPct < 0:
		card.Trend = "down"
	}
	return card
}

func markSelected(values, selected []string) []option {
	set := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		set[v] = struct{}{}
	}
	out := make([]option, 0, len(values))
	for _, v := range values {
		_, ok := set[v]
		out = append(out, option{Value: v, Selected: ok})
	}
	return out
}
