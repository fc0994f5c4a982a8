package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(health)
}

// handleReady reports whether templates are loaded. The dataset is loaded
// before the server starts, so an empty dataset is reported but still ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	stats := s.dashboard.Stats()
	dataset := map[string]any{
		"rows":      stats.Rows,
		"source":    stats.Source,
		"loaded_at": stats.LoadedAt.Format(time.RFC3339),
		"status":    "ok",
	}
	if stats.Rows == 0 {
		dataset["status"] = "empty"
	}
	checks["dataset"] = dataset

	checks["cache"] = map[string]any{
		"entries": stats.CachedItems,
		"status":  "ok",
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	stats := s.dashboard.Stats()
	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	w.WriteHeader(http.StatusOK)

	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	writeMetric(w, "dataset_rows", "gauge", "Observations in the loaded dataset", stats.Rows)
	writeMetric(w, "summary_computations_total", "counter", "Summaries computed from the dataset", stats.Computations)
	writeMetric(w, "summary_cache_entries", "gauge", "Current summary cache entries", stats.CachedItems)
	writeMetric(w, "summary_cache_hits_total", "counter", "Summary cache hits", stats.Cache.Hits)
	writeMetric(w, "summary_cache_misses_total", "counter", "Summary cache misses", stats.Cache.Misses)
	writeMetric(w, "summary_cache_evictions_total", "counter", "Summary cache evictions", stats.Cache.Evictions)
	writeMetric(w, "rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rateLimitMetrics.TotalHits)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	writeMetric(w, "suspicious_requests_total", "counter", "Suspicious requests rejected", securityMetrics.SuspiciousRequests)
	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.startedAt).Seconds()))
}

func writeMetric[N int | int64 | uint64](w http.ResponseWriter, name, kind, help string, value N) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}
