package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"regdash/internal/cache"
	"regdash/internal/log"
	"regdash/internal/middleware/ratelimit"
	"regdash/internal/middleware/security"
	"regdash/internal/middleware/trace"
	"regdash/internal/services"
	appweb "regdash/web"
)

// Server serves the registrations dashboard and its JSON API.
type Server struct {
	http.Server
	templates *template.Template
	dashboard *services.DashboardService
	logger    *log.Logger

	rateLimiter     *ratelimit.Limiter
	detector        *security.Detector
	traceMiddleware *trace.Middleware
	cacheManager    *cache.Manager

	startedAt    time.Time
	shutdownOnce sync.Once
}

// Options tunes the server's ambient middleware.
type Options struct {
	RateLimitPerMinute   int
	CacheCleanupInterval time.Duration
	Logger               *log.Logger
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server. Call Shutdown to stop background cleanup.
func NewServer(addr string, dashboard *services.DashboardService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default(log.ComponentHTTP)
	}
	if opts.CacheCleanupInterval <= 0 {
		opts.CacheCleanupInterval = 5 * time.Minute
	}

	s := &Server{
		dashboard:    dashboard,
		logger:       opts.Logger,
		detector:     security.NewDetector(),
		cacheManager: cache.NewManager(),
		startedAt:    time.Now(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
	}
	s.traceMiddleware = trace.NewMiddleware(s.detector.ClientIP)

	s.cacheManager.Register("summaries", dashboard.Cache())
	s.cacheManager.StartCleanup(opts.CacheCleanupInterval)

	t, err := parseTemplates()
	if err != nil {
		s.logger.Error("Failed parsing templates", "error", err, log.FieldComponent, log.ComponentTemplate)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	limited := s.rateLimiter.Middleware(s.detector.ClientIP, s.onRateLimit)

	mux.Handle("/", limited(http.HandlerFunc(s.handleIndex)))
	mux.Handle("/api/summary", limited(http.HandlerFunc(s.handleSummary)))
	mux.Handle("/api/trend", limited(http.HandlerFunc(s.handleTrend)))
	mux.Handle("/api/manufacturers", limited(http.HandlerFunc(s.handleManufacturers)))
	mux.Handle("/api/options", limited(http.HandlerFunc(s.handleOptions)))
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.Middleware(s.logger, trace.RequestID)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"thousands": formatThousands,
		"growth":    formatGrowth,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		TooManyRequestsError("rate limit exceeded, retry in a minute").Write(w)
		return
	}
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
