package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"regdash/internal/analytics"
	"regdash/internal/cache"
	"regdash/internal/core"
)

// DashboardService owns the loaded dataset for the lifetime of the process
// and memoizes summaries per selection. The dataset is never replaced;
// summaries returned to callers are shared and must be treated as read-only.
type DashboardService struct {
	dataset  *core.Dataset
	source   string
	loadedAt time.Time

	summaries    *cache.LRUCache[analytics.Summary]
	group        singleflight.Group
	computations atomic.Uint64
}

// Options lists the values a selection can be built from.
type Options struct {
	Categories    []string
	Manufacturers []string
	MinDate       core.Date
	MaxDate       core.Date
}

// Stats reports dataset and cache counters for the metrics endpoint.
type Stats struct {
	Rows         int
	Source       string
	LoadedAt     time.Time
	Computations uint64
	CachedItems  int
	Cache        cache.Stats
}

type DashboardOption func(*DashboardService)

// WithSummaryCache bounds the summary cache.
func WithSummaryCache(size int, ttl time.Duration) DashboardOption {
	return func(s *DashboardService) {
		s.summaries = cache.NewLRUCache[analytics.Summary](size, ttl)
	}
}

// WithSource records where the dataset was loaded from.
func WithSource(source string) DashboardOption {
	return func(s *DashboardService) { s.source = source }
}

func NewDashboardService(ds *core.Dataset, opts ...DashboardOption) *DashboardService {
	if ds == nil {
		ds, _ = core.NewDataset(nil)
	}
	s := &DashboardService{
		dataset:   ds,
		loadedAt:  time.Now(),
		summaries: cache.NewLRUCache[analytics.Summary](256, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dataset returns the immutable dataset.
func (s *DashboardService) Dataset() *core.Dataset {
	return s.dataset
}

// Cache exposes the summary cache for periodic cleanup.
func (s *DashboardService) Cache() cache.Cleaner {
	return s.summaries
}

// DefaultSelection covers the full date range, every category and every
// manufacturer.
func (s *DashboardService) DefaultSelection() core.Selection {
	return s.dataset.FullSelection()
}

// Options returns all categories, the manufacturers present in categories
// (all manufacturers when none are given) and the dataset date range.
func (s *DashboardService) Options(categories []string) Options {
	minDate, maxDate := s.dataset.DateRange()
	return Options{
		Categories:    s.dataset.Categories(),
		Manufacturers: s.dataset.Manufacturers(categories...),
		MinDate:       minDate,
		MaxDate:       maxDate,
	}
}

// Summary returns the dashboard summary for sel. Concurrent calls for the same
// selection share one computation; results are cached by Selection.Key.
// An invalid range returns core.ErrInvalidRange and is not cached. On an
// empty dataset the default selection yields an empty summary.
func (s *DashboardService) Summary(ctx context.Context, sel core.Selection) (analytics.Summary, error) {
	// An empty dataset has no date range to default to.
	if s.dataset.Len() == 0 && sel.Start.IsZero() && sel.End.IsZero() {
		return analytics.Summary{Selection: sel, Empty: true}, nil
	}
	if err := sel.Validate(); err != nil {
		return analytics.Summary{}, err
	}
	key := sel.Key()
	if sum, ok := s.summaries.Get(key); ok {
		return sum, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		if sum, ok := s.summaries.Get(key); ok {
			return sum, nil
		}
		start := time.Now()
		sum, err := analytics.Summarize(s.dataset, sel)
		if err != nil {
			return analytics.Summary{}, err
		}
		s.computations.Add(1)
		s.summaries.Set(key, sum)
		slog.Debug("Summary computed", "key", key, "duration", time.Since(start), "empty", sum.Empty)
		return sum, nil
	})

	select {
	case <-ctx.Done():
		return analytics.Summary{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return analytics.Summary{}, res.Err
		}
		return res.Val.(analytics.Summary), nil
	}
}

func (s *DashboardService) Stats() Stats {
	return Stats{
		Rows:         s.dataset.Len(),
		Source:       s.source,
		LoadedAt:     s.loadedAt,
		Computations: s.computations.Load(),
		CachedItems:  s.summaries.Size(),
		Cache:        s.summaries.Stats(),
	}
}
