// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// defaultIntervals is the built-in minimum spacing between requests to
// each source, following the published etiquette of each API. Sources not
// listed fall back to one request per second.
var defaultIntervals = map[string]time.Duration{
	"unpaywall":        100 * time.Millisecond,
	"openalex":         100 * time.Millisecond,
	"crossref":         500 * time.Millisecond,
	"biorxiv":          500 * time.Millisecond,
	"pmc":              334 * time.Millisecond,
	"semantic_scholar": time.Second,
	"arxiv":            3 * time.Second,
	"scihub":           2 * time.Second,
	"libgen":           2 * time.Second,
}

const fallbackInterval = time.Second

// RateLimiter paces requests per source name. Limiters are created
// lazily on first use, so sources that never fire never allocate one.
// It is safe for concurrent use.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	overrides map[string]time.Duration
}

// NewRateLimiter builds a limiter set. Intervals in cfg.PerSourceDelays
// override the built-in defaults for the named sources.
func NewRateLimiter(cfg types.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		overrides: cfg.PerSourceDelays,
	}
}

// Interval returns the effective minimum spacing for a source.
func (r *RateLimiter) Interval(source string) time.Duration {
	if d, ok := r.overrides[source]; ok && d > 0 {
		return d
	}
	if d, ok := defaultIntervals[source]; ok {
		return d
	}
	return fallbackInterval
}

// Wait blocks until the named source may issue its next request, or
// until the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context, source string) error {
	r.mu.Lock()
	lim, ok := r.limiters[source]
	if !ok {
		lim = rate.NewLimiter(rate.Every(r.Interval(source)), 1)
		r.limiters[source] = lim
	}
	r.mu.Unlock()

	return lim.Wait(ctx)
}
