package chain

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter paces gateway calls per ledger using a token bucket.
// Status polling and submission share one bucket per ledger so a burst of
// retries against one ledger never starves the other.
type RateLimiter struct {
	limiters   map[ID]*rate.Limiter
	mu         sync.RWMutex
	rateLimit  rate.Limit
	burstLimit int
}

// NewRateLimiter creates a new rate limiter with the specified rate and burst.
// rate is requests per second, burst is the maximum burst size.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters:   make(map[ID]*rate.Limiter),
		rateLimit:  rate.Limit(ratePerSecond),
		burstLimit: burst,
	}
}

// DefaultRateLimiter returns a rate limiter with default settings.
// Default: 5 requests/second, burst of 10.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(5, 10)
}

// Allow reports whether a call to the ledger may proceed now.
func (r *RateLimiter) Allow(ledger ID) bool {
	return r.getLimiter(ledger).Allow()
}

// Wait blocks until a call to the ledger is allowed or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context, ledger ID) error {
	return r.getLimiter(ledger).Wait(ctx)
}

// getLimiter returns the limiter for the ledger, creating one if needed.
func (r *RateLimiter) getLimiter(ledger ID) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[ledger]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = r.limiters[ledger]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(r.rateLimit, r.burstLimit)
	r.limiters[ledger] = limiter
	return limiter
}
