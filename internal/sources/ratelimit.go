package sources

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum interval between requests to one provider.
// Public scholarly APIs ask for serialized, spaced-out access rather than
// bursts, so the underlying token bucket is configured with burst 1.
// It is safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter that allows one request per interval.
//
// Example configurations:
//   - arXiv: NewRateLimiter(3 * time.Second)
//   - CrossRef polite pool: NewRateLimiter(time.Second)
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until a request is allowed or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed without waiting, consuming a
// token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetInterval updates the spacing between requests. Useful when a provider
// signals a stricter rate through response headers.
func (r *RateLimiter) SetInterval(interval time.Duration) {
	if interval <= 0 {
		r.limiter.SetLimit(rate.Inf)
		return
	}
	r.limiter.SetLimit(rate.Every(interval))
}

// Tokens returns the number of available tokens, for monitoring.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
