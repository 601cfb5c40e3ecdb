package politeness

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces consecutive fetches by a fixed minimum interval. It is a
// token bucket with a burst of one, so it can be shared by several workers
// and still never lets two requests through closer than the interval.
type Limiter struct {
	interval time.Duration
	bucket   *rate.Limiter
}

// NewLimiter creates a limiter. A non-positive interval disables waiting.
func NewLimiter(interval time.Duration) *Limiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Limiter{
		interval: interval,
		bucket:   rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the next fetch is permitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.interval <= 0 {
		return nil
	}
	return l.bucket.Wait(ctx)
}

// Interval returns the configured minimum spacing.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}
