// Package ratelimit provides a shared minimum-interval rate limiter.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter enforces a minimum delay between consecutive calls to Wait,
// shared across all goroutines holding the same instance.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

// NewLimiter creates a limiter allowing at most ratePerMin calls per minute.
func NewLimiter(ratePerMin float64) (*Limiter, error) {
	if ratePerMin <= 0 {
		return nil, fmt.Errorf("rate per minute must be positive, got %v", ratePerMin)
	}
	return &Limiter{
		minDelay: time.Duration(float64(time.Minute) / ratePerMin),
	}, nil
}

// Wait blocks until at least the minimum delay has passed since the last
// completed Wait across all callers. The last-call timestamp is updated
// under the lock, so concurrent callers serialize and never observe a
// torn check-then-update sequence.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := time.Since(l.lastCall)
	if remaining := l.minDelay - elapsed; remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	l.lastCall = time.Now()
	return nil
}

// MinDelay returns the enforced spacing between calls.
func (l *Limiter) MinDelay() time.Duration {
	return l.minDelay
}
