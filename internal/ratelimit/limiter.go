package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const initialBackoff = 100 * time.Millisecond

// Limiter wraps rate.Limiter with a backoff that grows on 429 responses.
type Limiter struct {
	limiter *rate.Limiter
	name    string
	mu      sync.Mutex
	backoff time.Duration
	maxWait time.Duration
	limited bool
}

// NewLimiter allows perMinute requests per minute with a small burst.
func NewLimiter(name string, perMinute int) *Limiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	rps := float64(perMinute) / 60.0
	burst := min(max(perMinute/10, 1), 5)

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
		backoff: initialBackoff,
		maxWait: 2 * time.Minute,
	}
}

// Wait blocks until a token is available. After a rate-limit signal it
// first sleeps for the current backoff.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	pause := time.Duration(0)
	if l.limited {
		pause = l.backoff
	}
	l.mu.Unlock()

	if pause > 0 {
		t := time.NewTimer(pause)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return l.limiter.Wait(ctx)
}

func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SignalRateLimited doubles the backoff, up to maxWait.
func (l *Limiter) SignalRateLimited() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limited = true
	l.backoff = min(l.backoff*2, l.maxWait)
}

// ResetBackoff is called after a successful request.
func (l *Limiter) ResetBackoff() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limited = false
	l.backoff = initialBackoff
}

func (l *Limiter) Backoff() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backoff
}

func (l *Limiter) Name() string {
	return l.name
}
