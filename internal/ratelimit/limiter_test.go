package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	limiter := NewLimiter("yahoo", 60)

	if limiter.Name() != "yahoo" {
		t.Errorf("Expected name 'yahoo', got '%s'", limiter.Name())
	}
	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Errorf("Request %d should have been allowed", i)
		}
	}
}

func TestLimiterWait(t *testing.T) {
	limiter := NewLimiter("test", 120)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait took too long")
	}
}

func TestLimiterBackoff(t *testing.T) {
	limiter := NewLimiter("test", 60)
	initial := limiter.Backoff()

	limiter.SignalRateLimited()
	after1 := limiter.Backoff()
	if after1 <= initial {
		t.Error("Backoff should increase after rate limit signal")
	}

	limiter.SignalRateLimited()
	if limiter.Backoff() <= after1 {
		t.Error("Backoff should continue to increase")
	}

	limiter.ResetBackoff()
	if limiter.Backoff() != initial {
		t.Errorf("Expected backoff reset to %v, got %v", initial, limiter.Backoff())
	}
}

func TestWaitHonoursCancelDuringBackoff(t *testing.T) {
	limiter := NewLimiter("test", 60)
	for i := 0; i < 10; i++ {
		limiter.SignalRateLimited()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx); err == nil {
		t.Error("Expected context error while backing off")
	}
}

func TestNonPositiveRateDefaults(t *testing.T) {
	if !NewLimiter("zero", 0).Allow() {
		t.Error("Expected default rate to allow the first request")
	}
}
