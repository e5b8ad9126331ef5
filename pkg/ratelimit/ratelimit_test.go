package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewLimiterRejectsNonPositiveRate(t *testing.T) {
	for _, rate := range []float64{0, -1, -60} {
		if _, err := NewLimiter(rate); err == nil {
			t.Errorf("NewLimiter(%v) expected error, got nil", rate)
		}
	}
}

func TestWaitEnforcesSpacing(t *testing.T) {
	// 120/min means 500ms between calls
	limiter, err := NewLimiter(120)
	if err != nil {
		t.Fatalf("NewLimiter: %v", err)
	}

	ctx := context.Background()
	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	elapsed := time.Since(start)

	// Allow scheduler jitter but the second call must have slept
	if elapsed < 450*time.Millisecond {
		t.Errorf("two Waits completed in %v, want >= ~500ms", elapsed)
	}
}

func TestWaitSerializesConcurrentCallers(t *testing.T) {
	limiter, err := NewLimiter(600) // 100ms spacing
	if err != nil {
		t.Fatalf("NewLimiter: %v", err)
	}

	const callers = 4
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(context.Background()); err != nil {
				t.Errorf("Wait: %v", err)
			}
		}()
	}
	wg.Wait()

	// 4 callers at 100ms spacing need at least ~300ms end to end
	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("%d concurrent Waits completed in %v, want >= ~300ms", callers, elapsed)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	limiter, err := NewLimiter(1) // 60s spacing forces a long sleep
	if err != nil {
		t.Fatalf("NewLimiter: %v", err)
	}

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait under expired context returned %v, want context.DeadlineExceeded", err)
	}
}
