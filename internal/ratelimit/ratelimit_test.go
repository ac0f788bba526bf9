package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_WaitBlocksPastBurst(t *testing.T) {
	// 60 requests/minute => 1/sec, burst of 6.
	l := New(60)

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("unexpected error draining burst token %d: %v", i, err)
		}
	}

	start := time.Now()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("unexpected error waiting for refill: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("expected Wait to block for a refill once burst is exhausted, returned after %s", elapsed)
	}
}

func TestLimiter_WaitRespectsContextCancellation(t *testing.T) {
	l := New(6) // 0.1 req/sec, burst 1

	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("unexpected error draining the single burst token: %v", err)
	}

	cancelCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(cancelCtx); err == nil {
		t.Error("expected Wait to return an error once ctx deadline passes before a token is available")
	}
}
