package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAllowRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, 1, WithClock(func() time.Time { return now }))

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("burst of two should pass")
	}
	if l.Allow("a") {
		t.Fatalf("third call should be limited")
	}
	if !l.Allow("b") {
		t.Fatalf("keys must not share a bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatalf("token should refill after one second")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	l := New(1, 0.001)
	if err := l.Wait(context.Background(), "k"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestDisabledLimiter(t *testing.T) {
	l := New(1, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow("k") {
			t.Fatalf("disabled limiter refused call %d", i)
		}
	}
	var nilLimiter *Limiter
	if err := nilLimiter.Wait(context.Background(), "k"); err != nil {
		t.Fatalf("nil limiter: %v", err)
	}
}
