package service

import (
	"context"
	"testing"
	"time"
)

func newTestMemoryLimiter(window time.Duration, max int) (*memoryRateLimiter, *time.Time) {
	l := NewMemoryRateLimiter(window, max).(*memoryRateLimiter)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestMemoryRateLimiter_WindowAndKeys(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestMemoryLimiter(10*time.Minute, 2)

	if !l.Allow(ctx, "a@x.com") || !l.Allow(ctx, "a@x.com") {
		t.Fatalf("expected first two reset requests allowed")
	}
	if l.Allow(ctx, "a@x.com") {
		t.Fatalf("expected third reset request denied")
	}
	if !l.Allow(ctx, "b@x.com") {
		t.Fatalf("expected other email unaffected")
	}

	*clock = clock.Add(11 * time.Minute)
	if !l.Allow(ctx, "a@x.com") {
		t.Fatalf("expected request allowed after window elapsed")
	}
}

func TestMemoryRateLimiter_Defaults(t *testing.T) {
	l := NewMemoryRateLimiter(0, 0)
	if !l.Allow(context.Background(), "k") {
		t.Fatalf("expected first hit allowed")
	}
	if l.Allow(context.Background(), "k") {
		t.Fatalf("expected max to default to 1")
	}
}

func TestMemoryRateLimiter_DropsIdleEmails(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestMemoryLimiter(time.Minute, 3)

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		l.Allow(ctx, email)
	}
	if len(l.hits) != 3 {
		t.Fatalf("expected 3 tracked emails, got %d", len(l.hits))
	}

	*clock = clock.Add(30 * time.Second)
	l.Allow(ctx, "a@x.com")
	if len(l.hits) != 3 {
		t.Fatalf("expected no sweep inside the window, got %d emails", len(l.hits))
	}

	*clock = clock.Add(2 * time.Minute)
	l.Allow(ctx, "d@x.com")
	if len(l.hits) != 1 {
		t.Fatalf("expected only the fresh email tracked, got %d", len(l.hits))
	}
	if _, ok := l.hits["d@x.com"]; !ok {
		t.Fatalf("expected d@x.com tracked")
	}
}
