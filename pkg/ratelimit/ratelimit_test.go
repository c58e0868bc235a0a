package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucketRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tb := newTokenBucket(2, 0.5, func() time.Time { return now })

	if !tb.Allow() || !tb.Allow() {
		t.Fatal("a full bucket should allow its burst")
	}
	if tb.Allow() {
		t.Fatal("an empty bucket allowed a request")
	}
	if got := tb.RetryAfter(); got != 2*time.Second {
		t.Errorf("RetryAfter() = %v, want 2s", got)
	}

	now = now.Add(2 * time.Second)
	if !tb.Allow() {
		t.Fatal("one token should have refilled after 2s")
	}
	if tb.Full() {
		t.Error("bucket reported full after spending its refill")
	}

	now = now.Add(time.Hour)
	if !tb.Full() {
		t.Error("bucket never exceeds maxTokens but should be full")
	}
}

func TestKeyedLimiterIsolatesKeys(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewKeyedLimiter(1, 0.1, 0)
	l.now = func() time.Time { return now }
	defer l.Stop()

	if ok, _ := l.Allow("10.0.0.1"); !ok {
		t.Fatal("first request denied")
	}
	ok, wait := l.Allow("10.0.0.1")
	if ok || wait != 10*time.Second {
		t.Fatalf("second request = %v, wait %v; want denied with 10s", ok, wait)
	}
	if ok, _ := l.Allow("10.0.0.2"); !ok {
		t.Fatal("another key must have its own bucket")
	}

	if remaining := l.Sweep(); remaining != 2 {
		t.Errorf("Sweep() kept %d buckets, want 2", remaining)
	}
	now = now.Add(time.Minute)
	if remaining := l.Sweep(); remaining != 0 {
		t.Errorf("Sweep() kept %d refilled buckets, want 0", remaining)
	}
	l.Stop()
}
