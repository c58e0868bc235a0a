package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAndRecovers(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := New(Config{FailureThreshold: 2, ResetTimeout: time.Minute, HalfOpenMaxCalls: 1})
	cb.now = func() time.Time { return now }

	boom := errors.New("smtp down")
	fail := func() error { return boom }

	if err := cb.Execute(fail); err != boom {
		t.Fatalf("first failure = %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %s after one failure", cb.State())
	}
	_ = cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %s after threshold, want open", cb.State())
	}

	called := false
	if err := cb.Execute(func() error { called = true; return nil }); err != ErrOpen || called {
		t.Fatalf("open breaker ran the call (err = %v)", err)
	}

	now = now.Add(time.Minute)
	if !cb.Allow() {
		t.Fatal("expected a trial call after the reset timeout")
	}
	if cb.Allow() {
		t.Fatal("only one trial call is allowed while half-open")
	}
	cb.Success()
	if cb.State() != StateClosed {
		t.Fatalf("state = %s after a successful trial, want closed", cb.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := New(Config{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.now = func() time.Time { return now }

	cb.Failure()
	now = now.Add(time.Second)

	if err := cb.Execute(func() error { return errors.New("still down") }); err == nil {
		t.Fatal("expected the trial error")
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}
	if snap := cb.Snapshot(); snap.State != "open" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{FailureThreshold: 2, ResetTimeout: time.Minute})

	cb.Failure()
	cb.Success()
	cb.Failure()

	if cb.State() != StateClosed {
		t.Fatalf("state = %s, failures must be consecutive to open", cb.State())
	}
}
