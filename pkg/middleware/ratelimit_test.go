package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

func TestMiddlewareThrottlesPerIP(t *testing.T) {
	rejected := 0
	m := NewRateLimiterMiddleware(RateLimiterConfig{
		Burst:      2,
		RatePerSec: 0.01,
		Reject: func(w http.ResponseWriter, _ *http.Request, wait time.Duration) {
			rejected++
			if wait <= 0 {
				t.Errorf("retry after = %v, want > 0", wait)
			}
			w.WriteHeader(http.StatusTooManyRequests)
		},
	}, logger.NewNop())
	defer m.Stop()

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := call("192.0.2.1:5000"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}

	rec := call("192.0.2.1:5001")
	if rec.Code != http.StatusTooManyRequests || rejected != 1 {
		t.Fatalf("third request = %d (rejected %d)", rec.Code, rejected)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	if rec := call("198.51.100.7:5000"); rec.Code != http.StatusNoContent {
		t.Errorf("other client = %d, want its own budget", rec.Code)
	}
}

func TestClientIPForwardedFor(t *testing.T) {
	m := &RateLimiterMiddleware{trustForwardedFor: true}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if got := m.clientIP(req); got != "203.0.113.9" {
		t.Errorf("clientIP() = %q", got)
	}

	m.trustForwardedFor = false
	if got := m.clientIP(req); got != "10.0.0.1" {
		t.Errorf("clientIP() = %q without trusting proxies", got)
	}
}
