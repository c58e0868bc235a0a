package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
	"github.com/vaidashi/pool-dealer-portal/pkg/ratelimit"
)

// RejectFunc writes the response for a throttled request
type RejectFunc func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)

// RateLimiterMiddleware throttles requests per client IP
type RateLimiterMiddleware struct {
	limiter           *ratelimit.KeyedLimiter
	reject            RejectFunc
	logger            logger.Logger
	trustForwardedFor bool
}

// RateLimiterConfig configures the rate limiter middleware
type RateLimiterConfig struct {
	Burst             float64
	RatePerSec        float64
	TrustForwardedFor bool
	Reject            RejectFunc
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(cfg RateLimiterConfig, logger logger.Logger) *RateLimiterMiddleware {
	reject := cfg.Reject
	if reject == nil {
		reject = func(w http.ResponseWriter, _ *http.Request, _ time.Duration) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		}
	}

	return &RateLimiterMiddleware{
		limiter:           ratelimit.NewKeyedLimiter(cfg.Burst, cfg.RatePerSec, 10*time.Minute),
		reject:            reject,
		logger:            logger,
		trustForwardedFor: cfg.TrustForwardedFor,
	}
}

// Middleware returns a middleware function
func (m *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := m.clientIP(r)

		if ok, wait := m.limiter.Allow(ip); !ok {
			m.logger.Warn("Rate limit exceeded", "method", r.Method, "path", r.URL.Path, "ip", ip)

			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			m.reject(w, r, wait)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client IP from the request
func (m *RateLimiterMiddleware) clientIP(r *http.Request) string {
	if m.trustForwardedFor {
		if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
			// the first entry is the original client
			return strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Stop stops the limiter's sweep loop
func (m *RateLimiterMiddleware) Stop() {
	m.limiter.Stop()
}
