package retry

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy returns how long to wait after the given failed attempt (1-based)
type BackoffStrategy interface {
	NextBackoff(attempt int) time.Duration
}

// ConstantBackoff waits the same interval after every attempt
type ConstantBackoff struct {
	Interval time.Duration
}

// NextBackoff returns the constant interval
func (b *ConstantBackoff) NextBackoff(int) time.Duration {
	return b.Interval
}

// ExponentialBackoff grows the wait by Multiplier per attempt, adds up to JitterFactor of
// random extra wait and caps the result at MaxInterval.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// NextBackoff calculates the wait after attempt
func (b *ExponentialBackoff) NextBackoff(attempt int) time.Duration {
	wait := float64(b.InitialInterval) * math.Pow(b.Multiplier, float64(attempt-1))

	if b.JitterFactor > 0 {
		wait += rand.Float64() * b.JitterFactor * wait
	}

	if b.MaxInterval > 0 && wait > float64(b.MaxInterval) {
		wait = float64(b.MaxInterval)
	}
	return time.Duration(wait)
}

// NewDefaultExponentialBackoff is used for calls to remote services
func NewDefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		Multiplier:      1.5,
		JitterFactor:    0.2,
	}
}
