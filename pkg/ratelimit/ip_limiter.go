package ratelimit

import (
	"sync"
	"time"
)

// KeyedLimiter keeps one token bucket per key, such as a client IP
type KeyedLimiter struct {
	limiters   map[string]*TokenBucket
	mu         sync.Mutex
	maxTokens  float64
	refillRate float64
	now        func() time.Time
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewKeyedLimiter creates a KeyedLimiter. Buckets that have refilled completely are
// dropped every sweepInterval; zero disables sweeping.
func NewKeyedLimiter(maxTokens, refillRate float64, sweepInterval time.Duration) *KeyedLimiter {
	l := &KeyedLimiter{
		limiters:   make(map[string]*TokenBucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		now:        time.Now,
		stopChan:   make(chan struct{}),
	}
	if sweepInterval > 0 {
		go l.sweepLoop(sweepInterval)
	}
	return l
}

// Allow takes a token from key's bucket. When none is left it returns false and how
// long the caller should wait.
func (l *KeyedLimiter) Allow(key string) (bool, time.Duration) {
	b := l.bucket(key)
	if b.Allow() {
		return true, 0
	}
	return false, b.RetryAfter()
}

func (l *KeyedLimiter) bucket(key string) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.limiters[key]
	if !exists {
		b = newTokenBucket(l.maxTokens, l.refillRate, l.now)
		l.limiters[key] = b
	}
	return b
}

// Sweep drops full buckets and returns how many remain
func (l *KeyedLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.limiters {
		if b.Full() {
			delete(l.limiters, key)
		}
	}
	return len(l.limiters)
}

func (l *KeyedLimiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.stopChan:
			return
		}
	}
}

// Stop ends the sweep loop
func (l *KeyedLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })
}
