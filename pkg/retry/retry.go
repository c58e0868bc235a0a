package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// Func is an operation that may be attempted more than once
type Func func(ctx context.Context) error

// Config holds the configuration for retrying operations
type Config struct {
	MaxAttempts int
	Backoff     BackoffStrategy
	Logger      logger.Logger
	// Retryable decides whether an error is worth another attempt. When nil, errors
	// listed in RetryableErrors are retried, or every error when that list is empty.
	Retryable       func(error) bool
	RetryableErrors []error
	// Operation labels log lines
	Operation string
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempts run out or
// ctx is done.
func Do(ctx context.Context, cfg Config, fn Func) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff == nil {
		cfg.Backoff = &ConstantBackoff{Interval: 100 * time.Millisecond}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry cancelled by context: %w", err)
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		if !cfg.retryable(err) {
			cfg.Logger.Warn("Non-retryable error encountered, giving up",
				"operation", cfg.Operation,
				"error", err,
				"attempt", attempt)
			return err
		}

		wait := cfg.Backoff.NextBackoff(attempt)
		cfg.Logger.Info("Retrying after error",
			"operation", cfg.Operation,
			"error", err,
			"attempt", attempt,
			"maxAttempts", cfg.MaxAttempts,
			"backoff", wait)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled by context during backoff: %w", ctx.Err())
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", cfg.MaxAttempts, lastErr)
}

func (c Config) retryable(err error) bool {
	if c.Retryable != nil {
		return c.Retryable(err)
	}
	if len(c.RetryableErrors) == 0 {
		return true
	}
	for _, target := range c.RetryableErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
