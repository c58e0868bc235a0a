package service

import (
	"context"
	"time"

	"github.com/vaidashi/pool-dealer-portal/internal/metrics"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// NotificationSink persists dealer notifications
type NotificationSink interface {
	Create(ctx context.Context, n *models.Notification) error
}

// FireAndForget runs side effects whose failure must not undo the change that triggered
// them. It is only ever invoked after that change has committed. Failures are logged and
// counted, never returned.
type FireAndForget struct {
	logger  logger.Logger
	timeout time.Duration
}

// NewFireAndForget creates a FireAndForget bounding each side effect by timeout
func NewFireAndForget(logger logger.Logger, timeout time.Duration) *FireAndForget {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &FireAndForget{logger: logger, timeout: timeout}
}

// Run executes fn synchronously on a context detached from the request's cancellation
func (f *FireAndForget) Run(ctx context.Context, operation string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			metrics.BestEffortFailuresTotal.WithLabelValues(operation).Inc()
			f.logger.Error("Best-effort operation panicked", "operation", operation, "panic", p)
		}
	}()

	if err := fn(ctx); err != nil {
		metrics.BestEffortFailuresTotal.WithLabelValues(operation).Inc()
		f.logger.Warn("Best-effort operation failed", "operation", operation, "error", err)
	}
}

// Notify stores a dealer notification
func (f *FireAndForget) Notify(ctx context.Context, sink NotificationSink, n *models.Notification) {
	f.Run(ctx, "notify", func(ctx context.Context) error {
		return sink.Create(ctx, n)
	})
}
