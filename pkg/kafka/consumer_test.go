package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// fakeGroup runs consume for every Consume call and counts the calls
type fakeGroup struct {
	sarama.ConsumerGroup

	mu      sync.Mutex
	calls   int
	closed  bool
	errs    chan error
	consume func(call int) error
}

func newFakeGroup(consume func(call int) error) *fakeGroup {
	errs := make(chan error)
	close(errs)
	return &fakeGroup{errs: errs, consume: consume}
}

func (g *fakeGroup) Consume(ctx context.Context, _ []string, _ sarama.ConsumerGroupHandler) error {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()
	return g.consume(call)
}

func (g *fakeGroup) Errors() <-chan error { return g.errs }

func (g *fakeGroup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func runConsumer(t *testing.T, c *Consumer, ctx context.Context) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return")
	}
}

func TestRunRejoinsImmediatelyAfterRebalance(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group := newFakeGroup(func(call int) error {
		if call == 3 {
			cancel()
		}
		return nil
	})
	c := newConsumer(group, []string{"pool-orders.events"}, logger.NewNop())
	c.retryDelay = time.Hour

	runConsumer(t, c, ctx)

	if group.calls != 3 {
		t.Errorf("Consume calls = %d, want 3", group.calls)
	}
	if !group.closed {
		t.Error("group was not closed")
	}
}

func TestRunWaitsAfterFailedSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group := newFakeGroup(func(call int) error {
		if call == 1 {
			return errors.New("broker unreachable")
		}
		cancel()
		return nil
	})
	c := newConsumer(group, []string{"pool-orders.events"}, logger.NewNop())
	c.retryDelay = 50 * time.Millisecond

	start := time.Now()
	runConsumer(t, c, ctx)

	if elapsed := time.Since(start); elapsed < c.retryDelay {
		t.Errorf("rejoined after %s, want at least %s", elapsed, c.retryDelay)
	}
	if group.calls != 2 {
		t.Errorf("Consume calls = %d, want 2", group.calls)
	}
}

func TestRunStopsWhenGroupIsClosed(t *testing.T) {
	group := newFakeGroup(func(int) error { return sarama.ErrClosedConsumerGroup })
	c := newConsumer(group, []string{"pool-orders.events"}, logger.NewNop())
	c.retryDelay = time.Hour

	runConsumer(t, c, context.Background())

	if group.calls != 1 {
		t.Errorf("Consume calls = %d, want 1", group.calls)
	}
}
