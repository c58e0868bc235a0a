package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

func TestOutboxCountsAndRequeue(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	svc := NewOutboxService(h.outbox, logger.NewNop())

	order := h.placeOrder(t)

	msgs, err := h.outbox.ListByAggregate(ctx, order.ID)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("outbox rows for order = %d, %v", len(msgs), err)
	}
	if err := h.outbox.MarkAsProcessing(ctx, msgs[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := h.outbox.MarkAsFailed(ctx, msgs[0].ID, "smtp down", 1); err != nil {
		t.Fatal(err)
	}

	counts, err := svc.Counts(ctx, h.admin)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[models.OutboxStatusFailed] != 1 {
		t.Fatalf("counts = %v, want one failed", counts)
	}

	_, err = svc.Requeue(ctx, h.dealer)
	assertStatus(t, err, http.StatusForbidden)

	n, err := svc.Requeue(ctx, h.admin)
	if err != nil || n != 1 {
		t.Fatalf("Requeue = %d, %v", n, err)
	}

	counts, _ = svc.Counts(ctx, h.admin)
	if counts[models.OutboxStatusFailed] != 0 || counts[models.OutboxStatusPending] != 1 {
		t.Fatalf("counts after requeue = %v", counts)
	}
}
