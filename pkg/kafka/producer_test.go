package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

func TestSendMessageKeysByAggregate(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"event_type":"order_created"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})

	p := newProducer(mock, logger.NewNop())
	defer p.Close()

	if err := p.SendMessage(context.Background(), "pool-orders.events", "ord_1", []byte(`{"event_type":"order_created"}`)); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
}

func TestSendMessageReturnsBrokerError(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	p := newProducer(mock, logger.NewNop())
	defer p.Close()

	err := p.SendMessage(context.Background(), "pool-orders.events", "ord_1", []byte("{}"))
	if !errors.Is(err, sarama.ErrNotLeaderForPartition) {
		t.Fatalf("SendMessage() error = %v, want the broker error", err)
	}
}

func TestSendMessageHonoursCanceledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := newProducer(mock, logger.NewNop())
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.SendMessage(ctx, "pool-orders.events", "", []byte("{}")); !errors.Is(err, context.Canceled) {
		t.Fatalf("SendMessage() error = %v, want context.Canceled", err)
	}
}
