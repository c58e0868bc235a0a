package outbox

import (
	"context"
	"fmt"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// Publisher sends one keyed message to a topic
type Publisher interface {
	SendMessage(ctx context.Context, topic, key string, value []byte) error
}

// KafkaHandler publishes outbox messages to Kafka
type KafkaHandler struct {
	publisher Publisher
	topic     string
	logger    logger.Logger
}

// NewKafkaHandler creates a new KafkaHandler
func NewKafkaHandler(publisher Publisher, topic string, logger logger.Logger) *KafkaHandler {
	return &KafkaHandler{publisher: publisher, topic: topic, logger: logger}
}

// HandleMessage publishes the payload keyed by aggregate id, so events of one order or
// dealer stay in one partition and keep their order
func (h *KafkaHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	if err := h.publisher.SendMessage(ctx, h.topic, message.AggregateID, message.Payload); err != nil {
		return fmt.Errorf("failed to publish message to Kafka: %w", err)
	}

	h.logger.Debug("Published outbox message",
		"topic", h.topic,
		"messageID", message.ID,
		"aggregateID", message.AggregateID,
		"eventType", message.EventType)
	return nil
}
