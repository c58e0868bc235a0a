package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// Dispatcher acts on a decoded domain event
type Dispatcher interface {
	Dispatch(ctx context.Context, event models.OutboxMessageEvent) error
}

// DirectHandler decodes outbox messages and dispatches them in process. It replaces the
// Kafka hop when no brokers are configured.
type DirectHandler struct {
	dispatcher Dispatcher
	logger     logger.Logger
}

// NewDirectHandler creates a new DirectHandler
func NewDirectHandler(dispatcher Dispatcher, logger logger.Logger) *DirectHandler {
	return &DirectHandler{dispatcher: dispatcher, logger: logger}
}

// HandleMessage decodes the payload and dispatches it
func (h *DirectHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	var event models.OutboxMessageEvent
	if err := json.Unmarshal(message.Payload, &event); err != nil {
		return fmt.Errorf("failed to unmarshal outbox message: %w", err)
	}

	h.logger.Debug("Dispatching outbox message",
		"messageID", message.ID,
		"eventType", event.EventType,
		"eventID", event.EventID)

	return h.dispatcher.Dispatch(ctx, event)
}
