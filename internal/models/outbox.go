package models

import (
	"encoding/json"
	"time"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types written to the outbox
const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
	EventDealerApproved     = "dealer_approved"
	EventDealerRevoked      = "dealer_revoked"
)

// OutboxMessage represents a message to be published from the outbox table
type OutboxMessage struct {
	ID                 string       `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// OutboxMessageEvent is the envelope serialized into the payload column and onto Kafka
type OutboxMessageEvent struct {
	EventType   string          `json:"event_type"`
	EventID     string          `json:"event_id"`
	AggregateID string          `json:"aggregate_id"`
	DealerID    string          `json:"dealer_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Data        json.RawMessage `json:"data"`
}

// OrderEventData is carried by order_created and order_status_changed events
type OrderEventData struct {
	OrderID   string      `json:"order_id"`
	DealerID  string      `json:"dealer_id"`
	OldStatus OrderStatus `json:"old_status,omitempty"`
	NewStatus OrderStatus `json:"new_status"`
	Comment   string      `json:"comment,omitempty"`
	ActorID   string      `json:"actor_id"`
}

// DealerEventData is carried by dealer_approved and dealer_revoked events
type DealerEventData struct {
	DealerID string `json:"dealer_id"`
	ActorID  string `json:"actor_id"`
}

func newOutboxMessage(eventType, aggregateType, aggregateID, dealerID string, data interface{}) (*OutboxMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	now := GetCurrentTime()
	event := OutboxMessageEvent{
		EventType:   eventType,
		EventID:     GenerateID("evt"),
		AggregateID: aggregateID,
		DealerID:    dealerID,
		OccurredAt:  now,
		Data:        raw,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		ID:            GenerateID("obx"),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Status:        OutboxStatusPending,
	}, nil
}

// NewOrderCreatedEvent creates a new order created event
func NewOrderCreatedEvent(order *Order, actorID string) (*OutboxMessage, error) {
	return newOutboxMessage(EventOrderCreated, "order", order.ID, order.DealerID, OrderEventData{
		OrderID:   order.ID,
		DealerID:  order.DealerID,
		NewStatus: order.Status,
		ActorID:   actorID,
	})
}

// NewOrderStatusChangedEvent creates a new event for order status change
func NewOrderStatusChangedEvent(order *Order, oldStatus OrderStatus, comment, actorID string) (*OutboxMessage, error) {
	return newOutboxMessage(EventOrderStatusChanged, "order", order.ID, order.DealerID, OrderEventData{
		OrderID:   order.ID,
		DealerID:  order.DealerID,
		OldStatus: oldStatus,
		NewStatus: order.Status,
		Comment:   comment,
		ActorID:   actorID,
	})
}

// NewDealerApprovalEvent creates a dealer_approved or dealer_revoked event
func NewDealerApprovalEvent(dealerID string, approved bool, actorID string) (*OutboxMessage, error) {
	eventType := EventDealerRevoked
	if approved {
		eventType = EventDealerApproved
	}
	return newOutboxMessage(eventType, "dealer", dealerID, dealerID, DealerEventData{
		DealerID: dealerID,
		ActorID:  actorID,
	})
}
