// Package handlers turns domain events into dealer emails, whether they arrive from the
// outbox directly or through Kafka.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/vaidashi/pool-dealer-portal/internal/mailer"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// ContactLookup finds the addressee of a dealer's mail
type ContactLookup interface {
	Contact(ctx context.Context, dealerID string) (*repository.DealerContact, error)
}

// EmailHandler mails the dealer behind each order and account event
type EmailHandler struct {
	contacts  ContactLookup
	mailer    mailer.Mailer
	portalURL string
	logger    logger.Logger
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(contacts ContactLookup, m mailer.Mailer, portalURL string, logger logger.Logger) *EmailHandler {
	return &EmailHandler{
		contacts:  contacts,
		mailer:    m,
		portalURL: portalURL,
		logger:    logger,
	}
}

// HandleMessage handles events consumed from Kafka
func (h *EmailHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.OutboxMessageEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A payload that cannot be decoded will never succeed; drop it.
		h.logger.Error("Failed to unmarshal event", "error", err, "offset", msg.Offset)
		return nil
	}
	return h.Dispatch(ctx, event)
}

// Dispatch renders and sends the email for one event. Send failures are returned so the
// caller can retry; events with no addressee or no template are logged and skipped.
func (h *EmailHandler) Dispatch(ctx context.Context, event models.OutboxMessageEvent) error {
	h.logger.Info("Handling event",
		"eventType", event.EventType,
		"eventID", event.EventID,
		"aggregateID", event.AggregateID,
		"occurredAt", event.OccurredAt,
	)

	contact, err := h.contacts.Contact(ctx, event.DealerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.logger.Warn("No contact for dealer, skipping email", "dealerID", event.DealerID, "eventID", event.EventID)
			return nil
		}
		return fmt.Errorf("look up dealer contact: %w", err)
	}

	var email *mailer.Email
	switch event.EventType {
	case models.EventOrderCreated, models.EventOrderStatusChanged:
		email, err = h.orderEmail(event, contact)
	case models.EventDealerApproved, models.EventDealerRevoked:
		email, err = mailer.RenderDealer(event.EventType, mailer.DealerEmail{
			ContactName: contact.ContactName,
			CompanyName: contact.CompanyName,
			PortalURL:   h.portalURL,
		})
	default:
		h.logger.Warn("Unknown event type", "eventType", event.EventType)
		return nil
	}
	if err != nil {
		h.logger.Error("Failed to render email", "error", err, "eventID", event.EventID)
		return nil
	}

	if err := h.mailer.Send(ctx, contact.Email, email.Subject, email.HTML); err != nil {
		return fmt.Errorf("send %s email: %w", event.EventType, err)
	}

	h.logger.Info("Email sent", "eventType", event.EventType, "dealerID", event.DealerID)
	return nil
}

func (h *EmailHandler) orderEmail(event models.OutboxMessageEvent, contact *repository.DealerContact) (*mailer.Email, error) {
	var data models.OrderEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return nil, fmt.Errorf("invalid order event data: %w", err)
	}

	return mailer.RenderOrder(event.EventType, mailer.OrderEmail{
		ContactName: contact.ContactName,
		CompanyName: contact.CompanyName,
		OrderID:     data.OrderID,
		OldStatus:   string(data.OldStatus),
		NewStatus:   string(data.NewStatus),
		Comment:     data.Comment,
		PortalURL:   h.portalURL,
	})
}
