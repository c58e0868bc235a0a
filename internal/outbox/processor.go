package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/vaidashi/pool-dealer-portal/internal/metrics"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// MessageHandler defines the interface for handling outbox messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, message *models.OutboxMessage) error
}

// Processor relays committed outbox messages to their handlers
type Processor struct {
	outboxRepo      *repository.OutboxRepository
	handlers        map[string]MessageHandler
	pollingInterval time.Duration
	batchSize       int
	maxRetries      int
	logger          logger.Logger
}

// ProcessorConfig holds the configuration for the Processor
type ProcessorConfig struct {
	PollingInterval time.Duration
	BatchSize       int
	MaxRetries      int
}

// NewProcessor creates a new Processor
func NewProcessor(outboxRepo *repository.OutboxRepository, config ProcessorConfig, logger logger.Logger) *Processor {
	if config.PollingInterval <= 0 {
		config.PollingInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 20
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}

	return &Processor{
		outboxRepo:      outboxRepo,
		handlers:        make(map[string]MessageHandler),
		pollingInterval: config.PollingInterval,
		batchSize:       config.BatchSize,
		maxRetries:      config.MaxRetries,
		logger:          logger,
	}
}

// RegisterHandler registers a message handler for a specific event type
func (p *Processor) RegisterHandler(eventType string, handler MessageHandler) {
	p.handlers[eventType] = handler
}

// Run polls the outbox until ctx is done
func (p *Processor) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.pollingInterval)
	defer ticker.Stop()

	p.logger.Info("Outbox processor started",
		"pollingInterval", p.pollingInterval,
		"batchSize", p.batchSize,
		"maxRetries", p.maxRetries)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor stopped")
			return nil
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error("Failed to process outbox batch", "error", err)
			}
		}
	}
}

// ProcessBatch handles one batch of pending messages and returns how many succeeded
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.pollingInterval)
	defer cancel()

	messages, err := p.outboxRepo.GetPendingMessages(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending messages: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	p.logger.Debug("Processing batch of outbox messages", "count", len(messages))

	done := 0
	for _, msg := range messages {
		if err := p.processMessage(ctx, msg); err != nil {
			p.logger.Error("Failed to process message",
				"error", err,
				"messageID", msg.ID,
				"aggregateID", msg.AggregateID,
				"eventType", msg.EventType)
			continue
		}
		done++
	}
	return done, nil
}

// processMessage hands one message to its handler. A failure returns the message to
// pending until its attempts reach maxRetries; a message without a handler fails at once.
func (p *Processor) processMessage(ctx context.Context, msg *models.OutboxMessage) error {
	if err := p.outboxRepo.MarkAsProcessing(ctx, msg.ID); err != nil {
		return fmt.Errorf("failed to mark message as processing: %w", err)
	}

	handler, exists := p.handlers[msg.EventType]
	if !exists {
		errorMsg := fmt.Sprintf("no handler registered for event type: %s", msg.EventType)
		metrics.OutboxMessagesTotal.WithLabelValues(msg.EventType, "unhandled").Inc()
		if err := p.outboxRepo.MarkAsFailed(ctx, msg.ID, errorMsg, 0); err != nil {
			p.logger.Error("Failed to mark message as failed", "error", err, "messageID", msg.ID)
		}
		return fmt.Errorf("%s", errorMsg)
	}

	if err := handler.HandleMessage(ctx, msg); err != nil {
		attempts := msg.ProcessingAttempts + 1
		outcome := "retry"
		if attempts >= p.maxRetries {
			outcome = "failed"
		}
		metrics.OutboxMessagesTotal.WithLabelValues(msg.EventType, outcome).Inc()

		if markErr := p.outboxRepo.MarkAsFailed(ctx, msg.ID, err.Error(), p.maxRetries); markErr != nil {
			p.logger.Error("Failed to mark message as failed", "error", markErr, "messageID", msg.ID)
		}
		p.logger.Warn("Message processing failed",
			"error", err,
			"messageID", msg.ID,
			"attempt", attempts,
			"outcome", outcome)
		return err
	}

	if err := p.outboxRepo.MarkAsCompleted(ctx, msg.ID); err != nil {
		return fmt.Errorf("failed to mark message as completed: %w", err)
	}

	metrics.OutboxMessagesTotal.WithLabelValues(msg.EventType, "completed").Inc()
	p.logger.Info("Processed outbox message",
		"messageID", msg.ID,
		"aggregateID", msg.AggregateID,
		"eventType", msg.EventType)
	return nil
}
