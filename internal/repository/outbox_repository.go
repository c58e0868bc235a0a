package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

const outboxColumns = `id, aggregate_type, aggregate_id, event_type, payload,
	created_at, processed_at, processing_attempts, last_error, status`

// OutboxRepository handles database operations for outbox messages
type OutboxRepository struct {
	db     sqlx.ExtContext
	logger logger.Logger
}

// NewOutboxRepository creates a new OutboxRepository
func NewOutboxRepository(db *database.Database, logger logger.Logger) *OutboxRepository {
	return &OutboxRepository{
		db:     db.DB,
		logger: logger,
	}
}

// WithTx returns a repository that writes inside tx, so events commit with the change
// that produced them
func (r *OutboxRepository) WithTx(tx *sqlx.Tx) *OutboxRepository {
	return &OutboxRepository{db: tx, logger: r.logger}
}

// Create inserts a new outbox message
func (r *OutboxRepository) Create(ctx context.Context, message *models.OutboxMessage) error {
	query := `
		INSERT INTO outbox_messages (id, aggregate_type, aggregate_id, event_type, payload, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := execute(ctx, r.db, query,
		message.ID,
		message.AggregateType,
		message.AggregateID,
		message.EventType,
		string(message.Payload),
		message.CreatedAt,
		message.Status,
	)

	if err != nil {
		r.logger.Error("Failed to create outbox message", "error", err, "aggregateID", message.AggregateID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

func (r *OutboxRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.OutboxMessage, error) {
	messages := []*models.OutboxMessage{}
	if err := selectAll(ctx, r.db, &messages, query, args...); err != nil {
		return nil, err
	}
	return messages, nil
}

// GetPendingMessages retrieves pending outbox messages, oldest first
func (r *OutboxRepository) GetPendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM outbox_messages
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	messages, err := r.list(ctx, query, models.OutboxStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// ListByAggregate returns every message recorded for one aggregate, oldest first
func (r *OutboxRepository) ListByAggregate(ctx context.Context, aggregateID string) ([]*models.OutboxMessage, error) {
	query := `SELECT ` + outboxColumns + ` FROM outbox_messages WHERE aggregate_id = ? ORDER BY created_at ASC`

	messages, err := r.list(ctx, query, aggregateID)
	if err != nil {
		r.logger.Error("Failed to list outbox messages", "error", err, "aggregateID", aggregateID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// MarkAsProcessing updates the status of an outbox message to processing
func (r *OutboxRepository) MarkAsProcessing(ctx context.Context, id string) error {
	query := `
		UPDATE outbox_messages
		SET status = ?, processing_attempts = processing_attempts + 1
		WHERE id = ?
	`

	if _, err := execute(ctx, r.db, query, models.OutboxStatusProcessing, id); err != nil {
		r.logger.Error("Failed to mark outbox message as processing", "error", err, "message_id", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// MarkAsCompleted updates the status of an outbox message to completed
func (r *OutboxRepository) MarkAsCompleted(ctx context.Context, id string) error {
	query := `UPDATE outbox_messages SET status = ?, processed_at = ? WHERE id = ?`

	if _, err := execute(ctx, r.db, query, models.OutboxStatusCompleted, time.Now().UTC(), id); err != nil {
		r.logger.Error("Failed to mark outbox message as completed", "error", err, "message_id", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// MarkAsFailed records a failed attempt. The message goes back to pending until it has
// used maxAttempts, after which it stays failed.
func (r *OutboxRepository) MarkAsFailed(ctx context.Context, id string, errorMessage string, maxAttempts int) error {
	query := `
		UPDATE outbox_messages
		SET status = CASE WHEN processing_attempts >= ? THEN ? ELSE ? END, last_error = ?
		WHERE id = ?
	`

	_, err := execute(ctx, r.db, query,
		maxAttempts,
		models.OutboxStatusFailed,
		models.OutboxStatusPending,
		errorMessage,
		id,
	)

	if err != nil {
		r.logger.Error("Failed to mark outbox message as failed", "error", err, "message_id", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// Requeue moves failed messages back to pending with a fresh attempt budget and returns
// how many were moved
func (r *OutboxRepository) Requeue(ctx context.Context) (int, error) {
	query := `UPDATE outbox_messages SET status = ?, processing_attempts = 0 WHERE status = ?`

	res, err := execute(ctx, r.db, query, models.OutboxStatusPending, models.OutboxStatusFailed)
	if err != nil {
		r.logger.Error("Failed to requeue outbox messages", "error", err)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return int(n), nil
}

// CountByStatus counts outbox messages per status
func (r *OutboxRepository) CountByStatus(ctx context.Context) (map[models.OutboxStatus]int, error) {
	var rows []struct {
		Status models.OutboxStatus `db:"status"`
		Total  int                 `db:"total"`
	}
	if err := selectAll(ctx, r.db, &rows, `SELECT status, COUNT(*) AS total FROM outbox_messages GROUP BY status`); err != nil {
		r.logger.Error("Failed to count outbox messages", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	counts := make(map[models.OutboxStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
