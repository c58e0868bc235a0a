package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// HistoryRepository stores the order audit trail. Entries are insert-only; there is no
// update or delete.
type HistoryRepository struct {
	db     sqlx.ExtContext
	logger logger.Logger
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *database.Database, logger logger.Logger) *HistoryRepository {
	return &HistoryRepository{db: db.DB, logger: logger}
}

// WithTx returns a repository that runs its queries inside tx
func (r *HistoryRepository) WithTx(tx *sqlx.Tx) *HistoryRepository {
	return &HistoryRepository{db: tx, logger: r.logger}
}

// Append inserts one history entry
func (r *HistoryRepository) Append(ctx context.Context, h *models.OrderHistory) error {
	query := `
		INSERT INTO order_history (id, order_id, status, comment, actor_user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := execute(ctx, r.db, query, h.ID, h.OrderID, h.Status, h.Comment, h.ActorUserID, h.CreatedAt); err != nil {
		r.logger.Error("Failed to append order history", "error", err, "orderID", h.OrderID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// ListByOrder returns the history of an order, newest first
func (r *HistoryRepository) ListByOrder(ctx context.Context, orderID string) ([]*models.OrderHistory, error) {
	query := `
		SELECT id, order_id, status, comment, actor_user_id, created_at
		FROM order_history
		WHERE order_id = ?
		ORDER BY created_at DESC, id DESC
	`

	entries := []*models.OrderHistory{}
	if err := selectAll(ctx, r.db, &entries, query, orderID); err != nil {
		r.logger.Error("Failed to list order history", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return entries, nil
}
