package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

const notificationColumns = `id, dealer_id, order_id, title, message, is_read, created_at`

// NotificationRepository handles dealer notifications
type NotificationRepository struct {
	db     sqlx.ExtContext
	logger logger.Logger
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *database.Database, logger logger.Logger) *NotificationRepository {
	return &NotificationRepository{db: db.DB, logger: logger}
}

// Create inserts a notification
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	if _, err := execute(ctx, r.db, query, n.ID, n.DealerID, n.OrderID, n.Title, n.Message, n.IsRead, n.CreatedAt); err != nil {
		r.logger.Error("Failed to create notification", "error", err, "dealerID", n.DealerID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a notification
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := getOne(ctx, r.db, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get notification", "error", err, "notificationID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return &n, nil
}

// ListByDealer lists a dealer's notifications, newest first
func (r *NotificationRepository) ListByDealer(ctx context.Context, dealerID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE dealer_id = ?`
	args := []interface{}{dealerID}
	if unreadOnly {
		query += ` AND is_read = ?`
		args = append(args, false)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	limit, offset = pageArgs(limit, offset)
	args = append(args, limit, offset)

	notifications := []*models.Notification{}
	if err := selectAll(ctx, r.db, &notifications, query, args...); err != nil {
		r.logger.Error("Failed to list notifications", "error", err, "dealerID", dealerID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return notifications, nil
}

// CountUnread counts a dealer's unread notifications
func (r *NotificationRepository) CountUnread(ctx context.Context, dealerID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE dealer_id = ? AND is_read = ?`
	if err := getOne(ctx, r.db, &count, query, dealerID, false); err != nil {
		r.logger.Error("Failed to count unread notifications", "error", err, "dealerID", dealerID)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return count, nil
}

// MarkRead flags one notification as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	if err := executeOne(ctx, r.db, `UPDATE notifications SET is_read = ? WHERE id = ?`, true, id); err != nil {
		if err == ErrNotFound {
			return err
		}
		r.logger.Error("Failed to mark notification read", "error", err, "notificationID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

// MarkAllRead flags every unread notification of a dealer and returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, dealerID string) (int, error) {
	result, err := execute(ctx, r.db,
		`UPDATE notifications SET is_read = ? WHERE dealer_id = ? AND is_read = ?`, true, dealerID, false)
	if err != nil {
		r.logger.Error("Failed to mark notifications read", "error", err, "dealerID", dealerID)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return int(n), nil
}
