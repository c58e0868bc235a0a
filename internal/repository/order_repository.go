package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

const orderColumns = `id, dealer_id, pool_model_id, color_id, factory_id, status, serial_number,
	production_priority, requested_ship_date, scheduled_production_date, delivery_address,
	payment_proof_url, shipping_method, quoted_price, notes, created_at, updated_at`

// OrderFilter narrows order listings. Empty fields are ignored.
type OrderFilter struct {
	DealerID  string
	Status    models.OrderStatus
	FactoryID string
	Limit     int
	Offset    int
}

// Assignment holds the scheduling fields an admin may change without a status move
type Assignment struct {
	FactoryID               *string
	ProductionPriority      *int
	ScheduledProductionDate *time.Time
	RequestedShipDate       *time.Time
	SerialNumber            *string
}

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db     sqlx.ExtContext
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db.DB,
		logger: logger,
	}
}

// WithTx returns a repository that runs its queries inside tx
func (r *OrderRepository) WithTx(tx *sqlx.Tx) *OrderRepository {
	return &OrderRepository{db: tx, logger: r.logger}
}

// Create inserts a new order
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := execute(ctx, r.db, query,
		order.ID,
		order.DealerID,
		order.PoolModelID,
		order.ColorID,
		order.FactoryID,
		order.Status,
		order.SerialNumber,
		order.ProductionPriority,
		order.RequestedShipDate,
		order.ScheduledProductionDate,
		order.DeliveryAddress,
		order.PaymentProofURL,
		order.ShippingMethod,
		order.QuotedPrice,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create order", "error", err, "orderID", order.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves an order by its ID
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	var order models.Order
	if err := getOne(ctx, r.db, &order, query, id); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by ID", "error", err, "orderID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// List returns orders matching filter, newest first
func (r *OrderRepository) List(ctx context.Context, filter OrderFilter) ([]*models.Order, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter.DealerID != "" {
		where = append(where, "dealer_id = ?")
		args = append(args, filter.DealerID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.FactoryID != "" {
		where = append(where, "factory_id = ?")
		args = append(args, filter.FactoryID)
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	limit, offset := pageArgs(filter.Limit, filter.Offset)
	args = append(args, limit, offset)

	orders := []*models.Order{}
	if err := selectAll(ctx, r.db, &orders, query, args...); err != nil {
		r.logger.Error("Failed to list orders", "error", err, "dealerID", filter.DealerID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}

// UpdateStatus moves an order from expected to status. It succeeds only when the row
// still holds expected; otherwise ErrStaleStatus is returned, or ErrNotFound when the
// order no longer exists.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, expected, status models.OrderStatus, at time.Time) error {
	query := `UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	err := executeOne(ctx, r.db, query, status, at, id, expected)
	if err == nil {
		return nil
	}
	if err != ErrNotFound {
		r.logger.Error("Failed to update order status", "error", err, "orderID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return getErr
	}
	return ErrStaleStatus
}

// UpdateAssignment writes the scheduling fields of an order. Nil fields keep their value.
func (r *OrderRepository) UpdateAssignment(ctx context.Context, id string, a Assignment, at time.Time) error {
	query := `
		UPDATE orders SET
			factory_id = COALESCE(?, factory_id),
			production_priority = COALESCE(?, production_priority),
			scheduled_production_date = COALESCE(?, scheduled_production_date),
			requested_ship_date = COALESCE(?, requested_ship_date),
			serial_number = COALESCE(?, serial_number),
			updated_at = ?
		WHERE id = ?
	`

	err := executeOne(ctx, r.db, query,
		a.FactoryID,
		a.ProductionPriority,
		a.ScheduledProductionDate,
		a.RequestedShipDate,
		a.SerialNumber,
		at,
		id,
	)

	if err != nil {
		if err == ErrNotFound {
			return err
		}
		r.logger.Error("Failed to update order assignment", "error", err, "orderID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// SetPaymentProofURL records the latest proof of payment upload on the order
func (r *OrderRepository) SetPaymentProofURL(ctx context.Context, id, url string, at time.Time) error {
	query := `UPDATE orders SET payment_proof_url = ?, updated_at = ? WHERE id = ?`

	if err := executeOne(ctx, r.db, query, url, at, id); err != nil {
		if err == ErrNotFound {
			return err
		}
		r.logger.Error("Failed to set payment proof", "error", err, "orderID", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// CountByStatus counts orders per status, optionally for a single dealer
func (r *OrderRepository) CountByStatus(ctx context.Context, dealerID string) (map[models.OrderStatus]int, error) {
	query := `SELECT status, COUNT(*) AS total FROM orders`
	var args []interface{}
	if dealerID != "" {
		query += ` WHERE dealer_id = ?`
		args = append(args, dealerID)
	}
	query += ` GROUP BY status`

	var rows []struct {
		Status models.OrderStatus `db:"status"`
		Total  int                `db:"total"`
	}
	if err := selectAll(ctx, r.db, &rows, query, args...); err != nil {
		r.logger.Error("Failed to count orders by status", "error", err, "dealerID", dealerID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	counts := make(map[models.OrderStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// CreatedSince returns creation times of a dealer's orders at or after since
func (r *OrderRepository) CreatedSince(ctx context.Context, dealerID string, since time.Time) ([]time.Time, error) {
	query := `SELECT created_at FROM orders WHERE dealer_id = ? AND created_at >= ?`

	times := []time.Time{}
	if err := selectAll(ctx, r.db, &times, query, dealerID, since); err != nil {
		r.logger.Error("Failed to load order dates", "error", err, "dealerID", dealerID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return times, nil
}

// CountByDealer counts all orders placed by a dealer
func (r *OrderRepository) CountByDealer(ctx context.Context, dealerID string) (int, error) {
	var count int
	if err := getOne(ctx, r.db, &count, `SELECT COUNT(*) FROM orders WHERE dealer_id = ?`, dealerID); err != nil {
		r.logger.Error("Failed to count dealer orders", "error", err, "dealerID", dealerID)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return count, nil
}
