package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

const poolStockColumns = `id, factory_id, pool_model_id, color_id, status, quantity, updated_at`

// PoolStockTotal is the summed quantity of one factory and status
type PoolStockTotal struct {
	FactoryID string                 `db:"factory_id"`
	Status    models.PoolStockStatus `db:"status"`
	Quantity  int                    `db:"quantity"`
}

// PoolStockRepository handles finished shell stock per factory
type PoolStockRepository struct {
	db     sqlx.ExtContext
	logger logger.Logger
}

// NewPoolStockRepository creates a new PoolStockRepository
func NewPoolStockRepository(db *database.Database, logger logger.Logger) *PoolStockRepository {
	return &PoolStockRepository{db: db.DB, logger: logger}
}

// Upsert sets the quantity of a (factory, model, color, status) row, creating it when new.
// s.ID is replaced with the id of the stored row.
func (r *PoolStockRepository) Upsert(ctx context.Context, s *models.PoolStock) error {
	query := `
		INSERT INTO pool_stock (` + poolStockColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (factory_id, pool_model_id, color_id, status)
		DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at
		RETURNING id
	`

	err := getOne(ctx, r.db, &s.ID, query, s.ID, s.FactoryID, s.PoolModelID, s.ColorID, s.Status, s.Quantity, s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert pool stock", "error", err, "factoryID", s.FactoryID, "poolModelID", s.PoolModelID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

// List returns stock rows, optionally for one factory
func (r *PoolStockRepository) List(ctx context.Context, factoryID string) ([]*models.PoolStock, error) {
	query := `SELECT ` + poolStockColumns + ` FROM pool_stock`
	var args []interface{}
	if factoryID != "" {
		query += ` WHERE factory_id = ?`
		args = append(args, factoryID)
	}
	query += ` ORDER BY factory_id, pool_model_id, color_id, status`

	rows := []*models.PoolStock{}
	if err := selectAll(ctx, r.db, &rows, query, args...); err != nil {
		r.logger.Error("Failed to list pool stock", "error", err, "factoryID", factoryID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return rows, nil
}

// Totals sums quantities per factory and status. Buckets without rows are absent.
func (r *PoolStockRepository) Totals(ctx context.Context) ([]PoolStockTotal, error) {
	query := `
		SELECT factory_id, status, SUM(quantity) AS quantity
		FROM pool_stock
		GROUP BY factory_id, status
	`

	totals := []PoolStockTotal{}
	if err := selectAll(ctx, r.db, &totals, query); err != nil {
		r.logger.Error("Failed to sum pool stock", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return totals, nil
}
