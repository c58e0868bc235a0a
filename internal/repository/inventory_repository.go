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

const itemColumns = `id, sku, name, unit, category, min_stock, is_active, created_at`

const stockLevelQuery = `
	SELECT s.item_id, s.factory_id, s.on_hand, s.updated_at,
		i.sku, i.name AS item_name, i.min_stock, f.name AS factory_name
	FROM inventory_stock s
	JOIN inventory_items i ON i.id = s.item_id
	JOIN factories f ON f.id = s.factory_id
`

// InventoryRepository handles inventory items, per-factory stock and the adjustment ledger
type InventoryRepository struct {
	db     sqlx.ExtContext
	logger logger.Logger
}

// NewInventoryRepository creates a new InventoryRepository
func NewInventoryRepository(db *database.Database, logger logger.Logger) *InventoryRepository {
	return &InventoryRepository{db: db.DB, logger: logger}
}

// WithTx returns a repository that runs its queries inside tx
func (r *InventoryRepository) WithTx(tx *sqlx.Tx) *InventoryRepository {
	return &InventoryRepository{db: tx, logger: r.logger}
}

// CreateItem inserts an item. A duplicate SKU returns ErrConflict.
func (r *InventoryRepository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	query := `INSERT INTO inventory_items (` + itemColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := execute(ctx, r.db, query,
		item.ID, item.SKU, item.Name, item.Unit, item.Category, item.MinStock, item.IsActive, item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		r.logger.Error("Failed to create inventory item", "error", err, "sku", item.SKU)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

// UpdateItem writes every mutable item column
func (r *InventoryRepository) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	query := `UPDATE inventory_items SET name = ?, unit = ?, category = ?, min_stock = ?, is_active = ? WHERE id = ?`

	if err := executeOne(ctx, r.db, query, item.Name, item.Unit, item.Category, item.MinStock, item.IsActive, item.ID); err != nil {
		if err == ErrNotFound {
			return err
		}
		r.logger.Error("Failed to update inventory item", "error", err, "itemID", item.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

// GetItem retrieves an item by ID
func (r *InventoryRepository) GetItem(ctx context.Context, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := getOne(ctx, r.db, &item, `SELECT `+itemColumns+` FROM inventory_items WHERE id = ?`, id); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get inventory item", "error", err, "itemID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return &item, nil
}

// ListItems lists items by SKU
func (r *InventoryRepository) ListItems(ctx context.Context, activeOnly bool) ([]*models.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items`
	var args []interface{}
	if activeOnly {
		query += ` WHERE is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY sku ASC`

	items := []*models.InventoryItem{}
	if err := selectAll(ctx, r.db, &items, query, args...); err != nil {
		r.logger.Error("Failed to list inventory items", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return items, nil
}

// OnHand returns the on-hand quantity of an item at a factory, zero when never stocked
func (r *InventoryRepository) OnHand(ctx context.Context, itemID, factoryID string) (int, error) {
	var onHand int
	query := `SELECT on_hand FROM inventory_stock WHERE item_id = ? AND factory_id = ?`
	if err := getOne(ctx, r.db, &onHand, query, itemID, factoryID); err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		r.logger.Error("Failed to read stock", "error", err, "itemID", itemID, "factoryID", factoryID)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return onHand, nil
}

// SetOnHand upserts the on-hand quantity of an item at a factory
func (r *InventoryRepository) SetOnHand(ctx context.Context, itemID, factoryID string, onHand int, at time.Time) error {
	query := `
		INSERT INTO inventory_stock (item_id, factory_id, on_hand, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (item_id, factory_id) DO UPDATE SET on_hand = excluded.on_hand, updated_at = excluded.updated_at
	`

	if _, err := execute(ctx, r.db, query, itemID, factoryID, onHand, at); err != nil {
		r.logger.Error("Failed to write stock", "error", err, "itemID", itemID, "factoryID", factoryID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

// AppendTxn writes one ledger row
func (r *InventoryRepository) AppendTxn(ctx context.Context, txn *models.InventoryTxn) error {
	query := `
		INSERT INTO inventory_txns (id, item_id, factory_id, delta, balance_after, reason, reference, actor_user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := execute(ctx, r.db, query,
		txn.ID, txn.ItemID, txn.FactoryID, txn.Delta, txn.BalanceAfter, txn.Reason, txn.Reference, txn.ActorUserID, txn.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to append inventory txn", "error", err, "itemID", txn.ItemID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

// ListTxns returns the ledger of an item, newest first
func (r *InventoryRepository) ListTxns(ctx context.Context, itemID string, limit int) ([]*models.InventoryTxn, error) {
	query := `
		SELECT id, item_id, factory_id, delta, balance_after, reason, reference, actor_user_id, created_at
		FROM inventory_txns
		WHERE item_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	limit, _ = pageArgs(limit, 0)

	txns := []*models.InventoryTxn{}
	if err := selectAll(ctx, r.db, &txns, query, itemID, limit); err != nil {
		r.logger.Error("Failed to list inventory txns", "error", err, "itemID", itemID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return txns, nil
}

// StockLevels lists stock rows, optionally for one factory
func (r *InventoryRepository) StockLevels(ctx context.Context, factoryID string) ([]*models.StockLevel, error) {
	query := stockLevelQuery
	var args []interface{}
	if factoryID != "" {
		query += ` WHERE s.factory_id = ?`
		args = append(args, factoryID)
	}
	query += ` ORDER BY f.name ASC, i.sku ASC`

	levels := []*models.StockLevel{}
	if err := selectAll(ctx, r.db, &levels, query, args...); err != nil {
		r.logger.Error("Failed to list stock levels", "error", err, "factoryID", factoryID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return levels, nil
}

// LowStock lists active items whose on-hand quantity is below their minimum
func (r *InventoryRepository) LowStock(ctx context.Context) ([]*models.StockLevel, error) {
	query := stockLevelQuery + ` WHERE i.is_active = ? AND s.on_hand < i.min_stock ORDER BY f.name ASC, i.sku ASC`

	levels := []*models.StockLevel{}
	if err := selectAll(ctx, r.db, &levels, query, true); err != nil {
		r.logger.Error("Failed to list low stock", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return levels, nil
}
