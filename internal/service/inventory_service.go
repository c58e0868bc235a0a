package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/metrics"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// ItemInput creates or replaces an inventory item
type ItemInput struct {
	SKU      string `json:"sku" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=200"`
	Unit     string `json:"unit" validate:"required,max=20"`
	Category string `json:"category" validate:"max=100"`
	MinStock int    `json:"min_stock" validate:"gte=0"`
	IsActive *bool  `json:"is_active"`
}

// AdjustmentInput is a signed stock movement of one item at one factory
type AdjustmentInput struct {
	FactoryID string `json:"factory_id" validate:"required"`
	Delta     int    `json:"delta" validate:"ne=0"`
	Reason    string `json:"reason" validate:"required,oneof=RECEIPT CONSUMPTION COUNT_CORRECTION DAMAGE TRANSFER"`
	Reference string `json:"reference" validate:"max=200"`
}

// InventoryService manages parts and materials stocked at factories. Admin only.
type InventoryService struct {
	db        *database.Database
	inventory *repository.InventoryRepository
	catalog   *repository.CatalogRepository
	logger    logger.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	db *database.Database,
	inventory *repository.InventoryRepository,
	catalog *repository.CatalogRepository,
	logger logger.Logger,
) *InventoryService {
	return &InventoryService{db: db, inventory: inventory, catalog: catalog, logger: logger}
}

// ListItems lists inventory items
func (s *InventoryService) ListItems(ctx context.Context, id *authz.Identity, activeOnly bool) ([]*models.InventoryItem, error) {
	if err := authz.Authorize(id, authz.ActionInventoryRead); err != nil {
		return nil, err
	}
	items, err := s.inventory.ListItems(ctx, activeOnly)
	return items, mapRepoError(err, "inventory item")
}

// CreateItem adds an inventory item. SKUs are unique.
func (s *InventoryService) CreateItem(ctx context.Context, id *authz.Identity, in ItemInput) (*models.InventoryItem, error) {
	if err := authz.Authorize(id, authz.ActionInventoryWrite); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		ID:        models.GenerateID("itm"),
		SKU:       strings.ToUpper(strings.TrimSpace(in.SKU)),
		Name:      strings.TrimSpace(in.Name),
		Unit:      strings.TrimSpace(in.Unit),
		Category:  strings.TrimSpace(in.Category),
		MinStock:  in.MinStock,
		IsActive:  activeOr(in.IsActive, true),
		CreatedAt: models.GetCurrentTime(),
	}
	if err := s.inventory.CreateItem(ctx, item); err != nil {
		return nil, mapRepoError(err, "inventory item")
	}

	s.logger.Info("Inventory item created", "itemID", item.ID, "sku", item.SKU)
	return item, nil
}

// UpdateItem replaces an item's mutable fields. The SKU never changes.
func (s *InventoryService) UpdateItem(ctx context.Context, id *authz.Identity, itemID string, in ItemInput) (*models.InventoryItem, error) {
	if err := authz.Authorize(id, authz.ActionInventoryWrite); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	item, err := s.inventory.GetItem(ctx, itemID)
	if err != nil {
		return nil, mapRepoError(err, "inventory item")
	}
	item.Name = strings.TrimSpace(in.Name)
	item.Unit = strings.TrimSpace(in.Unit)
	item.Category = strings.TrimSpace(in.Category)
	item.MinStock = in.MinStock
	item.IsActive = activeOr(in.IsActive, item.IsActive)

	if err := s.inventory.UpdateItem(ctx, item); err != nil {
		return nil, mapRepoError(err, "inventory item")
	}
	return item, nil
}

// Adjust applies a stock movement and records it in the ledger in one transaction.
// On-hand may never go negative.
func (s *InventoryService) Adjust(ctx context.Context, id *authz.Identity, itemID string, in AdjustmentInput) (*models.InventoryTxn, error) {
	if err := authz.Authorize(id, authz.ActionInventoryWrite); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.catalog.GetFactory(ctx, in.FactoryID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewValidationError("unknown factory_id")
		}
		return nil, mapRepoError(err, "factory")
	}

	var txn *models.InventoryTxn
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		inventory := s.inventory.WithTx(tx)

		if _, err := inventory.GetItem(ctx, itemID); err != nil {
			return err
		}

		onHand, err := inventory.OnHand(ctx, itemID, in.FactoryID)
		if err != nil {
			return err
		}

		balance := onHand + in.Delta
		if balance < 0 {
			return apperrors.NewValidationError(
				fmt.Sprintf("adjustment would leave %d on hand", balance),
			).WithContext("on_hand", onHand)
		}

		now := models.GetCurrentTime()
		if err := inventory.SetOnHand(ctx, itemID, in.FactoryID, balance, now); err != nil {
			return err
		}

		txn = &models.InventoryTxn{
			ID:           models.GenerateID("itx"),
			ItemID:       itemID,
			FactoryID:    in.FactoryID,
			Delta:        in.Delta,
			BalanceAfter: balance,
			Reason:       in.Reason,
			Reference:    strings.TrimSpace(in.Reference),
			ActorUserID:  id.UserID,
			CreatedAt:    now,
		}
		return inventory.AppendTxn(ctx, txn)
	})
	if err != nil {
		return nil, mapRepoError(err, "inventory item")
	}

	metrics.InventoryAdjustmentsTotal.WithLabelValues(in.Reason).Inc()
	s.logger.Info("Inventory adjusted",
		"itemID", itemID,
		"factoryID", in.FactoryID,
		"delta", in.Delta,
		"balance", txn.BalanceAfter,
	)
	return txn, nil
}

// Ledger returns the most recent movements of an item
func (s *InventoryService) Ledger(ctx context.Context, id *authz.Identity, itemID string, limit int) ([]*models.InventoryTxn, error) {
	if err := authz.Authorize(id, authz.ActionInventoryRead); err != nil {
		return nil, err
	}
	if _, err := s.inventory.GetItem(ctx, itemID); err != nil {
		return nil, mapRepoError(err, "inventory item")
	}

	txns, err := s.inventory.ListTxns(ctx, itemID, limit)
	return txns, mapRepoError(err, "inventory item")
}

// StockLevels lists on-hand quantities, optionally for one factory
func (s *InventoryService) StockLevels(ctx context.Context, id *authz.Identity, factoryID string) ([]*models.StockLevel, error) {
	if err := authz.Authorize(id, authz.ActionInventoryRead); err != nil {
		return nil, err
	}
	levels, err := s.inventory.StockLevels(ctx, factoryID)
	return levels, mapRepoError(err, "stock")
}

// LowStock lists active items below their minimum at any factory
func (s *InventoryService) LowStock(ctx context.Context, id *authz.Identity) ([]*models.StockLevel, error) {
	if err := authz.Authorize(id, authz.ActionInventoryRead); err != nil {
		return nil, err
	}
	levels, err := s.inventory.LowStock(ctx)
	return levels, mapRepoError(err, "stock")
}
