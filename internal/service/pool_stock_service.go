package service

import (
	"context"

	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// PoolStockInput sets the quantity of one stock bucket
type PoolStockInput struct {
	FactoryID   string                 `json:"factory_id" validate:"required"`
	PoolModelID string                 `json:"pool_model_id" validate:"required"`
	ColorID     string                 `json:"color_id"`
	Status      models.PoolStockStatus `json:"status" validate:"required"`
	Quantity    int                    `json:"quantity" validate:"gte=0"`
}

// PoolStockService records finished shells held at factories
type PoolStockService struct {
	poolStock *repository.PoolStockRepository
	catalog   *repository.CatalogRepository
	logger    logger.Logger
}

// NewPoolStockService creates a new PoolStockService
func NewPoolStockService(poolStock *repository.PoolStockRepository, catalog *repository.CatalogRepository, logger logger.Logger) *PoolStockService {
	return &PoolStockService{poolStock: poolStock, catalog: catalog, logger: logger}
}

// Set writes the quantity of a (factory, model, color, status) bucket
func (s *PoolStockService) Set(ctx context.Context, id *authz.Identity, in PoolStockInput) (*models.PoolStock, error) {
	if err := authz.Authorize(id, authz.ActionPoolStockWrite); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown pool stock status " + string(in.Status))
	}
	if err := s.checkCatalog(ctx, in); err != nil {
		return nil, err
	}

	row := &models.PoolStock{
		ID:          models.GenerateID("pst"),
		FactoryID:   in.FactoryID,
		PoolModelID: in.PoolModelID,
		ColorID:     in.ColorID,
		Status:      in.Status,
		Quantity:    in.Quantity,
		UpdatedAt:   models.GetCurrentTime(),
	}
	if err := s.poolStock.Upsert(ctx, row); err != nil {
		return nil, mapRepoError(err, "pool stock")
	}

	s.logger.Info("Pool stock set",
		"factoryID", row.FactoryID,
		"poolModelID", row.PoolModelID,
		"status", row.Status,
		"quantity", row.Quantity,
	)
	return row, nil
}

// checkCatalog rejects references to unknown factories, models or colors
func (s *PoolStockService) checkCatalog(ctx context.Context, in PoolStockInput) error {
	unknown := func(err error, field string) error {
		if err == repository.ErrNotFound {
			return apperrors.NewValidationError("unknown " + field)
		}
		return mapRepoError(err, "pool stock")
	}

	if _, err := s.catalog.GetFactory(ctx, in.FactoryID); err != nil {
		return unknown(err, "factory_id")
	}
	if _, err := s.catalog.GetPoolModel(ctx, in.PoolModelID); err != nil {
		return unknown(err, "pool_model_id")
	}
	if in.ColorID != "" {
		if _, err := s.catalog.GetColor(ctx, in.ColorID); err != nil {
			return unknown(err, "color_id")
		}
	}
	return nil
}

// List returns stock rows, optionally for one factory
func (s *PoolStockService) List(ctx context.Context, id *authz.Identity, factoryID string) ([]*models.PoolStock, error) {
	if err := authz.Authorize(id, authz.ActionPoolStockRead); err != nil {
		return nil, err
	}
	rows, err := s.poolStock.List(ctx, factoryID)
	return rows, mapRepoError(err, "pool stock")
}
