package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// FactoryInput creates or replaces a factory
type FactoryInput struct {
	Name     string `json:"name" validate:"required,max=150"`
	Location string `json:"location" validate:"max=200"`
	IsActive *bool  `json:"is_active"`
}

// PoolModelInput creates or replaces a pool model
type PoolModelInput struct {
	Name      string          `json:"name" validate:"required,max=150"`
	LengthFt  decimal.Decimal `json:"length_ft"`
	WidthFt   decimal.Decimal `json:"width_ft"`
	DepthFt   decimal.Decimal `json:"depth_ft"`
	BasePrice decimal.Decimal `json:"base_price"`
	IsActive  *bool           `json:"is_active"`
}

// ColorInput creates or replaces a color
type ColorInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	HexCode  string `json:"hex_code" validate:"omitempty,hexcolor"`
	IsActive *bool  `json:"is_active"`
}

// CatalogService manages factories, pool models and colors. Everyone signed in may
// read; only admins write.
type CatalogService struct {
	catalog *repository.CatalogRepository
	logger  logger.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalog *repository.CatalogRepository, logger logger.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, logger: logger}
}

func activeOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// activeOnly hides inactive entries from dealers
func activeOnly(id *authz.Identity, includeInactive bool) bool {
	return !(includeInactive && id.IsAdmin())
}

// ListFactories lists factories
func (s *CatalogService) ListFactories(ctx context.Context, id *authz.Identity, includeInactive bool) ([]*models.Factory, error) {
	if err := authz.Authorize(id, authz.ActionCatalogRead); err != nil {
		return nil, err
	}
	factories, err := s.catalog.ListFactories(ctx, activeOnly(id, includeInactive))
	return factories, mapRepoError(err, "factory")
}

// CreateFactory adds a factory
func (s *CatalogService) CreateFactory(ctx context.Context, id *authz.Identity, in FactoryInput) (*models.Factory, error) {
	if err := authz.Authorize(id, authz.ActionCatalogWrite); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	f := &models.Factory{
		ID:        models.GenerateID("fac"),
		Name:      strings.TrimSpace(in.Name),
		Location:  strings.TrimSpace(in.Location),
		IsActive:  activeOr(in.IsActive, true),
		CreatedAt: models.GetCurrentTime(),
	}
	if err := s.catalog.CreateFactory(ctx, f); err != nil {
		return nil, mapRepoError(err, "factory")
	}

	s.logger.Info("Factory created", "factoryID", f.ID, "name", f.Name)
	return f, nil
}

// UpdateFactory replaces a factory's fields
func (s *CatalogService) UpdateFactory(ctx context.Context, id *authz.Identity, factoryID string, in FactoryInput) (*models.Factory, error) {
	if err := authz.Authorize(id, authz.ActionCatalogWrite); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	f, err := s.catalog.GetFactory(ctx, factoryID)
	if err != nil {
		return nil, mapRepoError(err, "factory")
	}
	f.Name = strings.TrimSpace(in.Name)
	f.Location = strings.TrimSpace(in.Location)
	f.IsActive = activeOr(in.IsActive, f.IsActive)

	if err := s.catalog.UpdateFactory(ctx, f); err != nil {
		return nil, mapRepoError(err, "factory")
	}
	return f, nil
}

// ListPoolModels lists pool models
func (s *CatalogService) ListPoolModels(ctx context.Context, id *authz.Identity, includeInactive bool) ([]*models.PoolModel, error) {
	if err := authz.Authorize(id, authz.ActionCatalogRead); err != nil {
		return nil, err
	}
	poolModels, err := s.catalog.ListPoolModels(ctx, activeOnly(id, includeInactive))
	return poolModels, mapRepoError(err, "pool model")
}

func validatePoolModel(in PoolModelInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	for name, v := range map[string]decimal.Decimal{
		"length_ft":  in.LengthFt,
		"width_ft":   in.WidthFt,
		"depth_ft":   in.DepthFt,
		"base_price": in.BasePrice,
	} {
		if v.IsNegative() {
			return apperrors.NewValidationError(name + " must not be negative")
		}
	}
	return nil
}

// CreatePoolModel adds a pool model
func (s *CatalogService) CreatePoolModel(ctx context.Context, id *authz.Identity, in PoolModelInput) (*models.PoolModel, error) {
	if err := authz.Authorize(id, authz.ActionCatalogWrite); err != nil {
		return nil, err
	}
	if err := validatePoolModel(in); err != nil {
		return nil, err
	}

	m := &models.PoolModel{
		ID:        models.GenerateID("pm"),
		Name:      strings.TrimSpace(in.Name),
		LengthFt:  in.LengthFt,
		WidthFt:   in.WidthFt,
		DepthFt:   in.DepthFt,
		BasePrice: in.BasePrice.Round(2),
		IsActive:  activeOr(in.IsActive, true),
		CreatedAt: models.GetCurrentTime(),
	}
	if err := s.catalog.CreatePoolModel(ctx, m); err != nil {
		return nil, mapRepoError(err, "pool model")
	}

	s.logger.Info("Pool model created", "poolModelID", m.ID, "name", m.Name)
	return m, nil
}

// UpdatePoolModel replaces a pool model's fields
func (s *CatalogService) UpdatePoolModel(ctx context.Context, id *authz.Identity, poolModelID string, in PoolModelInput) (*models.PoolModel, error) {
	if err := authz.Authorize(id, authz.ActionCatalogWrite); err != nil {
		return nil, err
	}
	if err := validatePoolModel(in); err != nil {
		return nil, err
	}

	m, err := s.catalog.GetPoolModel(ctx, poolModelID)
	if err != nil {
		return nil, mapRepoError(err, "pool model")
	}
	m.Name = strings.TrimSpace(in.Name)
	m.LengthFt = in.LengthFt
	m.WidthFt = in.WidthFt
	m.DepthFt = in.DepthFt
	m.BasePrice = in.BasePrice.Round(2)
	m.IsActive = activeOr(in.IsActive, m.IsActive)

	if err := s.catalog.UpdatePoolModel(ctx, m); err != nil {
		return nil, mapRepoError(err, "pool model")
	}
	return m, nil
}

// ListColors lists colors
func (s *CatalogService) ListColors(ctx context.Context, id *authz.Identity, includeInactive bool) ([]*models.Color, error) {
	if err := authz.Authorize(id, authz.ActionCatalogRead); err != nil {
		return nil, err
	}
	colors, err := s.catalog.ListColors(ctx, activeOnly(id, includeInactive))
	return colors, mapRepoError(err, "color")
}

// CreateColor adds a color
func (s *CatalogService) CreateColor(ctx context.Context, id *authz.Identity, in ColorInput) (*models.Color, error) {
	if err := authz.Authorize(id, authz.ActionCatalogWrite); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	c := &models.Color{
		ID:        models.GenerateID("col"),
		Name:      strings.TrimSpace(in.Name),
		HexCode:   strings.ToUpper(in.HexCode),
		IsActive:  activeOr(in.IsActive, true),
		CreatedAt: models.GetCurrentTime(),
	}
	if err := s.catalog.CreateColor(ctx, c); err != nil {
		return nil, mapRepoError(err, "color")
	}
	return c, nil
}

// UpdateColor replaces a color's fields
func (s *CatalogService) UpdateColor(ctx context.Context, id *authz.Identity, colorID string, in ColorInput) (*models.Color, error) {
	if err := authz.Authorize(id, authz.ActionCatalogWrite); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	c, err := s.catalog.GetColor(ctx, colorID)
	if err != nil {
		return nil, mapRepoError(err, "color")
	}
	c.Name = strings.TrimSpace(in.Name)
	c.HexCode = strings.ToUpper(in.HexCode)
	c.IsActive = activeOr(in.IsActive, c.IsActive)

	if err := s.catalog.UpdateColor(ctx, c); err != nil {
		return nil, mapRepoError(err, "color")
	}
	return c, nil
}
