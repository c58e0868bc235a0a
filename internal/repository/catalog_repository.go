package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// CatalogRepository handles factories, pool models and colors
type CatalogRepository struct {
	db     sqlx.ExtContext
	logger logger.Logger
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *database.Database, logger logger.Logger) *CatalogRepository {
	return &CatalogRepository{db: db.DB, logger: logger}
}

// WithTx returns a repository that runs its queries inside tx
func (r *CatalogRepository) WithTx(tx *sqlx.Tx) *CatalogRepository {
	return &CatalogRepository{db: tx, logger: r.logger}
}

func (r *CatalogRepository) write(ctx context.Context, entity, id, query string, args ...interface{}) error {
	if _, err := execute(ctx, r.db, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		r.logger.Error("Failed to write "+entity, "error", err, "id", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

func (r *CatalogRepository) update(ctx context.Context, entity, id, query string, args ...interface{}) error {
	if err := executeOne(ctx, r.db, query, args...); err != nil {
		if err == ErrNotFound {
			return err
		}
		if isUniqueViolation(err) {
			return ErrConflict
		}
		r.logger.Error("Failed to update "+entity, "error", err, "id", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

func (r *CatalogRepository) get(ctx context.Context, entity string, dest interface{}, query, id string) error {
	if err := getOne(ctx, r.db, dest, query, id); err != nil {
		if isNoRows(err) {
			return ErrNotFound
		}
		r.logger.Error("Failed to get "+entity, "error", err, "id", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

func (r *CatalogRepository) list(ctx context.Context, entity string, dest interface{}, query string, activeOnly bool) error {
	if activeOnly {
		query += ` WHERE is_active = ?`
	}
	query += ` ORDER BY name ASC`

	var args []interface{}
	if activeOnly {
		args = append(args, true)
	}
	if err := selectAll(ctx, r.db, dest, query, args...); err != nil {
		r.logger.Error("Failed to list "+entity, "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return nil
}

// CreateFactory inserts a factory. Duplicate names return ErrConflict.
func (r *CatalogRepository) CreateFactory(ctx context.Context, f *models.Factory) error {
	return r.write(ctx, "factory", f.ID,
		`INSERT INTO factories (id, name, location, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Location, f.IsActive, f.CreatedAt)
}

// UpdateFactory writes every mutable factory column
func (r *CatalogRepository) UpdateFactory(ctx context.Context, f *models.Factory) error {
	return r.update(ctx, "factory", f.ID,
		`UPDATE factories SET name = ?, location = ?, is_active = ? WHERE id = ?`,
		f.Name, f.Location, f.IsActive, f.ID)
}

// GetFactory retrieves a factory by ID
func (r *CatalogRepository) GetFactory(ctx context.Context, id string) (*models.Factory, error) {
	var f models.Factory
	if err := r.get(ctx, "factory", &f, `SELECT id, name, location, is_active, created_at FROM factories WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFactories lists factories by name
func (r *CatalogRepository) ListFactories(ctx context.Context, activeOnly bool) ([]*models.Factory, error) {
	factories := []*models.Factory{}
	if err := r.list(ctx, "factories", &factories, `SELECT id, name, location, is_active, created_at FROM factories`, activeOnly); err != nil {
		return nil, err
	}
	return factories, nil
}

const poolModelColumns = `id, name, length_ft, width_ft, depth_ft, base_price, is_active, created_at`

// CreatePoolModel inserts a pool model. Duplicate names return ErrConflict.
func (r *CatalogRepository) CreatePoolModel(ctx context.Context, m *models.PoolModel) error {
	return r.write(ctx, "pool model", m.ID,
		`INSERT INTO pool_models (`+poolModelColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.LengthFt, m.WidthFt, m.DepthFt, m.BasePrice, m.IsActive, m.CreatedAt)
}

// UpdatePoolModel writes every mutable pool model column
func (r *CatalogRepository) UpdatePoolModel(ctx context.Context, m *models.PoolModel) error {
	return r.update(ctx, "pool model", m.ID,
		`UPDATE pool_models SET name = ?, length_ft = ?, width_ft = ?, depth_ft = ?, base_price = ?, is_active = ? WHERE id = ?`,
		m.Name, m.LengthFt, m.WidthFt, m.DepthFt, m.BasePrice, m.IsActive, m.ID)
}

// GetPoolModel retrieves a pool model by ID
func (r *CatalogRepository) GetPoolModel(ctx context.Context, id string) (*models.PoolModel, error) {
	var m models.PoolModel
	if err := r.get(ctx, "pool model", &m, `SELECT `+poolModelColumns+` FROM pool_models WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListPoolModels lists pool models by name
func (r *CatalogRepository) ListPoolModels(ctx context.Context, activeOnly bool) ([]*models.PoolModel, error) {
	poolModels := []*models.PoolModel{}
	if err := r.list(ctx, "pool models", &poolModels, `SELECT `+poolModelColumns+` FROM pool_models`, activeOnly); err != nil {
		return nil, err
	}
	return poolModels, nil
}

// CreateColor inserts a color. Duplicate names return ErrConflict.
func (r *CatalogRepository) CreateColor(ctx context.Context, c *models.Color) error {
	return r.write(ctx, "color", c.ID,
		`INSERT INTO colors (id, name, hex_code, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.HexCode, c.IsActive, c.CreatedAt)
}

// UpdateColor writes every mutable color column
func (r *CatalogRepository) UpdateColor(ctx context.Context, c *models.Color) error {
	return r.update(ctx, "color", c.ID,
		`UPDATE colors SET name = ?, hex_code = ?, is_active = ? WHERE id = ?`,
		c.Name, c.HexCode, c.IsActive, c.ID)
}

// GetColor retrieves a color by ID
func (r *CatalogRepository) GetColor(ctx context.Context, id string) (*models.Color, error) {
	var c models.Color
	if err := r.get(ctx, "color", &c, `SELECT id, name, hex_code, is_active, created_at FROM colors WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListColors lists colors by name
func (r *CatalogRepository) ListColors(ctx context.Context, activeOnly bool) ([]*models.Color, error) {
	colors := []*models.Color{}
	if err := r.list(ctx, "colors", &colors, `SELECT id, name, hex_code, is_active, created_at FROM colors`, activeOnly); err != nil {
		return nil, err
	}
	return colors, nil
}
