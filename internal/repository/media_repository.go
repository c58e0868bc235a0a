package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

const mediaColumns = `id, order_id, url, file_name, doc_type, visible_to_dealer, uploaded_by, created_at`

// MediaRepository handles files attached to orders
type MediaRepository struct {
	db     sqlx.ExtContext
	logger logger.Logger
}

// NewMediaRepository creates a new MediaRepository
func NewMediaRepository(db *database.Database, logger logger.Logger) *MediaRepository {
	return &MediaRepository{db: db.DB, logger: logger}
}

// WithTx returns a repository that runs its queries inside tx
func (r *MediaRepository) WithTx(tx *sqlx.Tx) *MediaRepository {
	return &MediaRepository{db: tx, logger: r.logger}
}

// Create attaches a file to an order
func (r *MediaRepository) Create(ctx context.Context, m *models.OrderMedia) error {
	query := `INSERT INTO order_media (` + mediaColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := execute(ctx, r.db, query,
		m.ID, m.OrderID, m.URL, m.FileName, m.DocType, m.VisibleToDealer, m.UploadedBy, m.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create order media", "error", err, "orderID", m.OrderID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// ListByOrder returns an order's attachments, oldest first. dealerVisibleOnly hides
// internal files.
func (r *MediaRepository) ListByOrder(ctx context.Context, orderID string, dealerVisibleOnly bool) ([]*models.OrderMedia, error) {
	query := `SELECT ` + mediaColumns + ` FROM order_media WHERE order_id = ?`
	args := []interface{}{orderID}
	if dealerVisibleOnly {
		query += ` AND visible_to_dealer = ?`
		args = append(args, true)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	media := []*models.OrderMedia{}
	if err := selectAll(ctx, r.db, &media, query, args...); err != nil {
		r.logger.Error("Failed to list order media", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return media, nil
}

// DocumentTypes returns the distinct document types attached to an order
func (r *MediaRepository) DocumentTypes(ctx context.Context, orderID string) ([]models.DocumentType, error) {
	query := `SELECT DISTINCT doc_type FROM order_media WHERE order_id = ?`

	types := []models.DocumentType{}
	if err := selectAll(ctx, r.db, &types, query, orderID); err != nil {
		r.logger.Error("Failed to load order document types", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return types, nil
}
