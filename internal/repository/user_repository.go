package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

const userColumns = `id, email, password_hash, role, dealer_id, is_approved, created_at`

// UserRepository handles logins
type UserRepository struct {
	db     sqlx.ExtContext
	logger logger.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Database, logger logger.Logger) *UserRepository {
	return &UserRepository{db: db.DB, logger: logger}
}

// WithTx returns a repository that runs its queries inside tx
func (r *UserRepository) WithTx(tx *sqlx.Tx) *UserRepository {
	return &UserRepository{db: tx, logger: r.logger}
}

// Create inserts a user. A taken email returns ErrConflict.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := execute(ctx, r.db, query, u.ID, u.Email, u.PasswordHash, u.Role, u.DealerID, u.IsApproved, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		r.logger.Error("Failed to create user", "error", err, "userID", u.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`

	var u models.User
	if err := getOne(ctx, r.db, &u, query, value); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get user", "error", err, column, value)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &u, nil
}

// SetDealerApproval sets the approval flag of the dealer user owning dealerID
func (r *UserRepository) SetDealerApproval(ctx context.Context, dealerID string, approved bool) error {
	query := `UPDATE users SET is_approved = ? WHERE dealer_id = ? AND role = ?`

	if err := executeOne(ctx, r.db, query, approved, dealerID, models.RoleDealer); err != nil {
		if err == ErrNotFound {
			return err
		}
		r.logger.Error("Failed to set dealer approval", "error", err, "dealerID", dealerID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// CountByRole counts users holding role
func (r *UserRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	var count int
	if err := getOne(ctx, r.db, &count, `SELECT COUNT(*) FROM users WHERE role = ?`, role); err != nil {
		r.logger.Error("Failed to count users", "error", err, "role", role)
		return 0, fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	return count, nil
}
