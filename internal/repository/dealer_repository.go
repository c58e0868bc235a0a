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

const dealerColumns = `d.id, d.company_name, d.contact_name, d.phone, d.address, d.city, d.state, d.zip,
	d.tax_doc_url, d.onboarding, d.agreement_signature_url, d.agreement_doc_url,
	d.agreement_signed_at, d.created_at, d.updated_at`

// DealerContact is what outgoing mail needs to address a dealer
type DealerContact struct {
	DealerID    string `db:"dealer_id"`
	CompanyName string `db:"company_name"`
	ContactName string `db:"contact_name"`
	Email       string `db:"email"`
}

// DealerRepository handles dealer profiles and their onboarding documents
type DealerRepository struct {
	db     sqlx.ExtContext
	logger logger.Logger
}

// NewDealerRepository creates a new DealerRepository
func NewDealerRepository(db *database.Database, logger logger.Logger) *DealerRepository {
	return &DealerRepository{db: db.DB, logger: logger}
}

// WithTx returns a repository that runs its queries inside tx
func (r *DealerRepository) WithTx(tx *sqlx.Tx) *DealerRepository {
	return &DealerRepository{db: tx, logger: r.logger}
}

// Create inserts a dealer profile
func (r *DealerRepository) Create(ctx context.Context, d *models.Dealer) error {
	query := `
		INSERT INTO dealers (id, company_name, contact_name, phone, address, city, state, zip,
			onboarding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := execute(ctx, r.db, query,
		d.ID, d.CompanyName, d.ContactName, d.Phone, d.Address, d.City, d.State, d.Zip,
		d.Onboarding, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create dealer", "error", err, "dealerID", d.ID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// GetByID retrieves a dealer profile
func (r *DealerRepository) GetByID(ctx context.Context, id string) (*models.Dealer, error) {
	query := `SELECT ` + dealerColumns + ` FROM dealers d WHERE d.id = ?`

	var d models.Dealer
	if err := getOne(ctx, r.db, &d, query, id); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get dealer", "error", err, "dealerID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &d, nil
}

// GetAccount retrieves a dealer together with its dealer user
func (r *DealerRepository) GetAccount(ctx context.Context, id string) (*models.DealerAccount, error) {
	query := `
		SELECT ` + dealerColumns + `, u.id AS user_id, u.email, u.is_approved
		FROM dealers d
		JOIN users u ON u.dealer_id = d.id AND u.role = ?
		WHERE d.id = ?
	`

	var account models.DealerAccount
	if err := getOne(ctx, r.db, &account, query, models.RoleDealer, id); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get dealer account", "error", err, "dealerID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &account, nil
}

// ListAccounts lists dealers with their approval state. approved filters when non-nil.
func (r *DealerRepository) ListAccounts(ctx context.Context, approved *bool, limit, offset int) ([]*models.DealerAccount, error) {
	query := `
		SELECT ` + dealerColumns + `, u.id AS user_id, u.email, u.is_approved
		FROM dealers d
		JOIN users u ON u.dealer_id = d.id AND u.role = ?
	`
	args := []interface{}{models.RoleDealer}
	if approved != nil {
		query += ` WHERE u.is_approved = ?`
		args = append(args, *approved)
	}
	query += ` ORDER BY d.created_at DESC, d.id DESC LIMIT ? OFFSET ?`

	limit, offset = pageArgs(limit, offset)
	args = append(args, limit, offset)

	accounts := []*models.DealerAccount{}
	if err := selectAll(ctx, r.db, &accounts, query, args...); err != nil {
		r.logger.Error("Failed to list dealers", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return accounts, nil
}

// UpdateProfile writes the contact fields of a dealer
func (r *DealerRepository) UpdateProfile(ctx context.Context, d *models.Dealer) error {
	query := `
		UPDATE dealers SET company_name = ?, contact_name = ?, phone = ?, address = ?,
			city = ?, state = ?, zip = ?, updated_at = ?
		WHERE id = ?
	`

	err := executeOne(ctx, r.db, query,
		d.CompanyName, d.ContactName, d.Phone, d.Address, d.City, d.State, d.Zip, d.UpdatedAt, d.ID)
	return r.wrapUpdate(err, "profile", d.ID)
}

// UpdateOnboarding replaces the onboarding document
func (r *DealerRepository) UpdateOnboarding(ctx context.Context, id string, doc models.JSONDoc, at time.Time) error {
	err := executeOne(ctx, r.db, `UPDATE dealers SET onboarding = ?, updated_at = ? WHERE id = ?`, doc, at, id)
	return r.wrapUpdate(err, "onboarding", id)
}

// SetTaxDocURL records the uploaded tax document
func (r *DealerRepository) SetTaxDocURL(ctx context.Context, id, url string, at time.Time) error {
	err := executeOne(ctx, r.db, `UPDATE dealers SET tax_doc_url = ?, updated_at = ? WHERE id = ?`, url, at, id)
	return r.wrapUpdate(err, "tax document", id)
}

// SignAgreement stores the signature and agreement URLs. It only matches dealers that
// have not signed yet and returns ErrConflict otherwise.
func (r *DealerRepository) SignAgreement(ctx context.Context, id, signatureURL, docURL string, at time.Time) error {
	query := `
		UPDATE dealers SET agreement_signature_url = ?, agreement_doc_url = ?,
			agreement_signed_at = ?, updated_at = ?
		WHERE id = ? AND agreement_signed_at IS NULL
	`

	err := executeOne(ctx, r.db, query, signatureURL, docURL, at, at, id)
	if err == ErrNotFound {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrConflict
	}
	return r.wrapUpdate(err, "agreement", id)
}

// Contact returns the addressee of dealer mail
func (r *DealerRepository) Contact(ctx context.Context, dealerID string) (*DealerContact, error) {
	query := `
		SELECT d.id AS dealer_id, d.company_name, d.contact_name, u.email
		FROM dealers d
		JOIN users u ON u.dealer_id = d.id AND u.role = ?
		WHERE d.id = ?
	`

	var c DealerContact
	if err := getOne(ctx, r.db, &c, query, models.RoleDealer, dealerID); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get dealer contact", "error", err, "dealerID", dealerID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &c, nil
}

func (r *DealerRepository) wrapUpdate(err error, what, id string) error {
	if err == nil || err == ErrNotFound {
		return err
	}
	r.logger.Error("Failed to update dealer "+what, "error", err, "dealerID", id)
	return fmt.Errorf("%w: %v", ErrDatabase, err)
}
