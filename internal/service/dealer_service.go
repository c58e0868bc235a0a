package service

import (
	"context"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/internal/storage"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// ProfileInput is the dealer-editable contact information
type ProfileInput struct {
	CompanyName string `json:"company_name" validate:"required,max=200"`
	ContactName string `json:"contact_name" validate:"required,max=200"`
	Phone       string `json:"phone" validate:"max=50"`
	Address     string `json:"address" validate:"max=300"`
	City        string `json:"city" validate:"max=100"`
	State       string `json:"state" validate:"max=100"`
	Zip         string `json:"zip" validate:"max=20"`
}

// File is an uploaded blob with its metadata
type File struct {
	Name        string    `validate:"required,max=255"`
	ContentType string
	Body        io.Reader `validate:"required"`
}

// DealerService handles dealer approval and self-service onboarding
type DealerService struct {
	db            *database.Database
	dealers       *repository.DealerRepository
	users         *repository.UserRepository
	outbox        *repository.OutboxRepository
	notifications NotificationSink
	store         storage.Store
	bestEffort    *FireAndForget
	logger        logger.Logger
}

// NewDealerService creates a new DealerService
func NewDealerService(
	db *database.Database,
	dealers *repository.DealerRepository,
	users *repository.UserRepository,
	outbox *repository.OutboxRepository,
	notifications NotificationSink,
	store storage.Store,
	bestEffort *FireAndForget,
	logger logger.Logger,
) *DealerService {
	return &DealerService{
		db:            db,
		dealers:       dealers,
		users:         users,
		outbox:        outbox,
		notifications: notifications,
		store:         store,
		bestEffort:    bestEffort,
		logger:        logger,
	}
}

// ListDealers lists dealer accounts, optionally filtered by approval state
func (s *DealerService) ListDealers(ctx context.Context, id *authz.Identity, approved *bool, limit, offset int) ([]*models.DealerAccount, error) {
	if err := authz.Authorize(id, authz.ActionDealerManage); err != nil {
		return nil, err
	}

	accounts, err := s.dealers.ListAccounts(ctx, approved, limit, offset)
	return accounts, mapRepoError(err, "dealer")
}

// GetDealer returns a dealer account. Dealers may only read their own.
func (s *DealerService) GetDealer(ctx context.Context, id *authz.Identity, dealerID string) (*models.DealerAccount, error) {
	if err := authorizeDealerAccess(id, dealerID); err != nil {
		return nil, err
	}

	account, err := s.dealers.GetAccount(ctx, dealerID)
	if err != nil {
		return nil, mapRepoError(err, "dealer")
	}
	return account, nil
}

// SetApproval approves or revokes a dealer. The notification is best-effort and never
// undoes the approval. Setting the flag it already has changes nothing and sends nothing.
func (s *DealerService) SetApproval(ctx context.Context, id *authz.Identity, dealerID string, approved bool) (*models.DealerAccount, error) {
	if err := authz.Authorize(id, authz.ActionDealerManage); err != nil {
		return nil, err
	}

	event, err := models.NewDealerApprovalEvent(dealerID, approved, id.UserID)
	if err != nil {
		return nil, mapRepoError(err, "dealer")
	}

	var account *models.DealerAccount
	changed := false
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		dealers := s.dealers.WithTx(tx)

		current, err := dealers.GetAccount(ctx, dealerID)
		if err != nil {
			return err
		}
		if current.IsApproved == approved {
			account = current
			return nil
		}

		if err := s.users.WithTx(tx).SetDealerApproval(ctx, dealerID, approved); err != nil {
			return err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			return err
		}

		changed = true
		account, err = dealers.GetAccount(ctx, dealerID)
		return err
	})
	if err != nil {
		return nil, mapRepoError(err, "dealer")
	}
	if !changed {
		s.logger.Info("Dealer approval unchanged", "dealerID", dealerID, "approved", approved, "actorID", id.UserID)
		return account, nil
	}

	s.logger.Info("Dealer approval changed", "dealerID", dealerID, "approved", approved, "actorID", id.UserID)

	title, msg := "Account approved", "Your dealer account has been approved. You can now place orders."
	if !approved {
		title, msg = "Account access revoked", "Your dealer account approval has been revoked. Contact us for details."
	}
	s.bestEffort.Notify(ctx, s.notifications, models.NewNotification(dealerID, "", title, msg))

	return account, nil
}

// UpdateProfile writes the caller's contact information
func (s *DealerService) UpdateProfile(ctx context.Context, id *authz.Identity, in ProfileInput) (*models.Dealer, error) {
	if err := authz.Authorize(id, authz.ActionDealerSelf); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	dealer, err := s.dealers.GetByID(ctx, id.DealerID)
	if err != nil {
		return nil, mapRepoError(err, "dealer")
	}

	dealer.CompanyName = strings.TrimSpace(in.CompanyName)
	dealer.ContactName = strings.TrimSpace(in.ContactName)
	dealer.Phone = strings.TrimSpace(in.Phone)
	dealer.Address = strings.TrimSpace(in.Address)
	dealer.City = strings.TrimSpace(in.City)
	dealer.State = strings.TrimSpace(in.State)
	dealer.Zip = strings.TrimSpace(in.Zip)
	dealer.UpdatedAt = models.GetCurrentTime()

	if err := s.dealers.UpdateProfile(ctx, dealer); err != nil {
		return nil, mapRepoError(err, "dealer")
	}
	return dealer, nil
}

// UpdateOnboarding replaces the caller's free-form onboarding document. It must be a
// JSON object.
func (s *DealerService) UpdateOnboarding(ctx context.Context, id *authz.Identity, doc models.JSONDoc) (*models.Dealer, error) {
	if err := authz.Authorize(id, authz.ActionDealerSelf); err != nil {
		return nil, err
	}
	if !doc.IsObject() {
		return nil, apperrors.NewValidationError("onboarding must be a JSON object")
	}

	if err := s.dealers.UpdateOnboarding(ctx, id.DealerID, doc, models.GetCurrentTime()); err != nil {
		return nil, mapRepoError(err, "dealer")
	}

	dealer, err := s.dealers.GetByID(ctx, id.DealerID)
	return dealer, mapRepoError(err, "dealer")
}

// UploadTaxDocument stores the caller's tax document
func (s *DealerService) UploadTaxDocument(ctx context.Context, id *authz.Identity, f File) (*models.Dealer, error) {
	if err := authz.Authorize(id, authz.ActionDealerSelf); err != nil {
		return nil, err
	}
	if err := validateInput(f); err != nil {
		return nil, err
	}

	url, err := s.put(ctx, id.DealerID, f)
	if err != nil {
		return nil, err
	}

	if err := s.dealers.SetTaxDocURL(ctx, id.DealerID, url, models.GetCurrentTime()); err != nil {
		return nil, mapRepoError(err, "dealer")
	}

	dealer, err := s.dealers.GetByID(ctx, id.DealerID)
	return dealer, mapRepoError(err, "dealer")
}

// SignAgreement stores the signature image and the signed agreement, and stamps the
// signing time, all in one transaction. An agreement can only be signed once.
func (s *DealerService) SignAgreement(ctx context.Context, id *authz.Identity, signature, agreement File) (*models.Dealer, error) {
	if err := authz.Authorize(id, authz.ActionDealerSelf); err != nil {
		return nil, err
	}
	if err := validateInput(signature); err != nil {
		return nil, err
	}
	if err := validateInput(agreement); err != nil {
		return nil, err
	}

	current, err := s.dealers.GetByID(ctx, id.DealerID)
	if err != nil {
		return nil, mapRepoError(err, "dealer")
	}
	if current.AgreementSignedAt != nil {
		return nil, apperrors.NewConflictError("agreement already signed")
	}

	signatureURL, err := s.put(ctx, id.DealerID, signature)
	if err != nil {
		return nil, err
	}
	docURL, err := s.put(ctx, id.DealerID, agreement)
	if err != nil {
		return nil, err
	}

	var dealer *models.Dealer
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		dealers := s.dealers.WithTx(tx)
		if err := dealers.SignAgreement(ctx, id.DealerID, signatureURL, docURL, models.GetCurrentTime()); err != nil {
			return err
		}
		var err error
		dealer, err = dealers.GetByID(ctx, id.DealerID)
		return err
	})
	if err != nil {
		if err == repository.ErrConflict {
			return nil, apperrors.NewConflictError("agreement already signed")
		}
		return nil, mapRepoError(err, "dealer")
	}

	s.logger.Info("Dealer agreement signed", "dealerID", id.DealerID)
	return dealer, nil
}

func (s *DealerService) put(ctx context.Context, dealerID string, f File) (string, error) {
	url, err := s.store.Put(ctx, storage.Key("dealers", dealerID, f.Name), f.ContentType, f.Body)
	if err != nil {
		s.logger.Error("Failed to store dealer document", "error", err, "dealerID", dealerID)
		return "", apperrors.NewTemporaryError("file storage is unavailable")
	}
	return url, nil
}

// authorizeDealerAccess lets admins read any dealer and dealers only themselves
func authorizeDealerAccess(id *authz.Identity, dealerID string) error {
	if id != nil && id.Role == models.RoleDealer {
		return authz.AuthorizeTenant(id, authz.ActionDealerSelf, dealerID, "dealer")
	}
	return authz.Authorize(id, authz.ActionDealerManage)
}
