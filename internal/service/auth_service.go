package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/metrics"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/internal/session"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

const maxPasswordBytes = 72

// RegisterInput signs up a new dealer. The account stays unapproved until an admin
// approves it.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	CompanyName string `json:"company_name" validate:"required,max=200"`
	ContactName string `json:"contact_name" validate:"required,max=200"`
	Phone       string `json:"phone" validate:"max=50"`
}

// LoginInput holds credentials
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminInput creates an ADMIN user
type AdminInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginResult is a fresh session
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Me is the caller's own account
type Me struct {
	User   *models.User   `json:"user"`
	Dealer *models.Dealer `json:"dealer,omitempty"`
}

// AuthService handles registration, sessions and admin accounts
type AuthService struct {
	db       *database.Database
	users    *repository.UserRepository
	dealers  *repository.DealerRepository
	sessions session.Store
	cost     int
	logger   logger.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	db *database.Database,
	users *repository.UserRepository,
	dealers *repository.DealerRepository,
	sessions session.Store,
	logger logger.Logger,
) *AuthService {
	return &AuthService{
		db:       db,
		users:    users,
		dealers:  dealers,
		sessions: sessions,
		cost:     bcrypt.DefaultCost,
		logger:   logger,
	}
}

// WithHashCost overrides the bcrypt cost. Tests lower it.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// hash rejects passwords over bcrypt's 72 byte limit. The validator counts runes, so
// multi-byte passwords can pass it and still be too long.
func (s *AuthService) hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", apperrors.NewValidationError("password must be at most 72 bytes").
			WithContext("fields", map[string]string{"Password": "max=72"})
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Register creates a dealer and its unapproved DEALER user in one transaction
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.DealerAccount, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}

	dealer := models.NewDealer(strings.TrimSpace(in.CompanyName), strings.TrimSpace(in.ContactName))
	dealer.Phone = strings.TrimSpace(in.Phone)

	user := &models.User{
		ID:           models.GenerateID("usr"),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleDealer,
		DealerID:     &dealer.ID,
		IsApproved:   false,
		CreatedAt:    models.GetCurrentTime(),
	}

	var account *models.DealerAccount
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		dealers := s.dealers.WithTx(tx)
		if err := dealers.Create(ctx, dealer); err != nil {
			return err
		}
		if err := s.users.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}

		var err error
		account, err = dealers.GetAccount(ctx, dealer.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflictError("email already registered")
		}
		return nil, mapRepoError(err, "dealer")
	}

	s.logger.Info("Dealer registered", "dealerID", dealer.ID, "userID", user.ID)
	return account, nil
}

// Login checks credentials and opens a session. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	invalid := apperrors.NewUnauthorizedError("invalid email or password")

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
			return nil, invalid
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, mapRepoError(err, "user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("rejected").Inc()
		s.logger.Info("Login rejected", "userID", user.ID)
		return nil, invalid
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Failed to create session", "error", err, "userID", user.ID)
		return nil, apperrors.NewTemporaryError("session store is unavailable")
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info("User logged in", "userID", user.ID, "role", user.Role)

	return &LoginResult{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: user}, nil
}

// Logout ends a session
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		s.logger.Error("Failed to delete session", "error", err)
		return apperrors.NewTemporaryError("session store is unavailable")
	}
	return nil
}

// Authenticate resolves a session token to the caller's identity. The user is re-read on
// every call so approval changes apply to open sessions.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*authz.Identity, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("missing session token")
	}

	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, apperrors.NewUnauthorizedError("session expired or invalid")
		}
		s.logger.Error("Failed to read session", "error", err)
		return nil, apperrors.NewTemporaryError("session store is unavailable")
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorizedError("session expired or invalid")
		}
		return nil, mapRepoError(err, "user")
	}
	return IdentityOf(user), nil
}

// IdentityOf builds the request identity of a user
func IdentityOf(u *models.User) *authz.Identity {
	id := &authz.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		Approved: u.IsApproved,
	}
	if u.DealerID != nil {
		id.DealerID = *u.DealerID
	}
	return id
}

// Me returns the caller's user and, for dealers, their dealer profile
func (s *AuthService) Me(ctx context.Context, id *authz.Identity) (*Me, error) {
	if id == nil || id.UserID == "" {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}

	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}

	me := &Me{User: user}
	if id.DealerID != "" {
		if me.Dealer, err = s.dealers.GetByID(ctx, id.DealerID); err != nil {
			return nil, mapRepoError(err, "dealer")
		}
	}
	return me, nil
}

// CreateAdmin adds an ADMIN user. SUPERADMIN only.
func (s *AuthService) CreateAdmin(ctx context.Context, id *authz.Identity, in AdminInput) (*models.User, error) {
	if err := authz.Authorize(id, authz.ActionUserManage); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.createStaff(ctx, in.Email, in.Password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Admin user created", "userID", user.ID, "actorID", id.UserID)
	return user, nil
}

// BootstrapAdmin creates the first SUPERADMIN. It does nothing once one exists and
// reports whether a user was created.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	count, err := s.users.CountByRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		return false, mapRepoError(err, "user")
	}
	if count > 0 {
		return false, nil
	}

	if err := validateInput(AdminInput{Email: email, Password: password}); err != nil {
		return false, err
	}

	user, err := s.createStaff(ctx, email, password, models.RoleSuperAdmin)
	if err != nil {
		return false, err
	}

	s.logger.Info("Bootstrap superadmin created", "userID", user.ID)
	return true, nil
}

func (s *AuthService) createStaff(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	hash, err := s.hash(password)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}

	user := &models.User{
		ID:           models.GenerateID("usr"),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsApproved:   true,
		CreatedAt:    models.GetCurrentTime(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflictError("email already registered")
		}
		return nil, mapRepoError(err, "user")
	}
	return user, nil
}
