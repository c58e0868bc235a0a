// Package authz decides what an authenticated user may do. Every capability lives in
// the grants table below; handlers and services never compare roles directly.
package authz

import (
	"context"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/errors"
)

// Identity is the caller of one request. It is built by the auth middleware and passed
// explicitly to services.
type Identity struct {
	UserID   string
	Email    string
	Role     models.Role
	DealerID string
	Approved bool
}

// IsAdmin reports whether the identity carries an administrative role
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role.IsAdmin()
}

// Action names one capability
type Action string

const (
	ActionCatalogRead  Action = "catalog:read"
	ActionCatalogWrite Action = "catalog:write"

	ActionOrderCreate     Action = "order:create"
	ActionOrderRead       Action = "order:read"
	ActionOrderReadAll    Action = "order:read_all"
	ActionOrderCancel     Action = "order:cancel"
	ActionOrderUploadPOP  Action = "order:upload_payment_proof"
	ActionOrderUploadAny  Action = "order:upload_any"
	ActionOrderTransition Action = "order:transition"
	ActionOrderAnnotate   Action = "order:annotate"
	ActionOrderReassign   Action = "order:reassign"

	ActionDealerSelf    Action = "dealer:self"
	ActionDealerManage  Action = "dealer:manage"
	ActionNotifications Action = "notification:own"

	ActionInventoryRead  Action = "inventory:read"
	ActionInventoryWrite Action = "inventory:write"
	ActionPoolStockRead  Action = "pool_stock:read"
	ActionPoolStockWrite Action = "pool_stock:write"

	ActionOutboxManage Action = "outbox:manage"
	ActionUserManage   Action = "user:manage"
)

// dealerActions require an approved dealer account
var dealerActions = map[Action]bool{
	ActionOrderCreate:    true,
	ActionOrderCancel:    true,
	ActionOrderUploadPOP: true,
}

var adminActions = []Action{
	ActionCatalogRead,
	ActionCatalogWrite,
	ActionOrderRead,
	ActionOrderReadAll,
	ActionOrderUploadPOP,
	ActionOrderUploadAny,
	ActionOrderTransition,
	ActionOrderAnnotate,
	ActionOrderReassign,
	ActionOrderCancel,
	ActionDealerManage,
	ActionInventoryRead,
	ActionInventoryWrite,
	ActionPoolStockRead,
	ActionPoolStockWrite,
	ActionOutboxManage,
}

var grants = map[models.Role]map[Action]bool{
	models.RoleDealer: set(
		ActionCatalogRead,
		ActionOrderCreate,
		ActionOrderRead,
		ActionOrderCancel,
		ActionOrderUploadPOP,
		ActionDealerSelf,
		ActionNotifications,
		ActionPoolStockRead,
	),
	models.RoleAdmin:      set(adminActions...),
	models.RoleSuperAdmin: set(append(adminActions, ActionUserManage)...),
}

func set(actions ...Action) map[Action]bool {
	m := make(map[Action]bool, len(actions))
	for _, a := range actions {
		m[a] = true
	}
	return m
}

// Can reports whether role holds action, ignoring approval
func Can(role models.Role, action Action) bool {
	return grants[role][action]
}

// Authorize checks that id may perform action. A nil identity is Unauthorized. Dealers
// whose account is not approved are Forbidden from placing or changing orders.
func Authorize(id *Identity, action Action) error {
	if id == nil || id.UserID == "" {
		return errors.NewUnauthorizedError("authentication required")
	}

	if !Can(id.Role, action) {
		return errors.NewForbiddenError("not permitted").WithContext("action", string(action))
	}

	if id.Role == models.RoleDealer {
		if id.DealerID == "" {
			return errors.NewForbiddenError("user has no dealer profile")
		}
		if dealerActions[action] && !id.Approved {
			return errors.NewForbiddenError("dealer account is pending approval")
		}
	}

	return nil
}

// AuthorizeTenant checks action and that a dealer caller owns the entity belonging to
// dealerID. Another tenant's entity is reported as NotFound so its existence is not
// disclosed. Admins pass for any dealer.
func AuthorizeTenant(id *Identity, action Action, dealerID, entity string) error {
	if err := Authorize(id, action); err != nil {
		return err
	}

	if id.Role == models.RoleDealer && id.DealerID != dealerID {
		return errors.NewNotFoundError(entity + " not found")
	}

	return nil
}

// ScopeDealer returns the dealer id list queries must be restricted to, or "" for admins
func ScopeDealer(id *Identity) string {
	if id != nil && id.Role == models.RoleDealer {
		return id.DealerID
	}
	return ""
}

type contextKey struct{}

// WithIdentity returns a context carrying id
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, or nil
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}
