package authz

import (
	"context"
	"net/http"
	"testing"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/pkg/errors"
)

func dealer(approved bool) *Identity {
	return &Identity{UserID: "usr_1", Role: models.RoleDealer, DealerID: "dlr_1", Approved: approved}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	appErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("error %v is not an AppError", err)
	}
	return appErr.StatusCode
}

func TestAuthorize(t *testing.T) {
	admin := &Identity{UserID: "usr_a", Role: models.RoleAdmin}
	super := &Identity{UserID: "usr_s", Role: models.RoleSuperAdmin}

	tests := []struct {
		name   string
		id     *Identity
		action Action
		want   int
	}{
		{"anonymous", nil, ActionCatalogRead, http.StatusUnauthorized},
		{"approved dealer creates order", dealer(true), ActionOrderCreate, 0},
		{"unapproved dealer creates order", dealer(false), ActionOrderCreate, http.StatusForbidden},
		{"unapproved dealer reads catalog", dealer(false), ActionCatalogRead, 0},
		{"unapproved dealer edits own profile", dealer(false), ActionDealerSelf, 0},
		{"dealer transitions order", dealer(true), ActionOrderTransition, http.StatusForbidden},
		{"dealer uploads any document", dealer(true), ActionOrderUploadAny, http.StatusForbidden},
		{"dealer without profile", &Identity{UserID: "usr_x", Role: models.RoleDealer}, ActionCatalogRead, http.StatusForbidden},
		{"admin transitions order", admin, ActionOrderTransition, 0},
		{"admin manages users", admin, ActionUserManage, http.StatusForbidden},
		{"superadmin manages users", super, ActionUserManage, 0},
		{"superadmin writes inventory", super, ActionInventoryWrite, 0},
		{"admin has no dealer self service", admin, ActionDealerSelf, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusOf(t, Authorize(tt.id, tt.action)); got != tt.want {
				t.Errorf("Authorize() status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAuthorizeTenantHidesForeignEntities(t *testing.T) {
	err := AuthorizeTenant(dealer(true), ActionOrderRead, "dlr_2", "order")
	if got := statusOf(t, err); got != http.StatusNotFound {
		t.Fatalf("foreign tenant status = %d, want 404", got)
	}

	if err := AuthorizeTenant(dealer(true), ActionOrderRead, "dlr_1", "order"); err != nil {
		t.Fatalf("own tenant: %v", err)
	}

	admin := &Identity{UserID: "usr_a", Role: models.RoleAdmin}
	if err := AuthorizeTenant(admin, ActionOrderRead, "dlr_2", "order"); err != nil {
		t.Fatalf("admin: %v", err)
	}
}

func TestScopeDealer(t *testing.T) {
	if got := ScopeDealer(dealer(true)); got != "dlr_1" {
		t.Errorf("dealer scope = %q", got)
	}
	if got := ScopeDealer(&Identity{UserID: "usr_a", Role: models.RoleAdmin}); got != "" {
		t.Errorf("admin scope = %q", got)
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Fatal("empty context returned an identity")
	}

	id := dealer(true)
	ctx := WithIdentity(context.Background(), id)
	if FromContext(ctx) != id {
		t.Fatal("identity not carried by context")
	}
}
