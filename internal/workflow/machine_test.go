package workflow

import (
	"errors"
	"testing"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
)

func strPtr(s string) *string { return &s }

func newOrder(status models.OrderStatus) *models.Order {
	return &models.Order{ID: "ord_1", DealerID: "dlr_1", Status: status}
}

func TestCheckTransitionRequirements(t *testing.T) {
	tests := []struct {
		name     string
		order    *models.Order
		target   models.OrderStatus
		attached []models.DocumentType
		wantKind string
		wantName string
	}{
		{
			name:     "approve without proof of payment",
			order:    newOrder(models.OrderStatusPendingPaymentApproval),
			target:   models.OrderStatusApproved,
			wantKind: KindDocument,
			wantName: "PROOF_OF_PAYMENT",
		},
		{
			name:     "approve with proof of payment",
			order:    newOrder(models.OrderStatusPendingPaymentApproval),
			target:   models.OrderStatusApproved,
			attached: []models.DocumentType{models.DocProofOfPayment},
		},
		{
			name:     "production without factory",
			order:    newOrder(models.OrderStatusApproved),
			target:   models.OrderStatusInProduction,
			wantKind: KindField,
			wantName: "factory_id",
		},
		{
			name: "production with blank factory",
			order: func() *models.Order {
				o := newOrder(models.OrderStatusApproved)
				o.FactoryID = strPtr("  ")
				return o
			}(),
			target:   models.OrderStatusInProduction,
			wantKind: KindField,
			wantName: "factory_id",
		},
		{
			name:     "pre-shipping reports first missing document before fields",
			order:    newOrder(models.OrderStatusInProduction),
			target:   models.OrderStatusPreShipping,
			wantKind: KindDocument,
			wantName: "QUALITY_CHECKLIST",
		},
		{
			name:     "pre-shipping reports second document once first attached",
			order:    newOrder(models.OrderStatusInProduction),
			target:   models.OrderStatusPreShipping,
			attached: []models.DocumentType{models.DocQualityChecklist},
			wantKind: KindDocument,
			wantName: "PRE_SHIPPING_PHOTO",
		},
		{
			name:     "pre-shipping without serial number",
			order:    newOrder(models.OrderStatusInProduction),
			target:   models.OrderStatusPreShipping,
			attached: []models.DocumentType{models.DocQualityChecklist, models.DocPreShippingPhoto},
			wantKind: KindField,
			wantName: "serial_number",
		},
		{
			name: "complete with everything present",
			order: func() *models.Order {
				o := newOrder(models.OrderStatusPreShipping)
				o.SerialNumber = strPtr("SN-100")
				return o
			}(),
			target:   models.OrderStatusCompleted,
			attached: []models.DocumentType{models.DocBillOfLading},
		},
		{
			name:   "cancel has no prerequisites",
			order:  newOrder(models.OrderStatusInProduction),
			target: models.OrderStatusCanceled,
		},
		{
			name: "skipping stages only checks the target",
			order: func() *models.Order {
				o := newOrder(models.OrderStatusPendingPaymentApproval)
				o.FactoryID = strPtr("fac_1")
				return o
			}(),
			target: models.OrderStatusInProduction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(tt.order, tt.target, tt.attached)

			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("CheckTransition() error = %v, want nil", err)
				}
				return
			}

			var unmet *Unmet
			if !errors.As(err, &unmet) {
				t.Fatalf("CheckTransition() error = %v, want *Unmet", err)
			}
			if unmet.Kind != tt.wantKind || unmet.Name != tt.wantName {
				t.Errorf("unmet = %s/%s, want %s/%s", unmet.Kind, unmet.Name, tt.wantKind, tt.wantName)
			}
		})
	}
}

func TestCheckTransitionRejectsImpossibleMoves(t *testing.T) {
	tests := []struct {
		name    string
		current models.OrderStatus
		target  models.OrderStatus
		want    error
	}{
		{"unknown target", models.OrderStatusApproved, models.OrderStatus("SHIPPED"), ErrUnknownStatus},
		{"back to initial", models.OrderStatusApproved, models.OrderStatusPendingPaymentApproval, ErrInvalidTarget},
		{"same status", models.OrderStatusApproved, models.OrderStatusApproved, ErrSameStatus},
		{"out of completed", models.OrderStatusCompleted, models.OrderStatusCanceled, ErrTerminalStatus},
		{"out of canceled", models.OrderStatusCanceled, models.OrderStatusApproved, ErrTerminalStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(newOrder(tt.current), tt.target, []models.DocumentType{models.DocProofOfPayment})
			if !errors.Is(err, tt.want) {
				t.Errorf("CheckTransition() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMissingListsEveryGap(t *testing.T) {
	got := Missing(newOrder(models.OrderStatusInProduction), models.OrderStatusPreShipping, nil)
	if len(got) != 3 {
		t.Fatalf("len(Missing()) = %d, want 3", len(got))
	}
	if got[2].Kind != KindField || got[2].Name != "serial_number" {
		t.Errorf("last gap = %s/%s", got[2].Kind, got[2].Name)
	}
}

func TestTableIsACopy(t *testing.T) {
	table := Table()
	table[models.OrderStatusApproved] = Requirement{}

	req, _ := RequirementsFor(models.OrderStatusApproved)
	if len(req.Documents) != 1 {
		t.Error("mutating Table() result changed the requirement table")
	}
}
