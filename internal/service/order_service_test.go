package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
)

func TestCreateOrder(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	order := h.placeOrder(t)

	if order.Status != models.OrderStatusPendingPaymentApproval {
		t.Errorf("status = %s, want PENDING_PAYMENT_APPROVAL", order.Status)
	}
	if !order.QuotedPrice.Equal(decimal.RequireFromString("42500")) {
		t.Errorf("quoted price = %s, want 42500", order.QuotedPrice)
	}

	history, err := h.history.ListByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("ListByOrder: %v", err)
	}
	if len(history) != 1 || history[0].Status != models.OrderStatusPendingPaymentApproval {
		t.Fatalf("history = %+v, want one PENDING_PAYMENT_APPROVAL entry", history)
	}

	events, err := h.outbox.ListByAggregate(ctx, order.ID)
	if err != nil {
		t.Fatalf("ListByAggregate: %v", err)
	}
	if len(events) != 1 || events[0].EventType != models.EventOrderCreated {
		t.Fatalf("outbox = %+v, want one order_created event", events)
	}

	unread, err := h.notifications.CountUnread(ctx, h.fix.DealerID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread notifications = %d, want 1", unread)
	}
}

func TestCreateOrderRejections(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	valid := CreateOrderInput{
		PoolModelID:     h.fix.PoolModelID,
		ColorID:         h.fix.ColorID,
		DeliveryAddress: "1 Main St",
		ShippingMethod:  "DEALER_PICKUP",
	}

	_, err := h.orderSvc.CreateOrder(ctx, h.newbie, valid)
	assertStatus(t, err, http.StatusForbidden)

	_, err = h.orderSvc.CreateOrder(ctx, h.admin, valid)
	assertStatus(t, err, http.StatusForbidden)

	bad := valid
	bad.ShippingMethod = "CARRIER_PIGEON"
	_, err = h.orderSvc.CreateOrder(ctx, h.dealer, bad)
	appErr := assertStatus(t, err, http.StatusBadRequest)
	if fields, _ := appErr.Context["fields"].(map[string]string); fields["shipping_method"] == "" {
		t.Errorf("expected shipping_method in field errors, got %v", appErr.Context)
	}

	unknown := valid
	unknown.ColorID = "col_missing"
	_, err = h.orderSvc.CreateOrder(ctx, h.dealer, unknown)
	assertStatus(t, err, http.StatusBadRequest)

	inactive := false
	if _, err := h.catalogSvc.UpdateColor(ctx, h.admin, h.fix.ColorID, ColorInput{Name: "Caribbean Blue", IsActive: &inactive}); err != nil {
		t.Fatalf("UpdateColor: %v", err)
	}
	_, err = h.orderSvc.CreateOrder(ctx, h.dealer, valid)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestApprovalRequiresProofOfPayment(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	order := h.placeOrder(t)

	_, err := h.orderSvc.TransitionStatus(ctx, h.admin, order.ID, TransitionInput{Status: models.OrderStatusApproved})
	appErr := assertStatus(t, err, http.StatusUnprocessableEntity)
	if appErr.Context["kind"] != "document" || appErr.Context["name"] != "PROOF_OF_PAYMENT" {
		t.Errorf("requirement = %v, want document PROOF_OF_PAYMENT", appErr.Context)
	}

	stored, _ := h.orders.GetByID(ctx, order.ID)
	if stored.Status != models.OrderStatusPendingPaymentApproval {
		t.Fatalf("status changed to %s after a rejected transition", stored.Status)
	}

	h.upload(t, h.dealer, order.ID, models.DocProofOfPayment)

	approved := h.transition(t, order.ID, models.OrderStatusApproved)
	if approved.Status != models.OrderStatusApproved {
		t.Errorf("status = %s, want APPROVED", approved.Status)
	}

	stored, _ = h.orders.GetByID(ctx, order.ID)
	if stored.PaymentProofURL == "" {
		t.Error("expected payment_proof_url to be set by the upload")
	}
}

func TestFieldRequirementNamesFirstGap(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	order := h.placeOrder(t)
	h.upload(t, h.dealer, order.ID, models.DocProofOfPayment)
	h.transition(t, order.ID, models.OrderStatusApproved)

	_, err := h.orderSvc.TransitionStatus(ctx, h.admin, order.ID, TransitionInput{Status: models.OrderStatusInProduction})
	appErr := assertStatus(t, err, http.StatusUnprocessableEntity)
	if appErr.Context["kind"] != "field" || appErr.Context["name"] != "factory_id" {
		t.Fatalf("requirement = %v, want field factory_id", appErr.Context)
	}

	// documents are reported before fields
	_, err = h.orderSvc.TransitionStatus(ctx, h.admin, order.ID, TransitionInput{Status: models.OrderStatusPreShipping})
	appErr = assertStatus(t, err, http.StatusUnprocessableEntity)
	if appErr.Context["name"] != "QUALITY_CHECKLIST" {
		t.Fatalf("requirement = %v, want QUALITY_CHECKLIST", appErr.Context)
	}

	missing, err := h.orderSvc.Checklist(ctx, h.admin, order.ID, models.OrderStatusPreShipping)
	if err != nil {
		t.Fatalf("Checklist: %v", err)
	}
	if len(missing) != 3 {
		t.Errorf("checklist = %d gaps, want 3", len(missing))
	}
}

func TestFullPipelineWithStageSkip(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	order := h.placeOrder(t)
	h.upload(t, h.dealer, order.ID, models.DocProofOfPayment)
	h.transition(t, order.ID, models.OrderStatusApproved)

	factory, serial := h.fix.FactoryID, "LG32-000417"
	if _, err := h.orderSvc.Reassign(ctx, h.admin, order.ID, AssignmentInput{FactoryID: &factory, SerialNumber: &serial}); err != nil {
		t.Fatalf("Reassign: %v", err)
	}

	// APPROVED straight to PRE_SHIPPING skips IN_PRODUCTION
	h.upload(t, h.admin, order.ID, models.DocQualityChecklist)
	h.upload(t, h.admin, order.ID, models.DocPreShippingPhoto)
	h.transition(t, order.ID, models.OrderStatusPreShipping)

	h.upload(t, h.admin, order.ID, models.DocBillOfLading)
	done := h.transition(t, order.ID, models.OrderStatusCompleted)
	if done.Status != models.OrderStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", done.Status)
	}

	_, err := h.orderSvc.TransitionStatus(ctx, h.admin, order.ID, TransitionInput{Status: models.OrderStatusCanceled})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestHistoryIsNewestFirstAndMonotonic(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	order := h.placeOrder(t)
	h.upload(t, h.dealer, order.ID, models.DocProofOfPayment)
	h.transition(t, order.ID, models.OrderStatusApproved)
	if _, err := h.orderSvc.Annotate(ctx, h.admin, order.ID, "Customer asked for a call before delivery"); err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	h.transition(t, order.ID, models.OrderStatusCanceled)

	detail, err := h.orderSvc.GetOrder(ctx, h.admin, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if len(detail.History) != 4 {
		t.Fatalf("history has %d entries, want 4", len(detail.History))
	}
	for i := 1; i < len(detail.History); i++ {
		if detail.History[i].CreatedAt.After(detail.History[i-1].CreatedAt) {
			t.Errorf("entry %d is newer than entry %d", i, i-1)
		}
	}
	if detail.History[0].Status != models.OrderStatusCanceled {
		t.Errorf("newest entry = %s, want CANCELED", detail.History[0].Status)
	}
}

func TestTransitionRejections(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	order := h.placeOrder(t)

	tests := []struct {
		name   string
		status models.OrderStatus
		want   int
	}{
		{"same status", models.OrderStatusPendingPaymentApproval, http.StatusBadRequest},
		{"unknown status", models.OrderStatus("SHIPPED"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.orderSvc.TransitionStatus(ctx, h.admin, order.ID, TransitionInput{Status: tt.status})
			assertStatus(t, err, tt.want)
		})
	}

	_, err := h.orderSvc.TransitionStatus(ctx, h.dealer, order.ID, TransitionInput{Status: models.OrderStatusCanceled})
	assertStatus(t, err, http.StatusForbidden)

	_, err = h.orderSvc.TransitionStatus(ctx, h.admin, "ord_missing", TransitionInput{Status: models.OrderStatusCanceled})
	assertStatus(t, err, http.StatusNotFound)
}

func TestStaleStatusWriteIsConflict(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	order := h.placeOrder(t)

	err := h.orders.UpdateStatus(ctx, order.ID, models.OrderStatusApproved, models.OrderStatusInProduction, models.GetCurrentTime())
	if err != repository.ErrStaleStatus {
		t.Fatalf("UpdateStatus with a stale status = %v, want ErrStaleStatus", err)
	}
	assertStatus(t, mapRepoError(err, "order"), http.StatusConflict)

	stored, _ := h.orders.GetByID(ctx, order.ID)
	if stored.Status != models.OrderStatusPendingPaymentApproval {
		t.Errorf("status = %s after a stale write", stored.Status)
	}
}

func TestTransitionSurvivesNotificationFailure(t *testing.T) {
	sink := &failingSink{}
	h := newHarness(t, sink)
	ctx := context.Background()

	order := h.placeOrder(t)
	updated, err := h.orderSvc.TransitionStatus(ctx, h.admin, order.ID, TransitionInput{Status: models.OrderStatusCanceled, Comment: "duplicate"})
	if err != nil {
		t.Fatalf("TransitionStatus: %v", err)
	}
	if updated.Status != models.OrderStatusCanceled {
		t.Fatalf("status = %s, want CANCELED", updated.Status)
	}
	if sink.calls != 2 {
		t.Errorf("sink called %d times, want 2", sink.calls)
	}

	stored, _ := h.orders.GetByID(ctx, order.ID)
	if stored.Status != models.OrderStatusCanceled {
		t.Errorf("persisted status = %s, want CANCELED", stored.Status)
	}
	history, _ := h.history.ListByOrder(ctx, order.ID)
	if len(history) != 2 {
		t.Errorf("history has %d entries, want 2", len(history))
	}
}

func TestDealerCancel(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	pending := h.placeOrder(t)
	canceled, err := h.orderSvc.CancelOrder(ctx, h.dealer, pending.ID, "")
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if canceled.Status != models.OrderStatusCanceled {
		t.Errorf("status = %s, want CANCELED", canceled.Status)
	}

	approved := h.placeOrder(t)
	h.upload(t, h.dealer, approved.ID, models.DocProofOfPayment)
	h.transition(t, approved.ID, models.OrderStatusApproved)

	_, err = h.orderSvc.CancelOrder(ctx, h.dealer, approved.ID, "changed my mind")
	assertStatus(t, err, http.StatusForbidden)

	_, err = h.orderSvc.CancelOrder(ctx, h.rival, approved.ID, "")
	assertStatus(t, err, http.StatusNotFound)
}

func TestTenantIsolation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	order := h.placeOrder(t)

	_, err := h.orderSvc.GetOrder(ctx, h.rival, order.ID)
	assertStatus(t, err, http.StatusNotFound)

	list, err := h.orderSvc.ListOrders(ctx, h.rival, repository.OrderFilter{DealerID: h.fix.DealerID})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("rival sees %d orders of another dealer", len(list))
	}

	all, err := h.orderSvc.ListOrders(ctx, h.admin, repository.OrderFilter{})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("admin sees %d orders, want 1", len(all))
	}
}

func TestUploadRules(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	order := h.placeOrder(t)

	_, err := h.orderSvc.UploadDocument(ctx, h.dealer, order.ID, UploadInput{
		DocType:  models.DocQualityChecklist,
		FileName: "qc.pdf",
		Body:     stringsReader("x"),
	})
	assertStatus(t, err, http.StatusForbidden)

	internal := h.upload(t, h.admin, order.ID, models.DocOther)
	if internal.VisibleToDealer {
		t.Fatal("admin upload should default to hidden")
	}
	pop := h.upload(t, h.dealer, order.ID, models.DocProofOfPayment)
	if !pop.VisibleToDealer {
		t.Error("dealer upload must be dealer-visible")
	}

	detail, err := h.orderSvc.GetOrder(ctx, h.dealer, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if len(detail.Media) != 1 || detail.Media[0].ID != pop.ID {
		t.Errorf("dealer sees %d media, want only the proof of payment", len(detail.Media))
	}

	adminView, _ := h.orderSvc.GetOrder(ctx, h.admin, order.ID)
	if len(adminView.Media) != 2 {
		t.Errorf("admin sees %d media, want 2", len(adminView.Media))
	}
}

func TestReassignRecordsHistory(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	order := h.placeOrder(t)

	factory, priority, date := h.fix.OtherFactoryID, 3, "2030-04-15"
	updated, err := h.orderSvc.Reassign(ctx, h.admin, order.ID, AssignmentInput{
		FactoryID:               &factory,
		ProductionPriority:      &priority,
		ScheduledProductionDate: &date,
	})
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if updated.FactoryID == nil || *updated.FactoryID != factory {
		t.Errorf("factory_id = %v, want %s", updated.FactoryID, factory)
	}
	if updated.Status != models.OrderStatusPendingPaymentApproval {
		t.Errorf("reassignment changed status to %s", updated.Status)
	}

	history, _ := h.history.ListByOrder(ctx, order.ID)
	if len(history) != 2 || history[0].Comment == nil {
		t.Fatalf("history = %+v, want a reassignment annotation", history)
	}

	missing := "fac_missing"
	_, err = h.orderSvc.Reassign(ctx, h.admin, order.ID, AssignmentInput{FactoryID: &missing})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = h.orderSvc.Reassign(ctx, h.admin, order.ID, AssignmentInput{})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestMapRepoErrorHidesInternals(t *testing.T) {
	err := mapRepoError(repository.ErrDatabase, "order")
	appErr := assertStatus(t, err, http.StatusInternalServerError)
	if appErr.Message != "internal server error" {
		t.Errorf("message = %q", appErr.Message)
	}
	if !apperrors.Is(err, apperrors.ErrInternal) {
		t.Error("expected ErrInternal in the chain")
	}
}
