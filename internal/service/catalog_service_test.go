package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCatalogWrites(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	m, err := h.catalogSvc.CreatePoolModel(ctx, h.admin, PoolModelInput{
		Name:      "Cove 28",
		LengthFt:  decimal.NewFromInt(28),
		WidthFt:   decimal.NewFromInt(14),
		DepthFt:   decimal.RequireFromString("5.5"),
		BasePrice: decimal.RequireFromString("36999.999"),
	})
	if err != nil {
		t.Fatalf("CreatePoolModel: %v", err)
	}
	if !m.BasePrice.Equal(decimal.RequireFromString("37000.00")) {
		t.Errorf("base price = %s, want 37000.00", m.BasePrice)
	}

	_, err = h.catalogSvc.CreatePoolModel(ctx, h.admin, PoolModelInput{Name: "Cove 28"})
	assertStatus(t, err, http.StatusConflict)

	_, err = h.catalogSvc.CreatePoolModel(ctx, h.admin, PoolModelInput{Name: "Negative", BasePrice: decimal.NewFromInt(-1)})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = h.catalogSvc.CreateFactory(ctx, h.dealer, FactoryInput{Name: "Dealer Plant"})
	assertStatus(t, err, http.StatusForbidden)

	_, err = h.catalogSvc.CreateColor(ctx, h.admin, ColorInput{Name: "Sand", HexCode: "beige"})
	assertStatus(t, err, http.StatusBadRequest)

	c, err := h.catalogSvc.CreateColor(ctx, h.admin, ColorInput{Name: "Sand", HexCode: "#d8c8a8"})
	if err != nil {
		t.Fatalf("CreateColor: %v", err)
	}
	if c.HexCode != "#D8C8A8" {
		t.Errorf("hex = %s", c.HexCode)
	}
}

func TestDealersSeeActiveCatalogOnly(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	inactive := false
	if _, err := h.catalogSvc.CreateFactory(ctx, h.admin, FactoryInput{Name: "Mothballed", IsActive: &inactive}); err != nil {
		t.Fatalf("CreateFactory: %v", err)
	}

	dealerView, err := h.catalogSvc.ListFactories(ctx, h.dealer, true)
	if err != nil {
		t.Fatalf("ListFactories: %v", err)
	}
	if len(dealerView) != 2 {
		t.Errorf("dealer sees %d factories, want 2", len(dealerView))
	}

	adminView, _ := h.catalogSvc.ListFactories(ctx, h.admin, true)
	if len(adminView) != 3 {
		t.Errorf("admin sees %d factories, want 3", len(adminView))
	}
}
