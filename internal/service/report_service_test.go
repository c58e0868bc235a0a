package service

import (
	"context"
	"testing"
	"time"

	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
)

func TestMonthlySeries(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
	times := []time.Time{
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.December, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.September, 30, 0, 0, 0, 0, time.UTC), // outside the window
	}

	series := MonthlySeries(now, times)

	want := []MonthCount{
		{"2023-10", 1},
		{"2023-11", 0},
		{"2023-12", 1},
		{"2024-01", 0},
		{"2024-02", 0},
		{"2024-03", 2},
	}
	if len(series) != len(want) {
		t.Fatalf("len = %d, want %d", len(series), len(want))
	}
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("series[%d] = %+v, want %+v", i, series[i], want[i])
		}
	}
}

func TestMonthlySeriesWithoutOrders(t *testing.T) {
	series := MonthlySeries(time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), nil)
	if len(series) != MetricsMonths {
		t.Fatalf("len = %d, want %d", len(series), MetricsMonths)
	}
	if series[0].Month != "2024-08" || series[5].Month != "2025-01" {
		t.Errorf("window = %s..%s", series[0].Month, series[5].Month)
	}
	for _, m := range series {
		if m.Count != 0 {
			t.Errorf("%s = %d, want 0", m.Month, m.Count)
		}
	}
}

func TestBuildStockSummaryZeroFills(t *testing.T) {
	factories := []*models.Factory{{ID: "fac_a", Name: "A"}, {ID: "fac_b", Name: "B"}}
	totals := []repository.PoolStockTotal{
		{FactoryID: "fac_a", Status: models.PoolStockReady, Quantity: 4},
		{FactoryID: "fac_a", Status: models.PoolStockDamaged, Quantity: 1},
		{FactoryID: "fac_gone", Status: models.PoolStockReady, Quantity: 9},
	}

	summary := BuildStockSummary(factories, totals)
	if len(summary) != 2 {
		t.Fatalf("len = %d, want 2", len(summary))
	}
	for _, fs := range summary {
		if len(fs.Buckets) != len(models.PoolStockStatuses) {
			t.Errorf("%s has %d buckets", fs.FactoryID, len(fs.Buckets))
		}
	}
	if summary[0].Total != 5 || summary[0].Buckets[models.PoolStockReady] != 4 {
		t.Errorf("fac_a = %+v", summary[0])
	}
	if summary[1].Total != 0 || summary[1].Buckets[models.PoolStockInProduction] != 0 {
		t.Errorf("fac_b = %+v", summary[1])
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		in   OnboardingProgress
		want int
	}{
		{OnboardingProgress{}, 0},
		{OnboardingProgress{ProfileComplete: true}, 25},
		{OnboardingProgress{TaxDocument: true, FirstOrder: true}, 50},
		{OnboardingProgress{ProfileComplete: true, TaxDocument: true, AgreementSigned: true}, 75},
		{OnboardingProgress{ProfileComplete: true, TaxDocument: true, AgreementSigned: true, FirstOrder: true}, 100},
	}
	for _, tt := range tests {
		if got := Progress(tt.in).Percent; got != tt.want {
			t.Errorf("Progress(%+v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDealerMetrics(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.placeOrder(t)
	second := h.placeOrder(t)
	h.transition(t, second.ID, models.OrderStatusCanceled)

	m, err := h.reportSvc.DealerMetrics(ctx, h.dealer, h.fix.DealerID)
	if err != nil {
		t.Fatalf("DealerMetrics: %v", err)
	}
	if m.TotalOrders != 2 {
		t.Errorf("total = %d, want 2", m.TotalOrders)
	}
	if len(m.ByStatus) != len(models.OrderStatuses) {
		t.Errorf("by_status has %d keys, want %d", len(m.ByStatus), len(models.OrderStatuses))
	}
	if m.ByStatus[models.OrderStatusCanceled] != 1 || m.ByStatus[models.OrderStatusCompleted] != 0 {
		t.Errorf("by_status = %v", m.ByStatus)
	}
	if len(m.Monthly) != MetricsMonths || m.Monthly[MetricsMonths-1].Count != 2 {
		t.Errorf("monthly = %+v", m.Monthly)
	}
}

func TestPoolStockSummary(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.poolStockSvc.Set(ctx, h.admin, PoolStockInput{
		FactoryID:   h.fix.FactoryID,
		PoolModelID: h.fix.PoolModelID,
		ColorID:     h.fix.ColorID,
		Status:      models.PoolStockReady,
		Quantity:    3,
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	// setting the same bucket again replaces the quantity
	if _, err := h.poolStockSvc.Set(ctx, h.admin, PoolStockInput{
		FactoryID:   h.fix.FactoryID,
		PoolModelID: h.fix.PoolModelID,
		ColorID:     h.fix.ColorID,
		Status:      models.PoolStockReady,
		Quantity:    7,
	}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	summary, err := h.reportSvc.PoolStockSummary(ctx, h.dealer)
	if err != nil {
		t.Fatalf("PoolStockSummary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("factories = %d, want 2", len(summary))
	}

	byID := map[string]FactoryStock{}
	for _, fs := range summary {
		byID[fs.FactoryID] = fs
	}
	if got := byID[h.fix.FactoryID].Buckets[models.PoolStockReady]; got != 7 {
		t.Errorf("READY at main = %d, want 7", got)
	}
	south := byID[h.fix.OtherFactoryID]
	for _, s := range models.PoolStockStatuses {
		if v, ok := south.Buckets[s]; !ok || v != 0 {
			t.Errorf("south %s = %d (present %v), want 0", s, v, ok)
		}
	}
}
