package service

import (
	"context"
	"math"
	"time"

	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// MetricsMonths is the length of the rolling monthly order series
const MetricsMonths = 6

// MonthCount is one bucket of the monthly series
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// DealerMetrics summarizes one dealer's orders
type DealerMetrics struct {
	DealerID    string                     `json:"dealer_id"`
	TotalOrders int                        `json:"total_orders"`
	ByStatus    map[models.OrderStatus]int `json:"by_status"`
	Monthly     []MonthCount               `json:"monthly"`
}

// FactoryStock is the pool stock of one factory bucketed by status
type FactoryStock struct {
	FactoryID   string                         `json:"factory_id"`
	FactoryName string                         `json:"factory_name"`
	Buckets     map[models.PoolStockStatus]int `json:"buckets"`
	Total       int                            `json:"total"`
}

// OnboardingProgress is the dealer onboarding checklist
type OnboardingProgress struct {
	ProfileComplete bool `json:"profile_complete"`
	TaxDocument     bool `json:"tax_document"`
	AgreementSigned bool `json:"agreement_signed"`
	FirstOrder      bool `json:"first_order"`
	Percent         int  `json:"percent"`
}

// MonthlySeries buckets times into the MetricsMonths calendar months ending with the
// month of now, oldest first. Months without orders count zero; times outside the
// window are ignored.
func MonthlySeries(now time.Time, times []time.Time) []MonthCount {
	start := SeriesStart(now)

	series := make([]MonthCount, MetricsMonths)
	index := make(map[string]int, MetricsMonths)
	for i := 0; i < MetricsMonths; i++ {
		key := start.AddDate(0, i, 0).Format("2006-01")
		series[i] = MonthCount{Month: key}
		index[key] = i
	}

	for _, t := range times {
		if i, ok := index[t.UTC().Format("2006-01")]; ok {
			series[i].Count++
		}
	}
	return series
}

// SeriesStart is the first instant counted by MonthlySeries
func SeriesStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(MetricsMonths - 1), 0)
}

// StatusCounts fills every order status, zero when absent from counts
func StatusCounts(counts map[models.OrderStatus]int) (map[models.OrderStatus]int, int) {
	out := make(map[models.OrderStatus]int, len(models.OrderStatuses))
	total := 0
	for _, s := range models.OrderStatuses {
		out[s] = counts[s]
		total += counts[s]
	}
	return out, total
}

// BuildStockSummary returns one entry per factory with all four buckets present
func BuildStockSummary(factories []*models.Factory, totals []repository.PoolStockTotal) []FactoryStock {
	summary := make([]FactoryStock, 0, len(factories))
	index := make(map[string]int, len(factories))

	for _, f := range factories {
		buckets := make(map[models.PoolStockStatus]int, len(models.PoolStockStatuses))
		for _, s := range models.PoolStockStatuses {
			buckets[s] = 0
		}
		index[f.ID] = len(summary)
		summary = append(summary, FactoryStock{FactoryID: f.ID, FactoryName: f.Name, Buckets: buckets})
	}

	for _, t := range totals {
		i, ok := index[t.FactoryID]
		if !ok || !t.Status.Valid() {
			continue
		}
		summary[i].Buckets[t.Status] += t.Quantity
		summary[i].Total += t.Quantity
	}
	return summary
}

// Progress reduces the checklist to round(100 * done / 4)
func Progress(p OnboardingProgress) OnboardingProgress {
	done := 0
	for _, ok := range []bool{p.ProfileComplete, p.TaxDocument, p.AgreementSigned, p.FirstOrder} {
		if ok {
			done++
		}
	}
	p.Percent = int(math.Round(100 * float64(done) / 4))
	return p
}

// ReportService computes read-only projections on every call
type ReportService struct {
	orders    *repository.OrderRepository
	dealers   *repository.DealerRepository
	catalog   *repository.CatalogRepository
	poolStock *repository.PoolStockRepository
	logger    logger.Logger
	now       func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(
	orders *repository.OrderRepository,
	dealers *repository.DealerRepository,
	catalog *repository.CatalogRepository,
	poolStock *repository.PoolStockRepository,
	logger logger.Logger,
) *ReportService {
	return &ReportService{
		orders:    orders,
		dealers:   dealers,
		catalog:   catalog,
		poolStock: poolStock,
		logger:    logger,
		now:       models.GetCurrentTime,
	}
}

// DealerMetrics returns order counts by status and the monthly series of a dealer
func (s *ReportService) DealerMetrics(ctx context.Context, id *authz.Identity, dealerID string) (*DealerMetrics, error) {
	if err := s.authorizeDealer(ctx, id, dealerID); err != nil {
		return nil, err
	}

	counts, err := s.orders.CountByStatus(ctx, dealerID)
	if err != nil {
		return nil, mapRepoError(err, "dealer")
	}

	now := s.now()
	times, err := s.orders.CreatedSince(ctx, dealerID, SeriesStart(now))
	if err != nil {
		return nil, mapRepoError(err, "dealer")
	}

	byStatus, total := StatusCounts(counts)
	return &DealerMetrics{
		DealerID:    dealerID,
		TotalOrders: total,
		ByStatus:    byStatus,
		Monthly:     MonthlySeries(now, times),
	}, nil
}

// OnboardingProgress evaluates the dealer onboarding checklist
func (s *ReportService) OnboardingProgress(ctx context.Context, id *authz.Identity, dealerID string) (*OnboardingProgress, error) {
	if err := s.authorizeDealer(ctx, id, dealerID); err != nil {
		return nil, err
	}

	dealer, err := s.dealers.GetByID(ctx, dealerID)
	if err != nil {
		return nil, mapRepoError(err, "dealer")
	}

	orders, err := s.orders.CountByDealer(ctx, dealerID)
	if err != nil {
		return nil, mapRepoError(err, "dealer")
	}

	p := Progress(OnboardingProgress{
		ProfileComplete: dealer.ProfileComplete(),
		TaxDocument:     dealer.TaxDocURL != "",
		AgreementSigned: dealer.AgreementSignedAt != nil,
		FirstOrder:      orders > 0,
	})
	return &p, nil
}

// PoolStockSummary totals pool stock per active factory
func (s *ReportService) PoolStockSummary(ctx context.Context, id *authz.Identity) ([]FactoryStock, error) {
	if err := authz.Authorize(id, authz.ActionPoolStockRead); err != nil {
		return nil, err
	}

	factories, err := s.catalog.ListFactories(ctx, true)
	if err != nil {
		return nil, mapRepoError(err, "factory")
	}

	totals, err := s.poolStock.Totals(ctx)
	if err != nil {
		return nil, mapRepoError(err, "pool stock")
	}

	return BuildStockSummary(factories, totals), nil
}

// authorizeDealer lets admins read any dealer and dealers only themselves. The dealer
// must exist.
func (s *ReportService) authorizeDealer(ctx context.Context, id *authz.Identity, dealerID string) error {
	if err := authorizeDealerAccess(id, dealerID); err != nil {
		return err
	}

	if _, err := s.dealers.GetByID(ctx, dealerID); err != nil {
		return mapRepoError(err, "dealer")
	}
	return nil
}
