package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/internal/session"
	"github.com/vaidashi/pool-dealer-portal/internal/storage"
	"github.com/vaidashi/pool-dealer-portal/internal/testutil"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// failingSink rejects every notification
type failingSink struct{ calls int }

func (f *failingSink) Create(context.Context, *models.Notification) error {
	f.calls++
	return errors.New("notification store down")
}

type harness struct {
	db  *database.Database
	fix *testutil.Fixtures

	orders        *repository.OrderRepository
	history       *repository.HistoryRepository
	media         *repository.MediaRepository
	catalog       *repository.CatalogRepository
	outbox        *repository.OutboxRepository
	notifications *repository.NotificationRepository
	dealers       *repository.DealerRepository
	users         *repository.UserRepository
	inventory     *repository.InventoryRepository
	poolStock     *repository.PoolStockRepository

	orderSvc        *OrderService
	dealerSvc       *DealerService
	reportSvc       *ReportService
	notificationSvc *NotificationService
	catalogSvc      *CatalogService
	inventorySvc    *InventoryService
	poolStockSvc    *PoolStockService
	authSvc         *AuthService

	admin  *authz.Identity
	super  *authz.Identity
	dealer *authz.Identity
	rival  *authz.Identity
	newbie *authz.Identity
}

// newHarness wires every service against a fresh seeded database. sink replaces the
// notification repository as the best-effort target when non-nil.
func newHarness(t *testing.T, sink NotificationSink) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	fix := testutil.Seed(t, db)
	log := logger.NewNop()

	store, err := storage.NewLocalStore(t.TempDir(), "http://files.test/uploads")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	h := &harness{
		db:            db,
		fix:           fix,
		orders:        repository.NewOrderRepository(db, log),
		history:       repository.NewHistoryRepository(db, log),
		media:         repository.NewMediaRepository(db, log),
		catalog:       repository.NewCatalogRepository(db, log),
		outbox:        repository.NewOutboxRepository(db, log),
		notifications: repository.NewNotificationRepository(db, log),
		dealers:       repository.NewDealerRepository(db, log),
		users:         repository.NewUserRepository(db, log),
		inventory:     repository.NewInventoryRepository(db, log),
		poolStock:     repository.NewPoolStockRepository(db, log),
	}
	if sink == nil {
		sink = h.notifications
	}
	bestEffort := NewFireAndForget(log, time.Second)

	h.orderSvc = NewOrderService(OrderDeps{
		DB:            db,
		Orders:        h.orders,
		History:       h.history,
		Media:         h.media,
		Catalog:       h.catalog,
		Outbox:        h.outbox,
		Notifications: sink,
		Store:         store,
		BestEffort:    bestEffort,
	}, log)
	h.dealerSvc = NewDealerService(db, h.dealers, h.users, h.outbox, sink, store, bestEffort, log)
	h.reportSvc = NewReportService(h.orders, h.dealers, h.catalog, h.poolStock, log)
	h.notificationSvc = NewNotificationService(h.notifications, log)
	h.catalogSvc = NewCatalogService(h.catalog, log)
	h.inventorySvc = NewInventoryService(db, h.inventory, h.catalog, log)
	h.poolStockSvc = NewPoolStockService(h.poolStock, h.catalog, log)
	h.authSvc = NewAuthService(db, h.users, h.dealers, session.NewMemoryStore(time.Hour), log).
		WithHashCost(bcrypt.MinCost)

	h.admin = &authz.Identity{UserID: fix.AdminID, Role: models.RoleAdmin, Approved: true}
	h.super = &authz.Identity{UserID: fix.SuperAdminID, Role: models.RoleSuperAdmin, Approved: true}
	h.dealer = &authz.Identity{UserID: fix.DealerUserID, Role: models.RoleDealer, DealerID: fix.DealerID, Approved: true}
	h.rival = &authz.Identity{UserID: fix.OtherDealerUID, Role: models.RoleDealer, DealerID: fix.OtherDealerID, Approved: true}
	h.newbie = &authz.Identity{UserID: fix.PendingUserID, Role: models.RoleDealer, DealerID: fix.PendingID}

	return h
}

func (h *harness) placeOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := h.orderSvc.CreateOrder(context.Background(), h.dealer, CreateOrderInput{
		PoolModelID:     h.fix.PoolModelID,
		ColorID:         h.fix.ColorID,
		DeliveryAddress: "12 Palm Way, Tampa, FL",
		ShippingMethod:  "FACTORY_DELIVERY",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return order
}

func (h *harness) upload(t *testing.T, id *authz.Identity, orderID string, doc models.DocumentType) *models.OrderMedia {
	t.Helper()
	m, err := h.orderSvc.UploadDocument(context.Background(), id, orderID, UploadInput{
		DocType:     doc,
		FileName:    strings.ToLower(string(doc)) + ".pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("%PDF-1.4"),
	})
	if err != nil {
		t.Fatalf("UploadDocument(%s): %v", doc, err)
	}
	return m
}

func (h *harness) transition(t *testing.T, orderID string, status models.OrderStatus) *models.Order {
	t.Helper()
	order, err := h.orderSvc.TransitionStatus(context.Background(), h.admin, orderID, TransitionInput{Status: status})
	if err != nil {
		t.Fatalf("TransitionStatus(%s): %v", status, err)
	}
	return order
}

// assertStatus fails unless err is an AppError with the given HTTP status
func assertStatus(t *testing.T, err error, want int) *apperrors.AppError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error with status %d, got nil", want)
	}
	appErr, ok := apperrors.As(err)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.StatusCode != want {
		t.Fatalf("status = %d (%s), want %d", appErr.StatusCode, appErr.Message, want)
	}
	return appErr
}

func stringsReader(s string) *strings.Reader {
	return strings.NewReader(s)
}
