package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vaidashi/pool-dealer-portal/internal/config"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/service"
	"github.com/vaidashi/pool-dealer-portal/pkg/circuitbreaker"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
	"github.com/vaidashi/pool-dealer-portal/pkg/middleware"
)

// Services are the application services the handlers call
type Services struct {
	Auth          *service.AuthService
	Orders        *service.OrderService
	Dealers       *service.DealerService
	Reports       *service.ReportService
	Notifications *service.NotificationService
	Catalog       *service.CatalogService
	Inventory     *service.InventoryService
	PoolStock     *service.PoolStockService
	Outbox        *service.OutboxService
}

// Options holds the optional parts of a Server
type Options struct {
	// UploadsDir is served under /uploads/ when set
	UploadsDir string
	// MailBreaker is reported by the health check when set
	MailBreaker *circuitbreaker.CircuitBreaker
}

type Server struct {
	config       *config.Config
	logger       logger.Logger
	router       *mux.Router
	httpServer   *http.Server
	db           *database.Database
	svc          Services
	opts         Options
	loginLimiter *middleware.RateLimiterMiddleware
}

// NewServer creates a new API server with the given configuration and logger.
func NewServer(cfg *config.Config, db *database.Database, svc Services, opts Options, logger logger.Logger) *Server {
	r := mux.NewRouter()

	s := &Server{
		config: cfg,
		logger: logger,
		router: r,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		db:   db,
		svc:  svc,
		opts: opts,
	}

	s.loginLimiter = middleware.NewRateLimiterMiddleware(middleware.RateLimiterConfig{
		Burst:      cfg.Auth.LoginBurst,
		RatePerSec: cfg.Auth.LoginRatePerSec,
		Reject:     s.rejectRateLimited,
	}, logger)

	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.loginLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all the routes for our API
func (s *Server) setupRoutes() {
	s.router.Use(s.recoverMiddleware, s.loggingMiddleware)

	s.router.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if s.opts.UploadsDir != "" {
		s.router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.opts.UploadsDir))),
		).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", s.registerHandler).Methods(http.MethodPost)
	api.Handle("/auth/login", s.loginLimiter.Middleware(http.HandlerFunc(s.loginHandler))).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)

	authed.HandleFunc("/auth/logout", s.logoutHandler).Methods(http.MethodPost)
	authed.HandleFunc("/me", s.meHandler).Methods(http.MethodGet)

	// Catalog
	authed.HandleFunc("/factories", s.listFactoriesHandler).Methods(http.MethodGet)
	authed.HandleFunc("/factories", s.createFactoryHandler).Methods(http.MethodPost)
	authed.HandleFunc("/factories/{id}", s.updateFactoryHandler).Methods(http.MethodPut)
	authed.HandleFunc("/pool-models", s.listPoolModelsHandler).Methods(http.MethodGet)
	authed.HandleFunc("/pool-models", s.createPoolModelHandler).Methods(http.MethodPost)
	authed.HandleFunc("/pool-models/{id}", s.updatePoolModelHandler).Methods(http.MethodPut)
	authed.HandleFunc("/colors", s.listColorsHandler).Methods(http.MethodGet)
	authed.HandleFunc("/colors", s.createColorHandler).Methods(http.MethodPost)
	authed.HandleFunc("/colors/{id}", s.updateColorHandler).Methods(http.MethodPut)

	// Orders
	authed.HandleFunc("/orders", s.getOrdersHandler).Methods(http.MethodGet)
	authed.HandleFunc("/orders", s.createOrderHandler).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{id}", s.getOrderByIDHandler).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id}/checklist", s.orderChecklistHandler).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id}/status", s.updateOrderStatusHandler).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{id}/cancel", s.cancelOrderHandler).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{id}/comments", s.annotateOrderHandler).Methods(http.MethodPost)
	authed.HandleFunc("/orders/{id}/assignment", s.reassignOrderHandler).Methods(http.MethodPatch)
	authed.HandleFunc("/orders/{id}/documents", s.uploadOrderDocumentHandler).Methods(http.MethodPost)

	// Dealer self-service
	authed.HandleFunc("/dealer/profile", s.updateProfileHandler).Methods(http.MethodPut)
	authed.HandleFunc("/dealer/onboarding", s.updateOnboardingHandler).Methods(http.MethodPut)
	authed.HandleFunc("/dealer/tax-document", s.uploadTaxDocumentHandler).Methods(http.MethodPost)
	authed.HandleFunc("/dealer/agreement", s.signAgreementHandler).Methods(http.MethodPost)
	authed.HandleFunc("/dealer/metrics", s.ownMetricsHandler).Methods(http.MethodGet)
	authed.HandleFunc("/dealer/progress", s.ownProgressHandler).Methods(http.MethodGet)

	// Notifications
	authed.HandleFunc("/notifications", s.listNotificationsHandler).Methods(http.MethodGet)
	authed.HandleFunc("/notifications/read-all", s.markAllReadHandler).Methods(http.MethodPost)
	authed.HandleFunc("/notifications/{id}/read", s.markReadHandler).Methods(http.MethodPost)

	// Stock
	authed.HandleFunc("/pool-stock", s.listPoolStockHandler).Methods(http.MethodGet)
	authed.HandleFunc("/pool-stock", s.setPoolStockHandler).Methods(http.MethodPut)
	authed.HandleFunc("/pool-stock/summary", s.poolStockSummaryHandler).Methods(http.MethodGet)
	authed.HandleFunc("/inventory/items", s.listItemsHandler).Methods(http.MethodGet)
	authed.HandleFunc("/inventory/items", s.createItemHandler).Methods(http.MethodPost)
	authed.HandleFunc("/inventory/items/{id}", s.updateItemHandler).Methods(http.MethodPut)
	authed.HandleFunc("/inventory/items/{id}/adjustments", s.adjustItemHandler).Methods(http.MethodPost)
	authed.HandleFunc("/inventory/items/{id}/ledger", s.itemLedgerHandler).Methods(http.MethodGet)
	authed.HandleFunc("/inventory/stock", s.stockLevelsHandler).Methods(http.MethodGet)
	authed.HandleFunc("/inventory/low-stock", s.lowStockHandler).Methods(http.MethodGet)

	// Admin API for dealer management and monitoring
	admin := authed.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/users", s.createAdminHandler).Methods(http.MethodPost)
	admin.HandleFunc("/dealers", s.listDealersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/dealers/{id}", s.getDealerHandler).Methods(http.MethodGet)
	admin.HandleFunc("/dealers/{id}/approve", s.approveDealerHandler).Methods(http.MethodPost)
	admin.HandleFunc("/dealers/{id}/revoke", s.revokeDealerHandler).Methods(http.MethodPost)
	admin.HandleFunc("/dealers/{id}/metrics", s.dealerMetricsHandler).Methods(http.MethodGet)
	admin.HandleFunc("/dealers/{id}/progress", s.dealerProgressHandler).Methods(http.MethodGet)
	admin.HandleFunc("/outbox", s.outboxCountsHandler).Methods(http.MethodGet)
	admin.HandleFunc("/outbox/requeue", s.requeueOutboxHandler).Methods(http.MethodPost)
}
