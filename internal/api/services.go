package api

import (
	"time"

	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/internal/service"
	"github.com/vaidashi/pool-dealer-portal/internal/session"
	"github.com/vaidashi/pool-dealer-portal/internal/storage"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// BuildServices wires every repository and service over db
func BuildServices(db *database.Database, store storage.Store, sessions session.Store, logger logger.Logger) Services {
	orders := repository.NewOrderRepository(db, logger)
	catalog := repository.NewCatalogRepository(db, logger)
	outbox := repository.NewOutboxRepository(db, logger)
	notifications := repository.NewNotificationRepository(db, logger)
	dealers := repository.NewDealerRepository(db, logger)
	users := repository.NewUserRepository(db, logger)
	poolStock := repository.NewPoolStockRepository(db, logger)

	bestEffort := service.NewFireAndForget(logger, 5*time.Second)

	return Services{
		Auth: service.NewAuthService(db, users, dealers, sessions, logger),
		Orders: service.NewOrderService(service.OrderDeps{
			DB:            db,
			Orders:        orders,
			History:       repository.NewHistoryRepository(db, logger),
			Media:         repository.NewMediaRepository(db, logger),
			Catalog:       catalog,
			Outbox:        outbox,
			Notifications: notifications,
			Store:         store,
			BestEffort:    bestEffort,
		}, logger),
		Dealers:       service.NewDealerService(db, dealers, users, outbox, notifications, store, bestEffort, logger),
		Reports:       service.NewReportService(orders, dealers, catalog, poolStock, logger),
		Notifications: service.NewNotificationService(notifications, logger),
		Catalog:       service.NewCatalogService(catalog, logger),
		Inventory:     service.NewInventoryService(db, repository.NewInventoryRepository(db, logger), catalog, logger),
		PoolStock:     service.NewPoolStockService(poolStock, catalog, logger),
		Outbox:        service.NewOutboxService(outbox, logger),
	}
}
