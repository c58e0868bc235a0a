package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/database"
	"github.com/vaidashi/pool-dealer-portal/internal/metrics"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/internal/storage"
	"github.com/vaidashi/pool-dealer-portal/internal/workflow"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

const dateLayout = "2006-01-02"

// CreateOrderInput is what a dealer submits when placing an order
type CreateOrderInput struct {
	PoolModelID       string `json:"pool_model_id" validate:"required"`
	ColorID           string `json:"color_id" validate:"required"`
	DeliveryAddress   string `json:"delivery_address" validate:"required,max=500"`
	ShippingMethod    string `json:"shipping_method" validate:"required,oneof=DEALER_PICKUP FACTORY_DELIVERY THIRD_PARTY_FREIGHT"`
	RequestedShipDate string `json:"requested_ship_date" validate:"omitempty,datetime=2006-01-02"`
	Notes             string `json:"notes" validate:"max=2000"`
}

// TransitionInput requests a move into Status
type TransitionInput struct {
	Status  models.OrderStatus `json:"status" validate:"required"`
	Comment string             `json:"comment" validate:"max=2000"`
}

// AssignmentInput changes scheduling metadata. Omitted fields are left as they are.
type AssignmentInput struct {
	FactoryID               *string `json:"factory_id" validate:"omitempty,min=1"`
	ProductionPriority      *int    `json:"production_priority" validate:"omitempty,min=1,max=10"`
	ScheduledProductionDate *string `json:"scheduled_production_date" validate:"omitempty,datetime=2006-01-02"`
	RequestedShipDate       *string `json:"requested_ship_date" validate:"omitempty,datetime=2006-01-02"`
	SerialNumber            *string `json:"serial_number" validate:"omitempty,min=1,max=100"`
	Comment                 string  `json:"comment" validate:"max=2000"`
}

// UploadInput describes one document attached to an order
type UploadInput struct {
	DocType         models.DocumentType `json:"doc_type" validate:"required"`
	FileName        string              `json:"file_name" validate:"required,max=255"`
	ContentType     string              `json:"content_type"`
	VisibleToDealer bool                `json:"visible_to_dealer"`
	Body            io.Reader           `json:"-" validate:"required"`
}

// OrderService runs the order pipeline
type OrderService struct {
	db            *database.Database
	orders        *repository.OrderRepository
	history       *repository.HistoryRepository
	media         *repository.MediaRepository
	catalog       *repository.CatalogRepository
	outbox        *repository.OutboxRepository
	notifications NotificationSink
	store         storage.Store
	bestEffort    *FireAndForget
	logger        logger.Logger
}

// OrderDeps groups the collaborators of OrderService
type OrderDeps struct {
	DB            *database.Database
	Orders        *repository.OrderRepository
	History       *repository.HistoryRepository
	Media         *repository.MediaRepository
	Catalog       *repository.CatalogRepository
	Outbox        *repository.OutboxRepository
	Notifications NotificationSink
	Store         storage.Store
	BestEffort    *FireAndForget
}

// NewOrderService creates a new OrderService
func NewOrderService(deps OrderDeps, logger logger.Logger) *OrderService {
	return &OrderService{
		db:            deps.DB,
		orders:        deps.Orders,
		history:       deps.History,
		media:         deps.Media,
		catalog:       deps.Catalog,
		outbox:        deps.Outbox,
		notifications: deps.Notifications,
		store:         deps.Store,
		bestEffort:    deps.BestEffort,
		logger:        logger,
	}
}

// CreateOrder places an order for the caller's dealer. The quoted price is the pool
// model's base price at the time of ordering.
func (s *OrderService) CreateOrder(ctx context.Context, id *authz.Identity, in CreateOrderInput) (*models.Order, error) {
	if err := authz.Authorize(id, authz.ActionOrderCreate); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	poolModel, err := s.catalog.GetPoolModel(ctx, in.PoolModelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidationError("unknown pool model")
		}
		return nil, mapRepoError(err, "pool model")
	}
	if !poolModel.IsActive {
		return nil, apperrors.NewValidationError("pool model is not available")
	}

	color, err := s.catalog.GetColor(ctx, in.ColorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidationError("unknown color")
		}
		return nil, mapRepoError(err, "color")
	}
	if !color.IsActive {
		return nil, apperrors.NewValidationError("color is not available")
	}

	order := models.NewOrder(id.DealerID, poolModel.ID, color.ID, poolModel.BasePrice)
	order.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	order.ShippingMethod = in.ShippingMethod
	order.Notes = strings.TrimSpace(in.Notes)
	if in.RequestedShipDate != "" {
		d, _ := time.Parse(dateLayout, in.RequestedShipDate)
		order.RequestedShipDate = &d
	}

	event, err := models.NewOrderCreatedEvent(order, id.UserID)
	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
		return nil, mapRepoError(fmt.Errorf("failed to create outbox message: %w", err), "order")
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		entry := models.NewOrderHistory(order.ID, order.Status, "Order placed", id.UserID)
		if err := s.history.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}
		return s.outbox.WithTx(tx).Create(ctx, event)
	})
	if err != nil {
		return nil, mapRepoError(err, "order")
	}

	metrics.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created", "orderID", order.ID, "dealerID", order.DealerID, "outboxID", event.ID)

	s.bestEffort.Notify(ctx, s.notifications, models.NewNotification(order.DealerID, order.ID,
		"Order received",
		fmt.Sprintf("Order %s for %s in %s was received and is awaiting payment approval.", order.ID, poolModel.Name, color.Name)))

	return order, nil
}

// ListOrders returns orders visible to the caller. Dealers always see only their own.
func (s *OrderService) ListOrders(ctx context.Context, id *authz.Identity, filter repository.OrderFilter) ([]*models.Order, error) {
	if err := authz.Authorize(id, authz.ActionOrderRead); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status filter")
	}
	if dealerID := authz.ScopeDealer(id); dealerID != "" {
		filter.DealerID = dealerID
		filter.FactoryID = ""
	}

	orders, err := s.orders.List(ctx, filter)
	return orders, mapRepoError(err, "order")
}

// GetOrder returns an order with its history and attachments. Dealers see only media
// flagged as dealer-visible.
func (s *OrderService) GetOrder(ctx context.Context, id *authz.Identity, orderID string) (*models.OrderDetail, error) {
	order, err := s.loadOrder(ctx, id, authz.ActionOrderRead, orderID)
	if err != nil {
		return nil, err
	}

	history, err := s.history.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, mapRepoError(err, "order history")
	}

	media, err := s.media.ListByOrder(ctx, order.ID, !id.IsAdmin())
	if err != nil {
		return nil, mapRepoError(err, "order media")
	}

	return &models.OrderDetail{Order: order, History: history, Media: media}, nil
}

// Checklist lists what is still missing before order may enter target
func (s *OrderService) Checklist(ctx context.Context, id *authz.Identity, orderID string, target models.OrderStatus) ([]*workflow.Unmet, error) {
	order, err := s.loadOrder(ctx, id, authz.ActionOrderRead, orderID)
	if err != nil {
		return nil, err
	}
	if _, ok := workflow.RequirementsFor(target); !ok {
		return nil, apperrors.NewValidationError("status cannot be a transition target")
	}

	docs, err := s.media.DocumentTypes(ctx, order.ID)
	if err != nil {
		return nil, mapRepoError(err, "order media")
	}

	missing := workflow.Missing(order, target, docs)
	if missing == nil {
		missing = []*workflow.Unmet{}
	}
	return missing, nil
}

// TransitionStatus moves an order into a new pipeline status. Prerequisites are checked
// against the persisted order inside the transaction, and the write only applies if the
// status is still the one that was read.
func (s *OrderService) TransitionStatus(ctx context.Context, id *authz.Identity, orderID string, in TransitionInput) (*models.Order, error) {
	if err := authz.Authorize(id, authz.ActionOrderTransition); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	return s.transition(ctx, id, authz.ActionOrderTransition, orderID, in.Status, strings.TrimSpace(in.Comment), nil)
}

// CancelOrder lets a dealer withdraw an order that is still awaiting payment approval.
// Admins cancel through TransitionStatus.
func (s *OrderService) CancelOrder(ctx context.Context, id *authz.Identity, orderID, reason string) (*models.Order, error) {
	if err := authz.Authorize(id, authz.ActionOrderCancel); err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(reason)
	if comment == "" {
		comment = "Canceled by dealer"
	}

	guard := func(o *models.Order) error {
		if !id.IsAdmin() && o.Status != models.OrderStatusPendingPaymentApproval {
			return apperrors.NewForbiddenError("orders can only be canceled before payment approval")
		}
		return nil
	}

	return s.transition(ctx, id, authz.ActionOrderCancel, orderID, models.OrderStatusCanceled, comment, guard)
}

func (s *OrderService) transition(
	ctx context.Context,
	id *authz.Identity,
	action authz.Action,
	orderID string,
	target models.OrderStatus,
	comment string,
	guard func(*models.Order) error,
) (*models.Order, error) {
	var (
		order *models.Order
		from  models.OrderStatus
	)

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		orders := s.orders.WithTx(tx)

		o, err := orders.GetByID(ctx, orderID)
		if err != nil {
			return mapRepoError(err, "order")
		}
		if err := authz.AuthorizeTenant(id, action, o.DealerID, "order"); err != nil {
			return err
		}
		if guard != nil {
			if err := guard(o); err != nil {
				return err
			}
		}

		docs, err := s.media.WithTx(tx).DocumentTypes(ctx, o.ID)
		if err != nil {
			return mapRepoError(err, "order media")
		}

		if err := workflow.CheckTransition(o, target, docs); err != nil {
			return transitionError(err)
		}

		now := models.GetCurrentTime()
		if err := orders.UpdateStatus(ctx, o.ID, o.Status, target, now); err != nil {
			return mapRepoError(err, "order")
		}

		from = o.Status
		o.Status = target
		o.UpdatedAt = now

		entry := models.NewOrderHistory(o.ID, target, comment, id.UserID)
		if err := s.history.WithTx(tx).Append(ctx, entry); err != nil {
			return mapRepoError(err, "order history")
		}

		event, err := models.NewOrderStatusChangedEvent(o, from, comment, id.UserID)
		if err != nil {
			return mapRepoError(fmt.Errorf("failed to create outbox message: %w", err), "order")
		}
		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			return mapRepoError(err, "order")
		}

		order = o
		return nil
	})

	if err != nil {
		metrics.OrderTransitionsTotal.WithLabelValues(string(target), outcomeOf(err)).Inc()
		return nil, mapRepoError(err, "order")
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(target), "ok").Inc()
	s.logger.Info("Order status changed",
		"orderID", order.ID,
		"oldStatus", from,
		"newStatus", order.Status,
		"actorID", id.UserID)

	s.bestEffort.Notify(ctx, s.notifications, statusNotification(order, from, comment))

	return order, nil
}

// transitionError maps a state machine rejection to the API taxonomy
func transitionError(err error) error {
	var unmet *workflow.Unmet
	if errors.As(err, &unmet) {
		return apperrors.NewRequirementNotMetError(unmet.Kind, unmet.Name)
	}
	return apperrors.NewValidationError(err.Error())
}

func outcomeOf(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return strings.ToLower(appErr.Code)
	}
	return "error"
}

func statusNotification(order *models.Order, from models.OrderStatus, comment string) *models.Notification {
	title := "Order " + humanStatus(order.Status)
	msg := fmt.Sprintf("Order %s moved from %s to %s.", order.ID, humanStatus(from), humanStatus(order.Status))
	if comment != "" {
		msg += " Note: " + comment
	}
	return models.NewNotification(order.DealerID, order.ID, title, msg)
}

func humanStatus(s models.OrderStatus) string {
	return strings.ToLower(strings.ReplaceAll(string(s), "_", " "))
}

// Annotate appends a comment to the order's history without changing its status
func (s *OrderService) Annotate(ctx context.Context, id *authz.Identity, orderID, comment string) (*models.OrderHistory, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, apperrors.NewValidationError("comment is required")
	}

	order, err := s.loadOrder(ctx, id, authz.ActionOrderAnnotate, orderID)
	if err != nil {
		return nil, err
	}

	entry := models.NewOrderHistory(order.ID, order.Status, comment, id.UserID)
	if err := s.history.Append(ctx, entry); err != nil {
		return nil, mapRepoError(err, "order history")
	}

	return entry, nil
}

// Reassign changes factory and scheduling fields. It bypasses the requirement table and
// records what changed as a history annotation.
func (s *OrderService) Reassign(ctx context.Context, id *authz.Identity, orderID string, in AssignmentInput) (*models.Order, error) {
	if err := authz.Authorize(id, authz.ActionOrderReassign); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	a, changes := assignmentFrom(in)
	if len(changes) == 0 {
		return nil, apperrors.NewValidationError("nothing to change")
	}

	if a.FactoryID != nil {
		factory, err := s.catalog.GetFactory(ctx, *a.FactoryID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewValidationError("unknown factory")
			}
			return nil, mapRepoError(err, "factory")
		}
		if !factory.IsActive {
			return nil, apperrors.NewValidationError("factory is not active")
		}
	}

	var order *models.Order
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		orders := s.orders.WithTx(tx)

		o, err := orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status.Terminal() {
			return apperrors.NewValidationError("order is in a terminal status")
		}

		if err := orders.UpdateAssignment(ctx, o.ID, a, models.GetCurrentTime()); err != nil {
			return err
		}

		comment := "Reassigned: " + strings.Join(changes, ", ")
		if c := strings.TrimSpace(in.Comment); c != "" {
			comment += ". " + c
		}
		if err := s.history.WithTx(tx).Append(ctx, models.NewOrderHistory(o.ID, o.Status, comment, id.UserID)); err != nil {
			return err
		}

		order, err = orders.GetByID(ctx, o.ID)
		return err
	})
	if err != nil {
		return nil, mapRepoError(err, "order")
	}

	s.logger.Info("Order reassigned", "orderID", order.ID, "changes", changes, "actorID", id.UserID)
	return order, nil
}

func assignmentFrom(in AssignmentInput) (repository.Assignment, []string) {
	var (
		a       repository.Assignment
		changes []string
	)

	if in.FactoryID != nil {
		v := strings.TrimSpace(*in.FactoryID)
		a.FactoryID = &v
		changes = append(changes, "factory_id="+v)
	}
	if in.ProductionPriority != nil {
		a.ProductionPriority = in.ProductionPriority
		changes = append(changes, fmt.Sprintf("production_priority=%d", *in.ProductionPriority))
	}
	if in.ScheduledProductionDate != nil {
		d, _ := time.Parse(dateLayout, *in.ScheduledProductionDate)
		a.ScheduledProductionDate = &d
		changes = append(changes, "scheduled_production_date="+*in.ScheduledProductionDate)
	}
	if in.RequestedShipDate != nil {
		d, _ := time.Parse(dateLayout, *in.RequestedShipDate)
		a.RequestedShipDate = &d
		changes = append(changes, "requested_ship_date="+*in.RequestedShipDate)
	}
	if in.SerialNumber != nil {
		v := strings.TrimSpace(*in.SerialNumber)
		a.SerialNumber = &v
		changes = append(changes, "serial_number="+v)
	}

	return a, changes
}

// UploadDocument stores a file and attaches it to an order. Dealers may only upload
// proof of payment, which is always visible to them. A proof of payment upload also
// becomes the order's payment proof reference.
func (s *OrderService) UploadDocument(ctx context.Context, id *authz.Identity, orderID string, in UploadInput) (*models.OrderMedia, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.DocType.Valid() {
		return nil, apperrors.NewValidationError("unknown document type")
	}

	action := authz.ActionOrderUploadAny
	if in.DocType == models.DocProofOfPayment {
		action = authz.ActionOrderUploadPOP
	}

	order, err := s.loadOrder(ctx, id, action, orderID)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() {
		in.VisibleToDealer = true
		if order.Status.Terminal() {
			return nil, apperrors.NewValidationError("order is in a terminal status")
		}
	}

	url, err := s.store.Put(ctx, storage.Key("orders", order.ID, in.FileName), in.ContentType, in.Body)
	if err != nil {
		s.logger.Error("Failed to store order document", "error", err, "orderID", order.ID)
		return nil, apperrors.NewTemporaryError("file storage is unavailable")
	}

	media := &models.OrderMedia{
		ID:              models.GenerateID("med"),
		OrderID:         order.ID,
		URL:             url,
		FileName:        in.FileName,
		DocType:         in.DocType,
		VisibleToDealer: in.VisibleToDealer,
		UploadedBy:      id.UserID,
		CreatedAt:       models.GetCurrentTime(),
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.media.WithTx(tx).Create(ctx, media); err != nil {
			return err
		}
		if in.DocType == models.DocProofOfPayment {
			return s.orders.WithTx(tx).SetPaymentProofURL(ctx, order.ID, url, media.CreatedAt)
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, "order")
	}

	s.logger.Info("Order document uploaded", "orderID", order.ID, "docType", in.DocType, "mediaID", media.ID)
	return media, nil
}

// loadOrder reads an order and checks the caller may perform action on it
func (s *OrderService) loadOrder(ctx context.Context, id *authz.Identity, action authz.Action, orderID string) (*models.Order, error) {
	if err := authz.Authorize(id, action); err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err, "order")
	}

	if err := authz.AuthorizeTenant(id, action, order.DealerID, "order"); err != nil {
		return nil, err
	}
	return order, nil
}
