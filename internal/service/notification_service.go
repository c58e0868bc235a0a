package service

import (
	"context"

	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// NotificationService lets dealers read their notifications
type NotificationService struct {
	notifications *repository.NotificationRepository
	logger        logger.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notifications *repository.NotificationRepository, logger logger.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger}
}

// List returns the caller's notifications and their unread count
func (s *NotificationService) List(ctx context.Context, id *authz.Identity, unreadOnly bool, limit, offset int) ([]*models.Notification, int, error) {
	if err := authz.Authorize(id, authz.ActionNotifications); err != nil {
		return nil, 0, err
	}

	list, err := s.notifications.ListByDealer(ctx, id.DealerID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, mapRepoError(err, "notification")
	}

	unread, err := s.notifications.CountUnread(ctx, id.DealerID)
	if err != nil {
		return nil, 0, mapRepoError(err, "notification")
	}
	return list, unread, nil
}

// MarkRead flags one of the caller's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, id *authz.Identity, notificationID string) (*models.Notification, error) {
	if err := authz.Authorize(id, authz.ActionNotifications); err != nil {
		return nil, err
	}

	n, err := s.notifications.GetByID(ctx, notificationID)
	if err != nil {
		return nil, mapRepoError(err, "notification")
	}
	if err := authz.AuthorizeTenant(id, authz.ActionNotifications, n.DealerID, "notification"); err != nil {
		return nil, err
	}

	if err := s.notifications.MarkRead(ctx, n.ID); err != nil {
		return nil, mapRepoError(err, "notification")
	}
	n.IsRead = true
	return n, nil
}

// MarkAllRead flags every unread notification of the caller and returns how many changed
func (s *NotificationService) MarkAllRead(ctx context.Context, id *authz.Identity) (int, error) {
	if err := authz.Authorize(id, authz.ActionNotifications); err != nil {
		return 0, err
	}

	n, err := s.notifications.MarkAllRead(ctx, id.DealerID)
	if err != nil {
		return 0, mapRepoError(err, "notification")
	}

	s.logger.Debug("Notifications marked read", "dealerID", id.DealerID, "count", n)
	return n, nil
}
