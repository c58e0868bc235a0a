package service

import (
	"context"

	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/models"
	"github.com/vaidashi/pool-dealer-portal/internal/repository"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
)

// OutboxService exposes the event relay backlog to admins. Failed messages are the dead
// letters; requeueing gives them a fresh attempt budget.
type OutboxService struct {
	outbox *repository.OutboxRepository
	logger logger.Logger
}

// NewOutboxService creates a new OutboxService
func NewOutboxService(outbox *repository.OutboxRepository, logger logger.Logger) *OutboxService {
	return &OutboxService{outbox: outbox, logger: logger}
}

// Counts returns the number of messages in each status
func (s *OutboxService) Counts(ctx context.Context, id *authz.Identity) (map[models.OutboxStatus]int, error) {
	if err := authz.Authorize(id, authz.ActionOutboxManage); err != nil {
		return nil, err
	}
	counts, err := s.outbox.CountByStatus(ctx)
	return counts, mapRepoError(err, "outbox message")
}

// Requeue returns failed messages to the processor
func (s *OutboxService) Requeue(ctx context.Context, id *authz.Identity) (int, error) {
	if err := authz.Authorize(id, authz.ActionOutboxManage); err != nil {
		return 0, err
	}

	n, err := s.outbox.Requeue(ctx)
	if err != nil {
		return 0, mapRepoError(err, "outbox message")
	}

	s.logger.Info("Requeued failed outbox messages", "count", n, "actorID", id.UserID)
	return n, nil
}
