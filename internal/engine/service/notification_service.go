package service

import (
	"context"

	"fund8r-engine/internal/engine/repository"
	"fund8r-engine/internal/entity"
	"fund8r-engine/pkg/logger"
)

// NotificationService is the read/ack surface for in-app notifications.
type NotificationService interface {
	List(ctx context.Context, userID int64, unreadOnly bool) ([]entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

type notificationService struct {
	log              *logger.Logger
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new notification service.
func NewNotificationService(log *logger.Logger, notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{log: log, notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, userID int64, unreadOnly bool) ([]entity.Notification, error) {
	return s.notificationRepo.FindByUser(ctx, userID, unreadOnly)
}

func (s *notificationService) MarkRead(ctx context.Context, id int64) error {
	return s.notificationRepo.MarkRead(ctx, id)
}
