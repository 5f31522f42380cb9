package repository

import (
	"context"

	"fund8r-engine/internal/entity"

	"gorm.io/gorm"
)

// NotificationRepository defines data operations on user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	FindByUser(ctx context.Context, userID int64, unreadOnly bool) ([]entity.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new GORM-based notification repository.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) FindByUser(ctx context.Context, userID int64, unreadOnly bool) ([]entity.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}

	var notifications []entity.Notification
	if err := q.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&entity.Notification{}).
		Where("id = ?", id).
		Update("read", true).Error
}
