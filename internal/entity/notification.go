package entity

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationTypeBreach  NotificationType = "breach"
	NotificationTypeWarning NotificationType = "warning"
)

// Notification is a user-facing in-app record.
type Notification struct {
	ID          int64            `gorm:"primaryKey" json:"id"`
	UserID      int64            `gorm:"not null;index" json:"user_id"`
	ChallengeID int64            `gorm:"not null;index" json:"challenge_id"`
	Type        NotificationType `gorm:"not null" json:"type"`
	Title       string           `gorm:"not null" json:"title"`
	Message     string           `gorm:"not null" json:"message"`
	ActionURL   string           `json:"action_url"`
	Read        bool             `gorm:"not null;default:false" json:"read"`
	Data        datatypes.JSON   `gorm:"type:jsonb" json:"data"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
