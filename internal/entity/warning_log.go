package entity

import "time"

// WarningLog deduplicates rule warnings. The (challenge_id, warning_key) pair
// guarantees each threshold crossing notifies the user at most once; daily-loss
// keys embed the calendar date so they re-arm each day.
type WarningLog struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	ChallengeID      int64     `gorm:"not null;uniqueIndex:idx_warning_logs_challenge_key" json:"challenge_id"`
	WarningKey       string    `gorm:"not null;uniqueIndex:idx_warning_logs_challenge_key" json:"warning_key"`
	WarningType      string    `gorm:"not null" json:"warning_type"`
	ThresholdPercent int       `gorm:"not null" json:"threshold_percent"`
	SentAt           time.Time `gorm:"not null" json:"sent_at"`
}

func (WarningLog) TableName() string {
	return "warning_logs"
}
