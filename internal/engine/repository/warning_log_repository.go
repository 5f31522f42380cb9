package repository

import (
	"context"

	"fund8r-engine/internal/entity"

	"gorm.io/gorm"
)

// WarningLogRepository defines data operations on the warning dedup log.
type WarningLogRepository interface {
	Exists(ctx context.Context, challengeID int64, warningKey string) (bool, error)
	Create(ctx context.Context, log *entity.WarningLog) error
}

type warningLogRepository struct {
	db *gorm.DB
}

// NewWarningLogRepository creates a new GORM-based warning log repository.
func NewWarningLogRepository(db *gorm.DB) WarningLogRepository {
	return &warningLogRepository{db: db}
}

func (r *warningLogRepository) Exists(ctx context.Context, challengeID int64, warningKey string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.WarningLog{}).
		Where("challenge_id = ? AND warning_key = ?", challengeID, warningKey).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *warningLogRepository) Create(ctx context.Context, log *entity.WarningLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
