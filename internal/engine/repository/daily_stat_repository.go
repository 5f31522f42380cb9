package repository

import (
	"context"
	"errors"
	"time"

	"fund8r-engine/internal/entity"

	"gorm.io/gorm"
)

// DailyStatRepository defines data operations on per-day challenge stats.
type DailyStatRepository interface {
	Create(ctx context.Context, stat *entity.DailyStat) error
	// FindByChallengeAndDate returns (nil, nil) when no row exists for the day.
	FindByChallengeAndDate(ctx context.Context, challengeID int64, date time.Time) (*entity.DailyStat, error)
	// FindLatestBefore returns the most recent stat strictly before date, or
	// (nil, nil) when the challenge has no prior trading day.
	FindLatestBefore(ctx context.Context, challengeID int64, date time.Time) (*entity.DailyStat, error)
	FindByChallenge(ctx context.Context, challengeID int64) ([]entity.DailyStat, error)
	CountByChallenge(ctx context.Context, challengeID int64) (int64, error)
	Save(ctx context.Context, stat *entity.DailyStat) error
}

type dailyStatRepository struct {
	db *gorm.DB
}

// NewDailyStatRepository creates a new GORM-based daily stat repository.
func NewDailyStatRepository(db *gorm.DB) DailyStatRepository {
	return &dailyStatRepository{db: db}
}

func (r *dailyStatRepository) Create(ctx context.Context, stat *entity.DailyStat) error {
	return r.db.WithContext(ctx).Create(stat).Error
}

func (r *dailyStatRepository) FindByChallengeAndDate(ctx context.Context, challengeID int64, date time.Time) (*entity.DailyStat, error) {
	var stat entity.DailyStat
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND date = ?", challengeID, date).
		First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

func (r *dailyStatRepository) FindLatestBefore(ctx context.Context, challengeID int64, date time.Time) (*entity.DailyStat, error) {
	var stat entity.DailyStat
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND date < ?", challengeID, date).
		Order("date DESC").
		First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

func (r *dailyStatRepository) FindByChallenge(ctx context.Context, challengeID int64) ([]entity.DailyStat, error) {
	var stats []entity.DailyStat
	if err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("date ASC").
		Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *dailyStatRepository) CountByChallenge(ctx context.Context, challengeID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DailyStat{}).
		Where("challenge_id = ?", challengeID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *dailyStatRepository) Save(ctx context.Context, stat *entity.DailyStat) error {
	return r.db.WithContext(ctx).Save(stat).Error
}
