package repository

import (
	"context"

	"fund8r-engine/internal/entity"

	"gorm.io/gorm"
)

// ChallengeRepository defines data operations on challenges.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *entity.Challenge) error
	FindByID(ctx context.Context, id int64) (*entity.Challenge, error)
	FindActive(ctx context.Context) ([]entity.Challenge, error)
	// Save writes the full row. Balance fields can legitimately be zero or
	// negative, so a partial struct update would silently drop them.
	Save(ctx context.Context, challenge *entity.Challenge) error
}

type challengeRepository struct {
	db *gorm.DB
}

// NewChallengeRepository creates a new GORM-based challenge repository.
func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *entity.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

// FindByID loads a challenge with the owning user joined in, so callers have
// the contact fields needed for notifications.
func (r *challengeRepository) FindByID(ctx context.Context, id int64) (*entity.Challenge, error) {
	var challenge entity.Challenge
	if err := r.db.WithContext(ctx).Preload("User").First(&challenge, id).Error; err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) FindActive(ctx context.Context) ([]entity.Challenge, error) {
	var challenges []entity.Challenge
	if err := r.db.WithContext(ctx).Preload("User").
		Where("status = ?", entity.ChallengeStatusActive).
		Find(&challenges).Error; err != nil {
		return nil, err
	}
	return challenges, nil
}

func (r *challengeRepository) Save(ctx context.Context, challenge *entity.Challenge) error {
	return r.db.WithContext(ctx).Omit("User").Save(challenge).Error
}
