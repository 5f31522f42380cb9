package repository

import (
	"context"

	"fund8r-engine/internal/entity"

	"gorm.io/gorm"
)

// UserRepository defines data operations on users.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new GORM-based user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
