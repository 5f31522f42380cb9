package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRepositories are the repositories available inside a unit of work.
type TxRepositories struct {
	Challenges    ChallengeRepository
	DailyStats    DailyStatRepository
	Notifications NotificationRepository
}

// UnitOfWork runs a function with transaction-scoped repositories. The breach
// state transition spans three tables and must not be observable half-applied.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos TxRepositories) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a GORM-transaction-backed unit of work.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(repos TxRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(TxRepositories{
			Challenges:    NewChallengeRepository(tx),
			DailyStats:    NewDailyStatRepository(tx),
			Notifications: NewNotificationRepository(tx),
		})
	})
}
