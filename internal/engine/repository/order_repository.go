package repository

import (
	"context"
	"fmt"
	"strings"

	"fund8r-engine/internal/engine/dto"
	"fund8r-engine/internal/entity"

	"gorm.io/gorm"
)

// OrderRepository defines data operations on orders.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id int64) (*entity.Order, error)
	Get(ctx context.Context, param dto.GetOrdersParam) ([]entity.Order, error)
	FindOpenByChallenge(ctx context.Context, challengeID int64) ([]entity.Order, error)
	Save(ctx context.Context, order *entity.Order) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new GORM-based order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	var order entity.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Get(ctx context.Context, param dto.GetOrdersParam) ([]entity.Order, error) {
	qFilter := []string{}
	qFilterParam := []interface{}{}

	if param.ChallengeID != 0 {
		qFilter = append(qFilter, "challenge_id = ?")
		qFilterParam = append(qFilterParam, param.ChallengeID)
	}

	if param.Status != nil {
		qFilter = append(qFilter, "status = ?")
		qFilterParam = append(qFilterParam, *param.Status)
	}

	if len(qFilter) == 0 {
		return nil, fmt.Errorf("no filter provided")
	}

	var orders []entity.Order
	if err := r.db.WithContext(ctx).
		Where(strings.Join(qFilter, " AND "), qFilterParam...).
		Order("open_time DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindOpenByChallenge(ctx context.Context, challengeID int64) ([]entity.Order, error) {
	var orders []entity.Order
	if err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND status = ?", challengeID, entity.OrderStatusOpen).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) Save(ctx context.Context, order *entity.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}
