package entity

import (
	"time"

	"gorm.io/datatypes"
)

type OrderType string

const (
	OrderTypeBuy  OrderType = "buy"
	OrderTypeSell OrderType = "sell"
)

type OrderStatus string

const (
	OrderStatusOpen   OrderStatus = "open"
	OrderStatusClosed OrderStatus = "closed"
)

// Order is one executed trade. Closed orders are immutable.
type Order struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	ChallengeID int64          `gorm:"not null;index" json:"challenge_id"`
	Symbol      string         `gorm:"not null" json:"symbol"`
	OrderType   OrderType      `gorm:"not null" json:"order_type"`
	LotSize     float64        `gorm:"not null" json:"lot_size"`
	OpenPrice   float64        `gorm:"not null" json:"open_price"`
	ClosePrice  *float64       `json:"close_price"`
	OpenTime    time.Time      `gorm:"not null" json:"open_time"`
	CloseTime   *time.Time     `json:"close_time"`
	ProfitLoss  float64        `json:"profit_loss"`
	Status      OrderStatus    `gorm:"not null;default:open;index" json:"status"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}
