package entity

import "time"

// DailyStat is one row per (challenge, calendar date), created lazily on the
// first trade of a new day.
type DailyStat struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	ChallengeID      int64     `gorm:"not null;uniqueIndex:idx_daily_stats_challenge_date" json:"challenge_id"`
	Date             time.Time `gorm:"not null;type:date;uniqueIndex:idx_daily_stats_challenge_date" json:"date"`
	StartingBalance  float64   `gorm:"not null" json:"starting_balance"`
	EndingBalance    float64   `gorm:"not null" json:"ending_balance"`
	DailyProfitLoss  float64   `json:"daily_profit_loss"`
	TradesClosed     int       `json:"trades_closed"`
	DailyLossPercent float64   `json:"daily_loss_percent"`
	Breached         bool      `json:"breached"`
	BreachReason     string    `json:"breach_reason"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DailyStat) TableName() string {
	return "daily_stats"
}
