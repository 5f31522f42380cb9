package dto

// CreateChallengeRequest provisions a new evaluation attempt after purchase.
type CreateChallengeRequest struct {
	UserID              int64   `json:"user_id"`
	AccountSize         float64 `json:"account_size"`
	MaxDrawdownPercent  float64 `json:"max_drawdown_percent"`
	MaxDailyLossPercent float64 `json:"max_daily_loss_percent"`
	Phase               string  `json:"phase"`
	PlatformLogin       string  `json:"platform_login"`
	PlatformServer      string  `json:"platform_server"`
}

// GetOrdersParam filters the order listing.
type GetOrdersParam struct {
	ChallengeID int64
	Status      *string
}
