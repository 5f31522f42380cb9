package dto

import "time"

// SubmitTradeRequest is a fully closed trade reported for a challenge.
type SubmitTradeRequest struct {
	Symbol     string    `json:"symbol"`
	OrderType  string    `json:"order_type"`
	LotSize    float64   `json:"lot_size"`
	OpenPrice  float64   `json:"open_price"`
	ClosePrice float64   `json:"close_price"`
	OpenTime   time.Time `json:"open_time"`
	CloseTime  time.Time `json:"close_time"`
}

// OpenPositionRequest opens a running position on a challenge.
type OpenPositionRequest struct {
	Symbol    string    `json:"symbol"`
	OrderType string    `json:"order_type"`
	LotSize   float64   `json:"lot_size"`
	OpenPrice float64   `json:"open_price"`
	OpenTime  time.Time `json:"open_time"`
}

// ClosePositionRequest closes a previously opened position.
type ClosePositionRequest struct {
	ClosePrice float64   `json:"close_price"`
	CloseTime  time.Time `json:"close_time"`
}

// TradeResult reports the outcome of applying a closed trade.
type TradeResult struct {
	OrderID        int64   `json:"order_id"`
	ProfitLoss     float64 `json:"profit_loss"`
	CurrentBalance float64 `json:"current_balance"`
	CurrentProfit  float64 `json:"current_profit"`
	Breached       bool    `json:"breached"`
	BreachReason   string  `json:"breach_reason,omitempty"`
	BreachDetails  string  `json:"breach_details,omitempty"`
}

// BreachResult is the first rule violation found by the evaluator, nil when
// all checks pass.
type BreachResult struct {
	Reason  string `json:"reason"`
	Details string `json:"details"`
}
