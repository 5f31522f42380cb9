package entity

import "time"

// ChallengePhase is the evaluation stage of a challenge.
type ChallengePhase string

const (
	PhaseOne    ChallengePhase = "phase1"
	PhaseTwo    ChallengePhase = "phase2"
	PhaseFunded ChallengePhase = "funded"
)

// ChallengeStatus is the lifecycle state of a challenge. Both passed and
// breached are terminal.
type ChallengeStatus string

const (
	ChallengeStatusActive   ChallengeStatus = "active"
	ChallengeStatusPassed   ChallengeStatus = "passed"
	ChallengeStatusBreached ChallengeStatus = "breached"
)

// Challenge is one user's purchased evaluation attempt.
type Challenge struct {
	ID                     int64           `gorm:"primaryKey" json:"id"`
	UserID                 int64           `gorm:"not null;index" json:"user_id"`
	AccountSize            float64         `gorm:"not null" json:"account_size"`
	CurrentBalance         float64         `gorm:"not null" json:"current_balance"`
	CurrentProfit          float64         `json:"current_profit"`
	HighestBalance         float64         `gorm:"not null" json:"highest_balance"`
	MaxDrawdownPercent     float64         `gorm:"not null" json:"max_drawdown_percent"`
	MaxDailyLossPercent    float64         `gorm:"not null" json:"max_daily_loss_percent"`
	CurrentDrawdownPercent float64         `json:"current_drawdown_percent"`
	Phase                  ChallengePhase  `gorm:"not null;default:phase1" json:"phase"`
	Status                 ChallengeStatus `gorm:"not null;default:active;index" json:"status"`
	PlatformLogin          string          `json:"platform_login"`
	PlatformServer         string          `json:"platform_server"`
	StartDate              time.Time       `gorm:"not null" json:"start_date"`
	EndDate                *time.Time      `json:"end_date"`
	Notes                  string          `json:"notes"`
	CreatedAt              time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	User                   User            `gorm:"foreignKey:UserID" json:"user"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// IsActive reports whether the challenge can still accept trades.
func (c *Challenge) IsActive() bool {
	return c.Status == ChallengeStatusActive
}
