package service

import (
	"context"
	"fmt"
	"time"

	"fund8r-engine/internal/engine/dto"
	"fund8r-engine/internal/engine/repository"
	"fund8r-engine/internal/entity"
	"fund8r-engine/pkg/logger"
	"fund8r-engine/pkg/utils"
)

// RuleService evaluates the challenge rule set against current state and
// reports the first breach found. Check order is drawdown, daily loss, lot
// size; the ordering is an implementation detail, not a business rule.
type RuleService interface {
	Evaluate(ctx context.Context, challenge *entity.Challenge) (*dto.BreachResult, error)
}

type ruleService struct {
	log           *logger.Logger
	challengeRepo repository.ChallengeRepository
	dailyStatRepo repository.DailyStatRepository
	orderRepo     repository.OrderRepository
	warningSvc    WarningService
	clock         utils.Clock
}

// NewRuleService creates a new rule evaluator.
func NewRuleService(
	log *logger.Logger,
	challengeRepo repository.ChallengeRepository,
	dailyStatRepo repository.DailyStatRepository,
	orderRepo repository.OrderRepository,
	warningSvc WarningService,
	clock utils.Clock,
) RuleService {
	return &ruleService{
		log:           log,
		challengeRepo: challengeRepo,
		dailyStatRepo: dailyStatRepo,
		orderRepo:     orderRepo,
		warningSvc:    warningSvc,
		clock:         clock,
	}
}

// Evaluate runs the independent rule checks and returns the first breach.
// Each check persists its observability metric whether or not it breaches.
func (s *ruleService) Evaluate(ctx context.Context, challenge *entity.Challenge) (*dto.BreachResult, error) {
	if !challenge.IsActive() {
		return nil, nil
	}

	breach, err := s.checkDrawdown(ctx, challenge)
	if err != nil || breach != nil {
		return breach, err
	}

	breach, err = s.checkDailyLoss(ctx, challenge)
	if err != nil || breach != nil {
		return breach, err
	}

	return s.checkLotSize(ctx, challenge)
}

func (s *ruleService) checkDrawdown(ctx context.Context, challenge *entity.Challenge) (*dto.BreachResult, error) {
	reference := DrawdownReference(challenge)
	breachPoint := reference * (1 - challenge.MaxDrawdownPercent/100)

	// The persisted percentage always uses account_size as denominator, even
	// for funded accounts where the breach decision trails highest_balance.
	if challenge.AccountSize > 0 {
		challenge.CurrentDrawdownPercent = (challenge.AccountSize - challenge.CurrentBalance) / challenge.AccountSize * 100
	}
	if err := s.challengeRepo.Save(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to persist drawdown percent: %w", err)
	}

	if challenge.CurrentBalance <= breachPoint {
		return &dto.BreachResult{
			Reason: ReasonMaxDrawdown,
			Details: fmt.Sprintf("Balance $%.2f reached the breach point $%.2f (%.2f%% maximum drawdown).",
				challenge.CurrentBalance, breachPoint, challenge.MaxDrawdownPercent),
		}, nil
	}

	if reference <= 0 || challenge.MaxDrawdownPercent <= 0 {
		return nil, nil
	}

	drawdownPercent := (reference - challenge.CurrentBalance) / reference * 100
	limitUsed := drawdownPercent / challenge.MaxDrawdownPercent * 100
	for _, threshold := range warningThresholds {
		if limitUsed >= float64(threshold) {
			warningKey := fmt.Sprintf("drawdown_%d", threshold)
			if err := s.warningSvc.Send(ctx, challenge, WarningTypeDrawdown, warningKey,
				drawdownPercent, challenge.MaxDrawdownPercent, threshold); err != nil {
				s.log.Error("Failed to send drawdown warning",
					logger.ErrorField(err),
					logger.Field("challenge_id", challenge.ID),
					logger.StringField("warning_key", warningKey))
			}
			break
		}
	}

	return nil, nil
}

func (s *ruleService) checkDailyLoss(ctx context.Context, challenge *entity.Challenge) (*dto.BreachResult, error) {
	stat, err := loadOrCreateDailyStat(ctx, s.dailyStatRepo, challenge, s.clock.Now())
	if err != nil {
		return nil, err
	}

	lossPercent := 0.0
	if stat.StartingBalance > 0 {
		lossPercent = (stat.StartingBalance - stat.EndingBalance) / stat.StartingBalance * 100
	}
	if lossPercent < 0 {
		// A gain is not a loss.
		lossPercent = 0
	}

	stat.DailyLossPercent = lossPercent
	if err := s.dailyStatRepo.Save(ctx, stat); err != nil {
		return nil, fmt.Errorf("failed to persist daily loss percent: %w", err)
	}

	if challenge.MaxDailyLossPercent > 0 && lossPercent >= challenge.MaxDailyLossPercent {
		return &dto.BreachResult{
			Reason: ReasonDailyLoss,
			Details: fmt.Sprintf("Daily loss of %.2f%% reached the %.2f%% daily limit (started at $%.2f, now $%.2f).",
				lossPercent, challenge.MaxDailyLossPercent, stat.StartingBalance, stat.EndingBalance),
		}, nil
	}

	if challenge.MaxDailyLossPercent <= 0 {
		return nil, nil
	}

	limitUsed := lossPercent / challenge.MaxDailyLossPercent * 100
	for _, threshold := range warningThresholds {
		if limitUsed >= float64(threshold) {
			// Keyed by date so the warning re-arms each calendar day.
			warningKey := fmt.Sprintf("daily_loss_%d_%s", threshold, utils.DateKey(stat.Date))
			if err := s.warningSvc.Send(ctx, challenge, WarningTypeDailyLoss, warningKey,
				lossPercent, challenge.MaxDailyLossPercent, threshold); err != nil {
				s.log.Error("Failed to send daily loss warning",
					logger.ErrorField(err),
					logger.Field("challenge_id", challenge.ID),
					logger.StringField("warning_key", warningKey))
			}
			break
		}
	}

	return nil, nil
}

func (s *ruleService) checkLotSize(ctx context.Context, challenge *entity.Challenge) (*dto.BreachResult, error) {
	maxLot := MaxLotSize(challenge.AccountSize)

	openOrders, err := s.orderRepo.FindOpenByChallenge(ctx, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open positions: %w", err)
	}

	for _, order := range openOrders {
		if order.LotSize > maxLot {
			return &dto.BreachResult{
				Reason: ReasonLotSize,
				Details: fmt.Sprintf("Open %s position on %s has lot size %.2f, above the %.2f maximum for a $%.0f account.",
					order.OrderType, order.Symbol, order.LotSize, maxLot, challenge.AccountSize),
			}, nil
		}
	}

	return nil, nil
}

// loadOrCreateDailyStat returns today's stat row, creating it lazily with the
// starting balance seeded from the previous trading day (or the account size
// when the challenge has no history).
func loadOrCreateDailyStat(ctx context.Context, repo repository.DailyStatRepository, challenge *entity.Challenge, now time.Time) (*entity.DailyStat, error) {
	today := utils.BeginningOfDay(now)

	stat, err := repo.FindByChallengeAndDate(ctx, challenge.ID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily stat: %w", err)
	}
	if stat != nil {
		return stat, nil
	}

	previous, err := repo.FindLatestBefore(ctx, challenge.ID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous daily stat: %w", err)
	}

	startingBalance := challenge.AccountSize
	if previous != nil {
		startingBalance = previous.EndingBalance
	}

	stat = &entity.DailyStat{
		ChallengeID:     challenge.ID,
		Date:            today,
		StartingBalance: startingBalance,
		EndingBalance:   challenge.CurrentBalance,
	}
	if err := repo.Create(ctx, stat); err != nil {
		return nil, fmt.Errorf("failed to create daily stat: %w", err)
	}
	return stat, nil
}
