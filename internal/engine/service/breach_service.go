package service

import (
	"context"
	"fmt"

	"fund8r-engine/internal/engine/repository"
	"fund8r-engine/internal/entity"
	"fund8r-engine/pkg/logger"
	"fund8r-engine/pkg/mailer"
	"fund8r-engine/pkg/telegram"
	"fund8r-engine/pkg/utils"
)

// BreachService performs the terminal breached transition and the user/ops
// notifications that follow it.
type BreachService interface {
	HandleBreach(ctx context.Context, challenge *entity.Challenge, reason, details string) error
}

type breachService struct {
	log           *logger.Logger
	uow           repository.UnitOfWork
	dailyStatRepo repository.DailyStatRepository
	mailSender    mailer.Sender
	opsNotifier   telegram.Notifier
	clock         utils.Clock
	resetOfferURL string
}

// NewBreachService creates a new breach handler.
func NewBreachService(
	log *logger.Logger,
	uow repository.UnitOfWork,
	dailyStatRepo repository.DailyStatRepository,
	mailSender mailer.Sender,
	opsNotifier telegram.Notifier,
	clock utils.Clock,
	resetOfferURL string,
) BreachService {
	return &breachService{
		log:           log,
		uow:           uow,
		dailyStatRepo: dailyStatRepo,
		mailSender:    mailSender,
		opsNotifier:   opsNotifier,
		clock:         clock,
		resetOfferURL: resetOfferURL,
	}
}

// HandleBreach marks the challenge breached, stamps today's stat, and inserts
// the user notification in one transaction. Email and the ops alert are
// dispatched after commit, best-effort: a delivery failure never unwinds the
// state transition.
func (s *breachService) HandleBreach(ctx context.Context, challenge *entity.Challenge, reason, details string) error {
	now := s.clock.Now()
	today := utils.BeginningOfDay(now)

	err := s.uow.Do(ctx, func(repos repository.TxRepositories) error {
		challenge.Status = entity.ChallengeStatusBreached
		challenge.EndDate = &now
		challenge.Notes = fmt.Sprintf("%s: %s", reason, details)
		if err := repos.Challenges.Save(ctx, challenge); err != nil {
			return fmt.Errorf("failed to mark challenge breached: %w", err)
		}

		stat, err := repos.DailyStats.FindByChallengeAndDate(ctx, challenge.ID, today)
		if err != nil {
			return fmt.Errorf("failed to load daily stat: %w", err)
		}
		if stat == nil {
			// Breach found by the sweep before any trade landed today.
			stat = &entity.DailyStat{
				ChallengeID:     challenge.ID,
				Date:            today,
				StartingBalance: challenge.CurrentBalance,
				EndingBalance:   challenge.CurrentBalance,
			}
		}
		stat.Breached = true
		stat.BreachReason = reason
		if err := repos.DailyStats.Save(ctx, stat); err != nil {
			return fmt.Errorf("failed to mark daily stat breached: %w", err)
		}

		notification := &entity.Notification{
			UserID:      challenge.UserID,
			ChallengeID: challenge.ID,
			Type:        entity.NotificationTypeBreach,
			Title:       "Challenge Breached",
			Message:     fmt.Sprintf("%s. %s", reason, details),
			ActionURL:   s.resetOfferURL,
		}
		if err := repos.Notifications.Create(ctx, notification); err != nil {
			return fmt.Errorf("failed to insert breach notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Challenge breached",
		logger.Field("challenge_id", challenge.ID),
		logger.StringField("reason", reason),
		logger.Float64Field("final_balance", challenge.CurrentBalance))

	s.sendBreachEmail(ctx, challenge, reason, details)

	if err := s.opsNotifier.SendMessage(telegram.FormatBreachAlert(
		challenge.ID, challenge.User.Email, reason, details, challenge.CurrentBalance, now)); err != nil {
		s.log.Error("Failed to send breach ops alert",
			logger.ErrorField(err), logger.Field("challenge_id", challenge.ID))
	}

	return nil
}

func (s *breachService) sendBreachEmail(ctx context.Context, challenge *entity.Challenge, reason, details string) {
	tradingDays, err := s.dailyStatRepo.CountByChallenge(ctx, challenge.ID)
	if err != nil {
		s.log.Error("Failed to count trading days",
			logger.ErrorField(err), logger.Field("challenge_id", challenge.ID))
	}

	if err := s.mailSender.Send(ctx, challenge.User.Email, mailer.TemplateAccountBreached, map[string]interface{}{
		"FirstName":          challenge.User.FirstName,
		"AccountSize":        challenge.AccountSize,
		"Reason":             reason,
		"Details":            details,
		"FinalBalance":       challenge.CurrentBalance,
		"TotalProfitLoss":    challenge.CurrentProfit,
		"MaxDrawdownReached": challenge.CurrentDrawdownPercent,
		"TradingDays":        tradingDays,
		"ResetOfferURL":      s.resetOfferURL,
	}); err != nil {
		s.log.Error("Failed to send breach email",
			logger.ErrorField(err), logger.Field("challenge_id", challenge.ID))
	}
}
