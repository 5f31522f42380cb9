package service

import (
	"context"
	"fmt"
	"time"

	"fund8r-engine/internal/engine/repository"
	"fund8r-engine/internal/entity"
	"fund8r-engine/pkg/logger"
	"fund8r-engine/pkg/mailer"
	"fund8r-engine/pkg/utils"

	"github.com/patrickmn/go-cache"
)

// WarningService fires idempotent threshold warnings before a hard breach.
type WarningService interface {
	Send(ctx context.Context, challenge *entity.Challenge, warningType, warningKey string, currentValue, limitValue float64, thresholdPercent int) error
}

type warningService struct {
	log              *logger.Logger
	memo             *cache.Cache
	warningLogRepo   repository.WarningLogRepository
	notificationRepo repository.NotificationRepository
	mailSender       mailer.Sender
	clock            utils.Clock
	dashboardURL     string
}

// NewWarningService creates a new warning notifier.
func NewWarningService(
	log *logger.Logger,
	warningLogRepo repository.WarningLogRepository,
	notificationRepo repository.NotificationRepository,
	mailSender mailer.Sender,
	clock utils.Clock,
	dashboardURL string,
) WarningService {
	return &warningService{
		log:              log,
		memo:             cache.New(12*time.Hour, time.Hour),
		warningLogRepo:   warningLogRepo,
		notificationRepo: notificationRepo,
		mailSender:       mailSender,
		clock:            clock,
		dashboardURL:     dashboardURL,
	}
}

// Send notifies the user once per (challenge, warning_key). The persisted
// warning log is the source of truth; the in-process memo only saves a lookup
// on repeated evaluations within the same process.
func (s *warningService) Send(ctx context.Context, challenge *entity.Challenge, warningType, warningKey string, currentValue, limitValue float64, thresholdPercent int) error {
	memoKey := fmt.Sprintf("%d:%s", challenge.ID, warningKey)
	if _, found := s.memo.Get(memoKey); found {
		return nil
	}

	sent, err := s.warningLogRepo.Exists(ctx, challenge.ID, warningKey)
	if err != nil {
		return fmt.Errorf("failed to check warning log: %w", err)
	}
	if sent {
		s.memo.SetDefault(memoKey, true)
		return nil
	}

	severity := warningSeverity(thresholdPercent)

	if err := s.mailSender.Send(ctx, challenge.User.Email, mailer.TemplateRuleWarning, map[string]interface{}{
		"FirstName":        challenge.User.FirstName,
		"WarningType":      warningType,
		"Severity":         severity,
		"CurrentValue":     currentValue,
		"LimitValue":       limitValue,
		"ThresholdPercent": thresholdPercent,
		"DashboardURL":     s.dashboardURL,
	}); err != nil {
		s.log.Error("Failed to send warning email",
			logger.ErrorField(err),
			logger.Field("challenge_id", challenge.ID),
			logger.StringField("warning_key", warningKey))
	}

	notification := &entity.Notification{
		UserID:      challenge.UserID,
		ChallengeID: challenge.ID,
		Type:        entity.NotificationTypeWarning,
		Title:       fmt.Sprintf("%s Warning", warningType),
		Message: fmt.Sprintf("Your account has used %d%% of its %s limit (%.2f%% of %.2f%%).",
			thresholdPercent, warningType, currentValue, limitValue),
		ActionURL: s.dashboardURL,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.log.Error("Failed to insert warning notification",
			logger.ErrorField(err),
			logger.Field("challenge_id", challenge.ID),
			logger.StringField("warning_key", warningKey))
	}

	if err := s.warningLogRepo.Create(ctx, &entity.WarningLog{
		ChallengeID:      challenge.ID,
		WarningKey:       warningKey,
		WarningType:      warningType,
		ThresholdPercent: thresholdPercent,
		SentAt:           s.clock.Now(),
	}); err != nil {
		return fmt.Errorf("failed to record warning log: %w", err)
	}

	s.memo.SetDefault(memoKey, true)

	s.log.Info("Rule warning sent",
		logger.Field("challenge_id", challenge.ID),
		logger.StringField("warning_key", warningKey),
		logger.StringField("severity", severity))

	return nil
}

// warningSeverity tags a threshold for the email template.
func warningSeverity(thresholdPercent int) string {
	switch {
	case thresholdPercent < 75:
		return "low"
	case thresholdPercent < 90:
		return "medium"
	default:
		return "high"
	}
}
