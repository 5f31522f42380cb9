package service

import (
	"context"
	"errors"
	"testing"

	"fund8r-engine/internal/entity"
	"fund8r-engine/pkg/mailer"
	"fund8r-engine/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleBreach_TerminalTransition(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 6, 5, entity.PhaseOne)
	challenge.CurrentBalance = 9390
	challenge.CurrentProfit = -610
	require.NoError(t, e.challengeRepo.Save(context.Background(), challenge))

	err := e.breachSvc.HandleBreach(context.Background(), challenge, ReasonMaxDrawdown, "Balance $9390.00 reached the breach point $9400.00 (6.00% maximum drawdown).")
	require.NoError(t, err)

	stored := e.challengeRepo.get(challenge.ID)
	assert.Equal(t, entity.ChallengeStatusBreached, stored.Status)
	require.NotNil(t, stored.EndDate)
	assert.Equal(t, testNow, *stored.EndDate)
	assert.Contains(t, stored.Notes, ReasonMaxDrawdown)
}

func TestHandleBreach_CreatesDailyStatWhenNoneToday(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 6, 5, entity.PhaseOne)

	require.NoError(t, e.breachSvc.HandleBreach(context.Background(), challenge, ReasonMaxDrawdown, "details"))

	stat, err := e.dailyStatRepo.FindByChallengeAndDate(context.Background(), challenge.ID, utils.BeginningOfDay(testNow))
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.True(t, stat.Breached)
	assert.Equal(t, ReasonMaxDrawdown, stat.BreachReason)
}

func TestHandleBreach_StampsExistingDailyStat(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 6, 5, entity.PhaseOne)
	require.NoError(t, e.dailyStatRepo.Create(context.Background(), &entity.DailyStat{
		ChallengeID:     challenge.ID,
		Date:            utils.BeginningOfDay(testNow),
		StartingBalance: 10000,
		EndingBalance:   9500,
		TradesClosed:    3,
	}))

	require.NoError(t, e.breachSvc.HandleBreach(context.Background(), challenge, ReasonDailyLoss, "details"))

	stats, err := e.dailyStatRepo.FindByChallenge(context.Background(), challenge.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.True(t, stats[0].Breached)
	assert.Equal(t, ReasonDailyLoss, stats[0].BreachReason)
	assert.Equal(t, 3, stats[0].TradesClosed)
}

func TestHandleBreach_EmailPayload(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 6, 5, entity.PhaseOne)
	challenge.CurrentBalance = 9390
	challenge.CurrentProfit = -610
	challenge.CurrentDrawdownPercent = 6.1
	require.NoError(t, e.challengeRepo.Save(context.Background(), challenge))
	require.NoError(t, e.dailyStatRepo.Create(context.Background(), &entity.DailyStat{
		ChallengeID: challenge.ID,
		Date:        utils.BeginningOfDay(testNow.AddDate(0, 0, -1)),
	}))

	require.NoError(t, e.breachSvc.HandleBreach(context.Background(), challenge, ReasonMaxDrawdown, "details"))

	mails := e.mailSender.byTemplate(mailer.TemplateAccountBreached)
	require.Len(t, mails, 1)
	assert.Equal(t, "trader@example.com", mails[0].To)
	assert.Equal(t, "Ada", mails[0].Data["FirstName"])
	assert.Equal(t, 9390.0, mails[0].Data["FinalBalance"])
	assert.Equal(t, -610.0, mails[0].Data["TotalProfitLoss"])
	// Yesterday's stat plus the one created during the breach.
	assert.Equal(t, int64(2), mails[0].Data["TradingDays"])
	assert.Equal(t, "https://app.example/reset-offer", mails[0].Data["ResetOfferURL"])
}

func TestHandleBreach_NotificationCarriesResetOffer(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 6, 5, entity.PhaseOne)

	require.NoError(t, e.breachSvc.HandleBreach(context.Background(), challenge, ReasonLotSize, "details"))

	notifications, err := e.notificationRepo.FindByUser(context.Background(), challenge.UserID, true)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, entity.NotificationTypeBreach, notifications[0].Type)
	assert.Equal(t, "https://app.example/reset-offer", notifications[0].ActionURL)
}

func TestHandleBreach_DeliveryFailuresDoNotUnwind(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 6, 5, entity.PhaseOne)
	e.mailSender.err = errors.New("smtp down")
	e.opsNotifier.err = errors.New("telegram down")

	require.NoError(t, e.breachSvc.HandleBreach(context.Background(), challenge, ReasonMaxDrawdown, "details"))

	stored := e.challengeRepo.get(challenge.ID)
	assert.Equal(t, entity.ChallengeStatusBreached, stored.Status)
}

func TestHandleBreach_TransactionFailurePropagates(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 6, 5, entity.PhaseOne)
	e.challengeRepo.saveErr = errors.New("connection reset")
	e.rewire()

	err := e.breachSvc.HandleBreach(context.Background(), challenge, ReasonMaxDrawdown, "details")
	require.Error(t, err)
	assert.Empty(t, e.mailSender.sent)
	assert.Empty(t, e.opsNotifier.messages)
}
