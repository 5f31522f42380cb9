package service

import (
	"context"
	"testing"
	"time"

	"fund8r-engine/internal/engine/dto"
	"fund8r-engine/internal/entity"
	"fund8r-engine/pkg/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func closedTrade(orderType string, lotSize, openPrice, closePrice float64) dto.SubmitTradeRequest {
	return dto.SubmitTradeRequest{
		Symbol:     "EURUSD",
		OrderType:  orderType,
		LotSize:    lotSize,
		OpenPrice:  openPrice,
		ClosePrice: closePrice,
		OpenTime:   testNow.Add(-time.Hour),
		CloseTime:  testNow,
	}
}

func TestCalcProfitLoss(t *testing.T) {
	testCases := []struct {
		name       string
		orderType  entity.OrderType
		openPrice  float64
		closePrice float64
		lotSize    float64
		expected   float64
	}{
		{"buy gain", entity.OrderTypeBuy, 1.1000, 1.1050, 1.0, 500},
		{"buy loss", entity.OrderTypeBuy, 1.1000, 1.0950, 1.0, -500},
		{"sell gain", entity.OrderTypeSell, 1.1000, 1.0950, 1.0, 500},
		{"sell loss", entity.OrderTypeSell, 1.1000, 1.1050, 1.0, -500},
		{"half lot", entity.OrderTypeBuy, 1.1000, 1.1050, 0.5, 250},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalcProfitLoss(tc.orderType, tc.openPrice, tc.closePrice, tc.lotSize)
			assert.InDelta(t, tc.expected, got, 1e-9)
		})
	}
}

func TestSubmitTrade_UpdatesBalances(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 12, 8, entity.PhaseOne)

	result, err := e.tradeSvc.SubmitTrade(context.Background(), challenge.ID, closedTrade("buy", 1.0, 1.1000, 1.1030))
	require.NoError(t, err)

	assert.InDelta(t, 300, result.ProfitLoss, 1e-9)
	assert.InDelta(t, 10300, result.CurrentBalance, 1e-9)
	assert.False(t, result.Breached)

	stored := e.challengeRepo.get(challenge.ID)
	assert.InDelta(t, 10300, stored.CurrentBalance, 1e-9)
	assert.InDelta(t, 300, stored.CurrentProfit, 1e-9)
	assert.InDelta(t, 10300, stored.HighestBalance, 1e-9)
}

func TestSubmitTrade_BalanceEqualsAccountSizePlusPnL(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 50, 50, entity.PhaseOne)

	trades := []dto.SubmitTradeRequest{
		closedTrade("buy", 1.0, 1.1000, 1.1025),  // +250
		closedTrade("sell", 0.5, 1.1025, 1.1075), // -250
		closedTrade("buy", 2.0, 1.1075, 1.1095),  // +400
	}

	var total float64
	for _, trade := range trades {
		result, err := e.tradeSvc.SubmitTrade(context.Background(), challenge.ID, trade)
		require.NoError(t, err)
		total += result.ProfitLoss
	}

	stored := e.challengeRepo.get(challenge.ID)
	assert.InDelta(t, 10000+total, stored.CurrentBalance, 1e-9)
	assert.InDelta(t, total, stored.CurrentProfit, 1e-9)
}

func TestSubmitTrade_UnknownChallenge(t *testing.T) {
	e := newTestEngine(testNow)

	_, err := e.tradeSvc.SubmitTrade(context.Background(), 42, closedTrade("buy", 1.0, 1.1, 1.2))
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestSubmitTrade_InvalidOrderType(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 6, 3, entity.PhaseOne)

	_, err := e.tradeSvc.SubmitTrade(context.Background(), challenge.ID, closedTrade("straddle", 1.0, 1.1, 1.2))
	assert.ErrorIs(t, err, ErrInvalidOrderType)
}

func TestSubmitTrade_DrawdownBreach(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 6, 50, entity.PhaseOne)

	// -610 drops the balance to 9390, through the 9400 breach point.
	result, err := e.tradeSvc.SubmitTrade(context.Background(), challenge.ID, closedTrade("buy", 1.0, 1.1000, 1.0939))
	require.NoError(t, err)

	assert.True(t, result.Breached)
	assert.Equal(t, ReasonMaxDrawdown, result.BreachReason)

	stored := e.challengeRepo.get(challenge.ID)
	assert.Equal(t, entity.ChallengeStatusBreached, stored.Status)
	require.NotNil(t, stored.EndDate)
	assert.True(t, stored.EndDate.Equal(testNow))

	breachMails := e.mailSender.byTemplate(mailer.TemplateAccountBreached)
	require.Len(t, breachMails, 1)
	assert.Equal(t, "trader@example.com", breachMails[0].To)
	assert.Equal(t, ReasonMaxDrawdown, breachMails[0].Data["Reason"])

	require.Len(t, e.notificationRepo.notifications, 1)
	assert.Equal(t, entity.NotificationTypeBreach, e.notificationRepo.notifications[0].Type)

	require.Len(t, e.opsNotifier.messages, 1)
}

func TestSubmitTrade_RejectedAfterBreach(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 6, 50, entity.PhaseOne)

	result, err := e.tradeSvc.SubmitTrade(context.Background(), challenge.ID, closedTrade("buy", 1.0, 1.1000, 1.0930))
	require.NoError(t, err)
	require.True(t, result.Breached)

	balanceAfterBreach := e.challengeRepo.get(challenge.ID).CurrentBalance

	_, err = e.tradeSvc.SubmitTrade(context.Background(), challenge.ID, closedTrade("buy", 1.0, 1.1000, 1.2000))
	assert.ErrorIs(t, err, ErrChallengeNotActive)

	// The rejected trade must not move the balance.
	assert.InDelta(t, balanceAfterBreach, e.challengeRepo.get(challenge.ID).CurrentBalance, 1e-9)
}

func TestSubmitTrade_DailyLossBreach(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 12, 3, entity.PhaseOne)

	// -350 is a 3.5% daily loss against the 3% limit.
	result, err := e.tradeSvc.SubmitTrade(context.Background(), challenge.ID, closedTrade("buy", 1.0, 1.1000, 1.0965))
	require.NoError(t, err)

	assert.True(t, result.Breached)
	assert.Equal(t, ReasonDailyLoss, result.BreachReason)

	stats, err := e.dailyStatRepo.FindByChallenge(context.Background(), challenge.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.True(t, stats[0].Breached)
	assert.Equal(t, ReasonDailyLoss, stats[0].BreachReason)
	assert.InDelta(t, 3.5, stats[0].DailyLossPercent, 1e-9)
}

func TestSubmitTrade_DailyLossWarningOnly(t *testing.T) {
	e := newTestEngine(testNow)
	// 3.5% loss against a 5% limit is 70% of the limit: warn, don't breach.
	challenge := e.seedChallenge(10000, 12, 5, entity.PhaseOne)

	result, err := e.tradeSvc.SubmitTrade(context.Background(), challenge.ID, closedTrade("buy", 1.0, 1.1000, 1.0965))
	require.NoError(t, err)

	assert.False(t, result.Breached)
	assert.Equal(t, entity.ChallengeStatusActive, e.challengeRepo.get(challenge.ID).Status)

	warnMails := e.mailSender.byTemplate(mailer.TemplateRuleWarning)
	require.Len(t, warnMails, 1)
	assert.Equal(t, WarningTypeDailyLoss, warnMails[0].Data["WarningType"])
	assert.Equal(t, 50, warnMails[0].Data["ThresholdPercent"])
}

func TestSubmitTrade_DailyStatRollsOverFromPreviousDay(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 50, 50, entity.PhaseOne)

	_, err := e.tradeSvc.SubmitTrade(context.Background(), challenge.ID, closedTrade("buy", 1.0, 1.1000, 1.1050))
	require.NoError(t, err)

	// Next calendar day: starting balance carries over from yesterday's close.
	nextDay := newTestEngine(testNow.Add(24 * time.Hour))
	nextDay.challengeRepo = e.challengeRepo
	nextDay.dailyStatRepo = e.dailyStatRepo
	nextDay.rewire()

	_, err = nextDay.tradeSvc.SubmitTrade(context.Background(), challenge.ID, closedTrade("buy", 1.0, 1.1000, 1.0990))
	require.NoError(t, err)

	stats, err := e.dailyStatRepo.FindByChallenge(context.Background(), challenge.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	var today *entity.DailyStat
	for i := range stats {
		if stats[i].TradesClosed == 1 && stats[i].StartingBalance == 10500 {
			today = &stats[i]
		}
	}
	require.NotNil(t, today, "expected a second-day stat seeded from the prior close")
	assert.InDelta(t, 10400, today.EndingBalance, 1e-9)
}

func TestOpenPosition_LotSizeBreach(t *testing.T) {
	e := newTestEngine(testNow)
	// $25,000 account caps positions at 2.5 lots.
	challenge := e.seedChallenge(25000, 10, 5, entity.PhaseOne)

	order, err := e.tradeSvc.OpenPosition(context.Background(), challenge.ID, dto.OpenPositionRequest{
		Symbol:    "GBPUSD",
		OrderType: "buy",
		LotSize:   3.0,
		OpenPrice: 1.2500,
	})
	require.NoError(t, err)
	require.NotZero(t, order.ID)

	stored := e.challengeRepo.get(challenge.ID)
	assert.Equal(t, entity.ChallengeStatusBreached, stored.Status)

	breachMails := e.mailSender.byTemplate(mailer.TemplateAccountBreached)
	require.Len(t, breachMails, 1)
	assert.Equal(t, ReasonLotSize, breachMails[0].Data["Reason"])
}

func TestClosePosition_FlowsThroughIngestion(t *testing.T) {
	e := newTestEngine(testNow)
	challenge := e.seedChallenge(10000, 50, 50, entity.PhaseOne)

	order, err := e.tradeSvc.OpenPosition(context.Background(), challenge.ID, dto.OpenPositionRequest{
		Symbol:    "EURUSD",
		OrderType: "sell",
		LotSize:   1.0,
		OpenPrice: 1.1000,
	})
	require.NoError(t, err)

	result, err := e.tradeSvc.ClosePosition(context.Background(), challenge.ID, order.ID, dto.ClosePositionRequest{
		ClosePrice: 1.0950,
	})
	require.NoError(t, err)

	assert.InDelta(t, 500, result.ProfitLoss, 1e-9)
	assert.InDelta(t, 10500, e.challengeRepo.get(challenge.ID).CurrentBalance, 1e-9)

	closed, err := e.orderRepo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusClosed, closed.Status)

	// A second close on the same order is rejected.
	_, err = e.tradeSvc.ClosePosition(context.Background(), challenge.ID, order.ID, dto.ClosePositionRequest{ClosePrice: 1.0900})
	assert.ErrorIs(t, err, ErrOrderNotOpen)
}
