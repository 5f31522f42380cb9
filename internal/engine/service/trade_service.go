package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fund8r-engine/internal/engine/dto"
	"fund8r-engine/internal/engine/repository"
	"fund8r-engine/internal/entity"
	"fund8r-engine/pkg/logger"
	"fund8r-engine/pkg/utils"

	"gorm.io/gorm"
)

// TradeService ingests trades for a challenge and drives rule evaluation
// after every write.
type TradeService interface {
	SubmitTrade(ctx context.Context, challengeID int64, req dto.SubmitTradeRequest) (*dto.TradeResult, error)
	OpenPosition(ctx context.Context, challengeID int64, req dto.OpenPositionRequest) (*entity.Order, error)
	ClosePosition(ctx context.Context, challengeID, orderID int64, req dto.ClosePositionRequest) (*dto.TradeResult, error)
}

type tradeService struct {
	log           *logger.Logger
	challengeRepo repository.ChallengeRepository
	orderRepo     repository.OrderRepository
	dailyStatRepo repository.DailyStatRepository
	ruleSvc       RuleService
	breachSvc     BreachService
	clock         utils.Clock
	locks         keyedMutex
}

// NewTradeService creates a new trade ingestion service.
func NewTradeService(
	log *logger.Logger,
	challengeRepo repository.ChallengeRepository,
	orderRepo repository.OrderRepository,
	dailyStatRepo repository.DailyStatRepository,
	ruleSvc RuleService,
	breachSvc BreachService,
	clock utils.Clock,
) TradeService {
	return &tradeService{
		log:           log,
		challengeRepo: challengeRepo,
		orderRepo:     orderRepo,
		dailyStatRepo: dailyStatRepo,
		ruleSvc:       ruleSvc,
		breachSvc:     breachSvc,
		clock:         clock,
	}
}

// SubmitTrade applies a closed trade: persists the order, updates the running
// balance and today's stat, then runs the rule evaluator. Trades on
// non-active challenges are rejected so nothing is written after a breach.
func (s *tradeService) SubmitTrade(ctx context.Context, challengeID int64, req dto.SubmitTradeRequest) (*dto.TradeResult, error) {
	orderType, err := parseOrderType(req.OrderType)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(challengeID)
	defer unlock()

	challenge, err := s.loadActiveChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	profitLoss := CalcProfitLoss(orderType, req.OpenPrice, req.ClosePrice, req.LotSize)

	order := &entity.Order{
		ChallengeID: challengeID,
		Symbol:      req.Symbol,
		OrderType:   orderType,
		LotSize:     req.LotSize,
		OpenPrice:   req.OpenPrice,
		ClosePrice:  utils.ToPointer(req.ClosePrice),
		OpenTime:    req.OpenTime,
		CloseTime:   utils.ToPointer(req.CloseTime),
		ProfitLoss:  profitLoss,
		Status:      entity.OrderStatusClosed,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	return s.applyClosedTrade(ctx, challenge, order)
}

// OpenPosition records a running position. It does not move the balance, but
// the evaluator runs so an oversized lot breaches immediately.
func (s *tradeService) OpenPosition(ctx context.Context, challengeID int64, req dto.OpenPositionRequest) (*entity.Order, error) {
	orderType, err := parseOrderType(req.OrderType)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(challengeID)
	defer unlock()

	challenge, err := s.loadActiveChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	openTime := req.OpenTime
	if openTime.IsZero() {
		openTime = s.clock.Now()
	}

	order := &entity.Order{
		ChallengeID: challengeID,
		Symbol:      req.Symbol,
		OrderType:   orderType,
		LotSize:     req.LotSize,
		OpenPrice:   req.OpenPrice,
		OpenTime:    openTime,
		Status:      entity.OrderStatusOpen,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	s.evaluateAndHandle(ctx, challenge)

	return order, nil
}

// ClosePosition closes an open position, computing P&L by the same pip model
// as SubmitTrade and flowing through the same balance update path.
func (s *tradeService) ClosePosition(ctx context.Context, challengeID, orderID int64, req dto.ClosePositionRequest) (*dto.TradeResult, error) {
	unlock := s.locks.lock(challengeID)
	defer unlock()

	challenge, err := s.loadActiveChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.ChallengeID != challengeID {
		return nil, ErrOrderNotFound
	}
	if order.Status != entity.OrderStatusOpen {
		return nil, ErrOrderNotOpen
	}

	closeTime := req.CloseTime
	if closeTime.IsZero() {
		closeTime = s.clock.Now()
	}

	order.ClosePrice = utils.ToPointer(req.ClosePrice)
	order.CloseTime = utils.ToPointer(closeTime)
	order.ProfitLoss = CalcProfitLoss(order.OrderType, order.OpenPrice, req.ClosePrice, order.LotSize)
	order.Status = entity.OrderStatusClosed
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to close order: %w", err)
	}

	return s.applyClosedTrade(ctx, challenge, order)
}

// applyClosedTrade updates the challenge running totals and today's stat,
// then evaluates the rules against the refreshed state.
func (s *tradeService) applyClosedTrade(ctx context.Context, challenge *entity.Challenge, order *entity.Order) (*dto.TradeResult, error) {
	stat, err := loadOrCreateDailyStat(ctx, s.dailyStatRepo, challenge, s.clock.Now())
	if err != nil {
		return nil, err
	}

	challenge.CurrentBalance += order.ProfitLoss
	challenge.CurrentProfit = challenge.CurrentBalance - challenge.AccountSize
	if challenge.CurrentBalance > challenge.HighestBalance {
		challenge.HighestBalance = challenge.CurrentBalance
	}
	if err := s.challengeRepo.Save(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to update challenge balance: %w", err)
	}

	stat.EndingBalance = challenge.CurrentBalance
	stat.DailyProfitLoss = stat.EndingBalance - stat.StartingBalance
	stat.TradesClosed++
	lossPercent := 0.0
	if stat.StartingBalance > 0 {
		lossPercent = (stat.StartingBalance - stat.EndingBalance) / stat.StartingBalance * 100
	}
	if lossPercent < 0 {
		lossPercent = 0
	}
	stat.DailyLossPercent = lossPercent
	if err := s.dailyStatRepo.Save(ctx, stat); err != nil {
		return nil, fmt.Errorf("failed to update daily stat: %w", err)
	}

	result := &dto.TradeResult{
		OrderID:        order.ID,
		ProfitLoss:     order.ProfitLoss,
		CurrentBalance: challenge.CurrentBalance,
		CurrentProfit:  challenge.CurrentProfit,
	}

	if breach := s.evaluateAndHandle(ctx, challenge); breach != nil {
		result.Breached = true
		result.BreachReason = breach.Reason
		result.BreachDetails = breach.Details
	}

	return result, nil
}

// evaluateAndHandle runs the rule evaluator and, on breach, the breach
// handler. Evaluator and handler failures are logged, not propagated: the
// trade itself has already been accepted.
func (s *tradeService) evaluateAndHandle(ctx context.Context, challenge *entity.Challenge) *dto.BreachResult {
	breach, err := s.ruleSvc.Evaluate(ctx, challenge)
	if err != nil {
		s.log.Error("Rule evaluation failed",
			logger.ErrorField(err), logger.Field("challenge_id", challenge.ID))
		return nil
	}
	if breach == nil {
		return nil
	}

	if err := s.breachSvc.HandleBreach(ctx, challenge, breach.Reason, breach.Details); err != nil {
		s.log.Error("Breach handling failed",
			logger.ErrorField(err), logger.Field("challenge_id", challenge.ID))
	}
	return breach
}

func (s *tradeService) loadActiveChallenge(ctx context.Context, challengeID int64) (*entity.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}
	if !challenge.IsActive() {
		return nil, ErrChallengeNotActive
	}
	return challenge, nil
}

func parseOrderType(orderType string) (entity.OrderType, error) {
	switch entity.OrderType(orderType) {
	case entity.OrderTypeBuy, entity.OrderTypeSell:
		return entity.OrderType(orderType), nil
	default:
		return "", ErrInvalidOrderType
	}
}

// keyedMutex serializes trade writes per challenge. Concurrent submissions
// for the same challenge would otherwise race on the read-update-write of the
// running balance.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (k *keyedMutex) lock(id int64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*sync.Mutex)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
