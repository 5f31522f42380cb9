package service

import (
	"context"
	"errors"
	"fmt"

	"fund8r-engine/internal/engine/dto"
	"fund8r-engine/internal/engine/repository"
	"fund8r-engine/internal/entity"
	"fund8r-engine/pkg/logger"
	"fund8r-engine/pkg/utils"

	"gorm.io/gorm"
)

// ChallengeService is the CRUD surface for challenges.
type ChallengeService interface {
	Create(ctx context.Context, req *dto.CreateChallengeRequest) (*entity.Challenge, error)
	GetByID(ctx context.Context, id int64) (*entity.Challenge, error)
	GetDailyStats(ctx context.Context, challengeID int64) ([]entity.DailyStat, error)
	GetOrders(ctx context.Context, param dto.GetOrdersParam) ([]entity.Order, error)
}

type challengeService struct {
	log           *logger.Logger
	challengeRepo repository.ChallengeRepository
	dailyStatRepo repository.DailyStatRepository
	orderRepo     repository.OrderRepository
	userRepo      repository.UserRepository
	clock         utils.Clock
}

// NewChallengeService creates a new challenge service.
func NewChallengeService(
	log *logger.Logger,
	challengeRepo repository.ChallengeRepository,
	dailyStatRepo repository.DailyStatRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	clock utils.Clock,
) ChallengeService {
	return &challengeService{
		log:           log,
		challengeRepo: challengeRepo,
		dailyStatRepo: dailyStatRepo,
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		clock:         clock,
	}
}

// Create provisions a challenge with its balances seeded from the purchased
// account size.
func (s *challengeService) Create(ctx context.Context, req *dto.CreateChallengeRequest) (*entity.Challenge, error) {
	if req.AccountSize <= 0 {
		return nil, fmt.Errorf("account_size must be positive")
	}
	if req.MaxDrawdownPercent <= 0 || req.MaxDailyLossPercent <= 0 {
		return nil, fmt.Errorf("risk limits must be positive")
	}

	if _, err := s.userRepo.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	phase := entity.ChallengePhase(req.Phase)
	switch phase {
	case entity.PhaseOne, entity.PhaseTwo, entity.PhaseFunded:
	case "":
		phase = entity.PhaseOne
	default:
		return nil, fmt.Errorf("invalid phase: %s", req.Phase)
	}

	challenge := &entity.Challenge{
		UserID:              req.UserID,
		AccountSize:         req.AccountSize,
		CurrentBalance:      req.AccountSize,
		HighestBalance:      req.AccountSize,
		MaxDrawdownPercent:  req.MaxDrawdownPercent,
		MaxDailyLossPercent: req.MaxDailyLossPercent,
		Phase:               phase,
		Status:              entity.ChallengeStatusActive,
		PlatformLogin:       req.PlatformLogin,
		PlatformServer:      req.PlatformServer,
		StartDate:           s.clock.Now(),
	}
	if err := s.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	s.log.Info("Challenge created",
		logger.Field("challenge_id", challenge.ID),
		logger.Field("user_id", challenge.UserID),
		logger.Float64Field("account_size", challenge.AccountSize))

	return challenge, nil
}

func (s *challengeService) GetByID(ctx context.Context, id int64) (*entity.Challenge, error) {
	challenge, err := s.challengeRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

func (s *challengeService) GetDailyStats(ctx context.Context, challengeID int64) ([]entity.DailyStat, error) {
	return s.dailyStatRepo.FindByChallenge(ctx, challengeID)
}

func (s *challengeService) GetOrders(ctx context.Context, param dto.GetOrdersParam) ([]entity.Order, error) {
	return s.orderRepo.Get(ctx, param)
}
