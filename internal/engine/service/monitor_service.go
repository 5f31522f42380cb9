package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fund8r-engine/internal/engine/dto"
	"fund8r-engine/internal/engine/repository"
	"fund8r-engine/pkg/common"
	"fund8r-engine/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// MonitorService re-checks every active challenge outside the trade path.
// Sweep enqueues one task per challenge; ProcessTask consumes and evaluates.
type MonitorService interface {
	Sweep(ctx context.Context) ([]dto.MonitorSweepResult, error)
	ProcessTask(ctx context.Context)
}

type monitorService struct {
	log           *logger.Logger
	redisClient   *redis.Client
	challengeRepo repository.ChallengeRepository
	ruleSvc       RuleService
	breachSvc     BreachService
	streamMaxLen  int64
}

// NewMonitorService creates a new sweep monitor.
func NewMonitorService(
	log *logger.Logger,
	redisClient *redis.Client,
	challengeRepo repository.ChallengeRepository,
	ruleSvc RuleService,
	breachSvc BreachService,
	streamMaxLen int64,
) MonitorService {
	return &monitorService{
		log:           log,
		redisClient:   redisClient,
		challengeRepo: challengeRepo,
		ruleSvc:       ruleSvc,
		breachSvc:     breachSvc,
		streamMaxLen:  streamMaxLen,
	}
}

// Sweep publishes every active challenge to the monitor stream.
func (s *monitorService) Sweep(ctx context.Context) ([]dto.MonitorSweepResult, error) {
	challenges, err := s.challengeRepo.FindActive(ctx)
	if err != nil {
		s.log.Error("Failed to load active challenges", logger.ErrorField(err))
		return nil, err
	}

	var results []dto.MonitorSweepResult
	for _, challenge := range challenges {
		result := dto.MonitorSweepResult{ChallengeID: challenge.ID}

		payload, err := json.Marshal(dto.StreamDataChallengeMonitor{ChallengeID: challenge.ID})
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		if err := s.redisClient.XAdd(ctx, &redis.XAddArgs{
			Stream: common.RedisStreamChallengeMonitor,
			MaxLen: s.streamMaxLen,
			Values: map[string]interface{}{"payload": payload},
		}).Err(); err != nil {
			s.log.Error("Failed to enqueue challenge monitor task",
				logger.ErrorField(err), logger.Field("challenge_id", challenge.ID))
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		result.Success = true
		results = append(results, result)
	}

	s.log.Info("Monitor sweep enqueued", logger.IntField("challenges", len(results)))
	return results, nil
}

// ProcessTask consumes one monitor task from the stream and evaluates the
// challenge the same way the synchronous trade path does.
func (s *monitorService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamChallengeMonitor, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		// Expected during shutdown or when the stream is idle.
		if errors.Is(err, context.Canceled) || errors.Is(err, redis.Nil) {
			return
		}
		s.log.Error("Failed to read from monitor stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]

	taskData, ok := message.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message",
			logger.Field("message_id", message.ID))
		s.ackNDel(ctx, message.ID)
		return
	}

	var streamData dto.StreamDataChallengeMonitor
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		s.log.Error("Failed to unmarshal monitor task",
			logger.ErrorField(err), logger.Field("message_id", message.ID))
		s.ackNDel(ctx, message.ID)
		return
	}

	if err := s.evaluate(ctx, streamData.ChallengeID); err != nil {
		s.log.Error("Failed to evaluate challenge",
			logger.ErrorField(err),
			logger.Field("challenge_id", streamData.ChallengeID),
			logger.Field("message_id", message.ID))
		return
	}

	s.ackNDel(ctx, message.ID)
}

func (s *monitorService) evaluate(ctx context.Context, challengeID int64) error {
	challenge, err := s.challengeRepo.FindByID(ctx, challengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Deleted between sweep and consume; nothing to check.
		return nil
	}
	if err != nil {
		return err
	}
	if !challenge.IsActive() {
		return nil
	}

	breach, err := s.ruleSvc.Evaluate(ctx, challenge)
	if err != nil {
		return err
	}
	if breach == nil {
		return nil
	}

	return s.breachSvc.HandleBreach(ctx, challenge, breach.Reason, breach.Details)
}

func (s *monitorService) ackNDel(ctx context.Context, messageID string) {
	if err := s.redisClient.XAck(ctx, common.RedisStreamChallengeMonitor, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to ack monitor task", logger.ErrorField(err), logger.Field("message_id", messageID))
		return
	}
	if err := s.redisClient.XDel(ctx, common.RedisStreamChallengeMonitor, messageID).Err(); err != nil {
		s.log.Error("Failed to delete monitor task", logger.ErrorField(err), logger.Field("message_id", messageID))
	}
}
