package consumer

import (
	"context"
	"sync"
	"time"

	"fund8r-engine/internal/engine/config"
	"fund8r-engine/internal/engine/service"
	"fund8r-engine/pkg/common"
	"fund8r-engine/pkg/logger"
	"fund8r-engine/pkg/utils"
)

// RedisConsumer manages the consumption of monitor tasks from the Redis
// stream.
type RedisConsumer struct {
	cfg        *config.Config
	monitorSvc service.MonitorService
	logger     *logger.Logger
	stopChan   chan struct{}
	wg         sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(cfg *config.Config, monitorSvc service.MonitorService, log *logger.Logger) *RedisConsumer {
	return &RedisConsumer{
		cfg:        cfg,
		monitorSvc: monitorSvc,
		logger:     log,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the consumer's task processing loop.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")
	c.registerStreamHandler(ctx, c.monitorSvc.ProcessTask, common.RedisStreamChallengeMonitor, c.cfg.Engine.MonitorStreamTimeout)
}

func (c *RedisConsumer) registerStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	c.logger.Info("Registering stream handler", logger.StringField("stream", streamName))
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
