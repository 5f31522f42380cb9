package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fund8r-engine/internal/engine/config"
	"fund8r-engine/internal/engine/delivery/consumer"
	delivery "fund8r-engine/internal/engine/delivery/http"
	"fund8r-engine/internal/engine/repository"
	"fund8r-engine/internal/engine/service"
	"fund8r-engine/pkg/common"
	"fund8r-engine/pkg/logger"
	"fund8r-engine/pkg/mailer"
	"fund8r-engine/pkg/postgres"
	"fund8r-engine/pkg/redis"
	"fund8r-engine/pkg/telegram"
	"fund8r-engine/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the challenge engine service",
	Run:   runServe,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Enqueues a one-off monitor sweep over all active challenges",
	Run:   runSweep,
}

type app struct {
	cfg          *config.Config
	logger       *logger.Logger
	db           *postgres.DB
	redisClient  *redis.Client
	tradeSvc     service.TradeService
	challengeSvc service.ChallengeService
	notifySvc    service.NotificationService
	monitorSvc   service.MonitorService
}

func buildApp() *app {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}

	mailSender, err := mailer.NewSMTPSender(mailer.Config{
		Host:              cfg.SMTP.Host,
		Port:              cfg.SMTP.Port,
		Username:          cfg.SMTP.Username,
		Password:          cfg.SMTP.Password,
		FromAddress:       cfg.SMTP.FromAddress,
		FromName:          cfg.SMTP.FromName,
		MaxSendsPerMinute: cfg.SMTP.MaxSendsPerMinute,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize mail sender", logger.ErrorField(err))
	}

	opsNotifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
	}

	challengeRepo := repository.NewChallengeRepository(db.DB)
	orderRepo := repository.NewOrderRepository(db.DB)
	dailyStatRepo := repository.NewDailyStatRepository(db.DB)
	warningLogRepo := repository.NewWarningLogRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	userRepo := repository.NewUserRepository(db.DB)
	uow := repository.NewUnitOfWork(db.DB)

	clock := utils.RealClock{}

	warningSvc := service.NewWarningService(appLogger, warningLogRepo, notificationRepo, mailSender, clock, cfg.Engine.DashboardBaseURL)
	breachSvc := service.NewBreachService(appLogger, uow, dailyStatRepo, mailSender, opsNotifier, clock, cfg.Engine.ResetOfferBaseURL)
	ruleSvc := service.NewRuleService(appLogger, challengeRepo, dailyStatRepo, orderRepo, warningSvc, clock)
	tradeSvc := service.NewTradeService(appLogger, challengeRepo, orderRepo, dailyStatRepo, ruleSvc, breachSvc, clock)
	challengeSvc := service.NewChallengeService(appLogger, challengeRepo, dailyStatRepo, orderRepo, userRepo, clock)
	notifySvc := service.NewNotificationService(appLogger, notificationRepo)
	monitorSvc := service.NewMonitorService(appLogger, redisClient.Client, challengeRepo, ruleSvc, breachSvc, cfg.Redis.StreamMaxLen)

	return &app{
		cfg:          cfg,
		logger:       appLogger,
		db:           db,
		redisClient:  redisClient,
		tradeSvc:     tradeSvc,
		challengeSvc: challengeSvc,
		notifySvc:    notifySvc,
		monitorSvc:   monitorSvc,
	}
}

func (a *app) close() {
	if sqlDB, err := a.db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.redisClient.Close()
	_ = a.logger.Sync()
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := buildApp()
	defer a.close()

	a.logger.Info("Starting Challenge Engine Service", logger.StringField("name", a.cfg.App.Name))

	// MKSTREAM creates the stream if it doesn't exist.
	if err := a.redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamChallengeMonitor, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			a.logger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	redisConsumer := consumer.NewRedisConsumer(a.cfg, a.monitorSvc, a.logger)
	redisConsumer.Start(ctx)

	cronRunner := cron.New()
	monitorCron := a.cfg.Engine.MonitorCron
	if monitorCron == "" {
		monitorCron = "*/5 * * * *"
	}
	if _, err := cronRunner.AddFunc(monitorCron, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := a.monitorSvc.Sweep(sweepCtx); err != nil {
			a.logger.Error("Monitor sweep failed", logger.ErrorField(err))
		}
	}); err != nil {
		a.logger.Fatal("Invalid monitor cron expression", logger.ErrorField(err))
	}
	cronRunner.Start()

	e := echo.New()
	e.HideBanner = true

	apiV1 := e.Group("/api/v1")

	challengeHandler := delivery.NewChallengeHandler(a.challengeSvc, a.logger)
	challengesGroup := apiV1.Group("/challenges")
	challengeHandler.RegisterRoutes(challengesGroup)

	tradeHandler := delivery.NewTradeHandler(a.tradeSvc, a.logger)
	tradeHandler.RegisterRoutes(challengesGroup)

	notificationHandler := delivery.NewNotificationHandler(a.notifySvc, a.logger)
	notificationHandler.RegisterRoutes(apiV1)

	go func() {
		addr := fmt.Sprintf("%s:%d", a.cfg.API.Host, a.cfg.API.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			a.logger.Fatal("Failed to start HTTP server", logger.ErrorField(err))
		}
	}()

	a.logger.Info("Challenge engine started. Waiting for trades...")

	<-ctx.Done()

	a.logger.Info("Shutting down challenge engine...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", logger.ErrorField(err))
	}

	cronStopCtx := cronRunner.Stop()
	<-cronStopCtx.Done()

	redisConsumer.Stop()
	a.logger.Info("Challenge engine stopped.")
}

func runSweep(cmd *cobra.Command, args []string) {
	a := buildApp()
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	results, err := a.monitorSvc.Sweep(ctx)
	if err != nil {
		a.logger.Fatal("Monitor sweep failed", logger.ErrorField(err))
	}
	a.logger.Info("Monitor sweep complete", logger.IntField("challenges", len(results)))
}

func main() {
	rootCmd := &cobra.Command{Use: "engine-service"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-engine.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, sweepCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing engine-service CLI: %s\n", err)
		os.Exit(1)
	}
}
