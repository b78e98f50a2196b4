package main

import (
	"context"
	"log"

	"golang-signal-scryper/internal/scanner/config"
	"golang-signal-scryper/internal/scanner/notifier"
	"golang-signal-scryper/internal/scanner/repository"
	"golang-signal-scryper/internal/scanner/service"
	"golang-signal-scryper/pkg/common"
	"golang-signal-scryper/pkg/logger"
	"golang-signal-scryper/pkg/postgres"
	"golang-signal-scryper/pkg/redis"
	"golang-signal-scryper/pkg/telegram"
)

// app holds the wired scanner components shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *logger.Logger
	db     *postgres.DB
	redis  *redis.Client

	configService  service.ConfigService
	accountService service.AccountService
	scanService    service.ScanService
	requestService service.ScanRequestService

	closers []func() error
}

func newApp(ctx context.Context, configPath string) *app {
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
	for _, stream := range []string{common.RedisStreamScanRequest} {
		if err := redisClient.EnsureGroup(ctx, stream, common.RedisStreamGroup); err != nil {
			appLogger.Fatal("Failed to create consumer group", logger.StringField("stream", stream), logger.ErrorField(err))
		}
	}

	a := &app{cfg: cfg, logger: appLogger, db: db, redis: redisClient}
	a.closers = append(a.closers, redisClient.Close)
	if sqlDB, err := db.DB.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(db.DB)
	postRepo := repository.NewPostAnalysisRepository(db.DB)
	configRepo := repository.NewScanConfigRepository(db.DB)
	cycleRepo := repository.NewScanCycleRepository(db.DB)
	source := repository.NewTwitterAPIRepository(cfg.TwitterAPI, appLogger)

	// Services
	dispatcher := notifier.NewMultiDispatcher(appLogger, a.buildChannels()...)
	var lock service.CycleLock
	if cfg.Scanner.CycleLockEnabled {
		lock = service.NewRedisCycleLock(redisClient.Client, common.RedisKeyCycleLock, cfg.Scanner.CycleLockTTL)
	}

	a.configService = service.NewConfigService(configRepo, cfg.Scanner, appLogger)
	a.accountService = service.NewAccountService(accountRepo, postRepo, source, appLogger)
	scanner := service.NewAccountScanner(source, accountRepo, postRepo, dispatcher, appLogger)
	a.scanService = service.NewScanService(a.configService, accountRepo, cycleRepo, scanner, lock, appLogger)
	a.requestService = service.NewScanRequestService(redisClient.Client, a.scanService, cycleRepo, appLogger)

	return a
}

// buildChannels returns every enabled notification channel. The log channel is always on.
func (a *app) buildChannels() []notifier.Channel {
	channels := []notifier.Channel{notifier.NewLogDispatcher(a.logger)}

	if a.cfg.Telegram.Enabled {
		client, err := telegram.NewClient(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID)
		if err != nil {
			a.logger.Error("Telegram notifier disabled", logger.ErrorField(err))
		} else {
			channels = append(channels, notifier.NewTelegramDispatcher(client))
		}
	}

	if a.cfg.Webhook.Enabled && a.cfg.Webhook.URL != "" {
		channels = append(channels, notifier.NewWebhookDispatcher(a.cfg.Webhook.URL, a.cfg.Webhook.Timeout))
	}

	if a.cfg.Notification.RedisStreamEnabled {
		channels = append(channels, notifier.NewRedisStreamDispatcher(a.redis.Client, common.RedisStreamPostNotification, a.cfg.Redis.StreamMaxLen))
	}

	if a.cfg.Kafka.Enabled && len(a.cfg.Kafka.Brokers) > 0 {
		kafkaDispatcher := notifier.NewKafkaDispatcher(notifier.NewKafkaWriter(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic), a.cfg.Kafka.Topic)
		channels = append(channels, kafkaDispatcher)
		a.closers = append(a.closers, kafkaDispatcher.Close)
	}

	return channels
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close resource", logger.ErrorField(err))
		}
	}
	_ = a.logger.Sync()
}
