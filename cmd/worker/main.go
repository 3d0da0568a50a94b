package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/kursadbilgin/mailflow/internal/config"
	"github.com/kursadbilgin/mailflow/internal/infra/postgresql"
	infraredis "github.com/kursadbilgin/mailflow/internal/infra/redis"
	"github.com/kursadbilgin/mailflow/internal/mailer"
	"github.com/kursadbilgin/mailflow/internal/observability"
	"github.com/kursadbilgin/mailflow/internal/queue"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"github.com/kursadbilgin/mailflow/internal/secret"
	"github.com/kursadbilgin/mailflow/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const requeueScanLimit = 100

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer mq.Close()

	cipher, err := secret.NewCipher(cfg.SecretKey)
	if err != nil {
		logger.Fatal("secret cipher initialization failed", zap.Error(err))
	}

	jobRepo := repository.NewGormMailJobRepo(db)
	attachmentRepo := repository.NewGormAttachmentRepo(db)
	credentialRepo := repository.NewGormCredentialRepo(db)

	credentialStore, err := service.NewSMTPCredentialStore(credentialRepo, cipher)
	if err != nil {
		logger.Fatal("credential store initialization failed", zap.Error(err))
	}

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	consumer := queue.NewRabbitMQConsumer(mq, cfg.WorkerConcurrency, logger)
	transport := mailer.NewSMTPTransport(cfg.SMTPTimeout())
	publisher := queue.NewRabbitMQPublisher(mq)
	metrics := observability.NewMetrics()

	deliveryService, err := service.NewDeliveryService(
		jobRepo,
		attachmentRepo,
		credentialStore,
		consumer,
		transport,
		rateLimiter,
		cfg.WorkerConcurrency,
		logger,
	)
	if err != nil {
		logger.Fatal("delivery service initialization failed", zap.Error(err))
	}
	deliveryService.SetMetrics(metrics)

	requeueScanner, err := service.NewRequeueScanner(
		jobRepo,
		publisher,
		cfg.RequeueScanInterval(),
		cfg.RequeueStaleAfter(),
		requeueScanLimit,
		logger,
	)
	if err != nil {
		logger.Fatal("requeue scanner initialization failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("mailflow worker started",
		zap.Int("concurrency", cfg.WorkerConcurrency),
		zap.Int("rateLimitPerSec", cfg.RateLimitPerSec),
	)

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return deliveryService.Start(groupCtx)
	})
	g.Go(func() error {
		return requeueScanner.Start(groupCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("worker stopped with error", zap.Error(err))
	}

	logger.Info("mailflow worker stopped")
}
