package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/kursadbilgin/mailflow/internal/config"
	"github.com/kursadbilgin/mailflow/internal/handler"
	"github.com/kursadbilgin/mailflow/internal/infra/postgresql"
	"github.com/kursadbilgin/mailflow/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/mailflow/internal/infra/redis"
	"github.com/kursadbilgin/mailflow/internal/observability"
	"github.com/kursadbilgin/mailflow/internal/queue"
	"github.com/kursadbilgin/mailflow/internal/repository"
	"github.com/kursadbilgin/mailflow/internal/secret"
	"github.com/kursadbilgin/mailflow/internal/service"
	"github.com/kursadbilgin/mailflow/internal/transport"
	"go.uber.org/zap"
)

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

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
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
	campaignRepo := repository.NewGormCampaignRepo(db)
	credentialRepo := repository.NewGormCredentialRepo(db)
	subscriberRepo := repository.NewGormSubscriberRepo(db)

	publisher := queue.NewRabbitMQPublisher(mq)
	metrics := observability.NewMetrics()

	credentialStore, err := service.NewSMTPCredentialStore(credentialRepo, cipher)
	if err != nil {
		logger.Fatal("credential store initialization failed", zap.Error(err))
	}

	campaignService, err := service.NewCampaignService(campaignRepo, logger)
	if err != nil {
		logger.Fatal("campaign service initialization failed", zap.Error(err))
	}

	dispatchService, err := service.NewDispatchService(jobRepo, campaignRepo, subscriberRepo, credentialStore, publisher, logger)
	if err != nil {
		logger.Fatal("dispatch service initialization failed", zap.Error(err))
	}
	dispatchService.SetMetrics(metrics)

	reconcileService, err := service.NewReconcileService(jobRepo, campaignRepo, publisher, logger)
	if err != nil {
		logger.Fatal("reconcile service initialization failed", zap.Error(err))
	}

	audienceService, err := service.NewAudienceService(subscriberRepo, logger)
	if err != nil {
		logger.Fatal("audience service initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:      "mailflow-api",
		ErrorHandler: transport.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterCampaignRoutes(app, campaignService, dispatchService, reconcileService); err != nil {
		logger.Fatal("campaign route registration failed", zap.Error(err))
	}
	if err := handler.RegisterCredentialRoutes(app, credentialStore); err != nil {
		logger.Fatal("credential route registration failed", zap.Error(err))
	}
	if err := handler.RegisterAudienceRoutes(app, audienceService); err != nil {
		logger.Fatal("audience route registration failed", zap.Error(err))
	}

	go func() {
		logger.Info("mailflow api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			logger.Fatal("api server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down api")
	if err := app.Shutdown(); err != nil {
		logger.Error("api shutdown failed", zap.Error(err))
	}
}
