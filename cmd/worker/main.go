package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/config"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository/postgres"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/service/generator"
	messageService "github.com/MazadiaS/ai-crm-messaging-system/internal/service/message"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/worker"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/logger"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/messaging/redis"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/metrics"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/openai"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	appLogger := logger.NewLogger(nil)

	brokerLogger := componentLogger(appLogger, "broker")
	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, &brokerLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("crm_worker")

	contactRepo := postgres.NewContactRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	campaignRepo := postgres.NewCampaignRepository(db)

	openaiClient := openai.NewClient(cfg.OpenAI)
	generatorSvc := generator.NewService(openaiClient, generator.Config{
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	}, componentLogger(appLogger, "generator"), m)

	messageSvc := messageService.NewService(messageRepo, contactRepo, generatorSvc, componentLogger(appLogger, "message"), m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := worker.NewScheduler(campaignRepo, broker, componentLogger(appLogger, "scheduler"))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer scheduler.Stop()

	executor := worker.NewExecutor(campaignRepo, contactRepo, messageSvc, broker, componentLogger(appLogger, "executor"))

	done := make(chan error, 1)
	go func() {
		done <- executor.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutting down worker...")
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("worker stopped unexpectedly")
		}
	}

	log.Info().Msg("worker exited properly")
}

func componentLogger(l *logger.Logger, name string) zerolog.Logger {
	return l.Zerolog().With().Str("component", name).Logger()
}
