package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/config"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/handler"
	authHandler "github.com/MazadiaS/ai-crm-messaging-system/internal/handler/auth"
	campaignHandler "github.com/MazadiaS/ai-crm-messaging-system/internal/handler/campaign"
	contactHandler "github.com/MazadiaS/ai-crm-messaging-system/internal/handler/contact"
	messageHandler "github.com/MazadiaS/ai-crm-messaging-system/internal/handler/message"
	templateHandler "github.com/MazadiaS/ai-crm-messaging-system/internal/handler/template"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/middleware"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository/postgres"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/router"
	authService "github.com/MazadiaS/ai-crm-messaging-system/internal/service/auth"
	campaignService "github.com/MazadiaS/ai-crm-messaging-system/internal/service/campaign"
	contactService "github.com/MazadiaS/ai-crm-messaging-system/internal/service/contact"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/service/generator"
	messageService "github.com/MazadiaS/ai-crm-messaging-system/internal/service/message"
	templateService "github.com/MazadiaS/ai-crm-messaging-system/internal/service/template"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/auth"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/logger"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/messaging/redis"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/metrics"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/openai"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	brokerLogger := componentLogger(appLogger, "broker")
	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, &brokerLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("crm")
	model.RegisterValidations()

	// Repositories
	contactRepo := postgres.NewContactRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	campaignRepo := postgres.NewCampaignRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Services
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryMinutes) * time.Minute,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(0)

	openaiClient := openai.NewClient(cfg.OpenAI)
	generatorSvc := generator.NewService(openaiClient, generator.Config{
		Model:       cfg.AI.Model,
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	}, componentLogger(appLogger, "generator"), m)

	authSvc := authService.NewService(userRepo, hasher, jwtSvc, componentLogger(appLogger, "auth"))
	contactSvc := contactService.NewService(contactRepo, componentLogger(appLogger, "contact"))
	messageSvc := messageService.NewService(messageRepo, contactRepo, generatorSvc, componentLogger(appLogger, "message"), m)
	campaignSvc := campaignService.NewService(campaignRepo, broker, componentLogger(appLogger, "campaign"), m)
	templateSvc := templateService.NewService(templateRepo, contactRepo, componentLogger(appLogger, "template"))

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	// Handlers
	h := handler.NewHandler()
	authH := authHandler.NewHandler(authSvc)
	contactH := contactHandler.NewHandler(contactSvc)
	messageH := messageHandler.NewHandler(messageSvc, authMiddleware.RequireManager())
	campaignH := campaignHandler.NewHandler(campaignSvc, authMiddleware.RequireManager())
	templateH := templateHandler.NewHandler(templateSvc)


	r := router.NewRouter(
		authMiddleware,
		authH,
		contactH,
		messageH,
		campaignH,
		templateH,
		h,
		router.Config{
			RateLimit:     rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst:     cfg.Server.RateLimitBurst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "crm_http",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func componentLogger(l *logger.Logger, name string) zerolog.Logger {
	return l.Zerolog().With().Str("component", name).Logger()
}
