package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/config"
	"github.com/noah-isme/coach-api/internal/database"
	"github.com/noah-isme/coach-api/internal/handler"
	"github.com/noah-isme/coach-api/internal/middleware"
	"github.com/noah-isme/coach-api/internal/models"
	"github.com/noah-isme/coach-api/internal/observability"
	"github.com/noah-isme/coach-api/internal/repository"
	"github.com/noah-isme/coach-api/internal/router"
	"github.com/noah-isme/coach-api/internal/service"
	"github.com/noah-isme/coach-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level := zerolog.InfoLevel
	if cfg.AppEnv == "development" {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	observability.RegisterMetrics()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Submission{}, &models.Analysis{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis disabled; sessions, caches and chat locks stay in process")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	generator := newGenerator(ctx, cfg, logger)
	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)

	// Read views share the repository with the writing store, which notifies them after each commit.
	reader := service.NewSubmissionStore(submissionRepo, logger)
	dashboardService := service.NewDashboardService(reader, redisClient, service.DashboardConfig{CacheTTL: cfg.DashboardCacheTTL}, logger)
	roadmapService := service.NewRoadmapService(reader, generator, redisClient, cfg.RoadmapCacheTTL, cfg.AITimeout, logger)
	resourceService := service.NewResourceService(reader, logger)
	activityService := service.NewActivityStreamService(redisClient, natsConn, cfg.EventsChannel, logger)
	activityService.Start(ctx)

	store := service.NewSubmissionStore(submissionRepo, logger, dashboardService, roadmapService, activityService)
	sessionService := service.NewSessionService(redisClient, cfg.EventsChannel, cfg.SessionTTL, logger)
	locker := service.NewSessionLocker(redisClient, cfg.EventsChannel, cfg.AITimeout+30*time.Second)
	saves := &service.BackgroundTasks{}
	analysisService := service.NewAnalysisService(generator, ai.NewPatternMatcher(), store, locker, validate, service.AnalysisConfig{
		Heuristic:          cfg.AIProvider == config.ProviderHeuristic,
		Timeout:            cfg.AITimeout,
		PersistenceTimeout: cfg.PersistenceTimeout,
		Dispatch:           saves.Go,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    2 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: cfg.AppEnv == "development"})
	router.Register(app, cfg, router.Dependencies{
		HealthHandler:    handler.HealthCheck(cfg, db, redisClient),
		AnalysisHandler:  handler.NewAnalysisHandler(analysisService, sessionService, validate, logger),
		DashboardHandler: handler.NewDashboardHandler(dashboardService, logger),
		RoadmapHandler:   handler.NewRoadmapHandler(roadmapService, logger),
		ResourceHandler:  handler.NewResourceHandler(resourceService, logger),
		ActivityHandler:  handler.NewActivityHandler(activityService, logger),
		OptionalAuth:     middleware.JWTOptional(cfg.JWTSecret),
		RequiredAuth:     middleware.JWTProtected(cfg.JWTSecret),
		AnalyzeLimiter:   middleware.RateLimit("analyze", cfg.AnalyzeRateLimit, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("provider", cfg.AIProvider).Msg("coach api started")
	waitForShutdown(ctx, app, saves, cfg.PersistenceTimeout, logger)
}

// newGenerator returns nil when the provider is heuristic or its credentials are missing;
// model-backed endpoints then answer 503.
func newGenerator(ctx context.Context, cfg config.Config, logger zerolog.Logger) ai.Generator {
	switch cfg.AIProvider {
	case config.ProviderOpenAI:
		generator, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.AIModel, Logger: logger})
		if err != nil {
			logger.Warn().Err(err).Msg("openai generator unavailable")
			return nil
		}
		return generator
	case config.ProviderGemini:
		generator, err := ai.NewGeminiGenerator(ctx, ai.GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.AIModel, Logger: logger})
		if err != nil {
			logger.Warn().Err(err).Msg("gemini generator unavailable")
			return nil
		}
		return generator
	default:
		return nil
	}
}

// waitForShutdown stops accepting requests, then gives queued submission saves up to drain to finish.
func waitForShutdown(ctx context.Context, app *fiber.App, saves *service.BackgroundTasks, drain time.Duration, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if !saves.Wait(drain) {
		logger.Warn().Dur("waited", drain).Msg("submission saves still running at shutdown")
	}

	logger.Info().Msg("server stopped")
}
