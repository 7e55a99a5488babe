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
	"gorm.io/gorm"

	"github.com/evalhub/gradehub-api/internal/checks"
	"github.com/evalhub/gradehub-api/internal/config"
	"github.com/evalhub/gradehub-api/internal/database"
	"github.com/evalhub/gradehub-api/internal/grader"
	"github.com/evalhub/gradehub-api/internal/handler"
	"github.com/evalhub/gradehub-api/internal/middleware"
	"github.com/evalhub/gradehub-api/internal/models"
	"github.com/evalhub/gradehub-api/internal/repository"
	"github.com/evalhub/gradehub-api/internal/router"
	"github.com/evalhub/gradehub-api/internal/service"
	"github.com/evalhub/gradehub-api/pkg/exec"
	"github.com/evalhub/gradehub-api/pkg/review"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := connectDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Homework{},
		&models.CheckSpec{},
		&models.GradedSubmission{},
		&models.LedgerEntry{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, stats caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, grading events disabled")
	}

	registry := buildRegistry(cfg, logger)
	engine := grader.NewEngine()

	validate := validator.New(validator.WithRequiredStructEnabled())

	homeworkRepo := repository.NewHomeworkRepository(db)
	checkRepo := repository.NewCheckRepository(db)
	submissionRepo := repository.NewGradedSubmissionRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	homeworkService := service.NewHomeworkService(homeworkRepo, checkRepo, submissionRepo, ledgerRepo, registry, validate, logger)
	gradingService := service.NewGradingService(homeworkRepo, submissionRepo, ledgerRepo, registry, engine, redisClient, natsConn, validate, logger)
	ledgerService := service.NewLedgerService(homeworkRepo, submissionRepo, ledgerRepo, logger)
	statsService := service.NewStatsService(homeworkRepo, ledgerRepo, redisClient, cfg.StatsCacheTTL, logger)
	exportService := service.NewExportService(ledgerService, logger)

	homeworkHandler := handler.NewHomeworkHandler(homeworkService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, ledgerService, statsService, exportService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		HomeworkHandler: homeworkHandler,
		GradingHandler:  gradingHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func connectDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL != "" {
		return database.ConnectPostgres(cfg.DatabaseURL)
	}
	return database.ConnectSQLite(cfg.SQLitePath)
}

// buildRegistry installs the built-in check kinds plus the container and
// rubric-review kinds when their backends are configured.
func buildRegistry(cfg config.Config, logger zerolog.Logger) *checks.Registry {
	var opts []checks.RegistryOption

	executor, err := exec.NewDockerExecutor(exec.Config{
		Host:          cfg.DockerHost,
		MemoryLimitMB: int64(cfg.CheckMemoryMB),
		CPUShares:     int64(cfg.CheckCPUShares),
		Logger:        logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("docker unavailable, command checks disabled")
	} else {
		opts = append(opts, checks.WithExecutor(executor))
	}

	if cfg.OpenAIAPIKey != "" {
		reviewer, err := review.NewOpenAIReviewer(review.OpenAIConfig{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.ReviewModel,
			MaxTokens: cfg.ReviewMaxTokens,
			Logger:    logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("reviewer unavailable, ai_review checks disabled")
		} else {
			opts = append(opts, checks.WithReviewer(reviewer))
		}
	} else {
		logger.Warn().Msg("openai api key not configured, ai_review checks disabled")
	}

	return checks.NewRegistry(opts...)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
