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

	"github.com/Jam232006/pulse-lms/internal/config"
	"github.com/Jam232006/pulse-lms/internal/database"
	"github.com/Jam232006/pulse-lms/internal/handler"
	"github.com/Jam232006/pulse-lms/internal/middleware"
	"github.com/Jam232006/pulse-lms/internal/models"
	"github.com/Jam232006/pulse-lms/internal/repository"
	"github.com/Jam232006/pulse-lms/internal/router"
	"github.com/Jam232006/pulse-lms/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassMember{},
		&models.ActivityLog{},
		&models.Assignment{},
		&models.Submission{},
		&models.RiskScore{},
		&models.RiskHistory{},
		&models.SubmissionStreak{},
		&models.Alert{},
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
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	riskRepo := repository.NewRiskRepository(db)
	streakRepo := repository.NewStreakRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	alertService := service.NewAlertService(alertRepo, redisClient, cfg.EventChannel, natsConn, logger)
	streakService := service.NewStreakService(streakRepo, logger)
	riskService := service.NewRiskService(activityRepo, submissionRepo, userRepo, riskRepo, streakService, alertService, redisClient, cfg.HistoryCacheTTL, logger)
	activityService := service.NewActivityService(activityRepo, userRepo, streakService, riskService, alertService, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, classRepo, userRepo, activityRepo, streakService, riskService, alertService, validate, logger)

	serviceCtx, stopServices := context.WithCancel(context.Background())
	defer stopServices()
	alertService.Start(serviceCtx)

	activityHandler := handler.NewActivityHandler(activityService, logger)
	riskHandler := handler.NewRiskHandler(riskService, logger)
	alertHandler := handler.NewAlertHandler(alertService, logger, cfg.StreamKeepAlive)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:   activityHandler,
		RiskHandler:       riskHandler,
		AlertHandler:      alertHandler,
		AssignmentHandler: assignmentHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
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
