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

	"github.com/noah-isme/spms-go-api/internal/config"
	"github.com/noah-isme/spms-go-api/internal/database"
	"github.com/noah-isme/spms-go-api/internal/handler"
	"github.com/noah-isme/spms-go-api/internal/middleware"
	"github.com/noah-isme/spms-go-api/internal/models"
	"github.com/noah-isme/spms-go-api/internal/repository"
	"github.com/noah-isme/spms-go-api/internal/router"
	"github.com/noah-isme/spms-go-api/internal/scheduler"
	"github.com/noah-isme/spms-go-api/internal/service"
	"github.com/noah-isme/spms-go-api/pkg/codeforces"
	"github.com/noah-isme/spms-go-api/pkg/mailer"
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

	if err := db.AutoMigrate(&models.Student{}, &models.ContestRecord{}, &models.ProblemRecord{}); err != nil {
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
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	cfClient := codeforces.NewClient(codeforces.Config{
		BaseURL: cfg.CodeforcesBaseURL,
		Timeout: cfg.UpstreamTimeout,
	}, logger)

	reminderMailer := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.FromEmail,
	}, logger)

	studentRepo := repository.NewStudentRepository(db)
	contestRepo := repository.NewContestRecordRepository(db)
	problemRepo := repository.NewProblemRecordRepository(db)

	studentService := service.NewStudentService(studentRepo, validate, logger)
	statsService := service.NewStatsService(studentRepo, contestRepo, problemRepo, redisClient, cfg.StatsCacheTTL, logger)
	exportService := service.NewExportService(studentRepo, logger)
	syncService := service.NewSyncService(studentRepo, contestRepo, problemRepo, cfClient, reminderMailer, statsService, natsConn, service.SyncConfig{
		Concurrency:             cfg.SyncConcurrency,
		InactivityThresholdDays: cfg.InactivityThresholdDays,
	}, logger)

	studentHandler := handler.NewStudentHandler(studentService, exportService, logger)
	statsHandler := handler.NewStatsHandler(statsService, cfg.InactivityThresholdDays, logger)
	syncHandler := handler.NewSyncHandler(syncService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler: studentHandler,
		StatsHandler:   statsHandler,
		SyncHandler:    syncHandler,
	})

	sweeper := scheduler.New(syncService, cfg.SyncHourUTC, logger)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sweeper.Stop()

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
