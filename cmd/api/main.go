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

	"github.com/pageza/nutrilog/backend/config"
	"github.com/pageza/nutrilog/backend/internal/database"
	"github.com/pageza/nutrilog/backend/internal/middleware"
	"github.com/pageza/nutrilog/backend/internal/server"
	"github.com/pageza/nutrilog/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open meal store: %v", err)
	}

	httpClient := &http.Client{}

	completion, err := service.NewCompletionService(cfg, httpClient)
	if err != nil {
		log.Fatalf("Failed to create completion service: %v", err)
	}

	var archiver service.IArchiver
	s3Cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		log.Printf("Warning: export archive disabled: %v", err)
	} else if s3Cfg != nil {
		archiver = service.NewS3Archiver(s3Cfg.Client, s3Cfg.BucketName)
		log.Printf("Archiving exports to s3://%s", s3Cfg.BucketName)
	}
	exporter := service.NewExportService(cfg.WebhookURL, httpClient, store, archiver, cfg.WebhookStrictStatus)

	// Continue without rate limiting if Redis is not available
	var limiter *middleware.RateLimiter
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis for rate limiting: %v", err)
	} else if redisClient != nil {
		limiter = middleware.NewMealCreationRateLimiter(redisClient, cfg.MealRateLimit)
		defer redisClient.Close()
	}

	sessions := service.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL, func() *service.Controller {
		return service.NewController(completion, store, exporter)
	})

	srv := server.New(cfg, sessions, store, limiter)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)

	go func() {
		log.Println("Starting server...")
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

// openStore connects the meal store selected by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config) (service.IMealStore, error) {
	if cfg.StoreDriver == config.StoreFirestore {
		return service.NewFirestoreMealStore(ctx, cfg.FirestoreProjectID, cfg.DisplayLocation)
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		return nil, err
	}

	var notifier service.Notifier
	if cfg.PGNotify {
		pg, err := service.NewPGNotifier(db, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to start change listener: %w", err)
		}
		notifier = pg
		log.Printf("Sharing meal changes through LISTEN/NOTIFY on %s", service.MealsChannel)
	}

	return service.NewGormMealStore(db, notifier, cfg.DisplayLocation), nil
}
