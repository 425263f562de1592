package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/skycast-ai/skycast/internal/api/http"
	"github.com/skycast-ai/skycast/internal/config"
	"github.com/skycast-ai/skycast/internal/records"
	"github.com/skycast-ai/skycast/internal/scheduler"
	"github.com/skycast-ai/skycast/internal/session"
	"github.com/skycast-ai/skycast/internal/store"
	"github.com/skycast-ai/skycast/internal/weather"
)

func main() {
	// Load configuration (godotenv is applied inside).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Record store: SQLite when a path is configured, in-memory otherwise.
	var recordStore records.Store
	if cfg.DBPath != "" {
		sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatalf("failed to open record store: %v", err)
		}
		defer sqliteStore.Close()
		recordStore = sqliteStore
	} else {
		recordStore = store.NewMemoryStore()
	}

	// Provider client with resilience (backoff + circuit breaker).
	weatherClient := weather.NewClient(httpClient, cfg.OpenWeatherAPIKey)

	// Core record service.
	service := records.NewService(recordStore, weatherClient)

	// Conversation state and the turn controller.
	sessions := session.NewStore()
	controller := session.NewController(sessions, service, cfg.ExportDir)

	// Optional periodic refresh of tracked locations.
	sched := scheduler.New(cfg.TrackedLocations, cfg.RefreshInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "skycast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "skycast",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, controller)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
