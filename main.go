package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Ananth-NQI/errandguy-backend/internal/app"
	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	"github.com/Ananth-NQI/errandguy-backend/internal/config"
	"github.com/Ananth-NQI/errandguy-backend/internal/handlers"
	"github.com/Ananth-NQI/errandguy-backend/internal/jobs"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/routes"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("Failed to start", logger.Err(err))
	}
	defer func() { _ = a.Close() }()

	var summaryJob *jobs.DailySummaryJob
	if cfg.Jobs.DailySummaryOn {
		summaryJob = jobs.NewDailySummaryJob(a.Summary, a.Sender, cfg.Jobs.OpsWhatsAppTo,
			cfg.Jobs.DailySummaryHour, cfg.Errands.Location, log)
		summaryJob.Start()
	}

	server := fiber.New(fiber.Config{
		AppName: "My Errand Guy Backend v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			} else if appErr := apperrors.GetAppError(err); appErr.Status != 0 {
				code = appErr.Status
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	server.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	server.Use(recover.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(server, routes.Handlers{
		Health:   handlers.NewHealthHandler(version, a.Storage.Kind, cfg.TwilioConfigured(), a.Storage.Errand),
		Errands:  handlers.NewErrandHandler(a.Errands, a.Summary, log),
		WhatsApp: handlers.NewWhatsAppHandler(a.Bot, a.Sender, a.Deduper, log),
	}, routes.Options{
		Version:            version,
		ValidateSignatures: !cfg.Server.DisableWebhookValidation && cfg.Server.Environment != "development",
		TwilioAuthToken:    cfg.Twilio.AuthToken,
		EnableTestRoutes:   !cfg.IsProduction(),
	}, log)

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info("Gracefully shutting down")
		if summaryJob != nil {
			summaryJob.Stop()
		}
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("Server shutdown failed", logger.Err(err))
		}
	}()

	log.Info("My Errand Guy Backend starting",
		logger.String("port", cfg.Server.Port),
		logger.String("environment", cfg.Server.Environment),
		logger.String("storage", a.Storage.Kind),
		logger.String("timezone", cfg.Errands.Location.String()),
		logger.Bool("whatsapp", cfg.TwilioConfigured()),
		logger.Bool("daily_summary", cfg.Jobs.DailySummaryOn))

	if err := server.Listen(":" + cfg.Server.Port); err != nil {
		log.Error("Server stopped", logger.Err(err))
	}
}
