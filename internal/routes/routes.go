package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/errandguy-backend/internal/handlers"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Health   *handlers.HealthHandler
	Errands  *handlers.ErrandHandler
	WhatsApp *handlers.WhatsAppHandler
}

// Options controls the environment-dependent routes
type Options struct {
	Version            string
	ValidateSignatures bool
	TwilioAuthToken    string
	EnableTestRoutes   bool
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers, opts Options, log *logger.Logger) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Welcome to My Errand Guy Backend!",
			"version": opts.Version,
			"endpoints": fiber.Map{
				"health":  "/health",
				"api":     "/api",
				"webhook": "/webhook/whatsapp",
			},
		})
	})

	app.Get("/health", h.Health.Check)

	// API routes
	api := app.Group("/api")

	errands := api.Group("/errands")
	errands.Post("/", h.Errands.CreateErrand)
	errands.Get("/:id", h.Errands.GetErrand)
	errands.Post("/:id/assign", h.Errands.AssignDriver)
	errands.Post("/:id/status", h.Errands.UpdateStatus)
	errands.Post("/:id/complete", h.Errands.CompleteErrand)
	errands.Post("/:id/cancel", h.Errands.CancelErrand)
	errands.Put("/:id/paid", h.Errands.SetPaid)
	errands.Post("/:id/verify", h.Errands.VerifyOTP)

	api.Get("/summary", h.Errands.GetSummary)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")
	if opts.ValidateSignatures {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(opts.TwilioAuthToken, log), h.WhatsApp.HandleWebhook)
	} else {
		log.Warn("WhatsApp webhook validation DISABLED")
		webhooks.Post("/whatsapp", h.WhatsApp.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if opts.EnableTestRoutes {
		app.Post("/test/whatsapp", h.WhatsApp.HandleTestWebhook)
	}
}
