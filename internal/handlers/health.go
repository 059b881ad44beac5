package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether the errand log can be reached
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	Storage string
	Twilio  bool
	store   Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, storageKind string, twilioConfigured bool, store Pinger) *HealthHandler {
	return &HealthHandler{
		Version: version,
		Storage: storageKind,
		Twilio:  twilioConfigured,
		store:   store,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := "healthy"
	statusCode := fiber.StatusOK
	storeErr := ""
	if err := h.store.Ping(ctx); err != nil {
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
		storeErr = err.Error()
	}

	body := fiber.Map{
		"status":  status,
		"service": "My Errand Guy Backend",
		"version": h.Version,
		"storage": h.Storage,
		"services": fiber.Map{
			"errand_log": status == "healthy",
			"twilio":     h.Twilio,
		},
	}
	if storeErr != "" {
		body["error"] = storeErr
	}
	return c.Status(statusCode).JSON(body)
}
