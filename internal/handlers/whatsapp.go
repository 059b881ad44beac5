package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/services"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	bot    *services.Bot
	sender services.MessageSender
	dedup  services.MessageDeduper
	log    *logger.Logger
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(bot *services.Bot, sender services.MessageSender, dedup services.MessageDeduper, log *logger.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{
		bot:    bot,
		sender: sender,
		dedup:  dedup,
		log:    log.Named("whatsapp"),
	}
}

// TwilioWebhookPayload represents incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // whatsapp:+27820000000
	To         string `form:"To"`
	Body       string `form:"Body"`
	NumMedia   string `form:"NumMedia"`
}

// HandleWebhook processes incoming WhatsApp messages. Twilio retries a
// webhook it did not get a timely answer for, so each MessageSid is handled once.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		h.log.Warn("Error parsing webhook", logger.Err(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// status callbacks carry no body
	if payload.Body == "" || payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	ctx := c.UserContext()
	log := h.log.With(logger.String("message_sid", payload.MessageSid))

	first, err := h.dedup.FirstSeen(ctx, payload.MessageSid)
	if err != nil {
		// process anyway: a lost reply is worse than a rare duplicate
		log.Warn("Dedup check failed", logger.Err(err))
		first = true
	}
	if !first {
		log.Info("Duplicate webhook delivery ignored")
		return c.SendStatus(fiber.StatusOK)
	}

	from := strings.TrimPrefix(payload.From, "whatsapp:")
	reply, err := h.bot.ProcessMessage(ctx, from, payload.Body)
	if err != nil {
		log.Error("Error processing message", logger.Err(err))
	}

	if reply != "" {
		if err := h.sender.SendWhatsAppMessage(ctx, from, reply); err != nil {
			log.Error("Failed to send WhatsApp response", logger.String("to", from), logger.Err(err))
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload drives the bot without Twilio
type TestWebhookPayload struct {
	From      string `json:"from"`
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
}

// HandleTestWebhook processes test WhatsApp messages (for development)
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	requestID := payload.MessageID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := h.log.With(logger.String("request_id", requestID))

	first, err := h.dedup.FirstSeen(c.UserContext(), payload.MessageID)
	if err == nil && !first {
		return c.JSON(fiber.Map{
			"success":    true,
			"request_id": requestID,
			"duplicate":  true,
		})
	}

	log.Info("Test webhook received", logger.String("from", payload.From))
	response, err := h.bot.ProcessMessage(c.UserContext(), payload.From, payload.Message)
	if err != nil {
		log.Error("Error processing message", logger.Err(err))
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"request_id": requestID,
		"response":   response,
	})
}
