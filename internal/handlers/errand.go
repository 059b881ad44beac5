package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/services"
)

// ErrandHandler exposes the lifecycle engine over REST for dashboards
type ErrandHandler struct {
	errands *services.ErrandService
	summary *services.SummaryService
	log     *logger.Logger
}

// NewErrandHandler creates a new errand handler
func NewErrandHandler(errands *services.ErrandService, summary *services.SummaryService, log *logger.Logger) *ErrandHandler {
	return &ErrandHandler{
		errands: errands,
		summary: summary,
		log:     log.Named("api"),
	}
}

// CreateErrand handles POST /api/errands
func (h *ErrandHandler) CreateErrand(c *fiber.Ctx) error {
	var req services.CreateErrandInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	rec, err := h.errands.Create(c.UserContext(), req)
	if err != nil {
		return h.fail(c, err)
	}

	// the OTP is returned once, for the requester to pass on to the receiver
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Errand created successfully",
		"errand":  rec,
		"otp":     rec.OTP,
	})
}

// GetErrand handles GET /api/errands/:id
func (h *ErrandHandler) GetErrand(c *fiber.Ctx) error {
	rec, err := h.errands.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"errand": rec})
}

// AssignDriver handles POST /api/errands/:id/assign
func (h *ErrandHandler) AssignDriver(c *fiber.Ctx) error {
	var req struct {
		Driver string `json:"driver"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	out, err := h.errands.Assign(c.UserContext(), c.Params("id"), req.Driver)
	return h.respond(c, out, err)
}

// UpdateStatus handles POST /api/errands/:id/status
func (h *ErrandHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	out, err := h.errands.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	return h.respond(c, out, err)
}

// CompleteErrand handles POST /api/errands/:id/complete
func (h *ErrandHandler) CompleteErrand(c *fiber.Ctx) error {
	out, err := h.errands.Complete(c.UserContext(), c.Params("id"))
	return h.respond(c, out, err)
}

// CancelErrand handles POST /api/errands/:id/cancel
func (h *ErrandHandler) CancelErrand(c *fiber.Ctx) error {
	out, err := h.errands.Cancel(c.UserContext(), c.Params("id"))
	return h.respond(c, out, err)
}

// SetPaid handles PUT /api/errands/:id/paid
func (h *ErrandHandler) SetPaid(c *fiber.Ctx) error {
	var req struct {
		Paid *bool `json:"paid"`
	}
	if err := c.BodyParser(&req); err != nil || req.Paid == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "paid (true or false) is required"})
	}
	out, err := h.errands.SetPaid(c.UserContext(), c.Params("id"), *req.Paid)
	return h.respond(c, out, err)
}

// VerifyOTP handles POST /api/errands/:id/verify
func (h *ErrandHandler) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		OTP string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	out, err := h.errands.VerifyOTP(c.UserContext(), c.Params("id"), req.OTP)
	return h.respond(c, out, err)
}

// GetSummary handles GET /api/summary?date=YYYY-MM-DD (today by default)
func (h *ErrandHandler) GetSummary(c *fiber.Ctx) error {
	date := c.Query("date", h.summary.Today())
	report, err := h.summary.Summarize(c.UserContext(), date)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"summary": report, "total": report.Total()})
}

func (h *ErrandHandler) respond(c *fiber.Ctx, out *services.Outcome, err error) error {
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"result": out})
}

func (h *ErrandHandler) fail(c *fiber.Ctx, err error) error {
	appErr := apperrors.GetAppError(err)
	if appErr.Status >= fiber.StatusInternalServerError {
		h.log.Error("Request failed",
			logger.String("path", c.Path()), logger.String("code", appErr.Code), logger.Err(err))
	}
	return c.Status(appErr.Status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
