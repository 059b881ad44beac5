package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/models"
	"github.com/Ananth-NQI/errandguy-backend/internal/storage"
	"github.com/Ananth-NQI/errandguy-backend/internal/utils"
)

// Usage lines, shared by the engine's validation errors and the chat help
const (
	UsageNewErrand = "/newerrand <requester> <receiver> <pickup> <dropoff>"
	UsageAssign    = "/assign <id> <driver>"
	UsageUpdate    = "/update <id> <status>"
	UsageComplete  = "/complete <id>"
	UsageCancel    = "/cancel <id>"
	UsagePay       = "/pay <id>"
	UsageUnpay     = "/unpay <id>"
	UsageStatus    = "/status <id>"
	UsageVerify    = "/verify <id> <otp>"
	UsageSummary   = "/summary [YYYY-MM-DD]"
)

// ErrandRepository is the record store the engine works against
type ErrandRepository interface {
	FindByIdentifier(ctx context.Context, id string) (storage.RowHandle, error)
	ReadRow(ctx context.Context, h storage.RowHandle) (*models.ErrandRecord, error)
	WriteField(ctx context.Context, h storage.RowHandle, field models.Field, value string) error
	AppendRow(ctx context.Context, rec *models.ErrandRecord) (storage.RowHandle, error)
	ListAll(ctx context.Context) ([]*models.ErrandRecord, error)
}

// CreateErrandInput carries the free-text fields of a new errand
type CreateErrandInput struct {
	RequesterName   string `json:"requester_name"`
	ReceiverName    string `json:"receiver_name"`
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
}

// Outcome describes what an operation changed, for the caller's confirmation
type Outcome struct {
	ErrandID  string        `json:"errand_id"`
	Field     models.Field  `json:"field"`
	Value     string        `json:"value"`
	Status    models.Status `json:"status"`
	UpdatedAt string        `json:"updated_at,omitempty"`
	Stamped   bool          `json:"stamped"`
}

// ErrandServiceConfig configures id generation and the operating clock
type ErrandServiceConfig struct {
	IDPrefix      string
	IDMaxAttempts int
	Location      *time.Location
	Now           func() time.Time
}

// ErrandService is the lifecycle engine. It keeps no state of its own; every
// side effect goes through the repository.
type ErrandService struct {
	repo     ErrandRepository
	log      *logger.Logger
	prefix   string
	attempts int
	loc      *time.Location
	now      func() time.Time

	newID  func(prefix string, day time.Time) (string, error)
	newOTP func() (string, error)
}

// NewErrandService creates the lifecycle engine
func NewErrandService(repo ErrandRepository, cfg ErrandServiceConfig, log *logger.Logger) *ErrandService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IDMaxAttempts < 1 {
		cfg.IDMaxAttempts = 1
	}
	return &ErrandService{
		repo:     repo,
		log:      log.Named("errands"),
		prefix:   cfg.IDPrefix,
		attempts: cfg.IDMaxAttempts,
		loc:      cfg.Location,
		now:      cfg.Now,
		newID:    utils.GenerateErrandID,
		newOTP:   utils.GenerateSecureOTP,
	}
}

// Create logs a new errand in Pending with a fresh id and OTP
func (s *ErrandService) Create(ctx context.Context, in CreateErrandInput) (*models.ErrandRecord, error) {
	in.RequesterName = strings.TrimSpace(in.RequesterName)
	in.ReceiverName = strings.TrimSpace(in.ReceiverName)
	in.PickupLocation = strings.TrimSpace(in.PickupLocation)
	in.DropoffLocation = strings.TrimSpace(in.DropoffLocation)
	if in.RequesterName == "" || in.ReceiverName == "" || in.PickupLocation == "" || in.DropoffLocation == "" {
		return nil, usageError(UsageNewErrand)
	}

	now := s.now().In(s.loc)
	id, err := s.allocateID(ctx, now)
	if err != nil {
		return nil, err
	}
	otp, err := s.newOTP()
	if err != nil {
		return nil, apperrors.Internal("failed to generate OTP", err)
	}

	res, err := models.Transition("", models.OpCreate, "")
	if err != nil {
		return nil, apperrors.Internal("create transition", err)
	}

	rec := &models.ErrandRecord{
		ID:              id,
		RequesterName:   in.RequesterName,
		ReceiverName:    in.ReceiverName,
		PickupLocation:  in.PickupLocation,
		DropoffLocation: in.DropoffLocation,
		Status:          res.To,
		OTP:             otp,
		LastUpdatedAt:   models.FormatTimestamp(now, s.loc),
	}
	if _, err := s.repo.AppendRow(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info("Errand created", logger.String("errand_id", id))
	return rec, nil
}

// allocateID draws ids until the log confirms one is absent
func (s *ErrandService) allocateID(ctx context.Context, now time.Time) (string, error) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		id, err := s.newID(s.prefix, now)
		if err != nil {
			return "", apperrors.Internal("failed to generate errand id", err)
		}
		_, err = s.repo.FindByIdentifier(ctx, id)
		if errors.Is(err, apperrors.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
		s.log.Warn("Errand id collision, drawing again",
			logger.String("errand_id", id), logger.Int("attempt", attempt))
	}
	return "", apperrors.IDExhausted(s.attempts)
}

// Get returns the current record for an id
func (s *ErrandService) Get(ctx context.Context, id string) (*models.ErrandRecord, error) {
	_, rec, err := s.locate(ctx, id, UsageStatus)
	return rec, err
}

// Assign sets the driver; a Pending errand moves to In Progress
func (s *ErrandService) Assign(ctx context.Context, id, driver string) (*Outcome, error) {
	driver = strings.TrimSpace(driver)
	if driver == "" {
		return nil, usageError(UsageAssign)
	}
	h, rec, err := s.locate(ctx, id, UsageAssign)
	if err != nil {
		return nil, err
	}

	res, err := models.Transition(rec.Status, models.OpAssign, "")
	if err != nil {
		return nil, transitionError(err, rec, models.OpAssign)
	}

	if err := s.repo.WriteField(ctx, h, models.FieldDriver, driver); err != nil {
		return nil, err
	}
	if res.Changed {
		if err := s.repo.WriteField(ctx, h, models.FieldStatus, string(res.To)); err != nil {
			return nil, err
		}
	}

	s.log.Info("Driver assigned",
		logger.String("errand_id", rec.ID), logger.String("driver", driver), logger.String("status", string(res.To)))
	return &Outcome{ErrandID: rec.ID, Field: models.FieldDriver, Value: driver, Status: res.To}, nil
}

// UpdateStatus sets a free-text status. Labels in a synonym group are
// written in canonical form; Delivered and Canceled labels stamp the time.
func (s *ErrandService) UpdateStatus(ctx context.Context, id, label string) (*Outcome, error) {
	if strings.TrimSpace(label) == "" {
		return nil, usageError(UsageUpdate)
	}
	return s.apply(ctx, id, models.OpUpdateStatus, label, UsageUpdate)
}

// Complete marks an errand Delivered
func (s *ErrandService) Complete(ctx context.Context, id string) (*Outcome, error) {
	return s.apply(ctx, id, models.OpComplete, "", UsageComplete)
}

// Cancel marks an errand Canceled
func (s *ErrandService) Cancel(ctx context.Context, id string) (*Outcome, error) {
	return s.apply(ctx, id, models.OpCancel, "", UsageCancel)
}

// SetPaid toggles the paid flag in any status, without touching status or time
func (s *ErrandService) SetPaid(ctx context.Context, id string, paid bool) (*Outcome, error) {
	usage := UsagePay
	if !paid {
		usage = UsageUnpay
	}
	h, rec, err := s.locate(ctx, id, usage)
	if err != nil {
		return nil, err
	}

	value := storage.FormatPaid(paid)
	if err := s.repo.WriteField(ctx, h, models.FieldPaid, value); err != nil {
		return nil, err
	}

	s.log.Info("Payment flag set", logger.String("errand_id", rec.ID), logger.Bool("paid", paid))
	return &Outcome{ErrandID: rec.ID, Field: models.FieldPaid, Value: value, Status: rec.Status}, nil
}

// VerifyOTP confirms handover: the errand becomes Delivered only when the
// code matches. Mismatches and repeat confirmations write nothing.
func (s *ErrandService) VerifyOTP(ctx context.Context, id, code string) (*Outcome, error) {
	supplied, ok := utils.NormalizeOTP(code)
	if !ok {
		return nil, usageError(UsageVerify)
	}
	h, rec, err := s.locate(ctx, id, UsageVerify)
	if err != nil {
		return nil, err
	}

	if rec.Status.Is(models.StatusDelivered) {
		return nil, apperrors.AlreadyDelivered(rec.ID)
	}
	stored, _ := utils.NormalizeOTP(rec.OTP)
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) != 1 {
		s.log.Info("OTP mismatch", logger.String("errand_id", rec.ID))
		return nil, apperrors.OtpMismatch(rec.ID)
	}

	return s.write(ctx, h, rec, models.OpVerifyOTP, "")
}

func (s *ErrandService) apply(ctx context.Context, id string, op models.Operation, label, usage string) (*Outcome, error) {
	h, rec, err := s.locate(ctx, id, usage)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, h, rec, op, label)
}

// write applies a status transition. The timestamp goes first and the status
// last, so a half-applied transition is repaired by repeating it.
func (s *ErrandService) write(ctx context.Context, h storage.RowHandle, rec *models.ErrandRecord, op models.Operation, label string) (*Outcome, error) {
	res, err := models.Transition(rec.Status, op, label)
	if err != nil {
		return nil, transitionError(err, rec, op)
	}

	out := &Outcome{ErrandID: rec.ID, Field: models.FieldStatus, Value: string(res.To), Status: res.To}
	if res.Stamp {
		out.UpdatedAt = models.FormatTimestamp(s.now(), s.loc)
		out.Stamped = true
		if err := s.repo.WriteField(ctx, h, models.FieldTimestamp, out.UpdatedAt); err != nil {
			return nil, err
		}
	}
	if res.Changed {
		if err := s.repo.WriteField(ctx, h, models.FieldStatus, string(res.To)); err != nil {
			return nil, err
		}
	}

	s.log.Info("Errand status changed",
		logger.String("errand_id", rec.ID),
		logger.String("operation", string(op)),
		logger.String("from", string(rec.Status)),
		logger.String("to", string(res.To)))
	return out, nil
}

func (s *ErrandService) locate(ctx context.Context, id, usage string) (storage.RowHandle, *models.ErrandRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, nil, usageError(usage)
	}
	h, err := s.repo.FindByIdentifier(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	rec, err := s.repo.ReadRow(ctx, h)
	if err != nil {
		return 0, nil, err
	}
	// rows shift when one above is deleted by hand between the two calls
	if rec.ID != id {
		return 0, nil, apperrors.NotFound(id)
	}
	return h, rec, nil
}

func usageError(usage string) *apperrors.AppError {
	return apperrors.InvalidArgument("Usage: " + usage)
}

func transitionError(err error, rec *models.ErrandRecord, op models.Operation) error {
	switch {
	case errors.Is(err, models.ErrAlreadyDelivered):
		return apperrors.AlreadyDelivered(rec.ID)
	case errors.Is(err, models.ErrTerminalStatus):
		return apperrors.InvalidTransition(rec.ID, string(rec.Status), string(op))
	case errors.Is(err, models.ErrInvalidLabel):
		return apperrors.InvalidArgument(fmt.Sprintf(
			"status must be 1 to %d printable characters. Usage: %s", models.MaxStatusLabelLength, UsageUpdate))
	}
	return apperrors.Internal("unexpected transition failure", err)
}
