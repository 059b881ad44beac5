package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/models"
)

// ErrandColumns is the header row of the errand log, in column order
var ErrandColumns = []string{
	"Errand ID",
	"Requester Name",
	"Receiver Name",
	"Pickup",
	"Drop-off",
	"Status",
	"OTP",
	"Driver",
	"Timestamp",
	"Paid (Y/N)",
}

// column indexes, 1-based like the sheet
var fieldColumns = map[models.Field]int{
	models.FieldID:        1,
	models.FieldRequester: 2,
	models.FieldReceiver:  3,
	models.FieldPickup:    4,
	models.FieldDropoff:   5,
	models.FieldStatus:    6,
	models.FieldOTP:       7,
	models.FieldDriver:    8,
	models.FieldTimestamp: 9,
	models.FieldPaid:      10,
}

// RowHandle addresses one errand row. It is only valid until the table is
// edited by someone else; a stale handle yields NotFound or a stale write.
type RowHandle int

// ErrandStore maps errand records onto the errand log table
type ErrandStore struct {
	table Table
	log   *logger.Logger

	mu        sync.RWMutex
	schemaErr error
}

// NewErrandStore wraps a table. Call VerifySchema (or Bootstrap) before serving.
func NewErrandStore(table Table, log *logger.Logger) *ErrandStore {
	return &ErrandStore{table: table, log: log.Named("errand_store")}
}

// Bootstrap writes the header into an empty table, then verifies the schema
func (s *ErrandStore) Bootstrap(ctx context.Context) error {
	header, err := s.table.Header(ctx)
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}
	if header == nil {
		if _, err := s.table.AppendRow(ctx, ErrandColumns); err != nil {
			return apperrors.StoreUnavailable(err)
		}
		s.log.Info("Wrote errand log header to empty table")
	}
	return s.VerifySchema(ctx)
}

// VerifySchema compares the header row with ErrandColumns. A mismatch is
// latched: every later operation fails with SchemaMismatch.
func (s *ErrandStore) VerifySchema(ctx context.Context) error {
	var header []string
	err := s.retryOnce(ctx, "read header", func() error {
		var err error
		header, err = s.table.Header(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if problem := compareHeader(header); problem != "" {
		schemaErr := apperrors.SchemaMismatch("errand log header mismatch: " + problem)
		s.mu.Lock()
		s.schemaErr = schemaErr
		s.mu.Unlock()
		s.log.Error("Errand log schema mismatch", logger.String("problem", problem))
		return schemaErr
	}

	s.mu.Lock()
	s.schemaErr = nil
	s.mu.Unlock()
	return nil
}

// FindByIdentifier scans the id column for an exact, case-sensitive match
func (s *ErrandStore) FindByIdentifier(ctx context.Context, id string) (RowHandle, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	if id == "" {
		return 0, apperrors.NotFound(id)
	}

	rows, err := s.rows(ctx)
	if err != nil {
		return 0, err
	}
	col := fieldColumns[models.FieldID] - 1
	for _, r := range rows {
		if len(r.Cells) > col && r.Cells[col] == id {
			return RowHandle(r.Number), nil
		}
	}
	return 0, apperrors.NotFound(id)
}

// ReadRow decodes the row behind a handle
func (s *ErrandStore) ReadRow(ctx context.Context, h RowHandle) (*models.ErrandRecord, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	var cells []string
	err := s.retryOnce(ctx, "read row", func() error {
		var err error
		cells, err = s.table.Row(ctx, int(h))
		return err
	})
	if errors.Is(err, ErrRowOutOfRange) || (err == nil && int(h) < 2) {
		return nil, apperrors.NotFound(fmt.Sprintf("at row %d", h))
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(cells), nil
}

// WriteField rewrites one mutable field of a row
func (s *ErrandStore) WriteField(ctx context.Context, h RowHandle, field models.Field, value string) error {
	if err := s.guard(); err != nil {
		return err
	}
	if !field.Mutable() {
		return apperrors.InvalidArgument(fmt.Sprintf("field %s cannot be changed after creation", field))
	}
	if int(h) < 2 {
		return apperrors.NotFound(fmt.Sprintf("at row %d", h))
	}

	err := s.retryOnce(ctx, "write field", func() error {
		return s.table.UpdateCell(ctx, int(h), fieldColumns[field], value)
	})
	if errors.Is(err, ErrRowOutOfRange) {
		return apperrors.NotFound(fmt.Sprintf("at row %d", h))
	}
	return err
}

// AppendRow adds a new errand. Appends are not retried: a timed out append
// may have landed, and a second one would duplicate the errand.
func (s *ErrandStore) AppendRow(ctx context.Context, rec *models.ErrandRecord) (RowHandle, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}

	number, err := s.table.AppendRow(ctx, encodeRecord(rec))
	if err != nil {
		s.log.Error("Append to errand log failed", logger.String("errand_id", rec.ID), logger.Err(err))
		return 0, apperrors.StoreUnavailable(err)
	}
	return RowHandle(number), nil
}

// ListAll decodes every errand row
func (s *ErrandStore) ListAll(ctx context.Context) ([]*models.ErrandRecord, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ErrandRecord, 0, len(rows))
	for _, r := range rows {
		if isBlank(r.Cells) {
			continue
		}
		out = append(out, decodeRecord(r.Cells))
	}
	return out, nil
}

// Ping checks the backing table
func (s *ErrandStore) Ping(ctx context.Context) error {
	if err := s.table.Ping(ctx); err != nil {
		return apperrors.StoreUnavailable(err)
	}
	return s.guard()
}

func (s *ErrandStore) rows(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := s.retryOnce(ctx, "scan rows", func() error {
		var err error
		rows, err = s.table.Rows(ctx)
		return err
	})
	return rows, err
}

func (s *ErrandStore) guard() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schemaErr
}

// retryOnce runs an idempotent table call, retrying a failure a single time.
// ErrRowOutOfRange is returned as is; other failures become StoreUnavailable.
func (s *ErrandStore) retryOnce(ctx context.Context, op string, fn func() error) error {
	err := fn()
	if err == nil || errors.Is(err, ErrRowOutOfRange) {
		return err
	}
	if ctx.Err() != nil {
		return apperrors.StoreUnavailable(err)
	}

	s.log.Warn("Errand log call failed, retrying once", logger.String("op", op), logger.Err(err))
	err = fn()
	if err == nil || errors.Is(err, ErrRowOutOfRange) {
		return err
	}
	s.log.Error("Errand log call failed", logger.String("op", op), logger.Err(err))
	return apperrors.StoreUnavailable(err)
}

func compareHeader(header []string) string {
	if header == nil {
		return "header row is missing"
	}
	got := make([]string, 0, len(header))
	for _, h := range header {
		got = append(got, strings.TrimSpace(h))
	}
	// trailing empty cells are how sheets report unused columns
	for len(got) > 0 && got[len(got)-1] == "" {
		got = got[:len(got)-1]
	}
	if len(got) != len(ErrandColumns) {
		return fmt.Sprintf("expected %d columns, found %d", len(ErrandColumns), len(got))
	}
	for i, want := range ErrandColumns {
		if got[i] != want {
			return fmt.Sprintf("column %d is %q, expected %q", i+1, got[i], want)
		}
	}
	return ""
}

func encodeRecord(rec *models.ErrandRecord) []string {
	cells := make([]string, len(ErrandColumns))
	cells[fieldColumns[models.FieldID]-1] = rec.ID
	cells[fieldColumns[models.FieldRequester]-1] = rec.RequesterName
	cells[fieldColumns[models.FieldReceiver]-1] = rec.ReceiverName
	cells[fieldColumns[models.FieldPickup]-1] = rec.PickupLocation
	cells[fieldColumns[models.FieldDropoff]-1] = rec.DropoffLocation
	cells[fieldColumns[models.FieldStatus]-1] = string(rec.Status)
	cells[fieldColumns[models.FieldOTP]-1] = rec.OTP
	cells[fieldColumns[models.FieldDriver]-1] = rec.Driver
	cells[fieldColumns[models.FieldTimestamp]-1] = rec.LastUpdatedAt
	cells[fieldColumns[models.FieldPaid]-1] = FormatPaid(rec.Paid)
	return cells
}

func decodeRecord(cells []string) *models.ErrandRecord {
	cell := func(f models.Field) string {
		i := fieldColumns[f] - 1
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	return &models.ErrandRecord{
		ID:              cell(models.FieldID),
		RequesterName:   cell(models.FieldRequester),
		ReceiverName:    cell(models.FieldReceiver),
		PickupLocation:  cell(models.FieldPickup),
		DropoffLocation: cell(models.FieldDropoff),
		Status:          models.Status(cell(models.FieldStatus)),
		OTP:             cell(models.FieldOTP),
		Driver:          cell(models.FieldDriver),
		LastUpdatedAt:   cell(models.FieldTimestamp),
		Paid:            ParsePaid(cell(models.FieldPaid)),
	}
}

// FormatPaid renders the paid flag the way the errand log stores it
func FormatPaid(paid bool) string {
	if paid {
		return "Yes"
	}
	return "No"
}

// ParsePaid reads the paid column, tolerating manual edits
func ParsePaid(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
