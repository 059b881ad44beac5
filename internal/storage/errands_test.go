package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	"github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/models"
)

// flakyTable fails the next `failures` calls of every kind
type flakyTable struct {
	*MemoryTable
	failures int
	calls    int
}

var errBackend = errors.New("sheets API: 503")

func (f *flakyTable) fail() error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errBackend
	}
	return nil
}

func (f *flakyTable) Rows(ctx context.Context) ([]Row, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.MemoryTable.Rows(ctx)
}

func (f *flakyTable) UpdateCell(ctx context.Context, number, column int, value string) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.MemoryTable.UpdateCell(ctx, number, column, value)
}

func (f *flakyTable) AppendRow(ctx context.Context, values []string) (int, error) {
	if err := f.fail(); err != nil {
		return 0, err
	}
	return f.MemoryTable.AppendRow(ctx, values)
}

func sampleRecord(id string) *models.ErrandRecord {
	return &models.ErrandRecord{
		ID:              id,
		RequesterName:   "Olivia",
		ReceiverName:    "Paul",
		PickupLocation:  "Home Affairs",
		DropoffLocation: "French Embassy",
		Status:          models.StatusPending,
		OTP:             "0427",
		LastUpdatedAt:   "2025-11-02 09:15",
	}
}

func newStoreForTest(t *testing.T) (*ErrandStore, *MemoryTable) {
	t.Helper()
	table := NewMemoryTable(ErrandColumns)
	store := NewErrandStore(table, logger.NewNop())
	require.NoError(t, store.VerifySchema(context.Background()))
	return store, table
}

func TestErrandStore_AppendThenReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newStoreForTest(t)

	rec := sampleRecord("MEG-20251102-0001")
	h, err := store.AppendRow(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, RowHandle(2), h)

	found, err := store.FindByIdentifier(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, h, found)

	got, err := store.ReadRow(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestErrandStore_FindIsExactAndCaseSensitive(t *testing.T) {
	ctx := context.Background()
	store, _ := newStoreForTest(t)

	_, err := store.AppendRow(ctx, sampleRecord("MEG-20251102-0001"))
	require.NoError(t, err)

	for _, id := range []string{"meg-20251102-0001", "MEG-20251102-000", "#MEG-20251102-0001", ""} {
		_, err := store.FindByIdentifier(ctx, id)
		assert.ErrorIs(t, err, apperrors.ErrNotFound, id)
	}
}

func TestErrandStore_FindReturnsFirstMatch(t *testing.T) {
	ctx := context.Background()
	store, table := newStoreForTest(t)

	_, err := store.AppendRow(ctx, sampleRecord("DUP"))
	require.NoError(t, err)
	_, err = table.AppendRow(ctx, []string{"DUP", "someone else"})
	require.NoError(t, err)

	h, err := store.FindByIdentifier(ctx, "DUP")
	require.NoError(t, err)
	assert.Equal(t, RowHandle(2), h)
}

func TestErrandStore_WriteField(t *testing.T) {
	ctx := context.Background()
	store, _ := newStoreForTest(t)

	h, err := store.AppendRow(ctx, sampleRecord("A"))
	require.NoError(t, err)

	require.NoError(t, store.WriteField(ctx, h, models.FieldPaid, FormatPaid(true)))
	require.NoError(t, store.WriteField(ctx, h, models.FieldDriver, "Heino"))

	got, err := store.ReadRow(ctx, h)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.Equal(t, "Heino", got.Driver)

	err = store.WriteField(ctx, h, models.FieldOTP, "9999")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	err = store.WriteField(ctx, RowHandle(40), models.FieldStatus, "Delivered")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = store.WriteField(ctx, RowHandle(1), models.FieldStatus, "Delivered")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestErrandStore_StaleHandleAfterManualDelete(t *testing.T) {
	ctx := context.Background()
	store, table := newStoreForTest(t)

	h, err := store.AppendRow(ctx, sampleRecord("A"))
	require.NoError(t, err)
	table.DeleteRow(int(h))

	_, err = store.ReadRow(ctx, h)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestErrandStore_ListAllSkipsBlankRows(t *testing.T) {
	ctx := context.Background()
	store, table := newStoreForTest(t)

	_, err := store.AppendRow(ctx, sampleRecord("A"))
	require.NoError(t, err)
	_, err = table.AppendRow(ctx, []string{"", " ", ""})
	require.NoError(t, err)
	_, err = store.AppendRow(ctx, sampleRecord("B"))
	require.NoError(t, err)

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].ID)
	assert.Equal(t, "B", all[1].ID)
}

func TestErrandStore_VerifySchema(t *testing.T) {
	ctx := context.Background()

	t.Run("trailing empty columns accepted", func(t *testing.T) {
		header := append(append([]string{}, ErrandColumns...), "", "")
		store := NewErrandStore(NewMemoryTable(header), logger.NewNop())
		assert.NoError(t, store.VerifySchema(ctx))
	})

	t.Run("swapped columns rejected and latched", func(t *testing.T) {
		header := append([]string{}, ErrandColumns...)
		header[1], header[2] = header[2], header[1]
		store := NewErrandStore(NewMemoryTable(header), logger.NewNop())

		err := store.VerifySchema(ctx)
		assert.ErrorIs(t, err, apperrors.ErrSchemaMismatch)

		_, err = store.FindByIdentifier(ctx, "A")
		assert.ErrorIs(t, err, apperrors.ErrSchemaMismatch)
		_, err = store.ListAll(ctx)
		assert.ErrorIs(t, err, apperrors.ErrSchemaMismatch)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		store := NewErrandStore(NewMemoryTable(), logger.NewNop())
		assert.ErrorIs(t, store.VerifySchema(ctx), apperrors.ErrSchemaMismatch)
	})

	t.Run("bootstrap writes header into empty table", func(t *testing.T) {
		table := NewMemoryTable()
		store := NewErrandStore(table, logger.NewNop())
		require.NoError(t, store.Bootstrap(ctx))

		header, err := table.Header(ctx)
		require.NoError(t, err)
		assert.Equal(t, ErrandColumns, header)
	})

	t.Run("bootstrap never overwrites a wrong header", func(t *testing.T) {
		store := NewErrandStore(NewMemoryTable([]string{"ID", "Name"}), logger.NewNop())
		assert.ErrorIs(t, store.Bootstrap(ctx), apperrors.ErrSchemaMismatch)
	})
}

func TestErrandStore_RetriesIdempotentCallsOnce(t *testing.T) {
	ctx := context.Background()
	table := &flakyTable{MemoryTable: NewMemoryTable(ErrandColumns)}
	store := NewErrandStore(table, logger.NewNop())
	require.NoError(t, store.VerifySchema(ctx))

	_, err := store.AppendRow(ctx, sampleRecord("A"))
	require.NoError(t, err)

	table.failures, table.calls = 1, 0
	h, err := store.FindByIdentifier(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, table.calls)

	table.failures, table.calls = 2, 0
	err = store.WriteField(ctx, h, models.FieldStatus, "Delivered")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Equal(t, 2, table.calls, "a failed call is retried exactly once")
}

func TestErrandStore_AppendIsNotRetried(t *testing.T) {
	ctx := context.Background()
	table := &flakyTable{MemoryTable: NewMemoryTable(ErrandColumns)}
	store := NewErrandStore(table, logger.NewNop())
	require.NoError(t, store.VerifySchema(ctx))

	table.failures = 1
	_, err := store.AppendRow(ctx, sampleRecord("A"))
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.Equal(t, 1, table.calls)
}

func TestParsePaid(t *testing.T) {
	for _, v := range []string{"Yes", "yes", " Y ", "TRUE", "1"} {
		assert.True(t, ParsePaid(v), v)
	}
	for _, v := range []string{"No", "", "n", "maybe"} {
		assert.False(t, ParsePaid(v), v)
	}
}
