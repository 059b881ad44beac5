package storage

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ananth-NQI/errandguy-backend/internal/apperrors"
	applog "github.com/Ananth-NQI/errandguy-backend/internal/logger"
	"github.com/Ananth-NQI/errandguy-backend/internal/models"
)

func newDatabaseTableForTest(t *testing.T, sheet string) (*DatabaseTable, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	table := NewDatabaseTable(db, sheet)
	if err := table.Migrate(); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return table, db
}

func TestDatabaseTable_AppendAndReadRows(t *testing.T) {
	ctx := context.Background()
	table, _ := newDatabaseTableForTest(t, "Errand Log")

	header, err := table.Header(ctx)
	require.NoError(t, err)
	assert.Nil(t, header)

	n, err := table.AppendRow(ctx, ErrandColumns)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = table.AppendRow(ctx, []string{"A", "Olivia"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = table.AppendRow(ctx, []string{"B", "Thabo"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	header, err = table.Header(ctx)
	require.NoError(t, err)
	assert.Equal(t, ErrandColumns, header)

	rows, err := table.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{Number: 2, Cells: []string{"A", "Olivia"}}, rows[0])
	assert.Equal(t, Row{Number: 3, Cells: []string{"B", "Thabo"}}, rows[1])
}

func TestDatabaseTable_UpdateCellPadsRow(t *testing.T) {
	ctx := context.Background()
	table, _ := newDatabaseTableForTest(t, "Errand Log")

	_, err := table.AppendRow(ctx, ErrandColumns)
	require.NoError(t, err)
	n, err := table.AppendRow(ctx, []string{"A"})
	require.NoError(t, err)

	require.NoError(t, table.UpdateCell(ctx, n, 3, "Paul"))

	cells, err := table.Row(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "", "Paul"}, cells)

	assert.ErrorIs(t, table.UpdateCell(ctx, 99, 1, "x"), ErrRowOutOfRange)
	_, err = table.Row(ctx, 99)
	assert.ErrorIs(t, err, ErrRowOutOfRange)
}

func TestDatabaseTable_SheetsAreIsolated(t *testing.T) {
	ctx := context.Background()
	log, db := newDatabaseTableForTest(t, "Errand Log")
	other := NewDatabaseTable(db, "Archive")

	_, err := log.AppendRow(ctx, ErrandColumns)
	require.NoError(t, err)

	header, err := other.Header(ctx)
	require.NoError(t, err)
	assert.Nil(t, header)

	n, err := other.AppendRow(ctx, []string{"only here"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDatabaseTable_BacksErrandStore(t *testing.T) {
	ctx := context.Background()
	table, _ := newDatabaseTableForTest(t, "Errand Log")
	store := NewErrandStore(table, applog.NewNop())
	require.NoError(t, store.Bootstrap(ctx))

	rec := sampleRecord("MEG-20251102-0042")
	h, err := store.AppendRow(ctx, rec)
	require.NoError(t, err)

	require.NoError(t, store.WriteField(ctx, h, models.FieldStatus, string(models.StatusCanceled)))

	found, err := store.FindByIdentifier(ctx, rec.ID)
	require.NoError(t, err)
	got, err := store.ReadRow(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCanceled, got.Status)
	assert.Equal(t, rec.OTP, got.OTP)

	_, err = store.FindByIdentifier(ctx, "MEG-20251102-0043")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, store.Ping(ctx))
}
