package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/errandguy-backend/internal/models"
)

// DatabaseTable keeps one named sheet in the sheet_rows table
type DatabaseTable struct {
	db    *gorm.DB
	sheet string
}

// NewDatabaseTable creates a table view over the given sheet name
func NewDatabaseTable(db *gorm.DB, sheet string) *DatabaseTable {
	return &DatabaseTable{db: db, sheet: sheet}
}

// Migrate creates the sheet_rows table if needed
func (d *DatabaseTable) Migrate() error {
	return d.db.AutoMigrate(&models.SheetRow{})
}

func (d *DatabaseTable) Header(ctx context.Context) ([]string, error) {
	cells, err := d.Row(ctx, 1)
	if errors.Is(err, ErrRowOutOfRange) {
		return nil, nil
	}
	return cells, err
}

func (d *DatabaseTable) Rows(ctx context.Context) ([]Row, error) {
	var rows []models.SheetRow
	err := d.db.WithContext(ctx).
		Where("sheet = ? AND position > 1", d.sheet).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		cells, err := decodeCells(r.Cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r.Position, err)
		}
		out = append(out, Row{Number: r.Position, Cells: cells})
	}
	return out, nil
}

func (d *DatabaseTable) Row(ctx context.Context, number int) ([]string, error) {
	row, err := d.find(d.db.WithContext(ctx), number)
	if err != nil {
		return nil, err
	}
	return decodeCells(row.Cells)
}

func (d *DatabaseTable) UpdateCell(ctx context.Context, number, column int, value string) error {
	if column < 1 {
		return ErrRowOutOfRange
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := d.find(tx, number)
		if err != nil {
			return err
		}
		cells, err := decodeCells(row.Cells)
		if err != nil {
			return err
		}
		encoded, err := encodeCells(setCell(cells, column, value))
		if err != nil {
			return err
		}
		return tx.Model(row).Update("cells", encoded).Error
	})
}

func (d *DatabaseTable) AppendRow(ctx context.Context, values []string) (int, error) {
	encoded, err := encodeCells(values)
	if err != nil {
		return 0, err
	}

	var position int
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&models.SheetRow{}).
			Where("sheet = ?", d.sheet).
			Select("COALESCE(MAX(position), 0)").
			Scan(&last).Error; err != nil {
			return err
		}
		position = last + 1
		// the unique (sheet, position) index rejects a concurrent append
		return tx.Create(&models.SheetRow{Sheet: d.sheet, Position: position, Cells: encoded}).Error
	})
	if err != nil {
		return 0, err
	}
	return position, nil
}

func (d *DatabaseTable) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DatabaseTable) find(tx *gorm.DB, number int) (*models.SheetRow, error) {
	var row models.SheetRow
	err := tx.Where("sheet = ? AND position = ?", d.sheet, number).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRowOutOfRange
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func encodeCells(cells []string) (string, error) {
	if cells == nil {
		cells = []string{}
	}
	b, err := json.Marshal(cells)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeCells(raw string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("decode cells: %w", err)
	}
	return cells, nil
}
