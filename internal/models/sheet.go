package models

import (
	"gorm.io/gorm"
)

// SheetRow is one row of a spreadsheet-like tab kept in the database.
// Position is the 1-based row number; row 1 holds the header.
type SheetRow struct {
	gorm.Model
	Sheet    string `gorm:"not null;uniqueIndex:idx_sheet_position"`
	Position int    `gorm:"not null;uniqueIndex:idx_sheet_position"`
	Cells    string `gorm:"type:text;not null"` // JSON array of cell strings
}

// TableName keeps the table name stable regardless of the struct name
func (SheetRow) TableName() string {
	return "sheet_rows"
}
