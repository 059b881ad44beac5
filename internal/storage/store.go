package storage

import (
	"context"
	"errors"
)

// ErrRowOutOfRange is returned when a row number points past the table
var ErrRowOutOfRange = errors.New("row out of range")

// Row is one data row of a table together with its 1-based row number
type Row struct {
	Number int
	Cells  []string
}

// Table is the spreadsheet-shaped backing store: 1-based rows and columns,
// row 1 is the header. It has no secondary indexes; lookups are scans.
type Table interface {
	// Header returns row 1, or nil when the table is empty
	Header(ctx context.Context) ([]string, error)
	// Rows returns every data row (row 2 onwards) in row order
	Rows(ctx context.Context) ([]Row, error)
	// Row returns one row by number
	Row(ctx context.Context, number int) ([]string, error)
	// UpdateCell rewrites a single cell, padding the row if needed
	UpdateCell(ctx context.Context, number, column int, value string) error
	// AppendRow adds a row after the last one and returns its number
	AppendRow(ctx context.Context, values []string) (int, error)
	// Ping checks that the table can be reached
	Ping(ctx context.Context) error
}

func setCell(cells []string, column int, value string) []string {
	for len(cells) < column {
		cells = append(cells, "")
	}
	cells[column-1] = value
	return cells
}
