package storage

import (
	"context"
	"sync"
)

// MemoryTable holds the errand log in memory for local runs and tests
type MemoryTable struct {
	mu   sync.RWMutex
	rows [][]string // rows[0] is row 1
}

// NewMemoryTable creates a table pre-filled with the given rows (header first)
func NewMemoryTable(rows ...[]string) *MemoryTable {
	t := &MemoryTable{}
	for _, r := range rows {
		t.rows = append(t.rows, copyCells(r))
	}
	return t
}

func (m *MemoryTable) Header(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.rows) == 0 {
		return nil, nil
	}
	return copyCells(m.rows[0]), nil
}

func (m *MemoryTable) Rows(ctx context.Context) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Row
	for i := 1; i < len(m.rows); i++ {
		out = append(out, Row{Number: i + 1, Cells: copyCells(m.rows[i])})
	}
	return out, nil
}

func (m *MemoryTable) Row(ctx context.Context, number int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if number < 1 || number > len(m.rows) {
		return nil, ErrRowOutOfRange
	}
	return copyCells(m.rows[number-1]), nil
}

func (m *MemoryTable) UpdateCell(ctx context.Context, number, column int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if number < 1 || number > len(m.rows) || column < 1 {
		return ErrRowOutOfRange
	}
	m.rows[number-1] = setCell(m.rows[number-1], column, value)
	return nil
}

func (m *MemoryTable) AppendRow(ctx context.Context, values []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows = append(m.rows, copyCells(values))
	return len(m.rows), nil
}

func (m *MemoryTable) Ping(ctx context.Context) error {
	return nil
}

// DeleteRow removes a row and shifts the following ones up, the way a manual
// edit of the sheet would.
func (m *MemoryTable) DeleteRow(number int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if number < 1 || number > len(m.rows) {
		return
	}
	m.rows = append(m.rows[:number-1], m.rows[number:]...)
}

func copyCells(cells []string) []string {
	out := make([]string, len(cells))
	copy(out, cells)
	return out
}
