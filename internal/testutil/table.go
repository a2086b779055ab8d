package testutil

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTable is an in-memory stand-in for the remote table API. Rows are
// body rows only (no header) and keep whatever width they were written with.
type MemoryTable struct {
	mu     sync.Mutex
	tables map[string][][]string

	Reads   int
	Appends int
	Writes  int
	Deletes int

	// Err, when set, is returned by every call touching the table it names.
	Err map[string]error

	// WriteErr is returned by WriteRow for the given key column value (column 0).
	WriteErr map[string]error
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{tables: make(map[string][][]string)}
}

// Seed replaces the body rows of table.
func (m *MemoryTable) Seed(table string, rows ...[]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]string, 0, len(rows))
	for _, r := range rows {
		copied = append(copied, append([]string(nil), r...))
	}
	m.tables[table] = copied
}

// Rows returns a copy of the body rows of table.
func (m *MemoryTable) Rows(table string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyRows(m.tables[table])
}

func (m *MemoryTable) ReadRows(_ context.Context, table string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Err[table]; err != nil {
		return nil, err
	}
	m.Reads++
	return copyRows(m.tables[table]), nil
}

func (m *MemoryTable) AppendRow(_ context.Context, table string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Err[table]; err != nil {
		return err
	}
	m.Appends++
	m.tables[table] = append(m.tables[table], append([]string(nil), row...))
	return nil
}

func (m *MemoryTable) WriteRow(_ context.Context, table string, rowIndex int, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Err[table]; err != nil {
		return err
	}
	if len(row) > 0 {
		if err := m.WriteErr[row[0]]; err != nil {
			return err
		}
	}
	rows := m.tables[table]
	if rowIndex < 0 || rowIndex >= len(rows) {
		return fmt.Errorf("row %d out of range", rowIndex)
	}
	m.Writes++
	current := rows[rowIndex]
	next := append([]string(nil), row...)
	// a ranged write leaves columns past the written range untouched
	if len(current) > len(next) {
		next = append(next, current[len(next):]...)
	}
	rows[rowIndex] = next
	return nil
}

func (m *MemoryTable) DeleteRow(_ context.Context, table string, rowIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Err[table]; err != nil {
		return err
	}
	rows := m.tables[table]
	if rowIndex < 0 || rowIndex >= len(rows) {
		return fmt.Errorf("row %d out of range", rowIndex)
	}
	m.Deletes++
	m.tables[table] = append(rows[:rowIndex], rows[rowIndex+1:]...)
	return nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, append([]string(nil), r...))
	}
	return out
}
