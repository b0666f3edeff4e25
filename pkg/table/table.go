// Package table provides an ordered-column, time-indexed tabular structure
// used for backtest series and other CSV artifacts. Cells are kept in their
// CSV text form; typing is applied at the edges (index promotion, timestamp
// coercion) rather than per cell.
package table

import (
	"fmt"
	"sort"
	"time"
)

// Table holds rows of string cells under an ordered set of column labels.
// When IndexName is non-empty the rows carry a time-valued key that is
// written back as the first CSV column.
type Table struct {
	// IndexName is the label of the index column. Empty means the table is
	// positional and row keys are meaningless.
	IndexName string

	// Columns are the data column labels in order, excluding the index.
	Columns []string

	// Rows are the data rows, aligned with Columns.
	Rows []Row
}

// Row is a single table row.
type Row struct {
	// Key is the index value of the row. Zero when the table has no index.
	Key time.Time

	// Cells are the data cells, aligned with the table's Columns.
	Cells []string
}

// New returns an empty table with the given index name and column labels.
func New(indexName string, columns ...string) *Table {
	return &Table{
		IndexName: indexName,
		Columns:   append([]string(nil), columns...),
	}
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// EnsureColumn returns the position of the named column, appending it and
// padding existing rows with empty cells when it does not exist yet.
func (t *Table) EnsureColumn(name string) int {
	if i, ok := t.ColumnIndex(name); ok {
		return i
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i].Cells = append(t.Rows[i].Cells, "")
	}
	return len(t.Columns) - 1
}

// SetConstant sets the named column to the same value on every row,
// creating the column if needed.
func (t *Table) SetConstant(name, value string) {
	i := t.EnsureColumn(name)
	for r := range t.Rows {
		t.Rows[r].Cells[i] = value
	}
}

// Cell returns the cell of the named column on the given row, or the empty
// string when the column does not exist.
func (t *Table) Cell(row int, column string) string {
	if i, ok := t.ColumnIndex(column); ok {
		return t.Rows[row].Cells[i]
	}
	return ""
}

// AppendRow adds a row. The cell slice must be aligned with Columns.
func (t *Table) AppendRow(key time.Time, cells []string) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Columns))
	}
	t.Rows = append(t.Rows, Row{Key: key, Cells: cells})
	return nil
}

// RowIndex returns the position of the first row with the given key.
func (t *Table) RowIndex(key time.Time) (int, bool) {
	for i, r := range t.Rows {
		if r.Key.Equal(key) {
			return i, true
		}
	}
	return 0, false
}

// HasKey reports whether any row carries the given key.
func (t *Table) HasKey(key time.Time) bool {
	_, ok := t.RowIndex(key)
	return ok
}

// MaxKey returns the largest row key. ok is false for an empty table.
func (t *Table) MaxKey() (max time.Time, ok bool) {
	for _, r := range t.Rows {
		if !ok || r.Key.After(max) {
			max = r.Key
			ok = true
		}
	}
	return max, ok
}

// SortByKey orders rows by ascending key, preserving the relative order of
// equal keys.
func (t *Table) SortByKey() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Key.Before(t.Rows[j].Key)
	})
}

// PromoteIndex turns the named data column into the table's time index.
// Cell values are parsed with the given layouts (DefaultTimeLayouts when
// none are supplied) and the column is removed from the data columns.
func (t *Table) PromoteIndex(name string, layouts ...string) error {
	col, ok := t.ColumnIndex(name)
	if !ok {
		return fmt.Errorf("column %q not present", name)
	}
	keys := make([]time.Time, len(t.Rows))
	for i, r := range t.Rows {
		key, err := ParseTime(r.Cells[col], layouts...)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		keys[i] = key
	}
	for i := range t.Rows {
		t.Rows[i].Key = keys[i]
		t.Rows[i].Cells = append(t.Rows[i].Cells[:col:col], t.Rows[i].Cells[col+1:]...)
	}
	t.Columns = append(t.Columns[:col:col], t.Columns[col+1:]...)
	t.IndexName = name
	return nil
}

// CoerceTimeColumn re-encodes every cell of the named column as an RFC 3339
// timestamp, parsing with the given layouts. Missing column is an error.
func (t *Table) CoerceTimeColumn(name string, layouts ...string) error {
	col, ok := t.ColumnIndex(name)
	if !ok {
		return fmt.Errorf("column %q not present", name)
	}
	for i := range t.Rows {
		ts, err := ParseTime(t.Rows[i].Cells[col], layouts...)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		t.Rows[i].Cells[col] = FormatTime(ts)
	}
	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		IndexName: t.IndexName,
		Columns:   append([]string(nil), t.Columns...),
		Rows:      make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = Row{Key: r.Key, Cells: append([]string(nil), r.Cells...)}
	}
	return out
}
