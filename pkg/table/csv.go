package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// DefaultTimeLayouts are the layouts tried, in order, when parsing index
// keys and timestamp cells. The month and year layouts normalize
// period-style keys ("2021-03", "2021") to the instant the period starts.
var DefaultTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ReadOptions configure CSV decoding. They are pass-through configuration:
// the registry client forwards them without interpretation.
type ReadOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// IndexColumn names a column to promote to the table's time index.
	// Empty leaves the table positional.
	IndexColumn string

	// TimeColumns are data columns whose cells are re-encoded as RFC 3339.
	TimeColumns []string

	// TimeLayouts override DefaultTimeLayouts for key and cell parsing.
	TimeLayouts []string
}

// WriteOptions configure CSV encoding.
type WriteOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// TimeLayout is the layout used for index keys. Empty means RFC 3339.
	TimeLayout string
}

// ParseTime parses a timestamp cell with the given layouts, falling back to
// DefaultTimeLayouts when none are supplied.
func ParseTime(s string, layouts ...string) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a timestamp", s)
}

// FormatTime encodes a timestamp in the canonical cell form.
func FormatTime(ts time.Time) string {
	return ts.Format(time.RFC3339)
}

// Decode reads a CSV document with a header row into a positional table.
// Index promotion and time coercion follow the options.
func Decode(r io.Reader, opts ReadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv document is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	t := New("", header...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		if err := t.AppendRow(time.Time{}, record); err != nil {
			return nil, err
		}
	}

	if opts.IndexColumn != "" {
		if err := t.PromoteIndex(opts.IndexColumn, opts.TimeLayouts...); err != nil {
			return nil, fmt.Errorf("failed to promote index: %w", err)
		}
	}
	for _, name := range opts.TimeColumns {
		if err := t.CoerceTimeColumn(name, opts.TimeLayouts...); err != nil {
			return nil, fmt.Errorf("failed to coerce column %q: %w", name, err)
		}
	}
	return t, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte, opts ReadOptions) (*Table, error) {
	return Decode(bytes.NewReader(data), opts)
}

// Encode writes the table as a CSV document with a header row. An indexed
// table writes its keys as the first column under IndexName.
func Encode(w io.Writer, t *Table, opts WriteOptions) error {
	cw := csv.NewWriter(w)
	if opts.Comma != 0 {
		cw.Comma = opts.Comma
	}
	layout := opts.TimeLayout
	if layout == "" {
		layout = time.RFC3339
	}

	indexed := t.IndexName != ""
	header := t.Columns
	if indexed {
		header = append([]string{t.IndexName}, t.Columns...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range t.Rows {
		record := row.Cells
		if indexed {
			record = append([]string{row.Key.Format(layout)}, row.Cells...)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
