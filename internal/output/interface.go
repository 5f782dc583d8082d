package output

import (
	"fmt"
	"io"
	"os"
)

// Supported formats.
const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// RowWriter defines the interface for writing report rows.
// Every implementation writes rows through to the underlying writer
// as they arrive.
type RowWriter interface {
	// WriteRow writes one record. It must have one cell per column.
	WriteRow(row []string) error

	// Count returns the number of rows written.
	Count() int

	// Close flushes and closes the underlying file, if any.
	Close() error
}

// New creates a RowWriter for format over w. header only applies to CSV.
func New(format string, w io.Writer, columns []Column, header bool) (RowWriter, error) {
	switch format {
	case FormatCSV, "":
		return NewCSVWriter(w, columns, header)
	case FormatNDJSON:
		return NewNDJSONWriter(w, columns), nil
	}
	return nil, fmt.Errorf("unsupported output format %q (want %s or %s)", format, FormatCSV, FormatNDJSON)
}

// Open creates a RowWriter writing to path, or to stdout when path is
// empty or "-". Close closes the file.
func Open(path, format string, columns []Column, header bool) (RowWriter, error) {
	if path == "" || path == "-" {
		return New(format, os.Stdout, columns, header)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	w, err := New(format, file, columns, header)
	if err != nil {
		file.Close()
		return nil, err
	}
	switch w := w.(type) {
	case *CSVWriter:
		w.closeFunc = file.Close
	case *NDJSONWriter:
		w.closeFunc = file.Close
	}
	return w, nil
}

// Kind is the JSON type of a column's cells.
type Kind int

const (
	String Kind = iota
	Int
	Bool
)

// Column names one cell of a row.
type Column struct {
	Name string
	Kind Kind
}

// Names returns the column names in order.
func Names(columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Name
	}
	return out
}

// RelationshipColumns are the columns of a following, followers or blocks export.
var RelationshipColumns = []Column{
	{Name: "username", Kind: String},
	{Name: "user_id", Kind: Int},
}

// BlockOutcomeColumns are the columns of a block run's per-target results.
var BlockOutcomeColumns = []Column{
	{Name: "username", Kind: String},
	{Name: "status", Kind: String},
	{Name: "reason", Kind: String},
}

// ContributorColumns returns the contributor report columns. Enriched
// reports carry four extra columns.
func ContributorColumns(enriched bool) []Column {
	cols := []Column{
		{Name: "username", Kind: String},
		{Name: "user_id", Kind: Int},
		{Name: "pr_count", Kind: Int},
	}
	if !enriched {
		return cols
	}
	return append(cols,
		Column{Name: "days_to_first_pr", Kind: Int},
		Column{Name: "display_name", Kind: String},
		Column{Name: "caller_follows", Kind: Bool},
		Column{Name: "followed_by_caller", Kind: Bool},
	)
}

func checkWidth(row []string, columns []Column) error {
	if len(row) != len(columns) {
		return fmt.Errorf("row has %d cells, want %d", len(row), len(columns))
	}
	return nil
}
