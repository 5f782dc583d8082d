package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sync"
)

// CSVWriter writes rows as comma-separated values, quoting cells only
// when needed. It is safe for concurrent use.
type CSVWriter struct {
	mu        sync.Mutex
	csv       *csv.Writer
	columns   []Column
	count     int
	closeFunc func() error
}

// NewCSVWriter creates a CSV writer. With header set the column names are
// written first.
func NewCSVWriter(w io.Writer, columns []Column, header bool) (*CSVWriter, error) {
	cw := &CSVWriter{csv: csv.NewWriter(w), columns: columns}
	if header {
		if err := cw.write(Names(columns)); err != nil {
			return nil, err
		}
	}
	return cw, nil
}

// WriteRow writes one record and flushes it.
func (w *CSVWriter) WriteRow(row []string) error {
	if err := checkWidth(row, w.columns); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.write(row); err != nil {
		return err
	}
	w.count++
	return nil
}

func (w *CSVWriter) write(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Count returns the number of rows written, excluding the header.
func (w *CSVWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes pending output and closes the underlying file, if any.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	if w.closeFunc != nil {
		return w.closeFunc()
	}
	return nil
}
