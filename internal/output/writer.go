package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// NDJSONWriter writes rows as newline-delimited JSON objects.
// It is safe for concurrent use.
type NDJSONWriter struct {
	mu        sync.Mutex
	output    io.Writer
	columns   []Column
	keys      [][]byte
	buf       bytes.Buffer
	count     int
	closeFunc func() error
}

// NewNDJSONWriter creates a new NDJSON writer that writes to the specified output.
func NewNDJSONWriter(w io.Writer, columns []Column) *NDJSONWriter {
	keys := make([][]byte, len(columns))
	for i, c := range columns {
		keys[i], _ = json.Marshal(c.Name)
	}
	return &NDJSONWriter{output: w, columns: columns, keys: keys}
}

// WriteRow writes a single row as one JSON object.
// Each row is immediately written to the output.
func (w *NDJSONWriter) WriteRow(row []string) error {
	if err := checkWidth(row, w.columns); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Reset()
	w.buf.WriteByte('{')
	for i, cell := range row {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.buf.Write(w.keys[i])
		w.buf.WriteByte(':')
		if err := encodeCell(&w.buf, w.columns[i], cell); err != nil {
			return err
		}
	}
	w.buf.WriteString("}\n")

	if _, err := w.output.Write(w.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.count++
	return nil
}

func encodeCell(buf *bytes.Buffer, col Column, cell string) error {
	if cell == "" {
		buf.WriteString("null")
		return nil
	}
	switch col.Kind {
	case Int:
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			return fmt.Errorf("column %s: %q is not an integer", col.Name, cell)
		}
		buf.WriteString(cell)
	case Bool:
		v, err := strconv.ParseBool(cell)
		if err != nil {
			return fmt.Errorf("column %s: %q is not a boolean", col.Name, cell)
		}
		buf.WriteString(strconv.FormatBool(v))
	default:
		b, err := json.Marshal(cell)
		if err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
		buf.Write(b)
	}
	return nil
}

// Count returns the number of rows written.
func (w *NDJSONWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close closes the underlying writer if it's a file.
func (w *NDJSONWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closeFunc != nil {
		return w.closeFunc()
	}
	return nil
}
