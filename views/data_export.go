package views

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"sync"

	"sample-monitor/models"
)

// CSVWriter is a concurrency-safe, buffered CSV writer.
type CSVWriter struct {
	mu   sync.Mutex
	buf  *bufio.Writer
	csv  *csv.Writer
	rows uint64
}

// NewCSVWriter wraps w and writes the header row, if any.
func NewCSVWriter(w io.Writer, bufSizeBytes int, header []string) (*CSVWriter, error) {
	if bufSizeBytes <= 0 {
		bufSizeBytes = 256 * 1024 // 256 KB default
	}
	bw := bufio.NewWriterSize(w, bufSizeBytes)
	cw := csv.NewWriter(bw)

	if len(header) > 0 {
		if err := cw.Write(header); err != nil {
			return nil, fmt.Errorf("csv write header: %w", err)
		}
	}
	return &CSVWriter{buf: bw, csv: cw}, nil
}

// WriteRow appends a single CSV row. Thread-safe.
func (w *CSVWriter) WriteRow(row []string) {
	w.mu.Lock()
	_ = w.csv.Write(row) // error is buffered; checked on Flush
	w.rows++
	w.mu.Unlock()
}

// Flush pushes buffered data to the underlying writer and reports any
// error buffered since the last flush.
func (w *CSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return w.buf.Flush()
}

// Rows returns the number of data rows written (excludes header).
func (w *CSVWriter) Rows() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// WriteTable writes t as CSV: its header, then every row.
func WriteTable(w io.Writer, t models.CSVRowWriter) (uint64, error) {
	cw, err := NewCSVWriter(w, 0, t.CSVHeader())
	if err != nil {
		return 0, err
	}
	for _, row := range t.CSVRows() {
		cw.WriteRow(row)
	}
	if err := cw.Flush(); err != nil {
		return cw.Rows(), err
	}
	return cw.Rows(), nil
}

// unitTable replaces the dataset's bare column names with ExportHeader.
type unitTable struct{ *models.Dataset }

func (u unitTable) CSVHeader() []string { return ExportHeader(u.Dataset) }

// WriteDataset writes ds as CSV with unit-annotated column names.
func WriteDataset(w io.Writer, ds *models.Dataset) (uint64, error) {
	return WriteTable(w, unitTable{ds})
}
