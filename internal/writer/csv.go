package writer

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/argo-ta/pkg/errors"
)

// CSVWriter writes result rows as CSV with an RFC 3339 UTC time column.
// Values are printed with a fixed number of decimals; undefined values
// leave the cell empty.
type CSVWriter struct {
	out        io.Writer
	file       *os.File
	csv        *csv.Writer
	outputPath string
	precision  int32
	columns    int
}

// NewCSVWriter creates a CSV writer for outputPath. An empty path writes to
// stdout instead.
func NewCSVWriter(outputPath string, stdout io.Writer, precision int) *CSVWriter {
	return &CSVWriter{
		out:        stdout,
		outputPath: outputPath,
		precision:  int32(precision),
	}
}

// Initialize opens the destination and writes the header row.
func (w *CSVWriter) Initialize(columns []string) error {
	if w.outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(w.outputPath), 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to create output directory", err)
		}

		file, err := os.Create(w.outputPath)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeOutputWriteFailed, err, "failed to create %s", w.outputPath)
		}

		w.file = file
		w.out = file
	}

	if w.out == nil {
		return errors.New(errors.ErrCodeOutputWriteFailed, "no output destination")
	}

	w.csv = csv.NewWriter(w.out)
	w.columns = len(columns)

	header := append([]string{TimeColumn}, columns...)
	if err := w.csv.Write(header); err != nil {
		return errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to write header", err)
	}

	return nil
}

// Write implements ResultWriter.
func (w *CSVWriter) Write(timestamp int64, values []float64) error {
	if w.csv == nil {
		return errors.New(errors.ErrCodeOutputWriteFailed, "writer not initialized")
	}

	if len(values) != w.columns {
		return errors.Newf(errors.ErrCodeOutputWriteFailed, "expected %d values, got %d", w.columns, len(values))
	}

	record := make([]string, 0, len(values)+1)
	record = append(record, time.UnixMilli(timestamp).UTC().Format(time.RFC3339Nano))

	for _, v := range values {
		d, ok := round(v, w.precision)
		if !ok {
			record = append(record, "")

			continue
		}

		record = append(record, d.StringFixed(w.precision))
	}

	if err := w.csv.Write(record); err != nil {
		return errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to write row", err)
	}

	return nil
}

// Finalize flushes buffered rows.
func (w *CSVWriter) Finalize() (string, error) {
	if w.csv == nil {
		return "", errors.New(errors.ErrCodeOutputWriteFailed, "writer not initialized")
	}

	w.csv.Flush()

	if err := w.csv.Error(); err != nil {
		return "", errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to flush csv", err)
	}

	return w.outputPath, nil
}

// Close closes the output file, if one was opened.
func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to close output file", err)
	}

	return nil
}
