// Package writer exports run reports as CSV or Parquet tables: one row per
// candle timestamp, one column per indicator line.
package writer

import (
	"math"

	"github.com/rxtech-lab/argo-ta/internal/runner"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/shopspring/decimal"
)

// TimeColumn is the name of the leading timestamp column.
const TimeColumn = "time"

// ResultWriter defines the interface for writing result rows to a destination.
type ResultWriter interface {
	// Initialize prepares the destination for the given value columns.
	Initialize(columns []string) error
	// Write persists one row. NaN values are written as empty cells.
	Write(timestamp int64, values []float64) error
	// Finalize completes the writing process (e.g., flushes buffers, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
}

type column struct {
	name   string
	result int
	line   string
}

// columnsOf lays out the report columns in request order. A single-line
// output is named after its request, otherwise each line is named
// "<request>_<line>" in lexical line order.
func columnsOf(report *runner.Report) []column {
	var cols []column

	for i, res := range report.Results {
		names := res.Output.Names()
		for _, line := range names {
			name := res.Name
			if len(names) > 1 {
				name = res.Name + "_" + line
			}

			cols = append(cols, column{name: name, result: i, line: line})
		}
	}

	return cols
}

// Columns returns the value column names WriteReport produces for report.
func Columns(report *runner.Report) []string {
	cols := columnsOf(report)

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}

	return names
}

// WriteReport writes every row of report to w, finalizes it and returns
// the output path. The caller still closes w.
func WriteReport(w ResultWriter, report *runner.Report) (string, error) {
	cols := columnsOf(report)

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}

	if err := w.Initialize(names); err != nil {
		return "", err
	}

	row := make([]float64, len(cols))

	for r, ts := range report.Times {
		for i, c := range cols {
			line := report.Results[c.result].Output[c.line]
			if r >= len(line) {
				return "", errors.Newf(errors.ErrCodeOutputWriteFailed,
					"column %s has %d values, expected %d", c.name, len(line), len(report.Times))
			}

			row[i] = line[r]
		}

		if err := w.Write(ts, row); err != nil {
			return "", err
		}
	}

	return w.Finalize()
}

// round returns v rounded half away from zero to precision decimals, and
// whether v is defined.
func round(v float64, precision int32) (decimal.Decimal, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, false
	}

	return decimal.NewFromFloat(v).Round(precision), true
}
