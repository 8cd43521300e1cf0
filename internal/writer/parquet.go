package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-ta/internal/logger"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"go.uber.org/zap"
)

const resultsTable = "indicator_results"

// ParquetWriter stages rows in an in-memory DuckDB table inside one
// transaction and exports the table to a Parquet file on Finalize.
// Undefined values are stored as NULL.
type ParquetWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	precision  int32
	columns    int
	logger     *logger.Logger
}

// NewParquetWriter creates a Parquet writer for outputPath. A nil logger
// discards log output.
func NewParquetWriter(outputPath string, precision int, log *logger.Logger) *ParquetWriter {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ParquetWriter{
		outputPath: outputPath,
		precision:  int32(precision),
		logger:     log,
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Initialize opens DuckDB, creates the staging table, begins a transaction
// and prepares the insert statement.
func (w *ParquetWriter) Initialize(columns []string) (err error) {
	if w.outputPath == "" {
		return errors.New(errors.ErrCodeOutputWriteFailed, "parquet output requires a file path")
	}

	w.db, err = sql.Open("duckdb", "")
	if err != nil {
		return errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to open DuckDB connection", err)
	}

	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, quoteIdent(TimeColumn)+" TIMESTAMP")

	for _, c := range columns {
		defs = append(defs, quoteIdent(c)+" DOUBLE")
	}

	if _, err = w.db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", resultsTable, strings.Join(defs, ", "))); err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to begin transaction", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)+1), ", ")

	w.stmt, err = w.tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)", resultsTable, placeholders))
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to prepare statement", err)
	}

	w.columns = len(columns)

	return nil
}

// Write implements ResultWriter.
func (w *ParquetWriter) Write(timestamp int64, values []float64) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeOutputWriteFailed, "writer not initialized or statement is nil")
	}

	if len(values) != w.columns {
		return errors.Newf(errors.ErrCodeOutputWriteFailed, "expected %d values, got %d", w.columns, len(values))
	}

	args := make([]any, 0, len(values)+1)
	args = append(args, time.UnixMilli(timestamp).UTC())

	for _, v := range values {
		d, ok := round(v, w.precision)
		if !ok {
			args = append(args, nil)

			continue
		}

		args = append(args, d.InexactFloat64())
	}

	if _, err := w.stmt.Exec(args...); err != nil {
		return errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to insert row", err)
	}

	return nil
}

// Finalize commits the transaction and exports the table to Parquet.
func (w *ParquetWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeOutputWriteFailed, "writer not initialized or transaction is nil")
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to create output directory", err)
	}

	query := fmt.Sprintf("COPY %s TO '%s' (FORMAT PARQUET)", resultsTable, strings.ReplaceAll(w.outputPath, "'", "''"))
	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrap(errors.ErrCodeOutputWriteFailed, "failed to export to Parquet", err)
	}

	w.logger.Debug("Exported results", zap.String("path", w.outputPath))

	return w.outputPath, nil
}

// Close releases the statement, any open transaction and the connection.
func (w *ParquetWriter) Close() error {
	var closeErrors []string

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close statement: %v", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.logger.Warn("Failed to roll back transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close db connection: %v", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		return errors.Newf(errors.ErrCodeOutputWriteFailed, "errors occurred during close: %s", strings.Join(closeErrors, "; "))
	}

	return nil
}
