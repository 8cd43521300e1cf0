package datasource

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-ta/internal/logger"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
	"go.uber.org/zap"
)

const viewName = "market_data"

// DuckDBDataSource reads parquet or CSV market data through an embedded
// DuckDB connection. Files must provide time, open, high, low, close and
// volume columns; a symbol column is needed only for symbol filtering.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	// epochTime is set when the time column holds epoch milliseconds
	// instead of a TIMESTAMP.
	epochTime bool
}

// NewDuckDBDataSource opens a DuckDB database at dbPath (":memory:" or ""
// for an in-memory database). Call Initialize to attach a data file. A nil
// logger discards log output.
func NewDuckDBDataSource(dbPath string, log *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to connect to duckdb", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize exposes the file at path as the market data view. The reader
// is chosen from the extension: .parquet or .csv.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	reader, err := readerFor(path)
	if err != nil {
		return err
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS ` + viewName); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// Squirrel cannot build CREATE VIEW and table functions take no
	// placeholders, so the quoted path is inlined.
	query := fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM %s('%s')`,
		viewName, reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to load %s", path)
	}

	columnType, err := d.timeColumnType()
	if err != nil {
		return err
	}

	d.epochTime = isNumericType(columnType)
	d.logger.Debug("Detected time column",
		zap.String("type", columnType),
		zap.Bool("epoch_millis", d.epochTime),
	)

	return nil
}

func (d *DuckDBDataSource) timeColumnType() (string, error) {
	query, args, err := d.sq.Select("data_type").
		From("information_schema.columns").
		Where(squirrel.Eq{"table_name": viewName, "column_name": "time"}).
		ToSql()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var columnType string
	if err := d.db.QueryRow(query, args...).Scan(&columnType); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", errors.New(errors.ErrCodeDataNotFound, "market data has no time column")
		}

		return "", errors.Wrap(errors.ErrCodeQueryFailed, "failed to inspect time column", err)
	}

	return strings.ToUpper(columnType), nil
}

func isNumericType(columnType string) bool {
	switch columnType {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT",
		"FLOAT", "DOUBLE":
		return true
	default:
		return strings.HasPrefix(columnType, "DECIMAL")
	}
}

// timeArg converts a query bound to the time column's representation.
func (d *DuckDBDataSource) timeArg(t time.Time) any {
	if d.epochTime {
		return t.UnixMilli()
	}

	return t
}

func readerFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "read_parquet", nil
	case ".csv":
		return "read_csv_auto", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter,
			"unsupported data file %q: expected .parquet or .csv", path)
	}
}

func (d *DuckDBDataSource) filter(builder squirrel.SelectBuilder, q Query) squirrel.SelectBuilder {
	if q.Symbol.IsSome() {
		builder = builder.Where(squirrel.Eq{"symbol": q.Symbol.Unwrap()})
	}

	if q.Start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": d.timeArg(q.Start.Unwrap())})
	}

	if q.End.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": d.timeArg(q.End.Unwrap())})
	}

	return builder
}

// ReadCandles implements DataSource.
func (d *DuckDBDataSource) ReadCandles(q Query) (ta.Candles, error) {
	query, args, err := d.filter(
		d.sq.Select("time", "open", "close", "high", "low", "volume").From(viewName), q,
	).OrderBy("time ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	d.logger.Debug("Reading candles", zap.String("query", query))

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	candles := make(ta.Candles, 0, 1024)

	for rows.Next() {
		var (
			ts                             any
			open, close, high, low, volume float64
		)

		if err := rows.Scan(&ts, &open, &close, &high, &low, &volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		millis, err := toMillis(ts)
		if err != nil {
			return nil, err
		}

		candles = append(candles, ta.NewCandle(millis, open, close, high, low, volume))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	if len(candles) == 0 {
		return nil, errors.New(errors.ErrCodeDataNotFound, "no candles match the query")
	}

	return candles, nil
}

// toMillis converts a scanned time column. DuckDB returns time.Time for
// TIMESTAMP columns and integers for epoch columns, which are taken as
// milliseconds.
func toMillis(v any) (int64, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UnixMilli(), nil
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case float64:
		return int64(t), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidType, "unsupported time column type %T", v)
	}
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	query, args, err := d.sq.Select("DISTINCT symbol").From(viewName).OrderBy("symbol").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return symbols, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(q Query) (int, error) {
	query, args, err := d.filter(d.sq.Select("COUNT(*)").From(viewName), q).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
