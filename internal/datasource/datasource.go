// Package datasource loads candle tables from market data files.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// Query selects the candles to load. Every field is optional; an empty
// query loads the whole file.
type Query struct {
	Symbol optional.Option[string]
	Start  optional.Option[time.Time]
	End    optional.Option[time.Time]
}

// DataSource reads candle tables in ascending time order.
type DataSource interface {
	// ReadCandles returns the candles matching q in ascending time order.
	ReadCandles(q Query) (ta.Candles, error)
	// Symbols lists the distinct symbols available, sorted.
	Symbols() ([]string, error)
	// Count returns the number of candles matching q.
	Count(q Query) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}

// inRange reports whether a candle timestamp in milliseconds passes the
// query's time bounds (both inclusive).
func (q Query) inRange(ts int64) bool {
	if q.Start.IsSome() && ts < q.Start.Unwrap().UnixMilli() {
		return false
	}

	if q.End.IsSome() && ts > q.End.Unwrap().UnixMilli() {
		return false
	}

	return true
}
