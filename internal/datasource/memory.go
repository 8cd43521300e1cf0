package datasource

import (
	"sort"
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// InMemoryDataSource serves candle tables held in memory, keyed by symbol.
// It is safe for concurrent use.
type InMemoryDataSource struct {
	data map[string]ta.Candles
	mu   sync.RWMutex
}

// NewInMemoryDataSource creates an empty in-memory data source.
func NewInMemoryDataSource() *InMemoryDataSource {
	return &InMemoryDataSource{
		data: make(map[string]ta.Candles),
		mu:   sync.RWMutex{},
	}
}

// Preload copies every symbol from src into memory. The caller still owns
// src and must close it.
func Preload(src DataSource) (*InMemoryDataSource, error) {
	symbols, err := src.Symbols()
	if err != nil {
		return nil, err
	}

	mem := NewInMemoryDataSource()

	for _, symbol := range symbols {
		candles, err := src.ReadCandles(Query{Symbol: optional.Some(symbol)})
		if err != nil {
			return nil, err
		}

		if err := mem.Add(symbol, candles); err != nil {
			return nil, err
		}
	}

	return mem, nil
}

// Add stores candles under symbol, replacing anything stored before.
// Timestamps must be strictly ascending.
func (m *InMemoryDataSource) Add(symbol string, candles ta.Candles) error {
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp() <= candles[i-1].Timestamp() {
			return errors.Newf(errors.ErrCodeInvalidParameter,
				"candles for %s are not in ascending time order at index %d", symbol, i)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[symbol] = append(ta.Candles(nil), candles...)

	return nil
}

// table picks the candles for q. Without a symbol the source must hold
// exactly one.
func (m *InMemoryDataSource) table(q Query) (ta.Candles, error) {
	if q.Symbol.IsSome() {
		candles, ok := m.data[q.Symbol.Unwrap()]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeDataNotFound, "no candles for symbol %s", q.Symbol.Unwrap())
		}

		return candles, nil
	}

	if len(m.data) != 1 {
		return nil, errors.Newf(errors.ErrCodeMissingParameter,
			"a symbol is required when %d symbols are loaded", len(m.data))
	}

	for _, candles := range m.data {
		return candles, nil
	}

	return nil, nil
}

// ReadCandles implements DataSource.
func (m *InMemoryDataSource) ReadCandles(q Query) (ta.Candles, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	candles, err := m.table(q)
	if err != nil {
		return nil, err
	}

	lo := 0
	if q.Start.IsSome() {
		start := q.Start.Unwrap().UnixMilli()
		lo = sort.Search(len(candles), func(i int) bool { return candles[i].Timestamp() >= start })
	}

	hi := len(candles)
	if q.End.IsSome() {
		end := q.End.Unwrap().UnixMilli()
		hi = sort.Search(len(candles), func(i int) bool { return candles[i].Timestamp() > end })
	}

	if lo >= hi {
		return nil, errors.New(errors.ErrCodeDataNotFound, "no candles match the query")
	}

	return append(ta.Candles(nil), candles[lo:hi]...), nil
}

// Symbols implements DataSource.
func (m *InMemoryDataSource) Symbols() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbols := make([]string, 0, len(m.data))
	for symbol := range m.data {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols, nil
}

// Count implements DataSource.
func (m *InMemoryDataSource) Count(q Query) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	candles, err := m.table(q)
	if err != nil {
		return 0, err
	}

	count := 0

	for _, c := range candles {
		if q.inRange(c.Timestamp()) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (m *InMemoryDataSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]ta.Candles)

	return nil
}
