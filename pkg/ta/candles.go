package ta

import (
	"strings"

	"github.com/rxtech-lab/argo-ta/pkg/errors"
)

// Column positions of the canonical candle layout. Every consumer reads
// candles through these indices.
const (
	ColTimestamp = iota
	ColOpen
	ColClose
	ColHigh
	ColLow
	ColVolume

	numColumns
)

// DefaultWindow is the number of trailing candles kept by Slice in Latest
// mode when the caller does not ask for a specific window.
const DefaultWindow = 240

// Candle is one OHLCV record: timestamp (unix milliseconds), open, close,
// high, low, volume.
type Candle [numColumns]float64

// Candles is an ordered candle table with ascending timestamps.
type Candles []Candle

// NewCandle builds a candle in the canonical column order.
func NewCandle(timestamp int64, open, close, high, low, volume float64) Candle {
	return Candle{float64(timestamp), open, close, high, low, volume}
}

// Timestamp returns the candle time in unix milliseconds.
func (c Candle) Timestamp() int64 { return int64(c[ColTimestamp]) }

func (c Candle) Open() float64   { return c[ColOpen] }
func (c Candle) Close() float64  { return c[ColClose] }
func (c Candle) High() float64   { return c[ColHigh] }
func (c Candle) Low() float64    { return c[ColLow] }
func (c Candle) Volume() float64 { return c[ColVolume] }

// Len implements Input.
func (c Candles) Len() int { return len(c) }

// Column extracts one positional column as a flat series.
func (c Candles) Column(col int) Series {
	out := make(Series, len(c))
	for i := range c {
		out[i] = c[i][col]
	}

	return out
}

// Source implements Input by extracting the requested price or volume
// column. Derived sources are computed per candle.
func (c Candles) Source(src SourceType) (Series, error) {
	switch src {
	case SourceOpen:
		return c.Column(ColOpen), nil
	case SourceClose:
		return c.Column(ColClose), nil
	case SourceHigh:
		return c.Column(ColHigh), nil
	case SourceLow:
		return c.Column(ColLow), nil
	case SourceVolume:
		return c.Column(ColVolume), nil
	case SourceHL2:
		return c.derive(func(k Candle) float64 { return (k[ColHigh] + k[ColLow]) / 2 }), nil
	case SourceHLC3:
		return c.derive(func(k Candle) float64 { return (k[ColHigh] + k[ColLow] + k[ColClose]) / 3 }), nil
	case SourceOHLC4:
		return c.derive(func(k Candle) float64 {
			return (k[ColOpen] + k[ColHigh] + k[ColLow] + k[ColClose]) / 4
		}), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidSource, "unknown source type %q", string(src))
	}
}

func (c Candles) derive(fn func(Candle) float64) Series {
	out := make(Series, len(c))
	for i := range c {
		out[i] = fn(c[i])
	}

	return out
}

// Slice returns the full table in Sequential mode, otherwise the trailing
// window rows (DefaultWindow when window <= 0). Recurrences that depend on
// long history must be called in Sequential mode or with a window large
// enough for their warm-up; choosing it is the caller's job.
func Slice(c Candles, mode Mode, window int) Candles {
	if mode == Sequential {
		return c
	}

	if window <= 0 {
		window = DefaultWindow
	}

	if len(c) > window {
		return c[len(c)-window:]
	}

	return c
}

// SourceType names a candle column or a derived price.
type SourceType string

const (
	SourceOpen   SourceType = "open"
	SourceClose  SourceType = "close"
	SourceHigh   SourceType = "high"
	SourceLow    SourceType = "low"
	SourceVolume SourceType = "volume"
	SourceHL2    SourceType = "hl2"
	SourceHLC3   SourceType = "hlc3"
	SourceOHLC4  SourceType = "ohlc4"
)

// SourceTypes lists every supported source in a stable order.
func SourceTypes() []SourceType {
	return []SourceType{
		SourceOpen, SourceClose, SourceHigh, SourceLow, SourceVolume,
		SourceHL2, SourceHLC3, SourceOHLC4,
	}
}

// ParseSourceType validates a user supplied source name. An empty name
// selects the close price.
func ParseSourceType(name string) (SourceType, error) {
	if name == "" {
		return SourceClose, nil
	}

	src := SourceType(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range SourceTypes() {
		if src == known {
			return src, nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidSource, "unknown source type %q", name)
}
