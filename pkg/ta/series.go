// Package ta holds the data model shared by the indicator engine: candle
// tables, numeric series, source columns and output modes.
//
// Every function in the engine treats its inputs as immutable and returns
// freshly allocated results, so calls may run concurrently as long as the
// caller does not mutate a table or series while it is being read.
package ta

import "math"

// Mode selects how much of a computed series is returned to the caller.
type Mode int

const (
	// Sequential returns the full series aligned with the input.
	Sequential Mode = iota
	// Latest returns only the final element.
	Latest
)

// String returns the name of the mode.
func (m Mode) String() string {
	if m == Latest {
		return "latest"
	}

	return "sequential"
}

// Series is a flat sequence of values, one per candle. Undefined entries
// (warm-up) are NaN.
type Series []float64

// Input is anything an indicator can read a price series from: a flat
// Series or a full Candles table.
type Input interface {
	// Len returns the number of samples.
	Len() int
	// Source returns the series to compute on. A Series ignores src.
	Source(src SourceType) (Series, error)
}

// Len implements Input.
func (s Series) Len() int { return len(s) }

// Source implements Input. The receiver is returned as-is.
func (s Series) Source(SourceType) (Series, error) { return s, nil }

// Last returns the final element, or NaN when the series is empty.
func (s Series) Last() float64 {
	if len(s) == 0 {
		return math.NaN()
	}

	return s[len(s)-1]
}

// Truncate applies the output mode: Sequential returns s unchanged, Latest
// returns a one-element series holding the last value (empty stays empty).
func (s Series) Truncate(mode Mode) Series {
	if mode != Latest || len(s) <= 1 {
		return s
	}

	return Series{s[len(s)-1]}
}

// NaNs returns a series of n undefined values.
func NaNs(n int) Series {
	out := make(Series, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// FirstDefined returns the index of the first non-NaN value, or len(s)
// when every value is undefined.
func (s Series) FirstDefined() int {
	for i, v := range s {
		if !math.IsNaN(v) {
			return i
		}
	}

	return len(s)
}

// Sub returns a - b element-wise. Both series must have equal length.
func Sub(a, b Series) Series {
	out := make(Series, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}

	return out
}
