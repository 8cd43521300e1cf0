// Package indicator builds the composite oscillators (RSI, MACD, KDJ) on
// top of the moving average dispatcher, and wraps them together with MA in
// configurable Indicator values for the batch runner.
package indicator

import (
	"sort"

	"github.com/rxtech-lab/argo-ta/internal/types"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// Output holds the named lines an indicator produced, each aligned with the
// candle table (or holding one value in ta.Latest mode).
type Output map[string]ta.Series

// Names returns the line names in lexical order.
func (o Output) Names() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Last returns the final value of every line.
func (o Output) Last() map[string]float64 {
	out := make(map[string]float64, len(o))
	for name, s := range o {
		out[name] = s.Last()
	}

	return out
}

// Indicator interface defines methods that any indicator must implement.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Params lists the positional parameter names Config accepts.
	Params() []string
	// Config sets positional parameters. A nil parameter keeps the default.
	Config(params ...any) error
	// Compute runs the indicator over a candle table.
	Compute(c ta.Candles, mode ta.Mode) (Output, error)
	// Clone returns an independent copy carrying the same configuration.
	Clone() Indicator
}

// ConfigFromMap configures ind from named parameters, ordering them by
// ind.Params(). Unknown names are rejected.
func ConfigFromMap(ind Indicator, params map[string]any) error {
	names := ind.Params()
	args := make([]any, len(names))

	known := make(map[string]int, len(names))
	for i, name := range names {
		known[name] = i
	}

	for name, v := range params {
		i, ok := known[name]
		if !ok {
			return unknownParam(ind.Name(), name, names)
		}

		args[i] = v
	}

	return ind.Config(args...)
}
