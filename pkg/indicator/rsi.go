package indicator

import (
	"github.com/rxtech-lab/argo-ta/internal/types"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// RSI computes the Relative Strength Index with Wilder smoothing in a single
// forward pass. The first value sits at index period; earlier indices are
// NaN, and a series shorter than period+1 is NaN throughout. A window with
// no losses reports exactly 100, including a flat one.
func RSI(in ta.Input, period int, src ta.SourceType, mode ta.Mode) (ta.Series, error) {
	if in == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "rsi input is nil")
	}

	if period < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	s, err := sourceOf(in, src, mode)
	if err != nil {
		return nil, err
	}

	out := ta.NaNs(len(s))
	if len(s) < period+1 {
		return out.Truncate(mode), nil
	}

	p := float64(period)

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		gain, loss := change(s[i] - s[i-1])
		avgGain += gain
		avgLoss += loss
	}

	avgGain /= p
	avgLoss /= p
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(s); i++ {
		gain, loss := change(s[i] - s[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return out.Truncate(mode), nil
}

func change(d float64) (gain, loss float64) {
	if d > 0 {
		return d, 0
	}

	return 0, -d
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	return 100 - 100/(1+avgGain/avgLoss)
}

// sourceOf slices a candle table for the mode and extracts src. Flat series
// pass through untouched.
func sourceOf(in ta.Input, src ta.SourceType, mode ta.Mode) (ta.Series, error) {
	if c, ok := in.(ta.Candles); ok {
		return ta.Slice(c, mode, 0).Source(src)
	}

	return in.Source(src)
}

// RSIIndicator is the registry form of RSI.
type RSIIndicator struct {
	period int
	source ta.SourceType
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSIIndicator{
		period: 14,
		source: ta.SourceClose,
	}
}

// Name returns the name of the indicator.
func (r *RSIIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

func (r *RSIIndicator) Params() []string {
	return []string{"period", "source"}
}

// Config configures the RSI indicator. Expected parameters: period (int),
// source (string).
func (r *RSIIndicator) Config(params ...any) error {
	if len(params) > 2 {
		return tooManyParams(r.Name(), len(params), r.Params())
	}

	next := *r

	if len(params) > 0 && params[0] != nil {
		period, err := periodParam("period", params[0])
		if err != nil {
			return err
		}

		next.period = period
	}

	if len(params) > 1 && params[1] != nil {
		src, err := sourceParam("source", params[1])
		if err != nil {
			return err
		}

		next.source = src
	}

	*r = next

	return nil
}

// Compute returns the "rsi" line.
func (r *RSIIndicator) Compute(c ta.Candles, mode ta.Mode) (Output, error) {
	out, err := RSI(c, r.period, r.source, mode)
	if err != nil {
		return nil, err
	}

	return Output{"rsi": out}, nil
}

func (r *RSIIndicator) Clone() Indicator {
	clone := *r

	return &clone
}
