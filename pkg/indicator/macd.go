package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-ta/internal/types"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/ma"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// MACDResult holds the three aligned MACD lines.
type MACDResult struct {
	MACD   ta.Series
	Signal ta.Series
	Hist   ta.Series
}

// Last returns the final value of each line.
func (r MACDResult) Last() (macd, signal, hist float64) {
	return r.MACD.Last(), r.Signal.Last(), r.Hist.Last()
}

// MACD computes the convergence/divergence oscillator. Both EMAs are seeded
// with the first sample. NaN entries of the line are zeroed before the
// signal EMA; the histogram is taken from the line before zeroing, and the
// returned MACD line is the zeroed one.
func MACD(in ta.Input, fast, slow, signal int, src ta.SourceType, mode ta.Mode) (MACDResult, error) {
	if in == nil {
		return MACDResult{}, errors.New(errors.ErrCodeMissingParameter, "macd input is nil")
	}

	for _, p := range []struct {
		name   string
		period int
	}{{"fast period", fast}, {"slow period", slow}, {"signal period", signal}} {
		if p.period < 1 {
			return MACDResult{}, errors.Newf(errors.ErrCodeInvalidPeriod,
				"%s must be a positive integer, got %d", p.name, p.period)
		}
	}

	s, err := sourceOf(in, src, mode)
	if err != nil {
		return MACDResult{}, err
	}

	line := ta.Sub(ma.ExpSmooth(s, fast), ma.ExpSmooth(s, slow))

	cleaned := make(ta.Series, len(line))
	for i, v := range line {
		if !math.IsNaN(v) {
			cleaned[i] = v
		}
	}

	sig := ma.ExpSmooth(cleaned, signal)

	return MACDResult{
		MACD:   cleaned.Truncate(mode),
		Signal: sig.Truncate(mode),
		Hist:   ta.Sub(line, sig).Truncate(mode),
	}, nil
}

// MACDIndicator is the registry form of MACD.
type MACDIndicator struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
	source       ta.SourceType
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() Indicator {
	return &MACDIndicator{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
		source:       ta.SourceClose,
	}
}

// Name returns the name of the indicator.
func (m *MACDIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

func (m *MACDIndicator) Params() []string {
	return []string{"fast_period", "slow_period", "signal_period", "source"}
}

// Config configures the MACD indicator. Expected parameters: fastPeriod
// (int), slowPeriod (int), signalPeriod (int), source (string).
func (m *MACDIndicator) Config(params ...any) error {
	if len(params) > 4 {
		return tooManyParams(m.Name(), len(params), m.Params())
	}

	next := *m
	periods := []*int{&next.fastPeriod, &next.slowPeriod, &next.signalPeriod}

	for i, name := range m.Params()[:3] {
		if i >= len(params) || params[i] == nil {
			continue
		}

		period, err := periodParam(name, params[i])
		if err != nil {
			return err
		}

		*periods[i] = period
	}

	if len(params) > 3 && params[3] != nil {
		src, err := sourceParam("source", params[3])
		if err != nil {
			return err
		}

		next.source = src
	}

	*m = next

	return nil
}

// Compute returns the "macd", "signal" and "hist" lines.
func (m *MACDIndicator) Compute(c ta.Candles, mode ta.Mode) (Output, error) {
	res, err := MACD(c, m.fastPeriod, m.slowPeriod, m.signalPeriod, m.source, mode)
	if err != nil {
		return nil, err
	}

	return Output{"macd": res.MACD, "signal": res.Signal, "hist": res.Hist}, nil
}

func (m *MACDIndicator) Clone() Indicator {
	clone := *m

	return &clone
}
