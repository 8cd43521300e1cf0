// Package ma dispatches moving average computations to one of the
// supported algorithm families.
//
// Output contract: every family computes the full sequential series. MA
// truncates to the final element only when the caller asks for ta.Latest.
// Composite indicators rely on this to cascade one family's output into
// another family without mode mismatches, so internal cascades always call
// MA with ta.Sequential.
package ma

import (
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// MA computes the moving average family over in.
//
// in may be a flat ta.Series (src is ignored) or a ta.Candles table (src
// selects the column). Volume weighted families only accept ta.Candles.
// Parameterless families ignore period.
func MA(in ta.Input, period int, family Family, src ta.SourceType, mode ta.Mode) (ta.Series, error) {
	alg, ok := algorithms[family]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedFamily, "unsupported family code %d", int(family))
	}

	if in == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "moving average input is nil")
	}

	if !alg.parameterless && period < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	candles, isTable := in.(ta.Candles)
	if isTable {
		candles = ta.Slice(candles, mode, 0)
		in = candles
	}

	var (
		out ta.Series
		err error
	)

	if alg.needsCandles() {
		if !isTable {
			return nil, errors.Newf(errors.ErrCodeCandlesRequired,
				"%s only supports a full candle table, not a flat series", alg.name)
		}

		out, err = alg.candles(candles, period, src)
	} else {
		var s ta.Series

		s, err = in.Source(src)
		if err == nil {
			out = applyDefined(alg.series, s, period)
		}
	}

	if err != nil {
		return nil, err
	}

	return out.Truncate(mode), nil
}

// Latest is MA in ta.Latest mode returning the final value as a scalar.
// The value is NaN when the input is too short for the family's warm-up.
func Latest(in ta.Input, period int, family Family, src ta.SourceType) (float64, error) {
	out, err := MA(in, period, family, src, ta.Latest)
	if err != nil {
		return 0, err
	}

	return out.Last(), nil
}

// ValidateFamily returns a validation error for unsupported codes.
func ValidateFamily(f Family) error {
	if !f.Supported() {
		return errors.Newf(errors.ErrCodeUnsupportedFamily, "unsupported family code %d", int(f))
	}

	return nil
}

// RejectVolumeFamilies fails fast when a composite indicator would smooth
// an already derived series with VWMA or VWAP. Those need the candle table,
// which a derived series no longer has.
func RejectVolumeFamilies(families ...Family) error {
	for _, f := range families {
		if err := ValidateFamily(f); err != nil {
			return err
		}

		if f.RequiresCandles() {
			return errors.Newf(errors.ErrCodeFamilyNotAllowed,
				"%s (family %d) cannot smooth a derived series", f, int(f))
		}
	}

	return nil
}

// applyDefined runs fn from the first defined sample onwards and restores
// the undefined prefix, so a series that starts with a NaN warm-up never
// poisons a recurrence.
func applyDefined(fn seriesFunc, s ta.Series, period int) ta.Series {
	start := s.FirstDefined()
	if start == 0 {
		return fn(s, period)
	}

	out := ta.NaNs(len(s))
	if start < len(s) {
		copy(out[start:], fn(s[start:], period))
	}

	return out
}
