package indicator

import (
	"github.com/rxtech-lab/argo-ta/internal/types"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/ma"
	"github.com/rxtech-lab/argo-ta/pkg/rolling"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// KDJResult holds the three aligned KDJ lines.
type KDJResult struct {
	K ta.Series
	D ta.Series
	J ta.Series
}

// Last returns the final value of each line.
func (r KDJResult) Last() (k, d, j float64) {
	return r.K.Last(), r.D.Last(), r.J.Last()
}

// KDJ computes the stochastic oscillator with a leading J line:
//
//	rsv = 100 * (close - lowest low) / (highest high - lowest low)
//	k   = MA(rsv, slowK, slowKFamily)
//	d   = MA(k, slowD, slowDFamily)
//	j   = 3k - 2d
//
// Extremes come from rolling windows of fastK candles. A flat window
// divides by zero and follows IEEE semantics (NaN for 0/0). Volume
// weighted families are rejected before any computation.
func KDJ(c ta.Candles, fastK, slowK int, slowKFamily ma.Family, slowD int, slowDFamily ma.Family, mode ta.Mode) (KDJResult, error) {
	if err := ma.RejectVolumeFamilies(slowKFamily, slowDFamily); err != nil {
		return KDJResult{}, err
	}

	if fastK < 1 {
		return KDJResult{}, invalidPeriod("fast k period", fastK)
	}

	if slowK < 1 && !slowKFamily.Parameterless() {
		return KDJResult{}, invalidPeriod("slow k period", slowK)
	}

	if slowD < 1 && !slowDFamily.Parameterless() {
		return KDJResult{}, invalidPeriod("slow d period", slowD)
	}

	c = ta.Slice(c, mode, 0)

	closes := c.Column(ta.ColClose)
	hh := rolling.Max(c.Column(ta.ColHigh), fastK)
	ll := rolling.Min(c.Column(ta.ColLow), fastK)

	rsv := make(ta.Series, len(c))
	for i := range rsv {
		rsv[i] = 100 * (closes[i] - ll[i]) / (hh[i] - ll[i])
	}

	k, err := ma.MA(rsv, slowK, slowKFamily, ta.SourceClose, ta.Sequential)
	if err != nil {
		return KDJResult{}, err
	}

	d, err := ma.MA(k, slowD, slowDFamily, ta.SourceClose, ta.Sequential)
	if err != nil {
		return KDJResult{}, err
	}

	j := make(ta.Series, len(k))
	for i := range j {
		j[i] = 3*k[i] - 2*d[i]
	}

	return KDJResult{
		K: k.Truncate(mode),
		D: d.Truncate(mode),
		J: j.Truncate(mode),
	}, nil
}

func invalidPeriod(name string, period int) error {
	return errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, period)
}

// KDJIndicator is the registry form of KDJ.
type KDJIndicator struct {
	fastK       int
	slowK       int
	slowKFamily ma.Family
	slowD       int
	slowDFamily ma.Family
}

// NewKDJ creates a new KDJ indicator with default configuration.
func NewKDJ() Indicator {
	return &KDJIndicator{
		fastK:       9,
		slowK:       3,
		slowKFamily: ma.SMA,
		slowD:       3,
		slowDFamily: ma.SMA,
	}
}

// Name returns the name of the indicator.
func (k *KDJIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeKDJ
}

func (k *KDJIndicator) Params() []string {
	return []string{"fastk_period", "slowk_period", "slowk_matype", "slowd_period", "slowd_matype"}
}

// Config configures the KDJ indicator. Expected parameters: fastk_period
// (int), slowk_period (int), slowk_matype (family), slowd_period (int),
// slowd_matype (family).
func (k *KDJIndicator) Config(params ...any) error {
	names := k.Params()
	if len(params) > len(names) {
		return tooManyParams(k.Name(), len(params), names)
	}

	next := *k
	periods := map[int]*int{0: &next.fastK, 1: &next.slowK, 3: &next.slowD}
	families := map[int]*ma.Family{2: &next.slowKFamily, 4: &next.slowDFamily}

	for i, v := range params {
		if v == nil {
			continue
		}

		if p, ok := periods[i]; ok {
			period, err := periodParam(names[i], v)
			if err != nil {
				return err
			}

			*p = period

			continue
		}

		f, err := familyParam(names[i], v)
		if err != nil {
			return err
		}

		*families[i] = f
	}

	if err := ma.RejectVolumeFamilies(next.slowKFamily, next.slowDFamily); err != nil {
		return err
	}

	*k = next

	return nil
}

// Compute returns the "k", "d" and "j" lines.
func (k *KDJIndicator) Compute(c ta.Candles, mode ta.Mode) (Output, error) {
	res, err := KDJ(c, k.fastK, k.slowK, k.slowKFamily, k.slowD, k.slowDFamily, mode)
	if err != nil {
		return nil, err
	}

	return Output{"k": res.K, "d": res.D, "j": res.J}, nil
}

func (k *KDJIndicator) Clone() Indicator {
	clone := *k

	return &clone
}
