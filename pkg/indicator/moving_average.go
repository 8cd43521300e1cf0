package indicator

import (
	"github.com/rxtech-lab/argo-ta/internal/types"
	"github.com/rxtech-lab/argo-ta/pkg/ma"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// MAIndicator exposes the moving average dispatcher through the registry.
type MAIndicator struct {
	period int
	family ma.Family
	source ta.SourceType
}

// NewMA creates a new MA indicator with default configuration.
func NewMA() Indicator {
	return &MAIndicator{
		period: 30,
		family: ma.SMA,
		source: ta.SourceClose,
	}
}

// Name returns the name of the indicator.
func (m *MAIndicator) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

func (m *MAIndicator) Params() []string {
	return []string{"period", "matype", "source"}
}

// Config configures the MA indicator. Expected parameters: period (int),
// matype (family name or code), source (string).
func (m *MAIndicator) Config(params ...any) error {
	if len(params) > 3 {
		return tooManyParams(m.Name(), len(params), m.Params())
	}

	next := *m

	if len(params) > 0 && params[0] != nil {
		period, err := periodParam("period", params[0])
		if err != nil {
			return err
		}

		next.period = period
	}

	if len(params) > 1 && params[1] != nil {
		f, err := familyParam("matype", params[1])
		if err != nil {
			return err
		}

		next.family = f
	}

	if len(params) > 2 && params[2] != nil {
		src, err := sourceParam("source", params[2])
		if err != nil {
			return err
		}

		next.source = src
	}

	*m = next

	return nil
}

// Compute returns the "ma" line.
func (m *MAIndicator) Compute(c ta.Candles, mode ta.Mode) (Output, error) {
	out, err := ma.MA(c, m.period, m.family, m.source, mode)
	if err != nil {
		return nil, err
	}

	return Output{"ma": out}, nil
}

func (m *MAIndicator) Clone() Indicator {
	clone := *m

	return &clone
}
