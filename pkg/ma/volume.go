package ma

import (
	"time"

	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// vwma weights each window by candle volume.
func vwma(c ta.Candles, period int, src ta.SourceType) (ta.Series, error) {
	price, err := c.Source(src)
	if err != nil {
		return nil, err
	}

	out := ta.NaNs(len(c))
	for i := period - 1; i < len(c); i++ {
		num, den := 0.0, 0.0

		for j := i - period + 1; j <= i; j++ {
			v := c[j].Volume()
			num += price[j] * v
			den += v
		}

		out[i] = num / den
	}

	return out, nil
}

// vwap is the volume weighted average price anchored to the UTC day of each
// candle's timestamp; the running sums reset when the day changes. period
// is unused.
func vwap(c ta.Candles, _ int, src ta.SourceType) (ta.Series, error) {
	price, err := c.Source(src)
	if err != nil {
		return nil, err
	}

	out := make(ta.Series, len(c))

	var (
		num, den float64
		anchor   time.Time
	)

	for i, candle := range c {
		day := time.UnixMilli(candle.Timestamp()).UTC().Truncate(24 * time.Hour)
		if i == 0 || !day.Equal(anchor) {
			anchor = day
			num, den = 0, 0
		}

		num += price[i] * candle.Volume()
		den += candle.Volume()
		out[i] = num / den
	}

	return out, nil
}
