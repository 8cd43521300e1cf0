package indicator

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

var fixtureStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// candlesFromCloses builds candles one minute apart with high and low one
// unit around the close.
func candlesFromCloses(closes ta.Series) ta.Candles {
	out := make(ta.Candles, len(closes))
	for i, c := range closes {
		ts := fixtureStart.Add(time.Duration(i) * time.Minute).UnixMilli()
		out[i] = ta.NewCandle(ts, c, c, c+1, c-1, 1000)
	}

	return out
}

// ramp returns n closes rising by one from start.
func ramp(start float64, n int) ta.Series {
	out := make(ta.Series, n)
	for i := range out {
		out[i] = start + float64(i)
	}

	return out
}

func flat(v float64, n int) ta.Series {
	out := make(ta.Series, n)
	for i := range out {
		out[i] = v
	}

	return out
}

// randomWalk returns a seeded, strictly positive price path.
func randomWalk(seed int64, n int) ta.Series {
	rng := rand.New(rand.NewSource(seed))
	out := make(ta.Series, n)
	price := 100.0

	for i := range out {
		price *= 1 + rng.NormFloat64()*0.01
		out[i] = price
	}

	return out
}

// sameSeries reports whether a and b are bit-identical, treating NaNs as
// equal to each other.
func sameSeries(a, b ta.Series) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}

		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}

	return true
}
