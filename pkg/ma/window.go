package ma

import (
	"math"

	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// weighted returns the weighted mean over each trailing window of
// len(weights) samples. weights[0] applies to the oldest sample. Positions
// before the first full window are NaN. Sums are taken per window so a
// NaN or Inf only affects the windows that contain it.
func weighted(s ta.Series, weights []float64) ta.Series {
	n := len(weights)
	out := ta.NaNs(len(s))

	total := 0.0
	for _, w := range weights {
		total += w
	}

	for i := n - 1; i < len(s); i++ {
		sum := 0.0
		window := s[i-n+1 : i+1]

		for j, w := range weights {
			sum += w * window[j]
		}

		out[i] = sum / total
	}

	return out
}

// weightsOf builds period weights from fn(k) for k = 1..period, oldest
// first.
func weightsOf(period int, fn func(k int) float64) []float64 {
	w := make([]float64, period)
	for k := 1; k <= period; k++ {
		w[k-1] = fn(k)
	}

	return w
}

func sma(s ta.Series, period int) ta.Series {
	return weighted(s, weightsOf(period, func(int) float64 { return 1 }))
}

func wma(s ta.Series, period int) ta.Series {
	return weighted(s, weightsOf(period, func(k int) float64 { return float64(k) }))
}

// trima is the SMA of an SMA. Odd periods use (p+1)/2 twice, even periods
// use p/2 and p/2+1, so the combined warm-up is period-1 samples.
func trima(s ta.Series, period int) ta.Series {
	first := (period + 1) / 2
	second := period/2 + 1

	if period%2 == 0 {
		first = period / 2
	}

	return applyDefined(sma, sma(s, first), second)
}

// fwma weights the window with the Fibonacci sequence, the largest
// coefficient on the newest sample.
func fwma(s ta.Series, period int) ta.Series {
	fib := make([]float64, period)
	for i := range fib {
		if i < 2 {
			fib[i] = 1
			continue
		}

		fib[i] = fib[i-1] + fib[i-2]
	}

	return weighted(s, fib)
}

// hma is WMA(2*WMA(p/2) - WMA(p), sqrt(p)).
func hma(s ta.Series, period int) ta.Series {
	half := period / 2
	if half < 1 {
		half = 1
	}

	root := int(math.Floor(math.Sqrt(float64(period))))
	if root < 1 {
		root = 1
	}

	fast := wma(s, half)
	slow := wma(s, period)

	raw := make(ta.Series, len(s))
	for i := range s {
		raw[i] = 2*fast[i] - slow[i]
	}

	return applyDefined(wma, raw, root)
}

// linearReg is the least squares line over each window evaluated at the
// newest sample.
func linearReg(s ta.Series, period int) ta.Series {
	if period == 1 {
		return append(ta.Series(nil), s...)
	}

	out := ta.NaNs(len(s))
	p := float64(period)
	sumX := p * (p - 1) / 2
	sumX2 := p * (p - 1) * (2*p - 1) / 6
	div := p*sumX2 - sumX*sumX

	for i := period - 1; i < len(s); i++ {
		sumY, sumXY := 0.0, 0.0

		for x, y := range s[i-period+1 : i+1] {
			sumY += y
			sumXY += float64(x) * y
		}

		slope := (p*sumXY - sumX*sumY) / div
		intercept := (sumY - slope*sumX) / p
		out[i] = intercept + slope*(p-1)
	}

	return out
}

func sinWMA(s ta.Series, period int) ta.Series {
	return weighted(s, weightsOf(period, func(k int) float64 {
		return math.Sin(float64(k) * math.Pi / float64(period+1))
	}))
}

// pwma weights the window with row period-1 of Pascal's triangle.
func pwma(s ta.Series, period int) ta.Series {
	row := make([]float64, period)
	row[0] = 1

	for k := 1; k < period; k++ {
		row[k] = row[k-1] * float64(period-k) / float64(k)
	}

	return weighted(s, row)
}

// swma uses symmetric triangular weights peaking at the window centre.
func swma(s ta.Series, period int) ta.Series {
	return weighted(s, weightsOf(period, func(k int) float64 {
		return math.Min(float64(k), float64(period+1-k))
	}))
}

const (
	almaOffset = 0.85
	almaSigma  = 6.0
)

// alma centres a Gaussian kernel at offset*(period-1).
func alma(s ta.Series, period int) ta.Series {
	m := almaOffset * float64(period-1)
	sd := float64(period) / almaSigma

	return weighted(s, weightsOf(period, func(k int) float64 {
		d := float64(k-1) - m

		return math.Exp(-(d * d) / (2 * sd * sd))
	}))
}

func srwma(s ta.Series, period int) ta.Series {
	return weighted(s, weightsOf(period, func(k int) float64 { return math.Sqrt(float64(k)) }))
}

func sqwma(s ta.Series, period int) ta.Series {
	return weighted(s, weightsOf(period, func(k int) float64 { return float64(k * k) }))
}

const vpwmaPower = 0.382

func vpwma(s ta.Series, period int) ta.Series {
	return weighted(s, weightsOf(period, func(k int) float64 {
		return math.Pow(float64(k), vpwmaPower)
	}))
}

func cwma(s ta.Series, period int) ta.Series {
	return weighted(s, weightsOf(period, func(k int) float64 { return float64(k * k * k) }))
}

// jsa averages the current sample with the one period samples back.
func jsa(s ta.Series, period int) ta.Series {
	out := ta.NaNs(len(s))
	for i := period; i < len(s); i++ {
		out[i] = (s[i] + s[i-period]) / 2
	}

	return out
}

const epmaOffset = 4

// epma is the end point moving average: linear weights period-j-offset for
// lag j, newest first. Weights may be negative; a zero weight sum divides
// by zero and yields Inf or NaN.
func epma(s ta.Series, period int) ta.Series {
	return weighted(s, weightsOf(period, func(k int) float64 {
		lag := period - k

		return float64(period - lag - epmaOffset)
	}))
}
