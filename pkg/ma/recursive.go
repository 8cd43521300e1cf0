package ma

import (
	"math"

	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// expSmooth runs out[i] = alpha*s[i] + (1-alpha)*out[i-1] seeded with s[0].
func expSmooth(s ta.Series, alpha float64) ta.Series {
	out := make(ta.Series, len(s))
	if len(s) == 0 {
		return out
	}

	out[0] = s[0]
	for i := 1; i < len(s); i++ {
		out[i] = alpha*s[i] + (1-alpha)*out[i-1]
	}

	return out
}

// ExpSmooth exposes the exponential recurrence with alpha = 2/(period+1)
// seeded with the first sample. It has no warm-up: every index is defined
// when the input is.
func ExpSmooth(s ta.Series, period int) ta.Series {
	return expSmooth(s, 2/float64(period+1))
}

func ema(s ta.Series, period int) ta.Series {
	return ExpSmooth(s, period)
}

func dema(s ta.Series, period int) ta.Series {
	e1 := ema(s, period)
	e2 := ema(e1, period)

	out := make(ta.Series, len(s))
	for i := range s {
		out[i] = 2*e1[i] - e2[i]
	}

	return out
}

func tema(s ta.Series, period int) ta.Series {
	e1 := ema(s, period)
	e2 := ema(e1, period)
	e3 := ema(e2, period)

	out := make(ta.Series, len(s))
	for i := range s {
		out[i] = 3*e1[i] - 3*e2[i] + e3[i]
	}

	return out
}

// wilders seeds with the SMA of the first period samples and then applies
// alpha = 1/period.
func wilders(s ta.Series, period int) ta.Series {
	out := ta.NaNs(len(s))
	if len(s) < period {
		return out
	}

	sum := 0.0
	for _, v := range s[:period] {
		sum += v
	}

	out[period-1] = sum / float64(period)
	for i := period; i < len(s); i++ {
		out[i] = out[i-1] + (s[i]-out[i-1])/float64(period)
	}

	return out
}

// smma is the smoothed moving average: SMA seed, then
// (prev*(period-1) + x) / period.
func smma(s ta.Series, period int) ta.Series {
	out := ta.NaNs(len(s))
	if len(s) < period {
		return out
	}

	sum := 0.0
	for _, v := range s[:period] {
		sum += v
	}

	p := float64(period)

	out[period-1] = sum / p
	for i := period; i < len(s); i++ {
		out[i] = (out[i-1]*(p-1) + s[i]) / p
	}

	return out
}

const mwdxFactor = 0.2

// mwdx is an exponential smoother with a fixed factor; period is unused.
func mwdx(s ta.Series, _ int) ta.Series {
	val2 := 2/mwdxFactor - 1

	return expSmooth(s, 2/(val2+1))
}

const (
	hwmaNA = 0.2
	hwmaNB = 0.1
	hwmaNC = 0.1
)

// hwma is the Holt-Winter moving average tracking level, velocity and
// acceleration; period is unused.
func hwma(s ta.Series, _ int) ta.Series {
	out := make(ta.Series, len(s))
	if len(s) == 0 {
		return out
	}

	level, velocity, accel := s[0], 0.0, 0.0
	out[0] = level

	for i := 1; i < len(s); i++ {
		prevLevel, prevVelocity := level, velocity

		level = (1-hwmaNA)*(prevLevel+prevVelocity+0.5*accel) + hwmaNA*s[i]
		velocity = (1-hwmaNB)*(prevVelocity+accel) + hwmaNB*(level-prevLevel)
		accel = (1-hwmaNC)*accel + hwmaNC*(velocity-prevVelocity)

		out[i] = level + velocity + 0.5*accel
	}

	return out
}

const (
	jmaPhase = 50.0
	jmaPower = 2.0
)

// jma is the Jurik-style adaptive smoother with phase 50 and power 2.
func jma(s ta.Series, period int) ta.Series {
	out := make(ta.Series, len(s))
	if len(s) == 0 {
		return out
	}

	phaseRatio := jmaPhase/100 + 1.5
	beta := 0.45 * float64(period-1) / (0.45*float64(period-1) + 2)
	alpha := math.Pow(beta, jmaPower)

	e0, e1, e2 := s[0], 0.0, 0.0
	out[0] = s[0]

	for i := 1; i < len(s); i++ {
		e0 = (1-alpha)*s[i] + alpha*e0
		e1 = (s[i]-e0)*(1-beta) + beta*e1
		e2 = (e0+phaseRatio*e1-out[i-1])*(1-alpha)*(1-alpha) + alpha*alpha*e2
		out[i] = e2 + out[i-1]
	}

	return out
}

const (
	adaptiveFast = 2
	adaptiveSlow = 30
)

// efficiencyRatio is |s[i]-s[i-period]| over the sum of absolute one-step
// changes in the same span. A flat span has ratio 0.
func efficiencyRatio(s ta.Series, i, period int) float64 {
	change := math.Abs(s[i] - s[i-period])

	volatility := 0.0
	for j := i - period + 1; j <= i; j++ {
		volatility += math.Abs(s[j] - s[j-1])
	}

	if volatility == 0 {
		return 0
	}

	return change / volatility
}

// adaptive runs out[i] = out[i-1] + sc(er)*(s[i]-out[i-1]) from index
// period, seeded with s[period-1].
func adaptive(s ta.Series, period int, sc func(er float64) float64) ta.Series {
	out := ta.NaNs(len(s))
	if len(s) < period {
		return out
	}

	out[period-1] = s[period-1]
	for i := period; i < len(s); i++ {
		out[i] = out[i-1] + sc(efficiencyRatio(s, i, period))*(s[i]-out[i-1])
	}

	return out
}

// kama is Kaufman's adaptive moving average.
func kama(s ta.Series, period int) ta.Series {
	fastSC := 2.0 / (adaptiveFast + 1)
	slowSC := 2.0 / (adaptiveSlow + 1)

	return adaptive(s, period, func(er float64) float64 {
		c := er*(fastSC-slowSC) + slowSC

		return c * c
	})
}

// maaq is the moving average adaptive Q.
func maaq(s ta.Series, period int) ta.Series {
	fastSC := 2.0 / (adaptiveFast + 1)
	slowSC := 2.0 / (adaptiveSlow + 1)

	return adaptive(s, period, func(er float64) float64 {
		c := er*fastSC + slowSC

		return c * c
	})
}

// nma is the natural moving average: the ratio of square-root weighted to
// plain absolute log changes steers an exponential update.
func nma(s ta.Series, period int) ta.Series {
	out := ta.NaNs(len(s))
	if len(s) <= period {
		return out
	}

	logs := make(ta.Series, len(s))
	for i, v := range s {
		logs[i] = math.Log(v)
	}

	prev := s[period-1]
	for i := period; i < len(s); i++ {
		num, den := 0.0, 0.0

		for k := 0; k < period; k++ {
			d := math.Abs(logs[i-k] - logs[i-k-1])
			num += d * (math.Sqrt(float64(k+1)) - math.Sqrt(float64(k)))
			den += d
		}

		ratio := 0.0
		if den != 0 {
			ratio = num / den
		}

		out[i] = ratio*s[i] + (1-ratio)*prev
		prev = out[i]
	}

	return out
}
