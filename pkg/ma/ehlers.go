package ma

import (
	"math"

	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// Filters in this file follow John F. Ehlers. Recursive filters copy the
// input for the samples they cannot yet compute, so their output is defined
// from the first index.

// superSmoother is the 2-pole Butterworth super smoother.
func superSmoother(s ta.Series, period int) ta.Series {
	out := append(ta.Series(nil), s...)

	a := math.Exp(-math.Sqrt2 * math.Pi / float64(period))
	b := 2 * a * math.Cos(math.Sqrt2*math.Pi/float64(period))
	c2 := b
	c3 := -a * a
	c1 := 1 - c2 - c3

	for i := 2; i < len(s); i++ {
		out[i] = c1*(s[i]+s[i-1])/2 + c2*out[i-1] + c3*out[i-2]
	}

	return out
}

// superSmoother3Pole is the 3-pole Butterworth variant.
func superSmoother3Pole(s ta.Series, period int) ta.Series {
	out := append(ta.Series(nil), s...)

	a := math.Exp(-math.Pi / float64(period))
	b := 2 * a * math.Cos(1.738*math.Pi/float64(period))
	c := a * a
	d4 := c * c
	d3 := -(c + b*c)
	d2 := b + c
	d1 := 1 - d2 - d3 - d4

	for i := 3; i < len(s); i++ {
		out[i] = d1*s[i] + d2*out[i-1] + d3*out[i-2] + d4*out[i-3]
	}

	return out
}

const gaussPoles = 4

// gauss is the 4-pole Gaussian filter.
func gauss(s ta.Series, period int) ta.Series {
	out := append(ta.Series(nil), s...)

	beta := (1 - math.Cos(2*math.Pi/float64(period))) / (math.Pow(2, 1.0/gaussPoles) - 1)
	alpha := -beta + math.Sqrt(beta*beta+2*beta)
	x := 1 - alpha

	for i := gaussPoles; i < len(s); i++ {
		out[i] = math.Pow(alpha, gaussPoles)*s[i] +
			4*x*out[i-1] -
			6*x*x*out[i-2] +
			4*x*x*x*out[i-3] -
			x*x*x*x*out[i-4]
	}

	return out
}

// highPass is the 1-pole high pass filter. The output oscillates around
// zero and starts at zero.
func highPass(s ta.Series, period int) ta.Series {
	out := make(ta.Series, len(s))

	angle := 2 * math.Pi / float64(period)
	alpha := 1 + (math.Sin(angle)-1)/math.Cos(angle)

	for i := 1; i < len(s); i++ {
		out[i] = (1-alpha/2)*(s[i]-s[i-1]) + (1-alpha)*out[i-1]
	}

	return out
}

// highPass2Pole is the 2-pole high pass filter.
func highPass2Pole(s ta.Series, period int) ta.Series {
	out := make(ta.Series, len(s))

	angle := 0.707 * 2 * math.Pi / float64(period)
	alpha := 1 + (math.Sin(angle)-1)/math.Cos(angle)
	k := (1 - alpha/2) * (1 - alpha/2)

	for i := 2; i < len(s); i++ {
		out[i] = k*(s[i]-2*s[i-1]+s[i-2]) +
			2*(1-alpha)*out[i-1] -
			(1-alpha)*(1-alpha)*out[i-2]
	}

	return out
}

// flex normalises a super-smoothed deviation sum by its exponentially
// averaged power. reflex and trendflex differ only in the deviation sum.
func flex(s ta.Series, period int, deviation func(ssf ta.Series, i int) float64) ta.Series {
	out := ta.NaNs(len(s))

	half := period / 2
	if half < 1 {
		half = 1
	}

	ssf := superSmoother(s, half)
	ms := 0.0

	for i := period; i < len(s); i++ {
		sum := deviation(ssf, i) / float64(period)
		ms = 0.04*sum*sum + 0.96*ms

		if ms > 0 {
			out[i] = sum / math.Sqrt(ms)
		} else {
			out[i] = 0
		}
	}

	return out
}

func reflex(s ta.Series, period int) ta.Series {
	return flex(s, period, func(ssf ta.Series, i int) float64 {
		slope := (ssf[i-period] - ssf[i]) / float64(period)

		sum := 0.0
		for t := 1; t <= period; t++ {
			sum += ssf[i] + float64(t)*slope - ssf[i-t]
		}

		return sum
	})
}

func trendFlex(s ta.Series, period int) ta.Series {
	return flex(s, period, func(ssf ta.Series, i int) float64 {
		sum := 0.0
		for t := 1; t <= period; t++ {
			sum += ssf[i] - ssf[i-t]
		}

		return sum
	})
}

// edcf is the distance coefficient filter: each sample in the window is
// weighted by its summed squared distance to the period-1 samples before
// it. A flat window has zero total weight and yields NaN.
func edcf(s ta.Series, period int) ta.Series {
	out := ta.NaNs(len(s))

	for i := 2*period - 2; i < len(s); i++ {
		num, den := 0.0, 0.0

		for k := 0; k < period; k++ {
			j := i - k

			dist := 0.0
			for l := 1; l < period; l++ {
				d := s[j] - s[j-l]
				dist += d * d
			}

			num += dist * s[j]
			den += dist
		}

		out[i] = num / den
	}

	return out
}
