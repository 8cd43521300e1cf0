// Package rolling computes trailing-window extrema in O(n).
//
// For positions before the first full window the result is the running
// extremum of everything seen so far. That partial answer is intentional:
// callers such as the stochastic oscillator want a value from the first
// candle onwards instead of an undefined warm-up.
package rolling

import (
	"math"

	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// Max returns, for each index i, the maximum of s over the trailing window
// samples (or over s[0..i] while fewer than window samples exist). A NaN
// anywhere in that range yields NaN.
func Max(s ta.Series, window int) ta.Series {
	return extremum(s, window, func(a, b float64) bool { return a >= b })
}

// Min is the rolling minimum counterpart of Max.
func Min(s ta.Series, window int) ta.Series {
	return extremum(s, window, func(a, b float64) bool { return a <= b })
}

// extremum keeps a deque of indices whose values are monotonic under
// dominates. The front is always the extremum of the defined samples in the
// current window. NaN samples stay out of the deque; while the most recent
// one is inside the window the output is NaN.
func extremum(s ta.Series, window int, dominates func(a, b float64) bool) ta.Series {
	if window < 1 {
		window = 1
	}

	out := make(ta.Series, len(s))
	deque := make([]int, 0, window)
	head := 0
	lastNaN := -1

	for i, v := range s {
		if math.IsNaN(v) {
			lastNaN = i
		} else {
			for len(deque) > head && dominates(v, s[deque[len(deque)-1]]) {
				deque = deque[:len(deque)-1]
			}

			deque = append(deque, i)
		}

		if len(deque) > head && deque[head] <= i-window {
			head++
		}

		if lastNaN >= 0 && lastNaN > i-window {
			out[i] = math.NaN()
		} else {
			out[i] = s[deque[head]]
		}

		// reclaim the consumed prefix so the buffer stays O(window)
		if head > window {
			deque = append(deque[:0], deque[head:]...)
			head = 0
		}
	}

	return out
}
