package indicators

import (
	"math"
	"sort"
)

// NaN-aware trailing-window kernels shared by the aggregators. Every kernel is
// causal: out[i] depends only on in[max(0, i-w+1) .. i].
//
// Full-window kernels demand w valid (non-NaN) observations and yield NaN
// otherwise, matching a pandas rolling with the default min_periods. The
// *Skip variants take an explicit minPeriods and aggregate over whatever
// valid values the window holds.

// rollingSum computes a trailing sum over exactly w valid observations.
func rollingSum(in []float64, w int) []float64 {
	out := nanSlice(len(in))
	if w <= 0 || len(in) < w {
		return out
	}
	sum := 0.0
	valid := 0
	for i, v := range in {
		if !math.IsNaN(v) {
			sum += v
			valid++
		}
		if i >= w {
			old := in[i-w]
			if !math.IsNaN(old) {
				sum -= old
				valid--
			}
		}
		if i >= w-1 && valid == w {
			out[i] = sum
		}
	}
	return out
}

// rollingMean computes a trailing mean over exactly w valid observations.
func rollingMean(in []float64, w int) []float64 {
	out := rollingSum(in, w)
	for i, v := range out {
		if !math.IsNaN(v) {
			out[i] = v / float64(w)
		}
	}
	return out
}

// rollingMeanSkip averages the valid values in the trailing window, requiring
// at least minPeriods of them.
func rollingMeanSkip(in []float64, w, minPeriods int) []float64 {
	out := nanSlice(len(in))
	if w <= 0 {
		return out
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	sum := 0.0
	valid := 0
	for i, v := range in {
		if !math.IsNaN(v) {
			sum += v
			valid++
		}
		if i >= w {
			old := in[i-w]
			if !math.IsNaN(old) {
				sum -= old
				valid--
			}
		}
		if valid >= minPeriods {
			out[i] = sum / float64(valid)
		}
	}
	return out
}

// rollingSumSkip sums the valid values in the trailing window, requiring at
// least minPeriods of them.
func rollingSumSkip(in []float64, w, minPeriods int) []float64 {
	out := nanSlice(len(in))
	if w <= 0 {
		return out
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	sum := 0.0
	valid := 0
	for i, v := range in {
		if !math.IsNaN(v) {
			sum += v
			valid++
		}
		if i >= w {
			old := in[i-w]
			if !math.IsNaN(old) {
				sum -= old
				valid--
			}
		}
		if valid >= minPeriods {
			out[i] = sum
		}
	}
	return out
}

// rollingStdSkip computes the population standard deviation of the valid
// values in the trailing window, requiring at least minPeriods of them.
func rollingStdSkip(in []float64, w, minPeriods int) []float64 {
	out := nanSlice(len(in))
	if w <= 0 {
		return out
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	for i := range in {
		lo := i - w + 1
		if lo < 0 {
			lo = 0
		}
		var sum float64
		valid := 0
		for j := lo; j <= i; j++ {
			if !math.IsNaN(in[j]) {
				sum += in[j]
				valid++
			}
		}
		if valid < minPeriods {
			continue
		}
		mean := sum / float64(valid)
		var ss float64
		for j := lo; j <= i; j++ {
			if !math.IsNaN(in[j]) {
				d := in[j] - mean
				ss += d * d
			}
		}
		out[i] = math.Sqrt(ss / float64(valid))
	}
	return out
}

// rollingMaxSkip takes the max of valid values in the trailing window,
// requiring at least minPeriods of them.
func rollingMaxSkip(in []float64, w, minPeriods int) []float64 {
	return rollingExtreme(in, w, minPeriods, func(a, b float64) bool { return a > b })
}

// rollingMinSkip takes the min of valid values in the trailing window,
// requiring at least minPeriods of them.
func rollingMinSkip(in []float64, w, minPeriods int) []float64 {
	return rollingExtreme(in, w, minPeriods, func(a, b float64) bool { return a < b })
}

func rollingExtreme(in []float64, w, minPeriods int, better func(a, b float64) bool) []float64 {
	out := nanSlice(len(in))
	if w <= 0 {
		return out
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	for i := range in {
		lo := i - w + 1
		if lo < 0 {
			lo = 0
		}
		best := math.NaN()
		valid := 0
		for j := lo; j <= i; j++ {
			v := in[j]
			if math.IsNaN(v) {
				continue
			}
			valid++
			if math.IsNaN(best) || better(v, best) {
				best = v
			}
		}
		if valid >= minPeriods {
			out[i] = best
		}
	}
	return out
}

// rollingMedianSkip computes the median of valid values in the trailing
// window, requiring at least minPeriods of them.
func rollingMedianSkip(in []float64, w, minPeriods int) []float64 {
	out := nanSlice(len(in))
	if w <= 0 {
		return out
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	buf := make([]float64, 0, w)
	for i := range in {
		lo := i - w + 1
		if lo < 0 {
			lo = 0
		}
		buf = buf[:0]
		for j := lo; j <= i; j++ {
			if !math.IsNaN(in[j]) {
				buf = append(buf, in[j])
			}
		}
		if len(buf) < minPeriods {
			continue
		}
		sort.Float64s(buf)
		mid := len(buf) / 2
		if len(buf)%2 == 1 {
			out[i] = buf[mid]
		} else {
			out[i] = (buf[mid-1] + buf[mid]) / 2
		}
	}
	return out
}

// expandingMax is the running max of all valid values seen so far.
func expandingMax(in []float64) []float64 {
	out := nanSlice(len(in))
	best := math.NaN()
	for i, v := range in {
		if !math.IsNaN(v) && (math.IsNaN(best) || v > best) {
			best = v
		}
		out[i] = best
	}
	return out
}

// expandingMin is the running min of all valid values seen so far.
func expandingMin(in []float64) []float64 {
	out := nanSlice(len(in))
	best := math.NaN()
	for i, v := range in {
		if !math.IsNaN(v) && (math.IsNaN(best) || v < best) {
			best = v
		}
		out[i] = best
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
