package attribution

import "math"

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// isConstant reports whether every value equals the first. Constant series
// have zero variance and an undefined correlation.
func isConstant(xs []float64) bool {
	if len(xs) == 0 {
		return true
	}
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// pearson returns the Pearson correlation of x and y. ok is false when the
// series are shorter than two points, differ in length, or either is constant.
func pearson(x, y []float64) (r float64, ok bool) {
	n := len(x)
	if n < 2 || n != len(y) || isConstant(x) || isConstant(y) {
		return 0, false
	}

	mx := sum(x) / float64(n)
	my := sum(y) / float64(n)

	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}

	r = sxy / math.Sqrt(sxx*syy)
	// Clamp rounding overshoot on perfectly collinear inputs.
	return math.Max(-1, math.Min(1, r)), true
}

func countNonZero(xs []float64) int {
	var n int
	for _, x := range xs {
		if x != 0 {
			n++
		}
	}
	return n
}
