// Package drawdown derives the cumulative NAV path of a return series and
// its maximum peak-to-trough decline.
package drawdown

import "math"

// Result holds the compounded NAV path and the maximum drawdown observed
// along it.
type Result struct {
	NAVPath     []float64 `json:"nav_path"`
	MaxDrawdown float64   `json:"max_drawdown"`
}

// NAVPath compounds a return series from a unit baseline:
// NAV_t = NAV_{t-1} * (1 + r_t), NAV_0 = 1.0 before any return. The first
// emitted value already reflects the first return.
func NAVPath(returns []float64) []float64 {
	nav := 1.0
	path := make([]float64, len(returns))
	for i, r := range returns {
		nav *= 1 + r
		path[i] = nav
	}
	return path
}

// MaxDrawdown tracks the running peak over the NAV path and reports the
// maximum of (peak - value)/peak. The peak starts below any attainable NAV
// so the first point can never register a spurious drawdown.
func MaxDrawdown(navPath []float64) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, v := range navPath {
		if v > peak {
			peak = v
		}
		dd := (peak - v) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Analyze compounds the return series and measures its maximum drawdown.
func Analyze(returns []float64) Result {
	path := NAVPath(returns)
	return Result{
		NAVPath:     path,
		MaxDrawdown: MaxDrawdown(path),
	}
}
