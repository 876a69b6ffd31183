// Package formulas provides the low-level statistical building blocks used by
// the risk engine: sample moments, pairwise covariance/correlation, and
// empirical quantiles over daily return series.
//
// Degenerate inputs never panic. Moments that are undefined for the given
// sample size yield NaN, so the condition stays visible all the way up the
// aggregation chain instead of being silently coerced to zero.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization basis for daily statistics.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values.
// Returns NaN on empty input.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (Bessel-corrected, n-1
// divisor) of a slice of float64 values. Returns NaN when n < 2.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the sample variance of a slice of float64 values.
// Returns NaN when n < 2.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	return stat.Variance(data, nil)
}

// Covariance calculates the sample covariance between two series. Series of
// unequal length are truncated to their overlapping prefix rather than
// rejected. Returns NaN when the overlap is shorter than 2.
func Covariance(x, y []float64) float64 {
	n := min(len(x), len(y))
	if n < 2 {
		return math.NaN()
	}
	return stat.Covariance(x[:n], y[:n], nil)
}

// Correlation calculates the Pearson correlation coefficient between two
// series over their overlapping prefix, derived as cov(x,y)/(std(x)*std(y)).
// A zero-variance input makes the result NaN. That is deliberate: a constant
// series has no defined correlation, which must stay distinguishable from a
// valid zero correlation.
func Correlation(x, y []float64) float64 {
	n := min(len(x), len(y))
	if n < 2 {
		return math.NaN()
	}
	return stat.Covariance(x[:n], y[:n], nil) / (stat.StdDev(x[:n], nil) * stat.StdDev(y[:n], nil))
}

// AnnualizedVolatility calculates annualized volatility from daily returns:
// sample std of daily returns scaled by sqrt(252). NaN when n < 2.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// Quantile computes the q-th empirical quantile of data using linear
// interpolation between order statistics (the "type 7" estimator: sort
// ascending, position (n-1)*q, interpolate between the bracketing values).
// Returns NaN on empty input.
func Quantile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := float64(len(sorted)-1) * q
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
