// Package valueatrisk estimates one-day Value-at-Risk for a portfolio return
// series, by historical simulation or by the variance-covariance (parametric
// normal) method.
package valueatrisk

import (
	"fmt"

	"github.com/quantfold/riskengine/pkg/formulas"
)

// Method selects the VaR estimator.
type Method string

const (
	// Historical computes VaR from the empirical return distribution.
	Historical Method = "historical"
	// VarianceCovariance computes VaR assuming normally distributed returns.
	VarianceCovariance Method = "variance_covariance"
)

// zScores maps supported confidence levels to fixed one-tailed z-scores.
// Other confidence values fall back to the 95% z-score; this is a documented
// approximation, not an interpolation.
var zScores = map[float64]float64{
	0.90: 1.282,
	0.95: 1.645,
	0.99: 2.326,
}

const fallbackZ = 1.645

// ZScore returns the one-tailed z-score for a confidence level.
func ZScore(confidence float64) float64 {
	if z, ok := zScores[confidence]; ok {
		return z
	}
	return fallbackZ
}

// HistoricalVaR computes the (1-confidence) empirical quantile of the return
// series (type 7 interpolation) and reports its magnitude as a loss. A
// positive quantile (every tail outcome a gain) clamps to zero rather than
// reporting a negative VaR.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	q := formulas.Quantile(returns, 1.0-confidence)
	return clampLoss(-q)
}

// ParametricVaR computes z(confidence)*std - mean over the return series,
// clamped to be non-negative. A positive-mean, low-volatility portfolio can
// push the raw figure negative; that is floored at zero, not reported as a
// gain.
func ParametricVaR(returns []float64, confidence float64) float64 {
	v := ZScore(confidence)*formulas.StdDev(returns) - formulas.Mean(returns)
	return clampLoss(v)
}

// Estimate dispatches to the selected method.
func Estimate(method Method, returns []float64, confidence float64) (float64, error) {
	switch method {
	case Historical:
		return HistoricalVaR(returns, confidence), nil
	case VarianceCovariance:
		return ParametricVaR(returns, confidence), nil
	default:
		return 0, fmt.Errorf("unknown VaR method %q", method)
	}
}

// clampLoss floors the estimate at zero. NaN passes through untouched so
// insufficient-data conditions stay visible.
func clampLoss(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
