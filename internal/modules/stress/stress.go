// Package stress propagates a one-day benchmark shock onto a portfolio.
//
// The model is linear and single-factor: the shock is expressed in benchmark
// standard-deviation units and mapped onto each asset through its benchmark
// correlation and its own volatility. It is an approximation for quick
// what-if estimates, not a statistically rigorous stress VaR and not a joint
// simulation.
package stress

import (
	"math"

	"github.com/quantfold/riskengine/internal/domain"
	"github.com/quantfold/riskengine/pkg/formulas"
)

// sigmaFloor guards the standard deviations used as divisors and scale
// factors against (near-)zero values.
const sigmaFloor = 1e-9

// Scenario is a benchmark one-day shock and its estimated propagation.
type Scenario struct {
	BenchmarkShock  float64   `json:"benchmark_shock"`
	AssetShocks     []float64 `json:"asset_shocks"`
	PortfolioImpact float64   `json:"portfolio_impact"`
}

// AssetShock maps a z-scored benchmark shock onto one asset:
// z * corr(asset, bench) * sigma(asset).
func AssetShock(z, correlation, sigma float64) float64 {
	return z * correlation * math.Max(sigma, sigmaFloor)
}

// Propagate estimates the portfolio impact of a one-day fractional benchmark
// shock (negative or positive). weights must be normalized and aligned to
// universe order.
func Propagate(u domain.Universe, bench domain.ReturnSeries, weights []float64, shock float64) Scenario {
	sigmaBench := math.Max(formulas.StdDev(bench), sigmaFloor)
	z := shock / sigmaBench

	shocks := make([]float64, len(u))
	impact := 0.0
	for i, a := range u {
		shocks[i] = AssetShock(z, formulas.Correlation(a.Series, bench), formulas.StdDev(a.Series))
		impact += weights[i] * shocks[i]
	}

	return Scenario{
		BenchmarkShock:  shock,
		AssetShocks:     shocks,
		PortfolioImpact: impact,
	}
}
