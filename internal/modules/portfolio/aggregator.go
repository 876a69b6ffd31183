// Package portfolio aggregates per-asset return series into portfolio-level
// series and volatility figures.
package portfolio

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/quantfold/riskengine/internal/domain"
	"github.com/quantfold/riskengine/pkg/formulas"
)

// Aggregator computes portfolio-level series from a universe and a weight
// vector. It holds no state across calls.
type Aggregator struct {
	log zerolog.Logger
}

// NewAggregator creates a portfolio aggregator.
func NewAggregator(log zerolog.Logger) *Aggregator {
	return &Aggregator{log: log.With().Str("component", "portfolio").Logger()}
}

// Normalize scales raw weights so they sum to 1. If the raw weights sum to
// exactly zero, normalization is skipped and a copy of the raw weights is
// returned unchanged (degenerate passthrough, pinned by tests).
func (a *Aggregator) Normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	sum := 0.0
	for _, w := range raw {
		sum += w
	}
	if sum == 0 {
		copy(out, raw)
		return out
	}
	for i, w := range raw {
		out[i] = w / sum
	}
	return out
}

// Returns computes the weighted portfolio return series: for each time index
// t, p_t = sum_i w_i * r_{i,t}. The first asset's length is the canonical
// series length; if the universe is ragged the series is clamped to the
// shortest length actually indexed. Short series are never zero-extended.
// Weights must already be aligned to universe order.
func (a *Aggregator) Returns(u domain.Universe, weights []float64) []float64 {
	if len(u) == 0 || len(weights) != len(u) {
		return []float64{}
	}

	n := len(u[0].Series)
	for _, asset := range u[1:] {
		if len(asset.Series) < n {
			n = len(asset.Series)
		}
	}
	if n < len(u[0].Series) {
		a.log.Warn().
			Int("canonical_len", len(u[0].Series)).
			Int("effective_len", n).
			Msg("Ragged universe: truncating portfolio returns to shortest series")
	}

	out := make([]float64, n)
	for t := 0; t < n; t++ {
		p := 0.0
		for i, asset := range u {
			p += weights[i] * asset.Series[t]
		}
		out[t] = p
	}
	return out
}

// VolatilityDirect annualizes the sample standard deviation of the portfolio
// return series.
func (a *Aggregator) VolatilityDirect(pReturns []float64) float64 {
	return formulas.AnnualizedVolatility(pReturns)
}

// VolatilityFromMatrix derives annualized portfolio volatility from the
// covariance matrix via the quadratic form sqrt(w' * Cov * w) * sqrt(252).
// It is an independent derivation of VolatilityDirect; the two agree within
// floating-point tolerance for aligned universes.
func (a *Aggregator) VolatilityFromMatrix(weights []float64, cov [][]float64) float64 {
	n := len(weights)
	if n == 0 || len(cov) != n {
		return math.NaN()
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, cov[i][j])
		}
	}
	w := mat.NewVecDense(n, weights)

	variance := mat.Inner(w, sym, w)
	return math.Sqrt(variance) * math.Sqrt(formulas.TradingDaysPerYear)
}
