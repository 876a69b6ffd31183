package riskmodel

import (
	"github.com/quantfold/riskengine/internal/domain"
	"github.com/quantfold/riskengine/pkg/formulas"
)

// Beta computes the sensitivity of an asset's returns to the benchmark:
// cov(asset, bench) / cov(bench, bench). A zero-variance benchmark makes the
// result NaN or Inf; it is never coerced to a neutral value.
func Beta(asset, bench domain.ReturnSeries) float64 {
	return formulas.Covariance(asset, bench) / formulas.Covariance(bench, bench)
}

// Betas computes per-asset betas against the benchmark, in universe order.
func (b *Builder) Betas(u domain.Universe, bench domain.ReturnSeries) []float64 {
	betas := make([]float64, len(u))
	for i, a := range u {
		betas[i] = Beta(a.Series, bench)
	}
	return betas
}

// PortfolioBeta is the weighted average of per-asset betas using normalized
// weights. This is deliberately not a matrix computation.
func PortfolioBeta(weights, betas []float64) float64 {
	total := 0.0
	for i := range betas {
		total += weights[i] * betas[i]
	}
	return total
}
