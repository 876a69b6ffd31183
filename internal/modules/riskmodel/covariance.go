// Package riskmodel builds the covariance/correlation structure of an asset
// universe and the beta exposures against a benchmark.
package riskmodel

import (
	"github.com/rs/zerolog"

	"github.com/quantfold/riskengine/internal/domain"
	"github.com/quantfold/riskengine/pkg/formulas"
)

// Builder constructs covariance and correlation matrices over a universe.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a risk model builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{log: log.With().Str("component", "riskmodel").Logger()}
}

// Matrices builds the N x N covariance and correlation matrices over the
// universe by pairwise application of the sample moments, including the
// diagonal. Rows and columns follow universe order. The correlation diagonal
// is derived (cov(x,x)/(std(x)*std(x))), not pinned to 1.0, so it carries
// ordinary floating-point rounding and degenerates to NaN for constant
// series. Complexity is O(N^2 * n); the full matrix is computed rather than
// mirroring a triangle so the result is exactly the naive pairwise one.
func (b *Builder) Matrices(u domain.Universe) (cov, corr [][]float64) {
	n := len(u)
	cov = make([][]float64, n)
	corr = make([][]float64, n)

	for i := 0; i < n; i++ {
		cov[i] = make([]float64, n)
		corr[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			cov[i][j] = formulas.Covariance(u[i].Series, u[j].Series)
			corr[i][j] = formulas.Correlation(u[i].Series, u[j].Series)
		}
	}

	b.log.Debug().Int("num_assets", n).Msg("Built covariance and correlation matrices")
	return cov, corr
}
