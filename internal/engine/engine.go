// Package engine orchestrates a full portfolio risk report from the input
// contract: universe, weights, confidence level, VaR method, benchmark
// series, and stress shock.
//
// Every computation is a pure function of its inputs. The engine holds no
// mutable cross-call state and does no caching or I/O; callers re-invoke
// Compute whenever any input changes.
package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantfold/riskengine/internal/domain"
	"github.com/quantfold/riskengine/internal/modules/drawdown"
	"github.com/quantfold/riskengine/internal/modules/portfolio"
	"github.com/quantfold/riskengine/internal/modules/riskmodel"
	"github.com/quantfold/riskengine/internal/modules/stress"
	"github.com/quantfold/riskengine/internal/modules/valueatrisk"
	"github.com/quantfold/riskengine/pkg/formulas"
)

// Input is the full input contract for one computation pass.
type Input struct {
	Universe   domain.Universe     `json:"universe"`
	Weights    []float64           `json:"weights"`
	Confidence float64             `json:"confidence"`
	Method     valueatrisk.Method  `json:"method"`
	Benchmark  domain.ReturnSeries `json:"benchmark"`
	Shock      float64             `json:"shock"`
}

// Report is the full output contract of one computation pass. Numeric
// degeneracies (insufficient data, zero variance) surface as NaN or Inf
// fields rather than an error.
type Report struct {
	NormalizedWeights []float64       `json:"normalized_weights"`
	Covariance        [][]float64     `json:"covariance_matrix"`
	Correlation       [][]float64     `json:"correlation_matrix"`
	PortfolioReturns  []float64       `json:"portfolio_returns"`
	VolatilityDirect  float64         `json:"volatility_annualized_direct"`
	VolatilityMatrix  float64         `json:"volatility_annualized_matrix"`
	AssetVolatilities []float64       `json:"asset_volatilities"`
	AssetBetas        []float64       `json:"asset_betas"`
	PortfolioBeta     float64         `json:"portfolio_beta"`
	VaR               float64         `json:"var_estimate"`
	VaRMethod         string          `json:"var_method"`
	Confidence        float64         `json:"confidence"`
	NAVPath           []float64       `json:"nav_path"`
	MaxDrawdown       float64         `json:"max_drawdown"`
	Stress            stress.Scenario `json:"stress"`
}

// Engine computes risk reports. Safe for concurrent use: it carries only a
// logger and stateless collaborators.
type Engine struct {
	aggregator *portfolio.Aggregator
	builder    *riskmodel.Builder
	log        zerolog.Logger
}

// New creates an engine.
func New(log zerolog.Logger) *Engine {
	return &Engine{
		aggregator: portfolio.NewAggregator(log),
		builder:    riskmodel.NewBuilder(log),
		log:        log.With().Str("component", "engine").Logger(),
	}
}

// Validate rejects malformed input shape. These are programming-contract
// violations at the boundary, distinct from the NaN-producing numeric
// degeneracies, and they fail fast. An empty method is defaulted to
// historical. Compute validates on its own; callers that derive cache keys
// from the input should call Validate first so rejected requests are never
// hashed and the defaulted method keys consistently.
func (in *Input) Validate() error {
	if err := in.Universe.Validate(); err != nil {
		return err
	}
	if len(in.Weights) != len(in.Universe) {
		return fmt.Errorf("weight vector length %d does not match universe size %d",
			len(in.Weights), len(in.Universe))
	}
	for i, w := range in.Weights {
		if w < 0 {
			return fmt.Errorf("negative raw weight %v at index %d", w, i)
		}
	}
	switch in.Method {
	case valueatrisk.Historical, valueatrisk.VarianceCovariance:
	case "":
		in.Method = valueatrisk.Historical
	default:
		return fmt.Errorf("unknown VaR method %q", in.Method)
	}
	return nil
}

// Compute runs one full, independent computation pass over the input tuple.
func (e *Engine) Compute(in Input) (*Report, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	e.log.Debug().
		Int("num_assets", len(in.Universe)).
		Int("benchmark_len", len(in.Benchmark)).
		Float64("confidence", in.Confidence).
		Str("method", string(in.Method)).
		Msg("Computing risk report")

	weights := e.aggregator.Normalize(in.Weights)
	cov, corr := e.builder.Matrices(in.Universe)
	pReturns := e.aggregator.Returns(in.Universe, weights)

	assetVols := make([]float64, len(in.Universe))
	for i, a := range in.Universe {
		assetVols[i] = formulas.AnnualizedVolatility(a.Series)
	}

	betas := e.builder.Betas(in.Universe, in.Benchmark)

	varEstimate, err := valueatrisk.Estimate(in.Method, pReturns, in.Confidence)
	if err != nil {
		return nil, err
	}

	dd := drawdown.Analyze(pReturns)
	scenario := stress.Propagate(in.Universe, in.Benchmark, weights, in.Shock)

	return &Report{
		NormalizedWeights: weights,
		Covariance:        cov,
		Correlation:       corr,
		PortfolioReturns:  pReturns,
		VolatilityDirect:  e.aggregator.VolatilityDirect(pReturns),
		VolatilityMatrix:  e.aggregator.VolatilityFromMatrix(weights, cov),
		AssetVolatilities: assetVols,
		AssetBetas:        betas,
		PortfolioBeta:     riskmodel.PortfolioBeta(weights, betas),
		VaR:               varEstimate,
		VaRMethod:         string(in.Method),
		Confidence:        in.Confidence,
		NAVPath:           dd.NAVPath,
		MaxDrawdown:       dd.MaxDrawdown,
		Stress:            scenario,
	}, nil
}
