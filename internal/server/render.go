package server

import (
	"encoding/json"
	"math"

	"github.com/quantfold/riskengine/internal/engine"
)

// jsonNumber is a float64 that renders non-finite values as JSON null.
// encoding/json rejects NaN and Inf outright, which would otherwise turn a
// degenerate-but-valid report into an encode failure after the status line
// has already been written.
type jsonNumber float64

func (f jsonNumber) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// reportPayload mirrors engine.Report field for field, substituting
// null-tolerant numbers so NaN/Inf fields stay visible to API clients
// instead of breaking the response encoding.
type reportPayload struct {
	NormalizedWeights []jsonNumber   `json:"normalized_weights"`
	Covariance        [][]jsonNumber `json:"covariance_matrix"`
	Correlation       [][]jsonNumber `json:"correlation_matrix"`
	PortfolioReturns  []jsonNumber   `json:"portfolio_returns"`
	VolatilityDirect  jsonNumber     `json:"volatility_annualized_direct"`
	VolatilityMatrix  jsonNumber     `json:"volatility_annualized_matrix"`
	AssetVolatilities []jsonNumber   `json:"asset_volatilities"`
	AssetBetas        []jsonNumber   `json:"asset_betas"`
	PortfolioBeta     jsonNumber     `json:"portfolio_beta"`
	VaR               jsonNumber     `json:"var_estimate"`
	VaRMethod         string         `json:"var_method"`
	Confidence        jsonNumber     `json:"confidence"`
	NAVPath           []jsonNumber   `json:"nav_path"`
	MaxDrawdown       jsonNumber     `json:"max_drawdown"`
	Stress            stressPayload  `json:"stress"`
}

type stressPayload struct {
	BenchmarkShock  jsonNumber   `json:"benchmark_shock"`
	AssetShocks     []jsonNumber `json:"asset_shocks"`
	PortfolioImpact jsonNumber   `json:"portfolio_impact"`
}

func newReportPayload(r *engine.Report) reportPayload {
	return reportPayload{
		NormalizedWeights: numbers(r.NormalizedWeights),
		Covariance:        numberMatrix(r.Covariance),
		Correlation:       numberMatrix(r.Correlation),
		PortfolioReturns:  numbers(r.PortfolioReturns),
		VolatilityDirect:  jsonNumber(r.VolatilityDirect),
		VolatilityMatrix:  jsonNumber(r.VolatilityMatrix),
		AssetVolatilities: numbers(r.AssetVolatilities),
		AssetBetas:        numbers(r.AssetBetas),
		PortfolioBeta:     jsonNumber(r.PortfolioBeta),
		VaR:               jsonNumber(r.VaR),
		VaRMethod:         r.VaRMethod,
		Confidence:        jsonNumber(r.Confidence),
		NAVPath:           numbers(r.NAVPath),
		MaxDrawdown:       jsonNumber(r.MaxDrawdown),
		Stress: stressPayload{
			BenchmarkShock:  jsonNumber(r.Stress.BenchmarkShock),
			AssetShocks:     numbers(r.Stress.AssetShocks),
			PortfolioImpact: jsonNumber(r.Stress.PortfolioImpact),
		},
	}
}

func numbers(s []float64) []jsonNumber {
	out := make([]jsonNumber, len(s))
	for i, v := range s {
		out[i] = jsonNumber(v)
	}
	return out
}

func numberMatrix(m [][]float64) [][]jsonNumber {
	out := make([][]jsonNumber, len(m))
	for i, row := range m {
		out[i] = numbers(row)
	}
	return out
}
