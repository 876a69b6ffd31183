package drawdown

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNAVPathCompounding(t *testing.T) {
	// NAV starts at 1.0 before any return; the first emitted value already
	// reflects the first return.
	path := NAVPath([]float64{0.1, -0.5, 0.25})
	require.Len(t, path, 3)
	assert.InDelta(t, 1.1, path[0], 1e-12)
	assert.InDelta(t, 0.55, path[1], 1e-12)
	assert.InDelta(t, 0.6875, path[2], 1e-12)
}

func TestMaxDrawdownKnownPath(t *testing.T) {
	result := Analyze([]float64{0.1, -0.5, 0.25})
	// Peak 1.1, trough 0.55: drawdown (1.1-0.55)/1.1 = 0.5.
	assert.InDelta(t, 0.5, result.MaxDrawdown, 1e-12)
}

func TestMaxDrawdownMonotonicRise(t *testing.T) {
	result := Analyze([]float64{0.01, 0.02, 0.005, 0.03})
	assert.Equal(t, 0.0, result.MaxDrawdown)
}

func TestMaxDrawdownNoSpuriousFirstPoint(t *testing.T) {
	// The running peak starts below any attainable NAV, so the first point
	// becomes the peak and never registers a drawdown, regardless of level.
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1.05}))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{0.95}))
}

func TestMaxDrawdownBounds(t *testing.T) {
	sequences := [][]float64{
		{0.02, -0.9, 0.5, -0.3, 0.8},
		{-0.01, -0.02, -0.03, -0.04},
		{0.0, 0.0, 0.0},
		{0.5, -0.99, 2.0},
	}
	for _, seq := range sequences {
		result := Analyze(seq)
		assert.GreaterOrEqual(t, result.MaxDrawdown, 0.0, "sequence %v", seq)
		assert.LessOrEqual(t, result.MaxDrawdown, 1.0, "sequence %v", seq)
		for _, nav := range result.NAVPath {
			assert.Greater(t, nav, 0.0, "NAV must stay positive for returns > -1")
		}
	}
}

func TestAnalyzeEmptySeries(t *testing.T) {
	result := Analyze(nil)
	assert.Empty(t, result.NAVPath)
	assert.Equal(t, 0.0, result.MaxDrawdown)
	assert.False(t, math.IsNaN(result.MaxDrawdown))
}
