package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/riskengine/internal/domain"
	"github.com/quantfold/riskengine/internal/modules/universe"
)

func newTestServer(t *testing.T, historyDB *universe.HistoryDB) *Server {
	t.Helper()
	return New(Config{
		Port:      0,
		DevMode:   true,
		HistoryDB: historyDB,
		Log:       zerolog.Nop(),
	})
}

func validReportBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"assets": []map[string]interface{}{
			{"id": "EQ", "returns": []float64{0.01, -0.02, 0.015, 0.004, -0.006, 0.009}},
			{"id": "FI", "returns": []float64{0.001, 0.002, -0.001, 0.003, 0.000, -0.002}},
		},
		"weights":    []float64{3, 1},
		"confidence": 0.95,
		"method":     "historical",
		"benchmark":  []float64{0.008, -0.015, 0.012, 0.003, -0.005, 0.007},
		"shock":      -0.05,
	})
	require.NoError(t, err)
	return body
}

func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (map[string]interface{}, map[string]interface{}) {
	t.Helper()
	var envelope struct {
		Data     map[string]interface{} `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data, envelope.Metadata
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestComputeReportEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/risk/report", bytes.NewReader(validReportBody(t)))
	rec := doRequest(srv, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	data, metadata := decodeEnvelope(t, rec)
	assert.NotEmpty(t, metadata["report_id"])
	assert.Equal(t, false, metadata["cached"])

	weights, ok := data["normalized_weights"].([]interface{})
	require.True(t, ok)
	require.Len(t, weights, 2)
	assert.InDelta(t, 0.75, weights[0].(float64), 1e-12)
	assert.Equal(t, "historical", data["var_method"])
	assert.GreaterOrEqual(t, data["var_estimate"].(float64), 0.0)
}

func TestComputeReportCachesIdenticalInput(t *testing.T) {
	srv := newTestServer(t, nil)
	body := validReportBody(t)

	rec := doRequest(srv, httptest.NewRequest(http.MethodPost, "/api/risk/report", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	_, metadata := decodeEnvelope(t, rec)
	assert.Equal(t, false, metadata["cached"])

	rec = doRequest(srv, httptest.NewRequest(http.MethodPost, "/api/risk/report", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	_, metadata = decodeEnvelope(t, rec)
	assert.Equal(t, true, metadata["cached"])
}

func TestComputeReportDegenerateInputIsValidJSON(t *testing.T) {
	// Length-1 series are a valid input whose report carries NaN fields.
	// Those must render as JSON null in a well-formed 200 response, not
	// break the encoder after the status line is out.
	srv := newTestServer(t, nil)
	body, err := json.Marshal(map[string]interface{}{
		"assets": []map[string]interface{}{
			{"id": "EQ", "returns": []float64{0.01}},
			{"id": "FI", "returns": []float64{0.02}},
		},
		"weights":    []float64{1, 1},
		"confidence": 0.95,
		"benchmark":  []float64{0.01},
		"shock":      -0.05,
	})
	require.NoError(t, err)

	rec := doRequest(srv, httptest.NewRequest(http.MethodPost, "/api/risk/report", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.Bytes())

	data, metadata := decodeEnvelope(t, rec)
	assert.NotEmpty(t, metadata["report_id"])

	assert.Nil(t, data["volatility_annualized_direct"])
	assert.Nil(t, data["portfolio_beta"])

	matrix, ok := data["covariance_matrix"].([]interface{})
	require.True(t, ok)
	row := matrix[0].([]interface{})
	assert.Nil(t, row[0])

	// Finite fields come through as numbers alongside the nulls.
	assert.Equal(t, 0.0, data["var_estimate"])
	assert.Equal(t, 0.95, data["confidence"])
}

func TestComputeReportDefaultMethodSharesCacheEntry(t *testing.T) {
	// Validation defaults an empty method before the cache key is derived,
	// so "" and "historical" hash to the same entry.
	srv := newTestServer(t, nil)

	makeBody := func(method string) []byte {
		body, err := json.Marshal(map[string]interface{}{
			"assets": []map[string]interface{}{
				{"id": "EQ", "returns": []float64{0.01, -0.02, 0.015, 0.004}},
				{"id": "FI", "returns": []float64{0.001, 0.002, -0.001, 0.003}},
			},
			"weights":    []float64{1, 1},
			"confidence": 0.95,
			"method":     method,
			"benchmark":  []float64{0.008, -0.015, 0.012, 0.003},
			"shock":      -0.05,
		})
		require.NoError(t, err)
		return body
	}

	rec := doRequest(srv, httptest.NewRequest(http.MethodPost, "/api/risk/report", bytes.NewReader(makeBody(""))))
	require.Equal(t, http.StatusOK, rec.Code)
	_, metadata := decodeEnvelope(t, rec)
	assert.Equal(t, false, metadata["cached"])

	rec = doRequest(srv, httptest.NewRequest(http.MethodPost, "/api/risk/report", bytes.NewReader(makeBody("historical"))))
	require.Equal(t, http.StatusOK, rec.Code)
	data, metadata := decodeEnvelope(t, rec)
	assert.Equal(t, true, metadata["cached"])
	assert.Equal(t, "historical", data["var_method"])
}

func TestComputeReportRejectsBadJSON(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/risk/report", bytes.NewReader([]byte("{not json")))
	rec := doRequest(srv, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputeReportRejectsShapeViolation(t *testing.T) {
	srv := newTestServer(t, nil)
	body, err := json.Marshal(map[string]interface{}{
		"assets": []map[string]interface{}{
			{"id": "EQ", "returns": []float64{0.01, -0.02}},
		},
		"weights":    []float64{1, 1},
		"confidence": 0.95,
		"benchmark":  []float64{0.008, -0.015},
	})
	require.NoError(t, err)

	rec := doRequest(srv, httptest.NewRequest(http.MethodPost, "/api/risk/report", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "weight vector length")
}

func TestDemoReportEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/risk/demo?days=300&confidence=0.99&method=variance_covariance", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	data, _ := decodeEnvelope(t, rec)
	assert.Equal(t, "variance_covariance", data["var_method"])
	assert.Equal(t, 0.99, data["confidence"])

	returns, ok := data["portfolio_returns"].([]interface{})
	require.True(t, ok)
	assert.Len(t, returns, 300)
}

func TestDemoReportRejectsBadDays(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, q := range []string{"days=1", "days=9999"} {
		rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/risk/demo?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestHistoryReportWithoutDatabase(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/risk/report/history?symbols=EQ&benchmark=BM", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHistoryReportEndpoint(t *testing.T) {
	db, err := universe.OpenHistoryDB("file:handlers_history_test?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveSeries("EQ", domain.ReturnSeries{0.01, -0.02, 0.015, 0.004, -0.006, 0.009}))
	require.NoError(t, db.SaveSeries("FI", domain.ReturnSeries{0.001, 0.002, -0.001, 0.003, 0.000, -0.002}))
	require.NoError(t, db.SaveSeries("BM", domain.ReturnSeries{0.008, -0.015, 0.012, 0.003, -0.005, 0.007}))

	srv := newTestServer(t, db)

	t.Run("equal weights by default", func(t *testing.T) {
		rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/risk/report/history?symbols=EQ,FI&benchmark=BM", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		data, _ := decodeEnvelope(t, rec)
		weights := data["normalized_weights"].([]interface{})
		require.Len(t, weights, 2)
		assert.InDelta(t, 0.5, weights[0].(float64), 1e-12)
	})

	t.Run("explicit weights", func(t *testing.T) {
		rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/risk/report/history?symbols=EQ,FI&benchmark=BM&weights=3,1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		data, _ := decodeEnvelope(t, rec)
		weights := data["normalized_weights"].([]interface{})
		assert.InDelta(t, 0.75, weights[0].(float64), 1e-12)
	})

	t.Run("missing params", func(t *testing.T) {
		rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/risk/report/history?symbols=EQ,FI", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/risk/report/history?symbols=NOPE&benchmark=BM", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("weight count mismatch", func(t *testing.T) {
		rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/api/risk/report/history?symbols=EQ,FI&benchmark=BM&weights=1", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
