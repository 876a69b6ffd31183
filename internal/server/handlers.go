package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantfold/riskengine/internal/cache"
	"github.com/quantfold/riskengine/internal/domain"
	"github.com/quantfold/riskengine/internal/engine"
	"github.com/quantfold/riskengine/internal/marketdata"
	"github.com/quantfold/riskengine/internal/modules/universe"
	"github.com/quantfold/riskengine/internal/modules/valueatrisk"
)

// defaultDemoSeed keeps the demo endpoint reproducible across restarts.
const defaultDemoSeed = 42

// handler carries the collaborators the risk API endpoints need.
type handler struct {
	engine    *engine.Engine
	cache     *cache.ReportCache
	generator *marketdata.Generator
	historyDB *universe.HistoryDB
	log       zerolog.Logger
}

func newHandler(eng *engine.Engine, c *cache.ReportCache, gen *marketdata.Generator, historyDB *universe.HistoryDB, log zerolog.Logger) *handler {
	return &handler{
		engine:    eng,
		cache:     c,
		generator: gen,
		historyDB: historyDB,
		log:       log.With().Str("handler", "risk").Logger(),
	}
}

// reportRequest is the JSON form of the engine input contract.
type reportRequest struct {
	Assets     []domain.Asset `json:"assets"`
	Weights    []float64      `json:"weights"`
	Confidence float64        `json:"confidence"`
	Method     string         `json:"method"`
	Benchmark  []float64      `json:"benchmark"`
	Shock      float64        `json:"shock"`
}

// handleComputeReport handles POST /api/risk/report.
func (h *handler) handleComputeReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	input := engine.Input{
		Universe:   req.Assets,
		Weights:    req.Weights,
		Confidence: req.Confidence,
		Method:     valueatrisk.Method(req.Method),
		Benchmark:  req.Benchmark,
		Shock:      req.Shock,
	}

	// Validate before deriving the cache key: malformed requests should not
	// pay the hashing cost, and validation defaults an empty method so both
	// spellings of the default share one cache entry.
	if err := input.Validate(); err != nil {
		h.log.Warn().Err(err).Msg("Rejected risk report request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cached := false
	key, err := cache.Key(input)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to derive cache key, computing uncached")
		key = ""
	}

	var report *engine.Report
	if key != "" {
		if hit, ok := h.cache.Get(key); ok {
			report = hit
			cached = true
		}
	}

	if report == nil {
		report, err = h.engine.Compute(input)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if key != "" {
			if err := h.cache.Set(key, report); err != nil {
				h.log.Warn().Err(err).Msg("Failed to cache report")
			}
		}
	}

	h.writeReport(w, report, cached)
}

// handleDemoReport handles GET /api/risk/demo. It feeds the engine from the
// seeded synthetic generator; query parameters mirror the demo controls
// (days, confidence, method, shock).
func (h *handler) handleDemoReport(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 252)
	if days < 2 || days > 5000 {
		http.Error(w, "days must be between 2 and 5000", http.StatusBadRequest)
		return
	}
	confidence := queryFloat(r, "confidence", 0.95)
	shock := queryFloat(r, "shock", -0.05)
	method := r.URL.Query().Get("method")
	if method == "" {
		method = string(valueatrisk.Historical)
	}

	store, bench, err := h.generator.Universe(days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to generate demo universe")
		http.Error(w, "failed to generate demo data", http.StatusInternalServerError)
		return
	}

	report, err := h.engine.Compute(engine.Input{
		Universe:   store.Universe(),
		Weights:    h.generator.EqualWeights(),
		Confidence: confidence,
		Method:     valueatrisk.Method(method),
		Benchmark:  bench,
		Shock:      shock,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeReport(w, report, false)
}

// handleHistoryReport handles GET /api/risk/report/history. It loads return
// series for the requested symbols (plus the benchmark symbol) from the
// history database and runs one computation pass over them. Weights default
// to equal when omitted.
func (h *handler) handleHistoryReport(w http.ResponseWriter, r *http.Request) {
	if h.historyDB == nil {
		http.Error(w, "history database not configured", http.StatusServiceUnavailable)
		return
	}

	symbols := splitCSV(r.URL.Query().Get("symbols"))
	benchSymbol := r.URL.Query().Get("benchmark")
	if len(symbols) == 0 || benchSymbol == "" {
		http.Error(w, "symbols and benchmark query parameters are required", http.StatusBadRequest)
		return
	}

	days := queryInt(r, "days", 252)
	store, err := h.historyDB.LoadStore(symbols, days)
	if err != nil {
		h.log.Warn().Err(err).Strs("symbols", symbols).Msg("Failed to load return history")
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	bench, err := h.historyDB.LoadSeries(benchSymbol, days)
	if err != nil || len(bench) == 0 {
		http.Error(w, "no return history for benchmark "+benchSymbol, http.StatusNotFound)
		return
	}

	weights, err := parseWeights(r.URL.Query().Get("weights"), len(symbols))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	method := r.URL.Query().Get("method")
	if method == "" {
		method = string(valueatrisk.Historical)
	}

	report, err := h.engine.Compute(engine.Input{
		Universe:   store.Universe(),
		Weights:    weights,
		Confidence: queryFloat(r, "confidence", 0.95),
		Method:     valueatrisk.Method(method),
		Benchmark:  bench,
		Shock:      queryFloat(r, "shock", -0.05),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeReport(w, report, false)
}

// handleHealth handles GET /api/health.
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *handler) writeReport(w http.ResponseWriter, report *engine.Report, cached bool) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": newReportPayload(report),
		"metadata": map[string]interface{}{
			"report_id": uuid.NewString(),
			"timestamp": time.Now().Format(time.RFC3339),
			"cached":    cached,
		},
	})
}

// writeJSON writes a JSON response. The body is marshalled before the status
// line so an encode failure can still surface as a 500 instead of an empty
// 200.
func (h *handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// splitCSV splits a comma-separated list, dropping empty items.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseWeights parses a comma-separated weight list, or returns equal raw
// weights when the list is empty.
func parseWeights(s string, n int) ([]float64, error) {
	if s == "" {
		weights := make([]float64, n)
		for i := range weights {
			weights[i] = 1
		}
		return weights, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d weights, got %d", n, len(parts))
	}
	weights := make([]float64, n)
	for i, p := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q", p)
		}
		weights[i] = w
	}
	return weights, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
