// Package server provides the HTTP facade over the risk engine. It is a
// thin presentation collaborator: it collects the input contract from
// requests, invokes one computation pass, and renders the output contract.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quantfold/riskengine/internal/cache"
	"github.com/quantfold/riskengine/internal/engine"
	"github.com/quantfold/riskengine/internal/marketdata"
	"github.com/quantfold/riskengine/internal/modules/universe"
)

// Config holds server configuration.
type Config struct {
	Port      int
	DevMode   bool
	CacheTTL  time.Duration
	HistoryDB *universe.HistoryDB // optional; enables /api/risk/report/history
	Log       zerolog.Logger
}

// Server is the HTTP server for the risk API.
type Server struct {
	router *chi.Mux
	server *http.Server
	engine *engine.Engine
	cache  *cache.ReportCache
	log    zerolog.Logger
}

// New creates the HTTP server and wires its routes.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		engine: engine.New(cfg.Log),
		cache:  cache.New(cfg.CacheTTL, cfg.Log),
		log:    cfg.Log.With().Str("component", "server").Logger(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	allowedOrigins := []string{"*"}
	if !cfg.DevMode {
		allowedOrigins = []string{"http://localhost:" + fmt.Sprint(cfg.Port)}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	handler := newHandler(s.engine, s.cache, marketdata.New(defaultDemoSeed), cfg.HistoryDB, s.log)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.handleHealth)
		r.Route("/risk", func(r chi.Router) {
			r.Post("/report", handler.handleComputeReport)
			r.Get("/report/history", handler.handleHistoryReport)
			r.Get("/demo", handler.handleDemoReport)
		})
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Router exposes the chi router, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
