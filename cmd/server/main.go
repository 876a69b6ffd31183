// Package main is the entry point for the portfolio risk analytics service.
// It wires configuration, logging, the optional return history database, and
// the HTTP facade over the risk engine, then blocks until shutdown.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/quantfold/riskengine/internal/config"
	"github.com/quantfold/riskengine/internal/modules/universe"
	"github.com/quantfold/riskengine/internal/server"
	"github.com/quantfold/riskengine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Int("port", cfg.Port).Msg("Starting risk engine")

	// The history database is an optional return-series source. Without it,
	// the API still serves ad-hoc report requests and the demo endpoint.
	var historyDB *universe.HistoryDB
	if cfg.HistoryDBName != "" {
		path := filepath.Join(cfg.DataDir, cfg.HistoryDBName)
		historyDB, err = universe.OpenHistoryDB(path, log)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to open history database")
		}
		defer historyDB.Close()
		log.Info().Str("path", path).Msg("Return history database opened")
	}

	srv := server.New(server.Config{
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		CacheTTL:  cfg.CacheTTL,
		HistoryDB: historyDB,
		Log:       log,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}

	log.Info().Msg("Risk engine stopped")
}
