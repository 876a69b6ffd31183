// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          int           // HTTP port for the risk API
	LogLevel      string        // debug, info, warn, error
	DataDir       string        // Directory for the optional return history database
	HistoryDBName string        // History database filename inside DataDir; empty disables it
	CacheTTL      time.Duration // Report snapshot cache TTL
	DevMode       bool          // Permissive CORS, pretty logs
}

// Load reads configuration from environment variables, with a .env file
// honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("RISK_PORT", "8090"))
	if err != nil {
		return nil, fmt.Errorf("invalid RISK_PORT: %w", err)
	}

	cacheTTL, err := time.ParseDuration(getEnv("RISK_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RISK_CACHE_TTL: %w", err)
	}

	return &Config{
		Port:          port,
		LogLevel:      getEnv("RISK_LOG_LEVEL", "info"),
		DataDir:       getEnv("RISK_DATA_DIR", "./data"),
		HistoryDBName: getEnv("RISK_HISTORY_DB", ""),
		CacheTTL:      cacheTTL,
		DevMode:       getEnv("RISK_DEV_MODE", "false") == "true",
	}, nil
}

// getEnv retrieves an environment variable, returning the fallback when the
// variable is unset or empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
