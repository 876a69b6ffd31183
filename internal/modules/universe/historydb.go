package universe

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/quantfold/riskengine/internal/domain"
	"github.com/rs/zerolog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const historySchema = `
CREATE TABLE IF NOT EXISTS daily_returns (
	symbol TEXT NOT NULL,
	day    INTEGER NOT NULL,
	ret    REAL NOT NULL,
	PRIMARY KEY (symbol, day)
);
CREATE INDEX IF NOT EXISTS idx_daily_returns_symbol ON daily_returns(symbol);
`

// HistoryDB is a SQLite-backed return-series source. It is one possible
// supplier of Store contents; the engine itself never touches it.
type HistoryDB struct {
	conn *sql.DB
	log  zerolog.Logger
}

// OpenHistoryDB opens (and if necessary creates) the return history database
// at the given path. "file:" URIs are passed through untouched so tests can
// use in-memory databases.
func OpenHistoryDB(path string, log zerolog.Logger) (*HistoryDB, error) {
	connStr := path
	if len(path) < 5 || path[:5] != "file:" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve history db path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history db directory: %w", err)
		}
		connStr = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", absPath)
	}

	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping history db: %w", err)
	}

	if _, err := conn.Exec(historySchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	return &HistoryDB{
		conn: conn,
		log:  log.With().Str("component", "history_db").Logger(),
	}, nil
}

// SaveSeries replaces the stored return series for a symbol.
func (h *HistoryDB) SaveSeries(symbol string, returns domain.ReturnSeries) error {
	tx, err := h.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM daily_returns WHERE symbol = ?", symbol); err != nil {
		return fmt.Errorf("failed to clear series for %s: %w", symbol, err)
	}

	stmt, err := tx.Prepare("INSERT INTO daily_returns (symbol, day, ret) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for day, ret := range returns {
		if _, err := stmt.Exec(symbol, day, ret); err != nil {
			return fmt.Errorf("failed to insert return %d for %s: %w", day, symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit series for %s: %w", symbol, err)
	}

	h.log.Debug().Str("symbol", symbol).Int("days", len(returns)).Msg("Saved return series")
	return nil
}

// LoadSeries returns up to limit most recent daily returns for a symbol, in
// chronological order. limit <= 0 loads the full series. The tail is selected
// in SQL so a large stored history is never fully materialized per request.
func (h *HistoryDB) LoadSeries(symbol string, limit int) (domain.ReturnSeries, error) {
	query := "SELECT ret FROM daily_returns WHERE symbol = ? ORDER BY day"
	args := []interface{}{symbol}
	if limit > 0 {
		query = "SELECT ret FROM daily_returns WHERE symbol = ? ORDER BY day DESC LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query series for %s: %w", symbol, err)
	}
	defer rows.Close()

	var series domain.ReturnSeries
	for rows.Next() {
		var ret float64
		if err := rows.Scan(&ret); err != nil {
			return nil, fmt.Errorf("failed to scan return for %s: %w", symbol, err)
		}
		series = append(series, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading series for %s: %w", symbol, err)
	}

	// The limited query reads newest-first; restore chronological order.
	if limit > 0 {
		for i, j := 0, len(series)-1; i < j; i, j = i+1, j-1 {
			series[i], series[j] = series[j], series[i]
		}
	}
	return series, nil
}

// LoadStore loads the given symbols into a Store, preserving symbol order.
// Symbols with no stored history produce an error: a silent empty series
// would just resurface later as NaN with no indication of why.
func (h *HistoryDB) LoadStore(symbols []string, limit int) (*Store, error) {
	assets := make([]domain.Asset, 0, len(symbols))
	for _, symbol := range symbols {
		series, err := h.LoadSeries(symbol, limit)
		if err != nil {
			return nil, err
		}
		if len(series) == 0 {
			return nil, fmt.Errorf("no return history for symbol %s", symbol)
		}
		assets = append(assets, domain.Asset{ID: symbol, Series: series})
	}
	return NewStore(assets)
}

// Close closes the underlying database connection.
func (h *HistoryDB) Close() error {
	return h.conn.Close()
}
