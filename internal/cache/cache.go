// Package cache provides a caller-side snapshot cache for computed risk
// reports, keyed by a hash of the full input tuple. The engine itself never
// caches; this sits in front of it for callers that re-request identical
// inputs. Entries are msgpack-encoded and expire after a TTL. Nothing is
// persisted.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/quantfold/riskengine/internal/engine"
)

// DefaultTTL is how long a snapshot stays valid. Reports are cheap to
// recompute, so the window is short.
const DefaultTTL = 5 * time.Minute

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// ReportCache is an in-memory, TTL'd report snapshot store. Safe for
// concurrent use.
type ReportCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	log     zerolog.Logger
}

// New creates a report cache. ttl <= 0 uses DefaultTTL.
func New(ttl time.Duration, log zerolog.Logger) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReportCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		log:     log.With().Str("component", "report_cache").Logger(),
	}
}

// Key derives a deterministic cache key from the full input tuple. msgpack
// keeps the encoding compact and handles non-finite floats, which JSON
// cannot represent.
func Key(in engine.Input) (string, error) {
	data, err := msgpack.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to encode input for hashing: %w", err)
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:16]), nil
}

// Get returns the cached report for a key, if present and not expired.
func (c *ReportCache) Get(key string) (*engine.Report, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}

	var report engine.Report
	if err := msgpack.Unmarshal(e.payload, &report); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to decode cached report, evicting")
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return &report, true
}

// Set stores a report snapshot under the key.
func (c *ReportCache) Set(key string, report *engine.Report) error {
	payload, err := msgpack.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = entry{payload: payload, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

// Len returns the number of live entries, counting expired-but-unevicted
// ones; it exists for tests and introspection.
func (c *ReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
