// Package universe holds per-asset return series and exposes read-only
// access to them. The store is a container, not a generator: any source that
// can produce aligned daily return series (broker history, a database, the
// synthetic demo generator) can fill it.
package universe

import (
	"fmt"

	"github.com/quantfold/riskengine/internal/domain"
)

// Store is an immutable collection of asset return series in a fixed order.
// Series are copied on construction so later mutation of the caller's slices
// cannot reach into the store.
type Store struct {
	assets []domain.Asset
	index  map[string]int
}

// NewStore builds a store from the given assets. Identifiers must be unique
// and non-blank; that is a contract violation, not a numeric degeneracy.
// Ragged series (unequal lengths) are accepted — downstream consumers
// truncate to the overlapping prefix.
func NewStore(assets []domain.Asset) (*Store, error) {
	if err := domain.Universe(assets).Validate(); err != nil {
		return nil, fmt.Errorf("invalid universe: %w", err)
	}

	copied := make([]domain.Asset, len(assets))
	index := make(map[string]int, len(assets))
	for i, a := range assets {
		series := make(domain.ReturnSeries, len(a.Series))
		copy(series, a.Series)
		copied[i] = domain.Asset{ID: a.ID, Label: a.Label, Series: series}
		index[a.ID] = i
	}

	return &Store{assets: copied, index: index}, nil
}

// Len returns the number of assets.
func (s *Store) Len() int {
	return len(s.assets)
}

// Universe returns the assets in store order. The returned slices are the
// store's own copies; callers must treat them as read-only.
func (s *Store) Universe() domain.Universe {
	out := make(domain.Universe, len(s.assets))
	copy(out, s.assets)
	return out
}

// Series returns the return series for the given asset identifier.
func (s *Store) Series(id string) (domain.ReturnSeries, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.assets[i].Series, true
}

// MinSeriesLen returns the length of the shortest held series.
func (s *Store) MinSeriesLen() int {
	return domain.Universe(s.assets).MinSeriesLen()
}

// Aligned reports whether every held series has the same length. Covariance
// and portfolio aggregation are only fully defined over aligned series;
// unaligned stores still compute, over the overlapping prefix.
func (s *Store) Aligned() bool {
	if len(s.assets) == 0 {
		return true
	}
	n := len(s.assets[0].Series)
	for _, a := range s.assets[1:] {
		if len(a.Series) != n {
			return false
		}
	}
	return true
}
