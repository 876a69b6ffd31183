// Package domain holds the core value types shared by the risk engine
// modules. The domain layer is pure: no infrastructure dependencies.
package domain

import "fmt"

// ReturnSeries is an ordered sequence of daily fractional returns for a
// single asset or benchmark. It is treated as immutable once constructed;
// no engine component ever writes through it.
type ReturnSeries []float64

// Asset pairs an identifier with its return history. Display metadata
// (label) is carried alongside but kept out of all numeric computations.
type Asset struct {
	ID     string       `json:"id"`
	Label  string       `json:"label,omitempty"`
	Series ReturnSeries `json:"returns"`
}

// Universe is an ordered list of assets. Order is significant: it defines
// covariance/correlation matrix row and column order and the alignment of
// the weight vector.
type Universe []Asset

// IDs returns the asset identifiers in universe order.
func (u Universe) IDs() []string {
	ids := make([]string, len(u))
	for i, a := range u {
		ids[i] = a.ID
	}
	return ids
}

// Validate checks the structural contract of the universe: it must be
// non-empty and identifiers must be unique and non-blank. Numeric
// degeneracies (short or constant series) are not validation errors; they
// surface as NaN downstream.
func (u Universe) Validate() error {
	if len(u) == 0 {
		return fmt.Errorf("universe is empty")
	}
	seen := make(map[string]bool, len(u))
	for _, a := range u {
		if a.ID == "" {
			return fmt.Errorf("asset with blank identifier")
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate asset identifier %q", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// MinSeriesLen returns the length of the shortest return series in the
// universe, or 0 for an empty universe.
func (u Universe) MinSeriesLen() int {
	if len(u) == 0 {
		return 0
	}
	n := len(u[0].Series)
	for _, a := range u[1:] {
		if len(a.Series) < n {
			n = len(a.Series)
		}
	}
	return n
}
