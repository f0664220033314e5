package storage

import "baccarat-ledger/internal/domain"

// CopyResults returns deep copies of results.
func CopyResults(results []*domain.Result) []*domain.Result {
	out := make([]*domain.Result, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		c := *r
		out = append(out, &c)
	}
	return out
}

// CopySnapshot returns a deep copy of snap. A nil snapshot copies to an empty one.
func CopySnapshot(snap *domain.CatalogSnapshot) *domain.CatalogSnapshot {
	out := &domain.CatalogSnapshot{Predictions: make(map[string]*domain.Prediction)}
	if snap == nil {
		return out
	}
	for k, p := range snap.Predictions {
		if p == nil {
			continue
		}
		c := *p
		out.Predictions[k] = &c
	}
	if snap.LastLaunchedNumber != nil {
		n := *snap.LastLaunchedNumber
		out.LastLaunchedNumber = &n
	}
	return out
}

// ValidateResults checks that every result has a positive unique game number and a valid winner.
func ValidateResults(results []*domain.Result) error {
	seen := make(map[int]struct{}, len(results))
	for _, r := range results {
		if r == nil || r.GameNumber <= 0 || !r.Winner.IsValid() {
			return ErrInvalidInput
		}
		if _, dup := seen[r.GameNumber]; dup {
			return ErrDuplicateKey
		}
		seen[r.GameNumber] = struct{}{}
	}
	return nil
}
