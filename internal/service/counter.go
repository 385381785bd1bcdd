package service

import (
	"context"
	"log/slog"

	"github.com/shelfmark/shelfmark-server/internal/store"
)

// CounterSync keeps the denormalized BookCount fields on genres and series
// in step with book membership. Counters are eventually consistent: the
// increment path can race across concurrent calls, and Reconcile is the
// sweep that repairs any drift from scratch.
type CounterSync struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCounterSync creates a counter synchronizer.
func NewCounterSync(st *store.Store, logger *slog.Logger) *CounterSync {
	return &CounterSync{
		store:  st,
		logger: logger,
	}
}

// UpdateCounts increments counters for addedIDs and decrements for
// removedIDs (clamped at zero). All writes of one call commit in a single
// store transaction. An ID present in both lists nets out to no change.
func (s *CounterSync) UpdateCounts(ctx context.Context, userID string, kind store.CounterKind, addedIDs, removedIDs []string) error {
	if len(addedIDs) == 0 && len(removedIDs) == 0 {
		return nil
	}

	deltas := make(map[string]int, len(addedIDs)+len(removedIDs))
	for _, id := range addedIDs {
		deltas[id]++
	}
	for _, id := range removedIDs {
		deltas[id]--
	}

	if err := s.store.AdjustBookCounts(ctx, userID, kind, deltas); err != nil {
		return err
	}

	s.logger.Debug("counters updated",
		"user_id", userID,
		"kind", string(kind),
		"added", len(addedIDs),
		"removed", len(removedIDs))
	return nil
}

// ReconcileResult reports what a reconciliation sweep found and fixed.
type ReconcileResult struct {
	Updated           int `json:"updated"`
	TotalBooksScanned int `json:"total_books_scanned"`
}

// Reconcile recomputes every counter of the given kind from the active book
// set and writes only the documents whose stored count drifted. Idempotent:
// a second consecutive run with no intervening mutation writes nothing.
func (s *CounterSync) Reconcile(ctx context.Context, userID string, kind store.CounterKind) (*ReconcileResult, error) {
	books, err := s.store.ActiveBooks(ctx, userID)
	if err != nil {
		return nil, err
	}

	tally := make(map[string]int)
	for _, book := range books {
		switch kind {
		case store.CounterSeries:
			if book.SeriesID != "" {
				tally[book.SeriesID]++
			}
		default:
			for _, genreID := range book.Genres {
				tally[genreID]++
			}
		}
	}

	drifted, err := s.findDrifted(ctx, userID, kind, tally)
	if err != nil {
		return nil, err
	}

	if len(drifted) > 0 {
		if err := s.store.SetBookCounts(ctx, userID, kind, drifted); err != nil {
			return nil, err
		}
		s.logger.Info("counter drift repaired",
			"user_id", userID,
			"kind", string(kind),
			"updated", len(drifted))
	}

	return &ReconcileResult{
		Updated:           len(drifted),
		TotalBooksScanned: len(books),
	}, nil
}

// findDrifted compares stored counts against the recomputed tally and
// returns only the documents that need rewriting.
func (s *CounterSync) findDrifted(ctx context.Context, userID string, kind store.CounterKind, tally map[string]int) (map[string]int, error) {
	drifted := make(map[string]int)

	switch kind {
	case store.CounterSeries:
		all, err := s.store.Series(userID).GetAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, sr := range all {
			if want := tally[sr.ID]; sr.BookCount != want {
				drifted[sr.ID] = want
			}
		}
	default:
		all, err := s.store.Genres(userID).GetAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, g := range all {
			if want := tally[g.ID]; g.BookCount != want {
				drifted[g.ID] = want
			}
		}
	}

	return drifted, nil
}
