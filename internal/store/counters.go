package store

import (
	"context"
	"encoding/json/v2"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// CounterKind selects which denormalized book counter a counter write
// targets.
type CounterKind string

// Counter kinds.
const (
	CounterGenres CounterKind = ColGenres
	CounterSeries CounterKind = ColSeries
)

// AdjustBookCounts applies per-document BookCount deltas in a single
// transaction: within one call either every counter write lands or none do.
// Decrements clamp at zero. Documents that no longer exist are skipped,
// since a binned book may still reference a genre deleted in the interim.
//
// The update itself is read-then-write, not an atomic server-side delta, so
// two concurrent calls touching the same document can race across calls.
// That drift is accepted and repaired by the reconcile sweep.
func (s *Store) AdjustBookCounts(ctx context.Context, userID string, kind CounterKind, deltas map[string]int) error {
	switch kind {
	case CounterSeries:
		return writeCounts(ctx, s, userID, ColSeries, deltas, func(sr *domain.Series, n int) bool {
			next := max(0, sr.BookCount+n)
			if next == sr.BookCount {
				return false
			}
			sr.BookCount = next
			return true
		})
	default:
		return writeCounts(ctx, s, userID, ColGenres, deltas, func(g *domain.Genre, n int) bool {
			next := max(0, g.BookCount+n)
			if next == g.BookCount {
				return false
			}
			g.BookCount = next
			return true
		})
	}
}

// SetBookCounts writes absolute BookCount values in a single transaction.
// Used by the reconcile sweep; only pass documents whose stored count
// actually drifted so an idempotent sweep performs zero writes.
func (s *Store) SetBookCounts(ctx context.Context, userID string, kind CounterKind, counts map[string]int) error {
	switch kind {
	case CounterSeries:
		return writeCounts(ctx, s, userID, ColSeries, counts, func(sr *domain.Series, n int) bool {
			if sr.BookCount == n {
				return false
			}
			sr.BookCount = n
			return true
		})
	default:
		return writeCounts(ctx, s, userID, ColGenres, counts, func(g *domain.Genre, n int) bool {
			if g.BookCount == n {
				return false
			}
			g.BookCount = n
			return true
		})
	}
}

// writeCounts runs one read-then-write pass over the referenced documents
// inside a single Badger transaction. apply mutates the document and reports
// whether anything changed.
func writeCounts[T any](ctx context.Context, s *Store, userID, col string, values map[string]int, apply func(*T, int) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for id, n := range values {
			key := recordKey(userID, col, id)

			item, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			var doc T
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			})
			if err != nil {
				return err
			}

			if !apply(&doc, n) {
				continue
			}
			if rec, ok := any(&doc).(interface{ Touch() }); ok {
				rec.Touch()
			}

			data, err := json.Marshal(&doc)
			if err != nil {
				return err
			}
			if err := txn.Set(key, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}
