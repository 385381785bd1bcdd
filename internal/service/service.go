// Package service implements the catalogue's consistency and lifecycle
// operations: counter synchronization, the bin state machine, series merge
// and duplicate detection, and the cache invalidation contract that ties
// them together.
package service

import (
	"context"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/sse"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// CountAdjuster applies book-count deltas to genre or series documents.
// Implemented by CounterSync.
type CountAdjuster interface {
	UpdateCounts(ctx context.Context, userID string, kind store.CounterKind, addedIDs, removedIDs []string) error
}

// SeriesLookup gives the bin manager access to series lifecycle operations
// without importing the series service's full surface.
type SeriesLookup interface {
	// GetSeries returns a series document, binned or active.
	GetSeries(ctx context.Context, userID, seriesID string) (*domain.Series, error)
	// RestoreSeries takes a soft-deleted series back out of the bin.
	RestoreSeries(ctx context.Context, userID, seriesID string) error
	// SoftDeleteSeries moves a series into the bin.
	SoftDeleteSeries(ctx context.Context, userID, seriesID string) error
}

// ImageDeleter removes stored image assets.
type ImageDeleter interface {
	DeleteAll(ids []string) error
}

// CacheInvalidator drops cached query results after a mutation.
// Invalidation is conservative: everything scoped to the user goes.
type CacheInvalidator interface {
	InvalidateUser(userID string)
}

// EventEmitter delivers domain events to connected clients.
type EventEmitter interface {
	EmitToUser(userID string, event sse.Event)
}

// noopEmitter drops events. Used when no SSE manager is wired, e.g. in tests.
type noopEmitter struct{}

func (noopEmitter) EmitToUser(string, sse.Event) {}

// NewNoopEmitter returns an emitter that discards all events.
func NewNoopEmitter() EventEmitter { return noopEmitter{} }

// fanoutInvalidator forwards an invalidation to several targets.
type fanoutInvalidator []CacheInvalidator

func (f fanoutInvalidator) InvalidateUser(userID string) {
	for _, inv := range f {
		inv.InvalidateUser(userID)
	}
}

// CombineInvalidators fans invalidation out to every target, so the query
// cache and the search index drop together.
func CombineInvalidators(targets ...CacheInvalidator) CacheInvalidator {
	return fanoutInvalidator(targets)
}

// noopInvalidator ignores invalidation. Used when no cache is wired.
type noopInvalidator struct{}

func (noopInvalidator) InvalidateUser(string) {}

// NewNoopInvalidator returns a cache invalidator that does nothing.
func NewNoopInvalidator() CacheInvalidator { return noopInvalidator{} }
