package search

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Catalog holds one in-memory Bleve index per user.
//
// Thread safety: all public methods are safe for concurrent use. The mutex
// protects the index map; individual Bleve indexes are internally
// synchronized.
type Catalog struct {
	logger  *slog.Logger
	mu      sync.RWMutex
	indexes map[string]bleve.Index
}

// NewCatalog creates an empty search catalog.
func NewCatalog(logger *slog.Logger) *Catalog {
	return &Catalog{
		logger:  logger,
		indexes: make(map[string]bleve.Index),
	}
}

// Has reports whether a built index exists for the user.
func (c *Catalog) Has(userID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.indexes[userID]
	return ok
}

// Rebuild replaces the user's index with a fresh one built from docs. The
// batch write keeps large catalogues from indexing one document at a time.
func (c *Catalog) Rebuild(userID string, docs []*Document) error {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	const batchSize = 500
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	c.mu.Lock()
	old := c.indexes[userID]
	c.indexes[userID] = index
	c.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			c.logger.Warn("closing replaced search index", "user_id", userID, "error", err)
		}
	}

	c.logger.Info("search index rebuilt", "user_id", userID, "documents", len(docs))
	return nil
}

// Drop discards the user's index. The next search triggers a rebuild from a
// complete listing.
func (c *Catalog) Drop(userID string) {
	c.mu.Lock()
	index, ok := c.indexes[userID]
	delete(c.indexes, userID)
	c.mu.Unlock()

	if !ok {
		return
	}
	if err := index.Close(); err != nil {
		c.logger.Warn("closing dropped search index", "user_id", userID, "error", err)
	}
}

// InvalidateUser drops the user's index. It satisfies the same invalidation
// contract as the query cache, so both are wired into one fan-out.
func (c *Catalog) InvalidateUser(userID string) {
	c.Drop(userID)
}

// DocumentCount returns the number of indexed documents for a user, or zero
// when no index exists.
func (c *Catalog) DocumentCount(userID string) uint64 {
	c.mu.RLock()
	index, ok := c.indexes[userID]
	c.mu.RUnlock()

	if !ok {
		return 0
	}
	count, err := index.DocCount()
	if err != nil {
		return 0
	}
	return count
}

// Close discards every index.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for userID, index := range c.indexes {
		if err := index.Close(); err != nil {
			c.logger.Warn("closing search index", "user_id", userID, "error", err)
		}
	}
	c.indexes = make(map[string]bleve.Index)
	return nil
}
