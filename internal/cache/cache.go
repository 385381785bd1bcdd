// Package cache implements the per-user, per-query TTL cache that fronts
// the document store.
//
// Entries carry a completeness flag: HasMore=false marks a complete snapshot
// of the underlying query that may satisfy reads without a store round-trip;
// HasMore=true marks a partial page that must never be trusted by operations
// requiring the full dataset (client-side search, exports). Every mutating
// path invalidates conservatively, dropping all entries scoped to the user,
// rather than tracking per-key dependencies.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Query keys for the standard listing caches.
const (
	KeyBooks    = "books"
	KeyBin      = "bin"
	KeyGenres   = "genres"
	KeySeries   = "series"
	KeyWishlist = "wishlist"
)

// Entry is one cached query result.
type Entry struct {
	Items     any       `json:"items"`
	Timestamp time.Time `json:"timestamp"`
	SortKey   string    `json:"sort_key,omitempty"`
	HasMore   bool      `json:"has_more"`
}

// Complete reports whether the entry is a full snapshot of the underlying
// query. Operations that need the whole dataset must refetch when this is
// false.
func (e *Entry) Complete() bool {
	return e != nil && !e.HasMore
}

// Config holds cache tuning knobs.
type Config struct {
	// DefaultTTL applies to genre/series/wishlist listings (short-lived).
	DefaultTTL time.Duration
	// BookTTL applies to book listings, which rely primarily on explicit
	// invalidation and so tolerate a longer TTL.
	BookTTL time.Duration
	// MaxEntries bounds the number of cached query results.
	MaxEntries int64
}

// Store is the process-wide cache with an explicit lifecycle. It replaces
// the usual grab-bag of module-level cache variables so tests and multiple
// users stay isolated.
type Store struct {
	backing *ristretto.Cache[string, *Entry]
	cfg     Config
	logger  *slog.Logger

	// Tracks which keys belong to which user so a user-scoped
	// invalidation can drop them all. Ristretto has no prefix scans.
	mu         sync.Mutex
	keysByUser map[string]map[string]struct{}
}

// New creates a cache store.
func New(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.BookTTL <= 0 {
		cfg.BookTTL = 30 * time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 4096
	}

	c := &Store{
		cfg:        cfg,
		logger:     logger,
		keysByUser: make(map[string]map[string]struct{}),
	}

	backing, err := ristretto.NewCache(&ristretto.Config[string, *Entry]{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	c.backing = backing

	return c, nil
}

func cacheKey(userID, queryKey string) string {
	return userID + ":" + queryKey
}

// Get returns the cached entry for (userID, queryKey), or nil when absent
// or TTL-expired.
func (c *Store) Get(userID, queryKey string) *Entry {
	entry, ok := c.backing.Get(cacheKey(userID, queryKey))
	if !ok {
		return nil
	}
	return entry
}

// Set caches a query result with the default TTL for its query key.
func (c *Store) Set(userID, queryKey string, items any, sortKey string, hasMore bool) {
	ttl := c.cfg.DefaultTTL
	if queryKey == KeyBooks || queryKey == KeyBin {
		ttl = c.cfg.BookTTL
	}
	c.SetWithTTL(userID, queryKey, items, sortKey, hasMore, ttl)
}

// SetWithTTL caches a query result with an explicit TTL.
func (c *Store) SetWithTTL(userID, queryKey string, items any, sortKey string, hasMore bool, ttl time.Duration) {
	entry := &Entry{
		Items:     items,
		Timestamp: time.Now(),
		SortKey:   sortKey,
		HasMore:   hasMore,
	}

	c.backing.SetWithTTL(cacheKey(userID, queryKey), entry, 1, ttl)
	// Ristretto buffers writes; flush so a Set is immediately visible.
	c.backing.Wait()

	c.mu.Lock()
	keys, ok := c.keysByUser[userID]
	if !ok {
		keys = make(map[string]struct{})
		c.keysByUser[userID] = keys
	}
	keys[queryKey] = struct{}{}
	c.mu.Unlock()
}

// Invalidate drops a single cached query result.
func (c *Store) Invalidate(userID, queryKey string) {
	c.backing.Del(cacheKey(userID, queryKey))

	c.mu.Lock()
	if keys, ok := c.keysByUser[userID]; ok {
		delete(keys, queryKey)
	}
	c.mu.Unlock()
}

// InvalidateUser drops every cached query result scoped to the user.
// This is the conservative invalidation every mutating path calls.
func (c *Store) InvalidateUser(userID string) {
	c.mu.Lock()
	keys := c.keysByUser[userID]
	delete(c.keysByUser, userID)
	c.mu.Unlock()

	for queryKey := range keys {
		c.backing.Del(cacheKey(userID, queryKey))
	}

	if c.logger != nil && len(keys) > 0 {
		c.logger.Debug("cache invalidated", "user_id", userID, "keys", len(keys))
	}
}

// Dispose releases the backing cache. The store must not be used afterwards.
func (c *Store) Dispose() {
	c.backing.Close()

	c.mu.Lock()
	c.keysByUser = make(map[string]map[string]struct{})
	c.mu.Unlock()
}
