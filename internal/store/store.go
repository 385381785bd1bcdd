// Package store implements the per-user document store on top of BadgerDB.
//
// Every record lives in a collection scoped by {userID, collection}:
//
//	u:{userID}:{collection}:{docID} -> JSON document
//
// The generic Collection type provides the CRUD and pagination primitives the
// rest of the core composes; multi-document operations that must commit
// together (counter batches, bulk purges, series reassignment) are methods on
// Store itself so they can share a single transaction or write batch.
package store

import (
	"encoding/json/v2"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Collection names used for per-user key scoping.
const (
	ColBooks    = "books"
	ColGenres   = "genres"
	ColSeries   = "series"
	ColWishlist = "wishlist"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, unavailable(err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// recordKey builds the primary key for a document.
func recordKey(userID, collection, docID string) []byte {
	return []byte("u:" + userID + ":" + collection + ":" + docID)
}

// collectionPrefix builds the iteration prefix for a user's collection.
func collectionPrefix(userID, collection string) []byte {
	return []byte("u:" + userID + ":" + collection + ":")
}

// get retrieves a value by key.
func (s *Store) get(key []byte, dest any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}
