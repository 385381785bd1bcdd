package store

import "github.com/dgraph-io/badger/v4"

// BatchWriter provides atomic bulk writes using BadgerDB's WriteBatch.
// All queued operations commit together on Flush or are discarded on Cancel.
type BatchWriter struct {
	store *Store
	batch *badger.WriteBatch
	count int
}

// NewBatchWriter creates a new batch writer.
func (s *Store) NewBatchWriter() *BatchWriter {
	return &BatchWriter{
		store: s,
		batch: s.db.NewWriteBatch(),
	}
}

// Set queues a raw key/value write.
func (b *BatchWriter) Set(key, val []byte) error {
	if err := b.batch.Set(key, val); err != nil {
		return unavailable(err)
	}
	b.count++
	return nil
}

// Delete queues a key deletion.
func (b *BatchWriter) Delete(key []byte) error {
	if err := b.batch.Delete(key); err != nil {
		return unavailable(err)
	}
	b.count++
	return nil
}

// Flush commits all pending writes in the batch.
func (b *BatchWriter) Flush() error {
	if b.count == 0 {
		return nil // Nothing to flush
	}

	if err := b.batch.Flush(); err != nil {
		return unavailable(err)
	}

	if b.store.logger != nil {
		b.store.logger.Debug("batch flushed", "count", b.count)
	}

	b.count = 0
	b.batch = b.store.db.NewWriteBatch()
	return nil
}

// Cancel discards all pending writes in the batch.
// Safe to call after Flush.
func (b *BatchWriter) Cancel() {
	b.batch.Cancel()
	b.count = 0
}

// Count returns the number of operations queued in the current batch.
func (b *BatchWriter) Count() int {
	return b.count
}
