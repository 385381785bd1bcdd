package store

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
)

// UserIDs returns the distinct user IDs that own at least one document.
// The scan is key-only and seeks past each user's range once an ID is
// collected, so cost grows with the number of users, not documents.
func (s *Store) UserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	prefix := []byte("u:")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); {
			if err := ctx.Err(); err != nil {
				return err
			}

			key := it.Item().Key()
			rest := key[len(prefix):]
			sep := bytes.IndexByte(rest, ':')
			if sep < 0 {
				it.Next()
				continue
			}
			userID := string(rest[:sep])
			ids = append(ids, userID)

			// Seek just past this user's keyspace. 0xFF sorts after any
			// byte that appears in a collection name.
			next := append([]byte("u:"+userID+":"), 0xFF)
			it.Seek(next)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, unavailable(err)
	}

	return ids, nil
}
