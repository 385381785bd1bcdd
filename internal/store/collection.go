package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"
)

// Collection provides generic CRUD and query operations over one user's
// sub-collection. Instances are cheap views; they hold no state beyond the
// key scope and registered field accessors.
type Collection[T any] struct {
	store   *Store
	userID  string
	name    string
	fields  map[string]func(*T) []string
	sorters map[string]func(a, b *T) int
}

// QueryOptions controls ordering and result size for collection reads.
type QueryOptions struct {
	OrderBy    string // Name of a registered sort key ("" = key order)
	Descending bool
	Limit      int // 0 = no limit
}

// NewCollection creates a collection view scoped to {userID, name}.
func NewCollection[T any](s *Store, userID, name string) *Collection[T] {
	return &Collection[T]{
		store:   s,
		userID:  userID,
		name:    name,
		fields:  make(map[string]func(*T) []string),
		sorters: make(map[string]func(a, b *T) int),
	}
}

// WithField registers a named field accessor for QueryByField.
// The accessor may return multiple values (set membership fields).
func (c *Collection[T]) WithField(name string, get func(*T) []string) *Collection[T] {
	c.fields[name] = get
	return c
}

// WithSort registers a named comparator for ordered reads.
func (c *Collection[T]) WithSort(name string, cmp func(a, b *T) int) *Collection[T] {
	c.sorters[name] = cmp
	return c
}

func (c *Collection[T]) key(id string) []byte {
	return recordKey(c.userID, c.name, id)
}

func (c *Collection[T]) prefix() []byte {
	return collectionPrefix(c.userID, c.name)
}

// Create stores a new document under the given ID, stamping creation
// timestamps. Returns ErrAlreadyExists if the ID is taken.
func (c *Collection[T]) Create(ctx context.Context, id string, doc *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if rec, ok := any(doc).(interface{ InitTimestamps() }); ok {
		rec.InitTimestamps()
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return unavailable(err)
	}

	key := c.key(id)
	err = c.store.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})

	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return ErrAlreadyExists
		}
		return unavailable(err)
	}
	return nil
}

// Put writes the document exactly as given, whether or not the ID exists.
// Timestamps are left alone; archive restores depend on that.
func (c *Collection[T]) Put(ctx context.Context, id string, doc *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return unavailable(err)
	}

	err = c.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(id), data)
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// GetByID retrieves a document by ID.
// Returns ErrNotFound if the document does not exist.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc T
	if err := c.store.get(c.key(id), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update overwrites an existing document, bumping its UpdatedAt timestamp.
// Returns ErrNotFound if the document does not exist.
func (c *Collection[T]) Update(ctx context.Context, id string, doc *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if rec, ok := any(doc).(interface{ Touch() }); ok {
		rec.Touch()
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return unavailable(err)
	}

	key := c.key(id)
	err = c.store.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Set(key, data)
	})

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return unavailable(err)
	}
	return nil
}

// Delete removes a document by ID.
// Idempotent - deleting a missing document is not an error.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.store.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(c.key(id))
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// GetAll returns every document in the collection, soft-deleted included,
// in key order.
func (c *Collection[T]) GetAll(ctx context.Context) ([]*T, error) {
	return c.scan(ctx, nil)
}

// GetActive returns every document that is not soft-deleted.
func (c *Collection[T]) GetActive(ctx context.Context) ([]*T, error) {
	return c.scan(ctx, func(doc *T) bool {
		rec, ok := any(doc).(interface{ IsDeleted() bool })
		return !ok || !rec.IsDeleted()
	})
}

// QueryByField returns all documents whose registered field matches value.
func (c *Collection[T]) QueryByField(ctx context.Context, field, value string) ([]*T, error) {
	get, ok := c.fields[field]
	if !ok {
		return nil, ErrUnavailable.WithCause(errors.New("unknown field: " + field))
	}

	return c.scan(ctx, func(doc *T) bool {
		return slices.Contains(get(doc), value)
	})
}

// GetWithOptions returns documents ordered and limited per opts.
func (c *Collection[T]) GetWithOptions(ctx context.Context, opts QueryOptions) ([]*T, error) {
	docs, err := c.scan(ctx, nil)
	if err != nil {
		return nil, err
	}

	if err := c.sort(docs, opts); err != nil {
		return nil, err
	}

	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	return docs, nil
}

// GetPaginated returns one page of documents ordered per opts.
//
// HasMore uses the page-size heuristic documented on PaginatedResult: a page
// that comes back exactly full reports HasMore=true even when nothing
// follows, at the cost of one extra empty fetch.
func (c *Collection[T]) GetPaginated(ctx context.Context, opts QueryOptions, params PaginationParams) (*PaginatedResult[*T], error) {
	params.Validate()

	offset, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	docs, err := c.scan(ctx, nil)
	if err != nil {
		return nil, err
	}

	if err := c.sort(docs, opts); err != nil {
		return nil, err
	}

	if offset > len(docs) {
		offset = len(docs)
	}
	end := offset + params.Limit
	if end > len(docs) {
		end = len(docs)
	}
	page := docs[offset:end]

	result := &PaginatedResult[*T]{
		Items:   page,
		HasMore: len(page) == params.Limit,
	}
	if result.HasMore {
		result.NextCursor = EncodeCursor(end)
	}
	return result, nil
}

// sort orders docs in place using the registered comparator named in opts.
func (c *Collection[T]) sort(docs []*T, opts QueryOptions) error {
	if opts.OrderBy == "" {
		return nil
	}
	cmp, ok := c.sorters[opts.OrderBy]
	if !ok {
		return ErrUnavailable.WithCause(errors.New("unknown sort key: " + opts.OrderBy))
	}
	slices.SortStableFunc(docs, cmp)
	if opts.Descending {
		slices.Reverse(docs)
	}
	return nil
}

// scan iterates the collection prefix, returning documents that pass the
// optional filter.
func (c *Collection[T]) scan(ctx context.Context, keep func(*T) bool) ([]*T, error) {
	var docs []*T

	err := c.store.db.View(func(txn *badger.Txn) error {
		prefix := c.prefix()
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var doc T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			})
			if err != nil {
				return err
			}

			if keep == nil || keep(&doc) {
				docs = append(docs, &doc)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, unavailable(err)
	}

	return docs, nil
}
