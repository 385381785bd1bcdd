package store

import (
	"context"
	"encoding/json/v2"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// Books returns the book collection view for a user.
func (s *Store) Books(userID string) *Collection[domain.Book] {
	return NewCollection[domain.Book](s, userID, ColBooks).
		WithField("genres", func(b *domain.Book) []string {
			return b.Genres
		}).
		WithField("series_id", func(b *domain.Book) []string {
			if b.SeriesID == "" {
				return nil
			}
			return []string{b.SeriesID}
		}).
		WithField("isbn", func(b *domain.Book) []string {
			if b.ISBN == "" {
				return nil
			}
			return []string{b.ISBN}
		}).
		WithSort("title", func(a, b *domain.Book) int {
			return strings.Compare(domain.NormalizeName(a.Title), domain.NormalizeName(b.Title))
		}).
		WithSort("created_at", func(a, b *domain.Book) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}).
		WithSort("updated_at", func(a, b *domain.Book) int {
			return a.UpdatedAt.Compare(b.UpdatedAt)
		})
}

// ActiveBooks returns all books outside the bin.
func (s *Store) ActiveBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	return s.Books(userID).GetActive(ctx)
}

// BinnedBooks returns all soft-deleted books.
func (s *Store) BinnedBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	return s.Books(userID).scan(ctx, func(b *domain.Book) bool {
		return b.IsDeleted()
	})
}

// ReassignSeriesBooks points every book in the source series at the target
// series, binned books included so a later restore lands in the target.
// All updates go out in one write batch: either every reassignment lands or
// none do. Returns the number of books moved and how many of those are
// active, since only active books feed the target's BookCount.
func (s *Store) ReassignSeriesBooks(ctx context.Context, userID, sourceID, targetID string) (moved, active int, err error) {
	books, err := s.Books(userID).QueryByField(ctx, "series_id", sourceID)
	if err != nil {
		return 0, 0, err
	}
	if len(books) == 0 {
		return 0, 0, nil
	}

	batch := s.NewBatchWriter()
	defer batch.Cancel()

	for _, book := range books {
		book.SeriesID = targetID
		book.Touch()

		data, err := json.Marshal(book)
		if err != nil {
			return 0, 0, unavailable(err)
		}
		if err := batch.Set(recordKey(userID, ColBooks, book.ID), data); err != nil {
			return 0, 0, err
		}
		if !book.IsDeleted() {
			active++
		}
	}

	if err := batch.Flush(); err != nil {
		return 0, 0, err
	}
	return len(books), active, nil
}

// HardDeleteBooks permanently removes book documents in one write batch.
func (s *Store) HardDeleteBooks(ctx context.Context, userID string, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	batch := s.NewBatchWriter()
	defer batch.Cancel()

	for _, id := range ids {
		if err := batch.Delete(recordKey(userID, ColBooks, id)); err != nil {
			return err
		}
	}
	return batch.Flush()
}
