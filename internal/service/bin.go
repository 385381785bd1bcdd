package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/sse"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// DefaultRetentionDays is how long a binned book survives before the purge
// sweep is allowed to remove it.
const DefaultRetentionDays = 30

// BinService drives the book lifecycle: Active -> Binned -> Restored or
// Purged. Counter adjustments around soft delete and restore are best
// effort; a failure is logged and left for the reconcile sweep instead of
// rolling back the lifecycle change itself.
type BinService struct {
	store         *store.Store
	counters      CountAdjuster
	series        SeriesLookup
	images        ImageDeleter
	cache         CacheInvalidator
	events        EventEmitter
	logger        *slog.Logger
	retentionDays int
}

// NewBinService creates a bin lifecycle manager.
func NewBinService(
	st *store.Store,
	counters CountAdjuster,
	series SeriesLookup,
	images ImageDeleter,
	cache CacheInvalidator,
	events EventEmitter,
	logger *slog.Logger,
	retentionDays int,
) *BinService {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &BinService{
		store:         st,
		counters:      counters,
		series:        series,
		images:        images,
		cache:         cache,
		events:        events,
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// ListBin returns every binned book.
func (s *BinService) ListBin(ctx context.Context, userID string) ([]*domain.Book, error) {
	return s.store.BinnedBooks(ctx, userID)
}

// SoftDelete moves a book into the bin. The book's counter contributions
// are decremented afterwards; a decrement failure does not undo the delete.
// If this was the last active book of its series, the series is binned too
// so the pair can be restored together.
func (s *BinService) SoftDelete(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	books := s.store.Books(userID)

	book, err := books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.IsDeleted() {
		return nil, errors.Conflict("book is already in the bin")
	}

	book.MarkDeleted()
	if err := books.Update(ctx, bookID, book); err != nil {
		return nil, err
	}

	if len(book.Genres) > 0 {
		if err := s.counters.UpdateCounts(ctx, userID, store.CounterGenres, nil, book.Genres); err != nil {
			s.logger.Warn("genre counter decrement failed after soft delete",
				"user_id", userID, "book_id", bookID, "error", err)
		}
	}
	if book.SeriesID != "" {
		if err := s.counters.UpdateCounts(ctx, userID, store.CounterSeries, nil, []string{book.SeriesID}); err != nil {
			s.logger.Warn("series counter decrement failed after soft delete",
				"user_id", userID, "book_id", bookID, "error", err)
		}
		s.binSeriesIfEmpty(ctx, userID, book.SeriesID)
	}

	s.cache.InvalidateUser(userID)
	s.events.EmitToUser(userID, sse.NewBookDeletedEvent(bookID, *book.DeletedAt))

	s.logger.Info("book moved to bin", "user_id", userID, "book_id", bookID)
	return book, nil
}

// binSeriesIfEmpty soft-deletes the series when no active books remain in
// it. Best effort: a failure leaves the series active, which is harmless.
func (s *BinService) binSeriesIfEmpty(ctx context.Context, userID, seriesID string) {
	remaining, err := s.store.Books(userID).QueryByField(ctx, "series_id", seriesID)
	if err != nil {
		s.logger.Warn("series membership check failed", "user_id", userID, "series_id", seriesID, "error", err)
		return
	}
	for _, b := range remaining {
		if !b.IsDeleted() {
			return
		}
	}

	if err := s.series.SoftDeleteSeries(ctx, userID, seriesID); err != nil {
		s.logger.Warn("series soft delete failed", "user_id", userID, "series_id", seriesID, "error", err)
		return
	}
	s.logger.Info("series moved to bin with its last book", "user_id", userID, "series_id", seriesID)
}

// RestoreResult reports what Restore had to adjust.
type RestoreResult struct {
	Book           *domain.Book `json:"book"`
	Warnings       []string     `json:"warnings,omitempty"`
	SeriesRestored bool         `json:"series_restored"`
}

// Restore takes a book out of the bin. Genre references that vanished while
// the book was binned are dropped with a warning rather than failing the
// restore; a vanished series clears the book's series fields, while a
// merely-binned series is transitively restored so the reference stays
// valid. Counters for the surviving references are re-incremented.
func (s *BinService) Restore(ctx context.Context, userID, bookID string) (*RestoreResult, error) {
	books := s.store.Books(userID)

	book, err := books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !book.IsDeleted() {
		return nil, errors.Conflict("book is not in the bin")
	}

	result := &RestoreResult{}

	kept := make([]string, 0, len(book.Genres))
	for _, genreID := range book.Genres {
		g, err := s.store.Genres(userID).GetByID(ctx, genreID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			continue
		case err != nil:
			// A failed read says nothing about whether the genre exists, so
			// the restore aborts with the book still binned.
			return nil, err
		case g.IsDeleted():
			continue
		}
		kept = append(kept, genreID)
	}
	if dropped := len(book.Genres) - len(kept); dropped > 0 {
		result.Warnings = append(result.Warnings, genreDriftWarning(dropped))
		book.Genres = kept
	}

	if book.SeriesID != "" {
		sr, err := s.series.GetSeries(ctx, userID, book.SeriesID)
		switch {
		case errors.Is(err, errors.ErrNotFound):
			book.SeriesID = ""
			book.SeriesPosition = nil
			result.Warnings = append(result.Warnings, "series no longer exists")
		case err != nil:
			return nil, err
		case sr.IsDeleted():
			if err := s.series.RestoreSeries(ctx, userID, book.SeriesID); err != nil {
				return nil, err
			}
			result.SeriesRestored = true
		}
	}

	book.ClearDeleted()
	if err := books.Update(ctx, bookID, book); err != nil {
		return nil, err
	}

	if len(book.Genres) > 0 {
		if err := s.counters.UpdateCounts(ctx, userID, store.CounterGenres, book.Genres, nil); err != nil {
			s.logger.Warn("genre counter increment failed after restore",
				"user_id", userID, "book_id", bookID, "error", err)
		}
	}
	if book.SeriesID != "" {
		if err := s.counters.UpdateCounts(ctx, userID, store.CounterSeries, []string{book.SeriesID}, nil); err != nil {
			s.logger.Warn("series counter increment failed after restore",
				"user_id", userID, "book_id", bookID, "error", err)
		}
	}

	s.cache.InvalidateUser(userID)
	s.events.EmitToUser(userID, sse.NewBookRestoredEvent(bookID, result.SeriesRestored))

	result.Book = book
	s.logger.Info("book restored from bin",
		"user_id", userID,
		"book_id", bookID,
		"warnings", len(result.Warnings),
		"series_restored", result.SeriesRestored)
	return result, nil
}

// genreDriftWarning phrases the dropped-genre warning for display.
func genreDriftWarning(n int) string {
	if n == 1 {
		return "1 genre no longer exists"
	}
	return fmt.Sprintf("%d genres no longer exist", n)
}

// PermanentlyDelete removes a binned book for good. Image assets go first,
// best effort; asset failures are logged and never block the record delete.
// Counters are untouched: they were already decremented at soft delete.
func (s *BinService) PermanentlyDelete(ctx context.Context, userID, bookID string) error {
	books := s.store.Books(userID)

	book, err := books.GetByID(ctx, bookID)
	if err != nil {
		return err
	}
	if !book.IsDeleted() {
		return errors.Conflict("book must be in the bin before permanent deletion")
	}

	s.deleteImages(userID, bookID, book.Images)

	if err := books.Delete(ctx, bookID); err != nil {
		return err
	}

	s.cache.InvalidateUser(userID)
	s.events.EmitToUser(userID, sse.NewBookPurgedEvent(bookID))

	s.logger.Info("book permanently deleted", "user_id", userID, "book_id", bookID)
	return nil
}

func (s *BinService) deleteImages(userID, bookID string, imageIDs []string) {
	if len(imageIDs) == 0 {
		return
	}
	if err := s.images.DeleteAll(imageIDs); err != nil {
		s.logger.Warn("image cleanup failed during permanent delete",
			"user_id", userID, "book_id", bookID, "error", err)
	}
}

// EmptyBin permanently deletes binned books in one batch. A nil or empty
// ids list empties the whole bin; explicit ids are filtered to books that
// are actually binned. Returns the number of books removed.
func (s *BinService) EmptyBin(ctx context.Context, userID string, ids []string) (int, error) {
	binned, err := s.store.BinnedBooks(ctx, userID)
	if err != nil {
		return 0, err
	}

	targets := binned
	if len(ids) > 0 {
		wanted := make(map[string]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
		targets = make([]*domain.Book, 0, len(ids))
		for _, b := range binned {
			if wanted[b.ID] {
				targets = append(targets, b)
			}
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	return s.purge(ctx, userID, targets)
}

// PurgeExpired permanently deletes binned books whose retention window has
// elapsed. Returns the number of books removed.
func (s *BinService) PurgeExpired(ctx context.Context, userID string) (int, error) {
	binned, err := s.store.BinnedBooks(ctx, userID)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-time.Duration(s.retentionDays) * 24 * time.Hour)
	var expired []*domain.Book
	for _, b := range binned {
		if b.DeletedAt != nil && b.DeletedAt.Before(cutoff) {
			expired = append(expired, b)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	return s.purge(ctx, userID, expired)
}

// purge hard-deletes the given books in one write batch, after best-effort
// image cleanup per book.
func (s *BinService) purge(ctx context.Context, userID string, books []*domain.Book) (int, error) {
	ids := make([]string, 0, len(books))
	for _, b := range books {
		s.deleteImages(userID, b.ID, b.Images)
		ids = append(ids, b.ID)
	}

	if err := s.store.HardDeleteBooks(ctx, userID, ids); err != nil {
		return 0, err
	}

	s.cache.InvalidateUser(userID)
	for _, id := range ids {
		s.events.EmitToUser(userID, sse.NewBookPurgedEvent(id))
	}

	s.logger.Info("bin purged", "user_id", userID, "count", len(ids))
	return len(ids), nil
}

// DaysRemaining reports how many days a binned book has left before it is
// eligible for purge. A nil deletedAt (book not binned) yields the full
// retention window.
func (s *BinService) DaysRemaining(deletedAt *time.Time) int {
	if deletedAt == nil {
		return s.retentionDays
	}
	elapsed := int(time.Since(*deletedAt).Hours() / 24)
	return max(0, s.retentionDays-elapsed)
}
