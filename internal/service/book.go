package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/cache"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/shelfmark/shelfmark-server/internal/validation"
)

// DefaultSort is the listing order used when a request does not name one.
const DefaultSort = "title"

// BookService manages book CRUD and the cached listing that fronts it.
// Counter updates ride along with every mutation that changes genre or
// series membership.
type BookService struct {
	store       *store.Store
	counters    CountAdjuster
	cache       *cache.Store
	invalidator CacheInvalidator
	snapshotDir string
	logger      *slog.Logger
	validator   *validation.Validator
}

// NewBookService creates a book service. The invalidator is the fan-out
// target for mutations (query cache plus search indexes); snapshotDir holds
// the persisted listing snapshots that survive restarts.
func NewBookService(
	st *store.Store,
	counters CountAdjuster,
	c *cache.Store,
	invalidator CacheInvalidator,
	snapshotDir string,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		store:       st,
		counters:    counters,
		cache:       c,
		invalidator: invalidator,
		snapshotDir: snapshotDir,
		logger:      logger,
		validator:   validation.New(),
	}
}

// ListBooksRequest contains listing parameters.
type ListBooksRequest struct {
	Sort   string `json:"sort" validate:"omitempty,oneof=title created_at updated_at"`
	Limit  int    `json:"limit" validate:"omitempty,gte=1,lte=500"`
	Cursor string `json:"cursor"`
}

// ListBooks returns one page of active books. The first default-ordered page
// is served from the query cache when present; deeper pages always hit the
// store.
func (s *BookService) ListBooks(ctx context.Context, userID string, req ListBooksRequest) (*store.PaginatedResult[*domain.Book], error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	sort := req.Sort
	if sort == "" {
		sort = DefaultSort
	}

	cacheable := req.Cursor == "" && sort == DefaultSort
	if cacheable {
		if entry := s.cache.Get(userID, cache.KeyBooks); entry != nil && entry.SortKey == sort {
			if books, ok := entry.Items.([]*domain.Book); ok {
				return pageFromCached(books, req.Limit, entry.HasMore), nil
			}
		}
	}

	result, err := s.Books(userID).GetPaginated(ctx,
		store.QueryOptions{OrderBy: sort},
		store.PaginationParams{Limit: req.Limit, Cursor: req.Cursor})
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.cache.Set(userID, cache.KeyBooks, result.Items, sort, result.HasMore)
	}
	return result, nil
}

// pageFromCached shapes a cached first page to the requested limit. The
// cached slice may be longer than the request; trimming it keeps HasMore
// truthful.
func pageFromCached(books []*domain.Book, limit int, hasMore bool) *store.PaginatedResult[*domain.Book] {
	params := store.PaginationParams{Limit: limit}
	params.Validate()

	page := books
	if len(page) > params.Limit {
		page = page[:params.Limit]
		hasMore = true
	}

	result := &store.PaginatedResult[*domain.Book]{
		Items:   page,
		HasMore: hasMore,
	}
	if hasMore {
		result.NextCursor = store.EncodeCursor(len(page))
	}
	return result
}

// AllBooks returns the complete active book set ordered by title. The
// result is always complete: a cached entry is only trusted when its
// completeness flag says so, and anything else triggers a full store read.
// The fresh set is cached as complete and persisted as a snapshot.
func (s *BookService) AllBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	if entry := s.cache.Get(userID, cache.KeyBooks); entry.Complete() && entry.SortKey == DefaultSort {
		if books, ok := entry.Items.([]*domain.Book); ok {
			return books, nil
		}
	}

	all, err := s.Books(userID).GetWithOptions(ctx, store.QueryOptions{OrderBy: DefaultSort})
	if err != nil {
		return nil, err
	}
	books := all[:0]
	for _, b := range all {
		if !b.IsDeleted() {
			books = append(books, b)
		}
	}

	s.cache.Set(userID, cache.KeyBooks, books, DefaultSort, false)
	if err := cache.SaveSnapshot(s.snapshotDir, userID, books, DefaultSort, false); err != nil {
		s.logger.Warn("snapshot write failed", "user_id", userID, "error", err)
	}
	return books, nil
}

// WarmCache primes the query cache from the persisted snapshot, if one
// exists. Partial snapshots warm the listing but never count as complete.
func (s *BookService) WarmCache(userID string) {
	snap, err := cache.LoadSnapshot(s.snapshotDir, userID)
	if err != nil {
		s.logger.Warn("snapshot load failed", "user_id", userID, "error", err)
		return
	}
	if snap == nil {
		return
	}

	sort := snap.Sort
	if sort == "" {
		sort = DefaultSort
	}
	s.cache.Set(userID, cache.KeyBooks, snap.Books, sort, snap.HasMore)
	s.logger.Info("book cache warmed from snapshot",
		"user_id", userID, "books", len(snap.Books), "complete", !snap.HasMore)
}

// GetBook returns a book by ID.
func (s *BookService) GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	b, err := s.Books(userID).GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFoundf("book %s not found", bookID)
		}
		return nil, err
	}
	return b, nil
}

// CreateBookRequest contains fields for creating a book.
type CreateBookRequest struct {
	Title          string   `json:"title" validate:"required,min=1,max=500"`
	Authors        []string `json:"authors" validate:"omitempty,dive,min=1,max=200"`
	ISBN           string   `json:"isbn" validate:"max=20"`
	Genres         []string `json:"genres"`
	SeriesID       string   `json:"series_id"`
	SeriesPosition *int     `json:"series_position" validate:"omitempty,gte=0"`
	Notes          string   `json:"notes" validate:"max=5000"`
	Rating         int      `json:"rating" validate:"gte=0,lte=5"`
}

// CreateBook creates a book and increments the counters for its genre and
// series memberships. Referenced genres and series must exist and be active.
func (s *BookService) CreateBook(ctx context.Context, userID string, req CreateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, userID, req.Genres, req.SeriesID); err != nil {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, err
	}

	b := &domain.Book{
		Record:         domain.Record{ID: bookID},
		Title:          strings.TrimSpace(req.Title),
		Authors:        req.Authors,
		ISBN:           req.ISBN,
		Genres:         req.Genres,
		SeriesID:       req.SeriesID,
		SeriesPosition: req.SeriesPosition,
		Notes:          req.Notes,
		Rating:         req.Rating,
	}

	if err := s.Books(userID).Create(ctx, bookID, b); err != nil {
		return nil, err
	}

	s.applyCounts(ctx, userID, bookID, nil, b)

	s.invalidator.InvalidateUser(userID)
	s.logger.Info("book created", "user_id", userID, "book_id", bookID, "title", b.Title)
	return b, nil
}

// UpdateBookRequest contains fields for updating a book. Nil pointers leave
// the field untouched; SeriesID and Genres replace wholesale when present.
type UpdateBookRequest struct {
	Title          *string   `json:"title" validate:"omitempty,min=1,max=500"`
	Authors        *[]string `json:"authors" validate:"omitempty,dive,min=1,max=200"`
	ISBN           *string   `json:"isbn" validate:"omitempty,max=20"`
	Genres         *[]string `json:"genres"`
	SeriesID       *string   `json:"series_id"`
	SeriesPosition *int      `json:"series_position" validate:"omitempty,gte=0"`
	Notes          *string   `json:"notes" validate:"omitempty,max=5000"`
	Rating         *int      `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// UpdateBook updates a book, adjusting counters by the membership diff
// between the old and new document.
func (s *BookService) UpdateBook(ctx context.Context, userID, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	b, err := s.GetBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if b.IsDeleted() {
		return nil, errors.Conflict("book is in the bin")
	}
	before := *b

	if req.Genres != nil || req.SeriesID != nil {
		genres := b.Genres
		if req.Genres != nil {
			genres = *req.Genres
		}
		seriesID := b.SeriesID
		if req.SeriesID != nil {
			seriesID = *req.SeriesID
		}
		if err := s.checkReferences(ctx, userID, genres, seriesID); err != nil {
			return nil, err
		}
	}

	if req.Title != nil {
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.Authors != nil {
		b.Authors = *req.Authors
	}
	if req.ISBN != nil {
		b.ISBN = *req.ISBN
	}
	if req.Genres != nil {
		b.Genres = *req.Genres
	}
	if req.SeriesID != nil {
		b.SeriesID = *req.SeriesID
		if *req.SeriesID == "" {
			b.SeriesPosition = nil
		}
	}
	if req.SeriesPosition != nil {
		b.SeriesPosition = req.SeriesPosition
	}
	if req.Notes != nil {
		b.Notes = *req.Notes
	}
	if req.Rating != nil {
		b.Rating = *req.Rating
	}

	if err := s.Books(userID).Update(ctx, bookID, b); err != nil {
		return nil, err
	}

	s.applyCounts(ctx, userID, bookID, &before, b)

	s.invalidator.InvalidateUser(userID)
	return b, nil
}

// Books exposes the underlying collection view. Handlers use it for reads
// that need raw query options.
func (s *BookService) Books(userID string) *store.Collection[domain.Book] {
	return s.store.Books(userID)
}

// checkReferences rejects genre and series IDs that do not resolve to an
// active document.
func (s *BookService) checkReferences(ctx context.Context, userID string, genres []string, seriesID string) error {
	for _, genreID := range genres {
		g, err := s.store.Genres(userID).GetByID(ctx, genreID)
		if errors.Is(err, store.ErrNotFound) {
			return errors.Validationf("genre %s does not exist", genreID)
		}
		if err != nil {
			return err
		}
		if g.IsDeleted() {
			return errors.Validationf("genre %s does not exist", genreID)
		}
	}

	if seriesID != "" {
		sr, err := s.store.Series(userID).GetByID(ctx, seriesID)
		if errors.Is(err, store.ErrNotFound) {
			return errors.Validationf("series %s does not exist", seriesID)
		}
		if err != nil {
			return err
		}
		if sr.IsDeleted() {
			return errors.Validationf("series %s does not exist", seriesID)
		}
	}
	return nil
}

// applyCounts adjusts genre and series counters by the membership diff
// between before (nil on create) and after. Best effort: failures are logged
// and left for the reconcile sweep.
func (s *BookService) applyCounts(ctx context.Context, userID, bookID string, before, after *domain.Book) {
	var oldGenres []string
	var oldSeries string
	if before != nil {
		oldGenres = before.Genres
		oldSeries = before.SeriesID
	}

	addedGenres := diffIDs(after.Genres, oldGenres)
	removedGenres := diffIDs(oldGenres, after.Genres)
	if len(addedGenres) > 0 || len(removedGenres) > 0 {
		if err := s.counters.UpdateCounts(ctx, userID, store.CounterGenres, addedGenres, removedGenres); err != nil {
			s.logger.Warn("genre counter update failed", "user_id", userID, "book_id", bookID, "error", err)
		}
	}

	if oldSeries != after.SeriesID {
		var added, removed []string
		if after.SeriesID != "" {
			added = []string{after.SeriesID}
		}
		if oldSeries != "" {
			removed = []string{oldSeries}
		}
		if err := s.counters.UpdateCounts(ctx, userID, store.CounterSeries, added, removed); err != nil {
			s.logger.Warn("series counter update failed", "user_id", userID, "book_id", bookID, "error", err)
		}
	}
}

// diffIDs returns the IDs present in a but not in b.
func diffIDs(a, b []string) []string {
	var out []string
	for _, id := range a {
		if !slices.Contains(b, id) {
			out = append(out, id)
		}
	}
	return out
}
