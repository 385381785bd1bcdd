package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shelfmark/shelfmark-server/internal/search"
)

// SearchService runs full-text queries over a user's catalogue. The index is
// only ever built from a complete book listing: a mutation drops the index
// (via InvalidateUser) and the next query rebuilds it, so results never come
// from a partial or stale view.
type SearchService struct {
	books   *BookService
	catalog *search.Catalog
	logger  *slog.Logger
}

// NewSearchService creates a search service.
func NewSearchService(books *BookService, catalog *search.Catalog, logger *slog.Logger) *SearchService {
	return &SearchService{
		books:   books,
		catalog: catalog,
		logger:  logger,
	}
}

// Search queries the user's catalogue, building the index first if needed.
func (s *SearchService) Search(ctx context.Context, userID string, params search.Params) (*search.Result, error) {
	if !s.catalog.Has(userID) {
		if err := s.rebuild(ctx, userID); err != nil {
			return nil, err
		}
	}

	result, err := s.catalog.Search(ctx, userID, params)
	if errors.Is(err, search.ErrNoIndex) {
		// Index dropped between the check and the query; rebuild once.
		if err := s.rebuild(ctx, userID); err != nil {
			return nil, err
		}
		return s.catalog.Search(ctx, userID, params)
	}
	return result, err
}

// rebuild indexes the user's complete active book set.
func (s *SearchService) rebuild(ctx context.Context, userID string) error {
	books, err := s.books.AllBooks(ctx, userID)
	if err != nil {
		return err
	}

	docs := make([]*search.Document, 0, len(books))
	for _, b := range books {
		docs = append(docs, search.FromBook(b))
	}
	return s.catalog.Rebuild(userID, docs)
}
