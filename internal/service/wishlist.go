package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/shelfmark/shelfmark-server/internal/validation"
)

// WishlistService manages wanted-but-not-owned books. Acquiring an item
// converts it into a catalogue book through the book service, so counter and
// cache behavior stays in one place.
type WishlistService struct {
	store     *store.Store
	books     *BookService
	cache     CacheInvalidator
	logger    *slog.Logger
	validator *validation.Validator
}

// NewWishlistService creates a wishlist service.
func NewWishlistService(st *store.Store, books *BookService, cache CacheInvalidator, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		store:     st,
		books:     books,
		cache:     cache,
		logger:    logger,
		validator: validation.New(),
	}
}

// ListWishlist returns all wishlist items ordered by title.
func (s *WishlistService) ListWishlist(ctx context.Context, userID string) ([]*domain.WishlistItem, error) {
	return s.store.Wishlist(userID).GetWithOptions(ctx, store.QueryOptions{OrderBy: "title"})
}

// GetWishlistItem returns a wishlist item by ID.
func (s *WishlistService) GetWishlistItem(ctx context.Context, userID, itemID string) (*domain.WishlistItem, error) {
	item, err := s.store.Wishlist(userID).GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.NotFoundf("wishlist item %s not found", itemID)
		}
		return nil, err
	}
	return item, nil
}

// AddWishlistItemRequest contains fields for adding a wishlist item.
type AddWishlistItemRequest struct {
	Title   string   `json:"title" validate:"required,min=1,max=500"`
	Authors []string `json:"authors" validate:"omitempty,dive,min=1,max=200"`
	ISBN    string   `json:"isbn" validate:"max=20"`
	Notes   string   `json:"notes" validate:"max=5000"`
}

// AddWishlistItem adds a wanted book. An item with the same non-empty ISBN
// as an existing entry is rejected.
func (s *WishlistService) AddWishlistItem(ctx context.Context, userID string, req AddWishlistItemRequest) (*domain.WishlistItem, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if req.ISBN != "" {
		existing, err := s.store.Wishlist(userID).QueryByField(ctx, "isbn", req.ISBN)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return nil, errors.Conflictf("wishlist already has an item with ISBN %s", req.ISBN)
		}
	}

	itemID, err := id.Generate("wish")
	if err != nil {
		return nil, err
	}

	item := &domain.WishlistItem{
		Record:  domain.Record{ID: itemID},
		Title:   strings.TrimSpace(req.Title),
		Authors: req.Authors,
		ISBN:    req.ISBN,
		Notes:   req.Notes,
	}

	if err := s.store.Wishlist(userID).Create(ctx, itemID, item); err != nil {
		return nil, err
	}

	s.cache.InvalidateUser(userID)
	s.logger.Info("wishlist item added", "user_id", userID, "item_id", itemID, "title", item.Title)
	return item, nil
}

// RemoveWishlistItem deletes a wishlist item.
func (s *WishlistService) RemoveWishlistItem(ctx context.Context, userID, itemID string) error {
	if _, err := s.GetWishlistItem(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.store.Wishlist(userID).Delete(ctx, itemID); err != nil {
		return err
	}

	s.cache.InvalidateUser(userID)
	return nil
}

// AcquireRequest contains the catalogue placement for an acquired item.
type AcquireRequest struct {
	Genres         []string `json:"genres"`
	SeriesID       string   `json:"series_id"`
	SeriesPosition *int     `json:"series_position" validate:"omitempty,gte=0"`
	Rating         int      `json:"rating" validate:"gte=0,lte=5"`
}

// Acquire converts a wishlist item into an owned book and removes it from
// the wishlist. The book carries the item's title, authors, ISBN and notes;
// placement (genres, series) comes from the request. If the wishlist delete
// fails the book still exists, so retrying Acquire reports a conflict from
// the duplicate create rather than double-counting.
func (s *WishlistService) Acquire(ctx context.Context, userID, itemID string, req AcquireRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	item, err := s.GetWishlistItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	book, err := s.books.CreateBook(ctx, userID, CreateBookRequest{
		Title:          item.Title,
		Authors:        item.Authors,
		ISBN:           item.ISBN,
		Notes:          item.Notes,
		Genres:         req.Genres,
		SeriesID:       req.SeriesID,
		SeriesPosition: req.SeriesPosition,
		Rating:         req.Rating,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Wishlist(userID).Delete(ctx, itemID); err != nil {
		s.logger.Warn("wishlist item delete failed after acquire",
			"user_id", userID, "item_id", itemID, "book_id", book.ID, "error", err)
		return book, err
	}

	s.cache.InvalidateUser(userID)
	s.logger.Info("wishlist item acquired",
		"user_id", userID, "item_id", itemID, "book_id", book.ID)
	return book, nil
}
