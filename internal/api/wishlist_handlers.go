package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerWishlistRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listWishlist",
		Method:      http.MethodGet,
		Path:        "/api/v1/wishlist",
		Summary:     "List wishlist",
		Description: "Returns all wishlist items ordered by title",
		Tags:        []string{"Wishlist"},
	}, s.handleListWishlist)

	huma.Register(s.api, huma.Operation{
		OperationID: "addWishlistItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/wishlist",
		Summary:     "Add wishlist item",
		Description: "Adds a book the user wants but does not own yet",
		Tags:        []string{"Wishlist"},
	}, s.handleAddWishlistItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWishlistItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/wishlist/{id}",
		Summary:     "Get wishlist item",
		Description: "Returns a wishlist item by ID",
		Tags:        []string{"Wishlist"},
	}, s.handleGetWishlistItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeWishlistItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/wishlist/{id}",
		Summary:     "Remove wishlist item",
		Description: "Removes a wishlist item",
		Tags:        []string{"Wishlist"},
	}, s.handleRemoveWishlistItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "acquireWishlistItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/wishlist/{id}/acquire",
		Summary:     "Acquire wishlist item",
		Description: "Converts a wishlist item into an owned book and removes it from the wishlist",
		Tags:        []string{"Wishlist"},
	}, s.handleAcquireWishlistItem)
}

// === DTOs ===

type WishlistItemResponse struct {
	ID        string    `json:"id" doc:"Item ID"`
	Title     string    `json:"title" doc:"Title"`
	Authors   []string  `json:"authors,omitempty" doc:"Author names"`
	ISBN      string    `json:"isbn,omitempty" doc:"ISBN"`
	Notes     string    `json:"notes,omitempty" doc:"Free-form notes"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

type ListWishlistInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
}

type ListWishlistResponse struct {
	Items []WishlistItemResponse `json:"items" doc:"Wishlist items"`
}

type ListWishlistOutput struct {
	Body ListWishlistResponse
}

type AddWishlistItemRequest struct {
	Title   string   `json:"title" doc:"Title"`
	Authors []string `json:"authors,omitempty" doc:"Author names"`
	ISBN    string   `json:"isbn,omitempty" doc:"ISBN, deduplicated across the wishlist"`
	Notes   string   `json:"notes,omitempty" doc:"Free-form notes"`
}

type AddWishlistItemInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Body   AddWishlistItemRequest
}

type WishlistItemOutput struct {
	Body WishlistItemResponse
}

type GetWishlistItemInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Item ID"`
}

type AcquireRequest struct {
	Genres         []string `json:"genres,omitempty" doc:"Genre IDs for the new book"`
	SeriesID       string   `json:"series_id,omitempty" doc:"Series ID for the new book"`
	SeriesPosition *int     `json:"series_position,omitempty" doc:"Position within series"`
	Rating         int      `json:"rating,omitempty" doc:"Star rating 1-5, 0 = unrated"`
}

type AcquireInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Item ID"`
	Body   AcquireRequest
}

// === Handlers ===

func (s *Server) handleListWishlist(ctx context.Context, input *ListWishlistInput) (*ListWishlistOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Wishlist.ListWishlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]WishlistItemResponse, len(items))
	for i, item := range items {
		resp[i] = mapWishlistItemResponse(item)
	}

	return &ListWishlistOutput{Body: ListWishlistResponse{Items: resp}}, nil
}

func (s *Server) handleAddWishlistItem(ctx context.Context, input *AddWishlistItemInput) (*WishlistItemOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Wishlist.AddWishlistItem(ctx, userID, service.AddWishlistItemRequest{
		Title:   input.Body.Title,
		Authors: input.Body.Authors,
		ISBN:    input.Body.ISBN,
		Notes:   input.Body.Notes,
	})
	if err != nil {
		return nil, err
	}

	return &WishlistItemOutput{Body: mapWishlistItemResponse(item)}, nil
}

func (s *Server) handleGetWishlistItem(ctx context.Context, input *GetWishlistItemInput) (*WishlistItemOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Wishlist.GetWishlistItem(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &WishlistItemOutput{Body: mapWishlistItemResponse(item)}, nil
}

func (s *Server) handleRemoveWishlistItem(ctx context.Context, input *GetWishlistItemInput) (*MessageOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Wishlist.RemoveWishlistItem(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Wishlist item removed"}}, nil
}

func (s *Server) handleAcquireWishlistItem(ctx context.Context, input *AcquireInput) (*BookOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Wishlist.Acquire(ctx, userID, input.ID, service.AcquireRequest{
		Genres:         input.Body.Genres,
		SeriesID:       input.Body.SeriesID,
		SeriesPosition: input.Body.SeriesPosition,
		Rating:         input.Body.Rating,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

func mapWishlistItemResponse(item *domain.WishlistItem) WishlistItemResponse {
	return WishlistItemResponse{
		ID:        item.ID,
		Title:     item.Title,
		Authors:   item.Authors,
		ISBN:      item.ISBN,
		Notes:     item.Notes,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}
