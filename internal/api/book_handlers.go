package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns a page of active books",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Create book",
		Description: "Creates a new book",
		Tags:        []string{"Books"},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Updates a book",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{id}",
		Summary:     "Delete book",
		Description: "Moves a book into the bin",
		Tags:        []string{"Books"},
	}, s.handleDeleteBook)
}

// === DTOs ===

type BookResponse struct {
	ID             string     `json:"id" doc:"Book ID"`
	Title          string     `json:"title" doc:"Title"`
	Authors        []string   `json:"authors,omitempty" doc:"Author names"`
	ISBN           string     `json:"isbn,omitempty" doc:"ISBN"`
	Genres         []string   `json:"genres,omitempty" doc:"Genre IDs"`
	SeriesID       string     `json:"series_id,omitempty" doc:"Series ID"`
	SeriesPosition *int       `json:"series_position,omitempty" doc:"Position within series"`
	Notes          string     `json:"notes,omitempty" doc:"Free-form notes"`
	Rating         int        `json:"rating,omitempty" doc:"Star rating, 0 = unrated"`
	CreatedAt      time.Time  `json:"created_at" doc:"Creation time"`
	UpdatedAt      time.Time  `json:"updated_at" doc:"Last update time"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" doc:"Bin entry time, null when active"`
}

type ListBooksInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Sort   string `query:"sort" enum:"title,created_at,updated_at" doc:"Sort order (default title)"`
	Limit  int    `query:"limit" minimum:"0" maximum:"500" doc:"Page size (default 100)"`
	Cursor string `query:"cursor" doc:"Opaque cursor from a previous page"`
}

type ListBooksResponse struct {
	Books      []BookResponse `json:"books" doc:"Page of books"`
	NextCursor string         `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool           `json:"has_more" doc:"Whether more pages may exist"`
}

type ListBooksOutput struct {
	Body ListBooksResponse
}

type CreateBookRequest struct {
	Title          string   `json:"title" doc:"Title"`
	Authors        []string `json:"authors,omitempty" doc:"Author names"`
	ISBN           string   `json:"isbn,omitempty" doc:"ISBN"`
	Genres         []string `json:"genres,omitempty" doc:"Genre IDs"`
	SeriesID       string   `json:"series_id,omitempty" doc:"Series ID"`
	SeriesPosition *int     `json:"series_position,omitempty" doc:"Position within series"`
	Notes          string   `json:"notes,omitempty" doc:"Free-form notes"`
	Rating         int      `json:"rating,omitempty" doc:"Star rating 1-5, 0 = unrated"`
}

type CreateBookInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Body   CreateBookRequest
}

type BookOutput struct {
	Body BookResponse
}

type GetBookInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Book ID"`
}

type UpdateBookRequest struct {
	Title          *string   `json:"title,omitempty" doc:"Title"`
	Authors        *[]string `json:"authors,omitempty" doc:"Author names"`
	ISBN           *string   `json:"isbn,omitempty" doc:"ISBN"`
	Genres         *[]string `json:"genres,omitempty" doc:"Genre IDs, replaces the whole set"`
	SeriesID       *string   `json:"series_id,omitempty" doc:"Series ID, empty string clears"`
	SeriesPosition *int      `json:"series_position,omitempty" doc:"Position within series"`
	Notes          *string   `json:"notes,omitempty" doc:"Free-form notes"`
	Rating         *int      `json:"rating,omitempty" doc:"Star rating 1-5, 0 = unrated"`
}

type UpdateBookInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Book ID"`
	Body   UpdateBookRequest
}

type DeleteBookInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Book ID"`
}

type BinnedBookResponse struct {
	Book          BookResponse `json:"book" doc:"The binned book"`
	DaysRemaining int          `json:"days_remaining" doc:"Days until the purge sweep may remove it"`
}

type BinnedBookOutput struct {
	Body BinnedBookResponse
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*ListBooksOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Book.ListBooks(ctx, userID, service.ListBooksRequest{
		Sort:   input.Sort,
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, err
	}

	books := make([]BookResponse, len(result.Items))
	for i, b := range result.Items {
		books[i] = mapBookResponse(b)
	}

	return &ListBooksOutput{Body: ListBooksResponse{
		Books:      books,
		NextCursor: result.NextCursor,
		HasMore:    result.HasMore,
	}}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	b, err := s.services.Book.CreateBook(ctx, userID, service.CreateBookRequest{
		Title:          input.Body.Title,
		Authors:        input.Body.Authors,
		ISBN:           input.Body.ISBN,
		Genres:         input.Body.Genres,
		SeriesID:       input.Body.SeriesID,
		SeriesPosition: input.Body.SeriesPosition,
		Notes:          input.Body.Notes,
		Rating:         input.Body.Rating,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(b)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	b, err := s.services.Book.GetBook(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(b)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	b, err := s.services.Book.UpdateBook(ctx, userID, input.ID, service.UpdateBookRequest{
		Title:          input.Body.Title,
		Authors:        input.Body.Authors,
		ISBN:           input.Body.ISBN,
		Genres:         input.Body.Genres,
		SeriesID:       input.Body.SeriesID,
		SeriesPosition: input.Body.SeriesPosition,
		Notes:          input.Body.Notes,
		Rating:         input.Body.Rating,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(b)}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*BinnedBookOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	b, err := s.services.Bin.SoftDelete(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BinnedBookOutput{Body: BinnedBookResponse{
		Book:          mapBookResponse(b),
		DaysRemaining: s.services.Bin.DaysRemaining(b.DeletedAt),
	}}, nil
}

func mapBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:             b.ID,
		Title:          b.Title,
		Authors:        b.Authors,
		ISBN:           b.ISBN,
		Genres:         b.Genres,
		SeriesID:       b.SeriesID,
		SeriesPosition: b.SeriesPosition,
		Notes:          b.Notes,
		Rating:         b.Rating,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
		DeletedAt:      b.DeletedAt,
	}
}
