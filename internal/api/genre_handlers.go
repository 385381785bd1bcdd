package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerGenreRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Description: "Returns all active genres with their book counts",
		Tags:        []string{"Genres"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID: "createGenre",
		Method:      http.MethodPost,
		Path:        "/api/v1/genres",
		Summary:     "Create genre",
		Description: "Creates a new genre",
		Tags:        []string{"Genres"},
	}, s.handleCreateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGenre",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Get genre",
		Description: "Returns a genre by ID",
		Tags:        []string{"Genres"},
	}, s.handleGetGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateGenre",
		Method:      http.MethodPatch,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Update genre",
		Description: "Updates a genre",
		Tags:        []string{"Genres"},
	}, s.handleUpdateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteGenre",
		Method:      http.MethodDelete,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Delete genre",
		Description: "Deletes a genre; books keep the dangling reference until restore or reconcile",
		Tags:        []string{"Genres"},
	}, s.handleDeleteGenre)
}

// === DTOs ===

type GenreResponse struct {
	ID          string    `json:"id" doc:"Genre ID"`
	Name        string    `json:"name" doc:"Genre name"`
	Description string    `json:"description,omitempty" doc:"Description"`
	Color       string    `json:"color,omitempty" doc:"Display color"`
	BookCount   int       `json:"book_count" doc:"Active books in this genre"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

type ListGenresInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
}

type ListGenresResponse struct {
	Genres []GenreResponse `json:"genres" doc:"List of genres"`
}

type ListGenresOutput struct {
	Body ListGenresResponse
}

type CreateGenreRequest struct {
	Name        string `json:"name" doc:"Genre name"`
	Description string `json:"description,omitempty" doc:"Description"`
	Color       string `json:"color,omitempty" doc:"Display color (hex)"`
}

type CreateGenreInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Body   CreateGenreRequest
}

type GenreOutput struct {
	Body GenreResponse
}

type GetGenreInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Genre ID"`
}

type UpdateGenreRequest struct {
	Name        *string `json:"name,omitempty" doc:"Genre name"`
	Description *string `json:"description,omitempty" doc:"Description"`
	Color       *string `json:"color,omitempty" doc:"Display color (hex)"`
}

type UpdateGenreInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Genre ID"`
	Body   UpdateGenreRequest
}

type DeleteGenreInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Genre ID"`
}

// === Handlers ===

func (s *Server) handleListGenres(ctx context.Context, input *ListGenresInput) (*ListGenresOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	genres, err := s.services.Genre.ListGenres(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]GenreResponse, len(genres))
	for i, g := range genres {
		resp[i] = mapGenreResponse(g)
	}

	return &ListGenresOutput{Body: ListGenresResponse{Genres: resp}}, nil
}

func (s *Server) handleCreateGenre(ctx context.Context, input *CreateGenreInput) (*GenreOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	g, err := s.services.Genre.CreateGenre(ctx, userID, service.CreateGenreRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Color:       input.Body.Color,
	})
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: mapGenreResponse(g)}, nil
}

func (s *Server) handleGetGenre(ctx context.Context, input *GetGenreInput) (*GenreOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	g, err := s.services.Genre.GetGenre(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: mapGenreResponse(g)}, nil
}

func (s *Server) handleUpdateGenre(ctx context.Context, input *UpdateGenreInput) (*GenreOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	g, err := s.services.Genre.UpdateGenre(ctx, userID, input.ID, service.UpdateGenreRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Color:       input.Body.Color,
	})
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: mapGenreResponse(g)}, nil
}

func (s *Server) handleDeleteGenre(ctx context.Context, input *DeleteGenreInput) (*MessageOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Genre.DeleteGenre(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Genre deleted"}}, nil
}

func mapGenreResponse(g *domain.Genre) GenreResponse {
	return GenreResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Color:       g.Color,
		BookCount:   g.BookCount,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
