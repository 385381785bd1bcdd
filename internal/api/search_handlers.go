package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search books",
		Description: "Full-text search over the user's active books",
		Tags:        []string{"Search"},
	}, s.handleSearchBooks)
}

// === DTOs ===

type SearchInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Query  string `query:"q" doc:"Search query; empty matches everything"`
	Limit  int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum hits (default 20)"`
	Offset int    `query:"offset" minimum:"0" doc:"Hits to skip"`
}

type SearchHitResponse struct {
	ID         string            `json:"id" doc:"Book ID"`
	Score      float64           `json:"score" doc:"Relevance score"`
	Title      string            `json:"title" doc:"Title"`
	Authors    string            `json:"authors,omitempty" doc:"Author names, joined"`
	ISBN       string            `json:"isbn,omitempty" doc:"ISBN"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Matched fragments per field"`
}

type SearchResponse struct {
	Query  string              `json:"query" doc:"The executed query"`
	Total  uint64              `json:"total" doc:"Total matching books"`
	TookMs int64               `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResponse `json:"hits" doc:"Matching books, best first"`
}

type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	params := search.DefaultParams()
	params.Query = input.Query
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset

	result, err := s.services.Search.Search(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResponse, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResponse{
			ID:         h.ID,
			Score:      h.Score,
			Title:      h.Title,
			Authors:    h.Authors,
			ISBN:       h.ISBN,
			Highlights: h.Highlights,
		}
	}

	return &SearchOutput{Body: SearchResponse{
		Query:  result.Query,
		Total:  result.Total,
		TookMs: result.TookMs,
		Hits:   hits,
	}}, nil
}
