package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerSeriesRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSeries",
		Method:      http.MethodGet,
		Path:        "/api/v1/series",
		Summary:     "List series",
		Description: "Returns all active series with their book counts",
		Tags:        []string{"Series"},
	}, s.handleListSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "createSeries",
		Method:      http.MethodPost,
		Path:        "/api/v1/series",
		Summary:     "Create series",
		Description: "Creates a new series",
		Tags:        []string{"Series"},
	}, s.handleCreateSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "findDuplicateSeries",
		Method:      http.MethodGet,
		Path:        "/api/v1/series/duplicates",
		Summary:     "Find duplicate series",
		Description: "Groups series whose names likely refer to the same series",
		Tags:        []string{"Series"},
	}, s.handleFindDuplicateSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "mergeSeries",
		Method:      http.MethodPost,
		Path:        "/api/v1/series/merge",
		Summary:     "Merge series",
		Description: "Folds the source series into the target, reassigning books and merging expected books",
		Tags:        []string{"Series"},
	}, s.handleMergeSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSeries",
		Method:      http.MethodGet,
		Path:        "/api/v1/series/{id}",
		Summary:     "Get series",
		Description: "Returns a series by ID",
		Tags:        []string{"Series"},
	}, s.handleGetSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSeries",
		Method:      http.MethodPatch,
		Path:        "/api/v1/series/{id}",
		Summary:     "Update series",
		Description: "Updates a series",
		Tags:        []string{"Series"},
	}, s.handleUpdateSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSeries",
		Method:      http.MethodDelete,
		Path:        "/api/v1/series/{id}",
		Summary:     "Delete series",
		Description: "Deletes a series; books keep the dangling reference until restore or reconcile",
		Tags:        []string{"Series"},
	}, s.handleDeleteSeries)

	huma.Register(s.api, huma.Operation{
		OperationID: "addExpectedBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/series/{id}/expected-books",
		Summary:     "Add expected book",
		Description: "Adds a placeholder for a not-yet-owned book in the series",
		Tags:        []string{"Series"},
	}, s.handleAddExpectedBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeExpectedBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/series/{id}/expected-books",
		Summary:     "Remove expected book",
		Description: "Removes an expected-book placeholder by title",
		Tags:        []string{"Series"},
	}, s.handleRemoveExpectedBook)
}

// === DTOs ===

type ExpectedBookResponse struct {
	Title    string `json:"title" doc:"Expected title"`
	ISBN     string `json:"isbn,omitempty" doc:"ISBN when known"`
	Position *int   `json:"position,omitempty" doc:"Position within series"`
	Source   string `json:"source" doc:"Where the entry came from: api or manual"`
}

type SeriesResponse struct {
	ID            string                 `json:"id" doc:"Series ID"`
	Name          string                 `json:"name" doc:"Series name"`
	Description   string                 `json:"description,omitempty" doc:"Description"`
	BookCount     int                    `json:"book_count" doc:"Active books in this series"`
	TotalBooks    *int                   `json:"total_books,omitempty" doc:"Known series length, null if unknown"`
	ExpectedBooks []ExpectedBookResponse `json:"expected_books,omitempty" doc:"Placeholders for unowned entries"`
	CreatedAt     time.Time              `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time              `json:"updated_at" doc:"Last update time"`
	DeletedAt     *time.Time             `json:"deleted_at,omitempty" doc:"Bin entry time, null when active"`
}

type ListSeriesInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
}

type ListSeriesResponse struct {
	Series []SeriesResponse `json:"series" doc:"List of series"`
}

type ListSeriesOutput struct {
	Body ListSeriesResponse
}

type CreateSeriesRequest struct {
	Name        string `json:"name" doc:"Series name"`
	Description string `json:"description,omitempty" doc:"Description"`
	TotalBooks  *int   `json:"total_books,omitempty" doc:"Known series length"`
}

type CreateSeriesInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Body   CreateSeriesRequest
}

type SeriesOutput struct {
	Body SeriesResponse
}

type GetSeriesInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Series ID"`
}

type UpdateSeriesRequest struct {
	Name        *string `json:"name,omitempty" doc:"Series name"`
	Description *string `json:"description,omitempty" doc:"Description"`
	TotalBooks  *int    `json:"total_books,omitempty" doc:"Known series length"`
}

type UpdateSeriesInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Series ID"`
	Body   UpdateSeriesRequest
}

type DeleteSeriesInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Series ID"`
}

type DuplicateSeriesResponse struct {
	Groups [][]SeriesResponse `json:"groups" doc:"Groups of likely-duplicate series, two or more per group"`
}

type DuplicateSeriesOutput struct {
	Body DuplicateSeriesResponse
}

type MergeSeriesRequest struct {
	SourceID string `json:"source_id" doc:"Series to merge from; deleted afterwards"`
	TargetID string `json:"target_id" doc:"Series to merge into"`
}

type MergeSeriesInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Body   MergeSeriesRequest
}

type MergeSeriesResponse struct {
	BooksUpdated        int `json:"books_updated" doc:"Books reassigned to the target"`
	ExpectedBooksMerged int `json:"expected_books_merged" doc:"Expected books on the target after the union"`
}

type MergeSeriesOutput struct {
	Body MergeSeriesResponse
}

type AddExpectedBookRequest struct {
	Title    string `json:"title" doc:"Expected title"`
	ISBN     string `json:"isbn,omitempty" doc:"ISBN when known"`
	Position *int   `json:"position,omitempty" doc:"Position within series"`
	Source   string `json:"source,omitempty" enum:"api,manual" doc:"Entry origin (default manual)"`
}

type AddExpectedBookInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Series ID"`
	Body   AddExpectedBookRequest
}

type RemoveExpectedBookInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Series ID"`
	Title  string `query:"title" doc:"Expected book title, matched case-insensitively"`
}

// === Handlers ===

func (s *Server) handleListSeries(ctx context.Context, input *ListSeriesInput) (*ListSeriesOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	all, err := s.services.Series.ListSeries(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]SeriesResponse, len(all))
	for i, sr := range all {
		resp[i] = mapSeriesResponse(sr)
	}

	return &ListSeriesOutput{Body: ListSeriesResponse{Series: resp}}, nil
}

func (s *Server) handleCreateSeries(ctx context.Context, input *CreateSeriesInput) (*SeriesOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	sr, err := s.services.Series.CreateSeries(ctx, userID, service.CreateSeriesRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		TotalBooks:  input.Body.TotalBooks,
	})
	if err != nil {
		return nil, err
	}

	return &SeriesOutput{Body: mapSeriesResponse(sr)}, nil
}

func (s *Server) handleGetSeries(ctx context.Context, input *GetSeriesInput) (*SeriesOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	sr, err := s.services.Series.GetSeries(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &SeriesOutput{Body: mapSeriesResponse(sr)}, nil
}

func (s *Server) handleUpdateSeries(ctx context.Context, input *UpdateSeriesInput) (*SeriesOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	sr, err := s.services.Series.UpdateSeries(ctx, userID, input.ID, service.UpdateSeriesRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
		TotalBooks:  input.Body.TotalBooks,
	})
	if err != nil {
		return nil, err
	}

	return &SeriesOutput{Body: mapSeriesResponse(sr)}, nil
}

func (s *Server) handleDeleteSeries(ctx context.Context, input *DeleteSeriesInput) (*MessageOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Series.DeleteSeries(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Series deleted"}}, nil
}

func (s *Server) handleFindDuplicateSeries(ctx context.Context, input *ListSeriesInput) (*DuplicateSeriesOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	groups, err := s.services.Series.FindPotentialDuplicates(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([][]SeriesResponse, len(groups))
	for i, group := range groups {
		resp[i] = make([]SeriesResponse, len(group))
		for j, sr := range group {
			resp[i][j] = mapSeriesResponse(sr)
		}
	}

	return &DuplicateSeriesOutput{Body: DuplicateSeriesResponse{Groups: resp}}, nil
}

func (s *Server) handleMergeSeries(ctx context.Context, input *MergeSeriesInput) (*MergeSeriesOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Series.MergeSeries(ctx, userID, input.Body.SourceID, input.Body.TargetID)
	if err != nil {
		return nil, err
	}

	return &MergeSeriesOutput{Body: MergeSeriesResponse{
		BooksUpdated:        result.BooksUpdated,
		ExpectedBooksMerged: result.ExpectedBooksMerged,
	}}, nil
}

func (s *Server) handleAddExpectedBook(ctx context.Context, input *AddExpectedBookInput) (*SeriesOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	sr, err := s.services.Series.AddExpectedBook(ctx, userID, input.ID, service.AddExpectedBookRequest{
		Title:    input.Body.Title,
		ISBN:     input.Body.ISBN,
		Position: input.Body.Position,
		Source:   input.Body.Source,
	})
	if err != nil {
		return nil, err
	}

	return &SeriesOutput{Body: mapSeriesResponse(sr)}, nil
}

func (s *Server) handleRemoveExpectedBook(ctx context.Context, input *RemoveExpectedBookInput) (*SeriesOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	sr, err := s.services.Series.RemoveExpectedBook(ctx, userID, input.ID, input.Title)
	if err != nil {
		return nil, err
	}

	return &SeriesOutput{Body: mapSeriesResponse(sr)}, nil
}

func mapSeriesResponse(sr *domain.Series) SeriesResponse {
	resp := SeriesResponse{
		ID:          sr.ID,
		Name:        sr.Name,
		Description: sr.Description,
		BookCount:   sr.BookCount,
		TotalBooks:  sr.TotalBooks,
		CreatedAt:   sr.CreatedAt,
		UpdatedAt:   sr.UpdatedAt,
		DeletedAt:   sr.DeletedAt,
	}
	if len(sr.ExpectedBooks) > 0 {
		resp.ExpectedBooks = make([]ExpectedBookResponse, len(sr.ExpectedBooks))
		for i, eb := range sr.ExpectedBooks {
			resp.ExpectedBooks[i] = ExpectedBookResponse{
				Title:    eb.Title,
				ISBN:     eb.ISBN,
				Position: eb.Position,
				Source:   eb.Source,
			}
		}
	}
	return resp
}
