package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerBinRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBin",
		Method:      http.MethodGet,
		Path:        "/api/v1/bin",
		Summary:     "List bin",
		Description: "Returns all binned books with their remaining retention days",
		Tags:        []string{"Bin"},
	}, s.handleListBin)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/bin/{id}/restore",
		Summary:     "Restore book",
		Description: "Takes a book out of the bin, repairing stale references",
		Tags:        []string{"Bin"},
	}, s.handleRestoreBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "purgeBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/bin/{id}",
		Summary:     "Permanently delete book",
		Description: "Removes a binned book and its image assets for good",
		Tags:        []string{"Bin"},
	}, s.handlePurgeBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "emptyBin",
		Method:      http.MethodPost,
		Path:        "/api/v1/bin/empty",
		Summary:     "Empty bin",
		Description: "Permanently deletes binned books; an empty ID list empties the whole bin",
		Tags:        []string{"Bin"},
	}, s.handleEmptyBin)
}

// === DTOs ===

type ListBinInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
}

type ListBinResponse struct {
	Books []BinnedBookResponse `json:"books" doc:"Binned books"`
}

type ListBinOutput struct {
	Body ListBinResponse
}

type RestoreBookInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Book ID"`
}

type RestoreBookResponse struct {
	Book           BookResponse `json:"book" doc:"The restored book"`
	Warnings       []string     `json:"warnings,omitempty" doc:"References dropped or cleared during restore"`
	SeriesRestored bool         `json:"series_restored" doc:"Whether the book's binned series was restored with it"`
}

type RestoreBookOutput struct {
	Body RestoreBookResponse
}

type PurgeBookInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	ID     string `path:"id" doc:"Book ID"`
}

type MessageResponse struct {
	Message string `json:"message" doc:"Status message"`
}

type MessageOutput struct {
	Body MessageResponse
}

type EmptyBinRequest struct {
	IDs []string `json:"ids,omitempty" doc:"Book IDs to remove; empty removes every binned book"`
}

type EmptyBinInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Body   EmptyBinRequest
}

type BinSweepResponse struct {
	Removed int `json:"removed" doc:"Number of books permanently deleted"`
}

type BinSweepOutput struct {
	Body BinSweepResponse
}

// === Handlers ===

func (s *Server) handleListBin(ctx context.Context, input *ListBinInput) (*ListBinOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	binned, err := s.services.Bin.ListBin(ctx, userID)
	if err != nil {
		return nil, err
	}

	books := make([]BinnedBookResponse, len(binned))
	for i, b := range binned {
		books[i] = BinnedBookResponse{
			Book:          mapBookResponse(b),
			DaysRemaining: s.services.Bin.DaysRemaining(b.DeletedAt),
		}
	}

	return &ListBinOutput{Body: ListBinResponse{Books: books}}, nil
}

func (s *Server) handleRestoreBook(ctx context.Context, input *RestoreBookInput) (*RestoreBookOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Bin.Restore(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RestoreBookOutput{Body: RestoreBookResponse{
		Book:           mapBookResponse(result.Book),
		Warnings:       result.Warnings,
		SeriesRestored: result.SeriesRestored,
	}}, nil
}

func (s *Server) handlePurgeBook(ctx context.Context, input *PurgeBookInput) (*MessageOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.services.Bin.PermanentlyDelete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Book permanently deleted"}}, nil
}

func (s *Server) handleEmptyBin(ctx context.Context, input *EmptyBinInput) (*BinSweepOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	removed, err := s.services.Bin.EmptyBin(ctx, userID, input.Body.IDs)
	if err != nil {
		return nil, err
	}

	return &BinSweepOutput{Body: BinSweepResponse{Removed: removed}}, nil
}
