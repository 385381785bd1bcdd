package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark-server/internal/sse"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "reconcileCounts",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/reconcile",
		Summary:     "Reconcile counters",
		Description: "Recomputes denormalized book counts from the active book set and repairs any drift",
		Tags:        []string{"Admin"},
	}, s.handleReconcileCounts)

	huma.Register(s.api, huma.Operation{
		OperationID: "purgeExpired",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/purge-expired",
		Summary:     "Purge expired bin entries",
		Description: "Permanently deletes binned books whose retention window has elapsed",
		Tags:        []string{"Admin"},
	}, s.handlePurgeExpired)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportCatalogue",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/export",
		Summary:     "Export catalogue",
		Description: "Writes the user's full catalogue, binned documents included, to a zip archive on the server",
		Tags:        []string{"Admin"},
	}, s.handleExportCatalogue)

	huma.Register(s.api, huma.Operation{
		OperationID: "importCatalogue",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/import",
		Summary:     "Import catalogue",
		Description: "Restores a catalogue archive, then reconciles denormalized counts",
		Tags:        []string{"Admin"},
	}, s.handleImportCatalogue)
}

// === DTOs ===

type ReconcileRequest struct {
	Kind string `json:"kind" enum:"genres,series,all" doc:"Which counters to reconcile (default all)"`
}

type ReconcileInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Body   ReconcileRequest
}

type ReconcileKindResult struct {
	Updated           int `json:"updated" doc:"Documents whose stored count drifted"`
	TotalBooksScanned int `json:"total_books_scanned" doc:"Active books examined"`
}

type ReconcileResponse struct {
	Genres *ReconcileKindResult `json:"genres,omitempty" doc:"Genre counter sweep result"`
	Series *ReconcileKindResult `json:"series,omitempty" doc:"Series counter sweep result"`
}

type ReconcileOutput struct {
	Body ReconcileResponse
}

type PurgeExpiredInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
}

type ExportCatalogueRequest struct {
	Path string `json:"path,omitempty" doc:"Output path on the server; empty picks a timestamped file in the backup directory"`
}

type ExportCatalogueInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Body   ExportCatalogueRequest
}

type ExportCatalogueResponse struct {
	Path      string `json:"path" doc:"Archive location on the server"`
	Documents int    `json:"documents" doc:"Documents written across all collections"`
}

type ExportCatalogueOutput struct {
	Body ExportCatalogueResponse
}

type ImportCatalogueRequest struct {
	Path      string `json:"path" doc:"Archive path on the server"`
	Overwrite bool   `json:"overwrite,omitempty" doc:"Replace documents that already exist"`
}

type ImportCatalogueInput struct {
	UserID string `header:"X-User-ID" doc:"Catalogue owner"`
	Body   ImportCatalogueRequest
}

type ImportCatalogueResponse struct {
	Written int `json:"written" doc:"Documents restored"`
	Skipped int `json:"skipped" doc:"Documents left untouched"`
}

type ImportCatalogueOutput struct {
	Body ImportCatalogueResponse
}

// === Handlers ===

func (s *Server) handleReconcileCounts(ctx context.Context, input *ReconcileInput) (*ReconcileOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	kind := input.Body.Kind
	if kind == "" {
		kind = "all"
	}

	var resp ReconcileResponse
	if kind == "genres" || kind == "all" {
		result, err := s.services.Counter.Reconcile(ctx, userID, store.CounterGenres)
		if err != nil {
			return nil, err
		}
		resp.Genres = &ReconcileKindResult{
			Updated:           result.Updated,
			TotalBooksScanned: result.TotalBooksScanned,
		}
		s.emitToUser(userID, sse.NewCountsReconciledEvent(string(store.CounterGenres), result.Updated))
	}
	if kind == "series" || kind == "all" {
		result, err := s.services.Counter.Reconcile(ctx, userID, store.CounterSeries)
		if err != nil {
			return nil, err
		}
		resp.Series = &ReconcileKindResult{
			Updated:           result.Updated,
			TotalBooksScanned: result.TotalBooksScanned,
		}
		s.emitToUser(userID, sse.NewCountsReconciledEvent(string(store.CounterSeries), result.Updated))
	}

	return &ReconcileOutput{Body: resp}, nil
}

func (s *Server) handlePurgeExpired(ctx context.Context, input *PurgeExpiredInput) (*BinSweepOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	removed, err := s.services.Bin.PurgeExpired(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &BinSweepOutput{Body: BinSweepResponse{Removed: removed}}, nil
}

func (s *Server) handleExportCatalogue(ctx context.Context, input *ExportCatalogueInput) (*ExportCatalogueOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Backup.Export(ctx, userID, input.Body.Path)
	if err != nil {
		return nil, err
	}

	return &ExportCatalogueOutput{Body: ExportCatalogueResponse{
		Path:      result.Path,
		Documents: result.Counts.Total(),
	}}, nil
}

func (s *Server) handleImportCatalogue(ctx context.Context, input *ImportCatalogueInput) (*ImportCatalogueOutput, error) {
	userID, err := requireUser(input.UserID)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Backup.Import(ctx, userID, input.Body.Path, input.Body.Overwrite)
	if err != nil {
		return nil, err
	}

	// Imported genre and series documents carry the source catalogue's
	// counts, which are stale the moment the archive merges into existing
	// books. The sweep puts them back in step.
	if _, err := s.services.Counter.Reconcile(ctx, userID, store.CounterGenres); err != nil {
		return nil, err
	}
	if _, err := s.services.Counter.Reconcile(ctx, userID, store.CounterSeries); err != nil {
		return nil, err
	}

	return &ImportCatalogueOutput{Body: ImportCatalogueResponse{
		Written: result.Written.Total(),
		Skipped: result.Skipped,
	}}, nil
}

// emitToUser forwards an event to the SSE manager when one is wired.
func (s *Server) emitToUser(userID string, event sse.Event) {
	if s.sseManager != nil {
		s.sseManager.EmitToUser(userID, event)
	}
}
