package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/backup"
	"github.com/shelfmark/shelfmark-server/internal/cache"
	"github.com/shelfmark/shelfmark-server/internal/search"
	"github.com/shelfmark/shelfmark-server/internal/service"
	"github.com/shelfmark/shelfmark-server/internal/sse"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

const testUserHeader = "X-User-ID: user-api-test"

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// setupTestServer creates a test server wired against a throwaway store.
func setupTestServer(t *testing.T) (*Server, humatest.TestAPI) {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(filepath.Join(dir, "db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	c, err := cache.New(cache.Config{}, logger)
	require.NoError(t, err)
	t.Cleanup(c.Dispose)

	catalog := search.NewCatalog(logger)
	t.Cleanup(func() { _ = catalog.Close() })

	invalidator := service.CombineInvalidators(c, catalog)
	sseManager := sse.NewManager(logger)
	sseHandler := sse.NewHandler(sseManager, logger)

	counters := service.NewCounterSync(st, logger)
	seriesSvc := service.NewSeriesService(st, invalidator, sseManager, logger)
	genreSvc := service.NewGenreService(st, invalidator, logger)
	bookSvc := service.NewBookService(st, counters, c, invalidator, filepath.Join(dir, "snapshots"), logger)
	binSvc := service.NewBinService(st, counters, seriesSvc, nopImages{}, invalidator, sseManager, logger, 30)
	wishlistSvc := service.NewWishlistService(st, bookSvc, invalidator, logger)
	searchSvc := service.NewSearchService(bookSvc, catalog, logger)
	backupSvc := backup.NewService(st, filepath.Join(dir, "backups"), logger)

	services := &Services{
		Book:     bookSvc,
		Bin:      binSvc,
		Genre:    genreSvc,
		Series:   seriesSvc,
		Wishlist: wishlistSvc,
		Search:   searchSvc,
		Counter:  counters,
		Backup:   backupSvc,
	}

	s := NewServer(st, services, sseHandler, sseManager, logger)
	return s, humatest.Wrap(t, s.api)
}

type nopImages struct{}

func (nopImages) DeleteAll([]string) error { return nil }

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env))
	return env.Data
}

func TestServer_HealthCheck(t *testing.T) {
	_, api := setupTestServer(t)

	resp := api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeData[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Components, "database")
	assert.Contains(t, health.Components, "sse")
}

func TestServer_RequiresUserHeader(t *testing.T) {
	_, api := setupTestServer(t)

	resp := api.Get("/api/v1/books")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var env testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, 1, env.V)
}

func TestServer_BookLifecycle(t *testing.T) {
	_, api := setupTestServer(t)

	resp := api.Post("/api/v1/books", testUserHeader, map[string]any{
		"title":   "Leviathan Wakes",
		"authors": []string{"James S. A. Corey"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	book := decodeData[BookResponse](t, resp.Body.Bytes())
	require.NotEmpty(t, book.ID)

	resp = api.Get("/api/v1/books", testUserHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	listing := decodeData[ListBooksResponse](t, resp.Body.Bytes())
	require.Len(t, listing.Books, 1)
	assert.False(t, listing.HasMore)

	// Soft delete moves the book to the bin with the full retention window.
	resp = api.Delete("/api/v1/books/"+book.ID, testUserHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	binned := decodeData[BinnedBookResponse](t, resp.Body.Bytes())
	assert.Equal(t, 30, binned.DaysRemaining)
	assert.NotNil(t, binned.Book.DeletedAt)

	resp = api.Get("/api/v1/bin", testUserHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	bin := decodeData[ListBinResponse](t, resp.Body.Bytes())
	require.Len(t, bin.Books, 1)

	resp = api.Post("/api/v1/bin/"+book.ID+"/restore", testUserHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	restored := decodeData[RestoreBookResponse](t, resp.Body.Bytes())
	assert.Empty(t, restored.Warnings)
	assert.Nil(t, restored.Book.DeletedAt)

	// Permanent delete requires the book to be binned first.
	resp = api.Delete("/api/v1/bin/"+book.ID, testUserHeader)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = api.Delete("/api/v1/books/"+book.ID, testUserHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = api.Delete("/api/v1/bin/"+book.ID, testUserHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = api.Get("/api/v1/books/"+book.ID, testUserHeader)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServer_GenreConflictEnvelope(t *testing.T) {
	_, api := setupTestServer(t)

	resp := api.Post("/api/v1/genres", testUserHeader, map[string]any{"name": "Fiction"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = api.Post("/api/v1/genres", testUserHeader, map[string]any{"name": "  FICTION "})
	require.Equal(t, http.StatusConflict, resp.Code)

	var env testEnvelope[struct{}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "CONFLICT", env.Code)
	assert.NotEmpty(t, env.Message)
}

func TestServer_SeriesMerge(t *testing.T) {
	_, api := setupTestServer(t)

	resp := api.Post("/api/v1/series", testUserHeader, map[string]any{"name": "The Expanse"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	target := decodeData[SeriesResponse](t, resp.Body.Bytes())

	resp = api.Post("/api/v1/series", testUserHeader, map[string]any{"name": "Expanse"})
	require.Equal(t, http.StatusOK, resp.Code)
	source := decodeData[SeriesResponse](t, resp.Body.Bytes())

	resp = api.Post("/api/v1/books", testUserHeader, map[string]any{
		"title":     "Cibola Burn",
		"series_id": source.ID,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = api.Get("/api/v1/series/duplicates", testUserHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	dupes := decodeData[DuplicateSeriesResponse](t, resp.Body.Bytes())
	require.Len(t, dupes.Groups, 1)
	require.Len(t, dupes.Groups[0], 2)

	resp = api.Post("/api/v1/series/merge", testUserHeader, map[string]any{
		"source_id": source.ID,
		"target_id": target.ID,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	merged := decodeData[MergeSeriesResponse](t, resp.Body.Bytes())
	assert.Equal(t, 1, merged.BooksUpdated)

	resp = api.Get("/api/v1/series/"+source.ID, testUserHeader)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServer_WishlistAcquire(t *testing.T) {
	_, api := setupTestServer(t)

	resp := api.Post("/api/v1/wishlist", testUserHeader, map[string]any{
		"title": "Blindsight",
		"isbn":  "9780765319647",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	item := decodeData[WishlistItemResponse](t, resp.Body.Bytes())

	resp = api.Post("/api/v1/wishlist/"+item.ID+"/acquire", testUserHeader, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	book := decodeData[BookResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Blindsight", book.Title)

	resp = api.Get("/api/v1/wishlist", testUserHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	wishlist := decodeData[ListWishlistResponse](t, resp.Body.Bytes())
	assert.Empty(t, wishlist.Items)
}

func TestServer_Search(t *testing.T) {
	_, api := setupTestServer(t)

	resp := api.Post("/api/v1/books", testUserHeader, map[string]any{
		"title":   "Blindsight",
		"authors": []string{"Peter Watts"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = api.Get("/api/v1/search?q=blindsight", testUserHeader)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	result := decodeData[SearchResponse](t, resp.Body.Bytes())
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "Blindsight", result.Hits[0].Title)
}

func TestServer_ExportImportCatalogue(t *testing.T) {
	_, api := setupTestServer(t)

	resp := api.Post("/api/v1/books", testUserHeader, map[string]any{
		"title": "Hyperion",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = api.Post("/api/v1/admin/export", testUserHeader, map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	exported := decodeData[ExportCatalogueResponse](t, resp.Body.Bytes())
	require.NotEmpty(t, exported.Path)
	assert.Equal(t, 1, exported.Documents)

	// Restoring into a catalogue that already holds every document is a no-op.
	resp = api.Post("/api/v1/admin/import", testUserHeader, map[string]any{
		"path": exported.Path,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	imported := decodeData[ImportCatalogueResponse](t, resp.Body.Bytes())
	assert.Equal(t, 0, imported.Written)
	assert.Equal(t, 1, imported.Skipped)
}

func TestServer_ReconcileCounts(t *testing.T) {
	_, api := setupTestServer(t)

	resp := api.Post("/api/v1/genres", testUserHeader, map[string]any{"name": "Fiction"})
	require.Equal(t, http.StatusOK, resp.Code)
	genre := decodeData[GenreResponse](t, resp.Body.Bytes())

	resp = api.Post("/api/v1/books", testUserHeader, map[string]any{
		"title":  "Dune",
		"genres": []string{genre.ID},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// Counters are already in step, so the sweep finds nothing to fix.
	resp = api.Post("/api/v1/admin/reconcile", testUserHeader, map[string]any{"kind": "all"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	reconciled := decodeData[ReconcileResponse](t, resp.Body.Bytes())
	require.NotNil(t, reconciled.Genres)
	require.NotNil(t, reconciled.Series)
	assert.Equal(t, 0, reconciled.Genres.Updated)
	assert.Equal(t, 1, reconciled.Genres.TotalBooksScanned)
}
