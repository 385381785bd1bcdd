package service_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shelfmark/shelfmark-server/internal/cache"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/search"
	"github.com/shelfmark/shelfmark-server/internal/service"
	"github.com/shelfmark/shelfmark-server/internal/sse"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/stretchr/testify/require"
)

const testUser = "user-alpha"

// fakeImages records which asset IDs were deleted.
type fakeImages struct {
	deleted []string
}

func (f *fakeImages) DeleteAll(ids []string) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}

// fakeEmitter captures emitted events for assertions.
type fakeEmitter struct {
	events []sse.Event
}

func (f *fakeEmitter) EmitToUser(userID string, event sse.Event) {
	event.UserID = userID
	f.events = append(f.events, event)
}

func (f *fakeEmitter) byType(t sse.EventType) []sse.Event {
	var out []sse.Event
	for _, e := range f.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// env wires the full service stack against a throwaway store.
type env struct {
	store    *store.Store
	cache    *cache.Store
	catalog  *search.Catalog
	counters *service.CounterSync
	genres   *service.GenreService
	series   *service.SeriesService
	books    *service.BookService
	bin      *service.BinService
	wishlist *service.WishlistService
	search   *service.SearchService
	images   *fakeImages
	emitter  *fakeEmitter
	snapDir  string
}

func newEnv(t *testing.T) *env {
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
	images := &fakeImages{}
	emitter := &fakeEmitter{}
	snapDir := filepath.Join(dir, "snapshots")

	counters := service.NewCounterSync(st, logger)
	seriesSvc := service.NewSeriesService(st, invalidator, emitter, logger)
	genreSvc := service.NewGenreService(st, invalidator, logger)
	books := service.NewBookService(st, counters, c, invalidator, snapDir, logger)
	bin := service.NewBinService(st, counters, seriesSvc, images, invalidator, emitter, logger, 30)
	wishlist := service.NewWishlistService(st, books, invalidator, logger)
	searchSvc := service.NewSearchService(books, catalog, logger)

	return &env{
		store:    st,
		cache:    c,
		catalog:  catalog,
		counters: counters,
		genres:   genreSvc,
		series:   seriesSvc,
		books:    books,
		bin:      bin,
		wishlist: wishlist,
		search:   searchSvc,
		images:   images,
		emitter:  emitter,
		snapDir:  snapDir,
	}
}

// createGenre makes a genre directly through the service.
func (e *env) createGenre(t *testing.T, name string) *domain.Genre {
	t.Helper()
	g, err := e.genres.CreateGenre(context.Background(), testUser, service.CreateGenreRequest{Name: name})
	require.NoError(t, err)
	return g
}

// createSeries makes a series directly through the service.
func (e *env) createSeries(t *testing.T, name string) *domain.Series {
	t.Helper()
	sr, err := e.series.CreateSeries(context.Background(), testUser, service.CreateSeriesRequest{Name: name})
	require.NoError(t, err)
	return sr
}

// createBook makes a book directly through the service.
func (e *env) createBook(t *testing.T, title string, genres []string, seriesID string) *domain.Book {
	t.Helper()
	b, err := e.books.CreateBook(context.Background(), testUser, service.CreateBookRequest{
		Title:    title,
		Genres:   genres,
		SeriesID: seriesID,
	})
	require.NoError(t, err)
	return b
}

// createReq builds a minimal create request with one author.
func createReq(title, author string) service.CreateBookRequest {
	return service.CreateBookRequest{
		Title:   title,
		Authors: []string{author},
	}
}

// genreCount reads the stored counter for a genre.
func (e *env) genreCount(t *testing.T, genreID string) int {
	t.Helper()
	g, err := e.store.Genres(testUser).GetByID(context.Background(), genreID)
	require.NoError(t, err)
	return g.BookCount
}

// seriesCount reads the stored counter for a series.
func (e *env) seriesCount(t *testing.T, seriesID string) int {
	t.Helper()
	sr, err := e.store.Series(testUser).GetByID(context.Background(), seriesID)
	require.NoError(t, err)
	return sr.BookCount
}
