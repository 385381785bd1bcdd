package store_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "store-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := store.New(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

func newBook(id, title string, genres ...string) *domain.Book {
	return &domain.Book{
		Record: domain.Record{ID: id},
		Title:  title,
		Genres: genres,
	}
}

func TestCollection_Create_Success(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	book := newBook("book-1", "The Long Way Down", "fiction")

	err := books.Create(context.Background(), book.ID, book)
	require.NoError(t, err)

	retrieved, err := books.GetByID(context.Background(), "book-1")
	require.NoError(t, err)
	require.Equal(t, "The Long Way Down", retrieved.Title)
	require.False(t, retrieved.CreatedAt.IsZero())
	require.False(t, retrieved.UpdatedAt.IsZero())
}

func TestCollection_Create_AlreadyExists(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	book := newBook("book-1", "The Long Way Down")

	require.NoError(t, books.Create(context.Background(), book.ID, book))

	err := books.Create(context.Background(), book.ID, book)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCollection_Get_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	retrieved, err := s.Books(testUser).GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Nil(t, retrieved)
}

func TestCollection_Update_BumpsTimestamp(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	book := newBook("book-1", "Original")
	require.NoError(t, books.Create(context.Background(), book.ID, book))

	created, err := books.GetByID(context.Background(), "book-1")
	require.NoError(t, err)

	created.Title = "Updated"
	require.NoError(t, books.Update(context.Background(), created.ID, created))

	updated, err := books.GetByID(context.Background(), "book-1")
	require.NoError(t, err)
	require.Equal(t, "Updated", updated.Title)
	require.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func TestCollection_Update_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	book := newBook("ghost", "Ghost")
	err := s.Books(testUser).Update(context.Background(), book.ID, book)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCollection_Delete_Idempotent(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	book := newBook("book-1", "Gone Soon")
	require.NoError(t, books.Create(context.Background(), book.ID, book))

	require.NoError(t, books.Delete(context.Background(), "book-1"))
	require.NoError(t, books.Delete(context.Background(), "book-1"))

	_, err := books.GetByID(context.Background(), "book-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCollection_UserIsolation(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	require.NoError(t, s.Books("alice").Create(context.Background(), "book-1", newBook("book-1", "Alice's Book")))

	_, err := s.Books("bob").GetByID(context.Background(), "book-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.Books("bob").GetAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestCollection_QueryByField(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	ctx := context.Background()

	require.NoError(t, books.Create(ctx, "book-1", newBook("book-1", "A", "fantasy", "adventure")))
	require.NoError(t, books.Create(ctx, "book-2", newBook("book-2", "B", "fantasy")))
	require.NoError(t, books.Create(ctx, "book-3", newBook("book-3", "C", "mystery")))

	fantasy, err := books.QueryByField(ctx, "genres", "fantasy")
	require.NoError(t, err)
	require.Len(t, fantasy, 2)

	mystery, err := books.QueryByField(ctx, "genres", "mystery")
	require.NoError(t, err)
	require.Len(t, mystery, 1)
	require.Equal(t, "C", mystery[0].Title)
}

func TestCollection_GetActive_ExcludesBinned(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	ctx := context.Background()

	active := newBook("book-1", "Active")
	binned := newBook("book-2", "Binned")
	require.NoError(t, books.Create(ctx, active.ID, active))
	require.NoError(t, books.Create(ctx, binned.ID, binned))

	stored, err := books.GetByID(ctx, "book-2")
	require.NoError(t, err)
	stored.MarkDeleted()
	require.NoError(t, books.Update(ctx, stored.ID, stored))

	got, err := books.GetActive(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Active", got[0].Title)

	inBin, err := s.BinnedBooks(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, inBin, 1)
	require.Equal(t, "Binned", inBin[0].Title)
}

func TestCollection_GetWithOptions_SortsByTitle(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	ctx := context.Background()

	require.NoError(t, books.Create(ctx, "book-1", newBook("book-1", "zebra crossing")))
	require.NoError(t, books.Create(ctx, "book-2", newBook("book-2", "  Apple  Orchard")))
	require.NoError(t, books.Create(ctx, "book-3", newBook("book-3", "Middle Ground")))

	sorted, err := books.GetWithOptions(ctx, store.QueryOptions{OrderBy: "title"})
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	require.Equal(t, "  Apple  Orchard", sorted[0].Title)
	require.Equal(t, "Middle Ground", sorted[1].Title)
	require.Equal(t, "zebra crossing", sorted[2].Title)
}

func TestCollection_GetPaginated_WalksAllPages(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	ctx := context.Background()

	for i := range 7 {
		id := fmt.Sprintf("book-%d", i)
		require.NoError(t, books.Create(ctx, id, newBook(id, fmt.Sprintf("Title %02d", i))))
	}

	var seen []string
	opts := store.QueryOptions{OrderBy: "title"}
	params := store.PaginationParams{Limit: 3}
	for {
		page, err := books.GetPaginated(ctx, opts, params)
		require.NoError(t, err)
		for _, b := range page.Items {
			seen = append(seen, b.ID)
		}
		if !page.HasMore {
			break
		}
		params.Cursor = page.NextCursor
	}

	require.Len(t, seen, 7)
}

// A page count that divides the total evenly makes the final full page report
// HasMore=true; the follow-up fetch comes back empty and ends the walk. The
// heuristic trades one extra round trip for skipping a lookahead read.
func TestCollection_GetPaginated_ExactMultipleNeedsExtraFetch(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	ctx := context.Background()

	for i := range 6 {
		id := fmt.Sprintf("book-%d", i)
		require.NoError(t, books.Create(ctx, id, newBook(id, fmt.Sprintf("Title %02d", i))))
	}

	opts := store.QueryOptions{OrderBy: "title"}
	params := store.PaginationParams{Limit: 3}

	first, err := books.GetPaginated(ctx, opts, params)
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.True(t, first.HasMore)

	params.Cursor = first.NextCursor
	second, err := books.GetPaginated(ctx, opts, params)
	require.NoError(t, err)
	require.Len(t, second.Items, 3)
	require.True(t, second.HasMore, "a full final page still reports more")

	params.Cursor = second.NextCursor
	third, err := books.GetPaginated(ctx, opts, params)
	require.NoError(t, err)
	require.Empty(t, third.Items)
	require.False(t, third.HasMore)
}

func TestCollection_GetPaginated_ShortPageEndsWalk(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	ctx := context.Background()

	for i := range 5 {
		id := fmt.Sprintf("book-%d", i)
		require.NoError(t, books.Create(ctx, id, newBook(id, fmt.Sprintf("Title %02d", i))))
	}

	page, err := books.GetPaginated(ctx, store.QueryOptions{OrderBy: "title"}, store.PaginationParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 5)
	require.False(t, page.HasMore)
	require.Empty(t, page.NextCursor)
}

func TestReassignSeriesBooks(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	ctx := context.Background()

	for i := range 3 {
		b := newBook(fmt.Sprintf("book-%d", i), fmt.Sprintf("Book %d", i))
		b.SeriesID = "series-old"
		require.NoError(t, books.Create(ctx, b.ID, b))
	}
	binned := newBook("book-b", "Binned")
	binned.SeriesID = "series-old"
	binned.MarkDeleted()
	require.NoError(t, books.Create(ctx, binned.ID, binned))
	other := newBook("book-x", "Unrelated")
	other.SeriesID = "series-other"
	require.NoError(t, books.Create(ctx, other.ID, other))

	moved, active, err := s.ReassignSeriesBooks(ctx, testUser, "series-old", "series-new")
	require.NoError(t, err)
	require.Equal(t, 4, moved, "binned books move with the series")
	require.Equal(t, 3, active)

	reassigned, err := books.QueryByField(ctx, "series_id", "series-new")
	require.NoError(t, err)
	require.Len(t, reassigned, 4)

	remaining, err := books.QueryByField(ctx, "series_id", "series-old")
	require.NoError(t, err)
	require.Empty(t, remaining)

	untouched, err := books.GetByID(ctx, "book-x")
	require.NoError(t, err)
	require.Equal(t, "series-other", untouched.SeriesID)
}

func TestHardDeleteBooks(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	books := s.Books(testUser)
	ctx := context.Background()

	require.NoError(t, books.Create(ctx, "book-1", newBook("book-1", "One")))
	require.NoError(t, books.Create(ctx, "book-2", newBook("book-2", "Two")))
	require.NoError(t, books.Create(ctx, "book-3", newBook("book-3", "Three")))

	require.NoError(t, s.HardDeleteBooks(ctx, testUser, []string{"book-1", "book-3"}))

	all, err := books.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "book-2", all[0].ID)
}
