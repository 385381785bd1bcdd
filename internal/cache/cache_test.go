package cache_test

import (
	"testing"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/cache"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) *cache.Store {
	t.Helper()

	c, err := cache.New(cache.Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(c.Dispose)
	return c
}

func TestCache_SetAndGet(t *testing.T) {
	c := setupTestCache(t)

	c.Set("user-1", cache.KeyBooks, []string{"a", "b"}, "title", false)

	entry := c.Get("user-1", cache.KeyBooks)
	require.NotNil(t, entry)
	require.Equal(t, []string{"a", "b"}, entry.Items)
	require.Equal(t, "title", entry.SortKey)
	require.True(t, entry.Complete())
}

func TestCache_MissReturnsNil(t *testing.T) {
	c := setupTestCache(t)

	require.Nil(t, c.Get("user-1", cache.KeyBooks))
}

func TestCache_PartialEntryIsNotComplete(t *testing.T) {
	c := setupTestCache(t)

	c.Set("user-1", cache.KeyBooks, []string{"a"}, "title", true)

	entry := c.Get("user-1", cache.KeyBooks)
	require.NotNil(t, entry)
	require.False(t, entry.Complete())
}

func TestCache_NilEntryIsNotComplete(t *testing.T) {
	var entry *cache.Entry
	require.False(t, entry.Complete())
}

func TestCache_TTLExpiry(t *testing.T) {
	c := setupTestCache(t)

	c.SetWithTTL("user-1", cache.KeyWishlist, []string{"a"}, "", false, 20*time.Millisecond)
	require.NotNil(t, c.Get("user-1", cache.KeyWishlist))

	time.Sleep(50 * time.Millisecond)
	require.Nil(t, c.Get("user-1", cache.KeyWishlist))
}

func TestCache_InvalidateSingleKey(t *testing.T) {
	c := setupTestCache(t)

	c.Set("user-1", cache.KeyBooks, "books", "", false)
	c.Set("user-1", cache.KeyGenres, "genres", "", false)

	c.Invalidate("user-1", cache.KeyBooks)

	require.Nil(t, c.Get("user-1", cache.KeyBooks))
	require.NotNil(t, c.Get("user-1", cache.KeyGenres))
}

func TestCache_InvalidateUserDropsEverything(t *testing.T) {
	c := setupTestCache(t)

	c.Set("user-1", cache.KeyBooks, "books", "", false)
	c.Set("user-1", cache.KeyGenres, "genres", "", false)
	c.Set("user-1", cache.KeySeries, "series", "", false)
	c.Set("user-2", cache.KeyBooks, "other", "", false)

	c.InvalidateUser("user-1")

	require.Nil(t, c.Get("user-1", cache.KeyBooks))
	require.Nil(t, c.Get("user-1", cache.KeyGenres))
	require.Nil(t, c.Get("user-1", cache.KeySeries))
	require.NotNil(t, c.Get("user-2", cache.KeyBooks))
}

func TestCache_UserScoping(t *testing.T) {
	c := setupTestCache(t)

	c.Set("user-1", cache.KeyBooks, "mine", "", false)

	require.Nil(t, c.Get("user-2", cache.KeyBooks))
}

func TestCache_OverwriteReplacesEntry(t *testing.T) {
	c := setupTestCache(t)

	c.Set("user-1", cache.KeyBooks, "old", "title", true)
	c.Set("user-1", cache.KeyBooks, "new", "created_at", false)

	entry := c.Get("user-1", cache.KeyBooks)
	require.NotNil(t, entry)
	require.Equal(t, "new", entry.Items)
	require.Equal(t, "created_at", entry.SortKey)
	require.True(t, entry.Complete())
}

func bookItems(entry *cache.Entry) []*domain.Book {
	books, _ := entry.Items.([]*domain.Book)
	return books
}

func TestCache_TypedItemsRoundTrip(t *testing.T) {
	c := setupTestCache(t)

	books := []*domain.Book{
		{Record: domain.Record{ID: "book-1"}, Title: "One"},
		{Record: domain.Record{ID: "book-2"}, Title: "Two"},
	}
	c.Set("user-1", cache.KeyBooks, books, "title", false)

	entry := c.Get("user-1", cache.KeyBooks)
	require.NotNil(t, entry)
	require.Len(t, bookItems(entry), 2)
	require.Equal(t, "One", bookItems(entry)[0].Title)
}
