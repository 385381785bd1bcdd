package cache_test

import (
	"encoding/json/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfmark/shelfmark-server/internal/cache"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	books := []*domain.Book{
		{Record: domain.Record{ID: "book-1"}, Title: "One"},
		{Record: domain.Record{ID: "book-2"}, Title: "Two"},
	}
	require.NoError(t, cache.SaveSnapshot(dir, "user-1", books, "title", false))

	snap, err := cache.LoadSnapshot(dir, "user-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Books, 2)
	require.Equal(t, "title", snap.Sort)
	require.False(t, snap.HasMore)
	require.NotZero(t, snap.Timestamp)
}

func TestSnapshot_MissingFileIsNil(t *testing.T) {
	snap, err := cache.LoadSnapshot(t.TempDir(), "user-1")
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestSnapshot_CorruptFileIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user-1-books.json"), []byte("{not json"), 0o644))

	snap, err := cache.LoadSnapshot(dir, "user-1")
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestSnapshot_LegacyBareArrayNeverComplete(t *testing.T) {
	legacy := []byte(`[{"id":"book-1","title":"One"},{"id":"book-2","title":"Two"}]`)

	var snap cache.Snapshot
	require.NoError(t, json.Unmarshal(legacy, &snap))
	require.Len(t, snap.Books, 2)
	require.Equal(t, "One", snap.Books[0].Title)
	require.True(t, snap.HasMore, "legacy snapshots carry no completeness information")
	require.Zero(t, snap.Timestamp)
}

func TestSnapshot_LegacyFileOnDisk(t *testing.T) {
	dir := t.TempDir()
	legacy := []byte(`[{"id":"book-1","title":"One"}]`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user-1-books.json"), legacy, 0o644))

	snap, err := cache.LoadSnapshot(dir, "user-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, snap.Books, 1)
	require.True(t, snap.HasMore)
}

func TestSnapshot_Delete(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, cache.SaveSnapshot(dir, "user-1", nil, "", false))

	require.NoError(t, cache.DeleteSnapshot(dir, "user-1"))
	require.NoError(t, cache.DeleteSnapshot(dir, "user-1"))

	snap, err := cache.LoadSnapshot(dir, "user-1")
	require.NoError(t, err)
	require.Nil(t, snap)
}
