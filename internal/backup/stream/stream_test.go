package stream

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookLine struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Genres []string `json:"genres,omitempty"`
}

func writeArchive(t *testing.T, path string, books []bookLine) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	w, err := NewWriter(zw, "books.jsonl")
	require.NoError(t, err)
	for _, b := range books {
		require.NoError(t, w.Write(b))
	}
	assert.Equal(t, len(books), w.Count())

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestWriterReader_RoundTrip(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "catalogue.zip")
	books := []bookLine{
		{ID: "bk-1", Title: "Hyperion", Genres: []string{"g-sf"}},
		{ID: "bk-2", Title: "The Fall of Hyperion", Genres: []string{"g-sf"}},
		{ID: "bk-3", Title: "A Wizard of Earthsea"},
	}
	writeArchive(t, zipPath, books)

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	rc, err := OpenFile(zr, "books.jsonl")
	require.NoError(t, err)

	var got []bookLine
	for b, err := range NewReader[bookLine](rc).All() {
		require.NoError(t, err)
		got = append(got, b)
	}
	assert.Equal(t, books, got)
}

func TestOpenFile_MissingCollection(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "catalogue.zip")
	writeArchive(t, zipPath, []bookLine{{ID: "bk-1", Title: "Dune"}})

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	// An archive from before a collection existed simply lacks the file.
	_, err = OpenFile(zr, "wishlist.jsonl")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestReader_ContinuesOnParseError(t *testing.T) {
	jsonl := `{"id":"bk-1","title":"Hyperion"}
{corrupt line}
{"id":"bk-2","title":"Endymion"}
`
	rc := io.NopCloser(bytes.NewReader([]byte(jsonl)))

	var good []bookLine
	parseErrors := 0
	for b, err := range NewReader[bookLine](rc).All() {
		if err != nil {
			parseErrors++
			continue
		}
		good = append(good, b)
	}

	assert.Equal(t, 1, parseErrors)
	require.Len(t, good, 2)
	assert.Equal(t, "bk-1", good[0].ID)
	assert.Equal(t, "bk-2", good[1].ID)
}

func TestReader_SkipsBlankLines(t *testing.T) {
	jsonl := "{\"id\":\"bk-1\",\"title\":\"Dune\"}\n\n\n{\"id\":\"bk-2\",\"title\":\"Dune Messiah\"}\n"
	rc := io.NopCloser(bytes.NewReader([]byte(jsonl)))

	var got []bookLine
	for b, err := range NewReader[bookLine](rc).All() {
		require.NoError(t, err)
		got = append(got, b)
	}
	require.Len(t, got, 2)
}
