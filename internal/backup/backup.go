// Package backup exports a user's catalogue to a zip archive and restores
// it again. Archives hold one JSONL file per collection plus a manifest,
// so partial reads and future format growth stay cheap.
package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"encoding/json/v2"

	"github.com/shelfmark/shelfmark-server/internal/backup/stream"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// FormatVersion is written to every manifest. Import rejects archives with
// a newer version than it understands.
const FormatVersion = 1

// Archive entry paths.
const (
	manifestPath = "manifest.json"
	booksPath    = "books.jsonl"
	genresPath   = "genres.jsonl"
	seriesPath   = "series.jsonl"
	wishlistPath = "wishlist.jsonl"
)

// ErrVersionTooNew indicates the archive was written by a newer server.
var ErrVersionTooNew = errors.New("archive format version is newer than this server supports")

// Manifest describes an archive's origin and contents.
type Manifest struct {
	Version    int       `json:"version"`
	UserID     string    `json:"user_id"`
	ExportedAt time.Time `json:"exported_at"`
	Counts     Counts    `json:"counts"`
}

// Counts holds per-collection document counts.
type Counts struct {
	Books    int `json:"books"`
	Genres   int `json:"genres"`
	Series   int `json:"series"`
	Wishlist int `json:"wishlist"`
}

// Total returns the number of documents across all collections.
func (c Counts) Total() int {
	return c.Books + c.Genres + c.Series + c.Wishlist
}

// ExportResult reports a completed export.
type ExportResult struct {
	Path     string        `json:"path"`
	Counts   Counts        `json:"counts"`
	Duration time.Duration `json:"duration"`
}

// ImportResult reports a completed import.
type ImportResult struct {
	Written Counts `json:"written"`
	Skipped int    `json:"skipped"`
}

// Service exports and imports per-user catalogue archives.
type Service struct {
	store     *store.Store
	backupDir string
	logger    *slog.Logger
}

// NewService creates a backup service writing archives under backupDir.
func NewService(st *store.Store, backupDir string, logger *slog.Logger) *Service {
	return &Service{
		store:     st,
		backupDir: backupDir,
		logger:    logger,
	}
}

// Export writes the user's full catalogue, binned documents included, to a
// zip archive. An empty outputPath picks a timestamped file in the backup
// directory.
func (s *Service) Export(ctx context.Context, userID, outputPath string) (*ExportResult, error) {
	start := time.Now()

	if outputPath == "" {
		if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
			return nil, fmt.Errorf("create backup dir: %w", err)
		}
		timestamp := time.Now().Format("2006-01-02-150405")
		outputPath = filepath.Join(s.backupDir, fmt.Sprintf("shelfmark-%s.zip", timestamp))
	}

	f, err := os.Create(outputPath) //#nosec G304 -- Output path comes from config or operator input
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	var counts Counts
	if counts.Books, err = exportCollection(ctx, zw, booksPath, s.store.Books(userID)); err != nil {
		return nil, err
	}
	if counts.Genres, err = exportCollection(ctx, zw, genresPath, s.store.Genres(userID)); err != nil {
		return nil, err
	}
	if counts.Series, err = exportCollection(ctx, zw, seriesPath, s.store.Series(userID)); err != nil {
		return nil, err
	}
	if counts.Wishlist, err = exportCollection(ctx, zw, wishlistPath, s.store.Wishlist(userID)); err != nil {
		return nil, err
	}

	manifest := Manifest{
		Version:    FormatVersion,
		UserID:     userID,
		ExportedAt: time.Now(),
		Counts:     counts,
	}
	mw, err := zw.Create(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	if err := json.MarshalWrite(mw, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}

	result := &ExportResult{
		Path:     outputPath,
		Counts:   counts,
		Duration: time.Since(start),
	}

	s.logger.Info("catalogue exported",
		"user_id", userID,
		"path", result.Path,
		"documents", counts.Total(),
		"duration", result.Duration,
	)

	return result, nil
}

// Import restores an archive into the user's catalogue. Existing documents
// are overwritten only when overwrite is set; otherwise they are skipped.
// Stored documents keep their archived timestamps either way.
//
// Denormalized book counts on imported genres and series reflect the source
// catalogue, so callers merging into a non-empty catalogue should run a
// counter reconcile afterwards.
func (s *Service) Import(ctx context.Context, userID, path string, overwrite bool) (*ImportResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	manifest, err := readManifest(zr)
	if err != nil {
		return nil, err
	}
	if manifest.Version > FormatVersion {
		return nil, ErrVersionTooNew
	}

	var result ImportResult
	if result.Written.Books, err = importCollection(ctx, zr, booksPath, s.store.Books(userID), overwrite, &result.Skipped); err != nil {
		return nil, err
	}
	if result.Written.Genres, err = importCollection(ctx, zr, genresPath, s.store.Genres(userID), overwrite, &result.Skipped); err != nil {
		return nil, err
	}
	if result.Written.Series, err = importCollection(ctx, zr, seriesPath, s.store.Series(userID), overwrite, &result.Skipped); err != nil {
		return nil, err
	}
	if result.Written.Wishlist, err = importCollection(ctx, zr, wishlistPath, s.store.Wishlist(userID), overwrite, &result.Skipped); err != nil {
		return nil, err
	}

	s.logger.Info("catalogue imported",
		"user_id", userID,
		"path", path,
		"written", result.Written.Total(),
		"skipped", result.Skipped,
	)

	return &result, nil
}

func readManifest(zr *zip.ReadCloser) (*Manifest, error) {
	rc, err := stream.OpenFile(zr, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	defer rc.Close()

	var manifest Manifest
	if err := json.UnmarshalRead(rc, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}

// document is the constraint shared by all archived types: everything that
// embeds domain.Record.
type document interface {
	DocID() string
}

func exportCollection[T any, PT interface {
	*T
	document
}](ctx context.Context, zw *zip.Writer, path string, col *store.Collection[T]) (int, error) {
	docs, err := col.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("export %s: %w", path, err)
	}

	w, err := stream.NewWriter(zw, path)
	if err != nil {
		return 0, fmt.Errorf("export %s: %w", path, err)
	}
	for _, doc := range docs {
		if err := w.Write(doc); err != nil {
			return 0, fmt.Errorf("export %s: %w", path, err)
		}
	}

	return w.Count(), nil
}

func importCollection[T any, PT interface {
	*T
	document
}](ctx context.Context, zr *zip.ReadCloser, path string, col *store.Collection[T], overwrite bool, skipped *int) (int, error) {
	rc, err := stream.OpenFile(zr, path)
	if errors.Is(err, stream.ErrFileNotFound) {
		// Older or partial archives may omit a collection.
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", path, err)
	}

	written := 0
	for doc, err := range stream.NewReader[T](rc).All() {
		if err != nil {
			return written, fmt.Errorf("import %s: %w", path, err)
		}

		id := PT(&doc).DocID()
		if id == "" {
			*skipped++
			continue
		}

		if !overwrite {
			if _, err := col.GetByID(ctx, id); err == nil {
				*skipped++
				continue
			} else if !errors.Is(err, store.ErrNotFound) {
				return written, fmt.Errorf("import %s: %w", path, err)
			}
		}

		if err := col.Put(ctx, id, &doc); err != nil {
			return written, fmt.Errorf("import %s: %w", path, err)
		}
		written++
	}

	return written, nil
}
