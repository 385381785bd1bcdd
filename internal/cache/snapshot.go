package cache

import (
	"bytes"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// Snapshot is the persisted form of a user's cached book listing. It survives
// restarts so a warm process can serve the first listing without touching the
// store.
//
// Two formats exist on disk. The current one is an object:
//
//	{"books": [...], "timestamp": 1700000000000, "sort": "title", "hasMore": false}
//
// Older deployments wrote a bare array of books with no envelope. Those carry
// no completeness information, so they decode with HasMore=true and are never
// treated as complete.
type Snapshot struct {
	Books     []*domain.Book `json:"books"`
	Timestamp int64          `json:"timestamp"` // Unix milliseconds
	Sort      string         `json:"sort"`
	HasMore   bool           `json:"hasMore"`
}

// UnmarshalJSON accepts both the enveloped and the legacy bare-array formats.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var books []*domain.Book
		if err := json.Unmarshal(trimmed, &books); err != nil {
			return err
		}
		*s = Snapshot{Books: books, HasMore: true}
		return nil
	}

	type snapshot Snapshot // drop methods to avoid recursion
	var decoded snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = Snapshot(decoded)
	return nil
}

// Age returns how long ago the snapshot was written.
func (s *Snapshot) Age() time.Duration {
	if s.Timestamp == 0 {
		return time.Duration(1<<63 - 1)
	}
	return time.Since(time.UnixMilli(s.Timestamp))
}

func snapshotPath(dir, userID string) string {
	return filepath.Join(dir, userID+"-books.json")
}

// SaveSnapshot writes a user's book listing snapshot to dir.
func SaveSnapshot(dir, userID string, books []*domain.Book, sort string, hasMore bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}

	snap := Snapshot{
		Books:     books,
		Timestamp: time.Now().UnixMilli(),
		Sort:      sort,
		HasMore:   hasMore,
	}
	data, err := json.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	path := snapshotPath(dir, userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadSnapshot reads a user's book listing snapshot from dir. Returns
// (nil, nil) when no snapshot exists; a corrupt snapshot is discarded the
// same way rather than poisoning startup.
func LoadSnapshot(dir, userID string) (*Snapshot, error) {
	data, err := os.ReadFile(snapshotPath(dir, userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, nil
	}
	return &snap, nil
}

// DeleteSnapshot removes a user's persisted snapshot. Missing files are not
// an error.
func DeleteSnapshot(dir, userID string) error {
	err := os.Remove(snapshotPath(dir, userID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
