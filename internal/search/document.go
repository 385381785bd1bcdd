// Package search implements full-text search over a user's catalogue with
// Bleve. Indexes are in-memory and per-user: they are rebuilt on demand from
// a complete book listing and dropped whenever the user's catalogue mutates,
// so a query never runs against a partial or stale view.
package search

import (
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// Document is the indexed form of a book.
type Document struct {
	ID       string
	Title    string
	Authors  string
	ISBN     string
	Notes    string
	SeriesID string
}

// FromBook converts a book into its indexed form.
func FromBook(b *domain.Book) *Document {
	return &Document{
		ID:       b.ID,
		Title:    b.Title,
		Authors:  strings.Join(b.Authors, " "),
		ISBN:     b.ISBN,
		Notes:    b.Notes,
		SeriesID: b.SeriesID,
	}
}

// ToMap converts the document to a map so field names match the index
// mapping (lowercase).
func (d *Document) ToMap() map[string]any {
	return map[string]any{
		"id":        d.ID,
		"title":     d.Title,
		"authors":   d.Authors,
		"isbn":      d.ISBN,
		"notes":     d.Notes,
		"series_id": d.SeriesID,
	}
}
