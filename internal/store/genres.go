package store

import (
	"context"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// Genres returns the genre collection view for a user.
func (s *Store) Genres(userID string) *Collection[domain.Genre] {
	return NewCollection[domain.Genre](s, userID, ColGenres).
		WithField("normalized_name", func(g *domain.Genre) []string {
			return []string{g.NormalizedName}
		}).
		WithSort("name", func(a, b *domain.Genre) int {
			return strings.Compare(a.NormalizedName, b.NormalizedName)
		}).
		WithSort("book_count", func(a, b *domain.Genre) int {
			return a.BookCount - b.BookCount
		})
}

// GetGenreByNormalizedName looks up a genre by its folded name.
// Returns ErrNotFound if no genre matches.
func (s *Store) GetGenreByNormalizedName(ctx context.Context, userID, normalized string) (*domain.Genre, error) {
	matches, err := s.Genres(userID).QueryByField(ctx, "normalized_name", normalized)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	return matches[0], nil
}
