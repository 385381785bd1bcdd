package store

import (
	"context"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// Series returns the series collection view for a user.
func (s *Store) Series(userID string) *Collection[domain.Series] {
	return NewCollection[domain.Series](s, userID, ColSeries).
		WithField("normalized_name", func(sr *domain.Series) []string {
			return []string{sr.NormalizedName}
		}).
		WithSort("name", func(a, b *domain.Series) int {
			return strings.Compare(a.NormalizedName, b.NormalizedName)
		}).
		WithSort("book_count", func(a, b *domain.Series) int {
			return a.BookCount - b.BookCount
		})
}

// GetSeriesByNormalizedName looks up a series by its folded name among
// active (not soft-deleted) series. Returns ErrNotFound if no series matches.
func (s *Store) GetSeriesByNormalizedName(ctx context.Context, userID, normalized string) (*domain.Series, error) {
	matches, err := s.Series(userID).QueryByField(ctx, "normalized_name", normalized)
	if err != nil {
		return nil, err
	}
	for _, sr := range matches {
		if !sr.IsDeleted() {
			return sr, nil
		}
	}
	return nil, ErrNotFound
}
