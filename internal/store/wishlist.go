package store

import (
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// Wishlist returns the wishlist collection view for a user.
func (s *Store) Wishlist(userID string) *Collection[domain.WishlistItem] {
	return NewCollection[domain.WishlistItem](s, userID, ColWishlist).
		WithField("isbn", func(w *domain.WishlistItem) []string {
			if w.ISBN == "" {
				return nil
			}
			return []string{w.ISBN}
		}).
		WithSort("title", func(a, b *domain.WishlistItem) int {
			return strings.Compare(domain.NormalizeName(a.Title), domain.NormalizeName(b.Title))
		}).
		WithSort("created_at", func(a, b *domain.WishlistItem) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
}
