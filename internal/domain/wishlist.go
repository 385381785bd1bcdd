package domain

// WishlistItem represents a book the user wants but does not own yet.
// Acquiring an item converts it into a Book and removes it from the wishlist.
type WishlistItem struct {
	Record
	Title   string   `json:"title"`
	Authors []string `json:"authors,omitempty"`
	ISBN    string   `json:"isbn,omitempty"`
	Notes   string   `json:"notes,omitempty"`
}
