package domain

// Book represents a single owned book in a user's catalogue.
// Genres holds genre IDs (a book can sit in several genres); SeriesID is
// empty for standalone books. Images lists stored asset IDs and is only
// consulted for cascade delete when the book is purged from the bin.
type Book struct {
	Record
	Title          string   `json:"title"`
	Authors        []string `json:"authors,omitempty"`
	ISBN           string   `json:"isbn,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	SeriesID       string   `json:"series_id,omitempty"`
	SeriesPosition *int     `json:"series_position,omitempty"`
	Images         []string `json:"images,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	Rating         int      `json:"rating,omitempty"` // 0 = unrated, 1-5 stars
}

// HasGenre reports whether the book belongs to the given genre.
func (b *Book) HasGenre(genreID string) bool {
	for _, g := range b.Genres {
		if g == genreID {
			return true
		}
	}
	return false
}

// InSeries reports whether the book belongs to the given series.
func (b *Book) InSeries(seriesID string) bool {
	return seriesID != "" && b.SeriesID == seriesID
}
