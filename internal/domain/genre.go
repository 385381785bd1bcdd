package domain

// Genre represents a user-defined category for classifying books.
// BookCount is a denormalized counter over active books whose Genres set
// contains this genre. It is eventually consistent: counter updates ride
// along with book mutations and a reconcile sweep repairs any drift.
type Genre struct {
	Record
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"` // Case/space-folded for dedup
	Description    string `json:"description,omitempty"`
	Color          string `json:"color,omitempty"` // Hex color for UI badges
	BookCount      int    `json:"book_count"`
}
