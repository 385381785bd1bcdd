package domain

// ExpectedBook source values.
const (
	ExpectedSourceAPI    = "api"
	ExpectedSourceManual = "manual"
)

// ExpectedBook is a placeholder for a series entry the user does not own yet.
// It lives embedded in Series rather than as a first-class document.
type ExpectedBook struct {
	Title    string `json:"title"`
	ISBN     string `json:"isbn,omitempty"`
	Position *int   `json:"position,omitempty"`
	Source   string `json:"source"` // "api" or "manual"
}

// Series represents a sequence of related books.
// BookCount carries the same denormalized-counter invariant as Genre,
// scoped to active books whose SeriesID equals this series. A series can
// itself be soft-deleted when its last book is binned, so the pair can be
// restored together.
type Series struct {
	Record
	Name           string         `json:"name"`
	NormalizedName string         `json:"normalized_name"`
	Description    string         `json:"description,omitempty"`
	BookCount      int            `json:"book_count"`
	TotalBooks     *int           `json:"total_books,omitempty"` // Target length, nil if unknown
	ExpectedBooks  []ExpectedBook `json:"expected_books,omitempty"`
}
