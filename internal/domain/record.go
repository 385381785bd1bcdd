// Package domain defines the core entities of the Shelfmark catalogue.
package domain

import "time"

// Record provides common fields for entities persisted in a user's collections.
// It gets embedded in every stored document type. DeletedAt stays a nullable
// timestamp on the wire for compatibility; use Lifecycle for exhaustive
// state handling in code.
type Record struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	ID        string     `json:"id"`
}

// DocID returns the document identifier.
func (r *Record) DocID() string { return r.ID }

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the underlying entity changes.
func (r *Record) Touch() {
	r.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (r *Record) InitTimestamps() {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
}

// IsDeleted returns true if this entity sits in the bin.
func (r *Record) IsDeleted() bool {
	return r.DeletedAt != nil
}

// MarkDeleted moves the entity into the bin by setting DeletedAt to now.
// UpdatedAt is bumped so the deletion shows up in change listings.
func (r *Record) MarkDeleted() {
	now := time.Now()
	r.DeletedAt = &now
	r.UpdatedAt = now
}

// ClearDeleted takes the entity back out of the bin.
func (r *Record) ClearDeleted() {
	r.DeletedAt = nil
	r.UpdatedAt = time.Now()
}
