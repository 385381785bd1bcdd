package domain

import "time"

// State is the lifecycle state of a binnable record.
// Purged records no longer exist in the store, so only two states are
// observable on a live document.
type State int

const (
	// StateActive means the record is visible in normal listings.
	StateActive State = iota
	// StateBinned means the record is soft-deleted and awaiting restore or purge.
	StateBinned
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateBinned:
		return "binned"
	default:
		return "unknown"
	}
}

// Lifecycle returns the tagged lifecycle state derived from DeletedAt.
func (r *Record) Lifecycle() State {
	if r.DeletedAt != nil {
		return StateBinned
	}
	return StateActive
}

// BinnedSince returns the time the record entered the bin, or the zero
// time if the record is active.
func (r *Record) BinnedSince() time.Time {
	if r.DeletedAt == nil {
		return time.Time{}
	}
	return *r.DeletedAt
}
