// Package sse implements Server-Sent Events for pushing catalogue changes
// to connected clients.
package sse

import (
	"time"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventBookDeleted represents a book being moved to the bin.
	EventBookDeleted EventType = "book.deleted"
	// EventBookRestored represents a book coming back out of the bin.
	EventBookRestored EventType = "book.restored"
	// EventBookPurged represents a book being permanently deleted.
	EventBookPurged EventType = "book.purged"

	// EventSeriesMerged represents two series being merged into one.
	EventSeriesMerged EventType = "series.merged"

	// EventCountsReconciled represents a counter reconciliation sweep
	// that repaired drift.
	EventCountsReconciled EventType = "counts.reconciled"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct
// deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID routes the event to a single user's clients. Empty string
	// means broadcast to all.
	UserID string `json:"-"`
}

// BookDeletedEventData is the data payload for book.deleted events.
type BookDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	BookID    string    `json:"book_id"`
}

// BookRestoredEventData is the data payload for book.restored events.
type BookRestoredEventData struct {
	BookID         string `json:"book_id"`
	SeriesRestored bool   `json:"series_restored"`
}

// BookPurgedEventData is the data payload for book.purged events.
type BookPurgedEventData struct {
	BookID string `json:"book_id"`
}

// SeriesMergedEventData is the data payload for series.merged events.
type SeriesMergedEventData struct {
	SourceID     string `json:"source_id"`
	TargetID     string `json:"target_id"`
	BooksUpdated int    `json:"books_updated"`
}

// CountsReconciledEventData is the data payload for counts.reconciled events.
type CountsReconciledEventData struct {
	Kind    string `json:"kind"`
	Updated int    `json:"updated"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewBookDeletedEvent creates a book.deleted event.
func NewBookDeletedEvent(bookID string, deletedAt time.Time) Event {
	return Event{
		Type: EventBookDeleted,
		Data: BookDeletedEventData{
			BookID:    bookID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewBookRestoredEvent creates a book.restored event.
func NewBookRestoredEvent(bookID string, seriesRestored bool) Event {
	return Event{
		Type: EventBookRestored,
		Data: BookRestoredEventData{
			BookID:         bookID,
			SeriesRestored: seriesRestored,
		},
		Timestamp: time.Now(),
	}
}

// NewBookPurgedEvent creates a book.purged event.
func NewBookPurgedEvent(bookID string) Event {
	return Event{
		Type:      EventBookPurged,
		Data:      BookPurgedEventData{BookID: bookID},
		Timestamp: time.Now(),
	}
}

// NewSeriesMergedEvent creates a series.merged event.
func NewSeriesMergedEvent(sourceID, targetID string, booksUpdated int) Event {
	return Event{
		Type: EventSeriesMerged,
		Data: SeriesMergedEventData{
			SourceID:     sourceID,
			TargetID:     targetID,
			BooksUpdated: booksUpdated,
		},
		Timestamp: time.Now(),
	}
}

// NewCountsReconciledEvent creates a counts.reconciled event.
func NewCountsReconciledEvent(kind string, updated int) Event {
	return Event{
		Type: EventCountsReconciled,
		Data: CountsReconciledEventData{
			Kind:    kind,
			Updated: updated,
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
