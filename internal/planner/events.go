package planner

import "time"

type EventKind string

const (
	EventAdded        EventKind = "added"
	EventRemoved      EventKind = "removed"
	EventCleared      EventKind = "cleared"
	EventRejected     EventKind = "rejected"
	EventSubmitted    EventKind = "submitted"
	EventItemFailed   EventKind = "item_failed"
	EventSubmitFailed EventKind = "submit_failed"
	EventRefreshed    EventKind = "refreshed"
)

type Event struct {
	Kind      EventKind `json:"kind"`
	SectionID string    `json:"sectionId,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}
