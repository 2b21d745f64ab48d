package model

import "time"

// Event lifecycle states. An event enters scheduled, live or completed only
// with a confirmed slot: either through slot negotiation or, for venues that
// skip negotiation, through direct content approval. Locked is terminal and
// immutable. Pausing halts sales without changing lifecycle, so it is a flag
// on the event rather than a state.
const (
	EventDraft     = "draft"
	EventSubmitted = "submitted"
	EventApproved  = "approved"
	EventScheduled = "scheduled"
	EventLive      = "live"
	EventCompleted = "completed"
	EventCancelled = "cancelled"
	EventLocked    = "locked"
)

// EventLifecycleFrozen reports whether the lifecycle admits no further
// non-administrative changes.
func EventLifecycleFrozen(lifecycle string) bool {
	return lifecycle == EventCompleted || lifecycle == EventLocked
}

// EventPubliclyVisible reports whether the lifecycle implies a confirmed,
// published time slot.
func EventPubliclyVisible(lifecycle string) bool {
	return lifecycle == EventScheduled || lifecycle == EventLive || lifecycle == EventCompleted
}

// Event is the host-owned aggregate whose publication lifecycle tracks the
// outcome of slot negotiation. PublishedRange and the derived StartAt/EndAt
// instants are set exactly once, when a slot request is approved (or on
// direct approval for venues without slot negotiation).
type Event struct {
	ID             string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	HostID         string     `json:"host_id" bson:"host_id" validate:"required,min=1,max=64"`
	VenueID        string     `json:"venue_id" bson:"venue_id" validate:"required,mongodb"`
	Title          string     `json:"title" bson:"title" validate:"required,min=2,max=150"`
	Description    string     `json:"description,omitempty" bson:"description" validate:"omitempty,max=5000"`
	Lifecycle      string     `json:"lifecycle" bson:"lifecycle" validate:"required,oneof=draft submitted approved scheduled live completed cancelled locked"`
	SlotRequestID  string     `json:"slot_request_id,omitempty" bson:"slot_request_id" validate:"omitempty,mongodb"`
	PublishedRange *TimeRange `json:"published_range,omitempty" bson:"published_range,omitempty"`
	StartAt        *time.Time `json:"start_at,omitempty" bson:"start_at,omitempty"`
	EndAt          *time.Time `json:"end_at,omitempty" bson:"end_at,omitempty"`
	Paused         bool       `json:"paused" bson:"paused"`
	Version        int64      `json:"version" bson:"version"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type EventUpdate struct {
	Title       string `json:"title,omitempty" validate:"omitempty,min=2,max=150"`
	Description string `json:"description,omitempty" validate:"omitempty,max=5000"`
}
