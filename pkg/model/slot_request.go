package model

import "time"

// SlotRequest statuses. A request is created pending; approved and rejected
// are terminal. counter_proposed and needs_changes always resolve back to
// pending, approved, or rejected through a host action.
const (
	SlotPending         = "pending"
	SlotApproved        = "approved"
	SlotRejected        = "rejected"
	SlotCounterProposed = "counter_proposed"
	SlotNeedsChanges    = "needs_changes"
)

// OpenSlotStatuses are the statuses in which a slot request still occupies
// its event's single negotiation seat.
var OpenSlotStatuses = []string{SlotPending, SlotCounterProposed, SlotNeedsChanges}

// SlotStatusTerminal reports whether a status ends the negotiation.
func SlotStatusTerminal(status string) bool {
	return status == SlotApproved || status == SlotRejected
}

// SlotRequest binds an event to a candidate time range at a venue and carries
// the negotiation between host and venue. RequestedRange is immutable once
// the request reaches a terminal status. Version backs the optimistic
// concurrency check on every transition.
type SlotRequest struct {
	ID               string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	EventID          string     `json:"event_id" bson:"event_id" validate:"required,mongodb"`
	HostID           string     `json:"host_id" bson:"host_id" validate:"required,min=1,max=64"`
	VenueID          string     `json:"venue_id" bson:"venue_id" validate:"required,mongodb"`
	RequestedRange   TimeRange  `json:"requested_range" bson:"requested_range" validate:"required"`
	Status           string     `json:"status" bson:"status" validate:"required,oneof=pending approved rejected counter_proposed needs_changes"`
	Notes            string     `json:"notes,omitempty" bson:"notes" validate:"omitempty,max=1000"`
	VenueResponse    string     `json:"venue_response,omitempty" bson:"venue_response" validate:"omitempty,max=1000"`
	AlternativeRange *TimeRange `json:"alternative_range,omitempty" bson:"alternative_range,omitempty"`
	ConfirmedRange   *TimeRange `json:"confirmed_range,omitempty" bson:"confirmed_range,omitempty"`
	Version          int64      `json:"version" bson:"version"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	RespondedAt      *time.Time `json:"responded_at,omitempty" bson:"responded_at,omitempty"`
}

// Open reports whether the request still occupies its event's negotiation seat.
func (s *SlotRequest) Open() bool {
	return !SlotStatusTerminal(s.Status)
}

// EffectiveRange is the range the request currently stakes a claim to: the
// confirmed range once approved, the venue's alternative while a counter is
// on the table, the host's requested range otherwise.
func (s *SlotRequest) EffectiveRange() TimeRange {
	if s.Status == SlotApproved && s.ConfirmedRange != nil {
		return *s.ConfirmedRange
	}
	if s.Status == SlotCounterProposed && s.AlternativeRange != nil {
		return *s.AlternativeRange
	}
	return s.RequestedRange
}

// Ref is the wire shape used when the request appears in conflict details.
func (s *SlotRequest) Ref() map[string]any {
	r := s.EffectiveRange()
	return map[string]any{
		"kind":     "slot_request",
		"id":       s.ID,
		"event_id": s.EventID,
		"host_id":  s.HostID,
		"date":     r.Date,
		"start":    r.Start,
		"end":      r.End,
	}
}
