package model

// Day classifications produced by the calendar projection, in priority order.
// Past is a refinement of available for days preceding the query's "today".
const (
	DayBlocked   = "blocked"
	DayBooked    = "booked"
	DayMyRequest = "my_request"
	DayPartial   = "partial"
	DayAvailable = "available"
	DayPast      = "past"
)

// CalendarDay is one entry of the host-facing month view.
type CalendarDay struct {
	Date      string       `json:"date"`
	Status    string       `json:"status"`
	Reason    string       `json:"reason,omitempty"`
	MyRequest *SlotRequest `json:"my_request,omitempty"`
}

// Segment statuses for the single-day availability view.
const (
	SegmentOpen    = "open"
	SegmentBooked  = "booked"
	SegmentBlocked = "blocked"
)

// AvailabilitySegment is one contiguous stretch of a day's operable window.
type AvailabilitySegment struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}
