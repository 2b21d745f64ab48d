package model

import (
	"time"

	"stagedoor/pkg/interval"
)

// VenueBlock is venue-authored unavailability: hard, independent of any host
// request. A full-day block covers the whole calendar day; otherwise Start
// and End carve out a window (possibly wrapping past midnight).
type VenueBlock struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VenueID   string    `json:"venue_id" bson:"venue_id" validate:"required,mongodb"`
	Date      string    `json:"date" bson:"date" validate:"required,calendar_date"`
	Reason    string    `json:"reason" bson:"reason" validate:"required,min=2,max=200"`
	FullDay   bool      `json:"full_day" bson:"full_day"`
	Start     string    `json:"start,omitempty" bson:"start,omitempty" validate:"required_if=FullDay false,omitempty,time_of_day"`
	End       string    `json:"end,omitempty" bson:"end,omitempty" validate:"required_if=FullDay false,omitempty,time_of_day"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Span returns the blocked window on the absolute timeline. Full-day blocks
// cover midnight to midnight of the block's date.
func (b *VenueBlock) Span() (interval.Span, error) {
	if b.FullDay {
		return interval.DaySpan(b.Date)
	}
	return interval.Normalize(b.Date, b.Start, b.End)
}

// TouchesDate reports whether the block affects the given calendar day,
// including partial blocks that wrap into it from the prior evening.
func (b *VenueBlock) TouchesDate(date string) bool {
	if b.Date == date {
		return true
	}
	span, err := b.Span()
	if err != nil {
		return false
	}
	day, err := interval.DaySpan(date)
	if err != nil {
		return false
	}
	return span.Overlaps(day)
}

// Ref is the wire shape used when the block appears in conflict details.
func (b *VenueBlock) Ref() map[string]any {
	ref := map[string]any{
		"kind":     "venue_block",
		"id":       b.ID,
		"date":     b.Date,
		"reason":   b.Reason,
		"full_day": b.FullDay,
	}
	if !b.FullDay {
		ref["start"] = b.Start
		ref["end"] = b.End
	}
	return ref
}
