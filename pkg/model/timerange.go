package model

import (
	"fmt"
	"time"

	"stagedoor/pkg/interval"
)

// TimeRange is a venue-local calendar day plus a start/end time of day.
// When End is at or before Start the range crosses midnight into the
// following day. Times are never timezone-converted; the venue's own clock
// is the only clock. A TimeRange attached to a committed slot request is
// immutable.
type TimeRange struct {
	Date  string `json:"date" bson:"date" validate:"required,calendar_date"`
	Start string `json:"start" bson:"start" validate:"required,time_of_day"`
	End   string `json:"end" bson:"end" validate:"required,time_of_day"`
}

// Span normalizes the range onto the absolute minute timeline. Zero-length
// and malformed ranges error.
func (r TimeRange) Span() (interval.Span, error) {
	return interval.Normalize(r.Date, r.Start, r.End)
}

// CrossesMidnight reports whether the range spills into the next calendar day.
func (r TimeRange) CrossesMidnight() bool {
	return interval.CrossesMidnight(r.Start, r.End)
}

// Overlaps reports whether two ranges share any time on the absolute
// timeline. Malformed ranges never overlap anything; validation catches them
// before storage.
func (r TimeRange) Overlaps(o TimeRange) bool {
	a, err := r.Span()
	if err != nil {
		return false
	}
	b, err := o.Span()
	if err != nil {
		return false
	}
	return a.Overlaps(b)
}

// TouchesDate reports whether any part of the range falls on the given
// calendar day, including wraparound spillover into date+1.
func (r TimeRange) TouchesDate(date string) bool {
	span, err := r.Span()
	if err != nil {
		return false
	}
	day, err := interval.DaySpan(date)
	if err != nil {
		return false
	}
	return span.Overlaps(day)
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s %s-%s", r.Date, r.Start, r.End)
}

// Ref is the wire shape used when reporting a range inside conflict details.
func (r TimeRange) Ref() map[string]any {
	return map[string]any{
		"date":  r.Date,
		"start": r.Start,
		"end":   r.End,
	}
}

// Instants resolves the range to absolute start and end instants in the
// given location. The end instant lands on the following day for ranges
// that cross midnight.
func (r TimeRange) Instants(loc *time.Location) (time.Time, time.Time, error) {
	span, err := r.Span()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	day, err := time.ParseInLocation("2006-01-02", r.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	minutes := span.End - span.Start
	startMin, err := interval.ParseClock(r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	start := day.Add(time.Duration(startMin) * time.Minute)
	end := start.Add(time.Duration(minutes) * time.Minute)
	return start, end, nil
}
