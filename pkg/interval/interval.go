// Package interval implements time-of-day range arithmetic for venue-local
// scheduling, including ranges that cross midnight into the following day.
//
// A range whose end is numerically at or before its start (e.g. 23:00-04:00)
// wraps into the next calendar day. Normalization is the single place this is
// handled: every other component works with absolute minute offsets on a
// shared timeline and never needs to reason about wraparound again.
//
// All comparisons are half-open: a range ending exactly when another starts
// does not overlap it, so back-to-back slots are legal.
package interval

import (
	"fmt"
	"time"
)

const (
	// MinutesPerDay is added to the end offset of a wraparound range.
	MinutesPerDay = 1440

	// DateLayout is the calendar-day format used across the platform.
	DateLayout = "2006-01-02"

	// ClockLayout is the time-of-day format used across the platform.
	ClockLayout = "15:04"
)

// Span is a normalized range on an absolute minute timeline. Start and End
// are minutes since the Unix epoch (UTC day arithmetic only; values are used
// for ordering and overlap checks, never converted back to instants).
// End is exclusive.
type Span struct {
	Start int64
	End   int64
}

// ParseDate parses a calendar day in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s", s, DateLayout)
	}
	return d, nil
}

// ParseClock parses a time of day in ClockLayout and returns minutes since
// midnight (0..1439).
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: expected %s", s, ClockLayout)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Offsets converts a start/end pair to minute offsets from midnight of the
// anchoring day. When end <= start the range is a wraparound and the end
// offset is shifted by MinutesPerDay, so the result is always endMin > startMin.
// Zero-length ranges are not representable: start == end means wraparound by
// exactly one day and is rejected by Normalize via the clock well-formedness
// rules below, where a full-day range must be expressed as a full-day block
// instead.
func Offsets(start, end string) (startMin, endMin int, err error) {
	startMin, err = ParseClock(start)
	if err != nil {
		return 0, 0, err
	}
	endMin, err = ParseClock(end)
	if err != nil {
		return 0, 0, err
	}
	if endMin <= startMin {
		endMin += MinutesPerDay
	}
	return startMin, endMin, nil
}

// Normalize anchors a venue-local (date, start, end) triple on the absolute
// minute timeline. A range with end <= start crosses midnight and spills into
// date+1. Equal start and end would denote a zero-length range; that is
// invalid input, not an empty interval.
func Normalize(date, start, end string) (Span, error) {
	if start == end {
		return Span{}, fmt.Errorf("zero-length range %s-%s on %s", start, end, date)
	}

	day, err := ParseDate(date)
	if err != nil {
		return Span{}, err
	}
	startMin, endMin, err := Offsets(start, end)
	if err != nil {
		return Span{}, err
	}

	base := day.Unix() / 60
	return Span{
		Start: base + int64(startMin),
		End:   base + int64(endMin),
	}, nil
}

// Overlaps reports whether two normalized spans share any time. Half-open:
// touching endpoints do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Contains reports whether s fully covers o.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Minutes returns the span length.
func (s Span) Minutes() int64 {
	return s.End - s.Start
}

// CrossesMidnight reports whether a start/end clock pair wraps into the next
// day. Malformed clocks report false; callers validate via Offsets first.
func CrossesMidnight(start, end string) bool {
	startMin, err := ParseClock(start)
	if err != nil {
		return false
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return false
	}
	return endMin <= startMin
}

// DaySpan returns the span covering the whole of the given calendar day.
func DaySpan(date string) (Span, error) {
	day, err := ParseDate(date)
	if err != nil {
		return Span{}, err
	}
	base := day.Unix() / 60
	return Span{Start: base, End: base + MinutesPerDay}, nil
}

// NextDate returns the calendar day following date.
func NextDate(date string) (string, error) {
	day, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return day.AddDate(0, 0, 1).Format(DateLayout), nil
}

// PrevDate returns the calendar day preceding date.
func PrevDate(date string) (string, error) {
	day, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return day.AddDate(0, 0, -1).Format(DateLayout), nil
}

// DaysBetween returns the number of days from a to b (negative when b < a).
func DaysBetween(a, b string) (int, error) {
	dayA, err := ParseDate(a)
	if err != nil {
		return 0, err
	}
	dayB, err := ParseDate(b)
	if err != nil {
		return 0, err
	}
	return int(dayB.Sub(dayA).Hours() / 24), nil
}
