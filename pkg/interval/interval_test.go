package interval

import (
	"testing"
)

func mustNormalize(t *testing.T, date, start, end string) Span {
	t.Helper()
	s, err := Normalize(date, start, end)
	if err != nil {
		t.Fatalf("Normalize(%s, %s, %s): %v", date, start, end, err)
	}
	return s
}

func TestOffsets(t *testing.T) {
	tests := []struct {
		name          string
		start, end    string
		wantStart     int
		wantEnd       int
		wantErr       bool
	}{
		{name: "same day", start: "09:00", end: "17:00", wantStart: 540, wantEnd: 1020},
		{name: "wraparound", start: "23:00", end: "04:00", wantStart: 1380, wantEnd: 1680},
		{name: "ends midnight", start: "22:00", end: "00:00", wantStart: 1320, wantEnd: 1440},
		{name: "bad clock", start: "25:00", end: "04:00", wantErr: true},
		{name: "bad format", start: "9am", end: "17:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, err := Offsets(tt.start, tt.end)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s-%s", tt.start, tt.end)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s != tt.wantStart || e != tt.wantEnd {
				t.Errorf("Offsets(%s, %s) = (%d, %d), want (%d, %d)",
					tt.start, tt.end, s, e, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestNormalize_ZeroLengthRejected(t *testing.T) {
	if _, err := Normalize("2026-03-01", "14:00", "14:00"); err == nil {
		t.Errorf("expected zero-length range to be rejected")
	}
}

func TestNormalize_BadDate(t *testing.T) {
	if _, err := Normalize("03/01/2026", "14:00", "15:00"); err == nil {
		t.Errorf("expected invalid date to be rejected")
	}
}

func TestOverlaps_Symmetry(t *testing.T) {
	ranges := []struct{ date, start, end string }{
		{"2026-03-01", "09:00", "12:00"},
		{"2026-03-01", "11:00", "14:00"},
		{"2026-03-01", "23:00", "04:00"},
		{"2026-03-02", "02:00", "03:00"},
		{"2026-03-02", "10:00", "11:00"},
		{"2026-02-28", "22:00", "01:30"},
	}

	for i, a := range ranges {
		for j, b := range ranges {
			spanA := mustNormalize(t, a.date, a.start, a.end)
			spanB := mustNormalize(t, b.date, b.start, b.end)
			if spanA.Overlaps(spanB) != spanB.Overlaps(spanA) {
				t.Errorf("overlap not symmetric for ranges %d and %d", i, j)
			}
		}
	}
}

func TestOverlaps_WraparoundIntoNextDay(t *testing.T) {
	// 23:00-04:00 on March 1st spills into March 2nd and must collide with
	// 02:00-03:00 on March 2nd.
	late := mustNormalize(t, "2026-03-01", "23:00", "04:00")
	early := mustNormalize(t, "2026-03-02", "02:00", "03:00")

	if !late.Overlaps(early) {
		t.Errorf("wraparound range should overlap next-day range")
	}
	if !early.Overlaps(late) {
		t.Errorf("overlap should hold in both directions")
	}
}

func TestOverlaps_BackToBack(t *testing.T) {
	// A range ending exactly when another starts does not overlap, even when
	// the second one wraps past midnight.
	first := mustNormalize(t, "2026-03-01", "20:00", "23:00")
	second := mustNormalize(t, "2026-03-01", "23:00", "01:00")

	if first.Overlaps(second) {
		t.Errorf("back-to-back ranges must not overlap")
	}
	if second.Overlaps(first) {
		t.Errorf("back-to-back ranges must not overlap (reversed)")
	}
}

func TestOverlaps_DifferentDaysDisjoint(t *testing.T) {
	a := mustNormalize(t, "2026-03-01", "09:00", "17:00")
	b := mustNormalize(t, "2026-03-02", "09:00", "17:00")

	if a.Overlaps(b) {
		t.Errorf("same clock times on different days must not overlap")
	}
}

func TestOverlaps_WraparoundTail(t *testing.T) {
	// The spillover tail (00:00-04:00 of March 2nd) must not collide with a
	// late March 2nd evening slot.
	late := mustNormalize(t, "2026-03-01", "23:00", "04:00")
	evening := mustNormalize(t, "2026-03-02", "19:00", "22:00")

	if late.Overlaps(evening) {
		t.Errorf("wraparound tail should not reach the next evening")
	}
}

func TestContains(t *testing.T) {
	day, err := DaySpan("2026-03-01")
	if err != nil {
		t.Fatalf("DaySpan: %v", err)
	}
	inner := mustNormalize(t, "2026-03-01", "09:00", "17:00")
	wrapping := mustNormalize(t, "2026-03-01", "23:00", "04:00")

	if !day.Contains(inner) {
		t.Errorf("day should contain an intraday range")
	}
	if day.Contains(wrapping) {
		t.Errorf("day should not contain a range spilling into the next day")
	}
}

func TestCrossesMidnight(t *testing.T) {
	if !CrossesMidnight("23:00", "04:00") {
		t.Errorf("23:00-04:00 crosses midnight")
	}
	if CrossesMidnight("09:00", "17:00") {
		t.Errorf("09:00-17:00 does not cross midnight")
	}
	if !CrossesMidnight("22:00", "00:00") {
		t.Errorf("a range ending at 00:00 wraps to the next day boundary")
	}
}

func TestDateHelpers(t *testing.T) {
	next, err := NextDate("2026-02-28")
	if err != nil {
		t.Fatalf("NextDate: %v", err)
	}
	if next != "2026-03-01" {
		t.Errorf("NextDate(2026-02-28) = %s, want 2026-03-01", next)
	}

	prev, err := PrevDate("2026-03-01")
	if err != nil {
		t.Fatalf("PrevDate: %v", err)
	}
	if prev != "2026-02-28" {
		t.Errorf("PrevDate(2026-03-01) = %s, want 2026-02-28", prev)
	}

	days, err := DaysBetween("2026-03-01", "2026-03-10")
	if err != nil {
		t.Fatalf("DaysBetween: %v", err)
	}
	if days != 9 {
		t.Errorf("DaysBetween = %d, want 9", days)
	}
}

func TestMinutes(t *testing.T) {
	s := mustNormalize(t, "2026-03-01", "23:00", "04:00")
	if s.Minutes() != 300 {
		t.Errorf("23:00-04:00 spans %d minutes, want 300", s.Minutes())
	}
}
