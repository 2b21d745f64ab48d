package model

import (
	"testing"
)

func TestTimeRange_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{
			name: "plain overlap",
			a:    TimeRange{Date: "2026-03-01", Start: "09:00", End: "12:00"},
			b:    TimeRange{Date: "2026-03-01", Start: "11:00", End: "14:00"},
			want: true,
		},
		{
			name: "wraparound reaches next day",
			a:    TimeRange{Date: "2026-03-01", Start: "23:00", End: "04:00"},
			b:    TimeRange{Date: "2026-03-02", Start: "02:00", End: "03:00"},
			want: true,
		},
		{
			name: "back to back",
			a:    TimeRange{Date: "2026-03-01", Start: "20:00", End: "23:00"},
			b:    TimeRange{Date: "2026-03-01", Start: "23:00", End: "01:00"},
			want: false,
		},
		{
			name: "different days",
			a:    TimeRange{Date: "2026-03-01", Start: "09:00", End: "17:00"},
			b:    TimeRange{Date: "2026-03-03", Start: "09:00", End: "17:00"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps() not symmetric")
			}
		})
	}
}

func TestTimeRange_TouchesDate(t *testing.T) {
	wrap := TimeRange{Date: "2026-03-01", Start: "23:00", End: "04:00"}

	if !wrap.TouchesDate("2026-03-01") {
		t.Errorf("range should touch its own date")
	}
	if !wrap.TouchesDate("2026-03-02") {
		t.Errorf("wraparound range should touch the following date")
	}
	if wrap.TouchesDate("2026-03-03") {
		t.Errorf("range should not touch a later date")
	}
}

func TestVenueBlock_Span(t *testing.T) {
	full := &VenueBlock{VenueID: "665f1c2ab1e3a4d5c6b7a890", Date: "2026-03-01", Reason: "maintenance", FullDay: true}
	span, err := full.Span()
	if err != nil {
		t.Fatalf("Span: %v", err)
	}
	if span.Minutes() != 1440 {
		t.Errorf("full-day block spans %d minutes, want 1440", span.Minutes())
	}

	partial := &VenueBlock{Date: "2026-03-01", Reason: "private hire", Start: "22:00", End: "02:00"}
	span, err = partial.Span()
	if err != nil {
		t.Fatalf("Span: %v", err)
	}
	if span.Minutes() != 240 {
		t.Errorf("22:00-02:00 block spans %d minutes, want 240", span.Minutes())
	}
	if !partial.TouchesDate("2026-03-02") {
		t.Errorf("overnight block should touch the next day")
	}
}

func TestSlotRequest_EffectiveRange(t *testing.T) {
	requested := TimeRange{Date: "2026-03-01", Start: "21:00", End: "23:59"}
	alternative := TimeRange{Date: "2026-03-02", Start: "21:00", End: "02:00"}

	sr := &SlotRequest{Status: SlotPending, RequestedRange: requested}
	if got := sr.EffectiveRange(); got != requested {
		t.Errorf("pending request should claim its requested range, got %v", got)
	}

	sr.Status = SlotCounterProposed
	sr.AlternativeRange = &alternative
	if got := sr.EffectiveRange(); got != alternative {
		t.Errorf("counter-proposed request should claim the alternative, got %v", got)
	}

	sr.Status = SlotApproved
	sr.ConfirmedRange = &alternative
	if got := sr.EffectiveRange(); got != alternative {
		t.Errorf("approved request should claim its confirmed range, got %v", got)
	}
}

func TestSlotStatusTerminal(t *testing.T) {
	for _, status := range []string{SlotApproved, SlotRejected} {
		if !SlotStatusTerminal(status) {
			t.Errorf("%s should be terminal", status)
		}
	}
	for _, status := range OpenSlotStatuses {
		if SlotStatusTerminal(status) {
			t.Errorf("%s should not be terminal", status)
		}
	}
}

func TestEventLifecycleHelpers(t *testing.T) {
	for _, lc := range []string{EventScheduled, EventLive, EventCompleted} {
		if !EventPubliclyVisible(lc) {
			t.Errorf("%s should be publicly visible", lc)
		}
	}
	for _, lc := range []string{EventDraft, EventSubmitted, EventApproved, EventCancelled} {
		if EventPubliclyVisible(lc) {
			t.Errorf("%s should not be publicly visible", lc)
		}
	}
	if !EventLifecycleFrozen(EventLocked) || !EventLifecycleFrozen(EventCompleted) {
		t.Errorf("completed and locked must be frozen")
	}
	if EventLifecycleFrozen(EventLive) {
		t.Errorf("live is not frozen")
	}
}
