package conflict

import (
	"context"
	"testing"

	apperrors "stagedoor/pkg/errors"
	"stagedoor/pkg/logger"
	"stagedoor/pkg/model"
)

type stubBlockSource struct {
	blocks []*model.VenueBlock
}

func (s *stubBlockSource) FindByVenueAndDates(ctx context.Context, venueID, fromDate, toDate string) ([]*model.VenueBlock, error) {
	return s.blocks, nil
}

type stubApprovedSource struct {
	approved []*model.SlotRequest
}

func (s *stubApprovedSource) FindApprovedByVenueAndDates(ctx context.Context, venueID, fromDate, toDate string) ([]*model.SlotRequest, error) {
	return s.approved, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "info", Format: logger.JSON, Service: "test"})
}

func approvedAt(date, start, end string) *model.SlotRequest {
	confirmed := model.TimeRange{Date: date, Start: start, End: end}
	return &model.SlotRequest{
		ID:             "665f1f77bcf86cd799439031",
		EventID:        "665f1f77bcf86cd799439011",
		HostID:         "host-3",
		VenueID:        "665f1f77bcf86cd799439001",
		RequestedRange: confirmed,
		ConfirmedRange: &confirmed,
		Status:         model.SlotApproved,
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		candidate model.TimeRange
		blocks    []*model.VenueBlock
		approved  []*model.SlotRequest
		want      string
		conflicts int
	}{
		{
			name:      "empty day is clear",
			candidate: model.TimeRange{Date: "2026-09-12", Start: "20:00", End: "23:00"},
			want:      Clear,
		},
		{
			name:      "adjacent booking is clear",
			candidate: model.TimeRange{Date: "2026-09-12", Start: "20:00", End: "23:00"},
			approved:  []*model.SlotRequest{approvedAt("2026-09-12", "17:00", "20:00")},
			want:      Clear,
		},
		{
			name:      "overlapping booking double books",
			candidate: model.TimeRange{Date: "2026-09-12", Start: "20:00", End: "23:00"},
			approved:  []*model.SlotRequest{approvedAt("2026-09-12", "22:00", "23:30")},
			want:      DoubleBooked,
			conflicts: 1,
		},
		{
			name:      "overlapping block hard blocks",
			candidate: model.TimeRange{Date: "2026-09-12", Start: "20:00", End: "23:00"},
			blocks: []*model.VenueBlock{
				{ID: "665f1f77bcf86cd799439041", Date: "2026-09-12", Reason: "maintenance", Start: "21:00", End: "22:00"},
			},
			want:      HardBlock,
			conflicts: 1,
		},
		{
			name:      "full day block hard blocks",
			candidate: model.TimeRange{Date: "2026-09-12", Start: "20:00", End: "23:00"},
			blocks: []*model.VenueBlock{
				{ID: "665f1f77bcf86cd799439041", Date: "2026-09-12", Reason: "private event", FullDay: true},
			},
			want:      HardBlock,
			conflicts: 1,
		},
		{
			name:      "block outranks booking",
			candidate: model.TimeRange{Date: "2026-09-12", Start: "20:00", End: "23:00"},
			blocks: []*model.VenueBlock{
				{ID: "665f1f77bcf86cd799439041", Date: "2026-09-12", Reason: "maintenance", Start: "21:00", End: "22:00"},
			},
			approved:  []*model.SlotRequest{approvedAt("2026-09-12", "22:00", "23:30")},
			want:      HardBlock,
			conflicts: 2,
		},
		{
			name:      "wraparound candidate catches next morning booking",
			candidate: model.TimeRange{Date: "2026-09-12", Start: "22:00", End: "02:00"},
			approved:  []*model.SlotRequest{approvedAt("2026-09-13", "01:00", "03:00")},
			want:      DoubleBooked,
			conflicts: 1,
		},
		{
			name:      "previous night wraparound catches early candidate",
			candidate: model.TimeRange{Date: "2026-09-13", Start: "01:00", End: "03:00"},
			approved:  []*model.SlotRequest{approvedAt("2026-09-12", "22:00", "02:00")},
			want:      DoubleBooked,
			conflicts: 1,
		},
		{
			name:      "wraparound meeting at midnight is clear",
			candidate: model.TimeRange{Date: "2026-09-13", Start: "02:00", End: "04:00"},
			approved:  []*model.SlotRequest{approvedAt("2026-09-12", "22:00", "02:00")},
			want:      Clear,
		},
		{
			name:      "wraparound block spills into next day",
			candidate: model.TimeRange{Date: "2026-09-13", Start: "00:30", End: "02:00"},
			blocks: []*model.VenueBlock{
				{ID: "665f1f77bcf86cd799439041", Date: "2026-09-12", Reason: "cleanup", Start: "23:00", End: "01:00"},
			},
			want:      HardBlock,
			conflicts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(&stubBlockSource{blocks: tt.blocks}, &stubApprovedSource{approved: tt.approved}, testLogger())

			result, err := d.Detect(context.Background(), "665f1f77bcf86cd799439001", tt.candidate)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Classification != tt.want {
				t.Errorf("expected classification %q, got %q", tt.want, result.Classification)
			}
			if len(result.Conflicts) != tt.conflicts {
				t.Errorf("expected %d conflicts, got %d: %v", tt.conflicts, len(result.Conflicts), result.Conflicts)
			}
		})
	}
}

func TestDetect_ZeroLengthCandidate(t *testing.T) {
	d := NewDetector(&stubBlockSource{}, &stubApprovedSource{}, testLogger())

	_, err := d.Detect(context.Background(), "665f1f77bcf86cd799439001", model.TimeRange{
		Date: "2026-09-12", Start: "20:00", End: "20:00",
	})
	if !apperrors.IsCode(err, apperrors.CodeInvalidRange) {
		t.Fatalf("expected invalid range error, got %v", err)
	}
}

func TestDetect_SkipsMalformedRecords(t *testing.T) {
	d := NewDetector(
		&stubBlockSource{blocks: []*model.VenueBlock{
			{ID: "665f1f77bcf86cd799439041", Date: "not-a-date", Reason: "broken", Start: "21:00", End: "22:00"},
		}},
		&stubApprovedSource{},
		testLogger(),
	)

	result, err := d.Detect(context.Background(), "665f1f77bcf86cd799439001", model.TimeRange{
		Date: "2026-09-12", Start: "20:00", End: "23:00",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Clear() {
		t.Errorf("expected clear result, got %q", result.Classification)
	}
}
