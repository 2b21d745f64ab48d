package validator

import (
	"testing"

	"stagedoor/pkg/logger"
	"stagedoor/pkg/model"
)

func newTestValidator() *VenueValidator {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewVenueValidator(log)
}

func validVenue() *model.Venue {
	return &model.Venue{
		Name:      "The Basement",
		City:      "tel aviv",
		Address:   "12 Allenby St",
		OpenTime:  "09:00",
		CloseTime: "23:00",
	}
}

func TestValidate_Venue(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		mutate  func(*model.Venue)
		wantErr bool
	}{
		{"valid", func(*model.Venue) {}, false},
		{"wraparound window", func(venue *model.Venue) {
			venue.OpenTime = "20:00"
			venue.CloseTime = "02:00"
		}, false},
		{"valid phone", func(venue *model.Venue) {
			venue.ContactPhone = "+972501234567"
		}, false},
		{"missing name", func(venue *model.Venue) {
			venue.Name = ""
		}, true},
		{"single char city", func(venue *model.Venue) {
			venue.City = "a"
		}, true},
		{"bad clock value", func(venue *model.Venue) {
			venue.OpenTime = "9am"
		}, true},
		{"out of range hour", func(venue *model.Venue) {
			venue.CloseTime = "24:00"
		}, true},
		{"equal open and close", func(venue *model.Venue) {
			venue.OpenTime = "10:00"
			venue.CloseTime = "10:00"
		}, true},
		{"bad timezone", func(venue *model.Venue) {
			venue.TimeZone = "Mars/Olympus"
		}, true},
		{"bad phone", func(venue *model.Venue) {
			venue.ContactPhone = "not-a-phone"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			venue := validVenue()
			tt.mutate(venue)
			err := v.Validate(venue)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()

	if err := v.ValidateUpdate(&model.VenueUpdate{Name: "New Name"}); err != nil {
		t.Errorf("unexpected error for partial update: %v", err)
	}

	if err := v.ValidateUpdate(&model.VenueUpdate{OpenTime: "10:00", CloseTime: "10:00"}); err == nil {
		t.Error("expected error for equal open and close times")
	}

	if err := v.ValidateUpdate(&model.VenueUpdate{TimeZone: "Nowhere/Here"}); err == nil {
		t.Error("expected error for invalid timezone")
	}
}

func TestValidateBlock(t *testing.T) {
	v := newTestValidator()
	venueID := "64f000000000000000000001"

	tests := []struct {
		name    string
		block   *model.VenueBlock
		wantErr bool
	}{
		{"full day", &model.VenueBlock{VenueID: venueID, Date: "2026-09-01", Reason: "Private event", FullDay: true}, false},
		{"partial", &model.VenueBlock{VenueID: venueID, Date: "2026-09-01", Reason: "Soundcheck", Start: "14:00", End: "17:00"}, false},
		{"partial wrapping midnight", &model.VenueBlock{VenueID: venueID, Date: "2026-09-01", Reason: "Late teardown", Start: "22:00", End: "01:00"}, false},
		{"partial without window", &model.VenueBlock{VenueID: venueID, Date: "2026-09-01", Reason: "Maintenance"}, true},
		{"zero length window", &model.VenueBlock{VenueID: venueID, Date: "2026-09-01", Reason: "Maintenance", Start: "14:00", End: "14:00"}, true},
		{"bad date", &model.VenueBlock{VenueID: venueID, Date: "09/01/2026", Reason: "Maintenance", FullDay: true}, true},
		{"missing reason", &model.VenueBlock{VenueID: venueID, Date: "2026-09-01", FullDay: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateBlock(tt.block)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
