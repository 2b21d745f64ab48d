package types

import (
	"fmt"
	"strings"
)

// RequestSlotInput defines the input for opening a slot negotiation.
type RequestSlotInput struct {
	EventID string `json:"event_id" validate:"required,mongodb"`
	HostID  string `json:"host_id" validate:"required,min=1,max=64"`
	VenueID string `json:"venue_id" validate:"required,mongodb"`
	Date    string `json:"date" validate:"required,calendar_date"`
	Start   string `json:"start" validate:"required,time_of_day"`
	End     string `json:"end" validate:"required,time_of_day"`
	Notes   string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (i *RequestSlotInput) Validate() error {
	var errors []string

	if strings.TrimSpace(i.EventID) == "" {
		errors = append(errors, "event_id is required")
	}
	if strings.TrimSpace(i.HostID) == "" {
		errors = append(errors, "host_id is required")
	}
	if strings.TrimSpace(i.VenueID) == "" {
		errors = append(errors, "venue_id is required")
	}
	if strings.TrimSpace(i.Date) == "" {
		errors = append(errors, "date is required")
	}
	if strings.TrimSpace(i.Start) == "" {
		errors = append(errors, "start is required")
	}
	if strings.TrimSpace(i.End) == "" {
		errors = append(errors, "end is required")
	}
	if len(i.Notes) > 1000 {
		errors = append(errors, "notes cannot exceed 1000 characters")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// FromMapRequestSlot creates a RequestSlotInput from a map and validates it
func FromMapRequestSlot(input map[string]any) (*RequestSlotInput, error) {
	i := &RequestSlotInput{}

	if eventID, ok := input["event_id"].(string); ok {
		i.EventID = eventID
	}
	if hostID, ok := input["host_id"].(string); ok {
		i.HostID = hostID
	}
	if venueID, ok := input["venue_id"].(string); ok {
		i.VenueID = venueID
	}
	if date, ok := input["date"].(string); ok {
		i.Date = date
	}
	if start, ok := input["start"].(string); ok {
		i.Start = start
	}
	if end, ok := input["end"].(string); ok {
		i.End = end
	}
	if notes, ok := input["notes"].(string); ok {
		i.Notes = notes
	}

	if err := i.Validate(); err != nil {
		return nil, err
	}

	return i, nil
}
