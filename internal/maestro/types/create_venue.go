package types

import (
	"fmt"
	"strings"
)

// CreateVenueInput defines the input for creating a venue together with an
// initial set of full-day blocks.
type CreateVenueInput struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	City         string `json:"city" validate:"required,min=2,max=50"`
	Address      string `json:"address" validate:"required,min=2,max=200"`
	ContactPhone string `json:"contact_phone,omitempty" validate:"omitempty,e164"`
	TimeZone     string `json:"time_zone,omitempty" validate:"omitempty,timezone"`
	OpenTime     string `json:"open_time,omitempty" validate:"omitempty,time_of_day"`
	CloseTime    string `json:"close_time,omitempty" validate:"omitempty,time_of_day"`

	SlotApprovalRequired *bool `json:"slot_approval_required,omitempty"`

	// Dates the venue is closed from day one, created as full-day blocks.
	ClosedDates []ClosedDate `json:"closed_dates,omitempty" validate:"omitempty,max=31,dive"`
}

type ClosedDate struct {
	Date   string `json:"date" validate:"required,calendar_date"`
	Reason string `json:"reason" validate:"required,min=2,max=200"`
}

func (i *CreateVenueInput) Validate() error {
	var errors []string

	if strings.TrimSpace(i.Name) == "" {
		errors = append(errors, "name is required")
	} else if len(i.Name) < 2 || len(i.Name) > 100 {
		errors = append(errors, "name must be between 2 and 100 characters")
	}

	if strings.TrimSpace(i.City) == "" {
		errors = append(errors, "city is required")
	}

	if strings.TrimSpace(i.Address) == "" {
		errors = append(errors, "address is required")
	}

	if len(i.ClosedDates) > 31 {
		errors = append(errors, "closed_dates cannot have more than 31 items")
	}
	for _, cd := range i.ClosedDates {
		if strings.TrimSpace(cd.Date) == "" {
			errors = append(errors, "closed_dates entries require a date")
			break
		}
		if strings.TrimSpace(cd.Reason) == "" {
			errors = append(errors, "closed_dates entries require a reason")
			break
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// FromMapCreateVenue creates a CreateVenueInput from a map and validates it
func FromMapCreateVenue(input map[string]any) (*CreateVenueInput, error) {
	i := &CreateVenueInput{}

	if name, ok := input["name"].(string); ok {
		i.Name = name
	}
	if city, ok := input["city"].(string); ok {
		i.City = city
	}
	if address, ok := input["address"].(string); ok {
		i.Address = address
	}
	if phone, ok := input["contact_phone"].(string); ok {
		i.ContactPhone = phone
	}
	if tz, ok := input["time_zone"].(string); ok {
		i.TimeZone = tz
	}
	if open, ok := input["open_time"].(string); ok {
		i.OpenTime = open
	}
	if closeTime, ok := input["close_time"].(string); ok {
		i.CloseTime = closeTime
	}
	if approval, ok := input["slot_approval_required"].(bool); ok {
		i.SlotApprovalRequired = &approval
	}

	if closedAny, ok := input["closed_dates"].([]any); ok {
		i.ClosedDates = make([]ClosedDate, 0, len(closedAny))
		for _, entry := range closedAny {
			entryMap, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			cd := ClosedDate{}
			if date, ok := entryMap["date"].(string); ok {
				cd.Date = date
			}
			if reason, ok := entryMap["reason"].(string); ok {
				cd.Reason = reason
			}
			i.ClosedDates = append(i.ClosedDates, cd)
		}
	}

	if err := i.Validate(); err != nil {
		return nil, err
	}

	return i, nil
}
