package model

import (
	"time"
)

type Venue struct {
	ID                   string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name                 string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	City                 string    `json:"city" bson:"city" validate:"required,min=2,max=50"`
	Address              string    `json:"address" bson:"address" validate:"required,min=2,max=200"`
	ContactPhone         string    `json:"contact_phone,omitempty" bson:"contact_phone" validate:"omitempty,e164"`
	TimeZone             string    `json:"time_zone,omitempty" bson:"time_zone" validate:"omitempty,timezone"`
	OpenTime             string    `json:"open_time" bson:"open_time" validate:"required,time_of_day"`
	CloseTime            string    `json:"close_time" bson:"close_time" validate:"required,time_of_day"`
	SlotApprovalRequired bool      `json:"slot_approval_required" bson:"slot_approval_required"`
	CreatedAt            time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// OperableWindow is the venue's bookable window for a given day. When
// CloseTime is at or before OpenTime the window wraps past midnight.
func (v *Venue) OperableWindow(date string) TimeRange {
	return TimeRange{Date: date, Start: v.OpenTime, End: v.CloseTime}
}

type VenueUpdate struct {
	Name                 string  `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	City                 string  `json:"city,omitempty" validate:"omitempty,min=2,max=50"`
	Address              string  `json:"address,omitempty" validate:"omitempty,min=2,max=200"`
	ContactPhone         string  `json:"contact_phone,omitempty" validate:"omitempty,e164"`
	TimeZone             string  `json:"time_zone,omitempty" validate:"omitempty,timezone"`
	OpenTime             string  `json:"open_time,omitempty" validate:"omitempty,time_of_day"`
	CloseTime            string  `json:"close_time,omitempty" validate:"omitempty,time_of_day"`
	SlotApprovalRequired *bool   `json:"slot_approval_required,omitempty"`
}
