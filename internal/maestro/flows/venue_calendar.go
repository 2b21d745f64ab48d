package flows

import (
	"fmt"
	"net/http"

	maestro "stagedoor/internal/maestro/core"
	"stagedoor/pkg/client"
	"stagedoor/pkg/model"
)

const (
	calendarVenueKey = "calendar_venue"
	calendarDaysKey  = "calendar_days"
)

// VenueCalendar resolves a venue and its day-by-day calendar for a date
// range. An optional host_id surfaces that host's own open requests.
func VenueCalendar() maestro.Flow {
	return maestro.NewFlow("venue_calendar",
		maestro.NewStep("resolve_venue", resolveCalendarVenue),
		maestro.NewStep("fetch_calendar", fetchCalendarDays),
		maestro.NewStep("organize_output", organizeCalendarOutput),
	)
}

func resolveCalendarVenue(ctx *maestro.MaestroContext) error {
	venueID := ctx.ExtractString("venue_id")
	if maestro.IsMissing(venueID) {
		return maestro.MissingParamErr("venue_id")
	}
	resp, err := ctx.Client.VenueClient.GetByID(venueID)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("venue lookup failed: %s", client.GetErrorMessage(resp))
	}
	venue, err := ctx.Client.VenueClient.DecodeVenue(resp)
	if err != nil {
		return err
	}
	ctx.Process[calendarVenueKey] = venue
	return nil
}

func fetchCalendarDays(ctx *maestro.MaestroContext) error {
	venue := ctx.Process[calendarVenueKey].(*model.Venue)
	fromDate := ctx.ExtractString("from")
	toDate := ctx.ExtractString("to")
	if maestro.IsMissing(fromDate) {
		return maestro.MissingParamErr("from")
	}
	if maestro.IsMissing(toDate) {
		return maestro.MissingParamErr("to")
	}

	resp, err := ctx.Client.SlotClient.GetCalendar(venue.ID, fromDate, toDate, ctx.ExtractString("host_id"))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calendar lookup failed: %s", client.GetErrorMessage(resp))
	}
	days, err := ctx.Client.SlotClient.DecodeCalendar(resp)
	if err != nil {
		return err
	}
	ctx.Process[calendarDaysKey] = days
	return nil
}

func organizeCalendarOutput(ctx *maestro.MaestroContext) error {
	venue := ctx.Process[calendarVenueKey].(*model.Venue)
	days := ctx.Process[calendarDaysKey].([]*model.CalendarDay)

	ctx.Output["venue"] = map[string]any{
		"id":         venue.ID,
		"name":       venue.Name,
		"city":       venue.City,
		"address":    venue.Address,
		"open_time":  venue.OpenTime,
		"close_time": venue.CloseTime,
	}
	ctx.Output["days"] = days
	return nil
}
