package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	venueserrors "stagedoor/internal/venues/errors"
	"stagedoor/pkg/config"
	apperrors "stagedoor/pkg/errors"
	"stagedoor/pkg/interval"
	"stagedoor/pkg/model"
)

// VenueSource resolves the venue whose calendar is being projected.
type VenueSource interface {
	FindByID(ctx context.Context, id string) (*model.Venue, error)
}

// BlockSource loads venue blocks anchored on dates in [fromDate, toDate].
type BlockSource interface {
	FindByVenueAndDates(ctx context.Context, venueID string, fromDate string, toDate string) ([]*model.VenueBlock, error)
}

// SlotSource loads the committed and host-owned open slot requests the
// projection is derived from.
type SlotSource interface {
	FindApprovedByVenueAndDates(ctx context.Context, venueID string, fromDate, toDate string) ([]*model.SlotRequest, error)
	FindOpenByHostAndDates(ctx context.Context, venueID, hostID string, fromDate, toDate string) ([]*model.SlotRequest, error)
}

// CalendarService is a pure read-side projection over the authoritative
// block and slot request records. It never mutates state; the same inputs
// always produce the same classification. The "today" used for the past
// classification is a parameter, evaluated once per query by the caller.
type CalendarService interface {
	GetCalendar(ctx context.Context, venueID, fromDate, toDate, hostID, today string) ([]*model.CalendarDay, error)
	GetAvailability(ctx context.Context, venueID, date string) ([]*model.AvailabilitySegment, error)
}

type calendarService struct {
	venues VenueSource
	blocks BlockSource
	slots  SlotSource
	cfg    *config.Config
}

func NewCalendarService(venues VenueSource, blocks BlockSource, slots SlotSource, cfg *config.Config) CalendarService {
	return &calendarService{
		venues: venues,
		blocks: blocks,
		slots:  slots,
		cfg:    cfg,
	}
}

func (s *calendarService) GetCalendar(ctx context.Context, venueID, fromDate, toDate, hostID, today string) ([]*model.CalendarDay, error) {
	venue, err := s.loadVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}

	days, err := interval.DaysBetween(fromDate, toDate)
	if err != nil {
		return nil, apperrors.InvalidRange(err.Error())
	}
	if days < 0 {
		return nil, apperrors.InvalidRange("'to' date precedes 'from' date")
	}
	if days >= s.cfg.CalendarMaxDays {
		return nil, apperrors.InvalidRange(fmt.Sprintf("date range exceeds %d days", s.cfg.CalendarMaxDays))
	}
	if _, err := interval.ParseDate(today); err != nil {
		return nil, apperrors.InvalidRange(err.Error())
	}

	// Over-fetch one day back so wraparound records spilling into the first
	// day of the window are seen.
	scanFrom, err := interval.PrevDate(fromDate)
	if err != nil {
		return nil, apperrors.InvalidRange(err.Error())
	}

	blocks, err := s.blocks.FindByVenueAndDates(ctx, venueID, scanFrom, toDate)
	if err != nil {
		s.cfg.Log.Error("Failed to load venue blocks", "venue_id", venueID, "error", err)
		return nil, apperrors.Internal("Failed to load venue blocks", err)
	}

	approved, err := s.slots.FindApprovedByVenueAndDates(ctx, venueID, scanFrom, toDate)
	if err != nil {
		s.cfg.Log.Error("Failed to load approved slot requests", "venue_id", venueID, "error", err)
		return nil, apperrors.Internal("Failed to load approved slot requests", err)
	}

	var myRequests []*model.SlotRequest
	if hostID != "" {
		myRequests, err = s.slots.FindOpenByHostAndDates(ctx, venueID, hostID, scanFrom, toDate)
		if err != nil {
			s.cfg.Log.Error("Failed to load host slot requests", "venue_id", venueID, "host_id", hostID, "error", err)
			return nil, apperrors.Internal("Failed to load host slot requests", err)
		}
	}

	result := make([]*model.CalendarDay, 0, days+1)
	date := fromDate
	for i := 0; i <= days; i++ {
		day, err := s.classifyDay(venue, date, today, blocks, approved, myRequests)
		if err != nil {
			return nil, err
		}
		result = append(result, day)

		date, err = interval.NextDate(date)
		if err != nil {
			return nil, apperrors.InvalidRange(err.Error())
		}
	}

	return result, nil
}

// classifyDay applies the priority order: blocked > booked > my_request >
// partial > available/past. First match wins.
func (s *calendarService) classifyDay(venue *model.Venue, date, today string, blocks []*model.VenueBlock, approved, myRequests []*model.SlotRequest) (*model.CalendarDay, error) {
	window, err := venue.OperableWindow(date).Span()
	if err != nil {
		return nil, apperrors.Internal("Venue has a malformed operable window", err)
	}

	day := &model.CalendarDay{Date: date}

	var blockSpans, bookedSpans []interval.Span
	for _, block := range blocks {
		if !block.TouchesDate(date) {
			continue
		}
		if block.FullDay && block.Date == date {
			day.Status = model.DayBlocked
			day.Reason = block.Reason
			return day, nil
		}
		span, err := block.Span()
		if err != nil {
			continue
		}
		blockSpans = append(blockSpans, span)
		if day.Reason == "" {
			day.Reason = block.Reason
		}
	}

	for _, req := range approved {
		r := req.EffectiveRange()
		if !r.TouchesDate(date) {
			continue
		}
		span, err := r.Span()
		if err != nil {
			continue
		}
		bookedSpans = append(bookedSpans, span)
	}

	blockCover := coveredMinutes(window, blockSpans)
	bookedCover := coveredMinutes(window, bookedSpans)

	switch {
	case blockCover >= window.Minutes():
		day.Status = model.DayBlocked
		return day, nil
	case bookedCover >= window.Minutes():
		day.Status = model.DayBooked
		day.Reason = ""
		return day, nil
	}
	day.Reason = ""

	for _, req := range myRequests {
		if req.EffectiveRange().TouchesDate(date) {
			day.Status = model.DayMyRequest
			day.MyRequest = req
			return day, nil
		}
	}

	if blockCover > 0 || bookedCover > 0 {
		day.Status = model.DayPartial
		return day, nil
	}

	if date < today {
		day.Status = model.DayPast
	} else {
		day.Status = model.DayAvailable
	}
	return day, nil
}

func (s *calendarService) GetAvailability(ctx context.Context, venueID, date string) ([]*model.AvailabilitySegment, error) {
	venue, err := s.loadVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}

	window, err := venue.OperableWindow(date).Span()
	if err != nil {
		return nil, apperrors.InvalidRange(err.Error())
	}

	scanFrom, err := interval.PrevDate(date)
	if err != nil {
		return nil, apperrors.InvalidRange(err.Error())
	}
	scanTo, err := interval.NextDate(date)
	if err != nil {
		return nil, apperrors.InvalidRange(err.Error())
	}

	blocks, err := s.blocks.FindByVenueAndDates(ctx, venueID, scanFrom, scanTo)
	if err != nil {
		s.cfg.Log.Error("Failed to load venue blocks", "venue_id", venueID, "error", err)
		return nil, apperrors.Internal("Failed to load venue blocks", err)
	}

	approved, err := s.slots.FindApprovedByVenueAndDates(ctx, venueID, scanFrom, scanTo)
	if err != nil {
		s.cfg.Log.Error("Failed to load approved slot requests", "venue_id", venueID, "error", err)
		return nil, apperrors.Internal("Failed to load approved slot requests", err)
	}

	type occupancy struct {
		span   interval.Span
		status string
		reason string
	}

	var occupied []occupancy
	for _, block := range blocks {
		span, err := block.Span()
		if err != nil || !span.Overlaps(window) {
			continue
		}
		occupied = append(occupied, occupancy{span: clip(span, window), status: model.SegmentBlocked, reason: block.Reason})
	}
	for _, req := range approved {
		span, err := req.EffectiveRange().Span()
		if err != nil || !span.Overlaps(window) {
			continue
		}
		occupied = append(occupied, occupancy{span: clip(span, window), status: model.SegmentBooked})
	}

	// Elementary intervals between all boundaries; blocked wins where
	// records overlap, then adjacent same-status intervals are merged.
	points := []int64{window.Start, window.End}
	for _, o := range occupied {
		points = append(points, o.span.Start, o.span.End)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	var segments []*model.AvailabilitySegment
	for i := 0; i+1 < len(points); i++ {
		from, to := points[i], points[i+1]
		if from >= to {
			continue
		}

		status := model.SegmentOpen
		reason := ""
		for _, o := range occupied {
			if o.span.Start <= from && to <= o.span.End {
				if o.status == model.SegmentBlocked {
					status = model.SegmentBlocked
					reason = o.reason
					break
				}
				status = model.SegmentBooked
			}
		}

		last := len(segments) - 1
		if last >= 0 && segments[last].Status == status && segments[last].Reason == reason && segments[last].End == clockAt(from) {
			segments[last].End = clockAt(to)
			continue
		}
		segments = append(segments, &model.AvailabilitySegment{
			Start:  clockAt(from),
			End:    clockAt(to),
			Status: status,
			Reason: reason,
		})
	}

	return segments, nil
}

func (s *calendarService) loadVenue(ctx context.Context, venueID string) (*model.Venue, error) {
	if venueID == "" {
		return nil, apperrors.InvalidInput("Venue ID is required")
	}

	venue, err := s.venues.FindByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Venue", venueID)
		}
		if errors.Is(err, venueserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid venue ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve venue", err)
	}

	return venue, nil
}

// coveredMinutes sums the merged occupied minutes of spans clipped to the
// window.
func coveredMinutes(window interval.Span, spans []interval.Span) int64 {
	var clipped []interval.Span
	for _, span := range spans {
		if !span.Overlaps(window) {
			continue
		}
		clipped = append(clipped, clip(span, window))
	}
	if len(clipped) == 0 {
		return 0
	}

	sort.Slice(clipped, func(i, j int) bool { return clipped[i].Start < clipped[j].Start })

	var total int64
	cursor := clipped[0].Start
	for _, span := range clipped {
		if span.End <= cursor {
			continue
		}
		if span.Start > cursor {
			cursor = span.Start
		}
		total += span.End - cursor
		cursor = span.End
	}
	return total
}

func clip(span, window interval.Span) interval.Span {
	if span.Start < window.Start {
		span.Start = window.Start
	}
	if span.End > window.End {
		span.End = window.End
	}
	return span
}

// clockAt renders an absolute minute as a venue-local HH:MM. Minutes past
// midnight land on the following day's clock.
func clockAt(abs int64) string {
	minuteOfDay := ((abs % interval.MinutesPerDay) + interval.MinutesPerDay) % interval.MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}
