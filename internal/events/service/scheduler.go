package service

import (
	"context"
	"fmt"
	"time"

	"stagedoor/internal/events/repository"
	"stagedoor/pkg/config"
	apperrors "stagedoor/pkg/errors"
	"stagedoor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

// Scheduler advances an event into scheduled as the reaction to its slot
// request being approved. The approval transaction calls Schedule with its
// session context, so the event write commits or rolls back with the slot
// request write. Schedule is also idempotent per slot request, which lets
// the reconciliation consumer replay approvals safely.
type Scheduler struct {
	repo   repository.EventRepository
	venues VenueSource
	cfg    *config.Config
}

func NewScheduler(repo repository.EventRepository, venues VenueSource, cfg *config.Config) *Scheduler {
	return &Scheduler{
		repo:   repo,
		venues: venues,
		cfg:    cfg,
	}
}

// Schedule sets the event's published range and derived instants and moves
// it to scheduled. This is the only path by which an event acquires a
// public time. It returns the updated event and the lifecycle it left.
func (s *Scheduler) Schedule(ctx context.Context, eventID, slotRequestID string, published model.TimeRange) (*model.Event, string, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return nil, "", mapLookupErr(err, eventID)
	}

	if event.Lifecycle == model.EventScheduled && event.SlotRequestID == slotRequestID {
		return event, event.Lifecycle, nil
	}

	eligible := []string{model.EventDraft, model.EventSubmitted, model.EventApproved}
	if !lifecycleIn(event.Lifecycle, eligible) {
		return nil, "", apperrors.InvalidTransition(
			fmt.Sprintf("Event in lifecycle %q cannot be scheduled", event.Lifecycle),
			map[string]any{"current_lifecycle": event.Lifecycle, "event_id": eventID},
		)
	}

	venue, err := s.venues.FindByID(ctx, event.VenueID)
	if err != nil {
		return nil, "", apperrors.Internal("Failed to resolve venue for scheduling", err)
	}

	loc := time.UTC
	if venue.TimeZone != "" {
		loc, err = time.LoadLocation(venue.TimeZone)
		if err != nil {
			return nil, "", apperrors.Internal("Venue has an unloadable timezone", err)
		}
	}

	startAt, endAt, err := published.Instants(loc)
	if err != nil {
		return nil, "", apperrors.InvalidRange(err.Error())
	}

	set := bson.M{
		"lifecycle":       model.EventScheduled,
		"slot_request_id": slotRequestID,
		"published_range": published,
		"start_at":        startAt,
		"end_at":          endAt,
	}
	updated, err := s.repo.UpdateLifecycle(ctx, eventID, eligible, event.Version, set)
	if err != nil {
		return nil, "", mapTransitionErr(err, eventID)
	}

	s.cfg.Log.Info("Event scheduled",
		"id", eventID,
		"slot_request_id", slotRequestID,
		"range", published.String(),
		"start_at", startAt,
	)
	return updated, event.Lifecycle, nil
}
