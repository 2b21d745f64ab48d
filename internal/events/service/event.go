package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	eventserrors "stagedoor/internal/events/errors"
	"stagedoor/internal/events/repository"
	"stagedoor/internal/events/validator"
	venueserrors "stagedoor/internal/venues/errors"
	"stagedoor/pkg/config"
	apperrors "stagedoor/pkg/errors"
	"stagedoor/pkg/kafka"
	"stagedoor/pkg/model"
	"stagedoor/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/bson"
)

// VenueSource resolves the venue an event belongs to, for the negotiation
// flag and the timezone used to derive absolute instants.
type VenueSource interface {
	FindByID(ctx context.Context, id string) (*model.Venue, error)
}

type EventService interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Search(ctx context.Context, hostID, venueID, lifecycle string, limit int, offset int64) ([]*model.Event, int64, error)
	Update(ctx context.Context, id string, updates *model.EventUpdate) error
	Transition(ctx context.Context, id string, t *model.EventTransition) (*model.Event, error)
}

type eventService struct {
	repo      repository.EventRepository
	venues    VenueSource
	validator *validator.EventValidator
	publisher *kafka.Publisher
	cfg       *config.Config
}

func NewEventService(
	repo repository.EventRepository,
	venues VenueSource,
	validator *validator.EventValidator,
	publisher *kafka.Publisher,
	cfg *config.Config,
) EventService {
	return &eventService{
		repo:      repo,
		venues:    venues,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *eventService) Create(ctx context.Context, event *model.Event) error {
	event.Lifecycle = model.EventDraft
	event.Version = 0
	event.Paused = false
	event.SlotRequestID = ""
	event.PublishedRange = nil
	event.StartAt = nil
	event.EndAt = nil
	s.sanitize(event)

	if err := s.validator.Validate(event); err != nil {
		s.cfg.Log.Warn("Event validation failed", "error", err)
		return apperrors.Validation("Event validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.loadVenue(ctx, event.VenueID); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to create event", "error", err)
		return apperrors.Internal("Failed to create event", err)
	}

	s.cfg.Log.Info("Event created",
		"id", event.ID,
		"host_id", event.HostID,
		"venue_id", event.VenueID,
		"title", event.Title,
	)
	return nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, id)
	}

	return event, nil
}

func (s *eventService) Search(ctx context.Context, hostID, venueID, lifecycle string, limit int, offset int64) ([]*model.Event, int64, error) {
	var count int64
	var events []*model.Event
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountBySearch(ctx, hostID, venueID, lifecycle)
		if err != nil {
			s.cfg.Log.Error("Failed to count events", "error", err)
			errCount = apperrors.Internal("Failed to count events", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		events, err = s.repo.Search(ctx, hostID, venueID, lifecycle, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search events", "error", err)
			errFind = apperrors.Internal("Failed to search events", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return events, count, nil
}

// Update edits presentation content only. Frozen events are immutable
// except through administrative override, which is out of scope here.
func (s *eventService) Update(ctx context.Context, id string, updates *model.EventUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Event ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapLookupErr(err, id)
	}
	if model.EventLifecycleFrozen(existing.Lifecycle) {
		return apperrors.InvalidTransition(
			fmt.Sprintf("Event in lifecycle %q is immutable", existing.Lifecycle),
			map[string]any{"lifecycle": existing.Lifecycle},
		)
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Event update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	set := bson.M{}
	if updates.Title != "" {
		set["title"] = sanitizer.NormalizeTitle(updates.Title)
	}
	if updates.Description != "" {
		set["description"] = sanitizer.NormalizeNotes(updates.Description)
	}
	if len(set) == 0 {
		return apperrors.InvalidInput("No fields to update")
	}

	if _, err := s.repo.UpdateContent(ctx, id, set); err != nil {
		if errors.Is(err, eventserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Event", id)
		}
		s.cfg.Log.Error("Failed to update event", "id", id, "error", err)
		return apperrors.Internal("Failed to update event", err)
	}

	s.cfg.Log.Info("Event updated", "id", id)
	return nil
}

// Transition handles the explicit actor-driven lifecycle actions. The
// scheduled, live and completed moves never pass through here: scheduled
// is the scheduler's reaction to slot approval, live and completed belong
// to the time-based sweep.
func (s *eventService) Transition(ctx context.Context, id string, t *model.EventTransition) (*model.Event, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}
	if err := s.validator.ValidateTransition(t); err != nil {
		s.cfg.Log.Warn("Event transition validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid transition payload", map[string]any{"error": err.Error()})
	}
	t.Reason = sanitizer.NormalizeNotes(t.Reason)

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, id)
	}

	switch t.Action {
	case model.EventActionSubmit:
		return s.submit(ctx, current, t)
	case model.EventActionApprove:
		return s.approve(ctx, current, t)
	case model.EventActionDeny:
		return s.deny(ctx, current, t)
	case model.EventActionCancel:
		return s.cancel(ctx, current, t)
	case model.EventActionPause:
		return s.setPaused(ctx, current, t, true)
	case model.EventActionResume:
		return s.setPaused(ctx, current, t, false)
	case model.EventActionLock:
		return s.lock(ctx, current, t)
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown action: %s", t.Action))
	}
}

// --- Transitions ---

func (s *eventService) submit(ctx context.Context, current *model.Event, t *model.EventTransition) (*model.Event, error) {
	if current.Lifecycle != model.EventDraft {
		return nil, invalidTransition(current, t.Action, model.EventDraft)
	}

	updated, err := s.applyLifecycle(ctx, current, []string{model.EventDraft}, bson.M{"lifecycle": model.EventSubmitted})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.TypeEventSubmitted, current.Lifecycle, updated, t)
	return updated, nil
}

// approve is the direct content-approval path for venues that do not
// require slot negotiation. Venues that do must go through the slot
// machinery, which is the only road into scheduled.
func (s *eventService) approve(ctx context.Context, current *model.Event, t *model.EventTransition) (*model.Event, error) {
	if current.Lifecycle != model.EventSubmitted {
		return nil, invalidTransition(current, t.Action, model.EventSubmitted)
	}

	venue, err := s.loadVenue(ctx, current.VenueID)
	if err != nil {
		return nil, err
	}
	if venue.SlotApprovalRequired {
		return nil, apperrors.InvalidTransition(
			"This venue requires slot negotiation; approve the event's slot request instead",
			map[string]any{"venue_id": venue.ID},
		)
	}

	updated, err := s.applyLifecycle(ctx, current, []string{model.EventSubmitted}, bson.M{"lifecycle": model.EventApproved})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.TypeEventApproved, current.Lifecycle, updated, t)
	return updated, nil
}

func (s *eventService) deny(ctx context.Context, current *model.Event, t *model.EventTransition) (*model.Event, error) {
	if current.Lifecycle != model.EventSubmitted {
		return nil, invalidTransition(current, t.Action, model.EventSubmitted)
	}

	updated, err := s.applyLifecycle(ctx, current, []string{model.EventSubmitted}, bson.M{"lifecycle": model.EventCancelled})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.TypeEventCancelled, current.Lifecycle, updated, t)
	return updated, nil
}

func (s *eventService) cancel(ctx context.Context, current *model.Event, t *model.EventTransition) (*model.Event, error) {
	cancellable := []string{model.EventDraft, model.EventSubmitted, model.EventApproved, model.EventScheduled}
	if !lifecycleIn(current.Lifecycle, cancellable) {
		return nil, invalidTransition(current, t.Action, "draft, submitted, approved or scheduled")
	}

	updated, err := s.applyLifecycle(ctx, current, cancellable, bson.M{"lifecycle": model.EventCancelled})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.TypeEventCancelled, current.Lifecycle, updated, t)
	return updated, nil
}

// setPaused toggles the sales-halt flag without a lifecycle move.
func (s *eventService) setPaused(ctx context.Context, current *model.Event, t *model.EventTransition, paused bool) (*model.Event, error) {
	pausable := []string{model.EventScheduled, model.EventLive}
	if !lifecycleIn(current.Lifecycle, pausable) {
		return nil, invalidTransition(current, t.Action, "scheduled or live")
	}
	if current.Paused == paused {
		return current, nil
	}

	updated, err := s.applyLifecycle(ctx, current, pausable, bson.M{
		"lifecycle": current.Lifecycle,
		"paused":    paused,
	})
	if err != nil {
		return nil, err
	}

	messageType := kafka.TypeEventPaused
	if !paused {
		messageType = kafka.TypeEventResumed
	}
	s.publish(ctx, messageType, current.Lifecycle, updated, t)
	return updated, nil
}

func (s *eventService) lock(ctx context.Context, current *model.Event, t *model.EventTransition) (*model.Event, error) {
	if current.Lifecycle != model.EventCompleted {
		return nil, invalidTransition(current, t.Action, model.EventCompleted)
	}

	updated, err := s.applyLifecycle(ctx, current, []string{model.EventCompleted}, bson.M{"lifecycle": model.EventLocked})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.TypeEventLocked, current.Lifecycle, updated, t)
	return updated, nil
}

// --- Helpers ---

func (s *eventService) applyLifecycle(ctx context.Context, current *model.Event, expected []string, set bson.M) (*model.Event, error) {
	updated, err := s.repo.UpdateLifecycle(ctx, current.ID, expected, current.Version, set)
	if err != nil {
		return nil, mapTransitionErr(err, current.ID)
	}
	s.cfg.Log.Info("Event lifecycle transition",
		"id", current.ID,
		"from", current.Lifecycle,
		"to", updated.Lifecycle,
		"paused", updated.Paused,
	)
	return updated, nil
}

func (s *eventService) loadVenue(ctx context.Context, venueID string) (*model.Venue, error) {
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

func (s *eventService) sanitize(e *model.Event) {
	e.Title = sanitizer.NormalizeTitle(e.Title)
	e.Description = sanitizer.NormalizeNotes(e.Description)
}

func (s *eventService) publish(ctx context.Context, messageType, fromLifecycle string, event *model.Event, t *model.EventTransition) {
	payload := kafka.EventLifecyclePayload{
		EventID:       event.ID,
		VenueID:       event.VenueID,
		HostID:        event.HostID,
		FromLifecycle: fromLifecycle,
		ToLifecycle:   event.Lifecycle,
		ActorID:       t.ActorID,
		Reason:        t.Reason,
		Paused:        event.Paused,
		Range:         event.PublishedRange,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishEventLifecycle(ctx, messageType, payload); err != nil {
		s.cfg.Log.Warn("Failed to publish event lifecycle", "event_id", event.ID, "type", messageType, "error", err)
	}
}

func lifecycleIn(lifecycle string, set []string) bool {
	for _, s := range set {
		if s == lifecycle {
			return true
		}
	}
	return false
}

func invalidTransition(current *model.Event, action, expected string) error {
	return apperrors.InvalidTransition(
		fmt.Sprintf("Action %q is not legal from lifecycle %q", action, current.Lifecycle),
		map[string]any{
			"current_lifecycle":  current.Lifecycle,
			"expected_lifecycle": expected,
			"action":             action,
		},
	)
}

func mapLookupErr(err error, id string) error {
	if errors.Is(err, eventserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Event", id)
	}
	if errors.Is(err, eventserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid event ID format")
	}
	return apperrors.Internal("Failed to retrieve event", err)
}

func mapTransitionErr(err error, id string) error {
	if errors.Is(err, eventserrors.ErrStale) {
		return apperrors.StaleState("Event changed since it was read. Refresh and retry.")
	}
	if errors.Is(err, eventserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Event", id)
	}
	if errors.Is(err, eventserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid event ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Failed to transition event", err)
}
