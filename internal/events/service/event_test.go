package service

import (
	"context"
	"testing"
	"time"

	eventserrors "stagedoor/internal/events/errors"
	"stagedoor/internal/events/validator"
	venueserrors "stagedoor/internal/venues/errors"
	"stagedoor/pkg/config"
	mongotx "stagedoor/pkg/db/mongo"
	apperrors "stagedoor/pkg/errors"
	"stagedoor/pkg/logger"
	"stagedoor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockEventRepository struct {
	createFunc             func(ctx context.Context, event *model.Event) error
	findByIDFunc           func(ctx context.Context, id string) (*model.Event, error)
	searchFunc             func(ctx context.Context, hostID, venueID, lifecycle string, limit int, offset int64) ([]*model.Event, error)
	countBySearchFunc      func(ctx context.Context, hostID, venueID, lifecycle string) (int64, error)
	updateContentFunc      func(ctx context.Context, id string, set bson.M) (*mongo.UpdateResult, error)
	updateLifecycleFunc    func(ctx context.Context, id string, expectedLifecycles []string, expectedVersion int64, set bson.M) (*model.Event, error)
	findDueToStartFunc     func(ctx context.Context, now time.Time, limit int) ([]*model.Event, error)
	findDueToCompleteFunc  func(ctx context.Context, deadline time.Time, limit int) ([]*model.Event, error)
	executeTransactionFunc func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockEventRepository) Create(ctx context.Context, event *model.Event) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, event)
	}
	return nil
}

func (m *mockEventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, eventserrors.ErrNotFound
}

func (m *mockEventRepository) Search(ctx context.Context, hostID, venueID, lifecycle string, limit int, offset int64) ([]*model.Event, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, hostID, venueID, lifecycle, limit, offset)
	}
	return []*model.Event{}, nil
}

func (m *mockEventRepository) CountBySearch(ctx context.Context, hostID, venueID, lifecycle string) (int64, error) {
	if m.countBySearchFunc != nil {
		return m.countBySearchFunc(ctx, hostID, venueID, lifecycle)
	}
	return 0, nil
}

func (m *mockEventRepository) UpdateContent(ctx context.Context, id string, set bson.M) (*mongo.UpdateResult, error) {
	if m.updateContentFunc != nil {
		return m.updateContentFunc(ctx, id, set)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockEventRepository) UpdateLifecycle(ctx context.Context, id string, expectedLifecycles []string, expectedVersion int64, set bson.M) (*model.Event, error) {
	if m.updateLifecycleFunc != nil {
		return m.updateLifecycleFunc(ctx, id, expectedLifecycles, expectedVersion, set)
	}
	return nil, eventserrors.ErrNotFound
}

func (m *mockEventRepository) FindDueToStart(ctx context.Context, now time.Time, limit int) ([]*model.Event, error) {
	if m.findDueToStartFunc != nil {
		return m.findDueToStartFunc(ctx, now, limit)
	}
	return []*model.Event{}, nil
}

func (m *mockEventRepository) FindDueToComplete(ctx context.Context, deadline time.Time, limit int) ([]*model.Event, error) {
	if m.findDueToCompleteFunc != nil {
		return m.findDueToCompleteFunc(ctx, deadline, limit)
	}
	return []*model.Event{}, nil
}

func (m *mockEventRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTransactionFunc != nil {
		return m.executeTransactionFunc(ctx, fn)
	}
	return fn(nil)
}

type mockVenueSource struct {
	venue *model.Venue
}

func (m *mockVenueSource) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	if m.venue == nil {
		return nil, venueserrors.ErrNotFound
	}
	return m.venue, nil
}

// ────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────

const (
	testEventID = "665f1f77bcf86cd799439011"
	testVenueID = "665f1f77bcf86cd799439001"
	testSlotID  = "665f1f77bcf86cd799439021"
)

func testConfig() *config.Config {
	log := logger.New(logger.Config{Level: "info", Format: logger.JSON, Service: "test"})
	return &config.Config{Log: log}
}

func testVenue(slotApproval bool) *model.Venue {
	return &model.Venue{
		ID:                   testVenueID,
		Name:                 "The Basement",
		City:                 "tel aviv",
		TimeZone:             "Asia/Jerusalem",
		OpenTime:             "09:00",
		CloseTime:            "23:00",
		SlotApprovalRequired: slotApproval,
	}
}

func eventIn(lifecycle string) *model.Event {
	return &model.Event{
		ID:        testEventID,
		HostID:    "host-17",
		VenueID:   testVenueID,
		Title:     "Late Night Jazz",
		Lifecycle: lifecycle,
		Version:   2,
	}
}

// repoReturning answers FindByID with the given event and applies lifecycle
// updates onto a copy of it.
func repoReturning(event *model.Event) *mockEventRepository {
	return &mockEventRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Event, error) {
			return event, nil
		},
		updateLifecycleFunc: func(ctx context.Context, id string, expectedLifecycles []string, expectedVersion int64, set bson.M) (*model.Event, error) {
			applied := *event
			if lifecycle, ok := set["lifecycle"].(string); ok {
				applied.Lifecycle = lifecycle
			}
			if paused, ok := set["paused"].(bool); ok {
				applied.Paused = paused
			}
			if slotID, ok := set["slot_request_id"].(string); ok {
				applied.SlotRequestID = slotID
			}
			if published, ok := set["published_range"].(model.TimeRange); ok {
				applied.PublishedRange = &published
			}
			if startAt, ok := set["start_at"].(time.Time); ok {
				applied.StartAt = &startAt
			}
			if endAt, ok := set["end_at"].(time.Time); ok {
				applied.EndAt = &endAt
			}
			applied.Version = expectedVersion + 1
			return &applied, nil
		},
	}
}

func newTestService(repo *mockEventRepository, venue *model.Venue) EventService {
	cfg := testConfig()
	return NewEventService(repo, &mockVenueSource{venue: venue}, validator.NewEventValidator(cfg.Log), nil, cfg)
}

// ────────────────────────────────────────────────
// Create and Update
// ────────────────────────────────────────────────

func TestCreate_ForcesDraftAndClearsScheduleFields(t *testing.T) {
	var created *model.Event
	repo := &mockEventRepository{
		createFunc: func(ctx context.Context, event *model.Event) error {
			created = event
			return nil
		},
	}
	service := newTestService(repo, testVenue(true))

	published := model.TimeRange{Date: "2026-09-12", Start: "20:00", End: "23:00"}
	now := time.Now()
	event := &model.Event{
		HostID:         "host-17",
		VenueID:        testVenueID,
		Title:          "  Late   Night Jazz ",
		Lifecycle:      model.EventLive,
		Version:        7,
		SlotRequestID:  testSlotID,
		PublishedRange: &published,
		StartAt:        &now,
		Paused:         true,
	}

	if err := service.Create(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created == nil {
		t.Fatal("expected repository create to be called")
	}
	if created.Lifecycle != model.EventDraft || created.Version != 0 || created.Paused {
		t.Errorf("expected a fresh draft, got %+v", created)
	}
	if created.Title != "Late Night Jazz" {
		t.Errorf("expected normalized title, got %q", created.Title)
	}
	if created.SlotRequestID != "" || created.PublishedRange != nil || created.StartAt != nil {
		t.Error("expected schedule fields to be cleared")
	}
}

func TestCreate_VenueMustExist(t *testing.T) {
	service := newTestService(&mockEventRepository{}, nil)

	err := service.Create(context.Background(), &model.Event{
		HostID:  "host-17",
		VenueID: testVenueID,
		Title:   "Late Night Jazz",
	})
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdate_FrozenEventIsImmutable(t *testing.T) {
	for _, lifecycle := range []string{model.EventCompleted, model.EventLocked} {
		t.Run(lifecycle, func(t *testing.T) {
			service := newTestService(repoReturning(eventIn(lifecycle)), testVenue(false))

			err := service.Update(context.Background(), testEventID, &model.EventUpdate{Title: "New Title"})
			if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
				t.Fatalf("expected invalid transition, got %v", err)
			}
		})
	}
}

func TestUpdate_NormalizesContent(t *testing.T) {
	var captured bson.M
	repo := repoReturning(eventIn(model.EventDraft))
	repo.updateContentFunc = func(ctx context.Context, id string, set bson.M) (*mongo.UpdateResult, error) {
		captured = set
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}
	service := newTestService(repo, testVenue(false))

	if err := service.Update(context.Background(), testEventID, &model.EventUpdate{Title: "  An   Evening of  Jazz "}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if captured["title"] != "An Evening of Jazz" {
		t.Errorf("expected normalized title, got %v", captured["title"])
	}
}

// ────────────────────────────────────────────────
// Lifecycle transitions
// ────────────────────────────────────────────────

func TestTransition_Submit(t *testing.T) {
	service := newTestService(repoReturning(eventIn(model.EventDraft)), testVenue(true))

	updated, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionSubmit,
		ActorID: "host-17",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Lifecycle != model.EventSubmitted {
		t.Errorf("expected submitted, got %q", updated.Lifecycle)
	}
}

func TestTransition_SubmitOnlyFromDraft(t *testing.T) {
	service := newTestService(repoReturning(eventIn(model.EventScheduled)), testVenue(true))

	_, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionSubmit,
		ActorID: "host-17",
	})
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransition_DirectApproval(t *testing.T) {
	service := newTestService(repoReturning(eventIn(model.EventSubmitted)), testVenue(false))

	updated, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionApprove,
		ActorID: "venue-admin",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Lifecycle != model.EventApproved {
		t.Errorf("expected approved, got %q", updated.Lifecycle)
	}
}

func TestTransition_ApprovalBlockedWhenNegotiationRequired(t *testing.T) {
	service := newTestService(repoReturning(eventIn(model.EventSubmitted)), testVenue(true))

	_, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionApprove,
		ActorID: "venue-admin",
	})
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransition_DenyRequiresReason(t *testing.T) {
	service := newTestService(repoReturning(eventIn(model.EventSubmitted)), testVenue(true))

	_, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionDeny,
		ActorID: "venue-admin",
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	updated, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionDeny,
		ActorID: "venue-admin",
		Reason:  "Content does not fit the venue",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Lifecycle != model.EventCancelled {
		t.Errorf("expected cancelled, got %q", updated.Lifecycle)
	}
}

func TestTransition_Cancel(t *testing.T) {
	for _, lifecycle := range []string{model.EventDraft, model.EventSubmitted, model.EventApproved, model.EventScheduled} {
		t.Run(lifecycle, func(t *testing.T) {
			service := newTestService(repoReturning(eventIn(lifecycle)), testVenue(true))

			updated, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
				Action:  model.EventActionCancel,
				ActorID: "host-17",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if updated.Lifecycle != model.EventCancelled {
				t.Errorf("expected cancelled, got %q", updated.Lifecycle)
			}
		})
	}

	for _, lifecycle := range []string{model.EventLive, model.EventCompleted, model.EventLocked, model.EventCancelled} {
		t.Run("refused from "+lifecycle, func(t *testing.T) {
			service := newTestService(repoReturning(eventIn(lifecycle)), testVenue(true))

			_, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
				Action:  model.EventActionCancel,
				ActorID: "host-17",
			})
			if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
				t.Fatalf("expected invalid transition, got %v", err)
			}
		})
	}
}

func TestTransition_PauseAndResume(t *testing.T) {
	event := eventIn(model.EventLive)
	service := newTestService(repoReturning(event), testVenue(true))

	updated, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionPause,
		ActorID: "venue-admin",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !updated.Paused || updated.Lifecycle != model.EventLive {
		t.Errorf("expected paused live event, got %+v", updated)
	}

	// Resuming a non-paused event is a no-op without a write.
	repo := repoReturning(event)
	writes := 0
	base := repo.updateLifecycleFunc
	repo.updateLifecycleFunc = func(ctx context.Context, id string, expectedLifecycles []string, expectedVersion int64, set bson.M) (*model.Event, error) {
		writes++
		return base(ctx, id, expectedLifecycles, expectedVersion, set)
	}
	service = newTestService(repo, testVenue(true))
	if _, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionResume,
		ActorID: "venue-admin",
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if writes != 0 {
		t.Errorf("expected no write for a no-op resume, got %d", writes)
	}
}

func TestTransition_PauseOnlyWhenScheduledOrLive(t *testing.T) {
	service := newTestService(repoReturning(eventIn(model.EventDraft)), testVenue(true))

	_, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionPause,
		ActorID: "venue-admin",
	})
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransition_LockOnlyFromCompleted(t *testing.T) {
	service := newTestService(repoReturning(eventIn(model.EventCompleted)), testVenue(true))

	updated, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionLock,
		ActorID: "venue-admin",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Lifecycle != model.EventLocked {
		t.Errorf("expected locked, got %q", updated.Lifecycle)
	}

	service = newTestService(repoReturning(eventIn(model.EventLive)), testVenue(true))
	if _, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionLock,
		ActorID: "venue-admin",
	}); !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransition_StaleVersion(t *testing.T) {
	repo := repoReturning(eventIn(model.EventDraft))
	repo.updateLifecycleFunc = func(ctx context.Context, id string, expectedLifecycles []string, expectedVersion int64, set bson.M) (*model.Event, error) {
		return nil, eventserrors.ErrStale
	}
	service := newTestService(repo, testVenue(true))

	_, err := service.Transition(context.Background(), testEventID, &model.EventTransition{
		Action:  model.EventActionSubmit,
		ActorID: "host-17",
	})
	if !apperrors.IsCode(err, apperrors.CodeStaleState) {
		t.Fatalf("expected stale state error, got %v", err)
	}
}

// ────────────────────────────────────────────────
// Scheduler
// ────────────────────────────────────────────────

func newTestScheduler(repo *mockEventRepository, venue *model.Venue) *Scheduler {
	return NewScheduler(repo, &mockVenueSource{venue: venue}, testConfig())
}

func TestScheduler_SchedulesSubmittedEvent(t *testing.T) {
	var captured bson.M
	repo := repoReturning(eventIn(model.EventSubmitted))
	base := repo.updateLifecycleFunc
	repo.updateLifecycleFunc = func(ctx context.Context, id string, expectedLifecycles []string, expectedVersion int64, set bson.M) (*model.Event, error) {
		captured = set
		return base(ctx, id, expectedLifecycles, expectedVersion, set)
	}
	scheduler := newTestScheduler(repo, testVenue(true))

	published := model.TimeRange{Date: "2026-09-12", Start: "22:00", End: "02:00"}
	updated, fromLifecycle, err := scheduler.Schedule(context.Background(), testEventID, testSlotID, published)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if fromLifecycle != model.EventSubmitted {
		t.Errorf("expected from submitted, got %q", fromLifecycle)
	}
	if updated.Lifecycle != model.EventScheduled || updated.SlotRequestID != testSlotID {
		t.Errorf("unexpected scheduled event %+v", updated)
	}

	loc, _ := time.LoadLocation("Asia/Jerusalem")
	wantStart := time.Date(2026, 9, 12, 22, 0, 0, 0, loc)
	if startAt, ok := captured["start_at"].(time.Time); !ok || !startAt.Equal(wantStart) {
		t.Errorf("expected start_at %v, got %v", wantStart, captured["start_at"])
	}
	if endAt, ok := captured["end_at"].(time.Time); !ok || !endAt.Equal(wantStart.Add(4*time.Hour)) {
		t.Errorf("expected end_at 4h after start, got %v", captured["end_at"])
	}
}

func TestScheduler_IdempotentWhenAlreadyScheduled(t *testing.T) {
	event := eventIn(model.EventScheduled)
	event.SlotRequestID = testSlotID
	writes := 0
	repo := repoReturning(event)
	base := repo.updateLifecycleFunc
	repo.updateLifecycleFunc = func(ctx context.Context, id string, expectedLifecycles []string, expectedVersion int64, set bson.M) (*model.Event, error) {
		writes++
		return base(ctx, id, expectedLifecycles, expectedVersion, set)
	}
	scheduler := newTestScheduler(repo, testVenue(true))

	updated, fromLifecycle, err := scheduler.Schedule(context.Background(), testEventID, testSlotID, model.TimeRange{
		Date: "2026-09-12", Start: "20:00", End: "23:00",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if writes != 0 {
		t.Errorf("expected no write, got %d", writes)
	}
	if fromLifecycle != model.EventScheduled || updated != event {
		t.Errorf("expected the stored event back unchanged")
	}
}

func TestScheduler_RefusesFrozenOrCancelledEvent(t *testing.T) {
	for _, lifecycle := range []string{model.EventCancelled, model.EventCompleted, model.EventLocked, model.EventLive} {
		t.Run(lifecycle, func(t *testing.T) {
			scheduler := newTestScheduler(repoReturning(eventIn(lifecycle)), testVenue(true))

			_, _, err := scheduler.Schedule(context.Background(), testEventID, testSlotID, model.TimeRange{
				Date: "2026-09-12", Start: "20:00", End: "23:00",
			})
			if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
				t.Fatalf("expected invalid transition, got %v", err)
			}
		})
	}
}
