package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stagedoor/internal/slots/conflict"
	slotserrors "stagedoor/internal/slots/errors"
	"stagedoor/internal/slots/repository"
	"stagedoor/internal/slots/validator"
	"stagedoor/pkg/config"
	apperrors "stagedoor/pkg/errors"
	"stagedoor/pkg/interval"
	"stagedoor/pkg/kafka"
	"stagedoor/pkg/model"
	"stagedoor/pkg/sanitizer"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EventScheduler advances an event's lifecycle when its slot request is
// approved. It runs inside the approval transaction, so its write commits
// or rolls back together with the slot request write. It returns the
// updated event and the lifecycle it moved from.
type EventScheduler interface {
	Schedule(ctx context.Context, eventID, slotRequestID string, published model.TimeRange) (*model.Event, string, error)
}

type SlotService interface {
	Create(ctx context.Context, req *model.SlotRequest) error
	GetByID(ctx context.Context, id string) (*model.SlotRequest, error)
	GetPendingByVenue(ctx context.Context, venueID string, limit int, offset int64) ([]*model.SlotRequest, int64, error)
	Search(ctx context.Context, venueID, eventID, status string, limit int, offset int64) ([]*model.SlotRequest, int64, error)
	Transition(ctx context.Context, id string, t *model.SlotTransition) (*model.SlotRequest, error)
}

type slotService struct {
	repo      repository.SlotRequestRepository
	lockRepo  repository.SlotLockRepository
	detector  conflict.Detector
	scheduler EventScheduler
	validator *validator.SlotValidator
	publisher *kafka.Publisher
	cfg       *config.Config
}

func NewSlotService(
	repo repository.SlotRequestRepository,
	lockRepo repository.SlotLockRepository,
	detector conflict.Detector,
	scheduler EventScheduler,
	validator *validator.SlotValidator,
	publisher *kafka.Publisher,
	cfg *config.Config,
) SlotService {
	return &slotService{
		repo:      repo,
		lockRepo:  lockRepo,
		detector:  detector,
		scheduler: scheduler,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Create admits the request without conflict detection: overlapping pending
// requests are legal and race at approval time, first approved wins.
func (s *slotService) Create(ctx context.Context, req *model.SlotRequest) error {
	req.Status = model.SlotPending
	req.Version = 0
	req.Notes = sanitizer.NormalizeNotes(req.Notes)
	req.VenueResponse = ""
	req.AlternativeRange = nil
	req.ConfirmedRange = nil
	req.RespondedAt = nil

	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Slot request validation failed", "error", err)
		return apperrors.Validation("Slot request validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, req); err != nil {
		if errors.Is(err, slotserrors.ErrOpenNegotiation) {
			return apperrors.Conflict("Event already has an open slot request")
		}
		s.cfg.Log.Error("Failed to create slot request", "error", err)
		return apperrors.Internal("Failed to create slot request", err)
	}

	s.cfg.Log.Info("Slot request created",
		"id", req.ID,
		"event_id", req.EventID,
		"venue_id", req.VenueID,
		"range", req.RequestedRange.String(),
	)

	s.publishSlot(ctx, kafka.TypeSlotRequested, "", req, req.HostID, req.Notes)
	return nil
}

func (s *slotService) GetByID(ctx context.Context, id string) (*model.SlotRequest, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot request ID cannot be empty")
	}

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, id)
	}

	return req, nil
}

func (s *slotService) GetPendingByVenue(ctx context.Context, venueID string, limit int, offset int64) ([]*model.SlotRequest, int64, error) {
	if venueID == "" {
		return nil, 0, apperrors.InvalidInput("Venue ID is required")
	}

	var count int64
	var reqs []*model.SlotRequest
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountPendingByVenue(ctx, venueID)
		if err != nil {
			s.cfg.Log.Error("Failed to count pending slot requests", "venue_id", venueID, "error", err)
			errCount = apperrors.Internal("Failed to count pending slot requests", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		reqs, err = s.repo.FindPendingByVenue(ctx, venueID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list pending slot requests", "venue_id", venueID, "error", err)
			errFind = apperrors.Internal("Failed to retrieve pending slot requests", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reqs, count, nil
}

func (s *slotService) Search(ctx context.Context, venueID, eventID, status string, limit int, offset int64) ([]*model.SlotRequest, int64, error) {
	var count int64
	var reqs []*model.SlotRequest
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountBySearch(ctx, venueID, eventID, status)
		if err != nil {
			s.cfg.Log.Error("Failed to count slot requests", "venue_id", venueID, "error", err)
			errCount = apperrors.Internal("Failed to count slot requests", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		reqs, err = s.repo.Search(ctx, venueID, eventID, status, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search slot requests", "venue_id", venueID, "error", err)
			errFind = apperrors.Internal("Failed to search slot requests", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reqs, count, nil
}

// Transition dispatches one negotiation action. Every branch is a
// conditional write against the status and version read here, so a racing
// transition surfaces as StaleState instead of silently double-applying.
func (s *slotService) Transition(ctx context.Context, id string, t *model.SlotTransition) (*model.SlotRequest, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Slot request ID cannot be empty")
	}
	if err := s.validator.ValidateTransition(t); err != nil {
		s.cfg.Log.Warn("Slot transition validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid transition payload", map[string]any{"error": err.Error()})
	}
	t.Notes = sanitizer.NormalizeNotes(t.Notes)

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, id)
	}

	switch t.Action {
	case model.SlotActionApprove:
		return s.approve(ctx, current, t)
	case model.SlotActionReject:
		return s.reject(ctx, current, t)
	case model.SlotActionCounter:
		return s.counter(ctx, current, t)
	case model.SlotActionAcceptCounter:
		return s.acceptCounter(ctx, current, t)
	case model.SlotActionDeclineCounter:
		return s.declineCounter(ctx, current, t)
	case model.SlotActionRequestChanges:
		return s.requestChanges(ctx, current, t)
	case model.SlotActionResubmit:
		return s.resubmit(ctx, current, t)
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown action: %s", t.Action))
	}
}

// --- Transitions ---

func (s *slotService) approve(ctx context.Context, current *model.SlotRequest, t *model.SlotTransition) (*model.SlotRequest, error) {
	if current.Status != model.SlotPending {
		return nil, invalidTransition(current, t.Action, model.SlotPending)
	}

	updated, event, fromLifecycle, err := s.commitApproval(ctx, current, current.RequestedRange, t)
	if err != nil {
		return nil, err
	}

	s.publishSlot(ctx, kafka.TypeSlotApproved, current.Status, updated, t.ActorID, t.Notes)
	s.publishLifecycle(ctx, kafka.TypeEventScheduled, event, fromLifecycle, t.ActorID, "")
	return updated, nil
}

func (s *slotService) reject(ctx context.Context, current *model.SlotRequest, t *model.SlotTransition) (*model.SlotRequest, error) {
	if current.Status != model.SlotPending && current.Status != model.SlotNeedsChanges {
		return nil, invalidTransition(current, t.Action, model.SlotPending)
	}

	set := bson.M{
		"status":         model.SlotRejected,
		"venue_response": t.Notes,
		"responded_at":   now(),
	}
	updated, err := s.repo.UpdateTransition(ctx, current.ID, []string{current.Status}, current.Version, set)
	if err != nil {
		return nil, mapTransitionErr(err, current.ID)
	}

	s.cfg.Log.Info("Slot request rejected", "id", current.ID, "actor_id", t.ActorID)
	s.publishSlot(ctx, kafka.TypeSlotRejected, current.Status, updated, t.ActorID, t.Notes)
	return updated, nil
}

func (s *slotService) counter(ctx context.Context, current *model.SlotRequest, t *model.SlotTransition) (*model.SlotRequest, error) {
	if current.Status != model.SlotPending {
		return nil, invalidTransition(current, t.Action, model.SlotPending)
	}

	set := bson.M{
		"status":            model.SlotCounterProposed,
		"alternative_range": t.AlternativeRange,
		"venue_response":    t.Notes,
		"responded_at":      now(),
	}
	updated, err := s.repo.UpdateTransition(ctx, current.ID, []string{model.SlotPending}, current.Version, set)
	if err != nil {
		return nil, mapTransitionErr(err, current.ID)
	}

	s.cfg.Log.Info("Slot request counter-proposed",
		"id", current.ID,
		"alternative", t.AlternativeRange.String(),
		"actor_id", t.ActorID,
	)
	s.publishSlot(ctx, kafka.TypeSlotCounterOffered, current.Status, updated, t.ActorID, t.Notes)
	return updated, nil
}

// acceptCounter re-validates the venue's alternative at accept time: the
// window may have been taken since the counter was made. Only a detector
// conflict resolves the request to rejected; advisory lock contention is
// surfaced as-is so the host can retry with the negotiation intact.
func (s *slotService) acceptCounter(ctx context.Context, current *model.SlotRequest, t *model.SlotTransition) (*model.SlotRequest, error) {
	if current.Status != model.SlotCounterProposed || current.AlternativeRange == nil {
		return nil, invalidTransition(current, t.Action, model.SlotCounterProposed)
	}

	updated, event, fromLifecycle, err := s.commitApproval(ctx, current, *current.AlternativeRange, t)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) {
			return s.rejectInvalidatedCounter(ctx, current, t, err)
		}
		return nil, err
	}

	s.publishSlot(ctx, kafka.TypeSlotApproved, current.Status, updated, t.ActorID, t.Notes)
	s.publishLifecycle(ctx, kafka.TypeEventScheduled, event, fromLifecycle, t.ActorID, "")
	return updated, nil
}

func (s *slotService) rejectInvalidatedCounter(ctx context.Context, current *model.SlotRequest, t *model.SlotTransition, conflictErr error) (*model.SlotRequest, error) {
	set := bson.M{
		"status":         model.SlotRejected,
		"venue_response": "The proposed alternative is no longer available",
		"responded_at":   now(),
	}
	updated, err := s.repo.UpdateTransition(ctx, current.ID, []string{model.SlotCounterProposed}, current.Version, set)
	if err != nil {
		return nil, mapTransitionErr(err, current.ID)
	}

	s.cfg.Log.Warn("Counter acceptance lost its window, request rejected",
		"id", current.ID,
		"actor_id", t.ActorID,
	)
	s.publishSlot(ctx, kafka.TypeSlotRejected, current.Status, updated, t.ActorID, updated.VenueResponse)

	appErr := apperrors.AsAppError(conflictErr)
	details := map[string]any{"resolution": model.SlotRejected}
	for k, v := range appErr.Details {
		details[k] = v
	}
	return updated, appErr.WithDetails(details)
}

func (s *slotService) declineCounter(ctx context.Context, current *model.SlotRequest, t *model.SlotTransition) (*model.SlotRequest, error) {
	if current.Status != model.SlotCounterProposed {
		return nil, invalidTransition(current, t.Action, model.SlotCounterProposed)
	}

	set := bson.M{
		"status":       model.SlotRejected,
		"responded_at": now(),
	}
	if t.Notes != "" {
		set["notes"] = t.Notes
	}
	updated, err := s.repo.UpdateTransition(ctx, current.ID, []string{model.SlotCounterProposed}, current.Version, set)
	if err != nil {
		return nil, mapTransitionErr(err, current.ID)
	}

	s.cfg.Log.Info("Counter proposal declined", "id", current.ID, "actor_id", t.ActorID)
	s.publishSlot(ctx, kafka.TypeSlotRejected, current.Status, updated, t.ActorID, t.Notes)
	return updated, nil
}

func (s *slotService) requestChanges(ctx context.Context, current *model.SlotRequest, t *model.SlotTransition) (*model.SlotRequest, error) {
	if current.Status != model.SlotPending && current.Status != model.SlotCounterProposed {
		return nil, invalidTransition(current, t.Action, model.SlotPending)
	}

	set := bson.M{
		"status":            model.SlotNeedsChanges,
		"alternative_range": nil,
		"venue_response":    t.Notes,
		"responded_at":      now(),
	}
	updated, err := s.repo.UpdateTransition(ctx, current.ID, []string{current.Status}, current.Version, set)
	if err != nil {
		return nil, mapTransitionErr(err, current.ID)
	}

	s.cfg.Log.Info("Changes requested on slot request", "id", current.ID, "actor_id", t.ActorID)
	s.publishSlot(ctx, kafka.TypeSlotNeedsChanges, current.Status, updated, t.ActorID, t.Notes)
	return updated, nil
}

// resubmit returns a needs_changes request to pending under the same ID,
// with a fresh createdAt so queue ordering reflects the resubmission.
func (s *slotService) resubmit(ctx context.Context, current *model.SlotRequest, t *model.SlotTransition) (*model.SlotRequest, error) {
	if current.Status != model.SlotNeedsChanges {
		return nil, invalidTransition(current, t.Action, model.SlotNeedsChanges)
	}

	set := bson.M{
		"status":            model.SlotPending,
		"created_at":        now(),
		"alternative_range": nil,
		"venue_response":    "",
		"responded_at":      nil,
	}
	if t.RequestedRange != nil {
		set["requested_range"] = *t.RequestedRange
	}
	if t.Notes != "" {
		set["notes"] = t.Notes
	}
	updated, err := s.repo.UpdateTransition(ctx, current.ID, []string{model.SlotNeedsChanges}, current.Version, set)
	if err != nil {
		return nil, mapTransitionErr(err, current.ID)
	}

	s.cfg.Log.Info("Slot request resubmitted", "id", current.ID, "actor_id", t.ActorID)
	s.publishSlot(ctx, kafka.TypeSlotResubmitted, current.Status, updated, t.ActorID, t.Notes)
	return updated, nil
}

// --- Approval commit ---

// commitApproval is the only place a slot request becomes approved. The
// advisory locks serialize racing approvals for the same venue days; the
// transaction then re-checks conflicts and flips the slot request and its
// event together, so neither can outrun the other.
func (s *slotService) commitApproval(ctx context.Context, current *model.SlotRequest, confirmed model.TimeRange, t *model.SlotTransition) (*model.SlotRequest, *model.Event, string, error) {
	lockIDs, err := s.acquireRangeLocks(ctx, current.VenueID, confirmed)
	if err != nil {
		return nil, nil, "", err
	}
	// Release on a cancel-immune context: a request aborted mid-approval
	// must not leave the venue day locked until the TTL runs out.
	releaseCtx := context.WithoutCancel(ctx)
	defer func() {
		for _, lockID := range lockIDs {
			if releaseErr := s.lockRepo.Delete(releaseCtx, lockID); releaseErr != nil {
				s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
			}
		}
	}()

	var updated *model.SlotRequest
	var event *model.Event
	var fromLifecycle string

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		result, err := s.detector.Detect(sessCtx, current.VenueID, confirmed)
		if err != nil {
			return err
		}
		if !result.Clear() {
			return apperrors.ConflictWithRecords("Requested range is no longer available", result.Conflicts)
		}

		set := bson.M{
			"status":          model.SlotApproved,
			"confirmed_range": confirmed,
			"responded_at":    now(),
		}
		if t.Notes != "" && t.Action == model.SlotActionApprove {
			set["venue_response"] = t.Notes
		}

		updated, err = s.repo.UpdateTransition(sessCtx, current.ID, []string{current.Status}, current.Version, set)
		if err != nil {
			return mapTransitionErr(err, current.ID)
		}

		event, fromLifecycle, err = s.scheduler.Schedule(sessCtx, current.EventID, current.ID, confirmed)
		return err
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConflict) ||
			apperrors.IsCode(err, apperrors.CodeLockContention) ||
			apperrors.IsCode(err, apperrors.CodeStaleState) {
			s.cfg.Log.Warn("Slot approval did not commit", "id", current.ID, "error", err)
		} else {
			s.cfg.Log.Error("Slot approval failed", "id", current.ID, "error", err)
		}
		return nil, nil, "", err
	}

	s.cfg.Log.Info("Slot request approved",
		"id", current.ID,
		"event_id", current.EventID,
		"venue_id", current.VenueID,
		"range", confirmed.String(),
	)
	return updated, event, fromLifecycle, nil
}

// acquireRangeLocks takes one advisory lock per calendar day the range
// touches. A wraparound range locks both its anchor day and the next, so
// approvals racing from either side of midnight contend on a shared lock.
func (s *slotService) acquireRangeLocks(ctx context.Context, venueID string, r model.TimeRange) ([]string, error) {
	dates := []string{r.Date}
	if r.CrossesMidnight() {
		next, err := interval.NextDate(r.Date)
		if err != nil {
			return nil, apperrors.InvalidRange(err.Error())
		}
		dates = append(dates, next)
	}

	owner := uuid.NewString()
	var held []string
	for _, date := range dates {
		lockID := fmt.Sprintf("slot_lock_%s_%s", venueID, date)
		lock := &model.SlotLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
		}

		if _, err := s.lockRepo.Create(ctx, lock); err != nil {
			rollbackCtx := context.WithoutCancel(ctx)
			for _, heldID := range held {
				if releaseErr := s.lockRepo.Delete(rollbackCtx, heldID); releaseErr != nil {
					s.cfg.Log.Warn("Failed to release slot lock", "lock_id", heldID, "error", releaseErr)
				}
			}
			if mongo.IsDuplicateKeyError(err) {
				return nil, apperrors.LockContention("Another approval for this venue day is in progress. Please retry.")
			}
			return nil, apperrors.Internal("Failed to acquire slot lock", err)
		}
		held = append(held, lockID)
	}

	return held, nil
}

// --- Helpers ---

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func invalidTransition(current *model.SlotRequest, action, expected string) error {
	return apperrors.InvalidTransition(
		fmt.Sprintf("Action %q is not legal from status %q", action, current.Status),
		map[string]any{
			"current_status":  current.Status,
			"expected_status": expected,
			"action":          action,
		},
	)
}

func mapLookupErr(err error, id string) error {
	if errors.Is(err, slotserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Slot request", id)
	}
	if errors.Is(err, slotserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid slot request ID format")
	}
	return apperrors.Internal("Failed to retrieve slot request", err)
}

func mapTransitionErr(err error, id string) error {
	if errors.Is(err, slotserrors.ErrStale) {
		return apperrors.StaleState("Slot request changed since it was read. Refresh and retry.")
	}
	if errors.Is(err, slotserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Slot request", id)
	}
	if errors.Is(err, slotserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid slot request ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal("Failed to transition slot request", err)
}

func (s *slotService) publishSlot(ctx context.Context, messageType, fromStatus string, req *model.SlotRequest, actorID, reason string) {
	rng := req.EffectiveRange()
	payload := kafka.SlotTransitionPayload{
		SlotRequestID: req.ID,
		EventID:       req.EventID,
		VenueID:       req.VenueID,
		HostID:        req.HostID,
		FromStatus:    fromStatus,
		ToStatus:      req.Status,
		ActorID:       actorID,
		Reason:        reason,
		Range:         &rng,
		OccurredAt:    now(),
	}
	if err := s.publisher.PublishSlotTransition(ctx, messageType, payload); err != nil {
		s.cfg.Log.Warn("Failed to publish slot transition", "id", req.ID, "type", messageType, "error", err)
	}
}

func (s *slotService) publishLifecycle(ctx context.Context, messageType string, event *model.Event, fromLifecycle, actorID, reason string) {
	if event == nil {
		return
	}
	payload := kafka.EventLifecyclePayload{
		EventID:       event.ID,
		VenueID:       event.VenueID,
		HostID:        event.HostID,
		FromLifecycle: fromLifecycle,
		ToLifecycle:   event.Lifecycle,
		ActorID:       actorID,
		Reason:        reason,
		Paused:        event.Paused,
		Range:         event.PublishedRange,
		OccurredAt:    now(),
	}
	if err := s.publisher.PublishEventLifecycle(ctx, messageType, payload); err != nil {
		s.cfg.Log.Warn("Failed to publish event lifecycle", "event_id", event.ID, "type", messageType, "error", err)
	}
}
