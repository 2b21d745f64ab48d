package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"stagedoor/internal/slots/conflict"
	slotserrors "stagedoor/internal/slots/errors"
	"stagedoor/internal/slots/validator"
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

type mockSlotRequestRepository struct {
	createFunc             func(ctx context.Context, req *model.SlotRequest) error
	findByIDFunc           func(ctx context.Context, id string) (*model.SlotRequest, error)
	findPendingFunc        func(ctx context.Context, venueID string, limit int, offset int64) ([]*model.SlotRequest, error)
	countPendingFunc       func(ctx context.Context, venueID string) (int64, error)
	searchFunc             func(ctx context.Context, venueID, eventID, status string, limit int, offset int64) ([]*model.SlotRequest, error)
	countBySearchFunc      func(ctx context.Context, venueID, eventID, status string) (int64, error)
	findApprovedFunc       func(ctx context.Context, venueID, fromDate, toDate string) ([]*model.SlotRequest, error)
	findOpenByHostFunc     func(ctx context.Context, venueID, hostID, fromDate, toDate string) ([]*model.SlotRequest, error)
	updateTransitionFunc   func(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error)
	executeTransactionFunc func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockSlotRequestRepository) Create(ctx context.Context, req *model.SlotRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return nil
}

func (m *mockSlotRequestRepository) FindByID(ctx context.Context, id string) (*model.SlotRequest, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, slotserrors.ErrNotFound
}

func (m *mockSlotRequestRepository) FindPendingByVenue(ctx context.Context, venueID string, limit int, offset int64) ([]*model.SlotRequest, error) {
	if m.findPendingFunc != nil {
		return m.findPendingFunc(ctx, venueID, limit, offset)
	}
	return []*model.SlotRequest{}, nil
}

func (m *mockSlotRequestRepository) CountPendingByVenue(ctx context.Context, venueID string) (int64, error) {
	if m.countPendingFunc != nil {
		return m.countPendingFunc(ctx, venueID)
	}
	return 0, nil
}

func (m *mockSlotRequestRepository) Search(ctx context.Context, venueID, eventID, status string, limit int, offset int64) ([]*model.SlotRequest, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, venueID, eventID, status, limit, offset)
	}
	return []*model.SlotRequest{}, nil
}

func (m *mockSlotRequestRepository) CountBySearch(ctx context.Context, venueID, eventID, status string) (int64, error) {
	if m.countBySearchFunc != nil {
		return m.countBySearchFunc(ctx, venueID, eventID, status)
	}
	return 0, nil
}

func (m *mockSlotRequestRepository) FindApprovedByVenueAndDates(ctx context.Context, venueID, fromDate, toDate string) ([]*model.SlotRequest, error) {
	if m.findApprovedFunc != nil {
		return m.findApprovedFunc(ctx, venueID, fromDate, toDate)
	}
	return []*model.SlotRequest{}, nil
}

func (m *mockSlotRequestRepository) FindOpenByHostAndDates(ctx context.Context, venueID, hostID, fromDate, toDate string) ([]*model.SlotRequest, error) {
	if m.findOpenByHostFunc != nil {
		return m.findOpenByHostFunc(ctx, venueID, hostID, fromDate, toDate)
	}
	return []*model.SlotRequest{}, nil
}

func (m *mockSlotRequestRepository) UpdateTransition(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
	if m.updateTransitionFunc != nil {
		return m.updateTransitionFunc(ctx, id, expectedStatus, expectedVersion, set)
	}
	return nil, slotserrors.ErrNotFound
}

func (m *mockSlotRequestRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTransactionFunc != nil {
		return m.executeTransactionFunc(ctx, fn)
	}
	return fn(nil)
}

type mockSlotLockRepository struct {
	createFunc func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error)
	deleteFunc func(ctx context.Context, lockID string) error

	acquired []string
	released []string
}

func (m *mockSlotLockRepository) Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	m.acquired = append(m.acquired, lock.ID)
	return lock, nil
}

func (m *mockSlotLockRepository) Delete(ctx context.Context, lockID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, lockID)
	}
	m.released = append(m.released, lockID)
	return nil
}

type mockDetector struct {
	detectFunc func(ctx context.Context, venueID string, candidate model.TimeRange) (*conflict.Result, error)
}

func (m *mockDetector) Detect(ctx context.Context, venueID string, candidate model.TimeRange) (*conflict.Result, error) {
	if m.detectFunc != nil {
		return m.detectFunc(ctx, venueID, candidate)
	}
	return &conflict.Result{Classification: conflict.Clear}, nil
}

type mockScheduler struct {
	scheduleFunc func(ctx context.Context, eventID, slotRequestID string, published model.TimeRange) (*model.Event, string, error)

	calls []model.TimeRange
}

func (m *mockScheduler) Schedule(ctx context.Context, eventID, slotRequestID string, published model.TimeRange) (*model.Event, string, error) {
	m.calls = append(m.calls, published)
	if m.scheduleFunc != nil {
		return m.scheduleFunc(ctx, eventID, slotRequestID, published)
	}
	return &model.Event{
		ID:        eventID,
		Lifecycle: model.EventScheduled,
	}, model.EventSubmitted, nil
}

// ────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────

const (
	testSlotID  = "665f1f77bcf86cd799439021"
	testEventID = "665f1f77bcf86cd799439011"
	testVenueID = "665f1f77bcf86cd799439001"
)

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &config.Config{
		Log:         log,
		SlotLockTTL: 30 * time.Second,
	}
}

func newTestService(repo *mockSlotRequestRepository, locks *mockSlotLockRepository, det *mockDetector, sched *mockScheduler) SlotService {
	cfg := testConfig()
	return NewSlotService(repo, locks, det, sched, validator.NewSlotValidator(cfg.Log), nil, cfg)
}

func eveningRange() model.TimeRange {
	return model.TimeRange{Date: "2026-09-12", Start: "20:00", End: "23:00"}
}

func lateNightRange() model.TimeRange {
	return model.TimeRange{Date: "2026-09-12", Start: "22:00", End: "02:00"}
}

func pendingRequest() *model.SlotRequest {
	return &model.SlotRequest{
		ID:             testSlotID,
		EventID:        testEventID,
		HostID:         "host-17",
		VenueID:        testVenueID,
		RequestedRange: eveningRange(),
		Status:         model.SlotPending,
		Version:        3,
	}
}

func counterProposedRequest() *model.SlotRequest {
	req := pendingRequest()
	req.Status = model.SlotCounterProposed
	alt := model.TimeRange{Date: "2026-09-13", Start: "19:00", End: "22:00"}
	req.AlternativeRange = &alt
	return req
}

func repoReturning(req *model.SlotRequest) *mockSlotRequestRepository {
	return &mockSlotRequestRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.SlotRequest, error) {
			return req, nil
		},
		updateTransitionFunc: func(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
			applied := *req
			if status, ok := set["status"].(string); ok {
				applied.Status = status
			}
			if confirmed, ok := set["confirmed_range"].(model.TimeRange); ok {
				applied.ConfirmedRange = &confirmed
			}
			applied.Version = expectedVersion + 1
			return &applied, nil
		},
	}
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_ForcesPendingAndClearsResponseFields(t *testing.T) {
	var created *model.SlotRequest
	repo := &mockSlotRequestRepository{
		createFunc: func(ctx context.Context, req *model.SlotRequest) error {
			created = req
			return nil
		},
	}
	service := newTestService(repo, &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	alt := eveningRange()
	req := &model.SlotRequest{
		EventID:          testEventID,
		HostID:           "host-17",
		VenueID:          testVenueID,
		RequestedRange:   eveningRange(),
		Status:           model.SlotApproved,
		Version:          9,
		Notes:            "  sound   check at 18:00  ",
		VenueResponse:    "stale",
		AlternativeRange: &alt,
	}

	if err := service.Create(context.Background(), req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created == nil {
		t.Fatal("expected repository create to be called")
	}
	if created.Status != model.SlotPending {
		t.Errorf("expected status pending, got %q", created.Status)
	}
	if created.Version != 0 {
		t.Errorf("expected version 0, got %d", created.Version)
	}
	if created.Notes != "sound check at 18:00" {
		t.Errorf("expected normalized notes, got %q", created.Notes)
	}
	if created.VenueResponse != "" || created.AlternativeRange != nil || created.ConfirmedRange != nil {
		t.Error("expected response fields to be cleared")
	}
}

func TestCreate_SecondOpenRequestConflicts(t *testing.T) {
	repo := &mockSlotRequestRepository{
		createFunc: func(ctx context.Context, req *model.SlotRequest) error {
			return slotserrors.ErrOpenNegotiation
		},
	}
	service := newTestService(repo, &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	req := &model.SlotRequest{
		EventID:        testEventID,
		HostID:         "host-17",
		VenueID:        testVenueID,
		RequestedRange: eveningRange(),
	}
	err := service.Create(context.Background(), req)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	service := newTestService(&mockSlotRequestRepository{}, &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	tests := []struct {
		name string
		req  *model.SlotRequest
	}{
		{
			name: "missing venue",
			req: &model.SlotRequest{
				EventID:        testEventID,
				HostID:         "host-17",
				RequestedRange: eveningRange(),
			},
		},
		{
			name: "zero length range",
			req: &model.SlotRequest{
				EventID:        testEventID,
				HostID:         "host-17",
				VenueID:        testVenueID,
				RequestedRange: model.TimeRange{Date: "2026-09-12", Start: "20:00", End: "20:00"},
			},
		},
		{
			name: "malformed date",
			req: &model.SlotRequest{
				EventID:        testEventID,
				HostID:         "host-17",
				VenueID:        testVenueID,
				RequestedRange: model.TimeRange{Date: "12-09-2026", Start: "20:00", End: "23:00"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.Create(context.Background(), tt.req)
			if !apperrors.IsCode(err, apperrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

// ────────────────────────────────────────────────
// Approve
// ────────────────────────────────────────────────

func TestApprove_CommitsRequestedRange(t *testing.T) {
	current := pendingRequest()
	repo := repoReturning(current)
	locks := &mockSlotLockRepository{}
	sched := &mockScheduler{}
	service := newTestService(repo, locks, &mockDetector{}, sched)

	updated, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionApprove,
		ActorID: "venue-admin",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != model.SlotApproved {
		t.Errorf("expected status approved, got %q", updated.Status)
	}
	if updated.ConfirmedRange == nil || *updated.ConfirmedRange != eveningRange() {
		t.Errorf("expected confirmed range %v, got %v", eveningRange(), updated.ConfirmedRange)
	}
	if len(sched.calls) != 1 || sched.calls[0] != eveningRange() {
		t.Errorf("expected scheduler called with requested range, got %v", sched.calls)
	}
	if len(locks.acquired) != 1 || locks.acquired[0] != "slot_lock_"+testVenueID+"_2026-09-12" {
		t.Errorf("unexpected locks acquired: %v", locks.acquired)
	}
	if len(locks.released) != len(locks.acquired) {
		t.Errorf("expected all locks released, acquired %v released %v", locks.acquired, locks.released)
	}
}

func TestApprove_WraparoundLocksBothDays(t *testing.T) {
	current := pendingRequest()
	current.RequestedRange = lateNightRange()
	repo := repoReturning(current)
	locks := &mockSlotLockRepository{}
	service := newTestService(repo, locks, &mockDetector{}, &mockScheduler{})

	if _, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionApprove,
		ActorID: "venue-admin",
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{
		"slot_lock_" + testVenueID + "_2026-09-12",
		"slot_lock_" + testVenueID + "_2026-09-13",
	}
	if len(locks.acquired) != 2 || locks.acquired[0] != want[0] || locks.acquired[1] != want[1] {
		t.Errorf("expected locks %v, got %v", want, locks.acquired)
	}
}

func TestApprove_RejectedWhenNotPending(t *testing.T) {
	for _, status := range []string{model.SlotApproved, model.SlotRejected, model.SlotNeedsChanges, model.SlotCounterProposed} {
		t.Run(status, func(t *testing.T) {
			current := pendingRequest()
			current.Status = status
			service := newTestService(repoReturning(current), &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

			_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
				Action:  model.SlotActionApprove,
				ActorID: "venue-admin",
			})
			if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
				t.Fatalf("expected invalid transition, got %v", err)
			}
		})
	}
}

func TestApprove_ConflictAbortsBeforeWrite(t *testing.T) {
	current := pendingRequest()
	updateCalled := false
	repo := repoReturning(current)
	repo.updateTransitionFunc = func(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
		updateCalled = true
		return current, nil
	}
	locks := &mockSlotLockRepository{}
	det := &mockDetector{
		detectFunc: func(ctx context.Context, venueID string, candidate model.TimeRange) (*conflict.Result, error) {
			return &conflict.Result{
				Classification: conflict.HardBlock,
				Conflicts:      []map[string]any{{"kind": "venue_block"}},
			}, nil
		},
	}
	service := newTestService(repo, locks, det, &mockScheduler{})

	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionApprove,
		ActorID: "venue-admin",
	})
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if updateCalled {
		t.Error("expected no write after conflict")
	}
	if len(locks.released) != len(locks.acquired) {
		t.Errorf("expected locks released after conflict, acquired %v released %v", locks.acquired, locks.released)
	}
}

func TestApprove_LockContention(t *testing.T) {
	current := pendingRequest()
	locks := &mockSlotLockRepository{
		createFunc: func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		},
	}
	service := newTestService(repoReturning(current), locks, &mockDetector{}, &mockScheduler{})

	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionApprove,
		ActorID: "venue-admin",
	})
	if !apperrors.IsCode(err, apperrors.CodeLockContention) {
		t.Fatalf("expected lock contention error, got %v", err)
	}
}

// A held advisory lock for the venue day must not terminate the negotiation:
// the counter stays open and the host can accept again once the lock clears.
func TestAcceptCounter_LockContentionKeepsNegotiationOpen(t *testing.T) {
	current := counterProposedRequest()
	repo := repoReturning(current)
	var writes int
	repo.updateTransitionFunc = func(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
		writes++
		return current, nil
	}
	locks := &mockSlotLockRepository{
		createFunc: func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
			return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
		},
	}
	service := newTestService(repo, locks, &mockDetector{}, &mockScheduler{})

	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionAcceptCounter,
		ActorID: "host-17",
	})
	if !apperrors.IsCode(err, apperrors.CodeLockContention) {
		t.Fatalf("expected lock contention error, got %v", err)
	}
	if writes != 0 {
		t.Errorf("expected no transition writes, got %d", writes)
	}
}

// blockingLockRepo makes racing approvals for the same venue day wait on a
// real mutex per lock ID, the way the unique-index insert serializes them.
type blockingLockRepo struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (m *blockingLockRepo) Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	m.mu.Lock()
	if m.locks == nil {
		m.locks = map[string]*sync.Mutex{}
	}
	l, ok := m.locks[lock.ID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[lock.ID] = l
	}
	m.mu.Unlock()
	l.Lock()
	return lock, nil
}

func (m *blockingLockRepo) Delete(ctx context.Context, lockID string) error {
	m.mu.Lock()
	l := m.locks[lockID]
	m.mu.Unlock()
	if l != nil {
		l.Unlock()
	}
	return nil
}

// Two overlapping requests race for the same venue evening. The advisory
// lock serializes the commits and the loser re-detects against the winner's
// freshly approved range, so exactly one request ends up approved.
func TestApprove_ConcurrentOverlappingRequestsOneWins(t *testing.T) {
	reqA := pendingRequest()
	reqB := pendingRequest()
	reqB.ID = "665f1f77bcf86cd799439022"
	reqB.EventID = "665f1f77bcf86cd799439012"
	reqB.RequestedRange = model.TimeRange{Date: "2026-09-12", Start: "21:00", End: "23:30"}

	var commitMu sync.Mutex
	var committed []model.TimeRange

	det := &mockDetector{
		detectFunc: func(ctx context.Context, venueID string, candidate model.TimeRange) (*conflict.Result, error) {
			commitMu.Lock()
			defer commitMu.Unlock()
			if len(committed) > 0 {
				return &conflict.Result{
					Classification: conflict.DoubleBooked,
					Conflicts:      []map[string]any{{"type": "slot_request"}},
				}, nil
			}
			return &conflict.Result{Classification: conflict.Clear}, nil
		},
	}
	locks := &blockingLockRepo{}
	cfg := testConfig()

	serviceFor := func(req *model.SlotRequest) SlotService {
		repo := repoReturning(req)
		base := repo.updateTransitionFunc
		repo.updateTransitionFunc = func(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
			if confirmed, ok := set["confirmed_range"].(model.TimeRange); ok {
				commitMu.Lock()
				committed = append(committed, confirmed)
				commitMu.Unlock()
			}
			return base(ctx, id, expectedStatus, expectedVersion, set)
		}
		return NewSlotService(repo, locks, det, &mockScheduler{}, validator.NewSlotValidator(cfg.Log), nil, cfg)
	}

	serviceA := serviceFor(reqA)
	serviceB := serviceFor(reqB)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	run := func(idx int, svc SlotService, id string) {
		defer wg.Done()
		_, errs[idx] = svc.Transition(context.Background(), id, &model.SlotTransition{
			Action:  model.SlotActionApprove,
			ActorID: "venue-admin",
		})
	}
	wg.Add(2)
	go run(0, serviceA, reqA.ID)
	go run(1, serviceB, reqB.ID)
	wg.Wait()

	var approved, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			approved++
		case apperrors.IsCode(err, apperrors.CodeConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if approved != 1 || conflicted != 1 {
		t.Fatalf("expected exactly one approval and one conflict, got %d approved, %d conflicted (errs: %v)", approved, conflicted, errs)
	}
	if len(committed) != 1 {
		t.Errorf("expected exactly one committed range, got %v", committed)
	}
}

// A request cancelled mid-approval must still release its advisory locks
// instead of leaving the venue day locked until the TTL expires.
func TestApprove_LockReleaseSurvivesCancelledContext(t *testing.T) {
	current := pendingRequest()
	locks := &mockSlotLockRepository{}
	var releaseCtxErr error
	released := 0
	locks.deleteFunc = func(ctx context.Context, lockID string) error {
		released++
		releaseCtxErr = ctx.Err()
		return nil
	}
	service := newTestService(repoReturning(current), locks, &mockDetector{}, &mockScheduler{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := service.Transition(ctx, testSlotID, &model.SlotTransition{
		Action:  model.SlotActionApprove,
		ActorID: "venue-admin",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected one lock release, got %d", released)
	}
	if releaseCtxErr != nil {
		t.Errorf("expected release to run on a live context, got %v", releaseCtxErr)
	}
}

func TestApprove_StaleVersion(t *testing.T) {
	current := pendingRequest()
	repo := repoReturning(current)
	repo.updateTransitionFunc = func(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
		return nil, slotserrors.ErrStale
	}
	service := newTestService(repo, &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionApprove,
		ActorID: "venue-admin",
	})
	if !apperrors.IsCode(err, apperrors.CodeStaleState) {
		t.Fatalf("expected stale state error, got %v", err)
	}
}

// ────────────────────────────────────────────────
// Counter flow
// ────────────────────────────────────────────────

func TestCounter_StoresAlternativeRange(t *testing.T) {
	current := pendingRequest()
	var captured bson.M
	repo := repoReturning(current)
	base := repo.updateTransitionFunc
	repo.updateTransitionFunc = func(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
		captured = set
		return base(ctx, id, expectedStatus, expectedVersion, set)
	}
	service := newTestService(repo, &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	alt := model.TimeRange{Date: "2026-09-13", Start: "19:00", End: "22:00"}
	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:           model.SlotActionCounter,
		ActorID:          "venue-admin",
		AlternativeRange: &alt,
		Notes:            "Saturday is fully booked, Sunday works",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if captured["status"] != model.SlotCounterProposed {
		t.Errorf("expected status counter_proposed, got %v", captured["status"])
	}
	if captured["alternative_range"] != &alt {
		t.Errorf("expected alternative range to be persisted, got %v", captured["alternative_range"])
	}
}

func TestCounter_RequiresAlternativeRange(t *testing.T) {
	service := newTestService(repoReturning(pendingRequest()), &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionCounter,
		ActorID: "venue-admin",
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAcceptCounter_CommitsAlternativeRange(t *testing.T) {
	current := counterProposedRequest()
	sched := &mockScheduler{}
	service := newTestService(repoReturning(current), &mockSlotLockRepository{}, &mockDetector{}, sched)

	updated, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionAcceptCounter,
		ActorID: "host-17",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != model.SlotApproved {
		t.Errorf("expected status approved, got %q", updated.Status)
	}
	if len(sched.calls) != 1 || sched.calls[0] != *current.AlternativeRange {
		t.Errorf("expected scheduler called with alternative range, got %v", sched.calls)
	}
}

func TestAcceptCounter_InvalidatedWindowRejectsRequest(t *testing.T) {
	current := counterProposedRequest()
	repo := repoReturning(current)
	var captured bson.M
	base := repo.updateTransitionFunc
	repo.updateTransitionFunc = func(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
		captured = set
		return base(ctx, id, expectedStatus, expectedVersion, set)
	}
	det := &mockDetector{
		detectFunc: func(ctx context.Context, venueID string, candidate model.TimeRange) (*conflict.Result, error) {
			return &conflict.Result{
				Classification: conflict.DoubleBooked,
				Conflicts:      []map[string]any{{"kind": "slot_request"}},
			}, nil
		},
	}
	service := newTestService(repo, &mockSlotLockRepository{}, det, &mockScheduler{})

	updated, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionAcceptCounter,
		ActorID: "host-17",
	})
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if updated == nil || updated.Status != model.SlotRejected {
		t.Fatalf("expected request resolved to rejected, got %+v", updated)
	}
	if captured["venue_response"] != "The proposed alternative is no longer available" {
		t.Errorf("expected system response note, got %v", captured["venue_response"])
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Details["resolution"] != model.SlotRejected {
		t.Errorf("expected resolution detail, got %v", appErr.Details)
	}
}

func TestDeclineCounter_Rejects(t *testing.T) {
	current := counterProposedRequest()
	service := newTestService(repoReturning(current), &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	updated, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionDeclineCounter,
		ActorID: "host-17",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != model.SlotRejected {
		t.Errorf("expected status rejected, got %q", updated.Status)
	}
}

// ────────────────────────────────────────────────
// Reject, request changes, resubmit
// ────────────────────────────────────────────────

func TestReject_RequiresNotes(t *testing.T) {
	service := newTestService(repoReturning(pendingRequest()), &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionReject,
		ActorID: "venue-admin",
	})
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReject_FromPendingAndNeedsChanges(t *testing.T) {
	for _, status := range []string{model.SlotPending, model.SlotNeedsChanges} {
		t.Run(status, func(t *testing.T) {
			current := pendingRequest()
			current.Status = status
			service := newTestService(repoReturning(current), &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

			updated, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
				Action:  model.SlotActionReject,
				ActorID: "venue-admin",
				Notes:   "No availability that week",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if updated.Status != model.SlotRejected {
				t.Errorf("expected status rejected, got %q", updated.Status)
			}
		})
	}
}

func TestRequestChanges_ClearsAlternative(t *testing.T) {
	current := counterProposedRequest()
	var captured bson.M
	repo := repoReturning(current)
	base := repo.updateTransitionFunc
	repo.updateTransitionFunc = func(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
		captured = set
		return base(ctx, id, expectedStatus, expectedVersion, set)
	}
	service := newTestService(repo, &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionRequestChanges,
		ActorID: "venue-admin",
		Notes:   "Please shift to an earlier start",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if captured["status"] != model.SlotNeedsChanges {
		t.Errorf("expected status needs_changes, got %v", captured["status"])
	}
	if alt, ok := captured["alternative_range"]; !ok || alt != nil {
		t.Errorf("expected alternative range cleared, got %v", alt)
	}
}

func TestResubmit_ResetsNegotiationFields(t *testing.T) {
	current := pendingRequest()
	current.Status = model.SlotNeedsChanges
	current.VenueResponse = "Please shift to an earlier start"
	var captured bson.M
	repo := repoReturning(current)
	base := repo.updateTransitionFunc
	repo.updateTransitionFunc = func(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
		captured = set
		return base(ctx, id, expectedStatus, expectedVersion, set)
	}
	service := newTestService(repo, &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	newRange := model.TimeRange{Date: "2026-09-12", Start: "18:00", End: "21:00"}
	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:         model.SlotActionResubmit,
		ActorID:        "host-17",
		RequestedRange: &newRange,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if captured["status"] != model.SlotPending {
		t.Errorf("expected status pending, got %v", captured["status"])
	}
	if captured["requested_range"] != newRange {
		t.Errorf("expected new requested range, got %v", captured["requested_range"])
	}
	if captured["venue_response"] != "" {
		t.Errorf("expected venue response cleared, got %v", captured["venue_response"])
	}
	if respondedAt, ok := captured["responded_at"]; !ok || respondedAt != nil {
		t.Errorf("expected responded_at cleared, got %v", respondedAt)
	}
}

func TestResubmit_OnlyFromNeedsChanges(t *testing.T) {
	service := newTestService(repoReturning(pendingRequest()), &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionResubmit,
		ActorID: "host-17",
	})
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransition_NotFound(t *testing.T) {
	service := newTestService(&mockSlotRequestRepository{}, &mockSlotLockRepository{}, &mockDetector{}, &mockScheduler{})

	_, err := service.Transition(context.Background(), testSlotID, &model.SlotTransition{
		Action:  model.SlotActionApprove,
		ActorID: "venue-admin",
	})
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
