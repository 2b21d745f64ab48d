package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	slotserrors "stagedoor/internal/slots/errors"
	"stagedoor/pkg/config"
	mongotx "stagedoor/pkg/db/mongo"
	"stagedoor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Slot_requests"
)

type mongoSlotRequestRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type SlotRequestRepository interface {
	Create(ctx context.Context, req *model.SlotRequest) error
	FindByID(ctx context.Context, id string) (*model.SlotRequest, error)
	FindPendingByVenue(ctx context.Context, venueID string, limit int, offset int64) ([]*model.SlotRequest, error)
	CountPendingByVenue(ctx context.Context, venueID string) (int64, error)
	Search(ctx context.Context, venueID, eventID, status string, limit int, offset int64) ([]*model.SlotRequest, error)
	CountBySearch(ctx context.Context, venueID, eventID, status string) (int64, error)
	FindApprovedByVenueAndDates(ctx context.Context, venueID string, fromDate, toDate string) ([]*model.SlotRequest, error)
	FindOpenByHostAndDates(ctx context.Context, venueID, hostID string, fromDate, toDate string) ([]*model.SlotRequest, error)
	UpdateTransition(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoSlotRequestRepository(cfg *config.Config) SlotRequestRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoSlotRequestRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction. SessionContext cannot be wrapped without breaking
// transaction semantics, so it is returned unchanged.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// Create relies on the partial unique index on event_id over open statuses
// to enforce the single-negotiation-per-event rule.
func (r *mongoSlotRequestRepository) Create(ctx context.Context, req *model.SlotRequest) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	req.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return slotserrors.ErrOpenNegotiation
		}
		return fmt.Errorf("failed to create slot request: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		req.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSlotRequestRepository) FindByID(ctx context.Context, id string) (*model.SlotRequest, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	var req model.SlotRequest
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, slotserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find slot request: %w", err)
	}

	return &req, nil
}

func (r *mongoSlotRequestRepository) FindPendingByVenue(ctx context.Context, venueID string, limit int, offset int64) ([]*model.SlotRequest, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, pendingByVenueFilter(venueID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending slot requests: %w", err)
	}
	defer cursor.Close(ctx)

	var reqs []*model.SlotRequest
	if err = cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode slot requests: %w", err)
	}

	return reqs, nil
}

func (r *mongoSlotRequestRepository) CountPendingByVenue(ctx context.Context, venueID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, pendingByVenueFilter(venueID))
	if err != nil {
		return 0, fmt.Errorf("failed to count pending slot requests: %w", err)
	}
	return count, nil
}

func pendingByVenueFilter(venueID string) bson.M {
	return bson.M{
		"venue_id": venueID,
		"status":   bson.M{"$in": model.OpenSlotStatuses},
	}
}

func (r *mongoSlotRequestRepository) Search(ctx context.Context, venueID, eventID, status string, limit int, offset int64) ([]*model.SlotRequest, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildSearchFilter(venueID, eventID, status), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search slot requests: %w", err)
	}
	defer cursor.Close(ctx)

	var reqs []*model.SlotRequest
	if err = cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode slot requests: %w", err)
	}

	return reqs, nil
}

func (r *mongoSlotRequestRepository) CountBySearch(ctx context.Context, venueID, eventID, status string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(venueID, eventID, status))
	if err != nil {
		return 0, fmt.Errorf("failed to count slot requests: %w", err)
	}
	return count, nil
}

func buildSearchFilter(venueID, eventID, status string) bson.M {
	filter := bson.M{}
	if venueID != "" {
		filter["venue_id"] = venueID
	}
	if eventID != "" {
		filter["event_id"] = eventID
	}
	if status != "" {
		filter["status"] = status
	}
	return filter
}

// FindApprovedByVenueAndDates returns approved requests whose confirmed
// range is anchored on a date in [fromDate, toDate]. Dates are ISO strings,
// so lexicographic compare matches chronological order.
func (r *mongoSlotRequestRepository) FindApprovedByVenueAndDates(ctx context.Context, venueID string, fromDate, toDate string) ([]*model.SlotRequest, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"venue_id":             venueID,
		"status":               model.SlotApproved,
		"confirmed_range.date": bson.M{"$gte": fromDate, "$lte": toDate},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "confirmed_range.date", Value: 1}}).
		SetLimit(int64(r.cfg.MaxConflictScan))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find approved slot requests: %w", err)
	}
	defer cursor.Close(ctx)

	var reqs []*model.SlotRequest
	if err = cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode slot requests: %w", err)
	}

	return reqs, nil
}

// FindOpenByHostAndDates returns the host's own non-terminal requests whose
// requested or alternative range is anchored on a date in [fromDate, toDate].
func (r *mongoSlotRequestRepository) FindOpenByHostAndDates(ctx context.Context, venueID, hostID string, fromDate, toDate string) ([]*model.SlotRequest, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	dateRange := bson.M{"$gte": fromDate, "$lte": toDate}
	filter := bson.M{
		"venue_id": venueID,
		"host_id":  hostID,
		"status":   bson.M{"$in": model.OpenSlotStatuses},
		"$or": []bson.M{
			{"requested_range.date": dateRange},
			{"alternative_range.date": dateRange},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find open slot requests: %w", err)
	}
	defer cursor.Close(ctx)

	var reqs []*model.SlotRequest
	if err = cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode slot requests: %w", err)
	}

	return reqs, nil
}

// UpdateTransition applies a status transition as a single conditional
// write. The filter pins the expected status and version, so a concurrent
// transition makes this a no-match: ErrStale when the document still exists,
// ErrNotFound when it does not.
func (r *mongoSlotRequestRepository) UpdateTransition(ctx context.Context, id string, expectedStatus []string, expectedVersion int64, set bson.M) (*model.SlotRequest, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", slotserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":     objectID,
		"status":  bson.M{"$in": expectedStatus},
		"version": expectedVersion,
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.SlotRequest
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			exists, checkErr := r.exists(ctx, objectID)
			if checkErr != nil {
				return nil, checkErr
			}
			if exists {
				return nil, slotserrors.ErrStale
			}
			return nil, slotserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to transition slot request: %w", err)
	}

	return &updated, nil
}

func (r *mongoSlotRequestRepository) exists(ctx context.Context, objectID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fmt.Errorf("failed to check slot request existence: %w", err)
	}
	return count > 0, nil
}

func (r *mongoSlotRequestRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
