package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	eventserrors "stagedoor/internal/events/errors"
	"stagedoor/pkg/config"
	mongotx "stagedoor/pkg/db/mongo"
	"stagedoor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Events"
)

type mongoEventRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, id string) (*model.Event, error)
	Search(ctx context.Context, hostID, venueID, lifecycle string, limit int, offset int64) ([]*model.Event, error)
	CountBySearch(ctx context.Context, hostID, venueID, lifecycle string) (int64, error)
	UpdateContent(ctx context.Context, id string, set bson.M) (*mongo.UpdateResult, error)
	UpdateLifecycle(ctx context.Context, id string, expectedLifecycles []string, expectedVersion int64, set bson.M) (*model.Event, error)
	FindDueToStart(ctx context.Context, now time.Time, limit int) ([]*model.Event, error)
	FindDueToComplete(ctx context.Context, deadline time.Time, limit int) ([]*model.Event, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoEventRepository(cfg *config.Config) EventRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoEventRepository{
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

func (r *mongoEventRepository) Create(ctx context.Context, event *model.Event) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	event.CreatedAt = now
	event.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	var event model.Event
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, eventserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}

	return &event, nil
}

func (r *mongoEventRepository) Search(ctx context.Context, hostID, venueID, lifecycle string, limit int, offset int64) ([]*model.Event, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildSearchFilter(hostID, venueID, lifecycle), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

func (r *mongoEventRepository) CountBySearch(ctx context.Context, hostID, venueID, lifecycle string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(hostID, venueID, lifecycle))
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func buildSearchFilter(hostID, venueID, lifecycle string) bson.M {
	filter := bson.M{}
	if hostID != "" {
		filter["host_id"] = hostID
	}
	if venueID != "" {
		filter["venue_id"] = venueID
	}
	if lifecycle != "" {
		filter["lifecycle"] = lifecycle
	}
	return filter
}

// UpdateContent changes presentation fields only. Lifecycle moves go
// through UpdateLifecycle so the conditional write cannot be bypassed.
func (r *mongoEventRepository) UpdateContent(ctx context.Context, id string, set bson.M) (*mongo.UpdateResult, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	set["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, eventserrors.ErrNotFound
	}

	return result, nil
}

// UpdateLifecycle applies a lifecycle transition as a single conditional
// write pinned to the expected lifecycles and version. No match resolves
// to ErrStale when the document exists and ErrNotFound when it does not.
func (r *mongoEventRepository) UpdateLifecycle(ctx context.Context, id string, expectedLifecycles []string, expectedVersion int64, set bson.M) (*model.Event, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}

	set["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{
		"_id":       objectID,
		"lifecycle": bson.M{"$in": expectedLifecycles},
		"version":   expectedVersion,
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Event
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			exists, checkErr := r.exists(ctx, objectID)
			if checkErr != nil {
				return nil, checkErr
			}
			if exists {
				return nil, eventserrors.ErrStale
			}
			return nil, eventserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to transition event: %w", err)
	}

	return &updated, nil
}

func (r *mongoEventRepository) exists(ctx context.Context, objectID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	}
	return count > 0, nil
}

// FindDueToStart returns scheduled events whose start instant has passed.
func (r *mongoEventRepository) FindDueToStart(ctx context.Context, now time.Time, limit int) ([]*model.Event, error) {
	return r.findDue(ctx, model.EventScheduled, "start_at", now, limit)
}

// FindDueToComplete returns live events whose end instant passed the given
// deadline (end plus the completion grace period).
func (r *mongoEventRepository) FindDueToComplete(ctx context.Context, deadline time.Time, limit int) ([]*model.Event, error) {
	return r.findDue(ctx, model.EventLive, "end_at", deadline, limit)
}

func (r *mongoEventRepository) findDue(ctx context.Context, lifecycle, field string, cutoff time.Time, limit int) ([]*model.Event, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// Paused events still advance; the flag rides along unchanged.
	filter := bson.M{
		"lifecycle": lifecycle,
		field:       bson.M{"$lte": cutoff},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find due events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*model.Event
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

func (r *mongoEventRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
