package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	venueserrors "stagedoor/internal/venues/errors"
	"stagedoor/pkg/config"
	"stagedoor/pkg/interval"
	"stagedoor/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	BlockCollectionName = "Venue_blocks"
)

// VenueBlockRepository stores venue-authored unavailability windows.
type VenueBlockRepository interface {
	Create(ctx context.Context, block *model.VenueBlock) error
	FindByID(ctx context.Context, id string) (*model.VenueBlock, error)
	FindByVenueAndDates(ctx context.Context, venueID string, fromDate string, toDate string) ([]*model.VenueBlock, error)
	Delete(ctx context.Context, id string) error
}

type mongoVenueBlockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoVenueBlockRepository(cfg *config.Config) VenueBlockRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoVenueBlockRepository{
		cfg:        cfg,
		collection: db.Collection(BlockCollectionName),
	}
}

func (r *mongoVenueBlockRepository) Create(ctx context.Context, block *model.VenueBlock) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	block.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, block)
	if err != nil {
		return fmt.Errorf("failed to create venue block: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		block.ID = oid.Hex()
	}
	return nil
}

func (r *mongoVenueBlockRepository) FindByID(ctx context.Context, id string) (*model.VenueBlock, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	var block model.VenueBlock
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&block)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, venueserrors.ErrBlockNotFound
		}
		return nil, fmt.Errorf("failed to find venue block: %w", err)
	}

	return &block, nil
}

// FindByVenueAndDates fetches blocks whose stored date falls in
// [fromDate-1d, toDate]. The extra day catches blocks that wrap past
// midnight into the queried window; callers filter with TouchesDate.
func (r *mongoVenueBlockRepository) FindByVenueAndDates(ctx context.Context, venueID string, fromDate string, toDate string) ([]*model.VenueBlock, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	from, err := interval.PrevDate(fromDate)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", fromDate, err)
	}

	filter := bson.M{
		"venue_id": venueID,
		"date":     bson.M{"$gte": from, "$lte": toDate},
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find venue blocks: %w", err)
	}
	defer cursor.Close(ctx)

	var blocks []*model.VenueBlock
	if err = cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode venue blocks: %w", err)
	}

	return blocks, nil
}

func (r *mongoVenueBlockRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", venueserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete venue block: %w", err)
	}

	if result.DeletedCount == 0 {
		return venueserrors.ErrBlockNotFound
	}

	return nil
}
