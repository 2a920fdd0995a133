package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/domain"
)

// newestFirst orders by creation time, breaking ties on the ObjectID so
// listing order is strict even for events created in the same millisecond.
var newestFirst = bson.D{
	{Key: "created_at", Value: -1},
	{Key: "_id", Value: -1},
}

// Pinger checks connectivity of the backing deployment
type Pinger interface {
	Ping(ctx context.Context) error
}

// Repository implements EventRepository for MongoDB
type Repository struct {
	collection *mongo.Collection
	pinger     Pinger
	log        *zap.Logger
}

// NewRepository creates a new MongoDB repository
func NewRepository(collection *mongo.Collection, pinger Pinger, log *zap.Logger) *Repository {
	return &Repository{
		collection: collection,
		pinger:     pinger,
		log:        log,
	}
}

// EnsureIndexes creates the index backing the default listing order
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	name, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    newestFirst,
		Options: options.Index().SetName("created_at_desc"),
	})
	if err != nil {
		return fmt.Errorf("failed to create events index: %w", err)
	}

	r.log.Info("MongoDB indexes ensured", zap.String("index", name))
	return nil
}

// Insert stores a new event, assigning an ObjectID when the event has none
func (r *Repository) Insert(ctx context.Context, event *domain.Event) error {
	if event.ID.IsZero() {
		event.ID = bson.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// List returns all events ordered by creation time descending
func (r *Repository) List(ctx context.Context) ([]*domain.Event, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	events := make([]*domain.Event, 0)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}

	return events, nil
}

// FindByID returns the event with the given hex ID. Unknown and malformed
// IDs both yield nil without an error.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	objectID, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	var event domain.Event
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event %s: %w", id, err)
	}

	return &event, nil
}

// DeleteByID removes the event and returns the deleted document
func (r *Repository) DeleteByID(ctx context.Context, id string) (*domain.Event, error) {
	objectID, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	var event domain.Event
	err := r.collection.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: objectID}}).Decode(&event)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete event %s: %w", id, err)
	}

	return &event, nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.pinger.Ping(ctx)
}

func parseID(id string) (bson.ObjectID, bool) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return objectID, true
}
