package repository

import (
	"context"

	"github.com/BarkinBalci/event-board-service/internal/domain"
)

// EventRepository defines the interface for event record storage
type EventRepository interface {
	// Insert stores a new event and assigns its ID
	Insert(ctx context.Context, event *domain.Event) error

	// List returns every event, newest first
	List(ctx context.Context) ([]*domain.Event, error)

	// FindByID returns the event with the given ID, or nil if there is none
	FindByID(ctx context.Context, id string) (*domain.Event, error)

	// DeleteByID removes the event and returns it, or nil if there was none
	DeleteByID(ctx context.Context, id string) (*domain.Event, error)

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error
}

// ActivityRepository defines the interface for the lifecycle activity log
type ActivityRepository interface {
	// InsertBatch inserts a batch of activities into the storage
	InsertBatch(ctx context.Context, activities []*domain.Activity) (int, error)

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error
}
