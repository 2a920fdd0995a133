package service

import (
	"context"

	"github.com/BarkinBalci/event-board-service/internal/domain"
	"github.com/BarkinBalci/event-board-service/internal/dto"
	"github.com/BarkinBalci/event-board-service/internal/media"
)

// EventServicer defines the interface for event service operations
type EventServicer interface {
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest, image *media.File) (*domain.Event, error)
	ListEvents(ctx context.Context) ([]*domain.Event, error)
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	DeleteEvent(ctx context.Context, id string) (*domain.Event, error)
	Ping(ctx context.Context) error
}
