package notifier

import (
	"context"

	"github.com/BarkinBalci/event-board-service/internal/domain"
)

// EventNotifier defines the broadcasts triggered by event mutations
type EventNotifier interface {
	EventCreated(ctx context.Context, event *domain.Event)
	EventDeleted(ctx context.Context, id string)
}

// StreamHub defines the client registry used by the real-time stream endpoint
type StreamHub interface {
	Subscribe() (*Subscription, error)
	Unsubscribe(id string)
}
