package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/domain"
	"github.com/BarkinBalci/event-board-service/internal/dto"
	"github.com/BarkinBalci/event-board-service/internal/queue"
)

// Message types pushed to real-time clients
const (
	TypeEventCreated = "eventCreated"
	TypeEventDeleted = "eventDeleted"
)

const (
	relayQueueSize      = 256
	defaultRelayTimeout = 5 * time.Second
)

// BroadcastObserver counts broadcasts by message type
type BroadcastObserver interface {
	ObserveBroadcast(messageType string)
}

type relayJob struct {
	ctx      context.Context
	activity *domain.Activity
}

// Notifier pushes lifecycle notifications to connected clients and, when a
// relay is configured, to the activity queue. It never reports failures to
// the caller. Relayed activities are published by a background worker, off
// the request path.
type Notifier struct {
	hub          *Hub
	relay        queue.ActivityPublisher
	observer     BroadcastObserver
	now          func() time.Time
	relayTimeout time.Duration
	log          *zap.Logger

	mu     sync.Mutex
	closed bool
	jobs   chan relayJob
	done   chan struct{}
}

// NewNotifier creates a notifier. relay may be nil; otherwise Close must be
// called to flush pending activities.
func NewNotifier(hub *Hub, relay queue.ActivityPublisher, observer BroadcastObserver, log *zap.Logger) *Notifier {
	n := &Notifier{
		hub:          hub,
		relay:        relay,
		observer:     observer,
		now:          time.Now,
		relayTimeout: defaultRelayTimeout,
		log:          log,
		done:         make(chan struct{}),
	}

	if relay == nil {
		close(n.done)
		return n
	}

	n.jobs = make(chan relayJob, relayQueueSize)
	go n.runRelay()
	return n
}

// Close stops accepting activities and waits until the queued ones are
// published or ctx ends
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		if n.jobs != nil {
			close(n.jobs)
		}
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EventCreated broadcasts the full created event
func (n *Notifier) EventCreated(ctx context.Context, event *domain.Event) {
	n.broadcast(Message{Type: TypeEventCreated, Payload: event})

	n.relayActivity(ctx, &domain.Activity{
		Action:   domain.ActivityCreated,
		EventID:  event.ID.Hex(),
		Title:    event.Title,
		ImageKey: event.ImageKey,
	})
}

// EventDeleted broadcasts the identifier of the deleted event
func (n *Notifier) EventDeleted(ctx context.Context, id string) {
	n.broadcast(Message{Type: TypeEventDeleted, Payload: dto.DeletedNotice{ID: id}})

	n.relayActivity(ctx, &domain.Activity{
		Action:  domain.ActivityDeleted,
		EventID: id,
	})
}

func (n *Notifier) broadcast(msg Message) {
	delivered := n.hub.Broadcast(msg)
	if n.observer != nil {
		n.observer.ObserveBroadcast(msg.Type)
	}

	n.log.Debug("Broadcast sent",
		zap.String("type", msg.Type),
		zap.Int("delivered", delivered))
}

func (n *Notifier) relayActivity(ctx context.Context, activity *domain.Activity) {
	if n.relay == nil {
		return
	}

	activity.ActivityID = uuid.NewString()
	activity.OccurredAt = n.now().UTC()

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		n.log.Warn("Dropping activity after shutdown",
			zap.String("action", activity.Action),
			zap.String("event_id", activity.EventID))
		return
	}

	// The request may finish before the relay does; keep its values, drop its cancellation.
	select {
	case n.jobs <- relayJob{ctx: context.WithoutCancel(ctx), activity: activity}:
	default:
		n.log.Warn("Activity relay queue full, dropping activity",
			zap.String("action", activity.Action),
			zap.String("event_id", activity.EventID))
	}
}

func (n *Notifier) runRelay() {
	defer close(n.done)

	for job := range n.jobs {
		n.publish(job)
	}
}

func (n *Notifier) publish(job relayJob) {
	ctx, cancel := context.WithTimeout(job.ctx, n.relayTimeout)
	defer cancel()

	if err := n.relay.PublishActivity(ctx, job.activity); err != nil {
		n.log.Warn("Failed to relay activity",
			zap.String("action", job.activity.Action),
			zap.String("event_id", job.activity.EventID),
			zap.Error(err))
	}
}
