package consumer

import (
	"context"
	"sync/atomic"

	"github.com/BarkinBalci/event-board-service/internal/domain"
)

// Envelope carries one parsed activity through the pipeline along with the
// queue bookkeeping needed to settle it. Only the first Ack or Nack counts.
type Envelope struct {
	MessageID string
	Attempt   int
	Activity  *domain.Activity

	ack     func(context.Context) error
	nack    func(context.Context) error
	settled atomic.Bool
}

// NewEnvelope creates a new message envelope
func NewEnvelope(messageID string, attempt int, activity *domain.Activity, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		MessageID: messageID,
		Attempt:   attempt,
		Activity:  activity,
		ack:       ack,
		nack:      nack,
	}
}

// Ack marks the message as processed so it is not redelivered
func (e *Envelope) Ack(ctx context.Context) error {
	return e.settle(ctx, e.ack)
}

// Nack hands the message back to the queue for a later retry
func (e *Envelope) Nack(ctx context.Context) error {
	return e.settle(ctx, e.nack)
}

func (e *Envelope) settle(ctx context.Context, fn func(context.Context) error) error {
	if !e.settled.CompareAndSwap(false, true) || fn == nil {
		return nil
	}
	return fn(ctx)
}
