package consumer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/domain"
	"github.com/BarkinBalci/event-board-service/internal/repository"
)

// finalFlushTimeout bounds the last write after the pipeline context is done
const finalFlushTimeout = 10 * time.Second

// BatchWriterConfig configures the batch writer
type BatchWriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// BatchWriter groups envelopes and writes them to the activity log. A batch
// is settled as a whole: every envelope is acked after a complete insert and
// nacked otherwise.
type BatchWriter struct {
	repository repository.ActivityRepository
	config     BatchWriterConfig
	log        *zap.Logger
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(repo repository.ActivityRepository, config BatchWriterConfig, log *zap.Logger) *BatchWriter {
	return &BatchWriter{
		repository: repo,
		config:     config,
		log:        log,
	}
}

// Start flushes when the batch is full, when FlushTimeout passes without a
// size flush, and once more when the input ends or ctx is cancelled
func (w *BatchWriter) Start(ctx context.Context, in <-chan *Envelope) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	pending := make([]*Envelope, 0, w.config.MaxBatchSize)
	flush := func(ctx context.Context, reason string) {
		if len(pending) == 0 {
			return
		}
		w.log.Debug("Flushing batch", zap.String("reason", reason), zap.Int("envelope_count", len(pending)))
		w.write(ctx, pending)
		pending = make([]*Envelope, 0, w.config.MaxBatchSize)
	}

	for {
		select {
		case <-ctx.Done():
			w.flushDetached(flush, "shutdown")
			return

		case envelope, ok := <-in:
			if !ok {
				w.flushDetached(flush, "input closed")
				return
			}

			pending = append(pending, envelope)
			if len(pending) >= w.config.MaxBatchSize {
				flush(ctx, "size")
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			flush(ctx, "timeout")
		}
	}
}

// flushDetached runs the last flush on a fresh context so shutdown does not
// abort the write it is waiting for
func (w *BatchWriter) flushDetached(flush func(context.Context, string), reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()
	flush(ctx, reason)
	w.log.Info("Batch writer stopped", zap.String("reason", reason))
}

func (w *BatchWriter) write(ctx context.Context, envelopes []*Envelope) {
	activities := make([]*domain.Activity, len(envelopes))
	for i, env := range envelopes {
		activities[i] = env.Activity
	}

	inserted, err := w.repository.InsertBatch(ctx, activities)
	if err == nil && inserted != len(activities) {
		err = fmt.Errorf("inserted %d of %d activities", inserted, len(activities))
	}
	if err != nil {
		w.log.Error("Failed to write activity batch, scheduling retry",
			zap.Int("activity_count", len(activities)),
			zap.Error(err))
		w.settle(ctx, envelopes, (*Envelope).Nack, "nack")
		return
	}

	w.log.Info("Inserted activities", zap.Int("count", inserted))
	w.settle(ctx, envelopes, (*Envelope).Ack, "ack")
}

func (w *BatchWriter) settle(ctx context.Context, envelopes []*Envelope, fn func(*Envelope, context.Context) error, op string) {
	for _, env := range envelopes {
		if err := fn(env, ctx); err != nil {
			w.log.Error("Failed to settle envelope",
				zap.String("op", op),
				zap.String("message_id", env.MessageID),
				zap.Int("attempt", env.Attempt),
				zap.Error(err))
		}
	}
}
