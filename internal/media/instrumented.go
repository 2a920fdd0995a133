package media

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Observer receives the outcome of each backend call
type Observer interface {
	ObserveMediaOperation(operation string, err error)
}

// Instrumented decorates a Backend with outcome metrics and timing logs
type Instrumented struct {
	backend  Backend
	observer Observer
	log      *zap.Logger
}

// NewInstrumented wraps backend
func NewInstrumented(backend Backend, observer Observer, log *zap.Logger) *Instrumented {
	return &Instrumented{
		backend:  backend,
		observer: observer,
		log:      log,
	}
}

func (i *Instrumented) Upload(ctx context.Context, file *File) (*Stored, error) {
	start := time.Now()
	stored, err := i.backend.Upload(ctx, file)
	i.observer.ObserveMediaOperation("upload", err)

	if err != nil {
		i.log.Warn("Media upload failed",
			zap.String("file_name", file.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	i.log.Debug("Media upload finished",
		zap.String("file_name", file.Name),
		zap.String("key", stored.Key),
		zap.Duration("elapsed", time.Since(start)))
	return stored, nil
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.backend.Delete(ctx, key)
	i.observer.ObserveMediaOperation("delete", err)

	if err != nil {
		i.log.Warn("Media delete failed",
			zap.String("key", key),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}
	return err
}
