package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/domain"
	"github.com/BarkinBalci/event-board-service/internal/dto"
	"github.com/BarkinBalci/event-board-service/internal/media"
	"github.com/BarkinBalci/event-board-service/internal/repository"
)

var (
	// ErrValidation marks a malformed create request
	ErrValidation = errors.New("invalid event")
	// ErrUploadFailed marks a media upload failure; no record was created
	ErrUploadFailed = errors.New("image upload failed")
	// ErrMediaDeleteFailed marks a media delete failure; the record was kept
	ErrMediaDeleteFailed = errors.New("image delete failed")
)

// EventService represents event service
type EventService struct {
	repository repository.EventRepository
	media      media.Backend
	now        func() time.Time
	log        *zap.Logger
}

// NewEventService creates a new event service
func NewEventService(repo repository.EventRepository, mediaBackend media.Backend, log *zap.Logger) *EventService {
	return &EventService{
		repository: repo,
		media:      mediaBackend,
		now:        time.Now,
		log:        log,
	}
}

// CreateEvent uploads the image, if any, and then persists the record.
// The record is only written after the upload has succeeded.
func (s *EventService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest, image *media.File) (*domain.Event, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	event := &domain.Event{
		Title:       title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if image != nil {
		stored, err := s.media.Upload(ctx, image)
		if err != nil {
			s.log.Error("Image upload failed, event not created",
				zap.String("title", title),
				zap.String("file_name", image.Name),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		event.ImageURL = stored.URL
		event.ImageKey = stored.Key
	}

	if err := s.repository.Insert(ctx, event); err != nil {
		// TODO: delete the uploaded image here so it is not left orphaned in the media backend
		return nil, fmt.Errorf("failed to persist event: %w", err)
	}

	s.log.Info("Event created",
		zap.String("event_id", event.ID.Hex()),
		zap.String("title", event.Title),
		zap.Bool("has_image", event.HasImage()))

	return event, nil
}

// ListEvents returns every event, newest first
func (s *EventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	events, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetEvent returns the event or nil when it does not exist
func (s *EventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// DeleteEvent removes the event's image and then the record. It returns nil
// when the event does not exist. If the image delete fails the record stays.
func (s *EventService) DeleteEvent(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up event: %w", err)
	}
	if event == nil {
		return nil, nil
	}

	if event.HasImage() {
		if err := s.media.Delete(ctx, event.ImageKey); err != nil {
			s.log.Error("Image delete failed, event kept",
				zap.String("event_id", id),
				zap.String("image_key", event.ImageKey),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrMediaDeleteFailed, err)
		}
	}

	deleted, err := s.repository.DeleteByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}
	if deleted == nil {
		// A concurrent delete got there first.
		s.log.Warn("Event vanished before delete", zap.String("event_id", id))
		return nil, nil
	}

	s.log.Info("Event deleted",
		zap.String("event_id", id),
		zap.Bool("had_image", deleted.HasImage()))

	return deleted, nil
}

// Ping checks the persistence backend
func (s *EventService) Ping(ctx context.Context) error {
	return s.repository.Ping(ctx)
}
