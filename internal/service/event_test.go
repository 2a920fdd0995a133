package service

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"github.com/BarkinBalci/event-board-service/internal/domain"
	"github.com/BarkinBalci/event-board-service/internal/dto"
	"github.com/BarkinBalci/event-board-service/internal/media"
)

// MockEventRepository is a mock implementation of repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Insert(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

func (m *MockEventRepository) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventRepository) DeleteByID(ctx context.Context, id string) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMediaBackend is a mock implementation of media.Backend
type MockMediaBackend struct {
	mock.Mock
}

func (m *MockMediaBackend) Upload(ctx context.Context, file *media.File) (*media.Stored, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*media.Stored), args.Error(1)
}

func (m *MockMediaBackend) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// memoryRepository is an in-memory EventRepository with the same ordering
// and not-found semantics as the MongoDB one.
type memoryRepository struct {
	mu     sync.Mutex
	events map[bson.ObjectID]domain.Event
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{events: make(map[bson.ObjectID]domain.Event)}
}

func (r *memoryRepository) Insert(_ context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID.IsZero() {
		event.ID = bson.NewObjectID()
	}
	r.events[event.ID] = *event
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]*domain.Event, 0, len(r.events))
	for _, e := range r.events {
		e := e
		events = append(events, &e)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].ID.Hex() > events[j].ID.Hex()
	})
	return events, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	e, ok := r.events[objectID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *memoryRepository) DeleteByID(_ context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	e, ok := r.events[objectID]
	if !ok {
		return nil, nil
	}
	delete(r.events, objectID)
	return &e, nil
}

func (r *memoryRepository) Ping(context.Context) error { return nil }

// steppingClock returns a strictly increasing time on each call
func steppingClock() func() time.Time {
	current := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func fakeImage() *media.File {
	data := []byte("\x89PNG\r\n\x1a\n\x00\x00")
	return &media.File{Name: "launch.png", Size: int64(len(data)), ContentType: "image/png", Reader: bytes.NewReader(data)}
}

func newMemoryService(mediaBackend *MockMediaBackend) (*EventService, *memoryRepository) {
	repo := newMemoryRepository()
	svc := NewEventService(repo, mediaBackend, zap.NewNop())
	svc.now = steppingClock()
	return svc, repo
}

func TestEventService_CreateEvent_WithoutImage_RoundTrip(t *testing.T) {
	mockMedia := new(MockMediaBackend)
	svc, _ := newMemoryService(mockMedia)
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, &dto.CreateEventRequest{Title: "Launch", Description: "Party"}, nil)
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Empty(t, created.ImageURL)
	assert.Empty(t, created.ImageKey)

	found, err := svc.GetEvent(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, created, found)
	mockMedia.AssertNotCalled(t, "Upload")
}

func TestEventService_CreateEvent_WithImage(t *testing.T) {
	mockMedia := new(MockMediaBackend)
	svc, _ := newMemoryService(mockMedia)
	ctx := context.Background()

	image := fakeImage()
	mockMedia.On("Upload", mock.Anything, image).Return(&media.Stored{
		URL: "https://res.cloudinary.com/demo/image/upload/heyama-events/launch.png",
		Key: "heyama-events/launch",
	}, nil).Once()

	created, err := svc.CreateEvent(ctx, &dto.CreateEventRequest{Title: "Launch"}, image)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(created.ImageURL, "https://"))
	assert.NotEmpty(t, created.ImageKey)

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, created, events[0])
	mockMedia.AssertExpectations(t)
}

func TestEventService_CreateEvent_TrimsTitle(t *testing.T) {
	svc, _ := newMemoryService(new(MockMediaBackend))

	created, err := svc.CreateEvent(context.Background(), &dto.CreateEventRequest{Title: "  Launch  "}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Launch", created.Title)
}

func TestEventService_CreateEvent_BlankTitle(t *testing.T) {
	mockMedia := new(MockMediaBackend)
	mockRepo := new(MockEventRepository)
	svc := NewEventService(mockRepo, mockMedia, zap.NewNop())

	created, err := svc.CreateEvent(context.Background(), &dto.CreateEventRequest{Title: "   "}, fakeImage())

	assert.Nil(t, created)
	assert.ErrorIs(t, err, ErrValidation)
	mockMedia.AssertNotCalled(t, "Upload")
	mockRepo.AssertNotCalled(t, "Insert")
}

func TestEventService_CreateEvent_UploadFailureLeavesNoRecord(t *testing.T) {
	mockMedia := new(MockMediaBackend)
	svc, _ := newMemoryService(mockMedia)
	ctx := context.Background()

	_, err := svc.CreateEvent(ctx, &dto.CreateEventRequest{Title: "Existing"}, nil)
	require.NoError(t, err)
	before, err := svc.ListEvents(ctx)
	require.NoError(t, err)

	uploadErr := errors.New("cloudinary: request timeout")
	mockMedia.On("Upload", mock.Anything, mock.Anything).Return(nil, uploadErr)

	created, err := svc.CreateEvent(ctx, &dto.CreateEventRequest{Title: "Launch"}, fakeImage())

	assert.Nil(t, created)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.ErrorIs(t, err, uploadErr)

	after, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEventService_CreateEvent_PersistenceError(t *testing.T) {
	mockMedia := new(MockMediaBackend)
	mockRepo := new(MockEventRepository)
	svc := NewEventService(mockRepo, mockMedia, zap.NewNop())

	mockRepo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Event")).Return(errors.New("write concern error"))

	created, err := svc.CreateEvent(context.Background(), &dto.CreateEventRequest{Title: "Launch"}, nil)

	assert.Nil(t, created)
	assert.ErrorContains(t, err, "failed to persist event")
	assert.NotErrorIs(t, err, ErrUploadFailed)
}

func TestEventService_ListEvents_NewestFirst(t *testing.T) {
	svc, _ := newMemoryService(new(MockMediaBackend))
	ctx := context.Background()

	titles := []string{"one", "two", "three", "four"}
	for _, title := range titles {
		_, err := svc.CreateEvent(ctx, &dto.CreateEventRequest{Title: title}, nil)
		require.NoError(t, err)
	}

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, len(titles))

	for i := 1; i < len(events); i++ {
		assert.True(t, events[i-1].CreatedAt.After(events[i].CreatedAt))
	}
	assert.Equal(t, "four", events[0].Title)
	assert.Equal(t, "one", events[3].Title)
}

func TestEventService_ListEvents_RepositoryError(t *testing.T) {
	mockRepo := new(MockEventRepository)
	svc := NewEventService(mockRepo, new(MockMediaBackend), zap.NewNop())

	mockRepo.On("List", mock.Anything).Return(nil, errors.New("cursor killed"))

	events, err := svc.ListEvents(context.Background())

	assert.Nil(t, events)
	assert.ErrorContains(t, err, "cursor killed")
}

func TestEventService_GetEvent_Unknown(t *testing.T) {
	svc, _ := newMemoryService(new(MockMediaBackend))

	event, err := svc.GetEvent(context.Background(), "doesnotexist")

	assert.NoError(t, err)
	assert.Nil(t, event)
}

func TestEventService_DeleteEvent_WithImage(t *testing.T) {
	mockMedia := new(MockMediaBackend)
	svc, _ := newMemoryService(mockMedia)
	ctx := context.Background()

	mockMedia.On("Upload", mock.Anything, mock.Anything).
		Return(&media.Stored{URL: "https://cdn.example.com/a.png", Key: "heyama-events/a"}, nil)
	mockMedia.On("Delete", mock.Anything, "heyama-events/a").Return(nil).Once()

	created, err := svc.CreateEvent(ctx, &dto.CreateEventRequest{Title: "Launch"}, fakeImage())
	require.NoError(t, err)

	deleted, err := svc.DeleteEvent(ctx, created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	found, err := svc.GetEvent(ctx, created.ID.Hex())
	assert.NoError(t, err)
	assert.Nil(t, found)
	mockMedia.AssertExpectations(t)
}

func TestEventService_DeleteEvent_WithoutImageSkipsMedia(t *testing.T) {
	mockMedia := new(MockMediaBackend)
	svc, _ := newMemoryService(mockMedia)
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, &dto.CreateEventRequest{Title: "No image"}, nil)
	require.NoError(t, err)

	deleted, err := svc.DeleteEvent(ctx, created.ID.Hex())

	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)
	mockMedia.AssertNotCalled(t, "Delete")
}

func TestEventService_DeleteEvent_UnknownIsNoop(t *testing.T) {
	mockMedia := new(MockMediaBackend)
	svc, _ := newMemoryService(mockMedia)

	for _, id := range []string{bson.NewObjectID().Hex(), "doesnotexist"} {
		deleted, err := svc.DeleteEvent(context.Background(), id)
		assert.NoError(t, err)
		assert.Nil(t, deleted)
	}
	mockMedia.AssertNotCalled(t, "Delete")
}

func TestEventService_DeleteEvent_MediaFailureKeepsRecord(t *testing.T) {
	mockMedia := new(MockMediaBackend)
	mockRepo := new(MockEventRepository)
	svc := NewEventService(mockRepo, mockMedia, zap.NewNop())

	event := &domain.Event{ID: bson.NewObjectID(), Title: "Launch", ImageURL: "https://x/a.png", ImageKey: "heyama-events/a"}
	id := event.ID.Hex()

	mockRepo.On("FindByID", mock.Anything, id).Return(event, nil)
	mediaErr := errors.New("cloudinary: 500")
	mockMedia.On("Delete", mock.Anything, "heyama-events/a").Return(mediaErr)

	deleted, err := svc.DeleteEvent(context.Background(), id)

	assert.Nil(t, deleted)
	assert.ErrorIs(t, err, ErrMediaDeleteFailed)
	assert.ErrorIs(t, err, mediaErr)
	mockRepo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestEventService_DeleteEvent_LostRace(t *testing.T) {
	mockMedia := new(MockMediaBackend)
	mockRepo := new(MockEventRepository)
	svc := NewEventService(mockRepo, mockMedia, zap.NewNop())

	event := &domain.Event{ID: bson.NewObjectID(), Title: "Launch"}
	id := event.ID.Hex()

	mockRepo.On("FindByID", mock.Anything, id).Return(event, nil)
	mockRepo.On("DeleteByID", mock.Anything, id).Return(nil, nil)

	deleted, err := svc.DeleteEvent(context.Background(), id)

	assert.NoError(t, err)
	assert.Nil(t, deleted)
	mockRepo.AssertExpectations(t)
}

func TestEventService_DeleteEvent_PersistenceErrors(t *testing.T) {
	mockRepo := new(MockEventRepository)
	svc := NewEventService(mockRepo, new(MockMediaBackend), zap.NewNop())

	mockRepo.On("FindByID", mock.Anything, "abc").Return(nil, errors.New("no reachable servers"))

	deleted, err := svc.DeleteEvent(context.Background(), "abc")

	assert.Nil(t, deleted)
	assert.ErrorContains(t, err, "no reachable servers")
}

func TestEventService_Ping(t *testing.T) {
	mockRepo := new(MockEventRepository)
	svc := NewEventService(mockRepo, new(MockMediaBackend), zap.NewNop())

	mockRepo.On("Ping", mock.Anything).Return(nil)

	assert.NoError(t, svc.Ping(context.Background()))
	mockRepo.AssertExpectations(t)
}
