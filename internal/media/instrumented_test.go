package media

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Upload(ctx context.Context, file *File) (*Stored, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Stored), args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockObserver is a mock implementation of Observer
type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) ObserveMediaOperation(operation string, err error) {
	m.Called(operation, err)
}

func TestInstrumented_Upload(t *testing.T) {
	backend := new(MockBackend)
	observer := new(MockObserver)
	inst := NewInstrumented(backend, observer, zap.NewNop())

	file := &File{Name: "a.png", Size: 3, Reader: bytes.NewReader([]byte("abc"))}
	stored := &Stored{URL: "https://cdn.example.com/a.png", Key: "events/a"}

	backend.On("Upload", mock.Anything, file).Return(stored, nil)
	observer.On("ObserveMediaOperation", "upload", nil).Return()

	got, err := inst.Upload(context.Background(), file)

	assert.NoError(t, err)
	assert.Equal(t, stored, got)
	backend.AssertExpectations(t)
	observer.AssertExpectations(t)
}

func TestInstrumented_UploadError(t *testing.T) {
	backend := new(MockBackend)
	observer := new(MockObserver)
	inst := NewInstrumented(backend, observer, zap.NewNop())

	file := &File{Name: "a.png"}
	uploadErr := errors.New("timeout")

	backend.On("Upload", mock.Anything, file).Return(nil, uploadErr)
	observer.On("ObserveMediaOperation", "upload", uploadErr).Return()

	got, err := inst.Upload(context.Background(), file)

	assert.ErrorIs(t, err, uploadErr)
	assert.Nil(t, got)
	observer.AssertExpectations(t)
}

func TestInstrumented_Delete(t *testing.T) {
	backend := new(MockBackend)
	observer := new(MockObserver)
	inst := NewInstrumented(backend, observer, zap.NewNop())

	deleteErr := errors.New("denied")
	backend.On("Delete", mock.Anything, "events/a").Return(deleteErr)
	observer.On("ObserveMediaOperation", "delete", deleteErr).Return()

	err := inst.Delete(context.Background(), "events/a")

	assert.ErrorIs(t, err, deleteErr)
	backend.AssertExpectations(t)
	observer.AssertExpectations(t)
}
