package media

import (
	"context"
	"io"
)

// File is an uploaded binary waiting to be stored
type File struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// Stored identifies content held by a media backend
type Stored struct {
	// URL is the public retrieval link
	URL string
	// Key is the opaque handle used to delete the content later
	Key string
}

// Backend defines the operations the event store needs from a media service
type Backend interface {
	Upload(ctx context.Context, file *File) (*Stored, error)
	Delete(ctx context.Context, key string) error
}
