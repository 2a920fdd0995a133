package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Event represents an event record stored in MongoDB
type Event struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Location    string        `bson:"location,omitempty" json:"location,omitempty"`
	Date        *time.Time    `bson:"date,omitempty" json:"date,omitempty"`
	ImageURL    string        `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
	ImageKey    string        `bson:"image_key,omitempty" json:"imageKey,omitempty"`
	CreatedAt   time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updatedAt"`
}

// HasImage reports whether the event references a stored image.
func (e *Event) HasImage() bool {
	return e.ImageKey != ""
}
