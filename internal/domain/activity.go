package domain

import "time"

const (
	ActivityCreated = "created"
	ActivityDeleted = "deleted"
)

// Activity is a lifecycle notification relayed through the queue and stored in ClickHouse
type Activity struct {
	ActivityID  string    `json:"activity_id" ch:"activity_id" validate:"required"`
	Action      string    `json:"action" ch:"action" validate:"oneof=created deleted"`
	EventID     string    `json:"event_id" ch:"event_id" validate:"required"`
	Title       string    `json:"title,omitempty" ch:"title"`
	ImageKey    string    `json:"image_key,omitempty" ch:"image_key"`
	OccurredAt  time.Time `json:"occurred_at" ch:"occurred_at" validate:"required"`
	ProcessedAt time.Time `json:"-" ch:"processed_at"`
	Version     uint64    `json:"-" ch:"version"`
}
