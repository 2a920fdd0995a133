package consumer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/BarkinBalci/event-board-service/internal/domain"
)

// JSONActivityParser implements MessageParser for activities published by the API
type JSONActivityParser struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewJSONActivityParser creates a new JSON activity parser
func NewJSONActivityParser() *JSONActivityParser {
	return &JSONActivityParser{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// Parse decodes and validates a JSON message body
func (p *JSONActivityParser) Parse(body []byte) (*domain.Activity, error) {
	var activity domain.Activity

	if err := json.Unmarshal(body, &activity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	if err := p.validate.Struct(&activity); err != nil {
		return nil, fmt.Errorf("invalid activity: %w", err)
	}

	now := p.now()
	activity.ProcessedAt = now.UTC()
	activity.Version = uint64(now.UnixNano())

	return &activity, nil
}
