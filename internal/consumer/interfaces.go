package consumer

import (
	"github.com/BarkinBalci/event-board-service/internal/domain"
)

// MessageParser defines the interface for parsing raw message bytes into activities
type MessageParser interface {
	Parse(body []byte) (*domain.Activity, error)
}
