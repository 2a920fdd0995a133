package notifier

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrHubClosed is returned by Subscribe after Shutdown
var ErrHubClosed = errors.New("notifier hub is shut down")

// ClientGauge receives the connected client count after every change
type ClientGauge interface {
	SetStreamClients(n int)
}

// Message is one broadcast pushed to every connected client
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Subscription is a registered client connection
type Subscription struct {
	ID string
	C  <-chan Message

	ch   chan Message
	once sync.Once
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// Hub fans broadcasts out to the clients registered at the moment of the call.
// Delivery is best effort: a client whose buffer is full is disconnected.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Subscription
	bufferSize int
	closed     bool
	gauge      ClientGauge
	log        *zap.Logger
}

// NewHub creates a hub whose clients buffer up to bufferSize messages
func NewHub(bufferSize int, gauge ClientGauge, log *zap.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		clients:    make(map[string]*Subscription),
		bufferSize: bufferSize,
		gauge:      gauge,
		log:        log,
	}
}

// Subscribe registers a new client
func (h *Hub) Subscribe() (*Subscription, error) {
	ch := make(chan Message, h.bufferSize)
	sub := &Subscription{ID: uuid.NewString(), C: ch, ch: ch}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.clients[sub.ID] = sub
	count := len(h.clients)
	h.mu.Unlock()

	h.reportClients(count)
	h.log.Debug("Stream client connected", zap.String("client_id", sub.ID), zap.Int("clients", count))
	return sub, nil
}

// Unsubscribe removes a client and closes its channel. Unknown IDs are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.close()
	h.reportClients(count)
	h.log.Debug("Stream client disconnected", zap.String("client_id", id), zap.Int("clients", count))
}

// Broadcast delivers msg to every current client without blocking and
// returns how many clients received it.
func (h *Hub) Broadcast(msg Message) int {
	var slow []string
	delivered := 0

	h.mu.RLock()
	for id, sub := range h.clients {
		select {
		case sub.ch <- msg:
			delivered++
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		h.log.Warn("Dropping slow stream client", zap.String("client_id", id), zap.String("type", msg.Type))
		h.Unsubscribe(id)
	}

	return delivered
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every client and rejects new subscriptions
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*Subscription)
	h.mu.Unlock()

	for _, sub := range clients {
		sub.close()
	}
	h.reportClients(0)
	h.log.Info("Notifier hub shut down", zap.Int("disconnected", len(clients)))
}

func (h *Hub) reportClients(n int) {
	if h.gauge != nil {
		h.gauge.SetStreamClients(n)
	}
}
