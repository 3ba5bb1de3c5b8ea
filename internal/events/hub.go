package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind starts losing events rather than blocking
// publishers.
const subscriberBuffer = 16

// Hub fans out published events to all current subscribers.
// Publishing never blocks: slow subscribers drop events.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	log         zerolog.Logger
}

// NewHub creates a new event hub
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[int]chan Event),
		log:         log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. The channel is closed on unsubscribe.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan Event, subscriberBuffer)
	h.subscribers[id] = ch

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(sub)
		}
	}

	return ch, unsubscribe
}

// Publish delivers an event to every subscriber
func (h *Hub) Publish(data EventData) {
	event := Event{
		Type:      data.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			h.log.Warn().
				Int("subscriber", id).
				Str("event", string(event.Type)).
				Msg("Subscriber buffer full, dropping event")
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
