package stream

import (
	"context"
	"sync"
	"time"
)

// EventType names a product lifecycle transition.
type EventType string

const (
	EventCreated     EventType = "created"
	EventUpdated     EventType = "updated"
	EventActivated   EventType = "activated"
	EventDeactivated EventType = "deactivated"
	EventDeleted     EventType = "deleted"
)

// ProductEvent describes a listing change for live consumers.
type ProductEvent struct {
	Type       EventType `json:"type"`
	ProductID  string    `json:"product_id"`
	Title      string    `json:"title,omitempty"`
	PriceCents int64     `json:"price_cents,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Stream fan-outs product events to all active subscribers (SSE clients).
type Stream struct {
	mu   sync.RWMutex
	subs map[int]chan ProductEvent
	next int
}

// New initialises an empty stream.
func New() *Stream {
	return &Stream{subs: make(map[int]chan ProductEvent)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// events. The channel is closed when the provided context ends.
func (s *Stream) Subscribe(ctx context.Context) <-chan ProductEvent {
	ch := make(chan ProductEvent, 16)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (s *Stream) Publish(evt ProductEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
