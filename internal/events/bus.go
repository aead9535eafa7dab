// File: internal/events/bus.go

// Package events carries agent lifecycle notifications to observers using
// a small pub/sub bus. Emitting never blocks the agent: a subscriber whose
// buffer is full simply misses the event.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	ID        string
	Timestamp time.Time
	Actor     schemas.Actor
	State     schemas.EventState
	Message   string
}

// Bus fans lifecycle events out to subscribers. It satisfies the
// schemas.EventSink contract: Emit is fire-and-forget from the emitting
// component's perspective.
type Bus struct {
	logger      *zap.Logger
	mu          sync.RWMutex
	subscribers []chan Event
	bufferSize  int
	isShutdown  bool
}

// Statically assert that Bus implements the EventSink interface.
var _ schemas.EventSink = (*Bus)(nil)

// NewBus initializes the event bus.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		logger:     logger.Named("events"),
		bufferSize: bufferSize,
	}
}

// Emit delivers an event to every subscriber without blocking. Events for
// a saturated subscriber are dropped with a warning.
func (b *Bus) Emit(actor schemas.Actor, state schemas.EventState, message string) {
	ev := Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Actor:     actor,
		State:     state,
		Message:   message,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.isShutdown {
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("Dropping event for saturated subscriber",
				zap.String("actor", string(actor)),
				zap.String("state", string(state)))
		}
	}
}

// Subscribe returns a channel of events and a function that cancels the
// subscription and closes the channel. Subscribing to a bus that has shut
// down yields an already-closed channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isShutdown {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan Event, b.bufferSize)
	b.subscribers = append(b.subscribers, ch)

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.isShutdown {
			return
		}
		for i, sub := range b.subscribers {
			if sub == ch {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, unsubscribe
}

// Shutdown closes all subscriber channels. Emit calls after Shutdown are
// silently ignored.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isShutdown {
		return
	}
	b.isShutdown = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
