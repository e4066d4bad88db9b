package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tutorsched/internal/schedule"
)

// Event types published by the scheduler.
const (
	BlockAdded    = "block.added"
	BlockReplaced = "block.replaced"
	BlockRemoved  = "block.removed"
	BlockRejected = "block.rejected"
	RoomAssigned  = "room.assigned"
)

// Event represents a lightweight domain event.
type Event struct {
	ID      string
	Type    string
	Owner   schedule.Owner
	Block   schedule.TimeBlock
	Outcome schedule.Outcome
	// Existing is the overwritten block on replace or the blocking one on conflict.
	Existing  *schedule.TimeBlock
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	all         []EventHandler
	onError     func(Event, error)
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// OnError sets the callback receiving handler errors.
func (b *EventBus) OnError(fn func(Event, error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Publish notifies subscribers of the event type. It fills in ID and
// CreatedAt when unset and returns the event as delivered.
func (b *EventBus) Publish(event Event) Event {
	if b == nil {
		return event
	}

	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.all...)
	onError := b.onError
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
	return event
}

// TypeOf maps a scheduling outcome to the event type describing it.
func TypeOf(o schedule.Outcome) string {
	switch o {
	case schedule.Success:
		return BlockAdded
	case schedule.Replaced:
		return BlockReplaced
	}
	return BlockRejected
}
