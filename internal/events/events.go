package events

import (
	"encoding/json"
	"sync"
	"time"

	"fleetbook/internal/models"
)

const (
	EventBookingCreated       = "booking_created"
	EventBookingStatusChanged = "booking_status_changed"
)

// BookingEventPayload carries the booking snapshot after a successful store
// mutation, plus the transition when the status changed.
type BookingEventPayload struct {
	Booking   *models.Booking `json:"booking"`
	OldStatus string          `json:"old_status,omitempty"`
	NewStatus string          `json:"new_status,omitempty"`
	ChangedBy string          `json:"changed_by,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event. A handler's error never reaches the
// publisher: notification side effects must not block or fail the booking
// mutation that triggered them.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
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

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; consumers that do slow work hand it
		// off themselves.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// DecodeBookingPayload unpacks a booking event payload.
func DecodeBookingPayload(event *Event) (BookingEventPayload, error) {
	var p BookingEventPayload
	err := json.Unmarshal(event.Payload, &p)
	return p, err
}
