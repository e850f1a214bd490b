package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const (
	EventClientCreated   = "client_created"
	EventClientDeleted   = "client_deleted"
	EventBookingCreated  = "booking_created"
	EventBookingCanceled = "booking_canceled"
)

// AllTypes lists every event the booking service emits.
var AllTypes = []string{
	EventClientCreated,
	EventClientDeleted,
	EventBookingCreated,
	EventBookingCanceled,
}

// ClientEventPayload describes a client mutation.
type ClientEventPayload struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name,omitempty"`
	// CascadedBookings counts bookings removed together with the client.
	CascadedBookings int `json:"cascaded_bookings,omitempty"`
}

// BookingEventPayload describes a booking mutation.
type BookingEventPayload struct {
	BookingID string `json:"booking_id"`
	ClientID  string `json:"client_id,omitempty"`
	Date      string `json:"date,omitempty"`
	TimeSlot  string `json:"time_slot,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
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

// SubscribeAll registers handler for every type in AllTypes.
func (b *EventBus) SubscribeAll(handler EventHandler) {
	for _, eventType := range AllTypes {
		b.Subscribe(eventType, handler)
	}
}

// Publish runs every subscriber of the event type synchronously and returns
// their joined errors. A failing handler does not stop the others.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	return b.Publish(&event)
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
