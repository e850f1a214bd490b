package events

import (
	"errors"
	"testing"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	payload := BookingEventPayload{BookingID: "b1", ClientID: "c1", Date: "2024-06-01", TimeSlot: "10:00 - 12:00"}
	if err := bus.PublishJSON(EventBookingCreated, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != EventBookingCreated {
		t.Errorf("expected type %s, got %s", EventBookingCreated, received.Type)
	}

	var decoded BookingEventPayload
	if err := received.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded != payload {
		t.Errorf("expected %+v, got %+v", payload, decoded)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return errors.New("first failed") })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	err := bus.Publish(&Event{Type: "event"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
	if err == nil || err.Error() != "first failed" {
		t.Errorf("expected handler error to be returned, got %v", err)
	}
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus()
	seen := map[string]int{}
	bus.SubscribeAll(func(e *Event) error { seen[e.Type]++; return nil })

	for _, eventType := range AllTypes {
		if err := bus.PublishJSON(eventType, ClientEventPayload{ClientID: "c1"}); err != nil {
			t.Fatalf("PublishJSON(%s) failed: %v", eventType, err)
		}
	}

	for _, eventType := range AllTypes {
		if seen[eventType] != 1 {
			t.Errorf("expected one %s, got %d", eventType, seen[eventType])
		}
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	if err := bus.Publish(&Event{Type: "unknown"}); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}

	var nilBus *EventBus
	if err := nilBus.PublishJSON(EventClientCreated, nil); err != nil {
		t.Errorf("nil bus should ignore events, got %v", err)
	}
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent("type", ClientEventPayload{ClientID: "c1", CascadedBookings: 2})
	if err != nil {
		t.Fatalf("NewJSONEvent failed: %v", err)
	}

	if event.Type != "type" {
		t.Errorf("expected type, got %s", event.Type)
	}

	if event.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	var decoded ClientEventPayload
	if err := event.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if decoded.CascadedBookings != 2 {
		t.Errorf("expected 2 cascaded bookings, got %d", decoded.CascadedBookings)
	}

	if _, err := NewJSONEvent("type", make(chan int)); err == nil {
		t.Errorf("expected error for unencodable payload")
	}
}
