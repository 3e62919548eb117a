package events

import (
	"encoding/json"
	"errors"
	"testing"

	"fleetbook/internal/models"
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

	payload := BookingEventPayload{
		Booking: &models.Booking{ID: 7, Reference: "ref-7", Status: models.StatusPending},
	}
	if err := bus.PublishJSON(EventBookingCreated, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventBookingCreated {
		t.Errorf("expected type %s, got %s", EventBookingCreated, received.Type)
	}

	decoded, err := DecodeBookingPayload(received)
	if err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.Booking == nil || decoded.Booking.ID != 7 {
		t.Errorf("expected booking id 7, got %+v", decoded.Booking)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusHandlerErrorDoesNotPropagate(t *testing.T) {
	bus := NewEventBus()
	var second int

	bus.Subscribe("event", func(_ *Event) error { return errors.New("boom") })
	bus.Subscribe("event", func(_ *Event) error { second++; return nil })

	bus.Publish(&Event{Type: "event"})

	if second != 1 {
		t.Errorf("failing handler must not stop later handlers, got %d calls", second)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	// Should not panic
	bus.Publish(&Event{Type: "unknown"})
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}
}

func TestStatusChangePayloadRoundTrip(t *testing.T) {
	payload := BookingEventPayload{
		Booking:   &models.Booking{ID: 3, Status: models.StatusApproved},
		OldStatus: models.StatusPending,
		NewStatus: models.StatusApproved,
		ChangedBy: "admin",
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	decoded, err := DecodeBookingPayload(&Event{Type: EventBookingStatusChanged, Payload: raw})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.OldStatus != models.StatusPending || decoded.NewStatus != models.StatusApproved {
		t.Errorf("unexpected transition %s -> %s", decoded.OldStatus, decoded.NewStatus)
	}
}
