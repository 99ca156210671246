package events

import (
	"errors"
	"testing"

	"go.uber.org/multierr"
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

	payload := BookingEventPayload{BookingID: 7, BookerID: 2, ItemID: 3, OwnerID: 1, Status: "WAITING"}
	if err := bus.PublishJSON(EventBookingCreated, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventBookingCreated {
		t.Errorf("expected type %s, got %s", EventBookingCreated, received.Type)
	}
	if received.ID == "" {
		t.Errorf("expected event id to be set")
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

	bus.Subscribe(EventCommentAdded, func(_ *Event) error { count1++; return nil })
	bus.Subscribe(EventCommentAdded, func(_ *Event) error { count2++; return nil })

	if err := bus.Publish(&Event{Type: EventCommentAdded}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	errA := errors.New("a")
	errB := errors.New("b")
	var reached bool

	bus.Subscribe(EventBookingRejected, func(_ *Event) error { return errA })
	bus.Subscribe(EventBookingRejected, func(_ *Event) error { reached = true; return errB })

	err := bus.Publish(&Event{Type: EventBookingRejected})
	if !reached {
		t.Errorf("second handler must run after the first failed")
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("expected 2 combined errors, got %d", got)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both errors in %v", err)
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
	if err := nilBus.PublishJSON(EventBookingApproved, nil); err != nil {
		t.Errorf("nil bus must be a no-op, got %v", err)
	}
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent(EventCommentAdded, CommentEventPayload{CommentID: 123, Text: "ok"})
	if err != nil {
		t.Fatalf("NewJSONEvent failed: %v", err)
	}
	if event.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	var decoded CommentEventPayload
	if err := event.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if decoded.CommentID != 123 || decoded.Text != "ok" {
		t.Errorf("unexpected payload %+v", decoded)
	}

	if _, err := NewJSONEvent("bad", make(chan int)); err == nil {
		t.Errorf("expected marshal error for channel payload")
	}
}
