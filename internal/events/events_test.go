package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishJSON(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventBookingOpened, func(event *Event) error {
		received = append(received, event)
		return nil
	})

	payload := BookingEventPayload{
		BookingID: "booking-1",
		SpotID:    "spot-1",
		Status:    "active",
		StartTime: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, bus.PublishJSON(EventBookingOpened, payload))

	require.Len(t, received, 1)
	assert.Equal(t, EventBookingOpened, received[0].Type)
	assert.False(t, received[0].CreatedAt.IsZero())

	var got BookingEventPayload
	require.NoError(t, json.Unmarshal(received[0].Payload, &got))
	assert.Equal(t, "booking-1", got.BookingID)
	assert.Equal(t, "spot-1", got.SpotID)
}

func TestEventBus_OnlyMatchingSubscribersRun(t *testing.T) {
	bus := NewEventBus()

	opened, completed := 0, 0
	bus.Subscribe(EventBookingOpened, func(*Event) error { opened++; return nil })
	bus.Subscribe(EventBookingCompleted, func(*Event) error { completed++; return nil })

	require.NoError(t, bus.PublishJSON(EventBookingCompleted, BookingEventPayload{BookingID: "b"}))

	assert.Equal(t, 0, opened)
	assert.Equal(t, 1, completed)
}

func TestEventBus_NilBusIsNoop(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBookingOpened, BookingEventPayload{}))
}
