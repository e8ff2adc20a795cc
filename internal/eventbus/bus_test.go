package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultronlabs/missionctl/internal/event"
)

func TestSubscribeReceivesPublished(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(4)
	defer bus.Unsubscribe(id)

	e := &event.Event{ID: "01TEST", Type: event.TypeTaskClaimed, CreatedAt: time.Now()}
	bus.Publish(e)

	select {
	case got := <-ch:
		assert.Equal(t, e, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	defer bus.Unsubscribe(id)

	bus.Publish(&event.Event{ID: "1"})
	bus.Publish(&event.Event{ID: "2"}) // dropped, buffer full

	got := <-ch
	require.Equal(t, "1", got.ID)

	select {
	case extra := <-ch:
		t.Fatalf("expected second event to be dropped, got %v", extra)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	bus.Unsubscribe(id)

	_, ok := <-ch
	require.False(t, ok, "channel should be closed after unsubscribe")

	// Publishing after unsubscribe must not panic.
	bus.Publish(&event.Event{ID: "3"})
}
