package outbox

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/chowline/chowline/internal/domain/outbox"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestPublishFansOutToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	got := make(chan domoutbox.Event, 2)
	handler := func(_ context.Context, e domoutbox.Event) error {
		got <- e
		return nil
	}
	bus.Subscribe("thing.happened", handler)
	bus.Subscribe("thing.happened", handler)

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "thing.happened"}))

	for i := 0; i < 2; i++ {
		select {
		case e := <-got:
			assert.Equal(t, "thing.happened", e.EventName())
		case <-time.After(2 * time.Second):
			t.Fatal("handler was not invoked")
		}
	}
}

func TestPublishWithoutSubscriberIsDropped(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	assert.NoError(t, bus.Publish(context.Background(), testEvent{name: "nobody.cares"}))
}

func TestHandlerPanicDoesNotSinkSiblings(t *testing.T) {
	bus := NewBus(nil)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	var delivered atomic.Int32
	done := make(chan struct{})
	bus.Subscribe("thing.happened", func(context.Context, domoutbox.Event) error {
		panic("boom")
	})
	bus.Subscribe("thing.happened", func(context.Context, domoutbox.Event) error {
		delivered.Add(1)
		close(done)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "thing.happened"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("surviving handler was not invoked")
	}
	assert.Equal(t, int32(1), delivered.Load())
}

func TestPublishNilEventIsNoop(t *testing.T) {
	bus := NewBus(nil)
	assert.NoError(t, bus.Publish(context.Background(), nil))
}
