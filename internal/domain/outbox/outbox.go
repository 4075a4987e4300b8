package outbox

import "context"

// Event is any domain event identified by a stable name.
type Event interface {
	EventName() string
}

// Handler processes a published event. Handlers must tolerate redelivery.
type Handler func(ctx context.Context, e Event) error

// Publisher delivers events to interested subscribers after the synchronous
// part of the originating operation has completed. Nothing that maintains a
// core invariant may depend on a subscriber running.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
