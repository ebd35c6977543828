// Package events carries the in-process event bus used to fan lead
// lifecycle notifications (created, assigned, recycled, retired, closed)
// out to interested modules without coupling them to each other.
package events

import (
	"context"
	"time"
)

// Event is implemented by every lifecycle notification published on the
// bus. EventName doubles as the subscription key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent supplies the occurrence timestamp; concrete events embed it
// and add their own payload fields.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a BaseEvent with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events delivered by the bus.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes lifecycle events to subscribed handlers. Publish is
// fire-and-forget; PublishSync waits for every handler and surfaces the
// first failure. Subscribe keys on the event's EventName.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
