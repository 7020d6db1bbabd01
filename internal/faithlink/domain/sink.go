package domain

import "context"

// EventSink receives security events. Implementations must not block the
// request for long and must be safe for concurrent use.
type EventSink interface {
	Emit(ctx context.Context, ev SecurityEvent)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, ev SecurityEvent)

func (f EventSinkFunc) Emit(ctx context.Context, ev SecurityEvent) { f(ctx, ev) }

// DiscardEvents drops every event.
var DiscardEvents EventSink = EventSinkFunc(func(context.Context, SecurityEvent) {})
