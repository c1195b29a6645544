package events

import (
	"context"
	"fmt"
	"strings"
)

// Backend names accepted by EVENTS_BACKEND.
const (
	BackendRedis = "redis"
	BackendAMQP  = "amqp"
	BackendNone  = "none"
)

// Publisher delivers a single event synchronously.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Emitter accepts events without blocking the caller.
type Emitter interface {
	Emit(event Event)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// Publish is a no-op.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Close is a no-op.
func (NoopPublisher) Close() error { return nil }

// Discard is an Emitter that ignores events.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// ValidBackend reports whether name is a known backend.
func ValidBackend(name string) error {
	switch strings.ToLower(name) {
	case BackendRedis, BackendAMQP, BackendNone:
		return nil
	default:
		return fmt.Errorf("unknown events backend %q", name)
	}
}
