// Package eventbus carries state transitions from the request slices and the
// session store to their observers (notification bridge, pagination cache,
// session watcher). Publishing is synchronous: handlers run inside the
// caller's event-loop turn.
package eventbus

import (
	"fmt"

	evbus "github.com/asaskevich/EventBus"

	"github.com/nhle/hr-console/internal/model"
)

const (
	// TopicTransition carries a Transition for every slot status change.
	TopicTransition = "slice:transition"

	// TopicAuthFailure carries an AuthFailure when the session is dropped
	// because the server rejected its credentials.
	TopicAuthFailure = "session:auth_failure"
)

// Transition describes one status change of a request slot.
type Transition struct {
	Entity    model.Entity
	Operation model.Operation
	From      model.Status
	To        model.Status
	RequestID int64

	// Message is the success message or error text of a terminal
	// transition; empty otherwise.
	Message string

	// ErrorKind is set on failed transitions ("validation", "auth",
	// "network", "server").
	ErrorKind string

	// Signature identifies the list query of a list transition.
	Signature string

	// Pagination is set on successful list transitions.
	Pagination *model.Pagination
}

// AuthFailure is published when the session is invalidated by the server.
type AuthFailure struct {
	Message string
}

// Bus is a typed wrapper over a topic bus. It must only be used from the
// event-loop goroutine.
type Bus struct {
	bus evbus.Bus

	// The underlying bus holds its lock while handlers run, so events
	// published from inside a handler are queued and delivered once the
	// outer publish returns.
	publishing bool
	pending    []func()
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// PublishTransition delivers t to every transition subscriber.
func (b *Bus) PublishTransition(t Transition) {
	b.publish(TopicTransition, t)
}

// PublishAuthFailure delivers f to every auth-failure subscriber.
func (b *Bus) PublishAuthFailure(f AuthFailure) {
	b.publish(TopicAuthFailure, f)
}

func (b *Bus) publish(topic string, arg interface{}) {
	if b.publishing {
		b.pending = append(b.pending, func() { b.bus.Publish(topic, arg) })
		return
	}

	b.publishing = true
	defer func() { b.publishing = false }()

	b.bus.Publish(topic, arg)
	for len(b.pending) > 0 {
		next := b.pending[0]
		b.pending = b.pending[1:]
		next()
	}
}

// OnTransition registers fn for transition events.
func (b *Bus) OnTransition(fn func(Transition)) error {
	if err := b.bus.Subscribe(TopicTransition, fn); err != nil {
		return fmt.Errorf("subscribing to %s: %w", TopicTransition, err)
	}
	return nil
}

// OnAuthFailure registers fn for auth-failure events.
func (b *Bus) OnAuthFailure(fn func(AuthFailure)) error {
	if err := b.bus.Subscribe(TopicAuthFailure, fn); err != nil {
		return fmt.Errorf("subscribing to %s: %w", TopicAuthFailure, err)
	}
	return nil
}

// HasSubscribers reports whether any handler listens on topic.
func (b *Bus) HasSubscribers(topic string) bool {
	return b.bus.HasCallback(topic)
}
