// Package notify turns request transitions and session failures into
// user-facing notifications, emitting each distinct message at most once
// per dedupe window.
package notify

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/eventbus"
	"github.com/nhle/hr-console/internal/model"
)

// DefaultWindow is the dedupe window used when none is configured.
const DefaultWindow = 1500 * time.Millisecond

// recordTimeout bounds one history write.
const recordTimeout = 5 * time.Second

// Recorder persists emitted notifications.
type Recorder interface {
	CreateNotification(ctx context.Context, n model.NotificationEvent) error
}

// NotificationMsg is a tea.Msg carrying one emitted notification.
type NotificationMsg struct {
	Event model.NotificationEvent
}

// Bridge is the only subscriber that converts transitions into
// notifications.
type Bridge struct {
	window   time.Duration
	seen     *cache.Cache
	events   chan model.NotificationEvent
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithRecorder stores every delivered notification in r.
func WithRecorder(r Recorder) Option {
	return func(b *Bridge) { b.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) { b.logger = l.With(zap.String("module", "notify")) }
}

// WithBuffer sets how many undelivered notifications are held before new
// ones are dropped.
func WithBuffer(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.events = make(chan model.NotificationEvent, n)
		}
	}
}

// New creates a bridge with the given dedupe window.
func New(window time.Duration, opts ...Option) *Bridge {
	if window <= 0 {
		window = DefaultWindow
	}
	b := &Bridge{
		window: window,
		seen:   cache.New(window, 2*window),
		events: make(chan model.NotificationEvent, 32),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Watch subscribes the bridge to slice transitions and session failures.
func (b *Bridge) Watch(bus *eventbus.Bus) error {
	if err := bus.OnTransition(b.handleTransition); err != nil {
		return err
	}
	return bus.OnAuthFailure(b.handleAuthFailure)
}

func (b *Bridge) handleTransition(t eventbus.Transition) {
	if !t.To.Terminal() || t.Message == "" {
		return
	}
	// Auth failures are announced once by the session store instead of
	// once per rejected request.
	if t.ErrorKind == string(api.KindAuth) {
		return
	}

	kind := model.NotificationSuccess
	if t.To == model.StatusFailed {
		kind = model.NotificationError
	}
	b.Emit(kind, t.Entity, t.Operation, t.Message)
}

func (b *Bridge) handleAuthFailure(f eventbus.AuthFailure) {
	b.Emit(model.NotificationError, model.EntitySession, model.OpAuth, f.Message)
}

// DedupeKey builds the key identifying duplicate notifications.
func DedupeKey(entity model.Entity, op model.Operation, message string) string {
	return fmt.Sprintf("%s:%s:%s", entity, op, message)
}

// Emit publishes a notification unless one with the same key was emitted
// within the window. It reports whether the event was emitted.
func (b *Bridge) Emit(kind model.NotificationKind, entity model.Entity, op model.Operation, message string) (model.NotificationEvent, bool) {
	key := DedupeKey(entity, op, message)
	if err := b.seen.Add(key, struct{}{}, b.window); err != nil {
		b.logger.Debug("suppressing duplicate notification", zap.String("dedupe_key", key))
		return model.NotificationEvent{}, false
	}

	ev := model.NotificationEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		DedupeKey: key,
		Entity:    entity,
		Operation: op,
		EmittedAt: b.now(),
	}

	select {
	case b.events <- ev:
	default:
		// Nobody is draining; drop rather than block the event loop.
		// A dropped event was never shown, so it must not suppress a retry.
		b.seen.Delete(key)
		b.logger.Warn("notification buffer full, dropping", zap.String("dedupe_key", key))
		return ev, false
	}

	return ev, true
}

// Events exposes emitted notifications.
func (b *Bridge) Events() <-chan model.NotificationEvent {
	return b.events
}

// WaitForEvent returns a tea.Cmd that waits for the next notification,
// records it, and delivers it as a NotificationMsg. Call it again after
// each NotificationMsg to keep listening.
func (b *Bridge) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-b.events
		if !ok {
			return nil
		}
		b.record(ev)
		return NotificationMsg{Event: ev}
	}
}

func (b *Bridge) record(ev model.NotificationEvent) {
	if b.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := b.recorder.CreateNotification(ctx, ev); err != nil {
		b.logger.Warn("recording notification failed", zap.Error(err))
	}
}
