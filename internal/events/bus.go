// Package events delivers pipeline lifecycle notifications to explicitly
// registered listeners. Emission is fire-and-forget: listeners can observe
// every storage write and delete but can never affect the outcome of the
// ingestion call that emitted the event.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event names emitted by the files pipeline.
const (
	FileSaving        = "files.saving"
	FileSaved         = "files.saving:after"
	FileDeleting      = "files.deleting"
	FileDeleted       = "files.deleting:after"
	ThumbnailSaving   = "files.thumbnail.saving"
	ThumbnailSaved    = "files.thumbnail.saving:after"
	ThumbnailDeleting = "files.thumbnail.deleting"
	ThumbnailDeleted  = "files.thumbnail.deleting:after"
)

// Event is a single lifecycle notification.
type Event struct {
	ID      string
	Name    string
	Payload map[string]any
	At      time.Time
}

// Listener receives emitted events.
type Listener func(Event)

// Bus routes events to registered listeners synchronously, in
// registration order. A nil *Bus is valid and drops all events.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	all       []Listener
	logger    *slog.Logger
}

// NewBus creates an event bus.
func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{
		listeners: make(map[string][]Listener),
		logger:    log.With(slog.String("service", "events")),
	}
}

// Subscribe registers a listener for a single event name.
func (b *Bus) Subscribe(name string, fn Listener) {
	if b == nil || fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[name] = append(b.listeners[name], fn)
}

// SubscribeAll registers a listener for every event.
func (b *Bus) SubscribeAll(fn Listener) {
	if b == nil || fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, fn)
}

// Emit delivers an event to all matching listeners. Listener panics are
// recovered and logged so a misbehaving subscriber cannot abort an
// ingestion call.
func (b *Bus) Emit(name string, payload map[string]any) {
	if b == nil {
		return
	}
	event := Event{
		ID:      uuid.NewString(),
		Name:    name,
		Payload: payload,
		At:      time.Now().UTC(),
	}

	b.mu.RLock()
	targets := make([]Listener, 0, len(b.all)+len(b.listeners[name]))
	targets = append(targets, b.listeners[name]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	for _, fn := range targets {
		b.deliver(event, fn)
	}
}

func (b *Bus) deliver(event Event, fn Listener) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("event listener panicked",
				slog.String("event", event.Name),
				slog.Any("panic", r),
			)
		}
	}()
	fn(event)
}
