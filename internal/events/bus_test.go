package events

import (
	"testing"
)

func TestBus_SubscribeAndEmit(t *testing.T) {
	t.Parallel()
	bus := NewBus(nil)

	var got []Event
	bus.Subscribe(FileSaving, func(e Event) {
		got = append(got, e)
	})

	bus.Emit(FileSaving, map[string]any{"name": "a.jpg", "size": 3})
	bus.Emit(FileSaved, map[string]any{"name": "a.jpg", "size": 3})

	if len(got) != 1 {
		t.Fatalf("listener received %d events, want 1", len(got))
	}
	if got[0].Name != FileSaving {
		t.Errorf("event name = %q", got[0].Name)
	}
	if got[0].ID == "" {
		t.Error("event id should be set")
	}
	if got[0].Payload["name"] != "a.jpg" {
		t.Errorf("payload = %v", got[0].Payload)
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	t.Parallel()
	bus := NewBus(nil)

	count := 0
	bus.SubscribeAll(func(Event) { count++ })

	bus.Emit(FileSaving, nil)
	bus.Emit(ThumbnailSaved, nil)

	if count != 2 {
		t.Fatalf("catch-all received %d events, want 2", count)
	}
}

func TestBus_ListenerPanicIsRecovered(t *testing.T) {
	t.Parallel()
	bus := NewBus(nil)

	delivered := false
	bus.Subscribe(FileDeleting, func(Event) { panic("boom") })
	bus.Subscribe(FileDeleting, func(Event) { delivered = true })

	bus.Emit(FileDeleting, nil)

	if !delivered {
		t.Error("panicking listener must not block later listeners")
	}
}

func TestBus_NilBusDropsEvents(t *testing.T) {
	t.Parallel()
	var bus *Bus
	bus.Subscribe(FileSaving, func(Event) {})
	bus.Emit(FileSaving, nil) // must not panic
}
