package injected

import (
	"sync"

	"github.com/fd1az/web3-connect/business/connection/app"
	"github.com/fd1az/web3-connect/business/connection/domain"
)

// EventHub is the wallet object's event surface: handlers register with On
// and event sources publish with Emit.
type EventHub struct {
	mu       sync.Mutex
	nextID   domain.ListenerID
	handlers map[domain.Event]map[domain.ListenerID]domain.EventHandler
}

var (
	_ app.EventEmitter    = (*EventHub)(nil)
	_ app.ListenerRemover = (*EventHub)(nil)
)

// NewEventHub returns an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{handlers: make(map[domain.Event]map[domain.ListenerID]domain.EventHandler)}
}

// On registers h for event.
func (h *EventHub) On(event domain.Event, handler domain.EventHandler) domain.ListenerID {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	if h.handlers[event] == nil {
		h.handlers[event] = make(map[domain.ListenerID]domain.EventHandler)
	}
	h.handlers[event][h.nextID] = handler
	return h.nextID
}

// RemoveListener unregisters a handler. Unknown ids are ignored.
func (h *EventHub) RemoveListener(event domain.Event, id domain.ListenerID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.handlers[event], id)
}

// ListenerCount returns the number of handlers for event.
func (h *EventHub) ListenerCount(event domain.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers[event])
}

// Emit calls every handler for event. Handlers run on the caller's goroutine
// without the hub lock held, so they may register or remove handlers.
func (h *EventHub) Emit(event domain.Event, payload domain.EventPayload) {
	h.mu.Lock()
	handlers := make([]domain.EventHandler, 0, len(h.handlers[event]))
	for _, fn := range h.handlers[event] {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(payload)
	}
}
