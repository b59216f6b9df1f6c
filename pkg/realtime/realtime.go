// Package realtime provides an in-process publish/subscribe hub used to fan
// out rendered previews to every editor session watching the same document.
//
// Delivery is best effort: a listener whose buffer is full misses the event.
// Nothing is persisted or replayed.
package realtime

import (
	"sync"
	"time"
)

// PreviewEvent is one rendered document pushed to a room.
type PreviewEvent struct {
	Type      string    `json:"type"`
	Room      string    `json:"room,omitempty"`
	HTML      string    `json:"html"`
	Error     string    `json:"error,omitempty"`
	Source    uint64    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPreview builds a preview event for room produced by listener source.
func NewPreview(room string, source uint64, html string) PreviewEvent {
	return PreviewEvent{Type: "preview", Room: room, HTML: html, Source: source, CreatedAt: time.Now().UTC()}
}

// NewError builds an error event for room.
func NewError(room string, source uint64, msg string) PreviewEvent {
	return PreviewEvent{Type: "error", Room: room, Error: msg, Source: source, CreatedAt: time.Now().UTC()}
}

type listener struct {
	room string
	ch   chan PreviewEvent
}

// Hub fans events out to listeners registered on a room. It is safe for
// concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]listener
	nextID    uint64
	bufSize   int
}

// NewHub constructs a hub with the given per-listener buffer size. If
// bufSize <= 0, a default of 16 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Hub{
		listeners: make(map[uint64]listener),
		bufSize:   bufSize,
	}
}

// Register adds a listener on room and returns its id and receive channel.
// Callers must Unregister the id when done.
func (h *Hub) Register(room string) (uint64, <-chan PreviewEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan PreviewEvent, h.bufSize)
	h.listeners[id] = listener{room: room, ch: ch}
	return id, ch
}

// Unregister removes the listener and closes its channel. Unknown ids are
// ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(l.ch)
	}
}

// Broadcast delivers ev to every listener on ev.Room except the one that
// produced it, and reports how many listeners received it.
func (h *Hub) Broadcast(ev PreviewEvent) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for id, l := range h.listeners {
		if l.room != ev.Room || id == ev.Source {
			continue
		}
		select {
		case l.ch <- ev:
			delivered++
		default:
			// slow listener
		}
	}
	return delivered
}

// Size returns the number of registered listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// RoomSize returns the number of listeners on room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, l := range h.listeners {
		if l.room == room {
			n++
		}
	}
	return n
}
