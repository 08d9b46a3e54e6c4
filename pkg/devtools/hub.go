package devtools

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/stateart/pkg/stateart"
)

// DefaultBuffer is the per-watcher event buffer used when NewHub is given a
// non-positive size.
const DefaultBuffer = 64

// Hub fans dispatch events out to watchers. It implements
// stateart.Observer. Sends never block the dispatcher: a watcher whose
// buffer is full misses the event.
type Hub struct {
	buffer int

	mu       sync.RWMutex
	watchers map[*watcher]struct{}

	dropped atomic.Uint64
}

type watcher struct {
	store string
	ch    chan stateart.DispatchEvent
}

var _ stateart.Observer = (*Hub)(nil)

// NewHub creates a hub with the given per-watcher buffer size.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		buffer:   buffer,
		watchers: make(map[*watcher]struct{}),
	}
}

// Subscribe returns a channel receiving the events of store, or of every
// store when store is empty. The cancel function closes the channel.
func (h *Hub) Subscribe(store string) (<-chan stateart.DispatchEvent, func()) {
	w := &watcher{store: store, ch: make(chan stateart.DispatchEvent, h.buffer)}

	h.mu.Lock()
	h.watchers[w] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return w.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.watchers, w)
			h.mu.Unlock()
			close(w.ch)
		})
	}
}

// Watchers returns the number of active watchers.
func (h *Hub) Watchers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers)
}

// Dropped returns how many events were dropped for slow watchers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// BeginDispatch implements stateart.Observer.
func (h *Hub) BeginDispatch(stateart.DispatchEvent) func(stateart.DispatchEvent) {
	return h.publish
}

// Rerender implements stateart.Observer.
func (h *Hub) Rerender(string) {}

func (h *Hub) publish(ev stateart.DispatchEvent) {
	// The read lock is held while sending so cancel cannot close a channel
	// mid-send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for w := range h.watchers {
		if w.store != "" && w.store != ev.Store {
			continue
		}
		select {
		case w.ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}
