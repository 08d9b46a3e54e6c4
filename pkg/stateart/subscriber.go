package stateart

import (
	"sync"
)

// Subscriber is called with the state after every successful dispatch.
type Subscriber[S any] func(state *S)

type subscription[S any] struct {
	id uint64
	fn Subscriber[S]
}

// subscriberSet keeps subscribers in subscription order.
type subscriberSet[S any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription[S]
}

func (s *subscriberSet[S]) add(fn Subscriber[S]) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.subs = append(s.subs, subscription[S]{id: s.nextID, fn: fn})
	return s.nextID
}

func (s *subscriberSet[S]) remove(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot copies the subscribers so notification runs without the lock
// and tolerates subscribers that unsubscribe while being notified.
func (s *subscriberSet[S]) snapshot() []Subscriber[S] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Subscriber[S], len(s.subs))
	for i, sub := range s.subs {
		out[i] = sub.fn
	}
	return out
}

func (s *subscriberSet[S]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// newChangeSubscriber re-derives the tracked selectors in order after each
// dispatch. The first one whose value changed is updated and signal fires
// once; the rest are not checked, the consumer re-tracks on its next render.
// read wraps the accessor calls so they see a consistent state.
func newChangeSubscriber[S any](t *Tracker[S], read sync.Locker, signal func()) Subscriber[S] {
	return func(state *S) {
		for _, sel := range t.order {
			v := readLocked(read, func() any { return sel.get(state) })

			if !strictEqual(v, sel.last) {
				sel.last = v
				signal()
				return
			}
		}
	}
}

func readLocked(l sync.Locker, fn func() any) any {
	l.Lock()
	defer l.Unlock()
	return fn()
}
