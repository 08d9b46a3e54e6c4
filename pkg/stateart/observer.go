package stateart

import "time"

// DispatchEvent describes one pass through a store's dispatcher.
type DispatchEvent struct {
	// ID is a ULID, unique per dispatch and sortable by start time.
	ID string `json:"id"`

	// Store is the store name.
	Store string `json:"store"`

	// Action names what was dispatched: an action name, "set <path>",
	// "transition <from>-><to>", "merge", "load" or "dispatch" for raw
	// Dispatch calls.
	Action string `json:"action"`

	// Phase is the state machine phase after the dispatch, if any.
	Phase string `json:"phase,omitempty"`

	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`

	// Subscribers is the number of subscribers notified.
	Subscribers int `json:"subscribers"`

	// Err is the mutator error that aborted the dispatch.
	Err error `json:"-"`

	// Error is Err's message, for serialization.
	Error string `json:"error,omitempty"`
}

// Observer receives dispatcher activity. Implementations must not dispatch
// into the store being observed.
type Observer interface {
	// BeginDispatch is called before the mutator runs. The returned function
	// is called once the dispatch finished, including when a subscriber
	// panics.
	BeginDispatch(ev DispatchEvent) func(DispatchEvent)

	// Rerender is called each time a change subscriber of store signals a
	// re-render.
	Rerender(store string)
}

type nopObserver struct{}

func (nopObserver) BeginDispatch(DispatchEvent) func(DispatchEvent) { return func(DispatchEvent) {} }
func (nopObserver) Rerender(string)                                 {}

type multiObserver []Observer

// Observers combines observers. They are called in order.
func Observers(obs ...Observer) Observer {
	var out multiObserver
	for _, o := range obs {
		if o == nil {
			continue
		}
		if m, ok := o.(multiObserver); ok {
			out = append(out, m...)
			continue
		}
		out = append(out, o)
	}
	switch len(out) {
	case 0:
		return nopObserver{}
	case 1:
		return out[0]
	}
	return out
}

func (m multiObserver) BeginDispatch(ev DispatchEvent) func(DispatchEvent) {
	finishers := make([]func(DispatchEvent), len(m))
	for i, o := range m {
		finishers[i] = o.BeginDispatch(ev)
	}
	return func(done DispatchEvent) {
		for i := len(finishers) - 1; i >= 0; i-- {
			finishers[i](done)
		}
	}
}

func (m multiObserver) Rerender(store string) {
	for _, o := range m {
		o.Rerender(store)
	}
}
