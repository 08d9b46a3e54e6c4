package stateart

import (
	"github.com/vango-dev/stateart/internal/errors"
	"github.com/vango-dev/stateart/pkg/component"
)

// mount is the per-component hook state kept in an owner hook slot.
type mount[S any] struct {
	store       *Store[S]
	tracker     *Tracker[S]
	unsubscribe func()
}

// Use binds the rendering component to a store and returns a tracking view.
//
// On the first render it creates the component's tracker and subscribes a
// change subscriber that marks the component dirty when a path it read
// changes; the subscription is removed when the component unmounts. Later
// renders reuse the same tracker.
//
// Use panics with ErrOutsideRender when no component is rendering.
//
//	rt.Mount("Counter", func() {
//	    view := stateart.Use(counter)
//	    label := fmt.Sprintf("Count: %d", stateart.Read[int](view, "count"))
//	    ...
//	})
func Use[S any](s *Store[S]) View[S] {
	owner := component.CurrentOwner()
	listener := component.CurrentListener()
	if owner == nil || listener == nil || !component.InRender() {
		panic(errors.New("E010").WithStore(s.name).
			WithSuggestion("Call Use from a component render, or use Track"))
	}
	owner.TrackHook(component.HookStore)

	if slot := owner.UseHookSlot(); slot != nil {
		m, ok := slot.(*mount[S])
		if !ok || m.store != s {
			panic(errors.New("E012").WithStore(s.name).
				WithDetailf("hook slot holds %T", slot))
		}
		return View[S]{store: s, tracker: m.tracker}
	}

	view, unsubscribe := Track(s, listener.MarkDirty)
	owner.SetHookSlot(&mount[S]{store: s, tracker: view.tracker, unsubscribe: unsubscribe})
	owner.OnCleanup(unsubscribe)
	return view
}

// Track subscribes onChange to the paths read through the returned view.
// It is the hook without a component: the caller reads through the view,
// receives onChange calls when a read value changes, and calls the returned
// function to stop.
func Track[S any](s *Store[S], onChange func()) (View[S], func()) {
	t := newTracker[S]()
	sub := newChangeSubscriber(t, s.mu.RLocker(), func() {
		s.registry.observer.Rerender(s.name)
		onChange()
	})
	unsubscribe := s.Subscribe(sub)
	s.mounted()
	return View[S]{store: s, tracker: t}, unsubscribe
}

// providerKey scopes provided stores by name in component context.
type providerKey string

// Provide makes s available to the rendering component's descendants
// through Consume. It is the provider component of a store.
func Provide[S any](s *Store[S]) {
	owner := component.CurrentOwner()
	if owner == nil {
		panic(errors.New("E010").WithStore(s.name).
			WithDetailf("%s outside render", s.ProviderName()))
	}
	owner.TrackHook(component.HookProvide)
	owner.SetValue(providerKey(s.name), s)
}

// Consume returns the nearest store named name provided by an ancestor.
func Consume[S any](name string) (*Store[S], bool) {
	if owner := component.CurrentOwner(); owner != nil {
		owner.TrackHook(component.HookConsume)
	}
	v, ok := component.GetContext(providerKey(name))
	if !ok {
		return nil, false
	}
	s, ok := v.(*Store[S])
	return s, ok
}
