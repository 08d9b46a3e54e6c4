package stateart

import (
	"reflect"

	"github.com/vango-dev/stateart/internal/errors"
)

// phasePath is the selector path of the state machine phase.
const phasePath = "$phase"

// View is the read-tracking handle a consumer renders from. Every leaf read
// through a View is recorded in its tracker; after each dispatch the
// tracker's subscriber re-derives those reads to decide whether the
// consumer must re-render.
//
// A View is only meaningful while the consumer renders. Reads made later,
// from a callback for instance, are recorded but the consumer may already
// have been signalled for a stale value.
type View[S any] struct {
	store   *Store[S]
	tracker *Tracker[S]
	prefix  []string
}

// Store returns the store the view reads from.
func (v View[S]) Store() *Store[S] {
	return v.store
}

// Tracker returns the selector dictionary the view records into.
func (v View[S]) Tracker() *Tracker[S] {
	return v.tracker
}

// Path returns the dotted path the view is rooted at, "" for the root.
func (v View[S]) Path() string {
	return joinPath(v.prefix)
}

func (v View[S]) segments(path string) []string {
	segs := make([]string, 0, len(v.prefix)+4)
	segs = append(segs, v.prefix...)
	return append(segs, splitPath(path)...)
}

// Get reads the value at path, relative to the view.
//
//   - A leaf value (number, string, bool, nil pointer...) is recorded and
//     returned.
//   - A struct, map, slice or array comes back as a nested View[S] rooted
//     at that path; it is not recorded itself.
//   - A function, or an action name on the root view, comes back as is and
//     is not recorded.
//   - A getter name on the root view evaluates the getter and records it.
//   - A path that does not resolve returns nil and is not recorded.
func (v View[S]) Get(path string) any {
	val, _ := v.Lookup(path)
	return val
}

// Lookup is Get with an ErrUnknownPath error for paths that do not resolve.
func (v View[S]) Lookup(path string) (any, error) {
	segs := v.segments(path)
	full := joinPath(segs)
	if len(segs) == 0 {
		return v, nil
	}

	if len(segs) == 1 {
		name := segs[0]
		if g, ok := v.store.getters[name]; ok {
			val := v.store.read(func(s *S) any { return g(*s) })
			v.tracker.record(full, func(s *S) any { return g(*s) }, val)
			return val, nil
		}
		if _, ok := v.store.actions[name]; ok {
			return v.Action(name), nil
		}
	}

	var (
		ok    bool
		class valueClass
	)
	val := v.store.read(func(s *S) any {
		var rv reflect.Value
		rv, ok = resolve(reflect.ValueOf(s).Elem(), segs)
		class = classify(rv)
		switch {
		case ok && class == classLeaf:
			return leafValue(rv)
		case ok && class == classFunc:
			return rv.Interface()
		}
		return nil
	})

	if !ok {
		return nil, errors.New("E003").WithStore(v.store.name).WithDetailf("path %q", full)
	}
	switch class {
	case classObject:
		return View[S]{store: v.store, tracker: v.tracker, prefix: segs}, nil
	case classFunc:
		return val, nil
	}
	v.tracker.record(full, pathAccessor[S](segs), val)
	return val, nil
}

// pathAccessor re-derives a leaf path from the root of a state.
func pathAccessor[S any](segs []string) func(*S) any {
	return func(s *S) any {
		rv, ok := resolve(reflect.ValueOf(s).Elem(), segs)
		if !ok || classify(rv) != classLeaf {
			return missing
		}
		return leafValue(rv)
	}
}

// At returns the nested view rooted at path. Nothing is recorded.
func (v View[S]) At(path string) View[S] {
	return View[S]{store: v.store, tracker: v.tracker, prefix: v.segments(path)}
}

// Set assigns value at path through the dispatcher, so every subscriber
// sees the change. Paths naming an action or a getter are reserved and fail
// with ErrReservedPath without touching the state.
func (v View[S]) Set(path string, value any) error {
	segs := v.segments(path)
	full := joinPath(segs)
	if len(segs) == 0 {
		return errors.New("E003").WithStore(v.store.name).WithDetail("empty path")
	}
	if _, ok := v.store.actions[full]; ok {
		return errors.New("E004").WithStore(v.store.name).
			WithDetailf("%q is an action", full).
			WithSuggestion("Call the action instead of assigning to it")
	}
	if _, ok := v.store.getters[full]; ok {
		return errors.New("E004").WithStore(v.store.name).
			WithDetailf("%q is a getter", full)
	}

	err := v.store.dispatch("set "+full, func(s *S) error {
		return assignPath(reflect.ValueOf(s).Elem(), segs, value)
	}, true)
	return storeError(err, "E009", v.store.name)
}

// Action returns a function invoking the named action. It is not recorded.
func (v View[S]) Action(name string) func(args ...any) error {
	return func(args ...any) error {
		return v.store.Call(name, args...)
	}
}

// Phase reads the state machine phase and records it, so a phase change
// re-renders the consumer.
func (v View[S]) Phase() string {
	phase := v.store.Phase()
	v.tracker.record(phasePath, func(*S) any { return v.store.phase }, phase)
	return phase
}

// Read reads a leaf through a view and asserts its type. It returns the
// zero V when the path does not resolve to a V.
//
//	count := stateart.Read[int](view, "count")
func Read[V any, S any](v View[S], path string) V {
	val, _ := v.Get(path).(V)
	return val
}

// Select records an explicit selector: fn is evaluated now and after each
// dispatch, and a change of its result re-renders the consumer. path names
// the selector in the tracker.
//
//	city := stateart.Select(view, "address.city", func(s User) string {
//	    return s.Address.City
//	})
func Select[S any, V comparable](v View[S], path string, fn func(S) V) V {
	val, _ := v.store.read(func(s *S) any { return fn(*s) }).(V)

	v.tracker.record(joinPath(v.segments(path)), func(s *S) any { return fn(*s) }, val)
	return val
}
