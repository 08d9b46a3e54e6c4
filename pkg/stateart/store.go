package stateart

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vango-dev/stateart/internal/errors"
)

// Getter derives a value from a state snapshot.
type Getter[S any] func(state S) any

// Action computes the next state from the current one and the call
// arguments. Returning an error aborts the dispatch: the state is left as
// it was and no subscriber is notified.
type Action[S any] func(state S, args ...any) (S, error)

// Dispatch applies a mutator to a store's state and notifies subscribers.
type Dispatch[S any] func(mutate func(*S) error) error

// Definition describes a store.
type Definition[S any] struct {
	// Name is unique per registry.
	Name string

	// State is the initial state.
	State S

	// Getters are derived values, readable through views and Getter.
	Getters map[string]Getter[S]

	// Actions are the named mutations, invoked through Call or a view.
	Actions map[string]Action[S]

	// Machine optionally attaches a phase state machine.
	Machine *Machine[S]

	// OnMounted runs once, when the first consumer mounts the store.
	OnMounted func(state S, dispatch Dispatch[S])

	// OnStorageLoaded runs after Load replaced the state with a snapshot.
	OnStorageLoaded func(state S, dispatch Dispatch[S])

	// Persist saves the state to the registry storage after every dispatch.
	Persist bool
}

// Handle is the type-erased view of a store used by tooling.
type Handle interface {
	Name() string
	Export() Snapshot
	Call(action string, args ...any) error
	Phase() string
	SubscriberCount() int
	Actions() []string
	Getters() []string
	Watch(fn func()) (cancel func())
	Persisted() bool
	Load(ctx context.Context) error
	Save(ctx context.Context) error
}

// Snapshot is an exported copy of a store.
type Snapshot struct {
	Name    string         `json:"name"`
	Phase   string         `json:"phase,omitempty"`
	State   any            `json:"state"`
	Getters map[string]any `json:"getters,omitempty"`
}

// Store is a named state container. The state lives behind a pointer that
// never changes; only the value it points to is replaced or mutated, and
// only through the dispatcher.
//
// Dispatches and renders are expected to run on one goroutine. The store
// lock only keeps concurrent readers such as devtools consistent.
type Store[S any] struct {
	name     string
	registry *Registry

	mu    sync.RWMutex
	state *S
	phase string

	getters map[string]Getter[S]
	actions map[string]Action[S]
	machine *Machine[S]

	onMounted       func(S, Dispatch[S])
	onStorageLoaded func(S, Dispatch[S])
	mountedOnce     sync.Once
	persist         bool

	subs       subscriberSet[S]
	dispatches atomic.Uint64
}

var _ Handle = (*Store[struct{}])(nil)

func newStore[S any](r *Registry, def Definition[S]) *Store[S] {
	state := new(S)
	*state = def.State

	st := &Store[S]{
		name:            def.Name,
		registry:        r,
		state:           state,
		getters:         make(map[string]Getter[S], len(def.Getters)),
		actions:         make(map[string]Action[S], len(def.Actions)),
		machine:         def.Machine,
		onMounted:       def.OnMounted,
		onStorageLoaded: def.OnStorageLoaded,
		persist:         def.Persist,
	}
	for k, g := range def.Getters {
		st.getters[k] = g
	}
	for k, a := range def.Actions {
		st.actions[k] = a
	}
	if def.Machine != nil {
		st.phase = def.Machine.Initial
	}
	return st
}

// Name returns the store name.
func (s *Store[S]) Name() string {
	return s.name
}

// HookName returns the conventional hook name, e.g. "useCounterStore".
func (s *Store[S]) HookName() string {
	return HookName(s.name)
}

// ProviderName returns the conventional provider name, e.g.
// "CounterStoreProvider".
func (s *Store[S]) ProviderName() string {
	return ProviderName(s.name)
}

// StorageKey returns the key the store persists under, e.g. "counterStore".
func (s *Store[S]) StorageKey() string {
	return StorageKey(s.name)
}

// State returns the raw state pointer. Reads through it are not tracked,
// and writes through it bypass the dispatcher: subscribers are not told.
func (s *Store[S]) State() *S {
	return s.state
}

// Snapshot returns a copy of the current state value.
func (s *Store[S]) Snapshot() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.state
}

// Dispatches returns how many dispatches completed successfully.
func (s *Store[S]) Dispatches() uint64 {
	return s.dispatches.Load()
}

// Dispatch applies mutate to the state, then calls every subscriber, in
// subscription order, with the same state pointer. If mutate returns an
// error, no subscriber runs and the error is returned. A panic in mutate
// or in a subscriber stops the remaining notifications, is reported to the
// observer as a failed dispatch and propagates. The store stays usable.
func (s *Store[S]) Dispatch(mutate func(*S) error) error {
	return s.dispatch("dispatch", mutate, true)
}

func (s *Store[S]) dispatch(action string, mutate func(*S) error, save bool) error {
	ev := DispatchEvent{
		ID:     ulid.Make().String(),
		Store:  s.name,
		Action: action,
		Start:  time.Now(),
	}
	finish := s.registry.observer.BeginDispatch(ev)
	defer func() {
		r := recover()
		if r != nil {
			ev.Err = fmt.Errorf("panic: %v", r)
		}
		ev.Duration = time.Since(ev.Start)
		ev.Phase = s.Phase()
		if ev.Err != nil {
			ev.Error = ev.Err.Error()
		}
		finish(ev)
		if r != nil {
			panic(r)
		}
	}()

	if err := s.apply(mutate); err != nil {
		ev.Err = err
		return err
	}

	subs := s.subs.snapshot()
	ev.Subscribers = len(subs)
	for _, sub := range subs {
		sub(s.state)
	}
	s.dispatches.Add(1)

	if save && s.persist {
		s.autoSave()
	}
	return nil
}

// apply runs mutate under the write lock.
func (s *Store[S]) apply(mutate func(*S) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mutate(s.state)
}

// read evaluates fn on the state under the read lock.
func (s *Store[S]) read(fn func(*S) any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// Call invokes the named action through the dispatcher.
func (s *Store[S]) Call(name string, args ...any) error {
	act, ok := s.actions[name]
	if !ok {
		return errors.New("E006").WithStore(s.name).WithDetailf("action %q", name)
	}
	return s.dispatch(name, func(p *S) error {
		next, err := act(*p, args...)
		if err != nil {
			return err
		}
		*p = next
		return nil
	}, true)
}

// Getter evaluates the named getter on the current state.
func (s *Store[S]) Getter(name string) (any, error) {
	g, ok := s.getters[name]
	if !ok {
		return nil, errors.New("E011").WithStore(s.name).WithDetailf("getter %q", name)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return g(*s.state), nil
}

// Actions returns the action names, sorted.
func (s *Store[S]) Actions() []string {
	return sortedKeys(s.actions)
}

// Getters returns the getter names, sorted.
func (s *Store[S]) Getters() []string {
	return sortedKeys(s.getters)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Subscribe adds fn to the subscribers. The returned function removes it;
// calling it more than once is harmless.
func (s *Store[S]) Subscribe(fn Subscriber[S]) (unsubscribe func()) {
	id := s.subs.add(fn)
	var once sync.Once
	return func() {
		once.Do(func() { s.subs.remove(id) })
	}
}

// Watch calls fn after every dispatch.
func (s *Store[S]) Watch(fn func()) (cancel func()) {
	return s.Subscribe(func(*S) { fn() })
}

// SubscriberCount returns the number of current subscribers.
func (s *Store[S]) SubscriberCount() int {
	return s.subs.len()
}

// Persisted reports whether the store saves after each dispatch.
func (s *Store[S]) Persisted() bool {
	return s.persist
}

// Export returns a snapshot of the state and of every getter.
func (s *Store[S]) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Name:  s.name,
		Phase: s.phase,
		State: *s.state,
	}
	if len(s.getters) > 0 {
		snap.Getters = make(map[string]any, len(s.getters))
		for name, g := range s.getters {
			snap.Getters[name] = g(*s.state)
		}
	}
	return snap
}

// mounted runs OnMounted the first time a consumer mounts the store.
func (s *Store[S]) mounted() {
	if s.onMounted == nil {
		return
	}
	s.mountedOnce.Do(func() {
		s.onMounted(s.Snapshot(), s.Dispatch)
	})
}

// mergeInitial copies the non-zero top-level values of next into the live
// state through the dispatcher.
func (s *Store[S]) mergeInitial(next S) error {
	return s.dispatch("merge", func(p *S) error {
		mergeNonZero(reflect.ValueOf(p).Elem(), reflect.ValueOf(&next).Elem())
		return nil
	}, true)
}

func mergeNonZero(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Struct:
		for i := 0; i < src.NumField(); i++ {
			if !src.Type().Field(i).IsExported() {
				continue
			}
			if f := src.Field(i); !f.IsZero() {
				dst.Field(i).Set(f)
			}
		}
	case reflect.Map:
		if src.IsNil() {
			return
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMap(dst.Type()))
		}
		iter := src.MapRange()
		for iter.Next() {
			dst.SetMapIndex(iter.Key(), iter.Value())
		}
	default:
		if !src.IsZero() {
			dst.Set(src)
		}
	}
}
