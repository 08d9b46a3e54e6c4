package stateart

import (
	"context"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/vango-dev/stateart/internal/errors"
)

// DefaultSaveTimeout bounds the automatic save that follows a dispatch on a
// persisted store.
const DefaultSaveTimeout = 5 * time.Second

// Registry owns a set of named stores. Build one at application setup and
// pass it, or the store handles it returns, to the code that needs them.
type Registry struct {
	logger          *slog.Logger
	observer        Observer
	storage         Storage
	mergeDuplicates bool
	saveTimeout     time.Duration

	mu     sync.RWMutex
	stores map[string]Handle
	order  []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithObserver adds an observer. Multiple observers are called in the order
// they were added.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = Observers(r.observer, o)
	}
}

// WithStorage sets the backend persisted stores load from and save to.
func WithStorage(s Storage) Option {
	return func(r *Registry) {
		r.storage = s
	}
}

// WithMergeDuplicates makes Define return the existing store for a name
// that is already registered, merging the new initial state into it,
// instead of failing with ErrDuplicateStore.
func WithMergeDuplicates(merge bool) Option {
	return func(r *Registry) {
		r.mergeDuplicates = merge
	}
}

// WithSaveTimeout sets the timeout of the automatic save after a dispatch.
func WithSaveTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.saveTimeout = d
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		logger:      slog.Default(),
		observer:    nopObserver{},
		saveTimeout: DefaultSaveTimeout,
		stores:      make(map[string]Handle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Logger returns the registry logger.
func (r *Registry) Logger() *slog.Logger {
	return r.logger
}

// Storage returns the configured storage backend, or nil.
func (r *Registry) Storage() Storage {
	return r.storage
}

// Define creates the store described by def and registers it under
// def.Name.
//
// Getter and action names must not collide with top-level state fields or
// with each other. A name that is already registered fails with
// ErrDuplicateStore, unless the registry merges duplicates and the state
// types match: then the existing store is returned, with the non-zero
// top-level fields of def.State merged into its state. The existing
// getters and actions are kept.
func Define[S any](r *Registry, def Definition[S]) (*Store[S], error) {
	if def.Name == "" {
		return nil, errors.New("E002").WithDetail("name is empty")
	}
	if err := checkAccessorNames(def); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, ok := r.stores[def.Name]; ok {
		r.mu.Unlock()
		st, sameType := existing.(*Store[S])
		if !r.mergeDuplicates || !sameType {
			return nil, errors.New("E001").
				WithStore(def.Name).
				WithDetailf("%q is already registered", def.Name).
				WithSuggestion("Pick a unique name, or enable merging of duplicate stores")
		}
		r.logger.Warn("merging duplicate store definition", "store", def.Name)
		if err := st.mergeInitial(def.State); err != nil {
			return nil, err
		}
		return st, nil
	}

	st := newStore(r, def)
	r.stores[def.Name] = st
	r.order = append(r.order, def.Name)
	r.mu.Unlock()

	if def.Machine != nil && def.Machine.OnStart != nil {
		if err := st.dispatch("transition start", func(p *S) error {
			next, err := def.Machine.OnStart(*p)
			if err != nil {
				return err
			}
			*p = next
			return nil
		}, true); err != nil {
			r.remove(def.Name)
			return nil, err
		}
	}

	r.logger.Debug("store defined",
		"store", def.Name,
		"hook", HookName(def.Name),
		"getters", len(def.Getters),
		"actions", len(def.Actions),
		"persist", def.Persist,
	)
	return st, nil
}

// MustDefine is like Define but panics on error. It is meant for
// package-level store declarations.
func MustDefine[S any](r *Registry, def Definition[S]) *Store[S] {
	st, err := Define(r, def)
	if err != nil {
		panic(err)
	}
	return st
}

func checkAccessorNames[S any](def Definition[S]) error {
	fields := make(map[string]bool)
	for _, name := range fieldNames(reflect.TypeOf(def.State)) {
		fields[name] = true
	}
	collides := func(name string) bool {
		if fields[name] {
			return true
		}
		if t := reflect.TypeOf(def.State); t != nil {
			for t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			if t.Kind() == reflect.Struct {
				_, ok := fieldIndex(t, name)
				return ok
			}
		}
		return false
	}

	for name := range def.Getters {
		if name == "" {
			return errors.New("E005").WithStore(def.Name).WithDetail("getter with empty name")
		}
		if collides(name) {
			return errors.New("E005").WithStore(def.Name).
				WithDetailf("getter %q shadows a state field", name)
		}
	}
	for name := range def.Actions {
		if name == "" {
			return errors.New("E005").WithStore(def.Name).WithDetail("action with empty name")
		}
		if collides(name) {
			return errors.New("E005").WithStore(def.Name).
				WithDetailf("action %q shadows a state field", name)
		}
		if _, ok := def.Getters[name]; ok {
			return errors.New("E005").WithStore(def.Name).
				WithDetailf("%q is both a getter and an action", name)
		}
	}
	return nil
}

func (r *Registry) remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the store registered under name with state type S.
func Lookup[S any](r *Registry, name string) (*Store[S], error) {
	h, ok := r.Handle(name)
	if !ok {
		return nil, errors.New("E008").WithStore(name).WithDetailf("no store %q", name)
	}
	st, ok := h.(*Store[S])
	if !ok {
		var zero S
		return nil, errors.New("E008").WithStore(name).
			WithDetailf("store %q does not hold %T", name, zero)
	}
	return st, nil
}

// Handle returns the type-erased handle of a store.
func (r *Registry) Handle(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.stores[name]
	return h, ok
}

// Names returns the registered store names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Handles returns every store handle in definition order.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handle, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.stores[name])
	}
	return out
}

// LoadAll hydrates every persisted store from storage, in definition order.
// It stops at the first error.
func (r *Registry) LoadAll(ctx context.Context) error {
	for _, h := range r.Handles() {
		if !h.Persisted() {
			continue
		}
		if err := h.Load(ctx); err != nil {
			return err
		}
	}
	return nil
}
