package vtest

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/stateart/internal/errors"
	"github.com/vango-dev/stateart/pkg/component"
	"github.com/vango-dev/stateart/pkg/persist"
	"github.com/vango-dev/stateart/pkg/stateart"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// Harness bundles a registry, a component runtime and an in-memory storage
// backend for one test.
type Harness struct {
	t        testing.TB
	opts     []stateart.Option
	storage  *persist.Memory
	registry *stateart.Registry
	runtime  *component.Runtime
}

// New creates a harness. The options are applied to the registry after the
// harness storage, so a test can still override it.
func New(t testing.TB, opts ...stateart.Option) *Harness {
	return newHarness(t, persist.NewMemory(), opts)
}

func newHarness(t testing.TB, storage *persist.Memory, opts []stateart.Option) *Harness {
	all := append([]stateart.Option{stateart.WithStorage(storage), stateart.WithLogger(quiet)}, opts...)
	h := &Harness{
		t:        t,
		opts:     opts,
		storage:  storage,
		registry: stateart.NewRegistry(all...),
		runtime:  component.NewRuntime(component.WithLogger(quiet)),
	}
	t.Cleanup(h.runtime.Dispose)
	return h
}

// Registry returns the harness registry.
func (h *Harness) Registry() *stateart.Registry {
	return h.registry
}

// Runtime returns the harness component runtime.
func (h *Harness) Runtime() *component.Runtime {
	return h.runtime
}

// Storage returns the harness storage backend.
func (h *Harness) Storage() *persist.Memory {
	return h.storage
}

// Mount mounts a root component.
func (h *Harness) Mount(name string, render func()) *component.Instance {
	return h.runtime.Mount(name, render)
}

// MountChild mounts a component under parent.
func (h *Harness) MountChild(parent *component.Instance, name string, render func()) *component.Instance {
	return h.runtime.MountChild(parent, name, render)
}

// Flush re-renders dirty components and returns how many rendered.
func (h *Harness) Flush() int {
	return h.runtime.Flush()
}

// Restart simulates a process restart: the returned harness has a new
// registry and runtime over the same storage. The old runtime is disposed.
func (h *Harness) Restart() *Harness {
	h.runtime.Dispose()
	return newHarness(h.t, h.storage, h.opts)
}

// Define defines a store on the harness registry, failing the test on
// error. Persisted stores are loaded from the harness storage.
func Define[S any](h *Harness, def stateart.Definition[S]) *stateart.Store[S] {
	h.t.Helper()
	st, err := stateart.Define(h.registry, def)
	if err != nil {
		h.t.Fatalf("define store %q: %v", def.Name, err)
	}
	if def.Persist {
		if err := st.Load(context.Background()); err != nil {
			h.t.Fatalf("load store %q: %v", def.Name, err)
		}
	}
	return st
}

// Call invokes an action, failing the test on error.
func Call[S any](t testing.TB, st *stateart.Store[S], action string, args ...any) {
	t.Helper()
	if err := st.Call(action, args...); err != nil {
		t.Fatalf("%s.%s: %v", st.Name(), action, err)
	}
}

// ExpectState asserts the store state equals want.
func ExpectState[S any](t testing.TB, st *stateart.Store[S], want S, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(want, st.Snapshot(), opts...); diff != "" {
		t.Errorf("store %q state mismatch (-want +got):\n%s", st.Name(), diff)
	}
}

// ExpectRenders asserts how many times a component has rendered.
func ExpectRenders(t testing.TB, inst *component.Instance, want int) {
	t.Helper()
	if got := inst.RenderCount(); got != want {
		t.Errorf("component %q rendered %d times, want %d", inst.Name(), got, want)
	}
}

// ExpectTracked asserts the paths a view's tracker recorded, in first-read
// order.
func ExpectTracked[S any](t testing.TB, view stateart.View[S], paths ...string) {
	t.Helper()
	if diff := cmp.Diff(paths, view.Tracker().Paths()); diff != "" {
		t.Errorf("tracked paths mismatch (-want +got):\n%s", diff)
	}
}

// ExpectCode asserts err is a StoreError with the given code.
func ExpectCode(t testing.TB, err error, code string) {
	t.Helper()
	if err == nil {
		t.Errorf("expected error %s, got nil", code)
		return
	}
	var se *errors.StoreError
	if !stderrors.As(err, &se) || se.Code != code {
		t.Errorf("expected error %s, got %v", code, err)
	}
}

// ExpectPersisted asserts a snapshot is saved for the store.
func ExpectPersisted(t testing.TB, h *Harness, store string) {
	t.Helper()
	if _, err := h.storage.Load(context.Background(), stateart.StorageKey(store)); err != nil {
		t.Errorf("store %q not persisted: %v", store, err)
	}
}

// ExpectNotPersisted asserts no snapshot is saved for the store.
func ExpectNotPersisted(t testing.TB, h *Harness, store string) {
	t.Helper()
	_, err := h.storage.Load(context.Background(), stateart.StorageKey(store))
	if !stderrors.Is(err, persist.ErrNotFound) {
		t.Errorf("store %q unexpectedly persisted (err=%v)", store, err)
	}
}
