package component

import (
	"log/slog"
	"sync"

	"github.com/eapache/queue"
)

// DefaultMaxRendersPerFlush bounds the renders of a single Flush so that a
// component that marks itself dirty on every render cannot spin forever.
const DefaultMaxRendersPerFlush = 10000

// Runtime mounts components and re-renders the dirty ones.
type Runtime struct {
	root   *Owner
	logger *slog.Logger

	maxRenders int

	// pending holds dirty instances in the order they were marked.
	pending   *queue.Queue
	pendingMu sync.Mutex
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithMaxRendersPerFlush sets the per-Flush render budget.
func WithMaxRendersPerFlush(n int) Option {
	return func(r *Runtime) {
		r.maxRenders = n
	}
}

// NewRuntime creates a runtime with its own root owner.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		root:       NewOwner(nil),
		logger:     slog.Default(),
		maxRenders: DefaultMaxRendersPerFlush,
		pending:    queue.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the runtime's root owner. Context values set on it are
// visible to every mounted component.
func (r *Runtime) Root() *Owner {
	return r.root
}

// Mount creates a root-level instance and renders it once.
func (r *Runtime) Mount(name string, render RenderFunc) *Instance {
	return r.mount(nil, name, render)
}

// MountChild creates an instance under parent and renders it once.
// Unmounting parent unmounts the child's scope too.
func (r *Runtime) MountChild(parent *Instance, name string, render RenderFunc) *Instance {
	return r.mount(parent, name, render)
}

func (r *Runtime) mount(parent *Instance, name string, render RenderFunc) *Instance {
	parentOwner := r.root
	if parent != nil {
		parentOwner = parent.owner
	}

	inst := &Instance{
		name:    name,
		owner:   NewOwner(parentOwner),
		render:  render,
		parent:  parent,
		runtime: r,
	}
	// A scope disposed by an ancestor counts as unmounted.
	inst.owner.OnCleanup(func() { inst.unmounted.Store(true) })

	r.logger.Debug("component mounted", "component", name, "id", inst.owner.ID())
	inst.Render()
	return inst
}

func (r *Runtime) schedule(inst *Instance) {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	r.pending.Add(inst)
}

func (r *Runtime) next() *Instance {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	if r.pending.Length() == 0 {
		return nil
	}
	return r.pending.Remove().(*Instance)
}

// Pending returns the number of instances queued for re-render.
func (r *Runtime) Pending() int {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	return r.pending.Length()
}

// Flush re-renders queued instances in FIFO order and returns how many
// renders ran. Instances marked dirty while flushing are rendered in the same
// Flush, up to the render budget; anything left over stays queued.
func (r *Runtime) Flush() int {
	rendered := 0
	for rendered < r.maxRenders {
		inst := r.next()
		if inst == nil {
			return rendered
		}
		inst.dirty.Store(false)
		if !inst.IsMounted() {
			continue
		}
		inst.Render()
		rendered++
	}

	if left := r.Pending(); left > 0 {
		r.logger.Warn("render budget exceeded", "rendered", rendered, "pending", left)
	}
	return rendered
}

// Dispose unmounts everything mounted on the runtime.
func (r *Runtime) Dispose() {
	r.root.Dispose()
}
