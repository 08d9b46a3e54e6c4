package component

import (
	"sync/atomic"
)

// RenderFunc renders a component. Hooks such as stateart.Use are called
// from inside it.
type RenderFunc func()

// Instance represents a mounted component.
type Instance struct {
	name    string
	owner   *Owner
	render  RenderFunc
	parent  *Instance
	runtime *Runtime

	// dirty indicates the instance is queued for re-render.
	dirty atomic.Bool

	unmounted atomic.Bool
	renders   atomic.Int64
}

var _ Listener = (*Instance)(nil)

// Name returns the component name given at mount time.
func (i *Instance) Name() string {
	return i.name
}

// ID implements Listener.
func (i *Instance) ID() uint64 {
	return i.owner.ID()
}

// Owner returns the instance's scope.
func (i *Instance) Owner() *Owner {
	return i.owner
}

// Parent returns the parent instance, or nil for a root instance.
func (i *Instance) Parent() *Instance {
	return i.parent
}

// Render runs the render function with this instance as the current owner
// and listener.
func (i *Instance) Render() {
	if i.unmounted.Load() || i.render == nil {
		return
	}

	WithOwner(i.owner, func() {
		i.owner.StartRender()
		defer i.owner.EndRender()

		WithListener(i, func() {
			i.render()
		})
	})

	i.renders.Add(1)
}

// MarkDirty queues the instance for re-render on its runtime.
// Repeated marks before the next Flush collapse into one render.
func (i *Instance) MarkDirty() {
	if i.unmounted.Load() {
		return
	}
	if i.dirty.CompareAndSwap(false, true) {
		if i.runtime != nil {
			i.runtime.schedule(i)
		}
	}
}

// IsDirty returns whether the instance is queued for re-render.
func (i *Instance) IsDirty() bool {
	return i.dirty.Load()
}

// RenderCount returns how many times the instance has rendered.
func (i *Instance) RenderCount() int {
	return int(i.renders.Load())
}

// IsMounted reports whether the instance is still mounted.
func (i *Instance) IsMounted() bool {
	return !i.unmounted.Load()
}

// Unmount disposes the instance's owner, running its cleanups and those of
// every child instance. A pending re-render is dropped.
func (i *Instance) Unmount() {
	if i.unmounted.Swap(true) {
		return
	}
	i.owner.Dispose()
	if i.runtime != nil {
		i.runtime.logger.Debug("component unmounted", "component", i.name, "id", i.owner.ID())
	}
}
