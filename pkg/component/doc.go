// Package component is the minimal host rendering model stores bind to.
//
// It provides the pieces a UI framework gives a state hook:
//
//   - Owner: a component scope with cleanups, hook slots and context values.
//     Disposing an Owner disposes its children and runs its cleanups, which
//     is how a store subscription is removed when a component unmounts.
//   - A per-goroutine tracking context holding the current Owner and the
//     current Listener while a component renders.
//   - Instance: a mounted component. MarkDirty queues it for re-render.
//   - Runtime: the scheduler. Flush re-renders dirty instances in the order
//     they were marked.
//
// Usage:
//
//	rt := component.NewRuntime()
//	inst := rt.Mount("Counter", func() {
//	    view := stateart.Use(counter)
//	    label = fmt.Sprint(view.Get("count"))
//	})
//	counter.Call("increase")
//	rt.Flush() // re-renders inst
//
// Rendering is synchronous and single-threaded per Runtime: Mount, Flush and
// the store dispatches that mark instances dirty are expected to happen on
// the same goroutine.
package component
