package component

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// TrackingContext holds the render state for a goroutine.
// Each goroutine has its own tracking context so that independent runtimes
// can render on different goroutines.
type TrackingContext struct {
	// currentOwner is the Owner of the component currently rendering.
	currentOwner *Owner

	// currentListener is the instance currently rendering.
	// Hooks use it as the target of re-render signals.
	currentListener Listener

	// renderDepth is > 0 while any component render is on the stack.
	renderDepth int
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

var idCounter atomic.Uint64

func nextID() uint64 {
	return idCounter.Add(1)
}

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the "goroutine <id> " header of the runtime stack.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current goroutine.
// If no context exists, creates a new one.
func getTrackingContext() *TrackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*TrackingContext)
	}

	ctx := &TrackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// CurrentOwner returns the Owner of the component currently rendering on
// this goroutine, or nil outside render.
func CurrentOwner() *Owner {
	return getTrackingContext().currentOwner
}

// CurrentListener returns the instance currently rendering on this
// goroutine, or nil outside render.
func CurrentListener() Listener {
	return getTrackingContext().currentListener
}

// InRender reports whether a component render is in progress on this goroutine.
func InRender() bool {
	return getTrackingContext().renderDepth > 0
}

func setCurrentOwner(o *Owner) *Owner {
	ctx := getTrackingContext()
	old := ctx.currentOwner
	ctx.currentOwner = o
	return old
}

func setCurrentListener(l Listener) Listener {
	ctx := getTrackingContext()
	old := ctx.currentListener
	ctx.currentListener = l
	return old
}

func beginRender() {
	getTrackingContext().renderDepth++
}

func endRender() {
	ctx := getTrackingContext()
	if ctx.renderDepth > 0 {
		ctx.renderDepth--
	}
}

// WithOwner runs fn with owner as the current owner.
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// WithListener runs fn with l as the current listener.
func WithListener(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// ReleaseGoroutine removes the tracking context for the current goroutine.
// Goroutines that rendered components may call it before exiting.
func ReleaseGoroutine() {
	trackingContexts.Delete(getGoroutineID())
}
