package component

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/stateart/internal/errors"
)

// DebugMode enables hook order validation.
// It should be set at startup and not changed while components render.
var DebugMode bool

// HookType identifies the type of hook call for order validation.
type HookType uint8

const (
	HookStore HookType = iota + 1
	HookProvide
	HookConsume
	HookSlot
)

// String returns a human-readable name for the hook type.
func (h HookType) String() string {
	switch h {
	case HookStore:
		return "Store"
	case HookProvide:
		return "Provide"
	case HookConsume:
		return "Consume"
	case HookSlot:
		return "Slot"
	default:
		return "Unknown"
	}
}

// Owner represents a component scope.
// When an Owner is disposed, its child owners are disposed and its cleanups
// run, so subscriptions a component made while rendering go away with it.
//
// Owners form a hierarchy that mirrors the component tree.
type Owner struct {
	id uint64

	// parent is nil for a root Owner.
	parent *Owner

	children   []*Owner
	childrenMu sync.Mutex

	// cleanups are registered via OnCleanup and run on Dispose.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// values stores context values for this scope.
	values   map[any]any
	valuesMu sync.RWMutex

	disposed atomic.Bool

	// Dev-mode hook order tracking (only used when DebugMode is true)
	hookOrder   []HookType
	hookIndex   int
	renderCount int

	// Hook slot storage for stable identity across renders.
	hookSlots   []any
	hookSlotIdx int
}

// NewOwner creates a new Owner with the given parent.
// If parent is nil, creates a root Owner.
func NewOwner(parent *Owner) *Owner {
	o := &Owner{
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		parent.addChild(o)
	}
	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 {
	return o.id
}

// Parent returns the parent Owner, or nil if this is a root Owner.
func (o *Owner) Parent() *Owner {
	return o.parent
}

// IsDisposed returns true if this Owner has been disposed.
func (o *Owner) IsDisposed() bool {
	return o.disposed.Load()
}

func (o *Owner) addChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

func (o *Owner) removeChild(child *Owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers a cleanup function to run when this Owner is disposed.
// On an already disposed Owner the cleanup runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	if o.disposed.Load() {
		fn()
		return
	}

	o.cleanupsMu.Lock()
	defer o.cleanupsMu.Unlock()
	o.cleanups = append(o.cleanups, fn)
}

// SetValue stores a context value visible to this scope and its descendants.
func (o *Owner) SetValue(key, value any) {
	o.valuesMu.Lock()
	defer o.valuesMu.Unlock()
	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// Value looks up a context value in this scope, then in its ancestors.
func (o *Owner) Value(key any) (any, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		cur.valuesMu.RLock()
		v, ok := cur.values[key]
		cur.valuesMu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Dispose disposes this Owner and all its children.
// Children are disposed in reverse order (last created first), then this
// Owner's cleanups run in reverse registration order.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := make([]*Owner, len(o.children))
	copy(children, o.children)
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	o.cleanupsMu.Lock()
	cleanups := o.cleanups
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	o.hookSlots = nil
}

// =============================================================================
// Render phase and hook order validation
// =============================================================================

// StartRender is called at the beginning of a component render.
func (o *Owner) StartRender() {
	beginRender()
	o.hookSlotIdx = 0
	if DebugMode {
		o.hookIndex = 0
	}
}

// EndRender is called at the end of a component render.
// In debug mode, it validates that all expected hooks were called.
func (o *Owner) EndRender() {
	endRender()

	if !DebugMode {
		return
	}
	if o.renderCount == 0 {
		o.renderCount = 1
	} else if o.hookIndex < len(o.hookOrder) {
		panic(errors.New("E012").
			WithDetailf("expected %d hooks, got %d", len(o.hookOrder), o.hookIndex))
	}
}

// TrackHook records a hook call during render.
// In debug mode, hooks must be called in the same order on every render;
// violations panic with E012.
func (o *Owner) TrackHook(ht HookType) {
	if !DebugMode {
		return
	}

	if o.renderCount == 0 {
		o.hookOrder = append(o.hookOrder, ht)
	} else {
		if o.hookIndex >= len(o.hookOrder) {
			panic(errors.New("E012").
				WithDetailf("extra %s hook at index %d", ht, o.hookIndex))
		}
		if expected := o.hookOrder[o.hookIndex]; expected != ht {
			panic(errors.New("E012").
				WithDetailf("at index %d: expected %s, got %s", o.hookIndex, expected, ht))
		}
	}
	o.hookIndex++
}

// UseHookSlot returns the stored value for the current hook slot, or nil on
// the first render. On nil the caller creates its state and calls SetHookSlot.
//
//	func useThing() *thing {
//	    owner := component.CurrentOwner()
//	    if slot := owner.UseHookSlot(); slot != nil {
//	        return slot.(*thing)
//	    }
//	    t := &thing{}
//	    owner.SetHookSlot(t)
//	    return t
//	}
func (o *Owner) UseHookSlot() any {
	idx := o.hookSlotIdx
	o.hookSlotIdx++

	if idx < len(o.hookSlots) {
		return o.hookSlots[idx]
	}
	return nil
}

// SetHookSlot stores a value in the current hook slot.
// Must be called after UseHookSlot returns nil (first render).
func (o *Owner) SetHookSlot(value any) {
	o.hookSlots = append(o.hookSlots, value)
}
