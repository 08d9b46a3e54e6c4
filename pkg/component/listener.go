package component

// Listener is notified when something it depends on has changed.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has changed.
	// For component instances, this schedules a re-render.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	ID() uint64
}
