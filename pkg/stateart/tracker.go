package stateart

// selector is one recorded read: a path, how to re-derive it from the
// state, and the value seen last.
type selector[S any] struct {
	path string
	get  func(*S) any
	last any
}

// Tracker is the selector dictionary of one mounted consumer. It lives as
// long as the mount and accumulates every path read through its views.
type Tracker[S any] struct {
	entries map[string]*selector[S]
	order   []*selector[S]
}

func newTracker[S any]() *Tracker[S] {
	return &Tracker[S]{entries: make(map[string]*selector[S])}
}

// record stores a read. Revisiting a path replaces its accessor and last
// value but keeps its position.
func (t *Tracker[S]) record(path string, get func(*S) any, value any) {
	if sel, ok := t.entries[path]; ok {
		sel.get = get
		sel.last = value
		return
	}
	sel := &selector[S]{path: path, get: get, last: value}
	t.entries[path] = sel
	t.order = append(t.order, sel)
}

// Paths returns the tracked paths in first-read order.
func (t *Tracker[S]) Paths() []string {
	paths := make([]string, len(t.order))
	for i, sel := range t.order {
		paths[i] = sel.path
	}
	return paths
}

// Len returns the number of tracked paths.
func (t *Tracker[S]) Len() int {
	return len(t.order)
}

// Last returns the value last observed at path.
func (t *Tracker[S]) Last(path string) (any, bool) {
	sel, ok := t.entries[path]
	if !ok {
		return nil, false
	}
	return sel.last, true
}
