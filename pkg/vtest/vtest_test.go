package vtest

import (
	"testing"

	"github.com/vango-dev/stateart/pkg/stateart"
)

type counter struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

func counterDefinition(persist bool) stateart.Definition[counter] {
	return stateart.Definition[counter]{
		Name:  "counter",
		State: counter{Label: "clicks"},
		Getters: map[string]stateart.Getter[counter]{
			"doubleCount": func(s counter) any { return s.Count * 2 },
		},
		Actions: map[string]stateart.Action[counter]{
			"increase": func(s counter, _ ...any) (counter, error) {
				s.Count++
				return s, nil
			},
			"rename": func(s counter, args ...any) (counter, error) {
				label, err := stateart.Arg[string](args, 0)
				if err != nil {
					return s, err
				}
				s.Label = label
				return s, nil
			},
		},
		Persist: persist,
	}
}

func TestHarnessRenders(t *testing.T) {
	h := New(t)
	st := Define(h, counterDefinition(false))

	var view stateart.View[counter]
	label := h.Mount("Count", func() {
		view = stateart.Use(st)
		_ = stateart.Read[int](view, "count")
		_ = view.Get("doubleCount")
	})
	ExpectRenders(t, label, 1)
	ExpectTracked(t, view, "count", "doubleCount")

	Call(t, st, "increase")
	if n := h.Flush(); n != 1 {
		t.Errorf("Flush() = %d, want 1", n)
	}
	ExpectRenders(t, label, 2)
	ExpectState(t, st, counter{Count: 1, Label: "clicks"})

	// Label is never read, so renaming does not re-render.
	Call(t, st, "rename", "taps")
	h.Flush()
	ExpectRenders(t, label, 2)
}

func TestHarnessChildUnmount(t *testing.T) {
	h := New(t)
	st := Define(h, counterDefinition(false))

	parent := h.Mount("Parent", func() {})
	child := h.MountChild(parent, "Child", func() {
		_ = stateart.Read[int](stateart.Use(st), "count")
	})
	if got := st.SubscriberCount(); got != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", got)
	}

	parent.Unmount()
	if got := st.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() after unmount = %d, want 0", got)
	}
	Call(t, st, "increase")
	h.Flush()
	ExpectRenders(t, child, 1)
}

func TestHarnessRestart(t *testing.T) {
	h := New(t)
	st := Define(h, counterDefinition(true))
	Call(t, st, "increase")
	Call(t, st, "increase")
	ExpectPersisted(t, h, "counter")

	h2 := h.Restart()
	if h2.Registry() == h.Registry() {
		t.Fatal("Restart() kept the registry")
	}
	st2 := Define(h2, counterDefinition(true))
	ExpectState(t, st2, counter{Count: 2, Label: "clicks"})
}

func TestHarnessNotPersisted(t *testing.T) {
	h := New(t)
	st := Define(h, counterDefinition(false))
	Call(t, st, "increase")
	ExpectNotPersisted(t, h, "counter")

	st2 := Define(h.Restart(), counterDefinition(false))
	ExpectState(t, st2, counter{Label: "clicks"})
}

func TestExpectCode(t *testing.T) {
	h := New(t)
	st := Define(h, counterDefinition(false))

	ExpectCode(t, st.Call("missing"), "E006")
	ExpectCode(t, st.Call("rename"), "E009")

	_, err := stateart.Define(h.Registry(), counterDefinition(false))
	ExpectCode(t, err, "E001")
}
