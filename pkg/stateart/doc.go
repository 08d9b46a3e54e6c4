// Package stateart provides named state stores with fine-grained render
// tracking.
//
// A store is defined once on a Registry from its initial state, getters
// (derived values) and actions (named mutations):
//
//	reg := stateart.NewRegistry()
//	counter := stateart.MustDefine(reg, stateart.Definition[Counter]{
//	    Name:  "counter",
//	    State: Counter{},
//	    Getters: map[string]stateart.Getter[Counter]{
//	        "doubleCount": func(s Counter) any { return s.Count * 2 },
//	    },
//	    Actions: map[string]stateart.Action[Counter]{
//	        "increase": func(s Counter, _ ...any) (Counter, error) {
//	            s.Count++
//	            return s, nil
//	        },
//	    },
//	})
//
// Components read a store through the View returned by Use. Every leaf
// read through the view is recorded; after each dispatch the recorded
// paths are re-derived and the component is marked dirty only when one of
// them changed:
//
//	rt.Mount("Counter", func() {
//	    view := stateart.Use(counter)
//	    render(stateart.Read[int](view, "count"))
//	})
//
// All writes go through the dispatcher: Store.Call, Store.Dispatch,
// View.Set and Store.Transition. The state pointer itself never changes.
package stateart
