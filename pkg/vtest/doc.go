// Package vtest provides testing helpers for stateart stores and the
// components that consume them.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.New(t)
//	    counter := vtest.Define(h, counterDefinition)
//
//	    label := h.Mount("Label", func() {
//	        view := stateart.Use(counter)
//	        _ = stateart.Read[int](view, "count")
//	    })
//
//	    vtest.Call(t, counter, "increase")
//	    h.Flush()
//
//	    vtest.ExpectRenders(t, label, 2)
//	    vtest.ExpectState(t, counter, Counter{Count: 1})
//	}
//
// # Persistence
//
// Every harness owns an in-memory storage backend. Restart simulates a
// process restart: it returns a new harness with a fresh registry and
// runtime over the same storage, so persisted stores defined again with
// Define come back with their saved state.
//
//	h.Restart()
//	counter = vtest.Define(h2, counterDefinition)
//	vtest.ExpectState(t, counter, Counter{Count: 1})
//
// # Assertions
//
// State assertions use go-cmp, so the failure output is a diff:
//
//	vtest.ExpectState(t, store, want, cmpopts.EquateEmpty())
//	vtest.ExpectTracked(t, view, "count", "doubleCount")
//	vtest.ExpectCode(t, err, "E004")
package vtest
