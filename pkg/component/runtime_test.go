package component

import (
	"sync"
	"testing"
)

func TestMountRendersOnce(t *testing.T) {
	rt := NewRuntime()
	renders := 0
	inst := rt.Mount("Counter", func() { renders++ })

	if renders != 1 || inst.RenderCount() != 1 {
		t.Errorf("renders = %d, RenderCount = %d; want 1, 1", renders, inst.RenderCount())
	}
	if inst.Name() != "Counter" {
		t.Errorf("Name() = %q, want Counter", inst.Name())
	}
}

func TestRenderSetsOwnerAndListener(t *testing.T) {
	rt := NewRuntime()
	var (
		gotOwner    *Owner
		gotListener Listener
		inRender    bool
	)
	inst := rt.Mount("Probe", func() {
		gotOwner = CurrentOwner()
		gotListener = CurrentListener()
		inRender = InRender()
	})

	if gotOwner != inst.Owner() {
		t.Error("CurrentOwner during render should be the instance owner")
	}
	if gotListener != Listener(inst) {
		t.Error("CurrentListener during render should be the instance")
	}
	if !inRender {
		t.Error("InRender should be true during render")
	}
	if CurrentOwner() != nil || CurrentListener() != nil || InRender() {
		t.Error("tracking context should be restored after render")
	}
}

func TestMarkDirtyCollapses(t *testing.T) {
	rt := NewRuntime()
	inst := rt.Mount("A", func() {})

	inst.MarkDirty()
	inst.MarkDirty()
	inst.MarkDirty()

	if rt.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", rt.Pending())
	}
	if n := rt.Flush(); n != 1 {
		t.Errorf("Flush() = %d, want 1", n)
	}
	if inst.RenderCount() != 2 {
		t.Errorf("RenderCount() = %d, want 2", inst.RenderCount())
	}
	if inst.IsDirty() {
		t.Error("instance should be clean after Flush")
	}
}

func TestFlushOrder(t *testing.T) {
	rt := NewRuntime()
	var order []string
	a := rt.Mount("a", func() { order = append(order, "a") })
	b := rt.Mount("b", func() { order = append(order, "b") })
	order = nil

	b.MarkDirty()
	a.MarkDirty()
	rt.Flush()

	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Errorf("render order = %v, want [b a]", order)
	}
}

func TestUnmountDropsPendingRender(t *testing.T) {
	rt := NewRuntime()
	inst := rt.Mount("A", func() {})

	inst.MarkDirty()
	inst.Unmount()

	if n := rt.Flush(); n != 0 {
		t.Errorf("Flush() = %d, want 0", n)
	}
	if inst.IsMounted() {
		t.Error("instance should be unmounted")
	}

	inst.MarkDirty()
	if rt.Pending() != 0 {
		t.Error("MarkDirty on an unmounted instance should not schedule")
	}
}

func TestUnmountParentUnmountsChild(t *testing.T) {
	rt := NewRuntime()
	parent := rt.Mount("Parent", func() {})
	cleaned := false
	child := rt.MountChild(parent, "Child", func() {
		if o := CurrentOwner(); o.UseHookSlot() == nil {
			o.SetHookSlot(true)
			o.OnCleanup(func() { cleaned = true })
		}
	})

	parent.Unmount()

	if !cleaned {
		t.Error("child cleanup should run when the parent unmounts")
	}
	if child.IsMounted() {
		t.Error("child should count as unmounted")
	}
}

func TestFlushRenderBudget(t *testing.T) {
	rt := NewRuntime(WithMaxRendersPerFlush(5))
	var self *Instance
	self = rt.Mount("Loop", func() {
		if self != nil {
			self.MarkDirty()
		}
	})
	self.MarkDirty()

	if n := rt.Flush(); n != 5 {
		t.Errorf("Flush() = %d, want 5", n)
	}
	if rt.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", rt.Pending())
	}
}

func TestContextValues(t *testing.T) {
	rt := NewRuntime()
	parent := rt.Mount("Provider", func() {
		SetContext("locale", "fr")
	})

	var got any
	var ok bool
	rt.MountChild(parent, "Consumer", func() {
		got, ok = GetContext("locale")
	})

	if !ok || got != "fr" {
		t.Errorf("GetContext = %v, %v; want fr, true", got, ok)
	}
	if _, ok := GetContext("locale"); ok {
		t.Error("GetContext outside render should report false")
	}
}

func TestTrackingContextIsolation(t *testing.T) {
	var wg sync.WaitGroup
	owners := make(chan *Owner, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer ReleaseGoroutine()
			o := NewOwner(nil)
			WithOwner(o, func() {
				owners <- CurrentOwner()
			})
		}()
	}
	wg.Wait()
	close(owners)

	var got []*Owner
	for o := range owners {
		got = append(got, o)
	}
	if len(got) != 2 || got[0] == got[1] {
		t.Error("each goroutine should see its own current owner")
	}
}
