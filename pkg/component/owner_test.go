package component

import (
	"sync"
	"testing"
)

func TestOwnerBasic(t *testing.T) {
	owner := NewOwner(nil)

	if owner.ID() == 0 {
		t.Error("owner should have non-zero ID")
	}
	if owner.Parent() != nil {
		t.Error("root owner should have nil parent")
	}
	if owner.IsDisposed() {
		t.Error("new owner should not be disposed")
	}
}

func TestOwnerDisposeHierarchy(t *testing.T) {
	root := NewOwner(nil)
	child1 := NewOwner(root)
	child2 := NewOwner(root)
	grandchild := NewOwner(child1)

	var order []string
	var mu sync.Mutex
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	grandchild.OnCleanup(record("grandchild"))
	child1.OnCleanup(record("child1"))
	child2.OnCleanup(record("child2"))
	root.OnCleanup(record("root"))

	root.Dispose()

	for _, o := range []*Owner{root, child1, child2, grandchild} {
		if !o.IsDisposed() {
			t.Errorf("owner %d should be disposed", o.ID())
		}
	}

	want := []string{"child2", "grandchild", "child1", "root"}
	if len(order) != len(want) {
		t.Fatalf("cleanup order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("cleanup order = %v, want %v", order, want)
			break
		}
	}
}

func TestOwnerDisposeTwice(t *testing.T) {
	owner := NewOwner(nil)
	calls := 0
	owner.OnCleanup(func() { calls++ })

	owner.Dispose()
	owner.Dispose()

	if calls != 1 {
		t.Errorf("cleanup ran %d times, want 1", calls)
	}
}

func TestOwnerCleanupAfterDispose(t *testing.T) {
	owner := NewOwner(nil)
	owner.Dispose()

	ran := false
	owner.OnCleanup(func() { ran = true })
	if !ran {
		t.Error("cleanup registered on a disposed owner should run immediately")
	}
}

func TestOwnerDisposeRemovesFromParent(t *testing.T) {
	root := NewOwner(nil)
	child := NewOwner(root)

	child.Dispose()

	root.childrenMu.Lock()
	n := len(root.children)
	root.childrenMu.Unlock()
	if n != 0 {
		t.Errorf("root has %d children after child disposal, want 0", n)
	}
}

func TestOwnerValues(t *testing.T) {
	root := NewOwner(nil)
	child := NewOwner(root)

	root.SetValue("theme", "dark")
	child.SetValue("size", 3)

	if v, ok := child.Value("theme"); !ok || v != "dark" {
		t.Errorf("child.Value(theme) = %v, %v; want dark, true", v, ok)
	}
	if _, ok := root.Value("size"); ok {
		t.Error("parent should not see child values")
	}

	child.SetValue("theme", "light")
	if v, _ := child.Value("theme"); v != "light" {
		t.Errorf("child override = %v, want light", v)
	}
	if v, _ := root.Value("theme"); v != "dark" {
		t.Errorf("root value = %v, want dark", v)
	}
}

func TestHookSlots(t *testing.T) {
	owner := NewOwner(nil)

	owner.StartRender()
	if slot := owner.UseHookSlot(); slot != nil {
		t.Fatalf("first render slot = %v, want nil", slot)
	}
	owner.SetHookSlot("a")
	if slot := owner.UseHookSlot(); slot != nil {
		t.Fatalf("first render slot = %v, want nil", slot)
	}
	owner.SetHookSlot("b")
	owner.EndRender()

	owner.StartRender()
	if slot := owner.UseHookSlot(); slot != "a" {
		t.Errorf("slot 0 = %v, want a", slot)
	}
	if slot := owner.UseHookSlot(); slot != "b" {
		t.Errorf("slot 1 = %v, want b", slot)
	}
	owner.EndRender()
}

func TestHookOrderValidation(t *testing.T) {
	DebugMode = true
	defer func() { DebugMode = false }()

	owner := NewOwner(nil)

	owner.StartRender()
	owner.TrackHook(HookStore)
	owner.TrackHook(HookConsume)
	owner.EndRender()

	owner.StartRender()
	owner.TrackHook(HookStore)
	owner.TrackHook(HookConsume)
	owner.EndRender()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for changed hook order")
		}
	}()

	owner.StartRender()
	defer owner.EndRender()
	owner.TrackHook(HookConsume)
}

func TestHookTypeString(t *testing.T) {
	tests := []struct {
		hook HookType
		want string
	}{
		{HookStore, "Store"},
		{HookProvide, "Provide"},
		{HookConsume, "Consume"},
		{HookSlot, "Slot"},
		{HookType(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.hook.String(); got != tt.want {
			t.Errorf("HookType(%d).String() = %q, want %q", tt.hook, got, tt.want)
		}
	}
}
