package stateart

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/stateart/internal/errors"
	"github.com/vango-dev/stateart/pkg/component"
)

type counterState struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

type address struct {
	City string `json:"city"`
	Zip  string `json:"zip"`
}

type userState struct {
	Name    string  `json:"name"`
	Address address `json:"address"`
}

func counterDef(name string) Definition[counterState] {
	return Definition[counterState]{
		Name:  name,
		State: counterState{},
		Getters: map[string]Getter[counterState]{
			"doubleCount": func(s counterState) any { return s.Count * 2 },
		},
		Actions: map[string]Action[counterState]{
			"increase": func(s counterState, _ ...any) (counterState, error) {
				s.Count++
				return s, nil
			},
			"add": func(s counterState, args ...any) (counterState, error) {
				n, err := Arg[int](args, 0)
				if err != nil {
					return s, err
				}
				s.Count += n
				return s, nil
			},
			"fail": func(s counterState, _ ...any) (counterState, error) {
				s.Count = -1
				return s, stderrors.New("boom")
			},
		},
	}
}

func hasCode(err error, code string) bool {
	var se *errors.StoreError
	return stderrors.As(err, &se) && se.Code == code
}

func TestActionAndGetter(t *testing.T) {
	reg := NewRegistry()
	st := MustDefine(reg, counterDef("counter"))

	if err := st.Call("increase"); err != nil {
		t.Fatalf("increase: %v", err)
	}
	if got := st.Snapshot().Count; got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
	v, err := st.Getter("doubleCount")
	if err != nil {
		t.Fatalf("Getter: %v", err)
	}
	if v != 2 {
		t.Errorf("doubleCount = %v, want 2", v)
	}

	if err := st.Call("add", 3.0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := st.Snapshot().Count; got != 4 {
		t.Errorf("count = %d, want 4", got)
	}
	if got := st.Dispatches(); got != 2 {
		t.Errorf("Dispatches() = %d, want 2", got)
	}
}

func TestUnknownActionAndGetter(t *testing.T) {
	st := MustDefine(NewRegistry(), counterDef("counter"))

	if err := st.Call("nope"); !hasCode(err, "E006") {
		t.Errorf("Call(nope) = %v, want E006", err)
	}
	if _, err := st.Getter("nope"); !hasCode(err, "E011") {
		t.Errorf("Getter(nope) = %v, want E011", err)
	}
}

func TestStatePointerStable(t *testing.T) {
	st := MustDefine(NewRegistry(), counterDef("counter"))
	p := st.State()
	_ = st.Call("increase")
	_ = st.Call("increase")
	if st.State() != p {
		t.Error("state pointer changed across dispatches")
	}
	if p.Count != 2 {
		t.Errorf("count through pointer = %d, want 2", p.Count)
	}
}

func TestFailingActionNotifiesNobody(t *testing.T) {
	st := MustDefine(NewRegistry(), counterDef("counter"))
	calls := 0
	st.Watch(func() { calls++ })

	err := st.Call("fail")
	if err == nil || err.Error() != "boom" {
		t.Fatalf("Call(fail) = %v, want boom", err)
	}
	if calls != 0 {
		t.Errorf("subscriber called %d times, want 0", calls)
	}
	if got := st.Snapshot().Count; got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
}

func TestSubscribersRunInOrder(t *testing.T) {
	st := MustDefine(NewRegistry(), counterDef("counter"))
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		st.Watch(func() { order = append(order, i) })
	}
	_ = st.Call("increase")
	if diff := cmp.Diff([]int{0, 1, 2}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	st := MustDefine(NewRegistry(), counterDef("counter"))
	cancel := st.Watch(func() {})
	other := st.Watch(func() {})
	cancel()
	cancel()
	if got := st.SubscriberCount(); got != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", got)
	}
	other()
	if got := st.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}

func TestDefineValidation(t *testing.T) {
	tests := []struct {
		name string
		def  Definition[counterState]
		code string
	}{
		{
			name: "empty name",
			def:  Definition[counterState]{},
			code: "E002",
		},
		{
			name: "getter shadows field",
			def: Definition[counterState]{
				Name:    "c",
				Getters: map[string]Getter[counterState]{"count": func(counterState) any { return 0 }},
			},
			code: "E005",
		},
		{
			name: "action shadows getter",
			def: Definition[counterState]{
				Name:    "c",
				Getters: map[string]Getter[counterState]{"x": func(counterState) any { return 0 }},
				Actions: map[string]Action[counterState]{"x": func(s counterState, _ ...any) (counterState, error) { return s, nil }},
			},
			code: "E005",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Define(NewRegistry(), tt.def)
			if !hasCode(err, tt.code) {
				t.Errorf("Define() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDuplicateStrict(t *testing.T) {
	reg := NewRegistry()
	MustDefine(reg, counterDef("counter"))
	_, err := Define(reg, counterDef("counter"))
	if !hasCode(err, "E001") {
		t.Fatalf("second Define = %v, want E001", err)
	}
	if !stderrors.Is(err, ErrDuplicateStore) {
		t.Error("error does not match ErrDuplicateStore")
	}
}

func TestDuplicateMergeSharesState(t *testing.T) {
	reg := NewRegistry(WithMergeDuplicates(true))
	a := MustDefine(reg, counterDef("counter"))
	def := counterDef("counter")
	def.State.Label = "merged"
	b := MustDefine(reg, def)

	if a != b {
		t.Fatal("merge mode returned a different store")
	}
	if got := a.Snapshot().Label; got != "merged" {
		t.Errorf("label = %q, want merged", got)
	}

	runA, runB := 0, 0
	rt := component.NewRuntime()
	rt.Mount("A", func() { runA++; _ = Read[int](Use(a), "count") })
	rt.Mount("B", func() { runB++; _ = Read[int](Use(b), "count") })

	_ = a.Call("increase")
	rt.Flush()
	if runA != 2 || runB != 2 {
		t.Errorf("renders = %d/%d, want 2/2", runA, runB)
	}
}

func TestLookup(t *testing.T) {
	reg := NewRegistry()
	MustDefine(reg, counterDef("counter"))

	if _, err := Lookup[counterState](reg, "counter"); err != nil {
		t.Errorf("Lookup(counter) = %v", err)
	}
	if _, err := Lookup[counterState](reg, "missing"); !hasCode(err, "E008") {
		t.Errorf("Lookup(missing) = %v, want E008", err)
	}
	if _, err := Lookup[userState](reg, "counter"); !hasCode(err, "E008") {
		t.Errorf("Lookup with wrong type = %v, want E008", err)
	}
}

func TestRegistryNamesAndHandles(t *testing.T) {
	reg := NewRegistry()
	MustDefine(reg, counterDef("b"))
	MustDefine(reg, counterDef("a"))

	if diff := cmp.Diff([]string{"a", "b"}, reg.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	var got []string
	for _, h := range reg.Handles() {
		got = append(got, h.Name())
	}
	if diff := cmp.Diff([]string{"b", "a"}, got); diff != "" {
		t.Errorf("Handles() order mismatch (-want +got):\n%s", diff)
	}
	if _, ok := reg.Handle("a"); !ok {
		t.Error("Handle(a) not found")
	}
}

func TestExport(t *testing.T) {
	st := MustDefine(NewRegistry(), counterDef("counter"))
	_ = st.Call("increase")
	snap := st.Export()
	want := Snapshot{
		Name:    "counter",
		State:   counterState{Count: 1},
		Getters: map[string]any{"doubleCount": 2},
	}
	if diff := cmp.Diff(want, snap); diff != "" {
		t.Errorf("Export() mismatch (-want +got):\n%s", diff)
	}
}

func TestNames(t *testing.T) {
	st := MustDefine(NewRegistry(), counterDef("counter"))
	if got := st.HookName(); got != "useCounterStore" {
		t.Errorf("HookName() = %q", got)
	}
	if got := st.ProviderName(); got != "CounterStoreProvider" {
		t.Errorf("ProviderName() = %q", got)
	}
	if got := st.StorageKey(); got != "counterStore" {
		t.Errorf("StorageKey() = %q", got)
	}
	if got := Capitalize("userPROFILE"); got != "Userprofile" {
		t.Errorf("Capitalize() = %q, want Userprofile", got)
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	events    []DispatchEvent
	rerenders []string
}

func (o *recordingObserver) BeginDispatch(DispatchEvent) func(DispatchEvent) {
	return func(ev DispatchEvent) {
		o.mu.Lock()
		o.events = append(o.events, ev)
		o.mu.Unlock()
	}
}

func (o *recordingObserver) Rerender(store string) {
	o.mu.Lock()
	o.rerenders = append(o.rerenders, store)
	o.mu.Unlock()
}

func TestObserver(t *testing.T) {
	obs := &recordingObserver{}
	st := MustDefine(NewRegistry(WithObserver(obs)), counterDef("counter"))
	st.Watch(func() {})

	_ = st.Call("increase")
	_ = st.Call("fail")

	if len(obs.events) != 2 {
		t.Fatalf("events = %d, want 2", len(obs.events))
	}
	ok, failed := obs.events[0], obs.events[1]
	if ok.Action != "increase" || ok.Subscribers != 1 || ok.Error != "" {
		t.Errorf("first event = %+v", ok)
	}
	if failed.Action != "fail" || failed.Error != "boom" {
		t.Errorf("second event = %+v", failed)
	}
	if ok.ID == "" || ok.ID == failed.ID {
		t.Errorf("event ids not unique: %q %q", ok.ID, failed.ID)
	}
}

func TestObserversCombine(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	st := MustDefine(NewRegistry(WithObserver(a), WithObserver(b)), counterDef("counter"))
	_ = st.Call("increase")
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("events = %d/%d, want 1/1", len(a.events), len(b.events))
	}
}

type memStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string][]byte)}
}

func (m *memStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *memStorage) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStorage) Keys(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func TestPersistRoundTrip(t *testing.T) {
	storage := newMemStorage()
	def := counterDef("counter")
	def.Persist = true

	first := MustDefine(NewRegistry(WithStorage(storage)), def)
	_ = first.Call("add", 5)
	if _, ok := storage.data["counterStore"]; !ok {
		t.Fatal("nothing saved under counterStore")
	}

	loaded := 0
	def.OnStorageLoaded = func(s counterState, _ Dispatch[counterState]) {
		loaded = s.Count
	}
	reg := NewRegistry(WithStorage(storage))
	second := MustDefine(reg, def)
	if err := reg.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if got := second.Snapshot().Count; got != 5 {
		t.Errorf("count after load = %d, want 5", got)
	}
	if loaded != 5 {
		t.Errorf("OnStorageLoaded saw %d, want 5", loaded)
	}
}

func TestLoadKeepsAbsentFields(t *testing.T) {
	storage := newMemStorage()
	storage.data["counterStore"] = []byte(`{"count":7}`)

	def := counterDef("counter")
	def.State.Label = "kept"
	st := MustDefine(NewRegistry(WithStorage(storage)), def)
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(counterState{Count: 7, Label: "kept"}, st.Snapshot()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	storage := newMemStorage()
	storage.data["counterStore"] = []byte(`{not json`)
	st := MustDefine(NewRegistry(WithStorage(storage)), counterDef("counter"))
	if err := st.Load(context.Background()); !hasCode(err, "E082") {
		t.Errorf("Load(corrupt) = %v, want E082", err)
	}

	missing := MustDefine(NewRegistry(WithStorage(newMemStorage())), counterDef("counter"))
	if err := missing.Load(context.Background()); err != nil {
		t.Errorf("Load(missing) = %v, want nil", err)
	}

	none := MustDefine(NewRegistry(), counterDef("counter"))
	if err := none.Save(context.Background()); err != nil {
		t.Errorf("Save without storage = %v, want nil", err)
	}
}

func TestOnMountedRunsOnce(t *testing.T) {
	def := counterDef("counter")
	calls := 0
	def.OnMounted = func(_ counterState, dispatch Dispatch[counterState]) {
		calls++
		_ = dispatch(func(s *counterState) error {
			s.Label = "mounted"
			return nil
		})
	}
	st := MustDefine(NewRegistry(), def)

	_, stop1 := Track(st, func() {})
	_, stop2 := Track(st, func() {})
	defer stop1()
	defer stop2()

	if calls != 1 {
		t.Errorf("OnMounted calls = %d, want 1", calls)
	}
	if got := st.Snapshot().Label; got != "mounted" {
		t.Errorf("label = %q, want mounted", got)
	}
}

func TestArg(t *testing.T) {
	args := []any{2.0, "x", nil, -1}

	if n, err := Arg[int](args, 0); err != nil || n != 2 {
		t.Errorf("Arg[int](0) = %v, %v", n, err)
	}
	if s, err := Arg[string](args, 1); err != nil || s != "x" {
		t.Errorf("Arg[string](1) = %v, %v", s, err)
	}
	if v, err := Arg[any](args, 2); err != nil || v != nil {
		t.Errorf("Arg[any](2) = %v, %v", v, err)
	}
	if _, err := Arg[uint](args, 3); !hasCode(err, "E009") {
		t.Errorf("Arg[uint](-1) = %v, want E009", err)
	}
	if _, err := Arg[int](args, 9); !hasCode(err, "E009") {
		t.Errorf("Arg out of range = %v, want E009", err)
	}
	if _, err := Arg[int]([]any{2.5}, 0); !hasCode(err, "E009") {
		t.Errorf("Arg[int](2.5) = %v, want E009", err)
	}
}
