package observe

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/stateart/pkg/stateart"
)

type counter struct {
	Count int `json:"count"`
}

func defineCounter(t *testing.T, obs ...stateart.Observer) *stateart.Store[counter] {
	t.Helper()
	var opts []stateart.Option
	for _, o := range obs {
		opts = append(opts, stateart.WithObserver(o))
	}
	return stateart.MustDefine(stateart.NewRegistry(opts...), stateart.Definition[counter]{
		Name: "counter",
		Actions: map[string]stateart.Action[counter]{
			"increase": func(s counter, _ ...any) (counter, error) {
				s.Count++
				return s, nil
			},
			"fail": func(s counter, _ ...any) (counter, error) {
				return s, stderrors.New("boom")
			},
		},
	})
}

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestKind(t *testing.T) {
	tests := map[string]string{
		"increase":                  "action",
		"set address.city":          "set",
		"transition idle->counting": "transition",
		"transition start":          "transition",
		"load":                      "load",
		"merge":                     "merge",
		"dispatch":                  "dispatch",
		"settle":                    "action",
	}
	for action, want := range tests {
		if got := Kind(action); got != want {
			t.Errorf("Kind(%q) = %q, want %q", action, got, want)
		}
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))
	st := defineCounter(t, m)

	_, stop := stateart.Track(st, func() {})
	defer stop()
	view, stop2 := stateart.Track(st, func() {})
	defer stop2()
	_ = view.Get("count")

	st.Call("increase")
	st.Call("increase")
	st.Call("fail")
	st.Call("missing")

	if got := metricCounterValue(t, m.dispatchesTotal.WithLabelValues("counter", "action", "success")); got != 2 {
		t.Errorf("successful dispatches = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.dispatchesTotal.WithLabelValues("counter", "action", "error")); got != 1 {
		t.Errorf("failed dispatches = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.dispatchErrors.WithLabelValues("counter", "action")); got != 1 {
		t.Errorf("dispatch errors = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.dispatchDuration.WithLabelValues("counter")); got != 3 {
		t.Errorf("duration samples = %d, want 3", got)
	}
	if got := metricGaugeValue(t, m.subscribers.WithLabelValues("counter")); got != 2 {
		t.Errorf("subscribers = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.rerendersTotal.WithLabelValues("counter")); got != 2 {
		t.Errorf("rerenders = %v, want 2", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range families {
		if !strings.HasPrefix(f.GetName(), "test_") {
			t.Errorf("metric %q outside namespace", f.GetName())
		}
	}
}

func TestMetricsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	st := defineCounter(t, m)
	view, stop := stateart.Track(st, func() {})
	defer stop()

	view.Set("count", "nope")

	if got := metricCounterValue(t, m.dispatchErrors.WithLabelValues("counter", "E009")); got != 1 {
		t.Errorf("E009 errors = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.dispatchesTotal.WithLabelValues("counter", "set", "error")); got != 1 {
		t.Errorf("failed set dispatches = %v, want 1", got)
	}
}

func TestTracing(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tr := NewTracing(WithTracerProvider(tp), WithTracerName("test"))
	st := defineCounter(t, tr)

	view, stop := stateart.Track(st, func() {})
	defer stop()
	_ = view.Get("count")

	st.Call("increase")
	st.Call("fail")

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}

	ok, failed := spans[0], spans[1]
	if ok.Name() != "stateart.action" {
		t.Errorf("span name = %q", ok.Name())
	}
	if ok.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", ok.Status().Code)
	}
	if len(ok.Events()) != 1 || ok.Events()[0].Name != "rerender" {
		t.Errorf("events = %v, want one rerender", ok.Events())
	}
	attrs := map[string]string{}
	for _, kv := range ok.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs["stateart.store"] != "counter" || attrs["stateart.action"] != "increase" || attrs["stateart.subscribers"] != "1" {
		t.Errorf("attributes = %v", attrs)
	}

	if failed.Status().Code != codes.Error || failed.Status().Description != "boom" {
		t.Errorf("failed status = %+v", failed.Status())
	}
}

func TestTracingOverlappingDispatches(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tr := NewTracing(WithTracerProvider(tp))

	first := stateart.DispatchEvent{ID: "a", Store: "counter", Action: "increase", Start: time.Now()}
	second := stateart.DispatchEvent{ID: "b", Store: "counter", Action: "reset", Start: time.Now()}
	finishFirst := tr.BeginDispatch(first)
	finishSecond := tr.BeginDispatch(second)

	// The first dispatch ends while the second is still notifying.
	finishFirst(first)
	tr.Rerender("counter")
	finishSecond(second)
	tr.Rerender("counter")

	events := map[string]int{}
	for _, span := range rec.Ended() {
		for _, kv := range span.Attributes() {
			if kv.Key == "stateart.event_id" {
				events[kv.Value.AsString()] = len(span.Events())
			}
		}
	}
	if diff := cmp.Diff(map[string]int{"a": 0, "b": 1}, events); diff != "" {
		t.Errorf("rerender events per span mismatch (-want +got):\n%s", diff)
	}
}

func TestTracingFilter(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tr := NewTracing(WithTracerProvider(tp), WithDispatchFilter(func(ev stateart.DispatchEvent) bool {
		return ev.Action != "increase"
	}))
	st := defineCounter(t, tr)

	st.Call("increase")
	st.Call("fail")

	if got := len(rec.Ended()); got != 1 {
		t.Errorf("spans = %d, want 1", got)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	st := defineCounter(t, NewLogging(logger))

	st.Call("increase")
	st.Call("fail")

	out := buf.String()
	if !strings.Contains(out, "msg=dispatch") || !strings.Contains(out, "action=increase") {
		t.Errorf("missing dispatch log:\n%s", out)
	}
	if !strings.Contains(out, `msg="dispatch failed"`) || !strings.Contains(out, "error=boom") {
		t.Errorf("missing failure log:\n%s", out)
	}
}
