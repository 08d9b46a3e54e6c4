package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/stateart/pkg/stateart"
)

// Default tracer name.
const defaultTracerName = "stateart"

// TracingConfig configures the tracing observer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "stateart").
	TracerName string

	// Provider is the tracer provider (default: the global provider).
	Provider trace.TracerProvider

	// Filter decides which dispatches are traced. If nil, all are.
	Filter func(ev stateart.DispatchEvent) bool
}

// TracingOption configures the tracing observer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = tp
	}
}

// WithDispatchFilter sets a filter function for dispatches.
func WithDispatchFilter(filter func(ev stateart.DispatchEvent) bool) TracingOption {
	return func(c *TracingConfig) {
		c.Filter = filter
	}
}

// Tracing creates one span per dispatch. Re-render signals raised while
// the dispatch notifies subscribers are recorded as span events.
type Tracing struct {
	tracer trace.Tracer
	filter func(stateart.DispatchEvent) bool

	mu     sync.Mutex
	nextID uint64
	active map[string][]activeSpan
}

// activeSpan is a dispatch span still open, keyed by its push id.
type activeSpan struct {
	id   uint64
	span trace.Span
}

var _ stateart.Observer = (*Tracing)(nil)

// NewTracing creates a tracing observer.
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before defining
// stores:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func NewTracing(opts ...TracingOption) *Tracing {
	config := TracingConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	var tracer trace.Tracer
	if config.Provider != nil {
		tracer = config.Provider.Tracer(config.TracerName)
	} else {
		tracer = otel.Tracer(config.TracerName)
	}
	return &Tracing{
		tracer: tracer,
		filter: config.Filter,
		active: make(map[string][]activeSpan),
	}
}

// BeginDispatch implements stateart.Observer.
func (t *Tracing) BeginDispatch(ev stateart.DispatchEvent) func(stateart.DispatchEvent) {
	if t.filter != nil && !t.filter(ev) {
		return func(stateart.DispatchEvent) {}
	}

	_, span := t.tracer.Start(context.Background(), "stateart."+Kind(ev.Action),
		trace.WithTimestamp(ev.Start),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("stateart.store", ev.Store),
			attribute.String("stateart.action", ev.Action),
			attribute.String("stateart.event_id", ev.ID),
		),
	)
	id := t.push(ev.Store, span)

	return func(ev stateart.DispatchEvent) {
		t.pop(ev.Store, id)
		span.SetAttributes(attribute.Int("stateart.subscribers", ev.Subscribers))
		if ev.Phase != "" {
			span.SetAttributes(attribute.String("stateart.phase", ev.Phase))
		}
		if ev.Err != nil {
			span.RecordError(ev.Err)
			span.SetStatus(codes.Error, ev.Err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End(trace.WithTimestamp(ev.Start.Add(ev.Duration)))
	}
}

// Rerender implements stateart.Observer.
func (t *Tracing) Rerender(store string) {
	t.mu.Lock()
	spans := t.active[store]
	var span trace.Span
	if len(spans) > 0 {
		span = spans[len(spans)-1].span
	}
	t.mu.Unlock()
	if span != nil {
		span.AddEvent("rerender")
	}
}

func (t *Tracing) push(store string, span trace.Span) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	t.active[store] = append(t.active[store], activeSpan{id: t.nextID, span: span})
	return t.nextID
}

// pop removes the span pushed under id, wherever it sits in the stack.
func (t *Tracing) pop(store string, id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	spans := t.active[store]
	for i, a := range spans {
		if a.id == id {
			spans = append(spans[:i], spans[i+1:]...)
			break
		}
	}
	if len(spans) == 0 {
		delete(t.active, store)
		return
	}
	t.active[store] = spans
}
