// Package observe provides stateart.Observer implementations for metrics,
// tracing and logging.
//
//	reg := stateart.NewRegistry(
//	    stateart.WithObserver(observe.NewMetrics(observe.WithRegistry(promReg))),
//	    stateart.WithObserver(observe.NewTracing()),
//	    stateart.WithObserver(observe.NewLogging(logger)),
//	)
//
// Metrics collected:
//   - stateart_dispatches_total: Counter of dispatches by store, kind and status
//   - stateart_dispatch_duration_seconds: Histogram of dispatch duration by store
//   - stateart_dispatch_errors_total: Counter of failed dispatches by store and error code
//   - stateart_rerenders_total: Counter of re-render signals by store
//   - stateart_subscribers: Gauge of subscribers notified by the last dispatch
package observe
