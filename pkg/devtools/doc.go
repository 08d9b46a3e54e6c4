// Package devtools serves an HTTP inspector for a stateart registry.
//
// Endpoints:
//
//	GET  /healthz                          liveness
//	GET  /stores                           registered stores
//	GET  /stores/{name}                    state, phase and getter snapshot
//	POST /stores/{name}/actions/{action}   call an action; body is a JSON array of arguments
//	POST /stores/{name}/save               persist the store now
//	POST /stores/{name}/load               reload the store from storage
//	GET  /stores/{name}/watch              websocket stream of dispatch events
//	GET  /metrics                          Prometheus metrics, when a gatherer is set
//
// The Hub must be registered as an observer on the registry for the watch
// stream to receive events:
//
//	hub := devtools.NewHub(64)
//	reg := stateart.NewRegistry(stateart.WithObserver(hub))
//	srv := devtools.New(reg, hub, devtools.WithJWTSecret(secret))
//	err := srv.ListenAndServe(ctx, "localhost:7345")
package devtools
