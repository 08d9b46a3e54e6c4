package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/stateart/internal/config"
	"github.com/vango-dev/stateart/pkg/devtools"
	"github.com/vango-dev/stateart/pkg/observe"
	"github.com/vango-dev/stateart/pkg/persist"
	"github.com/vango-dev/stateart/pkg/stateart"
)

func serveCmd() *cobra.Command {
	var (
		dir  string
		port int
		host string
		demo bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the devtools API",
		Long: `Serve the devtools API over the configured storage backend.

Persisted snapshots are loaded at start. The server lists stores, calls
actions, saves and loads snapshots, and streams dispatches over a
WebSocket. Prometheus metrics are served on /metrics when enabled.

Examples:
  stateart serve
  stateart serve --port=8080
  STATEART_PERSIST_BACKEND=bolt stateart serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(dir)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Devtools.Port = port
			}
			if host != "" {
				cfg.Devtools.Host = host
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, demo)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory holding the configuration file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().BoolVar(&demo, "demo", true, "Define the demo counter store")

	return cmd
}

// app is everything serve wires together.
type app struct {
	registry *stateart.Registry
	backend  persist.Backend
	hub      *devtools.Hub
	server   *devtools.Server
	shutdown func(context.Context) error
}

func newApp(ctx context.Context, cmd *cobra.Command, cfg *config.Config, demo bool) (*app, error) {
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	backend, err := persist.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	shutdown, err := setupTracing(ctx, cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}

	hub := devtools.NewHub(devtools.DefaultBuffer)
	observers := []stateart.Observer{
		observe.NewLogging(logger),
		observe.NewTracing(),
		hub,
	}

	serverOpts := []devtools.Option{
		devtools.WithLogger(logger),
		devtools.WithJWTSecret(cfg.Devtools.JWTSecret),
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observers = append(observers, observe.NewMetrics(
			observe.WithNamespace(cfg.Metrics.Namespace),
			observe.WithRegistry(reg),
		))
		serverOpts = append(serverOpts, devtools.WithGatherer(reg))
	}

	registry := stateart.NewRegistry(
		stateart.WithLogger(logger),
		stateart.WithStorage(backend),
		stateart.WithObserver(stateart.Observers(observers...)),
		stateart.WithMergeDuplicates(cfg.Stores.MergeDuplicates),
		stateart.WithSaveTimeout(cfg.SaveTimeout()),
	)
	if demo {
		if _, err := stateart.Define(registry, counterDefinition()); err != nil {
			backend.Close()
			return nil, err
		}
	}
	if err := registry.LoadAll(ctx); err != nil {
		backend.Close()
		return nil, err
	}

	return &app{
		registry: registry,
		backend:  backend,
		hub:      hub,
		server:   devtools.New(registry, hub, serverOpts...),
		shutdown: shutdown,
	}, nil
}

// Close flushes spans and closes the storage backend.
func (a *app) Close() error {
	_ = a.shutdown(context.Background())
	return a.backend.Close()
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, demo bool) error {
	a, err := newApp(ctx, cmd, cfg, demo)
	if err != nil {
		return err
	}
	defer a.Close()

	success(cmd, "Serving %d store(s) on %s", len(a.registry.Names()), cfg.DevtoolsURL())
	info(cmd, "Storage: %s", cfg.Persist.Backend)
	if cfg.Devtools.JWTSecret == "" {
		warn(cmd, "Devtools authentication is disabled")
	}
	if cfg.Metrics.Enabled {
		info(cmd, "Metrics: %s/metrics", cfg.DevtoolsURL())
	}

	return a.server.ListenAndServe(ctx, cfg.DevtoolsAddress())
}
