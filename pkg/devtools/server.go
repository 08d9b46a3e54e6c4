package devtools

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/stateart/internal/errors"
	"github.com/vango-dev/stateart/pkg/stateart"
)

// maxActionBody limits the size of action argument bodies.
const maxActionBody = 1 << 20

// Server is the devtools HTTP server.
type Server struct {
	registry *stateart.Registry
	hub      *Hub
	logger   *slog.Logger
	secret   []byte
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger (default: the registry logger).
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithJWTSecret requires an HS256 bearer token signed with secret on every
// endpoint but /healthz. An empty secret disables authentication.
func WithJWTSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.secret = []byte(secret)
		}
	}
}

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// New creates a devtools server for reg. hub may be nil, in which case the
// watch endpoint is not mounted.
func New(reg *stateart.Registry, hub *Hub, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		hub:      hub,
		logger:   reg.Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // devtools is a local tool
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if s.secret != nil {
			r.Use(requireToken(s.secret))
		}
		r.Get("/stores", s.handleList)
		r.Route("/stores/{name}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Post("/actions/{action}", s.handleAction)
			r.Post("/save", s.handleSave)
			r.Post("/load", s.handleLoad)
			if s.hub != nil {
				r.Get("/watch", s.handleWatch)
			}
		})
		if s.gatherer != nil {
			r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
		}
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("devtools listening", "addr", addr)

	select {
	case err := <-errc:
		return errors.New("E141").Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.New("E141").Wrap(err)
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.New("E141").Wrap(err)
	}
	return nil
}

// StoreInfo describes a store in the /stores listing.
type StoreInfo struct {
	Name        string   `json:"name"`
	Hook        string   `json:"hook"`
	Provider    string   `json:"provider"`
	StorageKey  string   `json:"storageKey"`
	Phase       string   `json:"phase,omitempty"`
	Subscribers int      `json:"subscribers"`
	Actions     []string `json:"actions"`
	Getters     []string `json:"getters"`
	Persisted   bool     `json:"persisted"`
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	handles := s.registry.Handles()
	out := make([]StoreInfo, 0, len(handles))
	for _, h := range handles {
		out = append(out, StoreInfo{
			Name:        h.Name(),
			Hook:        stateart.HookName(h.Name()),
			Provider:    stateart.ProviderName(h.Name()),
			StorageKey:  stateart.StorageKey(h.Name()),
			Phase:       h.Phase(),
			Subscribers: h.SubscriberCount(),
			Actions:     h.Actions(),
			Getters:     h.Getters(),
			Persisted:   h.Persisted(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handle resolves the {name} URL parameter, writing a 404 when the store
// does not exist.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) (stateart.Handle, bool) {
	name := chi.URLParam(r, "name")
	h, ok := s.registry.Handle(name)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("E008").WithStore(name))
		return nil, false
	}
	return h, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Export())
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	action := chi.URLParam(r, "action")

	var args []any
	body, err := io.ReadAll(io.LimitReader(r.Body, maxActionBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			writeJSONError(w, http.StatusBadRequest, "body must be a JSON array of arguments")
			return
		}
	}

	if err := h.Call(action, args...); err != nil {
		status := http.StatusUnprocessableEntity
		if stderrors.Is(err, stateart.ErrUnknownAction) {
			status = http.StatusNotFound
		}
		writeError(w, status, errors.FromError(err, "E013").WithStore(h.Name()))
		return
	}
	s.logger.Debug("devtools action", "store", h.Name(), "action", action, "args", len(args))
	writeJSON(w, http.StatusOK, h.Export())
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	if err := h.Save(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, errors.FromError(err, "E081"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}
	if err := h.Load(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, errors.FromError(err, "E080"))
		return
	}
	writeJSON(w, http.StatusOK, h.Export())
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handle(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := s.hub.Subscribe(h.Name())
	defer cancel()

	// The read loop only detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Debug("devtools watcher connected", "store", h.Name())
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			s.logger.Debug("devtools watcher disconnected", "store", h.Name())
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *errors.StoreError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, err.FormatJSON()+"\n")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
