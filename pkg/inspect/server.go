package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vbind"
	verrors "github.com/vango-dev/vbind/internal/errors"
	"github.com/vango-dev/vbind/pkg/ast"
	"github.com/vango-dev/vbind/pkg/reactive"
	"github.com/vango-dev/vbind/pkg/snapshot"
)

// Config configures the inspector server.
type Config struct {
	// Logger is the structured logger. Default: the App's logger.
	Logger *slog.Logger

	// Gatherer enables GET /metrics.
	Gatherer prometheus.Gatherer

	// Store enables the /snapshots routes.
	Store snapshot.Store

	// MaxBodyBytes limits request bodies.
	// Default: 1MB.
	MaxBodyBytes int64

	// ShutdownTimeout bounds graceful shutdown in Serve.
	// Default: 5s.
	ShutdownTimeout time.Duration
}

// Option configures the inspector server.
type Option func(*Config)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithGatherer serves g on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(c *Config) {
		c.Gatherer = g
	}
}

// WithStore enables snapshot routes backed by store.
func WithStore(store snapshot.Store) Option {
	return func(c *Config) {
		c.Store = store
	}
}

// WithMaxBodyBytes sets the request body limit.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Config) {
		c.MaxBodyBytes = n
	}
}

// Server is the inspector HTTP handler.
type Server struct {
	app    *vbind.App
	hub    *Hub
	config Config
	router chi.Router
}

// New creates the inspector for app. hub should be one of the App's
// monitors so that /events sees its drains.
func New(app *vbind.App, hub *Hub, opts ...Option) *Server {
	config := Config{
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = app.Logger()
	}

	s := &Server{app: app, hub: hub, config: config}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/events", hub)
	if config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/scope", s.handleScope)
	r.Post("/eval", s.handleEval)
	r.Post("/signals/{name}", s.handleSignal)
	if config.Store != nil {
		r.Get("/snapshots", s.handleListSnapshots)
		r.Post("/snapshots", s.handleSaveSnapshot)
	}
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is done, then shuts down gracefully and
// disconnects event stream clients.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.config.Logger.Info("inspector listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

type evalResponse struct {
	Value     any  `json:"value"`
	Undefined bool `json:"undefined,omitempty"`
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	expr, err := ast.Decode(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var resp evalResponse
	var evalErr error
	if err := s.app.Do(r.Context(), func() {
		var v any
		v, evalErr = s.app.Eval(expr, nil)
		resp = evalResponse{Value: snapshot.Plain(v), Undefined: reactive.IsUndefined(v)}
	}); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if evalErr != nil {
		s.writeError(w, http.StatusUnprocessableEntity, evalErr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScope(w http.ResponseWriter, r *http.Request) {
	var doc []byte
	var encErr error
	if err := s.app.Do(r.Context(), func() {
		doc, encErr = snapshot.Encode(s.app.Scope().BindingContext)
	}); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if encErr != nil {
		s.writeError(w, http.StatusInternalServerError, encErr)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(doc)
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var n int
	if err := s.app.Do(r.Context(), func() { n = s.app.Signal(name) }); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.hub.Broadcast(Event{Type: EventSignal, Signal: name, Items: n})
	writeJSON(w, http.StatusOK, map[string]any{"signal": name, "bindings": n})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.config.Store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if snaps == nil {
		snaps = []snapshot.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "root"
	}
	var doc []byte
	var encErr error
	if err := s.app.Do(r.Context(), func() {
		doc, encErr = snapshot.Encode(s.app.Scope().BindingContext)
	}); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if encErr != nil {
		s.writeError(w, http.StatusInternalServerError, encErr)
		return
	}
	snap, err := s.config.Store.Save(r.Context(), name, doc)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.config.Logger.Error("inspector request failed", "status", status, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, verrors.Classify(err).FormatJSON())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
