// Package web serves a route catalogue over HTTP: an HTML page, a JSON API
// and a Server-Sent Events stream announcing rescans.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/muremwa/djurls/pkg/catalog"
	"github.com/muremwa/djurls/pkg/config"
	"github.com/muremwa/djurls/pkg/openapi"
	"github.com/muremwa/djurls/pkg/workspace"
)

// Server holds the latest scan result and serves it.
type Server struct {
	scanner    workspace.Scanner
	project    string
	expandApps string
	logger     *slog.Logger
	accessLog  io.Writer

	mu     sync.RWMutex
	result *workspace.Result

	subMu       sync.Mutex
	subscribers map[chan *workspace.Result]struct{}

	router chi.Router
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithProject sets the name shown on the page.
func WithProject(name string) Option {
	return func(s *Server) {
		s.project = name
	}
}

// WithExpandApps sets how app blocks start on the page.
func WithExpandApps(mode string) Option {
	return func(s *Server) {
		s.expandApps = mode
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithAccessLog enables the request log middleware writing to w.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) {
		s.accessLog = w
	}
}

// New creates a server over scanner. Call Refresh before serving.
func New(scanner workspace.Scanner, opts ...Option) *Server {
	s := &Server{
		scanner:     scanner,
		project:     "project",
		expandApps:  config.ExpandNormal,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		subscribers: make(map[chan *workspace.Result]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(Recover(RecoverConfig{LogStackTrace: true}))
	if s.accessLog != nil {
		r.Use(Logger(LoggerConfig{Output: s.accessLog, SkipPaths: []string{"/api/events"}}))
	}

	r.Get("/", s.handlePage)
	r.Route("/api", func(r chi.Router) {
		r.Get("/routes", s.handleRoutes)
		r.Get("/routes/{name}", s.handleRoute)
		r.Get("/namespaces", s.handleNamespaces)
		r.Get("/namespaces/{namespace}", s.handleNamespace)
		r.Get("/tree", s.handleTree)
		r.Get("/faults", s.handleFaults)
		r.Get("/openapi.json", s.handleOpenAPI)
		r.Get("/events", s.handleEvents)
		r.Post("/refresh", s.handleRefresh)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Current returns the latest scan result, or nil before the first Refresh.
func (s *Server) Current() *workspace.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Refresh rescans and publishes the result to event subscribers. On error
// the previous result is kept.
func (s *Server) Refresh(ctx context.Context) (*workspace.Result, error) {
	res, err := s.scanner.Scan(ctx)
	if err != nil {
		s.logger.Warn("rescan failed", "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.result = res
	s.mu.Unlock()

	s.publish(res)
	s.logger.Debug("catalogue refreshed", "routes", res.Catalog.Len(), "faults", len(res.Faults))
	return res, nil
}

// Subscribe returns a channel receiving every refreshed result and a
// function that cancels the subscription.
func (s *Server) Subscribe() (<-chan *workspace.Result, func()) {
	ch := make(chan *workspace.Result, 1)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		delete(s.subscribers, ch)
		s.subMu.Unlock()
	}
}

func (s *Server) publish(res *workspace.Result) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		// drop the stale pending result, keep the newest
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- res:
		default:
		}
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown gracefully: %w", err)
	}
	return nil
}

func (s *Server) catalog(w http.ResponseWriter) (*workspace.Result, bool) {
	res := s.Current()
	if res == nil {
		writeError(w, http.StatusServiceUnavailable, "catalogue not loaded")
		return nil, false
	}
	return res, true
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	res, ok := s.catalog(w)
	if !ok {
		return
	}
	page := Page(PageData{
		Project:    s.project,
		Root:       catalog.Tree(res.Catalog, s.project),
		ExpandApps: s.expandApps,
		Faults:     res.Faults,
		Live:       true,
	})
	templ.Handler(page).ServeHTTP(w, r)
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	res, ok := s.catalog(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Catalog.Filter(r.URL.Query().Get("q")))
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	res, ok := s.catalog(w)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	route, group, found := res.Catalog.Find(name)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("route %q not found", name))
		return
	}
	writeJSON(w, http.StatusOK, catalog.Detail(route, group))
}

func (s *Server) handleNamespaces(w http.ResponseWriter, r *http.Request) {
	res, ok := s.catalog(w)
	if !ok {
		return
	}
	out := res.Catalog.Summaries()
	if r.URL.Query().Get("sort") == "name" {
		sort.Slice(out, func(i, j int) bool { return out[i].Namespace < out[j].Namespace })
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNamespace(w http.ResponseWriter, r *http.Request) {
	res, ok := s.catalog(w)
	if !ok {
		return
	}
	ns := chi.URLParam(r, "namespace")
	group, found := res.Catalog.Lookup(ns)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("namespace %q not found", ns))
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	res, ok := s.catalog(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, catalog.Tree(res.Catalog, s.project))
}

func (s *Server) handleFaults(w http.ResponseWriter, r *http.Request) {
	res, ok := s.catalog(w)
	if !ok {
		return
	}
	faults := res.Faults
	if faults == nil {
		faults = []catalog.Fault{}
	}
	writeJSON(w, http.StatusOK, faults)
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	res, ok := s.catalog(w)
	if !ok {
		return
	}
	data, err := openapi.NewGenerator(res.Catalog, openapi.Config{Title: s.project}).GenerateJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res.Summary())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	stream, err := newEventStream(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	updates, cancel := s.Subscribe()
	defer cancel()

	_ = stream.retry(3 * time.Second)
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case res := <-updates:
			if err := stream.sendCatalog(res.Summary()); err != nil {
				return
			}
		case <-ping.C:
			if err := stream.ping(); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}
