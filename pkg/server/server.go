// Package server serves a route table over HTTP: resolved pages with their
// front matter stripped, plus JSON inspection endpoints for routes,
// navigation, data and matching.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/routekit/internal/logger"
	"github.com/abdul-hamid-achik/routekit/internal/version"
	"github.com/abdul-hamid-achik/routekit/pkg/route"
	"github.com/abdul-hamid-achik/routekit/pkg/table"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPageCacheSize is the number of rendered pages kept in memory.
const DefaultPageCacheSize = 256

// Options configures a Server.
type Options struct {
	Host string
	Port int

	// PageCacheSize bounds the page cache (default: 256).
	PageCacheSize int

	// Registry receives the server metrics. A fresh registry is created
	// when nil.
	Registry *prometheus.Registry

	// Title heads the /__index page.
	Title string

	Logger *logger.Logger
}

type page struct {
	status      int
	contentType string
	body        []byte
	result      string
}

// Server is an HTTP front for a route table.
type Server struct {
	table    *table.Table
	opts     Options
	router   chi.Router
	pages    *lru.Cache[string, page]
	registry *prometheus.Registry
	metrics  *metrics
	events   *hub
	log      *logger.Logger
	http     *http.Server
}

// New creates a server for t.
func New(t *table.Table, opts Options) (*Server, error) {
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.Port == 0 {
		opts.Port = 3000
	}
	if opts.PageCacheSize <= 0 {
		opts.PageCacheSize = DefaultPageCacheSize
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Title == "" {
		opts.Title = "Routes"
	}

	pages, err := lru.New[string, page](opts.PageCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}

	s := &Server{
		table:    t,
		opts:     opts,
		pages:    pages,
		registry: opts.Registry,
		metrics:  newMetrics(opts.Registry),
		events:   newHub(),
		log:      opts.Logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log, "/__metrics", "/__events"))
	r.Use(middleware.Recoverer)

	r.Get("/__routes", s.handleRoutes)
	r.Get("/__nav", s.handleNav)
	r.Get("/__data", s.handleData)
	r.Get("/__match", s.handleMatch)
	r.Get("/__index", s.handleIndex)
	r.Get("/__events", s.handleEvents)
	r.Method(http.MethodGet, "/__metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/*", s.handlePage)

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// Registry returns the registry the server metrics are registered with.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// Load reloads the route table, recording the scan duration, and empties
// the page cache.
func (s *Server) Load(ctx context.Context) error {
	start := time.Now()
	err := s.table.Load(ctx)
	s.metrics.scanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	s.pages.Purge()
	return nil
}

// FlushPages drops cached pages whose request path starts with prefix and
// returns how many were dropped. An empty prefix drops everything.
func (s *Server) FlushPages(prefix string) int {
	if prefix == "" {
		n := s.pages.Len()
		s.pages.Purge()
		return n
	}

	n := 0
	for _, key := range s.pages.Keys() {
		if strings.HasPrefix(key, prefix) && s.pages.Remove(key) {
			n++
		}
	}
	return n
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.Addr(),
		Handler:           s,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.http.RegisterOnShutdown(s.events.close)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", "http://"+s.Addr())
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	infos := s.table.Infos()
	writeJSON(w, http.StatusOK, map[string]any{
		"schemaVersion": version.GetRouteSchemaVersion(),
		"total":         len(infos),
		"routes":        infos,
	})
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.table.Navigation(r.URL.Query().Get("prefix"), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	data := s.table.Data()
	if data == nil {
		writeError(w, http.StatusNotFound, errors.New("no data store configured"))
		return
	}
	b, err := data.Dump()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if p == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing path parameter"))
		return
	}

	rt, params, ok := s.table.Match(p)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"found": false, "path": p})
		return
	}
	if params == nil {
		params = route.Params{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"found":   true,
		"path":    p,
		"route":   table.Info(rt),
		"params":  params,
		"context": s.table.Context(rt),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.table.Navigation("", nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(s.opts.Title, nodes).Render(r.Context(), w); err != nil {
		s.log.Error("failed to render index", "error", err)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if p, ok := s.pages.Get(key); ok {
		s.writePage(w, p)
		return
	}

	p, err := s.render(key)
	if err != nil {
		s.log.Error("failed to render page", "path", key, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if p.result != resultMiss {
		s.pages.Add(key, p)
	}
	s.writePage(w, p)
}

func (s *Server) render(requestPath string) (page, error) {
	p := page{status: http.StatusOK, result: resultHit}

	rt := s.table.Get(requestPath)
	if rt == nil {
		rt = s.table.Fallback()
		p.status = http.StatusNotFound
		p.result = resultFallback
	}
	if rt == nil {
		p.result = resultMiss
		p.contentType = "text/plain; charset=utf-8"
		p.body = []byte("404 page not found\n")
		return p, nil
	}

	body, err := s.table.ParseMatter(rt, nil)
	if err != nil {
		return page{}, err
	}
	p.body = body
	p.contentType = contentType(rt.ID)
	return p, nil
}

func (s *Server) writePage(w http.ResponseWriter, p page) {
	s.metrics.requests.WithLabelValues(p.result).Inc()
	w.Header().Set("Content-Type", p.contentType)
	w.WriteHeader(p.status)
	_, _ = w.Write(p.body)
}

func contentType(id string) string {
	switch ext := path.Ext(id); ext {
	case ".md", ".mdx":
		return "text/markdown; charset=utf-8"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "text/plain; charset=utf-8"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
