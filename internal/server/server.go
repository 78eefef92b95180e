// Package server serves a hierarchy over HTTP: stateless layouts of any
// focus, and navigation sessions whose zoom state lives on the server.
//
//	GET    /api/tree                       normalized hierarchy
//	GET    /api/layout?focus=&width=&height=&format=
//	POST   /api/sessions                   {"width", "height"}
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	POST   /api/sessions/{id}/click        {"id"}; empty id zooms out
//	POST   /api/sessions/{id}/hover        {"id"}
//	POST   /api/sessions/{id}/back
//	POST   /api/sessions/{id}/jump         {"index"}
//	POST   /api/sessions/{id}/reset
//	POST   /api/sessions/{id}/resize       {"width", "height"}
//	GET    /api/sessions/{id}/svg?click=&jump=
//
// Errors are JSON objects with a code and message; status codes follow
// [errors.HTTPStatus].
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/budgetmap/pkg/hierarchy"
	"github.com/matzehuels/budgetmap/pkg/observability"
	"github.com/matzehuels/budgetmap/pkg/pipeline"
	"github.com/matzehuels/budgetmap/pkg/session"
)

// DefaultCleanupInterval is how often expired sessions are removed.
const DefaultCleanupInterval = time.Minute

// Config holds configuration for the server.
type Config struct {
	Addr     string
	Tree     *hierarchy.Tree
	Warnings []string

	// Runner computes and caches stateless layouts. Nil uses an uncached runner.
	Runner *pipeline.Runner

	// Sessions holds viewer sessions. Nil creates a store with the default TTL.
	Sessions *session.Store

	// Render supplies the layout and scene options, default viewport size
	// and palette hash for every response.
	Render pipeline.Options

	CleanupInterval time.Duration
	Logger          *log.Logger
}

// Server is the HTTP API server.
type Server struct {
	addr     string
	tree     *hierarchy.Tree
	treeHash string
	warnings []string
	runner   *pipeline.Runner
	sessions *session.Store
	render   pipeline.Options
	cleanup  time.Duration
	logger   *log.Logger
	handler  http.Handler
}

// New creates a server for cfg.Tree.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	runner := cfg.Runner
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NewStore(session.DefaultTTL)
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	render := cfg.Render
	render.SetLayoutDefaults()
	render.SetRenderDefaults()
	render.Logger = logger

	s := &Server{
		addr:     cfg.Addr,
		tree:     cfg.Tree,
		treeHash: pipeline.TreeHash(cfg.Tree),
		warnings: cfg.Warnings,
		runner:   runner,
		sessions: sessions,
		render:   render,
		cleanup:  interval,
		logger:   logger,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.observe,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tree", s.handleTree)
		r.Get("/layout", s.handleLayout)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/click", s.handleClick)
				r.Post("/hover", s.handleHover)
				r.Post("/back", s.handleBack)
				r.Post("/jump", s.handleJump)
				r.Post("/reset", s.handleReset)
				r.Post("/resize", s.handleResize)
				r.Get("/svg", s.handleSessionSVG)
			})
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "NOT_FOUND", Error: "no route for " + r.URL.Path})
	})
	return r
}

// observe reports every request to the HTTP hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, d)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Serve starts the server and blocks until ctx is cancelled, then shuts
// down gracefully and closes all sessions.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.logger.Info("serving", "addr", "http://"+s.addr, "nodes", s.tree.Len())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		ticker := time.NewTicker(s.cleanup)
		defer ticker.Stop()
		for {
			select {
			case <-egctx.Done():
				return nil
			case <-ticker.C:
				if n := s.sessions.Cleanup(egctx); n > 0 {
					s.logger.Debug("expired sessions", "count", n, "active", s.sessions.Len())
				}
			}
		}
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		err := srv.Shutdown(shutdownCtx)
		s.sessions.Close()
		return err
	})

	return eg.Wait()
}
