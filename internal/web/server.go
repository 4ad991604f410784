// Package web provides the HTTP server and handlers for the market-share UI.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/marketshare/internal/config"
	"github.com/JonMunkholm/marketshare/internal/core"
	"github.com/JonMunkholm/marketshare/internal/store"
	"github.com/JonMunkholm/marketshare/internal/web/middleware"
	"github.com/JonMunkholm/marketshare/internal/web/templates"
)

// Server is the HTTP server for the market-share application.
type Server struct {
	cfg      *config.Config
	pipeline *core.Pipeline
	runs     *core.RunLimiter
	history  store.Store // nil when no store is configured
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a new Server. history may be nil.
func NewServer(cfg *config.Config, pipeline *core.Pipeline, history store.Store) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		runs:     core.NewRunLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		history:  history,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	opts := s.pipeline.Options()
	s.router.Get("/", templ.Handler(templates.Index(templates.PageData{
		Title:          "Market Share",
		MaxFileSizeMB:  s.cfg.Upload.MaxFileSize >> 20,
		DefaultMarker:  opts.Layout.Marker,
		StoreAvailable: s.history != nil,
	})).ServeHTTP)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		r.With(chimw.Timeout(s.cfg.Server.RequestTimeout)).Post("/sheets", s.handleSheets)

		// Runs get their own deadline from UPLOAD_TIMEOUT and a tighter rate.
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(s.newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute).middleware)
			}
			r.Post("/unpivot", s.handleUnpivot)
			r.Post("/process", s.handleProcess)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown waits for active runs, then gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}

	if st := s.runs.Status(); st.Active > 0 {
		slog.Info("waiting for runs to complete", "active", st.Active)
		if err := s.runs.WaitForDrain(ctx); err != nil {
			slog.Warn("runs did not complete in time", "error", err)
		}
	}

	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// The page carries its script and styles inline.
			if csp {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}

			next.ServeHTTP(w, r)
		})
	}
}
