// Package web provides the HTTP API for the cleaning service.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
	mw "github.com/JonMunkholm/csvclean/internal/web/middleware"
)

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the cleaning API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	db      Pinger
	router  *chi.Mux
	server  *http.Server

	stop context.CancelFunc
}

// NewServer creates a new Server instance. db may be nil when runs are not
// persisted.
func NewServer(service *core.Service, cfg *config.Config, db Pinger) *Server {
	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		service: service,
		cfg:     cfg,
		db:      db,
		router:  chi.NewRouter(),
		stop:    stop,
	}
	s.setupMiddleware(ctx)
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(ctx context.Context) {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	s.router.Use(s.securityHeaders)
	s.router.Use(mw.APIKeyAuth(&s.cfg.Security, "/api/health"))

	if s.cfg.Security.RateLimit > 0 {
		limiter := mw.NewRateLimiter(ctx, s.cfg.Security.RateLimit, time.Minute)
		s.router.Use(limiter.Middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/clean", s.handleClean)
		r.Get("/rules", s.handleDefaultRules)

		r.Get("/runs/{runID}", s.handleGetRun)
		r.Get("/runs/{runID}/corrections", s.handleCorrections)
		r.Get("/runs/{runID}/export", s.handleExport)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
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
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		if s.cfg.Security.EnableCSP {
			// Responses are JSON or CSV and never load resources.
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		}
		next.ServeHTTP(w, r)
	})
}
