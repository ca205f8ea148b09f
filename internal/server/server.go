// Package server wires the HTTP surface: router, global middleware, the
// auth pipeline, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/julieginest/prjCyberA3/internal/auth"
	"github.com/julieginest/prjCyberA3/internal/handler"
	"github.com/julieginest/prjCyberA3/internal/model"
	"github.com/julieginest/prjCyberA3/internal/server/middleware"
	"github.com/julieginest/prjCyberA3/internal/store"
	"github.com/julieginest/prjCyberA3/internal/telemetry"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host              string
	Port              int
	ShutdownTimeout   time.Duration
	CORSOrigins       []string
	MaxBodySize       int64 // bytes
	RequestsPerMinute int
	TokenTTL          time.Duration
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              8080,
		ShutdownTimeout:   30 * time.Second,
		CORSOrigins:       []string{"*"},
		MaxBodySize:       1 << 20,
		RequestsPerMinute: 300,
		TokenTTL:          24 * time.Hour,
	}
}

// Deps bundles everything the router needs.
type Deps struct {
	Store        *store.Store
	Pipeline     *auth.Pipeline
	Keys         *auth.APIKeys
	Tokens       *auth.TokenCodec
	LoginLimiter auth.LoginLimiter
	Webhooks     *auth.WebhookVerifier
	Metrics      *telemetry.Module
	Logger       *slog.Logger
}

// Server is the top-level HTTP server.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware wired. Call
// ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps) *Server {
	s := &Server{cfg: cfg, deps: deps, logger: deps.Logger}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.RateLimit(s.cfg.RequestsPerMinute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.APIKeyHeader},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	}

	sessions := handler.NewSessionHandler(s.deps.Store, s.deps.Tokens, s.deps.LoginLimiter,
		s.cfg.TokenTTL, s.deps.Metrics, s.logger)
	keys := handler.NewKeyHandler(s.deps.Keys, s.logger)
	products := handler.NewProductHandler(s.deps.Store, s.logger)
	webhooks := handler.NewWebhookHandler(s.deps.Webhooks, s.cfg.MaxBodySize, s.deps.Metrics, s.logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Unauthenticated: login, and webhook deliveries which carry their
		// own payload signature instead of a caller credential.
		r.Post("/session", sessions.Login)
		r.Post("/webhooks/shopify", webhooks.Receive)

		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.MaxBytesHandler(next, s.cfg.MaxBodySize)
			})
			r.Use(middleware.Authenticate(s.deps.Pipeline, s.deps.Metrics, s.logger))

			r.Get("/me", sessions.Me)
			r.Put("/session/password", sessions.ChangePassword)

			r.Route("/api-key", func(r chi.Router) {
				r.Use(middleware.RequirePermission(model.PermManageAPIKeys))
				r.Get("/", keys.List)
				r.Post("/", keys.Create)
				r.Delete("/{keyID}", keys.Revoke)
			})

			r.Route("/products", func(r chi.Router) {
				r.With(middleware.RequirePermission(model.PermViewProducts)).Get("/", products.List)
				r.With(middleware.RequirePermission(model.PermCreateProduct)).Post("/", products.Create)
				r.With(middleware.RequirePermission(model.PermUpdateProduct)).Put("/{productID}", products.Update)
				r.With(middleware.RequirePermission(model.PermDeleteProduct)).Delete("/{productID}", products.Delete)
			})
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz reports 200 when the store is reachable, 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.deps.Store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// ListenAndServe starts the server and blocks until SIGINT or SIGTERM, then
// drains in-flight requests within the shutdown timeout.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.deps.Keys.Close()
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying router, useful for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
