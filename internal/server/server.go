package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/formgate/formgate/internal/connector"
	"github.com/formgate/formgate/internal/handler"
	"github.com/formgate/formgate/internal/server/middleware"
	"github.com/formgate/formgate/internal/service"
	"github.com/formgate/formgate/internal/ui"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	EnableUI        bool
	// UIAPIKey is rendered into the frontend so it can request tokens.
	UIAPIKey string
	// TokenRateLimit is POST /token requests per client IP per minute.
	TokenRateLimit int
	// Role is required on every forms request.
	Role string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		EnableUI:        true,
		TokenRateLimit:  10,
		Role:            "api_client",
	}
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Registry *connector.Registry
	Forms    handler.FormLookup
	Auth     *service.AuthService
	OpenAPI  *openapi3.T
	// MCP, when set, is mounted at /mcp behind bearer authentication.
	MCP http.Handler
}

// Server is the top-level HTTP server for formgate. It owns the Chi router
// and closes the upstream connectors on shutdown.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "Mcp-Session-Id"},
		ExposedHeaders: []string{"X-Request-ID", "WWW-Authenticate", "Mcp-Session-Id"},
		MaxAge:         300,
	}))
	r.Use(chimw.Compress(5))

	sysHandler := handler.NewSystemHandler(s.deps.Registry, s.deps.OpenAPI)
	formHandler := handler.NewFormHandler(s.deps.Forms, s.logger)
	tokenHandler := handler.NewTokenHandler(s.deps.Auth, s.logger)

	// --- Health checks and API description (no auth required) ---
	r.Get("/healthz", sysHandler.Healthz)
	r.Get("/readyz", sysHandler.Readyz)
	r.Get("/openapi.json", sysHandler.OpenAPI)

	// --- Token issuance ---
	r.With(middleware.RateLimit(s.cfg.TokenRateLimit)).Post("/token", tokenHandler.IssueToken)

	// --- Marketing forms ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(s.deps.Auth))
		r.Use(middleware.RequireRole(s.cfg.Role))

		r.Get("/marketingforms", formHandler.ListForms)
		r.Get("/marketingforms/{idOrSlug}", formHandler.GetForm)

		if s.deps.MCP != nil {
			r.Handle("/mcp", s.deps.MCP)
		}
	})

	// --- Embedded frontend ---
	if s.cfg.EnableUI {
		if err := s.mountUI(r); err != nil {
			s.logger.Error("failed to load embedded UI", "error", err)
		}
	}

	s.router = r
}

// mountUI serves the embedded SPA: static assets directly, index.html for
// every client-side route.
func (s *Server) mountUI(r chi.Router) error {
	distFS, err := fs.Sub(ui.Dist, "dist")
	if err != nil {
		return fmt.Errorf("sub filesystem: %w", err)
	}
	tmpl, err := template.ParseFS(distFS, "index.html")
	if err != nil {
		return fmt.Errorf("parse index.html: %w", err)
	}

	var page bytes.Buffer
	if err := tmpl.Execute(&page, struct{ APIKey string }{s.cfg.UIAPIKey}); err != nil {
		return fmt.Errorf("render index.html: %w", err)
	}
	index := page.Bytes()

	fileServer := http.FileServer(http.FS(distFS))
	r.Handle("/assets/*", fileServer)
	r.Get("/favicon.svg", fileServer.ServeHTTP)

	spaHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(index)
	}
	r.Get("/", spaHandler)
	r.Get("/form/*", spaHandler)
	return nil
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing all upstream connections.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if s.deps.Registry != nil {
		s.deps.Registry.CloseAll()
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
