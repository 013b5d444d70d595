// Package webui provides the dashboard and audit API for the freight
// delivery audit backend. This file contains the HTTP server organism.
package webui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"freightaudit/logging"

	"go.uber.org/zap"
)

// AuthProvider is the slice of the auth middleware the server needs. It is
// implemented by auth.Middleware; the interface keeps this package from
// importing auth, which imports this package.
type AuthProvider interface {
	// Middleware wraps an http.Handler with session validation
	Middleware(next http.Handler) http.Handler
	// LoginHandler returns the /login handler
	LoginHandler() http.HandlerFunc
	// LogoutHandler returns the /logout handler
	LogoutHandler() http.HandlerFunc
}

// ServerConfig configures the web server.
type ServerConfig struct {
	// Port to listen on (default: 8080)
	Port int

	// Host to bind to (default: "localhost")
	Host string

	// ReadTimeout for requests (default: 30s). Uploads of a few dozen MB
	// over slow mobile links still fit comfortably.
	ReadTimeout time.Duration

	// WriteTimeout for responses (default: 180s). Must cover a full audit
	// including the reasoning service round trip.
	WriteTimeout time.Duration

	// IdleTimeout for keep-alive connections (default: 120s)
	IdleTimeout time.Duration

	// ShutdownTimeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration

	// LogSkipPaths are paths excluded from request logging
	LogSkipPaths []string
}

// DefaultServerConfig returns the default server configuration. Health
// probes are excluded from request logging.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8080,
		Host:            "localhost",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    180 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		LogSkipPaths:    []string{"/api/health"},
	}
}

// Server is the HTTP server organism for the audit backend.
//
// Organism composition:
//   - AuditAPI: REST endpoints (submission, history, export, metrics, health)
//   - AuthProvider: session-cookie authentication (optional)
//   - LoggingMiddleware: request logging
//   - login and dashboard pages
//
// When no AuthProvider is supplied the dashboard runs open; intended only
// for local development.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     ServerConfig
	api        *AuditAPI
	auth       AuthProvider
	logger     *logging.Logger
}

// NewServer wires the server organism. The API organism is required; auth
// is optional.
func NewServer(config ServerConfig, api *AuditAPI, authProvider AuthProvider, logger *logging.Logger) (*Server, error) {
	if api == nil || logger == nil {
		return nil, errors.New("webui: api and logger are required")
	}

	defaults := DefaultServerConfig()
	if config.Port == 0 {
		config.Port = defaults.Port
	}
	if config.Host == "" {
		config.Host = defaults.Host
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if config.LogSkipPaths == nil {
		config.LogSkipPaths = defaults.LogSkipPaths
	}

	server := &Server{
		mux:    http.NewServeMux(),
		config: config,
		api:    api,
		auth:   authProvider,
		logger: logger.Named("webui"),
	}
	server.setupRoutes()

	loggingMw := NewLoggingMiddleware(NewZapRequestLogger(logger), config.LogSkipPaths...)

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      loggingMw.Handler(server.mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return server, nil
}

// setupRoutes registers all endpoints. Health stays unauthenticated so load
// balancers can probe it; everything else goes through the auth middleware
// when one is configured.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.api.HandleHealth)

	s.mux.Handle("/api/audits", s.protect(http.HandlerFunc(s.api.HandleAudits)))
	s.mux.Handle("/api/audits/export.csv", s.protect(http.HandlerFunc(s.api.HandleExportCSV)))
	s.mux.Handle("/api/metrics", s.protect(http.HandlerFunc(s.api.HandleMetrics)))

	if s.auth != nil {
		s.mux.HandleFunc("/login", s.auth.LoginHandler())
		s.mux.HandleFunc("/logout", s.auth.LogoutHandler())
	}

	s.mux.HandleFunc("/", s.handleRoot)
}

// protect wraps a handler with the auth middleware when auth is configured.
func (s *Server) protect(handler http.Handler) http.Handler {
	if s.auth == nil {
		return handler
	}
	return s.auth.Middleware(handler)
}

// handleRoot serves the dashboard at exactly "/". Anything else under the
// catch-all is a 404. Unauthenticated browsers are redirected to the login
// page rather than shown a bare 401.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.auth == nil {
		HandleDashboardPage(w, r)
		return
	}

	redirectToLogin := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	// The middleware answers 401 for invalid sessions; intercept that and
	// redirect instead, since this is a browser-facing page.
	probe := &statusProbe{ResponseWriter: w}
	s.auth.Middleware(http.HandlerFunc(HandleDashboardPage)).ServeHTTP(probe, r)
	if probe.unauthorized {
		redirectToLogin.ServeHTTP(w, r)
	}
}

// statusProbe suppresses a 401 response so the caller can substitute a
// redirect. All other responses pass through untouched.
type statusProbe struct {
	http.ResponseWriter
	unauthorized bool
}

func (p *statusProbe) WriteHeader(statusCode int) {
	if statusCode == http.StatusUnauthorized {
		p.unauthorized = true
		return
	}
	p.ResponseWriter.WriteHeader(statusCode)
}

func (p *statusProbe) Write(b []byte) (int, error) {
	if p.unauthorized {
		return len(b), nil
	}
	return p.ResponseWriter.Write(b)
}

// Handler returns the root handler. Used by tests with httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins serving and blocks until the server stops. A graceful
// Shutdown is not reported as an error.
func (s *Server) Start() error {
	s.logger.Info("web server starting", zap.String("addr", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webui: server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting up to ShutdownTimeout for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("web server shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("webui: shutdown: %w", err)
	}
	return nil
}
