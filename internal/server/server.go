// Package server exposes the project workflow as a JSON HTTP API.
//
// Every /api route except sign-up and sign-in requires a bearer session
// token. The resolved session travels in the request context.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"requira/internal/config"
	"requira/internal/services"
)

const defaultDrainTimeout = 5 * time.Second

// ServerStatus reports runtime lifecycle states for the HTTP server
type ServerStatus string

const (
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusDraining ServerStatus = "draining"
)

// Logger receives diagnostic lines
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Services bundles the workflow services the API serves
type Services struct {
	Auth     *services.AuthService
	Projects *services.ProjectService
	Critique *services.CritiqueService
	Export   *services.ExportService
	Naming   *services.NamingService
}

// Server wraps the HTTP listener and handlers of the API
type Server struct {
	settings config.ServerConfig
	svc      Services
	logger   Logger
	clock    func() time.Time

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    ServerStatus
	started   time.Time
}

// Option customizes server construction
type Option func(*Server)

// WithLogger overrides the default no-op logger
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control timestamps
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewServer prepares an API server
func NewServer(settings config.ServerConfig, svc Services, opts ...Option) *Server {
	s := &Server{
		settings: settings,
		svc:      svc,
		logger:   nopLogger{},
		clock:    func() time.Time { return time.Now().UTC() },
		status:   StatusStarting,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the API router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /api/auth/signout", s.authed(s.handleSignOut))
	mux.HandleFunc("GET /api/auth/me", s.authed(s.handleMe))

	mux.HandleFunc("GET /api/projects", s.authed(s.handleListProjects))
	mux.HandleFunc("POST /api/projects", s.authed(s.handleCreateProject))
	mux.HandleFunc("GET /api/projects/{id}", s.authed(s.handleGetProject))
	mux.HandleFunc("POST /api/projects/{id}/start", s.authed(s.handleStart))
	mux.HandleFunc("POST /api/projects/{id}/messages", s.authed(s.handleMessage))
	mux.HandleFunc("POST /api/projects/{id}/submit", s.authed(s.handleSubmit))
	mux.HandleFunc("PUT /api/projects/{id}/status", s.authed(s.handleSetStatus))
	mux.HandleFunc("POST /api/projects/{id}/critique", s.authed(s.handleCritique))
	mux.HandleFunc("GET /api/projects/{id}/export", s.authed(s.handleExport))
	mux.HandleFunc("POST /api/projects/{id}/names", s.authed(s.handleSuggestNames))
	mux.HandleFunc("PUT /api/projects/{id}/title", s.authed(s.handleAdoptName))

	mux.HandleFunc("GET /api/stats", s.authed(s.handleStats))
	return mux
}

// Start listens on the configured address and serves the API in the
// background until Shutdown. ctx becomes the base context of every request.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return errors.New("requira api: already running")
	}

	listener, err := net.Listen("tcp", s.settings.Address())
	if err != nil {
		return fmt.Errorf("requira api: listen on %s: %w", s.settings.Address(), err)
	}
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout(),
		WriteTimeout: s.settings.WriteTimeout(),
		IdleTimeout:  s.settings.IdleTimeout(),
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	s.listener = listener
	s.server = srv
	s.started = s.clock()
	s.status = StatusReady
	go s.serve(srv, listener)

	s.logger.Printf("requira api: accepting requests on %s (body limit %d bytes)",
		listener.Addr(), s.settings.MaxBodyBytes)
	return nil
}

func (s *Server) serve(srv *http.Server, listener net.Listener) {
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Printf("requira api: stopped serving: %v", err)
	}
}

// Shutdown reports the API as draining, waits for running requests such as
// conversation turns and exports, then releases the listener. Without a
// deadline on ctx it waits at most defaultDrainTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	if srv == nil {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusDraining
	s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultDrainTimeout)
		defer cancel()
	}
	s.logger.Printf("requira api: draining after %s up", s.uptime().Round(time.Second))
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("requira api: drain: %w", err)
	}

	s.mu.Lock()
	s.server, s.listener = nil, nil
	s.mu.Unlock()
	s.logger.Printf("requira api: stopped")
	return nil
}

// Addr returns the bound address, or "" while the API is not running
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// BaseURL is the root URL clients use to reach the API
func (s *Server) BaseURL() string {
	host := s.Addr()
	if host == "" {
		host = s.settings.Address()
	}
	return (&url.URL{Scheme: "http", Host: host}).String()
}

// Status reports the server's lifecycle state
func (s *Server) Status() ServerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Server) uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.started.IsZero() {
		return 0
	}
	return s.clock().Sub(s.started)
}
