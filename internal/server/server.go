// Package server hosts the HTTP surface: the upload form, the analysis API,
// and document downloads.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hemolens/hemolens/internal/analysis"
	"github.com/hemolens/hemolens/internal/api"
	"github.com/hemolens/hemolens/internal/config"
	"github.com/hemolens/hemolens/internal/providers"
	"github.com/hemolens/hemolens/internal/server/endpoints"
	"github.com/hemolens/hemolens/internal/svcctx"
	"github.com/hemolens/hemolens/internal/workdir"
)

// Server is the main hemolens HTTP server. It owns the working directory
// lifecycle: leftovers from previous runs are wiped on start.
type Server struct {
	httpServer *http.Server
	workdir    *workdir.Dir
	pipeline   *analysis.Pipeline
	registry   *providers.Registry
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// WorkdirPath overrides the working directory location
	WorkdirPath string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Create provider registry
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)

	// If config manager provided, set up providers and hot reload
	if cfg.ConfigManager != nil {
		registry.Reload(cfg.ConfigManager.Get().ToRegistryConfig())

		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(c.ToRegistryConfig())
			cfg.Logger.Info("provider registry reloaded from config")
		})
	}

	wd := workdir.New(cfg.WorkdirPath)

	s := &Server{
		workdir:   wd,
		registry:  registry,
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	// The pipeline resolves the active provider per request so config
	// reloads take effect without a restart.
	s.pipeline = analysis.New(&registryClient{registry: registry}, wd, cfg.Logger)

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Analysis holds the request open
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	// Fresh working directory for this run
	if err := s.workdir.CleanOnStart(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to prepare working directory: %w", err)
	}
	s.logger.Info("working directory ready", "path", s.workdir.Path())

	// Create services struct for context enrichment
	s.mu.Lock()
	s.services = &svcctx.Services{
		Pipeline:      s.pipeline,
		Registry:      s.registry,
		Workdir:       s.workdir,
		ConfigManager: s.configMgr,
		Logger:        s.logger,
	}
	s.mu.Unlock()

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Workdir returns the working directory.
func (s *Server) Workdir() *workdir.Dir {
	return s.workdir
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until Start has run.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		ready := s.services != nil
		s.mu.RUnlock()
		if !ready {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}

// registryClient adapts the provider registry to the VisionClient interface,
// resolving the active provider at call time.
type registryClient struct {
	registry *providers.Registry
}

func (c *registryClient) Name() string {
	client, err := c.registry.Default()
	if err != nil {
		return "unconfigured"
	}
	return client.Name()
}

func (c *registryClient) Analyze(ctx context.Context, image []byte, mimeType string) (string, error) {
	client, err := c.registry.Default()
	if err != nil {
		return "", fmt.Errorf("no vision provider configured: %w", err)
	}
	return client.Analyze(ctx, image, mimeType)
}
