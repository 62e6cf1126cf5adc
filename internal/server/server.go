// Package server wires the provider registry, pipeline, and HTTP API
// into one process with config hot-reload.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shelfscan/shelfscan/internal/api"
	"github.com/shelfscan/shelfscan/internal/books"
	"github.com/shelfscan/shelfscan/internal/config"
	"github.com/shelfscan/shelfscan/internal/home"
	"github.com/shelfscan/shelfscan/internal/llmcall"
	"github.com/shelfscan/shelfscan/internal/lookup"
	"github.com/shelfscan/shelfscan/internal/pipeline"
	"github.com/shelfscan/shelfscan/internal/providers"
	"github.com/shelfscan/shelfscan/internal/server/endpoints"
	"github.com/shelfscan/shelfscan/internal/svcctx"
)

// Server is the shelfscan HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	configMgr  *config.Manager
	callStore  *llmcall.Store
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
	// ListenAddr is the address to bind to (default from config, then :8080).
	ListenAddr string
	// ConfigManager provides configuration with hot-reload support.
	ConfigManager *config.Manager
	// Home is the shelfscan home directory for scan archives (optional).
	Home *home.Dir
	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	appCfg := cfg.ConfigManager.Get()

	addr := cfg.ListenAddr
	if addr == "" {
		addr = appCfg.Server.ListenAddr
	}
	if addr == "" {
		addr = ":8080"
	}

	// Provider registry with hot reload
	registry := providers.NewRegistry()
	registry.SetLogger(cfg.Logger)
	registry.Reload(appCfg.ToProviderRegistryConfig())
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		registry.Reload(c.ToProviderRegistryConfig())
		cfg.Logger.Info("provider registry reloaded from config")
	})

	callStore := llmcall.NewStore(appCfg.Server.CallHistory)

	s := &Server{
		registry:  registry,
		configMgr: cfg.ConfigManager,
		callStore: callStore,
		logger:    cfg.Logger,
	}

	s.services = &svcctx.Services{
		Scanner: &scanService{
			registry:  registry,
			configMgr: cfg.ConfigManager,
			callStore: callStore,
			logger:    cfg.Logger,
		},
		Registry:      registry,
		LLMCallStore:  callStore,
		ConfigManager: cfg.ConfigManager,
		Home:          cfg.Home,
		Logger:        cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.withServices(mux),
		ReadTimeout:  5 * time.Minute, // Uploads plus pipeline time
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server. It blocks until the context is cancelled or
// an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

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

// CallStore returns the inference call store.
func (s *Server) CallStore() *llmcall.Store {
	return s.callStore
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := svcctx.WithServices(r.Context(), s.services)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// scanService assembles a pipeline per scan from the current config, so
// hot-reloaded provider and tuning changes take effect on the next scan.
type scanService struct {
	registry  *providers.Registry
	configMgr *config.Manager
	callStore *llmcall.Store
	logger    *slog.Logger

	mu        sync.Mutex
	lookup    *lookup.Client
	lookupCfg config.LookupCfg
}

func (s *scanService) Run(ctx context.Context, req pipeline.ScanRequest) (*books.Result, error) {
	cfg := s.configMgr.Get()

	opts := []pipeline.Option{pipeline.WithRecorder(s.callStore)}
	if client, err := s.registry.Get(cfg.Defaults.RepairProvider); err == nil {
		opts = append(opts, pipeline.WithRepairProvider(client))
	}
	if client, err := s.registry.Get(cfg.Defaults.ValidationProvider); err == nil {
		opts = append(opts, pipeline.WithValidationProvider(client))
	}
	if lc := s.lookupClient(cfg.Lookup); lc != nil {
		opts = append(opts, pipeline.WithLookup(lc))
	}

	p := pipeline.New(s.registry, s.logger, cfg.Pipeline, opts...)
	return p.Run(ctx, req)
}

// lookupClient returns the cached catalog client, rebuilding it when the
// lookup config changed. The client's response cache survives across
// scans as long as the config does.
func (s *scanService) lookupClient(cfg config.LookupCfg) *lookup.Client {
	if !cfg.Enabled {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookup == nil || s.lookupCfg != cfg {
		s.lookup = lookup.NewClient(lookup.Config{
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
			CacheSize: cfg.CacheSize,
			CacheTTL:  cfg.CacheTTL,
		})
		s.lookupCfg = cfg
	}
	return s.lookup
}
