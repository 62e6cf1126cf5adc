package providers

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry holds the configured inference clients and their rate
// limiters. It supports config-driven instantiation and hot reload, and
// is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]Client
	limiters map[string]*RateLimiter
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients:  make(map[string]Client),
		limiters: make(map[string]*RateLimiter),
		logger:   slog.Default(),
	}
}

// SetLogger sets the registry logger.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds or replaces a client by name.
func (r *Registry) Register(name string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	r.limiters[name] = NewRateLimiter(client.RequestsPerMinute())
	if r.logger != nil {
		r.logger.Info("registered provider", "name", name)
	}
}

// Unregister removes a client by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
	delete(r.limiters, name)
	if r.logger != nil {
		r.logger.Info("unregistered provider", "name", name)
	}
}

// Get returns a client by name.
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return client, nil
}

// Limiter returns the rate limiter for a registered client, or nil.
func (r *Registry) Limiter(name string) *RateLimiter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limiters[name]
}

// Has checks whether a client is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[name]
	return ok
}

// List returns all registered client names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// Clients returns a snapshot of all registered clients.
func (r *Registry) Clients() map[string]Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make(map[string]Client, len(r.clients))
	for name, client := range r.clients {
		result[name] = client
	}
	return result
}

// ProviderConfig configures one inference client with a resolved API key.
type ProviderConfig struct {
	Type       string // "openrouter", "openai", "anthropic"
	Model      string
	APIKey     string
	RateLimit  int // Requests per minute
	Timeout    time.Duration
	MaxRetries int
	Enabled    bool
}

// RegistryConfig defines the clients to instantiate from config.
type RegistryConfig struct {
	Providers map[string]ProviderConfig
}

// NewRegistryFromConfig creates a registry with clients based on
// configuration. Only enabled providers with API keys are registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	for name, provCfg := range cfg.Providers {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		if client := createClient(provCfg); client != nil {
			r.clients[name] = client
			r.limiters[name] = NewRateLimiter(client.RequestsPerMinute())
		}
	}
	return r
}

// Reload updates the registry from new configuration. Providers that are
// no longer configured are unregistered; changed ones are recreated.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, provCfg := range cfg.Providers {
		if !provCfg.Enabled || provCfg.APIKey == "" {
			continue
		}
		want[name] = true

		if _, exists := r.clients[name]; exists {
			// Recreate unconditionally; client construction is cheap and
			// comparing every config field is not worth the fragility.
			delete(r.clients, name)
		}
		if client := createClient(provCfg); client != nil {
			r.clients[name] = client
			r.limiters[name] = NewRateLimiter(client.RequestsPerMinute())
			if r.logger != nil {
				r.logger.Info("registered provider", "name", name, "type", provCfg.Type)
			}
		}
	}

	for name := range r.clients {
		if !want[name] {
			delete(r.clients, name)
			delete(r.limiters, name)
			if r.logger != nil {
				r.logger.Info("unregistered provider", "name", name)
			}
		}
	}
}

// createClient creates a client based on provider type.
func createClient(cfg ProviderConfig) Client {
	switch cfg.Type {
	case "openrouter":
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
			RPM:          cfg.RateLimit,
			MaxRetries:   cfg.MaxRetries,
		})
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
			RPM:          cfg.RateLimit,
			MaxRetries:   cfg.MaxRetries,
		})
	case "anthropic":
		return NewAnthropicClient(AnthropicConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
			RPM:          cfg.RateLimit,
			MaxRetries:   cfg.MaxRetries,
		})
	default:
		return nil
	}
}
