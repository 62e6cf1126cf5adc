package config

import (
	"time"

	"github.com/shelfscan/shelfscan/internal/pipeline"
)

// Config holds shelfscan configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Providers map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Defaults  DefaultsCfg            `mapstructure:"defaults" yaml:"defaults"`
	Pipeline  pipeline.Config        `mapstructure:"pipeline" yaml:"pipeline"`
	Lookup    LookupCfg              `mapstructure:"lookup" yaml:"lookup"`
	Server    ServerCfg              `mapstructure:"server" yaml:"server"`
}

// ProviderCfg configures one vision/text inference provider.
type ProviderCfg struct {
	Type      string        `mapstructure:"type" yaml:"type"`   // "openrouter", "openai", "anthropic"
	Model     string        `mapstructure:"model" yaml:"model"` // Model name
	APIKey    string        `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	RateLimit int           `mapstructure:"rate_limit" yaml:"rate_limit"` // Requests per minute
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries int          `mapstructure:"max_retries" yaml:"max_retries"`
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
}

// DefaultsCfg selects which providers serve the auxiliary text calls.
type DefaultsCfg struct {
	// RepairProvider handles JSON repair calls. Empty disables repair.
	RepairProvider string `mapstructure:"repair_provider" yaml:"repair_provider"`
	// ValidationProvider handles batch validation calls. Empty disables
	// validation.
	ValidationProvider string `mapstructure:"validation_provider" yaml:"validation_provider"`
}

// LookupCfg configures the external catalog used for augmentation.
type LookupCfg struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheSize int           `mapstructure:"cache_size" yaml:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	// CallHistory bounds the recorded inference call ring.
	CallHistory int `mapstructure:"call_history" yaml:"call_history"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: map[string]ProviderCfg{
			"openrouter": {
				Type:      "openrouter",
				Model:     "anthropic/claude-sonnet-4",
				APIKey:    "${OPENROUTER_API_KEY}",
				RateLimit: 20,
				Enabled:   true,
			},
			"openai": {
				Type:      "openai",
				Model:     "gpt-4o",
				APIKey:    "${OPENAI_API_KEY}",
				RateLimit: 20,
				Enabled:   false,
			},
			"anthropic": {
				Type:      "anthropic",
				Model:     "claude-sonnet-4-20250514",
				APIKey:    "${ANTHROPIC_API_KEY}",
				RateLimit: 20,
				Enabled:   false,
			},
		},
		Defaults: DefaultsCfg{
			RepairProvider:     "openrouter",
			ValidationProvider: "openrouter",
		},
		Pipeline: pipeline.DefaultConfig(),
		Lookup: LookupCfg{
			Enabled:   true,
			BaseURL:   "https://openlibrary.org",
			Timeout:   10 * time.Second,
			CacheSize: 1024,
			CacheTTL:  24 * time.Hour,
		},
		Server: ServerCfg{
			ListenAddr: ":8080",
			CallHistory: 1000,
		},
	}
}

// GetProvider returns a provider config by name.
func (c *Config) GetProvider(name string) (ProviderCfg, bool) {
	cfg, ok := c.Providers[name]
	return cfg, ok
}

// EnabledProviders returns all enabled providers.
func (c *Config) EnabledProviders() map[string]ProviderCfg {
	result := make(map[string]ProviderCfg)
	for name, cfg := range c.Providers {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}
