package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("SHELFSCAN_TEST_KEY", "sk-12345")
	t.Setenv("SHELFSCAN_TEST_OTHER", "abc")

	tests := []struct {
		in   string
		want string
	}{
		{"${SHELFSCAN_TEST_KEY}", "sk-12345"},
		{"prefix-${SHELFSCAN_TEST_KEY}", "prefix-sk-12345"},
		{"${SHELFSCAN_TEST_KEY}-${SHELFSCAN_TEST_OTHER}", "sk-12345-abc"},
		{"${SHELFSCAN_TEST_UNSET}", ""},
		{"plain-value", "plain-value"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ResolveEnvVars(tt.in); got != tt.want {
			t.Errorf("ResolveEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToProviderRegistryConfig(t *testing.T) {
	t.Setenv("SHELFSCAN_TEST_KEY", "sk-resolved")

	cfg := &Config{
		Providers: map[string]ProviderCfg{
			"openrouter": {
				Type:       "openrouter",
				Model:      "anthropic/claude-sonnet-4",
				APIKey:     "${SHELFSCAN_TEST_KEY}",
				RateLimit:  20,
				Timeout:    30 * time.Second,
				MaxRetries: 3,
				Enabled:    true,
			},
		},
	}

	rc := cfg.ToProviderRegistryConfig()
	p, ok := rc.Providers["openrouter"]
	if !ok {
		t.Fatal("openrouter missing from registry config")
	}
	if p.APIKey != "sk-resolved" {
		t.Errorf("APIKey = %q, want env-resolved value", p.APIKey)
	}
	if p.Type != "openrouter" || p.Model != "anthropic/claude-sonnet-4" || p.RateLimit != 20 {
		t.Errorf("fields not copied: %+v", p)
	}
	if p.Timeout != 30*time.Second || p.MaxRetries != 3 || !p.Enabled {
		t.Errorf("fields not copied: %+v", p)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	or, ok := cfg.GetProvider("openrouter")
	if !ok {
		t.Fatal("default config has no openrouter provider")
	}
	if !or.Enabled {
		t.Error("openrouter not enabled by default")
	}
	if !strings.Contains(or.APIKey, "${") {
		t.Errorf("APIKey = %q, want env reference", or.APIKey)
	}

	enabled := cfg.EnabledProviders()
	if len(enabled) != 1 {
		t.Errorf("EnabledProviders() has %d entries, want openrouter only", len(enabled))
	}

	if cfg.Defaults.RepairProvider == "" || cfg.Defaults.ValidationProvider == "" {
		t.Error("repair/validation providers not defaulted")
	}
	if !cfg.Lookup.Enabled || cfg.Lookup.BaseURL == "" {
		t.Errorf("lookup defaults incomplete: %+v", cfg.Lookup)
	}
	if cfg.Server.ListenAddr == "" || cfg.Server.CallHistory <= 0 {
		t.Errorf("server defaults incomplete: %+v", cfg.Server)
	}
	if cfg.Pipeline.ProviderTimeout <= 0 {
		t.Errorf("pipeline defaults incomplete: %+v", cfg.Pipeline)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# Shelfscan configuration") {
		t.Error("header comment missing")
	}
	for _, want := range []string{"providers:", "openrouter:", "${OPENROUTER_API_KEY}", "defaults:", "lookup:", "server:"} {
		if !strings.Contains(content, want) {
			t.Errorf("written config missing %q", want)
		}
	}
}

func TestManagerLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
providers:
  openrouter:
    type: openrouter
    model: test-model
    api_key: sk-test
    rate_limit: 5
    enabled: true
defaults:
  repair_provider: openrouter
  validation_provider: ""
server:
  listen_addr: ":9999"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cm, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	cfg := cm.Get()
	p, ok := cfg.GetProvider("openrouter")
	if !ok {
		t.Fatal("openrouter missing from loaded config")
	}
	if p.Model != "test-model" || p.APIKey != "sk-test" || p.RateLimit != 5 {
		t.Errorf("loaded provider = %+v", p)
	}
	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	// Sections absent from the file keep their defaults.
	if cfg.Lookup.BaseURL == "" {
		t.Error("lookup defaults not applied")
	}
}
