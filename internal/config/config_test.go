package config

import (
	"os"
	"testing"

	"github.com/hemolens/hemolens/internal/providers"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Provider != "gemini" {
		t.Errorf("default provider = %q, want gemini", cfg.Provider)
	}
	gem, ok := cfg.Providers["gemini"]
	if !ok {
		t.Fatal("expected gemini provider settings")
	}
	if gem.APIKey != "${GEMINI_API_KEY}" {
		t.Errorf("expected gemini API key placeholder, got %q", gem.APIKey)
	}
	if !gem.Enabled {
		t.Error("gemini should be enabled by default")
	}
	if cfg.Providers["openai"].Enabled {
		t.Error("openai should be disabled by default")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "secret123")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("passes with resolvable key", func(t *testing.T) {
		t.Setenv("TEST_GEMINI_KEY", "gm-key-123")
		cfg := DefaultConfig()
		cfg.Providers["gemini"] = ProviderSettings{
			Type: "gemini", APIKey: "${TEST_GEMINI_KEY}", Enabled: true,
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("validate failed: %v", err)
		}
	})

	t.Run("fails on missing credential", func(t *testing.T) {
		os.Unsetenv("GEMINI_API_KEY")
		cfg := DefaultConfig()
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for unresolved API key")
		}
	})

	t.Run("fails on unknown active provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider = "nope"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for unknown provider")
		}
	})

	t.Run("fails on disabled active provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider = "openai"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for disabled provider")
		}
	})
}

func TestConfig_ToRegistryConfig(t *testing.T) {
	t.Setenv("TEST_GEMINI_KEY", "gm-key-123")

	cfg := &Config{
		Provider: "gemini",
		Providers: map[string]ProviderSettings{
			"gemini": {Type: "gemini", APIKey: "${TEST_GEMINI_KEY}", Model: "gemini-1.5-pro", Enabled: true},
		},
	}

	rc := cfg.ToRegistryConfig()
	if rc.Default != "gemini" {
		t.Errorf("default = %q", rc.Default)
	}
	pc := rc.Providers["gemini"]
	if pc.APIKey != "gm-key-123" {
		t.Errorf("API key not resolved: %q", pc.APIKey)
	}
	if pc.Type != providers.GeminiName || pc.Model != "gemini-1.5-pro" || !pc.Enabled {
		t.Errorf("provider config not carried over: %+v", pc)
	}
}
