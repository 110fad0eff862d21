package providers

import (
	"context"
	"testing"
)

func TestRegistry_Reload(t *testing.T) {
	r := NewRegistry()
	r.Reload(RegistryConfig{
		Default: "gemini",
		Providers: map[string]ProviderConfig{
			"gemini":   {Type: "gemini", APIKey: "key", Model: "gemini-1.5-pro", Enabled: true},
			"openai":   {Type: "openai", APIKey: "key", Model: "gpt-4o", Enabled: true},
			"disabled": {Type: "gemini", APIKey: "key", Enabled: false},
			"bogus":    {Type: "not-a-provider", Enabled: true},
		},
	})

	names := r.List()
	if len(names) != 2 || names[0] != "gemini" || names[1] != "openai" {
		t.Errorf("unexpected provider list: %v", names)
	}

	c, err := r.Default()
	if err != nil {
		t.Fatalf("default provider: %v", err)
	}
	if c.Name() != GeminiName {
		t.Errorf("default provider = %s, want gemini", c.Name())
	}

	if _, err := r.Get("disabled"); err == nil {
		t.Error("disabled provider should not be registered")
	}
}

func TestRegistry_ReloadReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register("mock", NewMockClient())

	r.Reload(RegistryConfig{
		Default: "openai",
		Providers: map[string]ProviderConfig{
			"openai": {Type: "openai", APIKey: "key", Enabled: true},
		},
	})

	if _, err := r.Get("mock"); err == nil {
		t.Error("reload should drop previously registered clients")
	}
	if names := r.List(); len(names) != 1 || names[0] != "openai" {
		t.Errorf("unexpected provider list after reload: %v", names)
	}
}

func TestRegistry_DefaultUnconfigured(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Default(); err == nil {
		t.Error("expected error when no default provider is configured")
	}
}

func TestMockClient_CountsCalls(t *testing.T) {
	c := NewMockClient()
	if _, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg"); err != nil {
		t.Fatalf("mock analyze failed: %v", err)
	}
	if c.Calls() != 1 {
		t.Errorf("calls = %d, want 1", c.Calls())
	}
}

func TestMIMEForFilename(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"report.png", "image/png"},
		{"report.PNG", "image/png"},
		{"report.jpg", "image/jpeg"},
		{"report.jpeg", "image/jpeg"},
		// Everything that is not a PNG is treated as JPEG.
		{"report.webp", "image/jpeg"},
		{"", "image/jpeg"},
	}
	for _, tc := range cases {
		if got := MIMEForFilename(tc.name); got != tc.want {
			t.Errorf("MIMEForFilename(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestGeminiClient_RequiresAPIKey(t *testing.T) {
	c := NewGeminiClient(GeminiConfig{})
	if _, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg"); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestOpenAIClient_RequiresAPIKey(t *testing.T) {
	c := NewOpenAIClient(OpenAIConfig{})
	if _, err := c.Analyze(context.Background(), []byte("img"), "image/jpeg"); err == nil {
		t.Error("expected error for empty API key")
	}
}
