package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ProviderConfig describes one configured vision provider.
type ProviderConfig struct {
	Type    string // "gemini" or "openai"
	APIKey  string
	Model   string
	Enabled bool
}

// RegistryConfig holds the full provider configuration.
type RegistryConfig struct {
	// Default names the provider used when the caller does not pick one.
	Default   string
	Providers map[string]ProviderConfig
}

// Registry manages the configured vision clients. It is safe for concurrent
// use and can be reloaded when configuration changes.
type Registry struct {
	mu          sync.RWMutex
	clients     map[string]VisionClient
	defaultName string
	logger      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]VisionClient)}
}

// SetLogger sets the logger used during reloads.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Reload replaces the registered clients from configuration. Disabled or
// unrecognized providers are skipped.
func (r *Registry) Reload(cfg RegistryConfig) {
	clients := make(map[string]VisionClient)

	for name, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		switch pc.Type {
		case GeminiName:
			clients[name] = NewGeminiClient(GeminiConfig{APIKey: pc.APIKey, Model: pc.Model})
		case OpenAIName:
			clients[name] = NewOpenAIClient(OpenAIConfig{APIKey: pc.APIKey, Model: pc.Model})
		default:
			r.logWarn("skipping provider with unknown type", "name", name, "type", pc.Type)
		}
	}

	r.mu.Lock()
	r.clients = clients
	r.defaultName = cfg.Default
	r.mu.Unlock()
}

// Register adds a client directly. Used by tests to install mocks.
func (r *Registry) Register(name string, c VisionClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = c
	if r.defaultName == "" {
		r.defaultName = name
	}
}

// Get returns the named client.
func (r *Registry) Get(name string) (VisionClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", name)
	}
	return c, nil
}

// Default returns the configured default client.
func (r *Registry) Default() (VisionClient, error) {
	r.mu.RLock()
	name := r.defaultName
	r.mu.RUnlock()
	if name == "" {
		return nil, fmt.Errorf("no default provider configured")
	}
	return r.Get(name)
}

// List returns the registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) logWarn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
