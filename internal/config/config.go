// Package config loads application configuration from a yaml file and the
// environment, with hot reload support for provider settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/hemolens/hemolens/internal/providers"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig                `mapstructure:"server"`
	Provider  string                      `mapstructure:"provider"`
	Providers map[string]ProviderSettings `mapstructure:"providers"`
	Workdir   string                      `mapstructure:"workdir"`
}

// ServerConfig holds the HTTP listen address.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// ProviderSettings configures one vision provider.
type ProviderSettings struct {
	Type    string `mapstructure:"type"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Enabled bool   `mapstructure:"enabled"`
}

// DefaultConfig returns the built-in defaults: Gemini as the active provider,
// OpenAI available but disabled, credentials taken from the environment.
func DefaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Host: "127.0.0.1", Port: "8080"},
		Provider: providers.GeminiName,
		Providers: map[string]ProviderSettings{
			"gemini": {
				Type:    providers.GeminiName,
				APIKey:  "${GEMINI_API_KEY}",
				Model:   providers.GeminiDefaultModel,
				Enabled: true,
			},
			"openai": {
				Type:    providers.OpenAIName,
				APIKey:  "${OPENAI_API_KEY}",
				Model:   "gpt-4o",
				Enabled: false,
			},
		},
	}
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("server", defaults.Server)
	viper.SetDefault("provider", defaults.Provider)
	viper.SetDefault("providers", defaults.Providers)
	viper.SetDefault("workdir", defaults.Workdir)

	// Environment variables with HEMOLENS_ prefix
	viper.SetEnvPrefix("HEMOLENS")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.hemolens")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// Validate checks that the active provider exists, is enabled, and has a
// resolvable credential. A missing credential is a fatal startup error.
func (c *Config) Validate() error {
	ps, ok := c.Providers[c.Provider]
	if !ok {
		return fmt.Errorf("active provider %q is not configured", c.Provider)
	}
	if !ps.Enabled {
		return fmt.Errorf("active provider %q is disabled", c.Provider)
	}
	if ResolveEnvVars(ps.APIKey) == "" {
		return fmt.Errorf("missing API key for provider %q (set %s)", c.Provider, ps.APIKey)
	}
	return nil
}

// ToRegistryConfig converts the config to a providers.RegistryConfig,
// resolving all ${ENV_VAR} references in API keys.
func (c *Config) ToRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		Default:   c.Provider,
		Providers: make(map[string]providers.ProviderConfig, len(c.Providers)),
	}
	for name, ps := range c.Providers {
		cfg.Providers[name] = providers.ProviderConfig{
			Type:    ps.Type,
			APIKey:  ResolveEnvVars(ps.APIKey),
			Model:   ps.Model,
			Enabled: ps.Enabled,
		}
	}
	return cfg
}
