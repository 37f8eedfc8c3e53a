// Package registry loads and serves the static model-endpoint catalog. The
// catalog is read-only after initialization and may be shared across
// goroutines without locking.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"polyglot-agent/gateway"
)

// Config is the application configuration parsed from YAML.
type Config struct {
	Server       ServerConfig              `yaml:"server"`
	DefaultModel string                    `yaml:"default_model"`
	Endpoints    map[string]EndpointConfig `yaml:"endpoints"`
}

// ServerConfig defines listener configuration for the HTTP front-end.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// EndpointConfig captures one model endpoint as written in the YAML file.
// api_key supports ${VAR} environment references.
type EndpointConfig struct {
	Name                string            `yaml:"name"`
	Vendor              string            `yaml:"vendor"`
	BaseURL             string            `yaml:"base_url"`
	APIKey              string            `yaml:"api_key"`
	ModelID             string            `yaml:"model_id"`
	TimeoutSeconds      int               `yaml:"timeout_seconds"`
	MaxRetries          *int              `yaml:"max_retries"`
	RoleMap             map[string]string `yaml:"role_map"`
	Headers             map[string]string `yaml:"headers"`
	SupportsToolCalling bool              `yaml:"supports_tool_calling"`
	SupportsStreaming   bool              `yaml:"supports_streaming"`
}

// placeholderKeys are template values that count as no credential at all.
var placeholderKeys = []string{
	"sk-your-openai-key-here",
	"sk-your-api-key-here",
	"your-api-key-here",
	"xxxxxx",
}

// Registry is the immutable endpoint catalog consumed by the gateway and
// the orchestrator.
type Registry struct {
	endpoints    map[string]gateway.EndpointDescriptor
	defaultModel string
}

// Load reads YAML configuration from disk, resolves credentials from the
// environment, and builds the registry.
func Load(path string) (*Registry, Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Config{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, Config{}, fmt.Errorf("parse config file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, Config{}, err
	}

	return NewRegistry(cfg), cfg, nil
}

// Validate performs sanity checks on the configuration.
func (c Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("configuration declares no endpoints")
	}
	for key, ep := range c.Endpoints {
		if strings.TrimSpace(ep.BaseURL) == "" {
			return fmt.Errorf("endpoint %s: base_url must be provided", key)
		}
		if strings.TrimSpace(ep.ModelID) == "" {
			return fmt.Errorf("endpoint %s: model_id must be provided", key)
		}
	}
	if c.DefaultModel != "" {
		if _, ok := c.Endpoints[c.DefaultModel]; !ok {
			return fmt.Errorf("default_model %q is not a configured endpoint", c.DefaultModel)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	return nil
}

// NewRegistry builds a registry from an already-parsed configuration.
func NewRegistry(cfg Config) *Registry {
	endpoints := make(map[string]gateway.EndpointDescriptor, len(cfg.Endpoints))
	for key, ec := range cfg.Endpoints {
		roleMap := make(map[string]gateway.Role, len(ec.RoleMap))
		for from, to := range ec.RoleMap {
			roleMap[from] = gateway.Role(to)
		}
		maxRetries := -1 // transport default
		if ec.MaxRetries != nil {
			maxRetries = *ec.MaxRetries
		}
		endpoints[key] = gateway.EndpointDescriptor{
			Vendor:              ec.Vendor,
			Name:                ec.Name,
			BaseURL:             ec.BaseURL,
			APIKey:              resolveCredential(ec.APIKey),
			ModelID:             ec.ModelID,
			RoleMap:             roleMap,
			Headers:             ec.Headers,
			Timeout:             time.Duration(ec.TimeoutSeconds) * time.Second,
			MaxRetries:          maxRetries,
			SupportsToolCalling: ec.SupportsToolCalling,
			SupportsStreaming:   ec.SupportsStreaming,
		}
	}
	return &Registry{endpoints: endpoints, defaultModel: cfg.DefaultModel}
}

// resolveCredential expands ${VAR} references and discards placeholders.
func resolveCredential(raw string) string {
	key := strings.TrimSpace(os.ExpandEnv(raw))
	for _, placeholder := range placeholderKeys {
		if key == placeholder {
			return ""
		}
	}
	return key
}

// GetEndpoint returns the descriptor for a model key.
func (r *Registry) GetEndpoint(key string) (gateway.EndpointDescriptor, bool) {
	ep, ok := r.endpoints[key]
	return ep, ok
}

// IsAvailable reports whether the endpoint exists and has a credential.
func (r *Registry) IsAvailable(key string) bool {
	ep, ok := r.endpoints[key]
	return ok && ep.APIKey != ""
}

// Available returns the keys of all usable endpoints, sorted.
func (r *Registry) Available() []string {
	keys := make([]string, 0, len(r.endpoints))
	for key := range r.endpoints {
		if r.IsAvailable(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// DefaultModel returns the configured default model key, falling back to
// the first available endpoint.
func (r *Registry) DefaultModel() string {
	if r.defaultModel != "" {
		return r.defaultModel
	}
	if available := r.Available(); len(available) > 0 {
		return available[0]
	}
	return ""
}
