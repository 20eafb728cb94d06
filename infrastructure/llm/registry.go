package llm

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/docketlabs/go-docket/internal/ports"
)

// Registry manages clients for multiple LLM providers behind a single
// lookup keyed by "provider/model". It resolves API keys from the
// environment, creates clients lazily, and caches them for reuse, so the
// application layer can route a configured model spec straight to a client.
type Registry struct {
	providers         map[string]ProviderConfig
	clients           map[string]ports.LLMClient
	defaultProvider   string
	defaultMiddleware []Middleware
	defaultTimeout    time.Duration
	mu                sync.RWMutex
}

// ProviderConfig holds provider-specific configuration, overriding registry
// defaults for that provider.
type ProviderConfig struct {
	// Type specifies the provider implementation (openai, openrouter,
	// anthropic, google).
	Type string
	// EnvVar names the environment variable holding the API key.
	EnvVar string
	// DefaultModel is used when a spec names only the provider.
	DefaultModel string
	// BaseURL overrides the provider's default API endpoint.
	BaseURL string
	// Middleware specifies provider-specific middleware, replacing the
	// registry default when non-nil.
	Middleware []Middleware
}

// RegistryConfig holds configuration for the provider registry.
type RegistryConfig struct {
	// Providers defines the available providers.
	Providers map[string]ProviderConfig
	// DefaultProvider is used when no provider is specified.
	DefaultProvider string
	// DefaultTimeout sets the request timeout applied to all providers.
	DefaultTimeout time.Duration
	// DefaultMiddleware is applied to all providers unless overridden.
	DefaultMiddleware []Middleware
}

// DefaultProviders provides standard provider configurations. Applications
// can use this as a starting point and override specific settings.
var DefaultProviders = map[string]ProviderConfig{
	"openai": {
		Type:         "openai",
		EnvVar:       "OPENAI_API_KEY",
		DefaultModel: OpenAIDefaultModel,
	},
	"openrouter": {
		Type:         "openrouter",
		EnvVar:       "OPENROUTER_API_KEY",
		DefaultModel: OpenRouterDefaultModel,
	},
	"anthropic": {
		Type:         "anthropic",
		EnvVar:       "ANTHROPIC_API_KEY",
		DefaultModel: AnthropicDefaultModel,
	},
	"google": {
		Type:         "google",
		EnvVar:       "GOOGLE_API_KEY",
		DefaultModel: GoogleDefaultModel,
	},
}

// NewRegistry creates a provider registry.
func NewRegistry(config RegistryConfig) (*Registry, error) {
	if config.DefaultProvider == "" {
		return nil, fmt.Errorf("default provider cannot be empty")
	}
	if _, exists := config.Providers[config.DefaultProvider]; !exists {
		return nil, fmt.Errorf("default provider %q not found in providers configuration", config.DefaultProvider)
	}

	return &Registry{
		providers:         config.Providers,
		clients:           make(map[string]ports.LLMClient),
		defaultProvider:   config.DefaultProvider,
		defaultMiddleware: config.DefaultMiddleware,
		defaultTimeout:    config.DefaultTimeout,
	}, nil
}

// GetDefaultClient returns a client for the default provider and its
// default model.
func (r *Registry) GetDefaultClient() (ports.LLMClient, error) {
	providerConfig, exists := r.providers[r.defaultProvider]
	if !exists {
		return nil, fmt.Errorf("default provider %q not found in configuration", r.defaultProvider)
	}
	return r.GetClient(r.defaultProvider + "/" + providerConfig.DefaultModel)
}

// GetClient retrieves a client by spec: "provider" uses the provider's
// default model, "provider/model" pins a model. OpenRouter model names
// themselves contain a slash ("google/gemini-2.0-flash-001"), so everything
// after the first separator is the model. Clients are created lazily and
// cached.
func (r *Registry) GetClient(spec string) (ports.LLMClient, error) {
	if spec == "" {
		return nil, fmt.Errorf("provider specification cannot be empty")
	}

	provider, model := r.parseSpec(spec)
	key := provider + "/" + model

	r.mu.RLock()
	if client, exists := r.clients[key]; exists {
		r.mu.RUnlock()
		return client, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if client, exists := r.clients[key]; exists {
		return client, nil
	}

	client, err := r.createClient(provider, model)
	if err != nil {
		return nil, err
	}
	r.clients[key] = client
	return client, nil
}

func (r *Registry) parseSpec(spec string) (provider, model string) {
	provider, model, found := strings.Cut(spec, "/")
	if _, known := r.providers[provider]; !known {
		// Bare model name: route to the default provider.
		return r.defaultProvider, spec
	}
	if !found || model == "" {
		model = r.providers[provider].DefaultModel
	}
	return provider, model
}

func (r *Registry) createClient(provider, model string) (ports.LLMClient, error) {
	providerConfig, exists := r.providers[provider]
	if !exists {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	apiKey := os.Getenv(providerConfig.EnvVar)
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key: set %s", providerConfig.EnvVar)
	}

	middleware := providerConfig.Middleware
	if middleware == nil {
		middleware = r.defaultMiddleware
	}

	return NewClient(providerConfig.Type, ClientConfig{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    providerConfig.BaseURL,
		Timeout:    r.defaultTimeout,
		Middleware: middleware,
	})
}
