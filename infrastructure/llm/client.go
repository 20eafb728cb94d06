// Package llm provides a unified interface for interacting with various LLM
// providers with built-in support for retries, timeouts, rate limiting, and
// metrics.
//
// The package abstracts multiple providers (OpenAI, OpenRouter, Anthropic,
// Google) behind a common interface while adding cross-cutting concerns
// through a middleware pattern, so the classifier layer can switch providers
// or add operational features without changing its code.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	})
//	response, err := client.Complete(ctx, "Classify this document...", nil)
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/docketlabs/go-docket/internal/ports"
)

// CoreLLM defines the minimal interface that LLM providers must implement.
// It abstracts the raw request to a provider so the middleware chain can
// wrap any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the response
	// text along with input and output token counts.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model used for subsequent requests.
	SetModel(model string)
}

// TokenEstimator provides pluggable token estimation strategies for cost
// estimation when exact counts are unavailable before a request.
type TokenEstimator interface {
	// EstimateTokens returns an approximate token count for the text.
	EstimateTokens(text string) int
}

// Middleware wraps a CoreLLM implementation to add cross-cutting
// functionality such as retries, timeouts, rate limiting, or metrics.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds all configuration options for creating an LLM client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model specifies which model to use for requests.
	Model string

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the default.
	BaseURL string

	// Timeout sets the maximum duration for individual requests.
	// Zero means no client-level timeout.
	Timeout time.Duration

	// TokenEstimator provides custom token counting logic.
	// If nil, a character-based estimator is used.
	TokenEstimator TokenEstimator

	// Middleware is applied in the order specified, first entry outermost.
	Middleware []Middleware
}

// Client implements ports.LLMClient by wrapping a provider-specific CoreLLM
// with the configured middleware chain.
type Client struct {
	core      CoreLLM
	estimator TokenEstimator
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient creates an LLM client for the given provider type.
// It assembles the middleware chain and validates configuration before
// returning a ready-to-use client.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", providerType, err)
	}

	// Apply middleware in reverse order so the first is the outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = &SimpleTokenEstimator{}
	}

	return &Client{core: core, estimator: estimator}, nil
}

// Complete sends a prompt to the LLM and returns the response text,
// discarding token usage information.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt to the LLM and additionally returns the
// input and output token counts for cost tracking.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens returns an approximate token count for the given text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the currently configured model name.
func (c *Client) GetModel() string { return c.core.GetModel() }

// SimpleTokenEstimator provides character-based token estimation using the
// common approximation of four characters per token for English text.
type SimpleTokenEstimator struct{}

// EstimateTokens returns an approximate token count for the text.
func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ProviderFactory creates a CoreLLM implementation from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

// providerFactories holds the registered provider constructors.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a custom LLM provider factory,
// enabling extension with additional providers without modifying the
// core package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
