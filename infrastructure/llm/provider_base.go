package llm

import "sync"

// Default request parameter values shared across providers.
const (
	// DefaultMaxTokens bounds response length when the caller does not
	// specify one.
	DefaultMaxTokens = 2000
)

// BaseProvider provides common, thread-safe functionality for all LLM
// providers, primarily model name management.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the currently configured model name.
// It is safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name for the provider.
// It is safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions represents a standardized set of request parameters
// consolidated across providers.
type RequestOptions struct {
	// MaxTokens specifies the maximum number of tokens to generate.
	MaxTokens int
	// Model is the model identifier for this request.
	Model string
	// Temperature controls output randomness. Nil means provider default.
	Temperature *float64
	// System provides instructions guiding the model's behavior.
	System string
}

// ParseRequestOptions extracts and validates request parameters from an
// options map, substituting defaults for missing or invalid entries.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: extractInt(opts, "max_tokens", DefaultMaxTokens),
		Model:     extractString(opts, "model", defaultModel),
		System:    extractString(opts, "system", ""),
	}
	if temp, ok := extractFloat(opts, "temperature"); ok && temp >= 0 && temp <= 2 {
		options.Temperature = &temp
	}
	return options
}

func extractInt(opts map[string]any, key string, defaultVal int) int {
	if v, ok := opts[key].(int); ok && v > 0 {
		return v
	}
	return defaultVal
}

func extractString(opts map[string]any, key, defaultVal string) string {
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return defaultVal
}

func extractFloat(opts map[string]any, key string) (float64, bool) {
	v, ok := opts[key].(float64)
	return v, ok
}

// TokenCounter estimates token counts from text when an exact tokenizer is
// not available for a model.
type TokenCounter struct {
	// CharactersPerToken is the average characters-per-token ratio used
	// for estimation.
	CharactersPerToken float64
}

// NewTokenCounter creates a TokenCounter with a ratio suitable for English
// text.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens calculates an estimated token count for the text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount returns the actual count when the API reported one,
// falling back to estimation otherwise.
func (tc *TokenCounter) GetTokenCount(actualCount int, text string) int {
	if actualCount > 0 {
		return actualCount
	}
	return tc.EstimateTokens(text)
}
