// Package testutils provides deterministic test doubles for the
// classification pipeline: a pattern-matching LLM client and a scripted
// classifier.
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/docketlabs/go-docket/internal/ports"
)

// MockLLMClient implements the LLMClient interface with deterministic
// responses for consistent testing and development workflows.
// It returns pre-defined judgment payloads based on prompt substring
// matching, so tests can script different outcomes per document without
// touching a real provider.
type MockLLMClient struct {
	mu sync.Mutex

	// model is the mock model identifier.
	model string
	// responses maps prompt patterns to pre-defined responses, checked in
	// registration order.
	responses []MockResponse
	// calls records every prompt seen, for assertion in tests.
	calls []string
	// err, when set, is returned from every Complete call.
	err error
}

// MockResponse defines a pre-configured response pattern for the mock client.
type MockResponse struct {
	// Pattern is matched against prompts (case-insensitive substring).
	// An empty pattern matches everything and acts as the default.
	Pattern string
	// Response is the text returned for matching prompts.
	Response string
}

// NewMockLLMClient creates a MockLLMClient with a default negative judgment
// response. Tests layer scenario-specific patterns on top with AddResponse.
func NewMockLLMClient(model string) *MockLLMClient {
	client := &MockLLMClient{model: model}
	client.AddResponse(MockResponse{
		Pattern:  "",
		Response: `{"matches": false, "confidence": 0.1, "rationale": "default mock judgment"}`,
	})
	return client
}

// AddResponse registers a response pattern. Later registrations take
// priority over earlier ones, so tests can override the default.
func (m *MockLLMClient) AddResponse(response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append([]MockResponse{response}, m.responses...)
}

// FailWith makes every subsequent Complete call return the given error.
func (m *MockLLMClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Complete implements LLMClient.Complete with deterministic pattern-based
// responses. Identical inputs always produce identical outputs.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, _ map[string]any) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, prompt)

	if m.err != nil {
		return "", m.err
	}

	promptLower := strings.ToLower(prompt)
	for _, r := range m.responses {
		if r.Pattern == "" || strings.Contains(promptLower, strings.ToLower(r.Pattern)) {
			return r.Response, nil
		}
	}
	return "", fmt.Errorf("no mock response configured for prompt")
}

// EstimateTokens approximates token usage at four characters per token,
// matching the production estimator closely enough for budget assertions.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	tokens := len(text) / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens, nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string { return m.model }

// Calls returns a copy of every prompt the client has seen.
func (m *MockLLMClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

var _ ports.LLMClient = (*MockLLMClient)(nil)
