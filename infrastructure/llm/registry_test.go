package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()

	core := &fakeCore{model: "m", results: []fakeResult{{response: "ok"}}}
	providerType := registerFakeProvider(t, core)

	registry, err := NewRegistry(RegistryConfig{
		Providers: map[string]ProviderConfig{
			"primary": {
				Type:         providerType,
				EnvVar:       "TEST_PRIMARY_API_KEY",
				DefaultModel: "primary-default",
			},
			"secondary": {
				Type:         providerType,
				EnvVar:       "TEST_SECONDARY_API_KEY",
				DefaultModel: "secondary-default",
			},
		},
		DefaultProvider: "primary",
	})
	require.NoError(t, err)
	return registry
}

func TestNewRegistryValidation(t *testing.T) {
	_, err := NewRegistry(RegistryConfig{Providers: DefaultProviders})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default provider cannot be empty")

	_, err = NewRegistry(RegistryConfig{
		Providers:       DefaultProviders,
		DefaultProvider: "nonexistent",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRegistryGetClient(t *testing.T) {
	t.Setenv("TEST_PRIMARY_API_KEY", "key")
	registry := testRegistry(t)

	client, err := registry.GetClient("primary/some-model")
	require.NoError(t, err)
	require.NotNil(t, client)

	response, err := client.Complete(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", response)
}

func TestRegistryGetClientCaches(t *testing.T) {
	t.Setenv("TEST_PRIMARY_API_KEY", "key")
	registry := testRegistry(t)

	first, err := registry.GetClient("primary/some-model")
	require.NoError(t, err)
	second, err := registry.GetClient("primary/some-model")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := registry.GetClient("primary/other-model")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestRegistryGetClientMissingAPIKey(t *testing.T) {
	t.Setenv("TEST_SECONDARY_API_KEY", "")
	registry := testRegistry(t)

	_, err := registry.GetClient("secondary/some-model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEST_SECONDARY_API_KEY")
}

func TestRegistryGetClientEmptySpec(t *testing.T) {
	registry := testRegistry(t)

	_, err := registry.GetClient("")
	assert.Error(t, err)
}

func TestRegistryParseSpec(t *testing.T) {
	registry := testRegistry(t)

	tests := []struct {
		spec         string
		wantProvider string
		wantModel    string
	}{
		{"primary", "primary", "primary-default"},
		{"primary/gpt-x", "primary", "gpt-x"},
		// OpenRouter-style model names keep their internal slash.
		{"secondary/google/gemini-2.0-flash-001", "secondary", "google/gemini-2.0-flash-001"},
		// Bare model names route to the default provider.
		{"some-model", "primary", "some-model"},
		{"google/gemini-2.0-flash", "primary", "google/gemini-2.0-flash"},
	}

	for _, tt := range tests {
		provider, model := registry.parseSpec(tt.spec)
		assert.Equal(t, tt.wantProvider, provider, "spec %q", tt.spec)
		assert.Equal(t, tt.wantModel, model, "spec %q", tt.spec)
	}
}

func TestRegistryGetDefaultClient(t *testing.T) {
	t.Setenv("TEST_PRIMARY_API_KEY", "key")
	registry := testRegistry(t)

	client, err := registry.GetDefaultClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
}
