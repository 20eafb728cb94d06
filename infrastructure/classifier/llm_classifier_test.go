package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/docketlabs/go-docket/internal/domain"
	"github.com/docketlabs/go-docket/internal/ports"
	"github.com/docketlabs/go-docket/internal/testutils"
)

func testRequirement() domain.Requirement {
	return domain.Requirement{
		Name:               "Commercial Invoice",
		Description:        "Signed commercial invoice covering the shipment",
		ValidationCriteria: []string{"Must be signed", "Must show LC number"},
	}
}

func testDocument() domain.Document {
	return domain.Document{
		Name:     "invoice.pdf",
		Summary:  "Commercial invoice for shipment of goods",
		FullText: "COMMERCIAL INVOICE\nInvoice No. 12345\nSigned: J. Smith",
	}
}

func TestNewValidation(t *testing.T) {
	client := testutils.NewMockLLMClient("test-model")

	tests := []struct {
		name      string
		unitName  string
		client    ports.LLMClient
		mutate    func(*Config)
		wantError string
	}{
		{
			name:     "valid default config",
			unitName: "llm-classifier",
			client:   client,
			mutate:   func(*Config) {},
		},
		{
			name:      "empty name",
			client:    client,
			mutate:    func(*Config) {},
			wantError: "name cannot be empty",
		},
		{
			name:      "nil client",
			unitName:  "llm-classifier",
			mutate:    func(*Config) {},
			wantError: "client cannot be nil",
		},
		{
			name:      "missing prompt template",
			unitName:  "llm-classifier",
			client:    client,
			mutate:    func(c *Config) { c.PromptTemplate = "" },
			wantError: "validation failed",
		},
		{
			name:      "temperature out of range",
			unitName:  "llm-classifier",
			client:    client,
			mutate:    func(c *Config) { c.Temperature = 1.5 },
			wantError: "validation failed",
		},
		{
			name:      "max tokens too small",
			unitName:  "llm-classifier",
			client:    client,
			mutate:    func(c *Config) { c.MaxTokens = 10 },
			wantError: "validation failed",
		},
		{
			name:      "malformed template",
			unitName:  "llm-classifier",
			client:    client,
			mutate:    func(c *Config) { c.PromptTemplate = "Requirement: {{.RequirementName" },
			wantError: "failed to parse prompt template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			clf, err := New(tt.unitName, tt.client, cfg)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.unitName, clf.Name())
		})
	}
}

func TestClassifyParsesJudgment(t *testing.T) {
	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{
		Pattern:  "Commercial Invoice",
		Response: `{"matches": true, "confidence": 0.92, "rationale": "signed invoice with LC number"}`,
	})

	clf, err := New("llm-classifier", client, DefaultConfig())
	require.NoError(t, err)

	judgment, err := clf.Classify(context.Background(), testRequirement(), testDocument())
	require.NoError(t, err)

	assert.True(t, judgment.Matches)
	assert.InDelta(t, 0.92, judgment.Confidence, 1e-9)
	assert.Equal(t, "signed invoice with LC number", judgment.Rationale)
}

func TestClassifyPromptContents(t *testing.T) {
	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{
		Pattern:  "Commercial Invoice",
		Response: `{"matches": false, "confidence": 0.3, "rationale": "no"}`,
	})

	clf, err := New("llm-classifier", client, DefaultConfig())
	require.NoError(t, err)

	_, err = clf.Classify(context.Background(), testRequirement(), testDocument())
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 1)
	prompt := calls[0]

	assert.Contains(t, prompt, "Name: Commercial Invoice")
	assert.Contains(t, prompt, "Must be signed; Must show LC number")
	assert.Contains(t, prompt, "Name: invoice.pdf")
	assert.Contains(t, prompt, "COMMERCIAL INVOICE")
	assert.Contains(t, prompt, `"matches"`)
}

func TestClassifyNoCriteriaPlaceholder(t *testing.T) {
	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{
		Pattern:  "Packing List",
		Response: `{"matches": false, "confidence": 0.2, "rationale": "no"}`,
	})

	clf, err := New("llm-classifier", client, DefaultConfig())
	require.NoError(t, err)

	req := domain.Requirement{Name: "Packing List"}
	_, err = clf.Classify(context.Background(), req, testDocument())
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "No specific criteria")
}

func TestClassifyTruncatesContent(t *testing.T) {
	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{
		Pattern:  "Commercial Invoice",
		Response: `{"matches": true, "confidence": 0.9, "rationale": "ok"}`,
	})

	cfg := DefaultConfig()
	cfg.MaxContentChars = 50

	clf, err := New("llm-classifier", client, cfg)
	require.NoError(t, err)

	doc := testDocument()
	doc.FullText = strings.Repeat("x", 500)

	_, err = clf.Classify(context.Background(), testRequirement(), doc)
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], strings.Repeat("x", 50)+"...")
	assert.NotContains(t, calls[0], strings.Repeat("x", 51))
}

func TestClassifyTruncationKeepsRuneBoundary(t *testing.T) {
	client := testutils.NewMockLLMClient("test-model")
	client.AddResponse(testutils.MockResponse{
		Pattern:  "Commercial Invoice",
		Response: `{"matches": true, "confidence": 0.9, "rationale": "ok"}`,
	})

	cfg := DefaultConfig()
	cfg.MaxContentChars = 10

	clf, err := New("llm-classifier", client, cfg)
	require.NoError(t, err)

	doc := testDocument()
	doc.FullText = strings.Repeat("通", 25)

	_, err = clf.Classify(context.Background(), testRequirement(), doc)
	require.NoError(t, err)

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.True(t, utf8.ValidString(calls[0]))
	assert.Contains(t, calls[0], strings.Repeat("通", 10)+"...")
	assert.NotContains(t, calls[0], strings.Repeat("通", 11))
}

func TestClassifyResponseFormats(t *testing.T) {
	tests := []struct {
		name     string
		response string
		matches  bool
		conf     float64
	}{
		{
			name:     "bare JSON",
			response: `{"matches": true, "confidence": 0.8, "rationale": "match"}`,
			matches:  true,
			conf:     0.8,
		},
		{
			name: "fenced JSON",
			response: "```json\n" +
				`{"matches": true, "confidence": 0.7, "rationale": "fenced"}` +
				"\n```",
			matches: true,
			conf:    0.7,
		},
		{
			name: "JSON embedded in prose",
			response: "Based on my analysis, the verdict is:\n" +
				`{"matches": false, "confidence": 0.4, "rationale": "weak evidence"}` +
				"\nLet me know if you need more detail.",
			matches: false,
			conf:    0.4,
		},
		{
			name:     "braces inside rationale string",
			response: `{"matches": true, "confidence": 0.9, "rationale": "contains {braces} and \"quotes\""}`,
			matches:  true,
			conf:     0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutils.NewMockLLMClient("test-model")
			client.AddResponse(testutils.MockResponse{Pattern: "Commercial Invoice", Response: tt.response})

			clf, err := New("llm-classifier", client, DefaultConfig())
			require.NoError(t, err)

			judgment, err := clf.Classify(context.Background(), testRequirement(), testDocument())
			require.NoError(t, err)
			assert.Equal(t, tt.matches, judgment.Matches)
			assert.InDelta(t, tt.conf, judgment.Confidence, 1e-9)
		})
	}
}

func TestClassifyInvalidResponses(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "no JSON at all", response: "I cannot classify this document."},
		{name: "malformed JSON", response: `{"matches": true, "confidence":`},
		{name: "confidence out of range", response: `{"matches": true, "confidence": 1.5, "rationale": "too sure"}`},
		{name: "missing rationale", response: `{"matches": true, "confidence": 0.9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutils.NewMockLLMClient("test-model")
			client.AddResponse(testutils.MockResponse{Pattern: "Commercial Invoice", Response: tt.response})

			clf, err := New("llm-classifier", client, DefaultConfig())
			require.NoError(t, err)

			_, err = clf.Classify(context.Background(), testRequirement(), testDocument())
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrInvalidResponse)
		})
	}
}

func TestClassifyClientFailure(t *testing.T) {
	client := testutils.NewMockLLMClient("test-model")
	client.FailWith(errors.New("connection refused"))

	clf, err := New("llm-classifier", client, DefaultConfig())
	require.NoError(t, err)

	_, err = clf.Classify(context.Background(), testRequirement(), testDocument())
	require.Error(t, err)

	var llmErr *ports.LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, "test-model", llmErr.Model)
	assert.Equal(t, "classify", llmErr.Operation)
}

func TestUnmarshalParameters(t *testing.T) {
	client := testutils.NewMockLLMClient("test-model")
	base, err := New("llm-classifier", client, DefaultConfig())
	require.NoError(t, err)

	t.Run("overrides are applied to a new instance", func(t *testing.T) {
		var params yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("temperature: 0.4\nmax_tokens: 1000\nmax_content_chars: 400\n"), &params))

		updated, err := base.UnmarshalParameters(params)
		require.NoError(t, err)

		assert.Equal(t, 0.4, updated.config.Temperature)
		assert.Equal(t, 1000, updated.config.MaxTokens)
		assert.Equal(t, 400, updated.config.MaxContentChars)

		// Unset fields keep their previous values and the original
		// instance is untouched.
		assert.Equal(t, DefaultConfig().PromptTemplate, updated.config.PromptTemplate)
		assert.Equal(t, DefaultTemperature, base.config.Temperature)
	})

	t.Run("decode failure", func(t *testing.T) {
		var params yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("temperature: [not, a, number]\n"), &params))

		_, err := base.UnmarshalParameters(params)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode parameters")
	})

	t.Run("invalid resulting config", func(t *testing.T) {
		var params yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("max_tokens: 10\n"), &params))

		_, err := base.UnmarshalParameters(params)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "plain object",
			response: `{"a": 1}`,
			want:     `{"a": 1}`,
		},
		{
			name:     "nested object",
			response: `prefix {"a": {"b": 2}} suffix`,
			want:     `{"a": {"b": 2}}`,
		},
		{
			name:     "unterminated object",
			response: `{"a": 1`,
			want:     "",
		},
		{
			name:     "no object",
			response: "nothing here",
			want:     "",
		},
		{
			name:     "fence takes priority",
			response: "```json\n{\"a\": 1}\n```\n{\"b\": 2}",
			want:     `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.response))
		})
	}
}
