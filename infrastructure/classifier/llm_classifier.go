// Package classifier provides implementations of the Classifier port:
// an LLM-backed classifier for production use and a deterministic
// keyword-based classifier for offline runs and tests.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/docketlabs/go-docket/internal/domain"
	"github.com/docketlabs/go-docket/internal/ports"
)

var _ ports.Classifier = (*LLMClassifier)(nil)

// Default configuration values for the LLM classifier.
const (
	// DefaultTemperature keeps judgments near-deterministic.
	DefaultTemperature = 0.1
	// DefaultMaxTokens leaves room for a detailed rationale.
	DefaultMaxTokens = 2000
	// DefaultMaxContentChars truncates document content in the prompt so a
	// large document cannot blow the context window.
	DefaultMaxContentChars = 800
)

// jsonFormatInstruction is appended to every prompt so responses can be
// parsed reliably.
const jsonFormatInstruction = "\n\nIMPORTANT: You must respond with valid JSON in exactly this format:\n" +
	`{"matches": <true|false>, "confidence": <0.0-1.0>, "rationale": "<brief explanation>"}`

// LLMClassifier judges (requirement, document) pairs by prompting an LLM
// and parsing its structured JSON verdict. It is stateless and safe for
// concurrent use.
type LLMClassifier struct {
	// name is the unique identifier for this classifier instance.
	name string
	// config contains the validated configuration parameters.
	config Config
	// llmClient provides access to the LLM for judgment calls.
	llmClient ports.LLMClient
	// validator ensures configuration and response validation.
	validator *validator.Validate
	// promptTemplate is the compiled template for safe prompt generation.
	promptTemplate *template.Template
	// tracer emits a span per classification call.
	tracer trace.Tracer
}

// Config defines the configuration parameters for the LLMClassifier.
// All fields are validated during creation and parameter unmarshaling.
type Config struct {
	// SystemPrompt sets the model's role and strictness policy.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`

	// PromptTemplate is the Go template used to build the per-pair prompt.
	// Available placeholders: {{.RequirementName}}, {{.Description}},
	// {{.Criteria}}, {{.DocumentName}}, {{.Summary}}, {{.Content}}.
	PromptTemplate string `yaml:"prompt_template" json:"prompt_template" validate:"required,min=20"`

	// Temperature controls randomness in judgments (0.0-1.0).
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=1.0"`

	// MaxTokens limits the length of the model's response.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=8000"`

	// MaxContentChars truncates document full text in the prompt.
	// Zero means the default.
	MaxContentChars int `yaml:"max_content_chars" json:"max_content_chars" validate:"min=0"`
}

// llmJudgmentResponse is the JSON structure expected from the LLM.
type llmJudgmentResponse struct {
	// Matches reports whether the document satisfies the requirement.
	Matches bool `json:"matches"`

	// Confidence indicates how certain the model is (0.0-1.0).
	Confidence float64 `json:"confidence" validate:"min=0.0,max=1.0"`

	// Rationale is the explanation for the verdict.
	Rationale string `json:"rationale" validate:"required"`
}

// promptData carries the template substitution values for one pair.
type promptData struct {
	RequirementName string
	Description     string
	Criteria        string
	DocumentName    string
	Summary         string
	Content         string
}

// DefaultConfig returns a Config with the standard strict-matching prompt.
// False positives are costly downstream, so the system prompt instructs the
// model to err toward no-match.
func DefaultConfig() Config {
	return Config{
		SystemPrompt: "You are an expert in document analysis and compliance review. " +
			"Classify an input document against a specific document requirement.\n\n" +
			"Be strict in your matching - false positives can cause compliance issues. " +
			"Return only valid JSON with the exact structure requested.",
		PromptTemplate: `Document Requirement:
Name: {{.RequirementName}}
Description: {{.Description}}
Validation Criteria: {{.Criteria}}

Input Document:
Name: {{.DocumentName}}
Summary: {{.Summary}}
Content: {{.Content}}

Does this document satisfy the requirement?`,
		Temperature:     DefaultTemperature,
		MaxTokens:       DefaultMaxTokens,
		MaxContentChars: DefaultMaxContentChars,
	}
}

// New creates an LLMClassifier with the given configuration and client.
// Returns an error if configuration validation or template compilation
// fails.
func New(name string, llmClient ports.LLMClient, config Config) (*LLMClassifier, error) {
	if name == "" {
		return nil, fmt.Errorf("classifier name cannot be empty")
	}
	if llmClient == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}
	if config.MaxContentChars == 0 {
		config.MaxContentChars = DefaultMaxContentChars
	}

	v := validator.New()
	if err := v.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	tmpl, err := template.New("classifierPrompt").Parse(config.PromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}

	return &LLMClassifier{
		name:           name,
		config:         config,
		llmClient:      llmClient,
		validator:      v,
		promptTemplate: tmpl,
		tracer:         otel.Tracer("classifier"),
	}, nil
}

// Name returns the unique identifier for this classifier instance.
func (c *LLMClassifier) Name() string { return c.name }

// Classify prompts the LLM with one (requirement, document) pair and parses
// its JSON verdict into a Judgment. Any transport or parse failure is
// returned as an error for the engine to record; the call never panics on
// malformed model output.
func (c *LLMClassifier) Classify(ctx context.Context, req domain.Requirement, doc domain.Document) (domain.Judgment, error) {
	ctx, span := c.tracer.Start(ctx, "classifier.classify",
		trace.WithAttributes(
			attribute.String("classifier", c.name),
			attribute.String("requirement", req.Name),
			attribute.String("document", doc.Name),
			attribute.String("model", c.llmClient.GetModel()),
		),
	)
	defer span.End()

	prompt, err := c.buildPrompt(req, doc)
	if err != nil {
		span.RecordError(err)
		return domain.Judgment{}, err
	}

	options := map[string]any{
		"temperature": c.config.Temperature,
		"max_tokens":  c.config.MaxTokens,
	}
	if c.config.SystemPrompt != "" {
		options["system"] = c.config.SystemPrompt
	}

	response, err := c.llmClient.Complete(ctx, prompt, options)
	if err != nil {
		span.RecordError(err)
		return domain.Judgment{}, ports.NewLLMError(c.llmClient.GetModel(), "classify", err)
	}

	judgment, err := c.parseResponse(response)
	if err != nil {
		span.RecordError(err)
		return domain.Judgment{}, err
	}

	span.SetAttributes(
		attribute.Bool("judgment.matches", judgment.Matches),
		attribute.Float64("judgment.confidence", judgment.Confidence),
	)
	return judgment, nil
}

func (c *LLMClassifier) buildPrompt(req domain.Requirement, doc domain.Document) (string, error) {
	criteria := "No specific criteria"
	if len(req.ValidationCriteria) > 0 {
		criteria = strings.Join(req.ValidationCriteria, "; ")
	}

	content := doc.FullText
	// Truncate on a rune boundary; a byte slice could split a multi-byte
	// character and send invalid UTF-8 to the provider.
	if runes := []rune(content); len(runes) > c.config.MaxContentChars {
		content = string(runes[:c.config.MaxContentChars]) + "..."
	}

	var buf bytes.Buffer
	err := c.promptTemplate.Execute(&buf, promptData{
		RequirementName: req.Name,
		Description:     req.Description,
		Criteria:        criteria,
		DocumentName:    doc.Name,
		Summary:         doc.Summary,
		Content:         content,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String() + jsonFormatInstruction, nil
}

func (c *LLMClassifier) parseResponse(response string) (domain.Judgment, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return domain.Judgment{}, fmt.Errorf("%w: no JSON object found in response (%d chars)",
			ports.ErrInvalidResponse, len(response))
	}

	var parsed llmJudgmentResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return domain.Judgment{}, fmt.Errorf("%w: %v", ports.ErrInvalidResponse, err)
	}

	if err := c.validator.Struct(parsed); err != nil {
		return domain.Judgment{}, fmt.Errorf("%w: %v", ports.ErrInvalidResponse, err)
	}

	return domain.Judgment{
		Matches:    parsed.Matches,
		Confidence: parsed.Confidence,
		Rationale:  parsed.Rationale,
	}, nil
}

// UnmarshalParameters deserializes YAML configuration parameters and returns
// a new LLMClassifier instance with the updated configuration, keeping the
// existing instance unchanged for thread safety.
func (c *LLMClassifier) UnmarshalParameters(params yaml.Node) (*LLMClassifier, error) {
	config := c.config
	if err := params.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	return New(c.name, c.llmClient, config)
}

// extractJSON pulls a JSON object out of a response that may wrap it in
// markdown code fences or surrounding prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + len("```json")
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Scan for the matching close brace, skipping braces inside strings.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		ch := response[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return response[start : i+1]
				}
			}
		}
	}
	return ""
}
