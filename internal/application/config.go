// Package application wires the classification engine to its
// infrastructure: configuration loading, provider selection, and the
// top-level run entry point.
package application

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variable names for the configuration surface.
const (
	EnvModel               = "CLASSIFICATION_MODEL"
	EnvTemperature         = "CLASSIFICATION_TEMPERATURE"
	EnvMaxTokens           = "CLASSIFICATION_MAX_TOKENS"
	EnvConfidenceThreshold = "CONFIDENCE_THRESHOLD"
	EnvHighConfidence      = "HIGH_CONFIDENCE_THRESHOLD"
	EnvBatchSize           = "BATCH_SIZE"
	EnvMaxRetries          = "MAX_RETRIES"
	EnvRequestTimeout      = "REQUEST_TIMEOUT"
	EnvRequestsPerSecond   = "REQUESTS_PER_SECOND"
)

// Config is the process-wide configuration for a classification run.
// It is read once at startup and treated as read-only afterwards.
type Config struct {
	// Model selects the LLM as "provider/model" (e.g. "google/gemini-2.0-flash",
	// "openrouter/google/gemini-2.0-flash-001"). The identifier is opaque
	// to the engine.
	Model string `validate:"required"`

	// Temperature controls randomness of classifier judgments.
	Temperature float64 `validate:"min=0.0,max=1.0"`

	// MaxTokens limits the length of each classifier response.
	MaxTokens int `validate:"min=50,max=8000"`

	// ConfidenceThreshold is the inclusive minimum confidence for a match.
	ConfidenceThreshold float64 `validate:"gt=0.0,max=1.0"`

	// HighConfidenceThreshold bounds the high diagnostic tier.
	HighConfidenceThreshold float64 `validate:"gt=0.0,max=1.0"`

	// BatchSize is the number of documents per classifier invocation.
	// The classifier judges pairs individually, so this is fixed at 1;
	// the knob exists for configuration-surface compatibility.
	BatchSize int `validate:"min=1"`

	// MaxRetries is the retry attempt count for transient LLM failures.
	MaxRetries int `validate:"min=0,max=10"`

	// RequestTimeout bounds each individual classifier call.
	RequestTimeout time.Duration `validate:"min=1s"`

	// RequestsPerSecond paces LLM calls so sustained runs stay inside
	// provider rate limits.
	RequestsPerSecond float64 `validate:"gt=0.0"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Model:                   "google/gemini-2.0-flash",
		Temperature:             0.1,
		MaxTokens:               2000,
		ConfidenceThreshold:     0.5,
		HighConfidenceThreshold: 0.8,
		BatchSize:               1,
		MaxRetries:              3,
		RequestTimeout:          60 * time.Second,
		RequestsPerSecond:       2,
	}
}

// LoadConfig reads the configuration from the environment, applying
// defaults for unset variables, and validates the result. Malformed values
// are reported, not silently defaulted.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvModel); v != "" {
		cfg.Model = v
	}
	if err := parseFloat(EnvTemperature, &cfg.Temperature); err != nil {
		return Config{}, err
	}
	if err := parseInt(EnvMaxTokens, &cfg.MaxTokens); err != nil {
		return Config{}, err
	}
	if err := parseFloat(EnvConfidenceThreshold, &cfg.ConfidenceThreshold); err != nil {
		return Config{}, err
	}
	if err := parseFloat(EnvHighConfidence, &cfg.HighConfidenceThreshold); err != nil {
		return Config{}, err
	}
	if err := parseInt(EnvBatchSize, &cfg.BatchSize); err != nil {
		return Config{}, err
	}
	if err := parseInt(EnvMaxRetries, &cfg.MaxRetries); err != nil {
		return Config{}, err
	}
	if err := parseFloat(EnvRequestsPerSecond, &cfg.RequestsPerSecond); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(EnvRequestTimeout); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.HighConfidenceThreshold < c.ConfidenceThreshold {
		return fmt.Errorf("invalid configuration: high confidence threshold %.2f below confidence threshold %.2f",
			c.HighConfidenceThreshold, c.ConfidenceThreshold)
	}
	return nil
}

func parseFloat(env string, dst *float64) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", env, err)
	}
	*dst = parsed
	return nil
}

func parseInt(env string, dst *int) error {
	v := os.Getenv(env)
	if v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", env, err)
	}
	*dst = parsed
	return nil
}
