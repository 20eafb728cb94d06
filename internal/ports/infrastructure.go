package ports

import (
	"context"
	"time"

	"github.com/docketlabs/go-docket/internal/domain"
)

// LLMClient defines the interface for interacting with Large Language
// Model providers.
// Implementations handle provider-specific details like authentication,
// request formatting, and response parsing.
type LLMClient interface {
	// Complete sends a completion request to the LLM provider and returns
	// the generated text. Implementations handle rate limiting, retries,
	// and timeouts behind this call.
	//
	// The options map allows flexibility for different providers without
	// changing the interface. Common options include:
	//   - "temperature": float64 (0.0-1.0)
	//   - "max_tokens": int
	//   - "system": string (system prompt)
	//   - "model": string (specific model version)
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens calculates the approximate token count for a given
	// text, for cost estimation and staying within model limits.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier being used by this client.
	GetModel() string
}

// CheckpointStore persists workflow state snapshots between stage
// transitions so an interrupted run can be resumed or inspected.
// Implementations could use memory, files, or a database. Checkpointing is
// optional; the engine works identically without a store.
type CheckpointStore interface {
	// Save stores a snapshot of the state under the given run ID,
	// replacing any previous snapshot for that run.
	Save(ctx context.Context, runID string, state *domain.WorkflowState) error

	// Load retrieves the latest snapshot for the run.
	// The second return value is false when no snapshot exists.
	Load(ctx context.Context, runID string) (*domain.WorkflowState, bool, error)

	// Delete removes the snapshot for the run.
	// Returns nil if no snapshot exists.
	Delete(ctx context.Context, runID string) error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
