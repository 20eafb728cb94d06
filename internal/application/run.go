package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/docketlabs/go-docket/infrastructure/classifier"
	"github.com/docketlabs/go-docket/infrastructure/llm"
	"github.com/docketlabs/go-docket/internal/domain"
	"github.com/docketlabs/go-docket/internal/engine"
	"github.com/docketlabs/go-docket/internal/ports"
)

// RunClassification is the top-level synchronous entry point: it assembles
// an LLM-backed classifier from the configuration and runs the full
// workflow over the given requirements and documents.
//
// A returned error means the run could not be assembled (invalid
// configuration, missing API key). Once the engine starts, all recoverable
// failures land in the FinalOutput's error list instead.
func RunClassification(ctx context.Context, requirements []domain.Requirement, documents []domain.Document, cfg Config) (domain.FinalOutput, error) {
	return RunClassificationWith(ctx, requirements, documents, cfg, nil, nil)
}

// RunClassificationWith behaves like RunClassification but accepts optional
// collaborators: a logger and a metrics collector. Nil values disable the
// respective concern.
func RunClassificationWith(ctx context.Context, requirements []domain.Requirement, documents []domain.Document, cfg Config, logger *zap.Logger, metrics ports.MetricsCollector) (domain.FinalOutput, error) {
	if err := cfg.Validate(); err != nil {
		return domain.FinalOutput{}, err
	}

	clf, err := BuildClassifier(cfg, metrics)
	if err != nil {
		return domain.FinalOutput{}, err
	}

	eng, err := engine.New(clf, engine.Config{
		ConfidenceThreshold:     cfg.ConfidenceThreshold,
		HighConfidenceThreshold: cfg.HighConfidenceThreshold,
	}, buildEngineOptions(logger, metrics)...)
	if err != nil {
		return domain.FinalOutput{}, err
	}

	return eng.Run(ctx, requirements, documents), nil
}

// BuildClassifier constructs the production LLM classifier for the given
// configuration: provider registry → middleware-wrapped client →
// prompt-based classifier. The optional metrics collector is attached to
// the client's middleware chain.
func BuildClassifier(cfg Config, metrics ports.MetricsCollector) (ports.Classifier, error) {
	// Rate limiting sits inside the retry layer so retried attempts are
	// paced too.
	middleware := []llm.Middleware{
		llm.RetryMiddleware(cfg.MaxRetries, 500*time.Millisecond, 30*time.Second),
		llm.RateLimitMiddleware(rate.Limit(cfg.RequestsPerSecond), 1),
		llm.TimeoutMiddleware(cfg.RequestTimeout),
	}
	if metrics != nil {
		middleware = append([]llm.Middleware{llm.MetricsMiddleware(metrics)}, middleware...)
	}

	registry, err := llm.NewRegistry(llm.RegistryConfig{
		Providers:         llm.DefaultProviders,
		DefaultProvider:   "google",
		DefaultTimeout:    cfg.RequestTimeout,
		DefaultMiddleware: middleware,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build provider registry: %w", err)
	}

	client, err := registry.GetClient(cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve model %q: %w", cfg.Model, err)
	}

	classifierCfg := classifier.DefaultConfig()
	classifierCfg.Temperature = cfg.Temperature
	classifierCfg.MaxTokens = cfg.MaxTokens

	return classifier.New("llm-classifier", client, classifierCfg)
}

func buildEngineOptions(logger *zap.Logger, metrics ports.MetricsCollector) []engine.Option {
	var opts []engine.Option
	if logger != nil {
		opts = append(opts, engine.WithLogger(logger))
	}
	if metrics != nil {
		opts = append(opts, engine.WithMetrics(metrics))
	}
	return opts
}
