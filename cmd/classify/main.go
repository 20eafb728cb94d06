// Command classify runs the document classification workflow from the
// command line: it reads requirements and documents from JSON files,
// executes the full pipeline, and writes the final output as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docketlabs/go-docket/infrastructure/classifier"
	"github.com/docketlabs/go-docket/infrastructure/middleware"
	"github.com/docketlabs/go-docket/internal/application"
	"github.com/docketlabs/go-docket/internal/domain"
	"github.com/docketlabs/go-docket/internal/engine"
	"github.com/docketlabs/go-docket/internal/ports"
)

func main() {
	var (
		requirementsPath = flag.String("requirements", "", "Path to JSON file with requirements (or an extraction result)")
		documentsPath    = flag.String("documents", "", "Path to JSON file with documents")
		outputPath       = flag.String("output", "", "Output file path (default stdout)")
		classifierKind   = flag.String("classifier", "llm", "Classifier backend: llm or keyword")
		metricsAddr      = flag.String("metrics-listen", "", "Serve Prometheus metrics on this address (e.g. :9090)")
		verbose          = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	if *requirementsPath == "" || *documentsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := buildLogger(*verbose)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	requirements, err := loadRequirements(*requirementsPath)
	if err != nil {
		logger.Fatal("Failed to load requirements", zap.Error(err))
	}
	documents, err := loadDocuments(*documentsPath)
	if err != nil {
		logger.Fatal("Failed to load documents", zap.Error(err))
	}

	if verr := domain.ValidateDocuments(documents); verr != nil {
		for _, msg := range verr.Errors {
			logger.Warn("Document validation issue", zap.String("issue", msg))
		}
	}

	cfg, err := application.LoadConfig()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	var metrics ports.MetricsCollector
	if *metricsAddr != "" {
		metrics = middleware.NewPrometheusMetrics(prometheus.DefaultRegisterer)
		serveMetrics(*metricsAddr, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	output, err := run(ctx, *classifierKind, requirements, documents, cfg, logger, metrics)
	if err != nil {
		logger.Fatal("Classification run failed", zap.Error(err))
	}

	if err := writeOutput(*outputPath, output); err != nil {
		logger.Fatal("Failed to write output", zap.Error(err))
	}

	logger.Info("Classification complete",
		zap.Int("requirements", output.TotalRequirements),
		zap.Int("documents", output.TotalDocuments),
		zap.Int("errors", len(output.Errors)))
}

func run(ctx context.Context, kind string, requirements []domain.Requirement, documents []domain.Document, cfg application.Config, logger *zap.Logger, metrics ports.MetricsCollector) (domain.FinalOutput, error) {
	switch kind {
	case "llm":
		return application.RunClassificationWith(ctx, requirements, documents, cfg, logger, metrics)
	case "keyword":
		clf, err := classifier.NewKeyword("keyword-classifier", classifier.KeywordConfig{})
		if err != nil {
			return domain.FinalOutput{}, err
		}
		opts := []engine.Option{engine.WithLogger(logger)}
		if metrics != nil {
			opts = append(opts, engine.WithMetrics(metrics))
		}
		eng, err := engine.New(clf, engine.Config{
			ConfidenceThreshold:     cfg.ConfidenceThreshold,
			HighConfidenceThreshold: cfg.HighConfidenceThreshold,
		}, opts...)
		if err != nil {
			return domain.FinalOutput{}, err
		}
		return eng.Run(ctx, requirements, documents), nil
	default:
		return domain.FinalOutput{}, fmt.Errorf("unknown classifier %q (want llm or keyword)", kind)
	}
}

// serveMetrics exposes the Prometheus scrape endpoint for the duration of
// the run. Serve errors are logged, not fatal; metrics are auxiliary.
func serveMetrics(addr string, logger *zap.Logger) {
	server := &http.Server{
		Addr:              addr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("Metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("Serving metrics", zap.String("addr", addr))
}

// loadRequirements accepts either a JSON array of requirements or a full
// extraction result object carrying a DOCUMENTS_REQUIRED list.
func loadRequirements(path string) ([]domain.Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var requirements []domain.Requirement
	if err := json.Unmarshal(data, &requirements); err == nil {
		return requirements, nil
	}

	var extraction map[string]any
	if err := json.Unmarshal(data, &extraction); err != nil {
		return nil, fmt.Errorf("file %s is neither a requirement list nor an extraction result: %w", path, err)
	}
	return application.RequirementsFromExtraction(extraction), nil
}

func loadDocuments(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var documents []domain.Document
	if err := json.Unmarshal(data, &documents); err != nil {
		return nil, fmt.Errorf("failed to parse documents from %s: %w", path, err)
	}
	return documents, nil
}

func writeOutput(path string, output domain.FinalOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
