// Package ports defines the core interfaces that form the contract between
// the domain/engine layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the engine testable
// with deterministic fakes substituting for network calls.
package ports

import (
	"context"

	"github.com/docketlabs/go-docket/internal/domain"
)

// Classifier is the capability the workflow engine depends on: given one
// requirement and one document, produce a judgment. Implementations wrap the
// language-model call; from the engine's perspective the call is a pure
// function that either returns a judgment or fails.
//
// Timeouts and retries are the implementation's responsibility and surface
// to the engine as ordinary errors. The engine invokes Classify strictly
// sequentially, but implementations should still be safe for concurrent use
// so they can be shared across engines.
type Classifier interface {
	// Name returns a stable identifier for this classifier,
	// used in logging and diagnostics.
	Name() string

	// Classify judges whether the document satisfies the requirement.
	// The returned judgment's DocumentName and Tier fields may be left
	// empty; the engine annotates them.
	//
	// A non-nil error means the pair could not be judged (transport
	// failure, timeout, unparseable response). The engine recovers by
	// treating the document as non-matching and recording the error;
	// one failing document never blocks the rest of the pipeline.
	Classify(ctx context.Context, req domain.Requirement, doc domain.Document) (domain.Judgment, error)
}
