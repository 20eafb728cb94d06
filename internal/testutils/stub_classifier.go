package testutils

import (
	"context"
	"sync"

	"github.com/docketlabs/go-docket/internal/domain"
	"github.com/docketlabs/go-docket/internal/ports"
)

// StubClassifier is a scripted Classifier for engine tests. Judgments are
// keyed by requirement and document name; unscripted pairs return a
// non-matching judgment. Errors can be scripted per pair to exercise the
// engine's recovery path.
type StubClassifier struct {
	mu sync.Mutex

	name      string
	judgments map[pairKey]domain.Judgment
	errors    map[pairKey]error

	// CallOrder records the (requirement, document) pairs in invocation
	// order so tests can assert sequential processing.
	CallOrder [][2]string
}

type pairKey struct {
	requirement string
	document    string
}

// NewStubClassifier creates an empty scripted classifier.
func NewStubClassifier(name string) *StubClassifier {
	return &StubClassifier{
		name:      name,
		judgments: make(map[pairKey]domain.Judgment),
		errors:    make(map[pairKey]error),
	}
}

// Script sets the judgment returned for a (requirement, document) pair.
func (s *StubClassifier) Script(requirement, document string, judgment domain.Judgment) *StubClassifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.judgments[pairKey{requirement, document}] = judgment
	return s
}

// ScriptError makes the classifier fail for a (requirement, document) pair.
func (s *StubClassifier) ScriptError(requirement, document string, err error) *StubClassifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[pairKey{requirement, document}] = err
	return s
}

// Name returns the classifier identifier.
func (s *StubClassifier) Name() string { return s.name }

// Classify returns the scripted judgment or error for the pair. Pairs with
// no script produce a non-matching judgment with zero confidence.
func (s *StubClassifier) Classify(ctx context.Context, req domain.Requirement, doc domain.Document) (domain.Judgment, error) {
	if ctx.Err() != nil {
		return domain.Judgment{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{req.Name, doc.Name}
	s.CallOrder = append(s.CallOrder, [2]string{req.Name, doc.Name})

	if err, ok := s.errors[key]; ok {
		return domain.Judgment{}, err
	}
	if j, ok := s.judgments[key]; ok {
		return j, nil
	}
	return domain.Judgment{
		Matches:    false,
		Confidence: 0,
		Rationale:  "unscripted pair",
	}, nil
}

var _ ports.Classifier = (*StubClassifier)(nil)
