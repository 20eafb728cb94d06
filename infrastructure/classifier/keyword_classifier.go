package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/docketlabs/go-docket/internal/domain"
	"github.com/docketlabs/go-docket/internal/ports"
)

var (
	_ ports.Classifier = (*KeywordClassifier)(nil)

	// foldCaser is a package-level Unicode case folder; creating one per
	// comparison is needlessly expensive.
	foldCaser = cases.Fold()
)

// Default configuration values for the keyword classifier.
const (
	// DefaultMatchThreshold is the minimum keyword hit ratio for a match.
	DefaultMatchThreshold = 0.5
	// DefaultSimilarityThreshold is the minimum Levenshtein similarity for
	// a keyword to count as present in the document.
	DefaultSimilarityThreshold = 0.8
	// minKeywordLength filters out connective words from criteria text.
	minKeywordLength = 4
)

// KeywordClassifier is a deterministic Classifier that matches requirement
// keywords against document text using Levenshtein similarity. It needs no
// LLM, which makes it suitable for offline runs, smoke tests, and as a
// fallback when no provider credentials are configured. Confidence is the
// fraction of requirement keywords found in the document.
type KeywordClassifier struct {
	name   string
	config KeywordConfig
}

// KeywordConfig defines the configuration parameters for the
// KeywordClassifier.
type KeywordConfig struct {
	// MatchThreshold is the minimum fraction of requirement keywords that
	// must appear in the document for a positive judgment (0.0-1.0).
	MatchThreshold float64 `yaml:"match_threshold" json:"match_threshold" validate:"min=0.0,max=1.0"`

	// SimilarityThreshold is the minimum per-keyword Levenshtein
	// similarity (0.0-1.0) for a token to count as a hit, tolerating
	// minor spelling variations.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold" validate:"min=0.0,max=1.0"`

	// CaseSensitive disables Unicode case folding before comparison.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`
}

// NewKeyword creates a KeywordClassifier, substituting defaults for unset
// thresholds.
func NewKeyword(name string, config KeywordConfig) (*KeywordClassifier, error) {
	if name == "" {
		return nil, fmt.Errorf("classifier name cannot be empty")
	}
	if config.MatchThreshold == 0 {
		config.MatchThreshold = DefaultMatchThreshold
	}
	if config.SimilarityThreshold == 0 {
		config.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &KeywordClassifier{name: name, config: config}, nil
}

// Name returns the unique identifier for this classifier instance.
func (c *KeywordClassifier) Name() string { return c.name }

// Classify judges the pair by the fraction of requirement keywords present
// in the document text. The result is deterministic for identical inputs.
func (c *KeywordClassifier) Classify(_ context.Context, req domain.Requirement, doc domain.Document) (domain.Judgment, error) {
	keywords := c.requirementKeywords(req)
	if len(keywords) == 0 {
		return domain.Judgment{
			Matches:    false,
			Confidence: 0,
			Rationale:  "requirement has no usable keywords",
		}, nil
	}

	docTokens := c.tokenize(doc.Name + " " + doc.Summary + " " + doc.FullText)

	var hits []string
	for _, kw := range keywords {
		if c.tokenPresent(kw, docTokens) {
			hits = append(hits, kw)
		}
	}

	confidence := float64(len(hits)) / float64(len(keywords))
	return domain.Judgment{
		Matches:    confidence >= c.config.MatchThreshold,
		Confidence: confidence,
		Rationale: fmt.Sprintf("matched %d/%d requirement keywords: %s",
			len(hits), len(keywords), strings.Join(hits, ", ")),
	}, nil
}

// requirementKeywords derives the keyword set from the requirement name and
// validation criteria. Name tokens are always included; criteria tokens are
// filtered by length to drop connective words.
func (c *KeywordClassifier) requirementKeywords(req domain.Requirement) []string {
	seen := make(map[string]bool)
	var keywords []string

	add := func(tok string) {
		tok = c.prepare(tok)
		if tok == "" || seen[tok] {
			return
		}
		seen[tok] = true
		keywords = append(keywords, tok)
	}

	for _, tok := range strings.Fields(req.Name) {
		add(tok)
	}
	for _, criterion := range req.ValidationCriteria {
		for _, tok := range strings.Fields(criterion) {
			if len(tok) >= minKeywordLength {
				add(tok)
			}
		}
	}

	return keywords
}

func (c *KeywordClassifier) tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if tok := c.prepare(f); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// prepare trims punctuation and applies case folding unless the classifier
// is configured to be case-sensitive.
func (c *KeywordClassifier) prepare(tok string) string {
	tok = strings.Trim(tok, ".,;:!?()[]{}\"'")
	if !c.config.CaseSensitive {
		tok = foldCaser.String(tok)
	}
	return tok
}

func (c *KeywordClassifier) tokenPresent(keyword string, docTokens []string) bool {
	for _, tok := range docTokens {
		if similarity(keyword, tok) >= c.config.SimilarityThreshold {
			return true
		}
	}
	return false
}

// similarity converts Levenshtein distance into a 0.0-1.0 score relative to
// the longer string.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}
