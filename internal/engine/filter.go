package engine

import "github.com/docketlabs/go-docket/internal/domain"

// Default confidence thresholds applied when the engine config leaves them
// unset.
const (
	// DefaultConfidenceThreshold is the minimum confidence for a positive
	// judgment to count as a match. The bound is inclusive.
	DefaultConfidenceThreshold = 0.5

	// DefaultHighConfidenceThreshold separates the high diagnostic tier
	// from the standard one. It never affects match inclusion.
	DefaultHighConfidenceThreshold = 0.8
)

// MatchFilter applies the confidence-threshold policy to raw judgments,
// deciding inclusion and assigning a diagnostic tier.
type MatchFilter struct {
	// ConfidenceThreshold is the inclusive minimum confidence for a
	// positive judgment to be included as a match.
	ConfidenceThreshold float64

	// HighConfidenceThreshold is the inclusive minimum confidence for the
	// high diagnostic tier.
	HighConfidenceThreshold float64
}

// NewMatchFilter builds a filter, substituting defaults for unset (zero)
// thresholds. A zero confidence threshold would admit every positive
// judgment, which is never the intended policy.
func NewMatchFilter(confidence, highConfidence float64) MatchFilter {
	if confidence <= 0 {
		confidence = DefaultConfidenceThreshold
	}
	if highConfidence <= 0 {
		highConfidence = DefaultHighConfidenceThreshold
	}
	return MatchFilter{
		ConfidenceThreshold:     confidence,
		HighConfidenceThreshold: highConfidence,
	}
}

// Include reports whether the judgment counts as a match: the classifier
// must assert a match and the confidence must reach the threshold.
func (f MatchFilter) Include(j domain.Judgment) bool {
	return j.Matches && j.Confidence >= f.ConfidenceThreshold
}

// Tier returns the diagnostic confidence band for the judgment.
func (f MatchFilter) Tier(j domain.Judgment) domain.ConfidenceTier {
	switch {
	case j.Confidence >= f.HighConfidenceThreshold:
		return domain.TierHigh
	case j.Confidence >= f.ConfidenceThreshold:
		return domain.TierStandard
	default:
		return domain.TierLow
	}
}
