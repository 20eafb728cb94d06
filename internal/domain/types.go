// Package domain contains pure, dependency-free domain models and types
// for the classification workflow engine.
package domain

// Requirement is a single named criterion that input documents must satisfy,
// typically a required document type lifted out of an upstream extraction
// record. Requirements are immutable once loaded; stages reference them but
// never mutate them.
type Requirement struct {
	// Name uniquely identifies this requirement and is used as the key in
	// the final assignment mapping.
	Name string `json:"name"`

	// Description explains what the requirement demands in free text.
	Description string `json:"description"`

	// Quantity is the expected number of matching documents.
	// It is informational only and is never enforced as a cap.
	Quantity int `json:"quantity"`

	// ValidationCriteria lists the free-text rules a document must satisfy,
	// in the order they were extracted.
	ValidationCriteria []string `json:"validation_criteria"`
}

// Document is a candidate item to be classified against requirements.
// Its text content is assumed to be pre-extracted. Documents are immutable
// and shared by reference across all requirement evaluations.
type Document struct {
	// Name identifies the document in engine output. It need not be unique,
	// but the engine treats it as the document's identity.
	Name string `json:"name"`

	// Summary is a short free-text description of the document.
	Summary string `json:"summary"`

	// FullText is the document's full content. It may be empty.
	FullText string `json:"full_text"`
}

// ConfidenceTier is the diagnostic band a judgment's confidence falls into.
// The tier never affects match inclusion; it exists for downstream triage.
type ConfidenceTier string

const (
	// TierHigh marks judgments at or above the high-confidence threshold.
	TierHigh ConfidenceTier = "high"

	// TierStandard marks judgments at or above the confidence threshold
	// but below the high-confidence threshold.
	TierStandard ConfidenceTier = "standard"

	// TierLow marks judgments below the confidence threshold.
	TierLow ConfidenceTier = "low"
)

// Judgment is the classifier's verdict for one (requirement, document) pair.
// A Judgment is produced fresh per classifier call and never mutated after
// the engine annotates it with the document name and confidence tier.
type Judgment struct {
	// DocumentName identifies the document this judgment is about.
	// The engine fills it in; classifiers may leave it empty.
	DocumentName string `json:"document_name"`

	// Matches reports whether the classifier considers the document to
	// satisfy the requirement.
	Matches bool `json:"matches"`

	// Confidence indicates how certain the classifier is (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Rationale explains the verdict in free text.
	Rationale string `json:"rationale"`

	// Tier is the diagnostic confidence band assigned by the match filter.
	Tier ConfidenceTier `json:"tier,omitempty"`
}

// AssignmentRecord is the accumulated outcome for one requirement after all
// documents have been evaluated against it. It is created once by the
// record-assignment stage and never mutated thereafter.
type AssignmentRecord struct {
	// RequirementName is the name of the requirement this record is for.
	RequirementName string `json:"requirement_name"`

	// MatchedDocuments lists the names of documents that passed the match
	// filter, in document evaluation order.
	MatchedDocuments []string `json:"matched_documents"`

	// AllJudgments holds one judgment per evaluated document, in evaluation
	// order, for diagnostics.
	AllJudgments []Judgment `json:"all_judgments"`
}

// RequirementAssignment is one entry of the final requirement→documents
// mapping. The mapping is modeled as an ordered slice because processing
// order is part of the output contract and Go maps do not preserve it.
type RequirementAssignment struct {
	// RequirementName is the mapping key.
	RequirementName string `json:"requirement_name"`

	// MatchedDocuments lists matched document names in evaluation order.
	// It is empty, not absent, when nothing matched.
	MatchedDocuments []string `json:"matched_documents"`
}

// FinalOutput is the read-only result of a classification run.
// It is constructed once by the format stage and never mutated.
type FinalOutput struct {
	// FinalAssignments maps each processed requirement to its matched
	// document names, in processing order.
	FinalAssignments []RequirementAssignment `json:"final_assignments"`

	// ClassificationResults carries the full per-requirement detail,
	// including every judgment, for diagnostics.
	ClassificationResults []AssignmentRecord `json:"classification_results"`

	// ProcessingComplete is true only when every requirement was processed.
	// False signals cancellation or early termination, distinct from a
	// complete run that recorded classification failures.
	ProcessingComplete bool `json:"processing_complete"`

	// TotalRequirements is the number of requirements the run started with.
	TotalRequirements int `json:"total_requirements"`

	// TotalDocuments is the number of candidate documents.
	TotalDocuments int `json:"total_documents"`

	// Errors lists every recoverable problem encountered during the run.
	Errors []ErrorEntry `json:"errors"`
}

// MatchedDocuments returns the matched document names for the named
// requirement and whether the requirement appears in the output.
func (o FinalOutput) MatchedDocuments(requirementName string) ([]string, bool) {
	for _, a := range o.FinalAssignments {
		if a.RequirementName == requirementName {
			return a.MatchedDocuments, true
		}
	}
	return nil, false
}
