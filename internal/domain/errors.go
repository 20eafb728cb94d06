package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during workflow operations.
var (
	// ErrNoRequirements indicates that a workflow was started with an empty
	// requirements list.
	ErrNoRequirements = errors.New("no requirements to process")

	// ErrNoCurrentRequirement indicates that a stage needing the current
	// requirement slot found it empty.
	ErrNoCurrentRequirement = errors.New("no current requirement selected")

	// ErrQueueEmpty indicates that select-next-requirement was invoked with
	// an empty remaining queue.
	ErrQueueEmpty = errors.New("remaining requirements queue is empty")
)

// ErrorKind classifies a recoverable problem recorded in the workflow state.
type ErrorKind string

const (
	// ErrorKindValidation marks malformed or empty input, such as a run
	// started without requirements.
	ErrorKindValidation ErrorKind = "validation"

	// ErrorKindClassifier marks a classifier failure for a specific
	// (requirement, document) pair: transport error, timeout, or a
	// response that could not be parsed.
	ErrorKindClassifier ErrorKind = "classifier"

	// ErrorKindStateInvariant marks an internal consistency violation,
	// such as a requirement recorded twice.
	ErrorKindStateInvariant ErrorKind = "state_invariant"
)

// ErrorEntry is one recoverable problem recorded during a run. The errors
// sequence in FinalOutput is the single channel for all recoverable failure
// modes; none of them abort the run.
type ErrorEntry struct {
	// Kind classifies the problem.
	Kind ErrorKind `json:"kind"`

	// Requirement names the requirement involved, when applicable.
	Requirement string `json:"requirement,omitempty"`

	// Document names the document involved, when applicable.
	Document string `json:"document,omitempty"`

	// Message describes what went wrong.
	Message string `json:"message"`
}

// String renders the entry for logs and diagnostics.
func (e ErrorEntry) String() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Requirement != "" {
		msg += fmt.Sprintf(" (requirement=%s", e.Requirement)
		if e.Document != "" {
			msg += fmt.Sprintf(", document=%s", e.Document)
		}
		msg += ")"
	}
	return msg
}

// ClassifierEntry builds an error entry for a failed classifier call.
func ClassifierEntry(requirement, document string, err error) ErrorEntry {
	return ErrorEntry{
		Kind:        ErrorKindClassifier,
		Requirement: requirement,
		Document:    document,
		Message:     err.Error(),
	}
}

// ValidationError represents an error that occurred during input validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}

// ValidateDocuments checks that every document carries the fields the
// classifier prompt relies on. The result is advisory: missing fields
// degrade classification quality but never block a run, so callers surface
// the error rather than abort on it.
func ValidateDocuments(docs []Document) *ValidationError {
	verr := NewValidationError("documents")
	for i, doc := range docs {
		if doc.Name == "" {
			verr.AddError(fmt.Sprintf("document %d: missing name", i+1))
		}
		if doc.Summary == "" && doc.FullText == "" {
			verr.AddError(fmt.Sprintf("document %d (%s): no summary or full text", i+1, doc.Name))
		}
	}
	if !verr.HasErrors() {
		return nil
	}
	return verr
}
