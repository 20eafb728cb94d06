package domain

import (
	"fmt"
	"slices"
)

// WorkflowState is the single mutable record threaded through every pipeline
// stage. It is owned exclusively by the orchestrator; no locking is needed
// because there is never a concurrent writer. The struct serializes to JSON
// so a run can be checkpointed between stage transitions and resumed later
// with identical invariants.
//
// Invariants:
//   - Remaining and Assignments are disjoint in requirement names.
//   - After a terminal state, every requirement name appears in Assignments
//     exactly once, and never before it has been processed.
type WorkflowState struct {
	// Remaining is the FIFO queue of requirements still to process,
	// in input order.
	Remaining []Requirement `json:"remaining_requirements"`

	// Current is the requirement being processed, set by the select stage
	// and cleared by the record stage.
	Current *Requirement `json:"current_requirement,omitempty"`

	// Documents is the full candidate document list, shared across every
	// requirement evaluation.
	Documents []Document `json:"documents"`

	// Assignments accumulates one record per processed requirement,
	// in processing order. Names are unique by construction.
	Assignments []AssignmentRecord `json:"assignments"`

	// Errors is the append-only sequence of recoverable problems.
	Errors []ErrorEntry `json:"errors"`

	// ProcessingComplete is set true exactly once, when the remaining
	// queue drains.
	ProcessingComplete bool `json:"processing_complete"`

	// TotalRequirements remembers the size of the initial requirements
	// list so the final output can report it after the queue drains.
	TotalRequirements int `json:"total_requirements"`
}

// NewWorkflowState builds the initial state for a run. The requirements and
// documents slices are copied so later caller mutations cannot corrupt the
// state. An empty requirements list is not a fault: it yields an
// immediately-complete state carrying a single validation error entry, so
// callers always receive a well-formed FinalOutput.
func NewWorkflowState(requirements []Requirement, documents []Document) *WorkflowState {
	st := &WorkflowState{
		Remaining:         slices.Clone(requirements),
		Documents:         slices.Clone(documents),
		Assignments:       make([]AssignmentRecord, 0, len(requirements)),
		Errors:            make([]ErrorEntry, 0),
		TotalRequirements: len(requirements),
	}

	if len(requirements) == 0 {
		st.AppendError(ErrorEntry{
			Kind:    ErrorKindValidation,
			Message: ErrNoRequirements.Error(),
		})
		st.ProcessingComplete = true
	}

	return st
}

// SelectNext pops the head of the remaining queue into the current slot.
// Order is input order; there is no reordering or priority. The orchestrator
// checks completion before invoking this stage, so an empty queue here is an
// invariant violation.
func (s *WorkflowState) SelectNext() error {
	if len(s.Remaining) == 0 {
		return ErrQueueEmpty
	}
	req := s.Remaining[0]
	s.Remaining = s.Remaining[1:]
	s.Current = &req
	return nil
}

// RequeueCurrent returns the in-flight requirement to the head of the
// remaining queue and clears the slot. A snapshot taken between the select
// and record stages holds the requirement only in Current; a resumed run
// must put it back in the queue or it would never be classified.
func (s *WorkflowState) RequeueCurrent() {
	if s.Current == nil {
		return
	}
	s.Remaining = append([]Requirement{*s.Current}, s.Remaining...)
	s.Current = nil
}

// RecordAssignment writes the outcome for the current requirement into the
// assignments sequence and clears the current slot. A duplicate requirement
// name indicates the state machine processed a requirement twice; the newer
// record wins and the violation is recorded, because the output must always
// be producible.
func (s *WorkflowState) RecordAssignment(rec AssignmentRecord) {
	defer func() { s.Current = nil }()

	if i := s.assignmentIndex(rec.RequirementName); i >= 0 {
		s.AppendError(ErrorEntry{
			Kind:        ErrorKindStateInvariant,
			Requirement: rec.RequirementName,
			Message:     fmt.Sprintf("requirement %q recorded twice; keeping newer record", rec.RequirementName),
		})
		s.Assignments[i] = rec
		return
	}

	s.Assignments = append(s.Assignments, rec)
}

// CheckCompletion sets ProcessingComplete when the remaining queue is empty
// and reports the flag. This is the sole predicate the orchestrator uses to
// decide between looping and formatting.
func (s *WorkflowState) CheckCompletion() bool {
	if len(s.Remaining) == 0 {
		s.ProcessingComplete = true
	}
	return s.ProcessingComplete
}

// AppendError records a recoverable problem. Errors never abort the run.
func (s *WorkflowState) AppendError(e ErrorEntry) {
	s.Errors = append(s.Errors, e)
}

// Validate checks the state invariants. It is used when a state is restored
// from a checkpoint rather than built fresh, since a corrupted snapshot
// would otherwise let a requirement be processed twice.
func (s *WorkflowState) Validate() error {
	verr := NewValidationError("workflow state")

	seen := make(map[string]bool, len(s.Assignments))
	for _, rec := range s.Assignments {
		if seen[rec.RequirementName] {
			verr.AddError(fmt.Sprintf("requirement %q assigned twice", rec.RequirementName))
		}
		seen[rec.RequirementName] = true
	}
	for _, req := range s.Remaining {
		if seen[req.Name] {
			verr.AddError(fmt.Sprintf("requirement %q both assigned and still queued", req.Name))
		}
	}
	if s.ProcessingComplete && len(s.Remaining) > 0 {
		verr.AddError("processing marked complete with requirements still queued")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// FormatResults derives the read-only final output from the accumulated
// assignments. Requirements with zero matched documents are included with an
// empty list, not omitted: absence of a match is itself a result. The method
// does not mutate the state, so formatting is idempotent.
func (s *WorkflowState) FormatResults() FinalOutput {
	final := make([]RequirementAssignment, 0, len(s.Assignments))
	for _, rec := range s.Assignments {
		matched := rec.MatchedDocuments
		if matched == nil {
			matched = []string{}
		}
		final = append(final, RequirementAssignment{
			RequirementName:  rec.RequirementName,
			MatchedDocuments: matched,
		})
	}

	return FinalOutput{
		FinalAssignments:      final,
		ClassificationResults: slices.Clone(s.Assignments),
		ProcessingComplete:    s.ProcessingComplete,
		TotalRequirements:     s.TotalRequirements,
		TotalDocuments:        len(s.Documents),
		Errors:                slices.Clone(s.Errors),
	}
}

func (s *WorkflowState) assignmentIndex(name string) int {
	for i, rec := range s.Assignments {
		if rec.RequirementName == name {
			return i
		}
	}
	return -1
}
