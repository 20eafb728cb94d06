// Package engine implements the classification workflow: a finite-stage
// pipeline that iterates over requirements, invokes a pluggable classifier
// for each (requirement, document) pair, accumulates results into a single
// workflow state, and produces the final requirement→documents mapping plus
// a diagnostic trail.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docketlabs/go-docket/internal/domain"
	"github.com/docketlabs/go-docket/internal/ports"
)

// Stage identifies a state of the orchestrator's state machine.
type Stage int

// The orchestrator states, in transition order:
// INIT → SELECT → CLASSIFY → RECORD → CHECK → {SELECT | FORMAT} → DONE.
const (
	StageInit Stage = iota
	StageSelect
	StageClassify
	StageRecord
	StageCheck
	StageFormat
	StageDone
)

// String returns the lowercase stage name used in logs and metrics labels.
func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageSelect:
		return "select"
	case StageClassify:
		return "classify"
	case StageRecord:
		return "record"
	case StageCheck:
		return "check"
	case StageFormat:
		return "format"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Config holds the engine's threshold policy.
type Config struct {
	// ConfidenceThreshold is the inclusive minimum confidence for a match.
	// Zero means the default (0.5).
	ConfidenceThreshold float64

	// HighConfidenceThreshold bounds the high diagnostic tier.
	// Zero means the default (0.8).
	HighConfidenceThreshold float64
}

// Engine drives the classification workflow. Execution is single-threaded
// and strictly sequential: requirements one at a time, and within a
// requirement, documents one at a time in input order. The classifier call
// is the only operation that may block on external latency.
type Engine struct {
	classifier  ports.Classifier
	filter      MatchFilter
	logger      *zap.Logger
	metrics     ports.MetricsCollector
	checkpoints ports.CheckpointStore
	runID       string
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithLogger attaches a structured logger for stage-transition logging.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics attaches a collector that records stage durations and
// judgment outcomes.
func WithMetrics(collector ports.MetricsCollector) Option {
	return func(e *Engine) { e.metrics = collector }
}

// WithCheckpointStore enables best-effort state snapshots after each stage
// transition under the given run ID. Snapshot failures are logged, never
// fatal.
func WithCheckpointStore(store ports.CheckpointStore, runID string) Option {
	return func(e *Engine) {
		e.checkpoints = store
		e.runID = runID
	}
}

// New creates an Engine using the given classifier and threshold config.
func New(classifier ports.Classifier, cfg Config, opts ...Option) (*Engine, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier cannot be nil")
	}

	e := &Engine{
		classifier: classifier,
		filter:     NewMatchFilter(cfg.ConfidenceThreshold, cfg.HighConfidenceThreshold),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes the full workflow over the given requirements and documents
// and always returns a well-formed FinalOutput. Expected failure modes
// (empty requirements, classifier failures, invariant violations) are
// recorded in the output's error list and never surface as Go errors;
// only programming errors panic through.
func (e *Engine) Run(ctx context.Context, requirements []domain.Requirement, documents []domain.Document) domain.FinalOutput {
	st := domain.NewWorkflowState(requirements, documents)

	// Empty requirements short-circuit to an immediately-complete output
	// with the validation error recorded.
	if st.ProcessingComplete {
		e.logger.Debug("workflow short-circuited", zap.Int("requirements", 0))
		return st.FormatResults()
	}

	e.logger.Debug("workflow initialized",
		zap.Int("requirements", len(requirements)),
		zap.Int("documents", len(documents)))
	e.snapshot(ctx, st)

	return e.run(ctx, st)
}

// Resume continues a workflow from a previously serialized state, for
// example one loaded from a checkpoint store. The state's invariants are
// re-validated first: a corrupted snapshot must not let a requirement be
// processed twice.
func (e *Engine) Resume(ctx context.Context, st *domain.WorkflowState) (domain.FinalOutput, error) {
	if st == nil {
		return domain.FinalOutput{}, fmt.Errorf("workflow state cannot be nil")
	}

	// A snapshot taken mid-requirement holds it only in the current slot;
	// put it back in the queue so it is classified exactly once.
	st.RequeueCurrent()

	if err := st.Validate(); err != nil {
		return domain.FinalOutput{}, fmt.Errorf("cannot resume: %w", err)
	}
	if st.ProcessingComplete {
		return st.FormatResults(), nil
	}

	e.logger.Debug("workflow resumed",
		zap.Int("remaining", len(st.Remaining)),
		zap.Int("assigned", len(st.Assignments)))

	return e.run(ctx, st), nil
}

// run drives the SELECT → CLASSIFY → RECORD → CHECK loop until the queue
// drains, then formats. The loop body executes exactly once per requirement.
// A fault reported by any stage is appended to the errors and causes an
// early transition to FORMAT with ProcessingComplete left as-is, preserving
// partial assignments.
func (e *Engine) run(ctx context.Context, st *domain.WorkflowState) domain.FinalOutput {
	var (
		stage    = StageSelect
		matched  []string
		judgment []domain.Judgment
	)

	for stage != StageFormat {
		start := time.Now()
		current := stage

		switch stage {
		case StageSelect:
			// Cooperative cancellation: checked before every SELECT.
			if ctx.Err() != nil {
				e.logger.Info("workflow cancelled",
					zap.Int("remaining", len(st.Remaining)),
					zap.Error(ctx.Err()))
				stage = StageFormat
				continue
			}
			if err := st.SelectNext(); err != nil {
				st.AppendError(domain.ErrorEntry{
					Kind:    domain.ErrorKindStateInvariant,
					Message: fmt.Sprintf("select stage: %v", err),
				})
				stage = StageFormat
				continue
			}
			e.logger.Debug("requirement selected",
				zap.String("requirement", st.Current.Name),
				zap.Int("remaining", len(st.Remaining)))
			stage = StageClassify

		case StageClassify:
			matched, judgment = e.classifyDocuments(ctx, st)
			stage = StageRecord

		case StageRecord:
			if st.Current == nil {
				st.AppendError(domain.ErrorEntry{
					Kind:    domain.ErrorKindStateInvariant,
					Message: domain.ErrNoCurrentRequirement.Error(),
				})
				stage = StageFormat
				continue
			}
			st.RecordAssignment(domain.AssignmentRecord{
				RequirementName:  st.Current.Name,
				MatchedDocuments: matched,
				AllJudgments:     judgment,
			})
			matched, judgment = nil, nil
			stage = StageCheck

		case StageCheck:
			if st.CheckCompletion() {
				stage = StageFormat
			} else {
				stage = StageSelect
			}
		}

		e.recordStageDuration(current, time.Since(start))
		e.snapshot(ctx, st)
	}

	out := st.FormatResults()
	e.logger.Info("workflow finished",
		zap.Bool("complete", out.ProcessingComplete),
		zap.Int("assignments", len(out.FinalAssignments)),
		zap.Int("errors", len(out.Errors)))
	return out
}

// classifyDocuments evaluates every document against the current requirement,
// in input order, one classifier call per pair. A failing call is recovered
// locally: the error is recorded and the document treated as non-matching
// with confidence zero, so one failing document never blocks the pipeline.
func (e *Engine) classifyDocuments(ctx context.Context, st *domain.WorkflowState) ([]string, []domain.Judgment) {
	req := *st.Current

	matched := make([]string, 0, len(st.Documents))
	judgments := make([]domain.Judgment, 0, len(st.Documents))

	for _, doc := range st.Documents {
		j, err := e.classifier.Classify(ctx, req, doc)
		if err != nil {
			st.AppendError(domain.ClassifierEntry(req.Name, doc.Name, err))
			e.logger.Warn("classifier call failed",
				zap.String("requirement", req.Name),
				zap.String("document", doc.Name),
				zap.Error(err))
			j = domain.Judgment{Matches: false, Confidence: 0, Rationale: "classification failed"}
		}

		j.DocumentName = doc.Name
		j.Tier = e.filter.Tier(j)
		judgments = append(judgments, j)

		included := e.filter.Include(j)
		if included {
			matched = append(matched, doc.Name)
		}
		e.recordJudgment(j, included, err != nil)
	}

	return matched, judgments
}

func (e *Engine) recordStageDuration(s Stage, d time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordHistogram("classification_stage_duration_seconds", d.Seconds(),
		map[string]string{"stage": s.String()})
}

func (e *Engine) recordJudgment(j domain.Judgment, included, failed bool) {
	if e.metrics == nil {
		return
	}
	status := "excluded"
	switch {
	case failed:
		status = "error"
	case included:
		status = "included"
	}
	e.metrics.RecordCounter("classification_judgments_total", 1, map[string]string{
		"tier":   string(j.Tier),
		"status": status,
	})
}

// snapshot persists the current state when a checkpoint store is configured.
// Failures are logged and otherwise ignored; checkpointing is best-effort.
func (e *Engine) snapshot(ctx context.Context, st *domain.WorkflowState) {
	if e.checkpoints == nil {
		return
	}
	if err := e.checkpoints.Save(ctx, e.runID, st); err != nil {
		e.logger.Warn("checkpoint save failed",
			zap.String("run_id", e.runID),
			zap.Error(err))
	}
}
