// Package audit bridges workflow lifecycle events to an audit trail
// backend. Each hook emits a structured event through a caller-supplied
// Recorder, giving repositories a durable account of who queued, completed,
// and errored which steps — independent of application logs.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/sul-dlss/workflow/ext"
	"github.com/sul-dlss/workflow/step"
)

// Compile-time interface checks.
var (
	_ ext.Extension        = (*Extension)(nil)
	_ ext.WorkflowCreated  = (*Extension)(nil)
	_ ext.StepQueued       = (*Extension)(nil)
	_ ext.StepCompleted    = (*Extension)(nil)
	_ ext.StepErrored      = (*Extension)(nil)
	_ ext.WorkflowFinished = (*Extension)(nil)
)

// Action names for the emitted events.
const (
	ActionWorkflowCreated  = "workflow.created"
	ActionStepQueued       = "workflow.step.queued"
	ActionStepCompleted    = "workflow.step.completed"
	ActionStepErrored      = "workflow.step.errored"
	ActionWorkflowFinished = "workflow.finished"
)

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Event is one audit trail entry. ResourceID is the repository object
// identifier the event concerns.
type Event struct {
	Action     string         `json:"action"`
	ResourceID string         `json:"resource_id"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Recorder is the interface audit backends implement. It is defined
// locally so the package carries no backend dependency; callers inject
// their concrete trail at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *Event) error
}

// RecorderFunc adapts a plain function to a Recorder.
type RecorderFunc func(ctx context.Context, event *Event) error

func (f RecorderFunc) Record(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Option configures an Extension.
type Option func(*Extension)

// WithActions restricts the extension to emit only the listed actions.
// By default every action is enabled.
func WithActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]bool, len(actions))
		for _, a := range actions {
			e.enabled[a] = true
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extension) { e.logger = l }
}

// Extension emits an audit event for each workflow lifecycle hook.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that records through r.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit" }

// OnWorkflowCreated implements ext.WorkflowCreated.
func (e *Extension) OnWorkflowCreated(ctx context.Context, objectID, wf string, version int) error {
	return e.record(ctx, ActionWorkflowCreated, SeverityInfo, OutcomeSuccess, objectID, "", map[string]any{
		"workflow": wf,
		"version":  version,
	})
}

// OnStepQueued implements ext.StepQueued.
func (e *Extension) OnStepQueued(ctx context.Context, s *step.Step) error {
	return e.record(ctx, ActionStepQueued, SeverityInfo, OutcomeSuccess, s.ObjectID, "", map[string]any{
		"workflow": s.Workflow,
		"process":  s.Process,
		"version":  s.Version,
		"lane":     s.Lane,
	})
}

// OnStepCompleted implements ext.StepCompleted.
func (e *Extension) OnStepCompleted(ctx context.Context, s *step.Step, elapsed time.Duration) error {
	return e.record(ctx, ActionStepCompleted, SeverityInfo, OutcomeSuccess, s.ObjectID, "", map[string]any{
		"workflow":   s.Workflow,
		"process":    s.Process,
		"version":    s.Version,
		"status":     string(s.Status),
		"elapsed_ms": elapsed.Milliseconds(),
		"attempts":   s.Attempts,
	})
}

// OnStepErrored implements ext.StepErrored.
func (e *Extension) OnStepErrored(ctx context.Context, s *step.Step) error {
	return e.record(ctx, ActionStepErrored, SeverityCritical, OutcomeFailure, s.ObjectID, s.ErrorMsg, map[string]any{
		"workflow": s.Workflow,
		"process":  s.Process,
		"version":  s.Version,
		"attempts": s.Attempts,
	})
}

// OnWorkflowFinished implements ext.WorkflowFinished.
func (e *Extension) OnWorkflowFinished(ctx context.Context, s *step.Step) error {
	return e.record(ctx, ActionWorkflowFinished, SeverityInfo, OutcomeSuccess, s.ObjectID, "", map[string]any{
		"workflow": s.Workflow,
		"version":  s.Version,
	})
}

func (e *Extension) record(ctx context.Context, action, severity, outcome, resourceID, reason string, metadata map[string]any) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}
	err := e.recorder.Record(ctx, &Event{
		Action:     action,
		ResourceID: resourceID,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
		Metadata:   metadata,
	})
	if err != nil {
		// Audit failures must not block the engine; the registry also
		// logs, but note the recorder specifically.
		e.logger.Warn("audit record failed",
			slog.String("action", action),
			slog.String("resource_id", resourceID),
			slog.String("error", err.Error()),
		)
	}
	return err
}
