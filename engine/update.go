package engine

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/step"
)

// UpdateOptions carries the optional fields of a status report.
type UpdateOptions struct {
	// Elapsed is the seconds the worker spent on the step. Zero leaves
	// the stored value unchanged.
	Elapsed float64

	// Lifecycle, when non-empty, replaces the step's milestone label.
	Lifecycle string

	// Note, when non-empty, replaces the step's note.
	Note string

	// CurrentStatus, when non-empty, must match the step's stored status
	// or the update is rejected with a ConflictError. It guards against
	// two workers reporting on the same step.
	CurrentStatus string
}

// UpdateStep records a worker's status report for one step and advances the
// workflow. The report is rejected with ErrInvalidStatus for unknown status
// strings and with a *ConflictError when CurrentStatus does not match the
// stored row. Reaching a completed status stamps CompletedAt exactly once
// and bumps the attempt counter.
func (s *Service) UpdateStep(ctx workflow.Context, objectID, wf, process, status string, opts UpdateOptions) (*step.Step, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.update_step",
		trace.WithAttributes(
			attribute.String("workflow.object_id", objectID),
			attribute.String("workflow.name", wf),
			attribute.String("workflow.process", process),
			attribute.String("workflow.status", status),
		))
	defer span.End()

	parsed, err := step.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	st, err := s.store.GetStep(ctx, objectID, wf, process)
	if err != nil {
		return nil, err
	}
	if opts.CurrentStatus != "" && string(st.Status) != opts.CurrentStatus {
		return nil, &workflow.ConflictError{
			ObjectID: objectID,
			Process:  process,
			Expected: opts.CurrentStatus,
			Actual:   string(st.Status),
		}
	}

	st.SetStatus(parsed, s.now())
	if opts.Elapsed != 0 {
		st.Elapsed = opts.Elapsed
	}
	if opts.Lifecycle != "" {
		st.Lifecycle = opts.Lifecycle
	}
	if opts.Note != "" {
		st.Note = opts.Note
	}
	if parsed == step.StatusCompleted || parsed == step.StatusError {
		st.Attempts++
	}

	if err := s.store.UpdateStep(ctx, st); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", objectID, process, err)
	}

	if parsed.Terminal() {
		s.hooks.EmitStepCompleted(ctx, st, time.Duration(st.Elapsed*float64(time.Second)))
	}

	if _, err := s.scheduler.Trigger(ctx, st); err != nil {
		return st, fmt.Errorf("dispatch after %s/%s: %w", objectID, process, err)
	}
	return st, nil
}

// UpdateError records a step failure. The step moves to the error status
// with the worker's message and optional backtrace, dependents stay
// ineligible, and the object is still reindexed so the failure is visible.
func (s *Service) UpdateError(ctx workflow.Context, objectID, wf, process, errorMsg, errorText string) (*step.Step, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.update_error",
		trace.WithAttributes(
			attribute.String("workflow.object_id", objectID),
			attribute.String("workflow.name", wf),
			attribute.String("workflow.process", process),
		))
	defer span.End()

	st, err := s.store.GetStep(ctx, objectID, wf, process)
	if err != nil {
		return nil, err
	}

	st.SetStatus(step.StatusError, s.now())
	st.ErrorMsg = errorMsg
	st.ErrorText = errorText
	st.Attempts++

	if err := s.store.UpdateStep(ctx, st); err != nil {
		return nil, fmt.Errorf("record error for %s/%s: %w", objectID, process, err)
	}

	s.hooks.EmitStepErrored(ctx, st)

	if _, err := s.scheduler.Trigger(ctx, st); err != nil {
		return st, fmt.Errorf("dispatch after %s/%s: %w", objectID, process, err)
	}
	return st, nil
}

// SkipAll marks every step of the workflow's active version skipped with an
// explanatory note. Returns the number of steps affected, or
// ErrWorkflowNotFound when the object has no rows for the workflow.
func (s *Service) SkipAll(ctx workflow.Context, objectID, wf, note string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.skip_all",
		trace.WithAttributes(
			attribute.String("workflow.object_id", objectID),
			attribute.String("workflow.name", wf),
		))
	defer span.End()

	n, err := s.store.SkipAll(ctx, objectID, wf, note)
	if err != nil {
		return 0, err
	}
	s.indexer.ReindexLater(ctx, objectID)
	return n, nil
}

// DeleteWorkflow removes all steps for one workflow version of an object.
func (s *Service) DeleteWorkflow(ctx workflow.Context, objectID, wf string, version int) error {
	if err := s.store.DeleteWorkflow(ctx, objectID, wf, version); err != nil {
		return err
	}
	s.indexer.ReindexLater(ctx, objectID)
	return nil
}

// DeleteObject removes every step and version context for an object, across
// all workflows and versions.
func (s *Service) DeleteObject(ctx workflow.Context, objectID string) error {
	if err := s.store.DeleteObject(ctx, objectID); err != nil {
		return err
	}
	s.indexer.ReindexLater(ctx, objectID)
	return nil
}
