// Package ext defines the extension system for the workflow engine.
// Extensions are notified of lifecycle events (workflow created, step
// queued, completed, errored, etc.) and can react to them — logging,
// metrics, auditing.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
package ext

import (
	"context"
	"time"

	"github.com/sul-dlss/workflow/step"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// WorkflowCreated is called after a workflow's steps are persisted for an
// object/version.
type WorkflowCreated interface {
	OnWorkflowCreated(ctx context.Context, objectID, wf string, version int) error
}

// StepQueued is called for each step the scheduler flips to queued and
// dispatches.
type StepQueued interface {
	OnStepQueued(ctx context.Context, s *step.Step) error
}

// StepCompleted is called after a step transitions into a completed
// state (completed or skipped).
type StepCompleted interface {
	OnStepCompleted(ctx context.Context, s *step.Step, elapsed time.Duration) error
}

// StepErrored is called after a step is recorded as errored.
type StepErrored interface {
	OnStepErrored(ctx context.Context, s *step.Step) error
}

// WorkflowFinished is called once when the terminal step of the terminal
// workflow completes for an object.
type WorkflowFinished interface {
	OnWorkflowFinished(ctx context.Context, s *step.Step) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
