package ext

import (
	"context"
	"log/slog"
	"time"

	"github.com/sul-dlss/workflow/step"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type workflowCreatedEntry struct {
	name string
	hook WorkflowCreated
}

type stepQueuedEntry struct {
	name string
	hook StepQueued
}

type stepCompletedEntry struct {
	name string
	hook StepCompleted
}

type stepErroredEntry struct {
	name string
	hook StepErrored
}

type workflowFinishedEntry struct {
	name string
	hook WorkflowFinished
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	workflowCreated  []workflowCreatedEntry
	stepQueued       []stepQueuedEntry
	stepCompleted    []stepCompletedEntry
	stepErrored      []stepErroredEntry
	workflowFinished []workflowFinishedEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(WorkflowCreated); ok {
		r.workflowCreated = append(r.workflowCreated, workflowCreatedEntry{name, h})
	}
	if h, ok := e.(StepQueued); ok {
		r.stepQueued = append(r.stepQueued, stepQueuedEntry{name, h})
	}
	if h, ok := e.(StepCompleted); ok {
		r.stepCompleted = append(r.stepCompleted, stepCompletedEntry{name, h})
	}
	if h, ok := e.(StepErrored); ok {
		r.stepErrored = append(r.stepErrored, stepErroredEntry{name, h})
	}
	if h, ok := e.(WorkflowFinished); ok {
		r.workflowFinished = append(r.workflowFinished, workflowFinishedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// EmitWorkflowCreated notifies all extensions that implement WorkflowCreated.
func (r *Registry) EmitWorkflowCreated(ctx context.Context, objectID, wf string, version int) {
	for _, e := range r.workflowCreated {
		if err := e.hook.OnWorkflowCreated(ctx, objectID, wf, version); err != nil {
			r.logHookError("OnWorkflowCreated", e.name, err)
		}
	}
}

// EmitStepQueued notifies all extensions that implement StepQueued.
func (r *Registry) EmitStepQueued(ctx context.Context, s *step.Step) {
	for _, e := range r.stepQueued {
		if err := e.hook.OnStepQueued(ctx, s); err != nil {
			r.logHookError("OnStepQueued", e.name, err)
		}
	}
}

// EmitStepCompleted notifies all extensions that implement StepCompleted.
func (r *Registry) EmitStepCompleted(ctx context.Context, s *step.Step, elapsed time.Duration) {
	for _, e := range r.stepCompleted {
		if err := e.hook.OnStepCompleted(ctx, s, elapsed); err != nil {
			r.logHookError("OnStepCompleted", e.name, err)
		}
	}
}

// EmitStepErrored notifies all extensions that implement StepErrored.
func (r *Registry) EmitStepErrored(ctx context.Context, s *step.Step) {
	for _, e := range r.stepErrored {
		if err := e.hook.OnStepErrored(ctx, s); err != nil {
			r.logHookError("OnStepErrored", e.name, err)
		}
	}
}

// EmitWorkflowFinished notifies all extensions that implement WorkflowFinished.
func (r *Registry) EmitWorkflowFinished(ctx context.Context, s *step.Step) {
	for _, e := range r.workflowFinished {
		if err := e.hook.OnWorkflowFinished(ctx, s); err != nil {
			r.logHookError("OnWorkflowFinished", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the engine.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
