// Package scheduler recomputes step readiness after every status change.
// It is the state-machine core of the engine: given a just-updated step,
// it determines which sibling steps in the same object/version/workflow
// now have all prerequisites satisfied, atomically flips them from
// waiting to queued, and dispatches each to the work queue exactly once.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/ext"
	"github.com/sul-dlss/workflow/lane"
	"github.com/sul-dlss/workflow/step"
	"github.com/sul-dlss/workflow/template"
)

// Scheduler computes and dispatches the next wave of eligible steps.
// It runs inline in whatever goroutine calls it; concurrency arises from
// many external workers reporting step updates for the same object at
// once, which the store's locked queue-flip serializes.
type Scheduler struct {
	store     step.Store
	templates *template.Loader
	enqueuer  Enqueuer
	indexer   Indexer
	notifier  Notifier
	lanes     *lane.Manager
	hooks     *ext.Registry
	config    workflow.Config
	logger    *slog.Logger
}

// New creates a Scheduler. Any nil collaborator is replaced by its noop
// implementation.
func New(store step.Store, templates *template.Loader, enqueuer Enqueuer, indexer Indexer, notifier Notifier, lanes *lane.Manager, hooks *ext.Registry, config workflow.Config, logger *slog.Logger) *Scheduler {
	if enqueuer == nil {
		enqueuer = NoopEnqueuer{}
	}
	if indexer == nil {
		indexer = NoopIndexer{}
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if lanes == nil {
		lanes = lane.NewManager()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:     store,
		templates: templates,
		enqueuer:  enqueuer,
		indexer:   indexer,
		notifier:  notifier,
		lanes:     lanes,
		hooks:     hooks,
		config:    config,
		logger:    logger,
	}
}

// Trigger recomputes readiness for the trigger step's object/version/
// workflow, flips every newly eligible step to queued, and dispatches the
// flipped set. It returns the dispatched steps (pre-flip snapshots).
//
// Trigger is idempotent: re-running it against an unchanged step set
// queues nothing, and two concurrent triggers never dispatch the same
// step twice — the store's locked flip hands each caller a disjoint set.
//
// Errors propagate to the caller of the status update; the status write
// itself has already committed, so a failed sweep is recovered by the
// next trigger on the same workflow rather than by automatic retry.
func (sch *Scheduler) Trigger(ctx context.Context, trigger *step.Step) ([]*step.Step, error) {
	tmpl, err := sch.templates.Load(trigger.Workflow)
	if err != nil {
		return nil, err
	}

	all, err := sch.store.ListSteps(ctx, trigger.ObjectID, trigger.Version, trigger.Workflow)
	if err != nil {
		return nil, err
	}

	ready := readyProcesses(tmpl, all)

	var queued []*step.Step
	if len(ready) > 0 {
		queued, err = sch.store.QueueReadySteps(ctx, trigger.ObjectID, trigger.Workflow, trigger.Version, ready)
		if err != nil {
			return nil, err
		}
	}

	// Dispatch outside the flip transaction so workers never observe
	// uncommitted state.
	for _, q := range queued {
		if err := sch.lanes.Wait(ctx, q.Lane); err != nil {
			return queued, fmt.Errorf("workflow/scheduler: lane %q wait: %w", q.Lane, err)
		}
		if err := sch.enqueuer.Enqueue(ctx, q); err != nil {
			return queued, fmt.Errorf("workflow/scheduler: dispatch %s %s/%s: %w",
				q.ObjectID, q.Workflow, q.Process, err)
		}
		if sch.hooks != nil {
			sch.hooks.EmitStepQueued(ctx, q)
		}
		sch.logger.Debug("step queued",
			slog.String("object_id", q.ObjectID),
			slog.String("workflow", q.Workflow),
			slog.String("process", q.Process),
			slog.Int("version", q.Version),
			slog.String("lane", q.Lane),
		)
	}

	if err := sch.indexer.ReindexNow(ctx, trigger.ObjectID); err != nil {
		return queued, fmt.Errorf("workflow/scheduler: reindex %s: %w", trigger.ObjectID, err)
	}

	if sch.isTerminal(trigger) {
		if err := sch.publishFinished(ctx, trigger); err != nil {
			return queued, err
		}
	}

	return queued, nil
}

// isTerminal reports whether the trigger is the completed terminal step
// of the terminal workflow.
func (sch *Scheduler) isTerminal(s *step.Step) bool {
	return s.Workflow == sch.config.TerminalWorkflow &&
		s.Process == sch.config.TerminalProcess &&
		s.Status == step.StatusCompleted
}

// publishFinished publishes the workflow-finished notification once,
// after the configured delay. The delay mitigates an observed
// commit-ordering race in the downstream search index.
func (sch *Scheduler) publishFinished(ctx context.Context, s *step.Step) error {
	if d := sch.config.PublishDelay; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := sch.notifier.Publish(ctx, s); err != nil {
		return fmt.Errorf("workflow/scheduler: publish finished %s: %w", s.ObjectID, err)
	}
	if sch.hooks != nil {
		sch.hooks.EmitWorkflowFinished(ctx, s)
	}
	sch.logger.Info("workflow finished",
		slog.String("object_id", s.ObjectID),
		slog.String("workflow", s.Workflow),
		slog.Int("version", s.Version),
	)
	return nil
}

// readyProcesses computes the names of template processes whose
// prerequisite set is covered by the completed steps, excluding processes
// already completed and those flagged skip-queue. The step statuses, not
// the template, decide completion; the template decides edges.
func readyProcesses(tmpl *template.Template, all []*step.Step) []string {
	completed := make(map[string]bool, len(all))
	for _, s := range all {
		if s.Status.Terminal() {
			completed[s.Process] = true
		}
	}

	var ready []string
	for i := range tmpl.Processes {
		p := &tmpl.Processes[i]
		if completed[p.Name] || p.SkipQueue {
			continue
		}
		eligible := true
		for _, pre := range p.Prerequisites {
			if !completed[pre] {
				eligible = false
				break
			}
		}
		if eligible {
			ready = append(ready, p.Name)
		}
	}
	return ready
}
