package engine

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/step"
)

// CreateWorkflow instantiates the named workflow template for an object
// version. Every process in the template becomes a waiting step; rows from
// earlier versions of the same workflow are deactivated, and any earlier
// rows for this exact version are replaced.
//
// vctx carries version context values: nil leaves any stored context
// untouched, an empty map deletes it, and a populated map replaces it.
// laneOverride, when non-empty, overrides the lane of every created step.
func (s *Service) CreateWorkflow(ctx workflow.Context, objectID, wf string, version int, vctx map[string]string, laneOverride string) error {
	ctx, span := s.tracer.Start(ctx, "workflow.create",
		trace.WithAttributes(
			attribute.String("workflow.object_id", objectID),
			attribute.String("workflow.name", wf),
			attribute.Int("workflow.version", version),
		))
	defer span.End()

	tmpl, err := s.templates.Load(wf)
	if err != nil {
		return err
	}

	steps := make([]*step.Step, 0, len(tmpl.Processes))
	for _, p := range tmpl.Processes {
		laneID := p.Lane
		if laneOverride != "" {
			laneID = laneOverride
		}
		if laneID == "" {
			laneID = s.config.DefaultLane
		}
		st := &step.Step{
			Entity:    workflow.NewEntity(),
			ObjectID:  objectID,
			Workflow:  wf,
			Version:   version,
			Process:   p.Name,
			Status:    step.StatusWaiting,
			Lifecycle: p.Lifecycle,
			Lane:      laneID,
			Active:    true,
		}
		steps = append(steps, st)
	}

	if err := s.store.CreateWorkflow(ctx, objectID, wf, version, steps, vctx, vctx != nil); err != nil {
		return fmt.Errorf("create workflow %s for %s: %w", wf, objectID, err)
	}

	s.hooks.EmitWorkflowCreated(ctx, objectID, wf, version)
	s.indexer.ReindexLater(ctx, objectID)

	// Seed the scheduler so zero-prerequisite steps are queued right away.
	seed := steps[0].Clone()
	if _, err := s.scheduler.Trigger(ctx, seed); err != nil {
		return fmt.Errorf("initial dispatch for %s: %w", objectID, err)
	}
	return nil
}
