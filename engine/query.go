package engine

import (
	"sort"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/step"
)

// GetStep returns the step for a process at the object's most recent
// version of the workflow.
func (s *Service) GetStep(ctx workflow.Context, objectID, wf, process string) (*step.Step, error) {
	return s.store.GetStep(ctx, objectID, wf, process)
}

// Workflow returns the read model for one workflow of an object, covering
// every version. An object with no rows yields an empty, incomplete
// response rather than an error.
func (s *Service) Workflow(ctx workflow.Context, objectID, wf string) (WorkflowResponse, error) {
	steps, err := s.store.ListWorkflowSteps(ctx, objectID, wf)
	if err != nil {
		return WorkflowResponse{}, err
	}
	return newWorkflowResponse(objectID, wf, steps), nil
}

// Workflows returns the read models for every workflow the object has rows
// for, ordered by workflow name.
func (s *Service) Workflows(ctx workflow.Context, objectID string) ([]WorkflowResponse, error) {
	steps, err := s.store.ListObjectSteps(ctx, objectID)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]*step.Step)
	for _, st := range steps {
		grouped[st.Workflow] = append(grouped[st.Workflow], st)
	}
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]WorkflowResponse, 0, len(names))
	for _, name := range names {
		out = append(out, newWorkflowResponse(objectID, name, grouped[name]))
	}
	return out, nil
}

// Context returns the version context values stored for (objectID,
// version), or ErrContextNotFound when none exist.
func (s *Service) Context(ctx workflow.Context, objectID string, version int) (map[string]string, error) {
	return s.store.GetContext(ctx, objectID, version)
}
