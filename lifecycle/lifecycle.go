// Package lifecycle reads object milestones and derived processing states
// out of the step store. Milestones are the lifecycle labels of completed
// steps; the derived states answer "is this object still being accessioned
// or assembled" without callers knowing workflow internals.
package lifecycle

import (
	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/step"
)

// Service answers milestone queries for single objects.
type Service struct {
	store  step.Store
	config workflow.Config
}

// NewService creates a milestone query service.
func NewService(store step.Store, config workflow.Config) *Service {
	return &Service{store: store, config: config}
}

// Milestones returns every milestone the object has reached, across all
// workflows and versions, in step creation order. A step contributes a
// milestone when it carries a lifecycle label and has reached a completed
// status.
func (s *Service) Milestones(ctx workflow.Context, objectID string) ([]step.Milestone, error) {
	steps, err := s.store.ListObjectSteps(ctx, objectID)
	if err != nil {
		return nil, err
	}
	var out []step.Milestone
	for _, st := range steps {
		if st.Lifecycle == "" || !st.Status.Terminal() {
			continue
		}
		at := st.UpdatedAt
		if st.CompletedAt != nil {
			at = *st.CompletedAt
		}
		out = append(out, step.Milestone{
			Name:    st.Lifecycle,
			Version: st.Version,
			At:      at,
		})
	}
	return out, nil
}

// HasMilestone reports whether the object has reached the named milestone.
// version restricts the check to one object version when positive; zero
// means any version. activeOnly restricts the check to active-version rows.
func (s *Service) HasMilestone(ctx workflow.Context, objectID, name string, version int, activeOnly bool) (bool, error) {
	steps, err := s.store.ListObjectSteps(ctx, objectID)
	if err != nil {
		return false, err
	}
	for _, st := range steps {
		if st.Lifecycle != name || !st.Status.Terminal() {
			continue
		}
		if version > 0 && st.Version != version {
			continue
		}
		if activeOnly && !st.Active {
			continue
		}
		return true, nil
	}
	return false, nil
}

// Accessioned reports whether the object has ever reached the accessioned
// milestone, at any version.
func (s *Service) Accessioned(ctx workflow.Context, objectID string) (bool, error) {
	return s.HasMilestone(ctx, objectID, s.config.AccessionedMilestone, 0, false)
}
