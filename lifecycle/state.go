package lifecycle

import (
	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/step"
)

// State derives in-flight processing states for one object version from its
// step rows.
type State struct {
	store  step.Store
	config workflow.Config
}

// NewState creates a state query service.
func NewState(store step.Store, config workflow.Config) *State {
	return &State{store: store, config: config}
}

// Accessioning reports whether the object version is partway through the
// accession workflow: it has rows for that workflow and at least one step
// other than the terminal end process is not yet completed.
func (s *State) Accessioning(ctx workflow.Context, objectID string, version int) (bool, error) {
	return s.inFlight(ctx, objectID, version, s.config.AccessionWorkflow, s.config.TerminalProcess)
}

// Assembling reports whether the object version is partway through the
// assembly workflow. The hand-off process that starts accessioning is
// ignored, so an object counts as done assembling once everything before
// the hand-off has completed.
func (s *State) Assembling(ctx workflow.Context, objectID string, version int) (bool, error) {
	return s.inFlight(ctx, objectID, version, s.config.AssemblyWorkflow, s.config.AssemblyEndProcess)
}

func (s *State) inFlight(ctx workflow.Context, objectID string, version int, wf, ignoreProcess string) (bool, error) {
	steps, err := s.store.ListSteps(ctx, objectID, version, wf)
	if err != nil {
		return false, err
	}
	if len(steps) == 0 {
		return false, nil
	}
	for _, st := range steps {
		if st.Process == ignoreProcess {
			continue
		}
		if !st.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}
