package lifecycle

import (
	"golang.org/x/sync/errgroup"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/step"
)

// ObjectState is the derived processing state of one object's active
// version.
type ObjectState struct {
	Accessioning bool `json:"accessioning"`
	Assembling   bool `json:"assembling"`
}

// Batch answers the state queries for many objects with grouped store
// queries instead of per-object round trips.
type Batch struct {
	store  step.Store
	config workflow.Config
}

// NewBatch creates a batch state query service.
func NewBatch(store step.Store, config workflow.Config) *Batch {
	return &Batch{store: store, config: config}
}

// States returns the accessioning and assembling flags for each object ID,
// computed over active-version rows. Objects with no rows for a workflow
// are not in flight for it. The two grouped counts run concurrently.
func (b *Batch) States(ctx workflow.Context, objectIDs []string) (map[string]ObjectState, error) {
	var accession, assembly map[string]int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accession, err = b.store.CountIncomplete(gctx, objectIDs, b.config.AccessionWorkflow, b.config.TerminalProcess)
		return err
	})
	g.Go(func() error {
		var err error
		assembly, err = b.store.CountIncomplete(gctx, objectIDs, b.config.AssemblyWorkflow, b.config.AssemblyEndProcess)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]ObjectState, len(objectIDs))
	for _, objectID := range objectIDs {
		out[objectID] = ObjectState{
			Accessioning: accession[objectID] > 0,
			Assembling:   assembly[objectID] > 0,
		}
	}
	return out, nil
}
