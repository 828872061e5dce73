package step

import "context"

// Store defines the persistence contract for steps and version contexts.
// Backends must provide the transactional guarantees each method names;
// QueueReadySteps in particular is the serialization point that makes
// dispatch at-most-once under concurrent scheduler triggers.
type Store interface {
	// CreateWorkflow transactionally replaces the steps for one
	// (objectID, workflow, version): it deletes any existing rows for
	// that triple, marks rows of every other version of the same
	// workflow inactive, and inserts steps with Active true.
	//
	// When setContext is true the (objectID, version) context row is
	// upserted with vctx; an empty vctx deletes the row. When setContext
	// is false the context is left untouched.
	CreateWorkflow(ctx context.Context, objectID, wf string, version int, steps []*Step, vctx map[string]string, setContext bool) error

	// GetStep returns the step for the given process at the object's most
	// recent version of the workflow. Returns workflow.ErrStepNotFound if
	// no row matches, or workflow.ErrDuplicateStep if more than one row
	// exists at that version (a data-integrity violation, surfaced rather
	// than silently disambiguated).
	GetStep(ctx context.Context, objectID, wf, process string) (*Step, error)

	// UpdateStep persists changes to an existing step, compare-and-swapping
	// on LockVersion. Returns workflow.ErrStale when the row was modified
	// since the caller read it, workflow.ErrStepNotFound when it is gone.
	UpdateStep(ctx context.Context, s *Step) error

	// ListSteps returns all steps for (objectID, version) restricted to
	// the named workflow, in creation order.
	ListSteps(ctx context.Context, objectID string, version int, wf string) ([]*Step, error)

	// ListWorkflowSteps returns every step of the named workflow for the
	// object, across versions, ordered by version then creation.
	ListWorkflowSteps(ctx context.Context, objectID, wf string) ([]*Step, error)

	// ListObjectSteps returns every step for the object across all
	// workflows and versions, ordered by creation.
	ListObjectSteps(ctx context.Context, objectID string) ([]*Step, error)

	// QueueReadySteps transactionally selects the steps of (objectID, wf,
	// version) that are still waiting and named in ready, locks them
	// against concurrent flips, updates them to queued, and returns their
	// pre-update snapshots. A step already flipped by a racing trigger is
	// not returned, so each caller dispatches a disjoint set.
	QueueReadySteps(ctx context.Context, objectID, wf string, version int, ready []string) ([]*Step, error)

	// SkipAll marks every active-version step of the workflow skipped with
	// the given note, stamping CompletedAt where unset. Returns the number
	// of rows changed.
	SkipAll(ctx context.Context, objectID, wf, note string) (int, error)

	// DeleteWorkflow removes all steps for (objectID, wf, version).
	DeleteWorkflow(ctx context.Context, objectID, wf string, version int) error

	// DeleteObject removes every step and version context for the object.
	DeleteObject(ctx context.Context, objectID string) error

	// GetContext returns the version context values for (objectID,
	// version). Returns workflow.ErrContextNotFound when none exists.
	GetContext(ctx context.Context, objectID string, version int) (map[string]string, error)

	// CountIncomplete returns, for each object ID, how many active-version
	// steps of the named workflow are not yet completed or skipped,
	// ignoring the named process. Objects with no incomplete steps map to
	// zero. Used by batch lifecycle queries.
	CountIncomplete(ctx context.Context, objectIDs []string, wf, ignoreProcess string) (map[string]int, error)
}
