// Package memory provides a fully in-memory step store. Safe for
// concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/id"
	"github.com/sul-dlss/workflow/step"
)

// Ensure Store implements the persistence contracts at compile time.
var (
	_ step.Store      = (*Store)(nil)
	_ workflow.Storer = (*Store)(nil)
)

// Store is an in-memory implementation of step.Store. A single mutex
// serializes all mutation, which gives the queue-flip the same
// exclusivity a row lock gives the relational backend.
type Store struct {
	mu sync.Mutex

	// steps holds rows in insertion order; bulk-created steps share a
	// CreatedAt instant, so slice order is the creation-order tiebreak.
	steps []*step.Step

	contexts map[string]*step.VersionContext
}

// New returns a new empty Store.
func New() *Store {
	return &Store{contexts: make(map[string]*step.VersionContext)}
}

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

func contextKey(objectID string, version int) string {
	return objectID + "#" + itoa(version)
}

func itoa(v int) string {
	// Versions are small positive integers; avoid strconv import churn.
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := v < 0
	if neg {
		v = -v
	}
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// CreateWorkflow transactionally replaces the steps for one
// (objectID, wf, version) and deactivates all other versions' rows for
// the same workflow.
func (m *Store) CreateWorkflow(_ context.Context, objectID, wf string, version int, steps []*step.Step, vctx map[string]string, setContext bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.steps[:0]
	for _, s := range m.steps {
		if s.ObjectID == objectID && s.Workflow == wf && s.Version == version {
			continue // replaced
		}
		if s.ObjectID == objectID && s.Workflow == wf {
			s.Active = false
		}
		kept = append(kept, s)
	}
	m.steps = kept

	for _, s := range steps {
		cp := s.Clone()
		if cp.ID.IsNil() {
			cp.ID = id.NewStepID()
		}
		if cp.CreatedAt.IsZero() {
			cp.Entity = workflow.NewEntity()
		}
		cp.ObjectID = objectID
		cp.Workflow = wf
		cp.Version = version
		cp.Active = true
		m.steps = append(m.steps, cp)
	}

	if setContext {
		key := contextKey(objectID, version)
		if len(vctx) == 0 {
			delete(m.contexts, key)
		} else {
			values := make(map[string]string, len(vctx))
			for k, v := range vctx {
				values[k] = v
			}
			m.contexts[key] = &step.VersionContext{
				Entity:   workflow.NewEntity(),
				ID:       id.NewContextID(),
				ObjectID: objectID,
				Version:  version,
				Values:   values,
			}
		}
	}

	return nil
}

// GetStep returns the step for the process at the object's most recent
// version of the workflow.
func (m *Store) GetStep(_ context.Context, objectID, wf, process string) (*step.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	maxVersion := -1
	for _, s := range m.steps {
		if s.ObjectID == objectID && s.Workflow == wf && s.Process == process && s.Version > maxVersion {
			maxVersion = s.Version
		}
	}
	if maxVersion < 0 {
		return nil, workflow.ErrStepNotFound
	}

	var found *step.Step
	for _, s := range m.steps {
		if s.ObjectID != objectID || s.Workflow != wf || s.Process != process || s.Version != maxVersion {
			continue
		}
		if found != nil {
			return nil, workflow.ErrDuplicateStep
		}
		found = s
	}
	return found.Clone(), nil
}

// UpdateStep persists changes to an existing step, compare-and-swapping
// on LockVersion.
func (m *Store) UpdateStep(_ context.Context, s *step.Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, row := range m.steps {
		if row.ID.String() != s.ID.String() {
			continue
		}
		if row.LockVersion != s.LockVersion {
			return workflow.ErrStale
		}
		cp := s.Clone()
		cp.LockVersion++
		cp.UpdatedAt = time.Now().UTC()
		m.steps[i] = cp
		s.LockVersion = cp.LockVersion
		s.UpdatedAt = cp.UpdatedAt
		return nil
	}
	return workflow.ErrStepNotFound
}

// ListSteps returns all steps for (objectID, version) restricted to the
// named workflow, in creation order.
func (m *Store) ListSteps(_ context.Context, objectID string, version int, wf string) ([]*step.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*step.Step
	for _, s := range m.steps {
		if s.ObjectID == objectID && s.Version == version && s.Workflow == wf {
			result = append(result, s.Clone())
		}
	}
	return result, nil
}

// ListWorkflowSteps returns every step of the named workflow for the
// object, across versions.
func (m *Store) ListWorkflowSteps(_ context.Context, objectID, wf string) ([]*step.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*step.Step
	for _, s := range m.steps {
		if s.ObjectID == objectID && s.Workflow == wf {
			result = append(result, s.Clone())
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Version < result[j].Version
	})
	return result, nil
}

// ListObjectSteps returns every step for the object across all workflows
// and versions, in creation order.
func (m *Store) ListObjectSteps(_ context.Context, objectID string) ([]*step.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*step.Step
	for _, s := range m.steps {
		if s.ObjectID == objectID {
			result = append(result, s.Clone())
		}
	}
	return result, nil
}

// QueueReadySteps flips waiting steps named in ready to queued and
// returns their pre-update snapshots. The store mutex is the pessimistic
// lock: two concurrent callers flip disjoint sets.
func (m *Store) QueueReadySteps(_ context.Context, objectID, wf string, version int, ready []string) ([]*step.Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	readySet := make(map[string]bool, len(ready))
	for _, name := range ready {
		readySet[name] = true
	}

	now := time.Now().UTC()
	var snapshots []*step.Step
	for _, s := range m.steps {
		if s.ObjectID != objectID || s.Workflow != wf || s.Version != version {
			continue
		}
		if s.Status != step.StatusWaiting || !readySet[s.Process] {
			continue
		}
		snapshots = append(snapshots, s.Clone())
		s.Status = step.StatusQueued
		s.LockVersion++
		s.UpdatedAt = now
	}
	return snapshots, nil
}

// SkipAll marks every active-version step of the workflow skipped.
func (m *Store) SkipAll(_ context.Context, objectID, wf, note string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	count := 0
	for _, s := range m.steps {
		if s.ObjectID != objectID || s.Workflow != wf || !s.Active {
			continue
		}
		s.SetStatus(step.StatusSkipped, now)
		s.Note = note
		s.LockVersion++
		s.UpdatedAt = now
		count++
	}
	if count == 0 {
		return 0, workflow.ErrWorkflowNotFound
	}
	return count, nil
}

// DeleteWorkflow removes all steps for (objectID, wf, version).
func (m *Store) DeleteWorkflow(_ context.Context, objectID, wf string, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.steps[:0]
	removed := false
	for _, s := range m.steps {
		if s.ObjectID == objectID && s.Workflow == wf && s.Version == version {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	m.steps = kept
	if !removed {
		return workflow.ErrWorkflowNotFound
	}
	return nil
}

// DeleteObject removes every step and version context for the object.
func (m *Store) DeleteObject(_ context.Context, objectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.steps[:0]
	for _, s := range m.steps {
		if s.ObjectID == objectID {
			continue
		}
		kept = append(kept, s)
	}
	m.steps = kept

	for key, vc := range m.contexts {
		if vc.ObjectID == objectID {
			delete(m.contexts, key)
		}
	}
	return nil
}

// GetContext returns the version context values for (objectID, version).
func (m *Store) GetContext(_ context.Context, objectID string, version int) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vc, ok := m.contexts[contextKey(objectID, version)]
	if !ok {
		return nil, workflow.ErrContextNotFound
	}
	values := make(map[string]string, len(vc.Values))
	for k, v := range vc.Values {
		values[k] = v
	}
	return values, nil
}

// CountIncomplete returns per-object counts of active-version steps of
// the workflow that are not completed or skipped, ignoring ignoreProcess.
func (m *Store) CountIncomplete(_ context.Context, objectIDs []string, wf, ignoreProcess string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(objectIDs))
	counts := make(map[string]int, len(objectIDs))
	for _, oid := range objectIDs {
		wanted[oid] = true
		counts[oid] = 0
	}

	for _, s := range m.steps {
		if !wanted[s.ObjectID] || s.Workflow != wf || !s.Active {
			continue
		}
		if s.Process == ignoreProcess {
			continue
		}
		if !s.Status.Terminal() {
			counts[s.ObjectID]++
		}
	}
	return counts, nil
}
