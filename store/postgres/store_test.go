package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/step"
)

// newTestStore connects to the database named by WORKFLOW_TEST_DATABASE_URL
// and runs migrations. Tests are skipped when the variable is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("WORKFLOW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("WORKFLOW_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func testObjectID(t *testing.T) string {
	// Unique per test run so repeated runs against a shared database
	// never collide.
	return fmt.Sprintf("druid:test%d", time.Now().UnixNano())
}

func seedSteps(processes ...string) []*step.Step {
	out := make([]*step.Step, 0, len(processes))
	for _, p := range processes {
		out = append(out, &step.Step{Process: p, Status: step.StatusWaiting, Lane: "default"})
	}
	return out
}

func TestIntegrationWorkflowRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	objectID := testObjectID(t)
	t.Cleanup(func() { _ = s.DeleteObject(ctx, objectID) })

	vctx := map[string]string{"priority": "high"}
	if err := s.CreateWorkflow(ctx, objectID, "accessionWF", 1, seedSteps("start", "publish", "end"), vctx, true); err != nil {
		t.Fatalf("CreateWorkflow() error = %v", err)
	}

	steps, err := s.ListSteps(ctx, objectID, 1, "accessionWF")
	if err != nil {
		t.Fatalf("ListSteps() error = %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("len(steps) = %d, want 3", len(steps))
	}
	for _, st := range steps {
		if !st.Active || st.Status != step.StatusWaiting {
			t.Errorf("step %s = %s/active=%v, want waiting/active", st.Process, st.Status, st.Active)
		}
	}

	values, err := s.GetContext(ctx, objectID, 1)
	if err != nil {
		t.Fatalf("GetContext() error = %v", err)
	}
	if values["priority"] != "high" {
		t.Errorf("context = %v, want priority=high", values)
	}

	// Queue-flip returns pre-update snapshots and leaves rows queued.
	snaps, err := s.QueueReadySteps(ctx, objectID, "accessionWF", 1, []string{"start"})
	if err != nil {
		t.Fatalf("QueueReadySteps() error = %v", err)
	}
	if len(snaps) != 1 || snaps[0].Status != step.StatusWaiting {
		t.Fatalf("snapshots = %+v, want one waiting snapshot", snaps)
	}
	again, err := s.QueueReadySteps(ctx, objectID, "accessionWF", 1, []string{"start"})
	if err != nil {
		t.Fatalf("QueueReadySteps() repeat error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("repeat flip returned %d snapshots, want 0", len(again))
	}

	st, err := s.GetStep(ctx, objectID, "accessionWF", "start")
	if err != nil {
		t.Fatalf("GetStep() error = %v", err)
	}
	if st.Status != step.StatusQueued {
		t.Errorf("status = %s, want queued", st.Status)
	}

	st.SetStatus(step.StatusCompleted, time.Now())
	st.Elapsed = 1.5
	if err := s.UpdateStep(ctx, st); err != nil {
		t.Fatalf("UpdateStep() error = %v", err)
	}

	// A stale copy loses the compare-and-swap.
	stale := st.Clone()
	stale.LockVersion--
	stale.Note = "late writer"
	if err := s.UpdateStep(ctx, stale); !errors.Is(err, workflow.ErrStale) {
		t.Errorf("UpdateStep(stale) error = %v, want ErrStale", err)
	}

	counts, err := s.CountIncomplete(ctx, []string{objectID}, "accessionWF", "end")
	if err != nil {
		t.Fatalf("CountIncomplete() error = %v", err)
	}
	if counts[objectID] != 1 {
		t.Errorf("incomplete = %d, want 1 (publish)", counts[objectID])
	}
}

func TestIntegrationVersionSupersedes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	objectID := testObjectID(t)
	t.Cleanup(func() { _ = s.DeleteObject(ctx, objectID) })

	if err := s.CreateWorkflow(ctx, objectID, "accessionWF", 1, seedSteps("start"), nil, false); err != nil {
		t.Fatalf("CreateWorkflow(v1) error = %v", err)
	}
	if err := s.CreateWorkflow(ctx, objectID, "accessionWF", 2, seedSteps("start"), nil, false); err != nil {
		t.Fatalf("CreateWorkflow(v2) error = %v", err)
	}

	st, err := s.GetStep(ctx, objectID, "accessionWF", "start")
	if err != nil {
		t.Fatalf("GetStep() error = %v", err)
	}
	if st.Version != 2 {
		t.Errorf("Version = %d, want 2", st.Version)
	}

	v1, err := s.ListSteps(ctx, objectID, 1, "accessionWF")
	if err != nil {
		t.Fatalf("ListSteps(v1) error = %v", err)
	}
	for _, old := range v1 {
		if old.Active {
			t.Errorf("v1 step %s still active", old.Process)
		}
	}
}

func TestIntegrationSkipAllAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	objectID := testObjectID(t)
	t.Cleanup(func() { _ = s.DeleteObject(ctx, objectID) })

	if err := s.CreateWorkflow(ctx, objectID, "accessionWF", 1, seedSteps("start", "end"), nil, false); err != nil {
		t.Fatalf("CreateWorkflow() error = %v", err)
	}

	n, err := s.SkipAll(ctx, objectID, "accessionWF", "decommissioned")
	if err != nil {
		t.Fatalf("SkipAll() error = %v", err)
	}
	if n != 2 {
		t.Errorf("SkipAll() = %d, want 2", n)
	}
	steps, _ := s.ListSteps(ctx, objectID, 1, "accessionWF")
	for _, st := range steps {
		if st.Status != step.StatusSkipped || st.CompletedAt == nil {
			t.Errorf("step %s = %s (completed_at=%v), want skipped with timestamp", st.Process, st.Status, st.CompletedAt)
		}
	}

	if err := s.DeleteWorkflow(ctx, objectID, "accessionWF", 1); err != nil {
		t.Fatalf("DeleteWorkflow() error = %v", err)
	}
	if _, err := s.GetStep(ctx, objectID, "accessionWF", "start"); !errors.Is(err, workflow.ErrStepNotFound) {
		t.Errorf("GetStep() after delete error = %v, want ErrStepNotFound", err)
	}
}
