package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/step"
	"github.com/sul-dlss/workflow/store/memory"
)

const objectID = "druid:bb123cd4567"

func seed(t *testing.T, store *memory.Store, wf string, version int, steps []*step.Step) {
	t.Helper()
	if err := store.CreateWorkflow(context.Background(), objectID, wf, version, steps, nil, false); err != nil {
		t.Fatalf("CreateWorkflow() error = %v", err)
	}
}

func completedAt(at time.Time) *time.Time { return &at }

func TestMilestones(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := workflow.DefaultConfig()

	t1 := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	seed(t, store, "accessionWF", 1, []*step.Step{
		{Process: "start-accession", Status: step.StatusCompleted, Lifecycle: "submitted", CompletedAt: completedAt(t1)},
		{Process: "publish", Status: step.StatusCompleted, Lifecycle: "published", CompletedAt: completedAt(t2)},
		{Process: "end-accession", Status: step.StatusWaiting, Lifecycle: "accessioned"},
		{Process: "rights-metadata", Status: step.StatusCompleted}, // no lifecycle label
	})

	svc := NewService(store, cfg)
	ms, err := svc.Milestones(ctx, objectID)
	if err != nil {
		t.Fatalf("Milestones() error = %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("len(milestones) = %d, want 2", len(ms))
	}
	if ms[0].Name != "submitted" || !ms[0].At.Equal(t1) || ms[0].Version != 1 {
		t.Errorf("milestones[0] = %+v", ms[0])
	}
	if ms[1].Name != "published" || !ms[1].At.Equal(t2) {
		t.Errorf("milestones[1] = %+v", ms[1])
	}
}

func TestHasMilestone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := workflow.DefaultConfig()
	now := time.Now().UTC()

	seed(t, store, "accessionWF", 1, []*step.Step{
		{Process: "end-accession", Status: step.StatusCompleted, Lifecycle: "accessioned", CompletedAt: completedAt(now)},
	})
	// v2 supersedes v1; the old milestone row goes inactive.
	seed(t, store, "accessionWF", 2, []*step.Step{
		{Process: "end-accession", Status: step.StatusWaiting, Lifecycle: "accessioned"},
	})

	svc := NewService(store, cfg)

	got, err := svc.HasMilestone(ctx, objectID, "accessioned", 0, false)
	if err != nil {
		t.Fatalf("HasMilestone() error = %v", err)
	}
	if !got {
		t.Error("HasMilestone(any version) = false, want true")
	}

	got, _ = svc.HasMilestone(ctx, objectID, "accessioned", 2, false)
	if got {
		t.Error("HasMilestone(version 2) = true, want false")
	}

	got, _ = svc.HasMilestone(ctx, objectID, "accessioned", 0, true)
	if got {
		t.Error("HasMilestone(active only) = true, want false for superseded row")
	}

	accessioned, err := svc.Accessioned(ctx, objectID)
	if err != nil {
		t.Fatalf("Accessioned() error = %v", err)
	}
	if !accessioned {
		t.Error("Accessioned() = false, want true")
	}
}

func TestStateAccessioning(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := workflow.DefaultConfig()
	now := time.Now().UTC()

	seed(t, store, cfg.AccessionWorkflow, 1, []*step.Step{
		{Process: "start-accession", Status: step.StatusCompleted, CompletedAt: completedAt(now)},
		{Process: "publish", Status: step.StatusStarted},
		{Process: cfg.TerminalProcess, Status: step.StatusWaiting},
	})

	state := NewState(store, cfg)
	got, err := state.Accessioning(ctx, objectID, 1)
	if err != nil {
		t.Fatalf("Accessioning() error = %v", err)
	}
	if !got {
		t.Error("Accessioning() = false with an in-flight step, want true")
	}

	// Everything but the ignored terminal step completes.
	st, _ := store.GetStep(ctx, objectID, cfg.AccessionWorkflow, "publish")
	st.SetStatus(step.StatusCompleted, now)
	if err := store.UpdateStep(ctx, st); err != nil {
		t.Fatalf("UpdateStep() error = %v", err)
	}
	got, _ = state.Accessioning(ctx, objectID, 1)
	if got {
		t.Error("Accessioning() = true with only the terminal step open, want false")
	}

	// No rows at all means not accessioning.
	got, _ = state.Accessioning(ctx, "druid:zz999xx9999", 1)
	if got {
		t.Error("Accessioning(no rows) = true, want false")
	}
}

func TestStateAssembling(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := workflow.DefaultConfig()
	now := time.Now().UTC()

	seed(t, store, cfg.AssemblyWorkflow, 1, []*step.Step{
		{Process: "checksum-compute", Status: step.StatusCompleted, CompletedAt: completedAt(now)},
		{Process: cfg.AssemblyEndProcess, Status: step.StatusWaiting},
	})

	state := NewState(store, cfg)
	got, err := state.Assembling(ctx, objectID, 1)
	if err != nil {
		t.Fatalf("Assembling() error = %v", err)
	}
	if got {
		t.Error("Assembling() = true with only the hand-off open, want false")
	}
}

func TestBatchStates(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	cfg := workflow.DefaultConfig()
	other := "druid:cc456de7890"

	seed(t, store, cfg.AccessionWorkflow, 1, []*step.Step{
		{Process: "publish", Status: step.StatusStarted},
		{Process: cfg.TerminalProcess, Status: step.StatusWaiting},
	})
	if err := store.CreateWorkflow(ctx, other, cfg.AssemblyWorkflow, 1, []*step.Step{
		{Process: "checksum-compute", Status: step.StatusWaiting},
		{Process: cfg.AssemblyEndProcess, Status: step.StatusWaiting},
	}, nil, false); err != nil {
		t.Fatalf("CreateWorkflow(other) error = %v", err)
	}

	batch := NewBatch(store, cfg)
	states, err := batch.States(ctx, []string{objectID, other, "druid:absent"})
	if err != nil {
		t.Fatalf("States() error = %v", err)
	}
	if got := states[objectID]; !got.Accessioning || got.Assembling {
		t.Errorf("states[%s] = %+v, want accessioning only", objectID, got)
	}
	if got := states[other]; got.Accessioning || !got.Assembling {
		t.Errorf("states[%s] = %+v, want assembling only", other, got)
	}
	if got := states["druid:absent"]; got.Accessioning || got.Assembling {
		t.Errorf("states[absent] = %+v, want neither", got)
	}
}
