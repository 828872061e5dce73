package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sul-dlss/workflow/step"
)

type memoryRecorder struct {
	events []*Event
	fail   bool
}

func (m *memoryRecorder) Record(_ context.Context, e *Event) error {
	if m.fail {
		return errors.New("backend down")
	}
	m.events = append(m.events, e)
	return nil
}

func TestExtensionEmitsEvents(t *testing.T) {
	ctx := context.Background()
	rec := &memoryRecorder{}
	e := New(rec)

	s := &step.Step{
		ObjectID: "druid:bb123cd4567",
		Workflow: "accessionWF",
		Process:  "publish",
		Version:  2,
		Lane:     "default",
		Status:   step.StatusCompleted,
		Attempts: 1,
	}

	if err := e.OnWorkflowCreated(ctx, s.ObjectID, s.Workflow, 2); err != nil {
		t.Fatalf("OnWorkflowCreated() error = %v", err)
	}
	if err := e.OnStepQueued(ctx, s); err != nil {
		t.Fatalf("OnStepQueued() error = %v", err)
	}
	if err := e.OnStepCompleted(ctx, s, 3*time.Second); err != nil {
		t.Fatalf("OnStepCompleted() error = %v", err)
	}

	if len(rec.events) != 3 {
		t.Fatalf("recorded %d events, want 3", len(rec.events))
	}
	if rec.events[0].Action != ActionWorkflowCreated {
		t.Errorf("events[0].Action = %s, want %s", rec.events[0].Action, ActionWorkflowCreated)
	}
	queued := rec.events[1]
	if queued.ResourceID != s.ObjectID {
		t.Errorf("ResourceID = %s, want %s", queued.ResourceID, s.ObjectID)
	}
	if queued.Metadata["process"] != "publish" {
		t.Errorf("metadata process = %v, want publish", queued.Metadata["process"])
	}
	completed := rec.events[2]
	if completed.Metadata["elapsed_ms"] != int64(3000) {
		t.Errorf("elapsed_ms = %v, want 3000", completed.Metadata["elapsed_ms"])
	}
}

func TestExtensionErroredEvent(t *testing.T) {
	rec := &memoryRecorder{}
	e := New(rec)

	s := &step.Step{ObjectID: "druid:bb123cd4567", Workflow: "accessionWF", Process: "publish", ErrorMsg: "no file"}
	if err := e.OnStepErrored(context.Background(), s); err != nil {
		t.Fatalf("OnStepErrored() error = %v", err)
	}

	evt := rec.events[0]
	if evt.Severity != SeverityCritical || evt.Outcome != OutcomeFailure {
		t.Errorf("severity/outcome = %s/%s, want critical/failure", evt.Severity, evt.Outcome)
	}
	if evt.Reason != "no file" {
		t.Errorf("Reason = %q, want no file", evt.Reason)
	}
}

func TestWithActionsFilters(t *testing.T) {
	rec := &memoryRecorder{}
	e := New(rec, WithActions(ActionStepErrored))

	ctx := context.Background()
	s := &step.Step{ObjectID: "druid:bb123cd4567"}
	if err := e.OnStepQueued(ctx, s); err != nil {
		t.Fatalf("OnStepQueued() error = %v", err)
	}
	if err := e.OnStepErrored(ctx, s); err != nil {
		t.Fatalf("OnStepErrored() error = %v", err)
	}

	if len(rec.events) != 1 || rec.events[0].Action != ActionStepErrored {
		t.Errorf("events = %+v, want only the errored action", rec.events)
	}
}

func TestRecorderFailureReturned(t *testing.T) {
	e := New(&memoryRecorder{fail: true})
	err := e.OnStepQueued(context.Background(), &step.Step{ObjectID: "druid:bb123cd4567"})
	if err == nil {
		t.Error("OnStepQueued() with failing recorder returned nil, want error for registry logging")
	}
}
