package ext

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sul-dlss/workflow/step"
)

// fullExtension implements every hook and records calls.
type fullExtension struct {
	created   int
	queued    int
	completed int
	errored   int
	finished  int
	shutdown  int
	fail      bool
}

func (f *fullExtension) Name() string { return "full" }

func (f *fullExtension) OnWorkflowCreated(context.Context, string, string, int) error {
	f.created++
	return f.err()
}

func (f *fullExtension) OnStepQueued(context.Context, *step.Step) error {
	f.queued++
	return f.err()
}

func (f *fullExtension) OnStepCompleted(context.Context, *step.Step, time.Duration) error {
	f.completed++
	return f.err()
}

func (f *fullExtension) OnStepErrored(context.Context, *step.Step) error {
	f.errored++
	return f.err()
}

func (f *fullExtension) OnWorkflowFinished(context.Context, *step.Step) error {
	f.finished++
	return f.err()
}

func (f *fullExtension) OnShutdown(context.Context) error {
	f.shutdown++
	return f.err()
}

func (f *fullExtension) err() error {
	if f.fail {
		return errors.New("hook failure")
	}
	return nil
}

// queuedOnly implements just one hook.
type queuedOnly struct{ queued int }

func (q *queuedOnly) Name() string { return "queued-only" }

func (q *queuedOnly) OnStepQueued(context.Context, *step.Step) error {
	q.queued++
	return nil
}

func TestRegistryDispatchesToImplementedHooks(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(slog.Default())

	full := &fullExtension{}
	only := &queuedOnly{}
	r.Register(full)
	r.Register(only)

	if got := len(r.Extensions()); got != 2 {
		t.Fatalf("len(Extensions) = %d, want 2", got)
	}

	s := &step.Step{ObjectID: "druid:bb123cd4567", Process: "publish"}
	r.EmitWorkflowCreated(ctx, s.ObjectID, "accessionWF", 1)
	r.EmitStepQueued(ctx, s)
	r.EmitStepCompleted(ctx, s, time.Second)
	r.EmitStepErrored(ctx, s)
	r.EmitWorkflowFinished(ctx, s)
	r.EmitShutdown(ctx)

	if full.created != 1 || full.queued != 1 || full.completed != 1 ||
		full.errored != 1 || full.finished != 1 || full.shutdown != 1 {
		t.Errorf("full extension calls = %+v, want one each", full)
	}
	if only.queued != 1 {
		t.Errorf("queued-only calls = %d, want 1", only.queued)
	}
}

func TestRegistryHookErrorsDoNotPropagate(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(slog.Default())
	failing := &fullExtension{fail: true}
	after := &queuedOnly{}
	r.Register(failing)
	r.Register(after)

	// A failing hook is logged and the remaining extensions still run.
	r.EmitStepQueued(ctx, &step.Step{Process: "publish"})
	if failing.queued != 1 {
		t.Errorf("failing extension called %d times, want 1", failing.queued)
	}
	if after.queued != 1 {
		t.Errorf("extension after failure called %d times, want 1", after.queued)
	}
}
