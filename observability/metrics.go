// Package observability provides a metrics extension that records workflow
// engine activity through OpenTelemetry.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sul-dlss/workflow/ext"
	"github.com/sul-dlss/workflow/step"
)

// meterName is the instrumentation scope name for workflow metrics.
const meterName = "github.com/sul-dlss/workflow"

// Compile-time hook checks.
var (
	_ ext.WorkflowCreated  = (*MetricsExtension)(nil)
	_ ext.StepQueued       = (*MetricsExtension)(nil)
	_ ext.StepCompleted    = (*MetricsExtension)(nil)
	_ ext.StepErrored      = (*MetricsExtension)(nil)
	_ ext.WorkflowFinished = (*MetricsExtension)(nil)
)

// MetricsExtension records counters and a step duration histogram for every
// engine lifecycle event it observes.
//
// Instruments:
//   - workflow.steps.queued (Int64Counter): steps handed to the queue,
//     with attributes: workflow, process, lane
//   - workflow.steps.completed (Int64Counter): steps reaching a completed
//     status, with attributes: workflow, process, status
//   - workflow.steps.errored (Int64Counter): step failures,
//     with attributes: workflow, process
//   - workflow.step.duration (Float64Histogram): reported step time in
//     seconds, with attributes: workflow, process
//   - workflow.workflows.created (Int64Counter): workflows instantiated,
//     with attribute: workflow
//   - workflow.workflows.finished (Int64Counter): objects completing the
//     terminal workflow, with attribute: workflow
type MetricsExtension struct {
	stepsQueued    metric.Int64Counter
	stepsCompleted metric.Int64Counter
	stepsErrored   metric.Int64Counter
	stepDuration   metric.Float64Histogram
	created        metric.Int64Counter
	finished       metric.Int64Counter
}

// NewMetricsExtension creates the extension using the global OTel
// MeterProvider. With no provider configured the instruments are noops.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates the extension with an explicit
// meter, letting tests inject a manual-reader provider.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// Instruments are created once; on error the OTel API returns noop
	// instruments, so the extension degrades gracefully.
	m.stepsQueued, _ = meter.Int64Counter(
		"workflow.steps.queued",
		metric.WithDescription("Steps handed to the work queue"),
		metric.WithUnit("{step}"),
	)
	m.stepsCompleted, _ = meter.Int64Counter(
		"workflow.steps.completed",
		metric.WithDescription("Steps reaching a completed status"),
		metric.WithUnit("{step}"),
	)
	m.stepsErrored, _ = meter.Int64Counter(
		"workflow.steps.errored",
		metric.WithDescription("Step failures reported by workers"),
		metric.WithUnit("{step}"),
	)
	m.stepDuration, _ = meter.Float64Histogram(
		"workflow.step.duration",
		metric.WithDescription("Reported step execution time in seconds"),
		metric.WithUnit("s"),
	)
	m.created, _ = meter.Int64Counter(
		"workflow.workflows.created",
		metric.WithDescription("Workflow instances created"),
		metric.WithUnit("{workflow}"),
	)
	m.finished, _ = meter.Int64Counter(
		"workflow.workflows.finished",
		metric.WithDescription("Objects completing the terminal workflow"),
		metric.WithUnit("{workflow}"),
	)
	return m
}

func (m *MetricsExtension) Name() string { return "metrics" }

func (m *MetricsExtension) OnWorkflowCreated(ctx context.Context, objectID, wf string, version int) error {
	m.created.Add(ctx, 1, metric.WithAttributes(attribute.String("workflow", wf)))
	return nil
}

func (m *MetricsExtension) OnStepQueued(ctx context.Context, s *step.Step) error {
	m.stepsQueued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow", s.Workflow),
		attribute.String("process", s.Process),
		attribute.String("lane", s.Lane),
	))
	return nil
}

func (m *MetricsExtension) OnStepCompleted(ctx context.Context, s *step.Step, elapsed time.Duration) error {
	attrs := metric.WithAttributes(
		attribute.String("workflow", s.Workflow),
		attribute.String("process", s.Process),
	)
	m.stepsCompleted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow", s.Workflow),
		attribute.String("process", s.Process),
		attribute.String("status", string(s.Status)),
	))
	if elapsed > 0 {
		m.stepDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
	return nil
}

func (m *MetricsExtension) OnStepErrored(ctx context.Context, s *step.Step) error {
	m.stepsErrored.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow", s.Workflow),
		attribute.String("process", s.Process),
	))
	return nil
}

func (m *MetricsExtension) OnWorkflowFinished(ctx context.Context, s *step.Step) error {
	m.finished.Add(ctx, 1, metric.WithAttributes(attribute.String("workflow", s.Workflow)))
	return nil
}
