// Package engine exposes the workflow service facade. It wires the step
// store, the template loader, the scheduler, and any registered extensions
// behind a small set of operations: create a workflow, report step results,
// skip or delete steps, and read workflow state back out.
//
// Usage:
//
//	svc := engine.New(store, templates,
//		engine.WithEnqueuer(enq),
//		engine.WithExtension(metrics),
//	)
//	if err := svc.CreateWorkflow(ctx, "druid:bb123cd4567", "accessionWF", 1, nil, ""); err != nil { ... }
package engine

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/ext"
	"github.com/sul-dlss/workflow/lane"
	"github.com/sul-dlss/workflow/scheduler"
	"github.com/sul-dlss/workflow/step"
	"github.com/sul-dlss/workflow/template"
)

const tracerName = "github.com/sul-dlss/workflow/engine"

// Service is the workflow engine facade. All exported methods are safe for
// concurrent use provided the underlying store is.
type Service struct {
	store     step.Store
	templates *template.Loader
	scheduler *scheduler.Scheduler
	indexer   scheduler.Indexer
	hooks     *ext.Registry
	config    workflow.Config
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New creates a Service bound to a step store and template loader. All
// collaborators beyond those two are optional and configured via options.
func New(store step.Store, templates *template.Loader, opts ...Option) *Service {
	o := &options{
		config: workflow.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.indexer == nil {
		o.indexer = scheduler.NoopIndexer{}
	}
	if o.lanes == nil {
		o.lanes = lane.NewManager()
	}
	hooks := ext.NewRegistry(o.logger)
	for _, e := range o.extensions {
		hooks.Register(e)
	}
	var tracer trace.Tracer
	if o.tracerProvider != nil {
		tracer = o.tracerProvider.Tracer(tracerName)
	} else {
		tracer = otel.Tracer(tracerName)
	}
	sch := scheduler.New(store, templates, o.enqueuer, o.indexer, o.notifier, o.lanes, hooks, o.config, o.logger)
	return &Service{
		store:     store,
		templates: templates,
		scheduler: sch,
		indexer:   o.indexer,
		hooks:     hooks,
		config:    o.config,
		logger:    o.logger,
		tracer:    tracer,
		now:       time.Now,
	}
}

// Extensions returns the hook registry, letting callers register extensions
// after construction.
func (s *Service) Extensions() *ext.Registry { return s.hooks }

// Templates returns the template loader the service reads definitions from.
func (s *Service) Templates() *template.Loader { return s.templates }

// Shutdown notifies registered extensions that the service is stopping.
func (s *Service) Shutdown(ctx workflow.Context) {
	s.hooks.EmitShutdown(ctx)
}
