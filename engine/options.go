package engine

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/ext"
	"github.com/sul-dlss/workflow/lane"
	"github.com/sul-dlss/workflow/scheduler"
)

type options struct {
	config         workflow.Config
	logger         *slog.Logger
	enqueuer       scheduler.Enqueuer
	indexer        scheduler.Indexer
	notifier       scheduler.Notifier
	lanes          *lane.Manager
	extensions     []ext.Extension
	tracerProvider trace.TracerProvider
}

// Option configures the Service.
type Option func(*options)

// WithConfig replaces the default engine configuration.
func WithConfig(cfg workflow.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEnqueuer sets the dispatcher that hands queued steps to robots.
func WithEnqueuer(e scheduler.Enqueuer) Option {
	return func(o *options) { o.enqueuer = e }
}

// WithIndexer sets the search-index notifier.
func WithIndexer(i scheduler.Indexer) Option {
	return func(o *options) { o.indexer = i }
}

// WithNotifier sets the terminal-workflow notifier.
func WithNotifier(n scheduler.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithExtension registers an extension at construction time.
func WithExtension(e ext.Extension) Option {
	return func(o *options) { o.extensions = append(o.extensions, e) }
}

// WithLaneConfig applies a throttle configuration for a lane.
func WithLaneConfig(cfgs ...lane.Config) Option {
	return func(o *options) {
		if o.lanes == nil {
			o.lanes = lane.NewManager()
		}
		for _, c := range cfgs {
			o.lanes.SetConfig(c)
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. Defaults to the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}
