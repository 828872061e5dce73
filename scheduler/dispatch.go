package scheduler

import (
	"context"

	"github.com/sul-dlss/workflow/step"
)

// Enqueuer hands a queued step to an out-of-process worker pool.
// At-most-once delivery is the scheduler's responsibility; at-least-once
// execution is the worker's.
type Enqueuer interface {
	Enqueue(ctx context.Context, s *step.Step) error
}

// Indexer refreshes an object's searchable projection. The scheduler
// calls ReindexNow after each sweep so the index reflects the committed
// step change; bulk administrative operations use ReindexLater.
type Indexer interface {
	ReindexNow(ctx context.Context, objectID string) error
	ReindexLater(ctx context.Context, objectID string) error
}

// Notifier publishes the fire-and-forget "workflow finished" event when
// the terminal step of the terminal workflow completes.
type Notifier interface {
	Publish(ctx context.Context, s *step.Step) error
}

// NoopEnqueuer discards dispatched steps. Useful in tests and in
// deployments where workers poll the store directly.
type NoopEnqueuer struct{}

// Enqueue implements Enqueuer.
func (NoopEnqueuer) Enqueue(context.Context, *step.Step) error { return nil }

// NoopIndexer ignores reindex requests.
type NoopIndexer struct{}

// ReindexNow implements Indexer.
func (NoopIndexer) ReindexNow(context.Context, string) error { return nil }

// ReindexLater implements Indexer.
func (NoopIndexer) ReindexLater(context.Context, string) error { return nil }

// NoopNotifier ignores published notifications.
type NoopNotifier struct{}

// Publish implements Notifier.
func (NoopNotifier) Publish(context.Context, *step.Step) error { return nil }
