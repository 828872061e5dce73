// Package redis implements step dispatch over Redis lists. Each lane is a
// list; queued steps are pushed as JSON envelopes and robot pools BRPOP
// their lane's list.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	enq := redisdispatch.New(client)
//	svc := engine.New(store, templates, engine.WithEnqueuer(enq))
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sul-dlss/workflow/backoff"
	"github.com/sul-dlss/workflow/scheduler"
	"github.com/sul-dlss/workflow/step"
)

// Compile-time interface check.
var _ scheduler.Enqueuer = (*Enqueuer)(nil)

// keyPrefix namespaces the per-lane lists.
const keyPrefix = "workflow:lane:"

// Envelope is the JSON message pushed for each queued step. It carries
// everything a robot needs to claim and report the step.
type Envelope struct {
	ObjectID string `json:"object_id"`
	Workflow string `json:"workflow"`
	Process  string `json:"process"`
	Version  int    `json:"version"`
	Lane     string `json:"lane"`
}

// Option configures the Enqueuer.
type Option func(*Enqueuer)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enqueuer) { e.logger = l }
}

// WithRetry retries transient push failures up to maxAttempts total tries,
// delaying between tries per the strategy. A nil strategy uses the default
// jittered exponential backoff.
func WithRetry(strategy backoff.Strategy, maxAttempts int) Option {
	return func(e *Enqueuer) {
		if strategy == nil {
			strategy = backoff.DefaultStrategy()
		}
		e.retry = strategy
		e.maxAttempts = maxAttempts
	}
}

// Enqueuer pushes queued steps onto per-lane Redis lists. The caller owns
// the Redis client lifecycle.
type Enqueuer struct {
	client      redis.Cmdable
	logger      *slog.Logger
	retry       backoff.Strategy
	maxAttempts int
}

// New creates a Redis-backed enqueuer.
func New(client redis.Cmdable, opts ...Option) *Enqueuer {
	e := &Enqueuer{client: client, logger: slog.Default(), maxAttempts: 1}
	for _, o := range opts {
		o(e)
	}
	if e.maxAttempts < 1 {
		e.maxAttempts = 1
	}
	return e
}

// Enqueue pushes the step's envelope onto its lane's list, retrying
// transient failures when configured.
func (e *Enqueuer) Enqueue(ctx context.Context, s *step.Step) error {
	env := Envelope{
		ObjectID: s.ObjectID,
		Workflow: s.Workflow,
		Process:  s.Process,
		Version:  s.Version,
		Lane:     s.Lane,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope for %s/%s: %w", s.ObjectID, s.Process, err)
	}

	var pushErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(e.retry.Delay(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
			e.logger.Warn("retrying dispatch",
				"object_id", s.ObjectID,
				"process", s.Process,
				"attempt", attempt,
				"error", pushErr.Error(),
			)
		}
		pushErr = e.client.LPush(ctx, keyPrefix+s.Lane, payload).Err()
		if pushErr == nil {
			e.logger.Debug("step enqueued",
				"object_id", s.ObjectID,
				"process", s.Process,
				"lane", s.Lane,
			)
			return nil
		}
	}
	return fmt.Errorf("enqueue %s/%s on lane %s: %w", s.ObjectID, s.Process, s.Lane, pushErr)
}

// LaneKey returns the Redis list key for a lane, for consumers that BRPOP.
func LaneKey(lane string) string { return keyPrefix + lane }
