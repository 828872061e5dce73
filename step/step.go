// Package step defines the persisted step model, version contexts,
// milestones, and the step store interface.
package step

import (
	"fmt"
	"time"

	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/id"
)

// Status is the lifecycle state of a step.
type Status string

const (
	// StatusWaiting means the step's prerequisites are not yet satisfied.
	StatusWaiting Status = "waiting"
	// StatusQueued means the step has been handed to the work queue.
	StatusQueued Status = "queued"
	// StatusStarted means an external worker has begun the step.
	StatusStarted Status = "started"
	// StatusCompleted means the step finished successfully.
	StatusCompleted Status = "completed"
	// StatusError means the step failed; dependents stay ineligible until
	// an operator intervenes.
	StatusError Status = "error"
	// StatusSkipped means the step was administratively bypassed. Skipped
	// counts as completed for prerequisite purposes.
	StatusSkipped Status = "skipped"
	// StatusRetrying means a failed step is being re-attempted.
	StatusRetrying Status = "retrying"
)

// ParseStatus validates a status string supplied by an external caller.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusWaiting, StatusQueued, StatusStarted, StatusCompleted,
		StatusError, StatusSkipped, StatusRetrying:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", workflow.ErrInvalidStatus, s)
}

// Terminal reports whether s counts as completed for prerequisite
// satisfaction: completed or skipped.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// Step is one named unit of work within a workflow instance, persisted
// with its status. A step is identified by (ObjectID, Workflow, Version,
// Process); Process is unique within that scope.
type Step struct {
	workflow.Entity

	ID       id.StepID `json:"id"`
	ObjectID string    `json:"object_id"`
	Workflow string    `json:"workflow"`
	Version  int       `json:"version"`
	Process  string    `json:"process"`

	Status Status `json:"status"`

	// Lifecycle is the milestone label inherited from the template at
	// creation. Empty for processes that carry no milestone.
	Lifecycle string `json:"lifecycle,omitempty"`

	// Lane is the scheduling partition hint consumed by external workers.
	Lane string `json:"lane"`

	// Active is true only for rows in the object's currently-open
	// workflow/version generation.
	Active bool `json:"active_version"`

	Elapsed   float64 `json:"elapsed,omitempty"`
	Attempts  int     `json:"attempts"`
	Note      string  `json:"note,omitempty"`
	ErrorMsg  string  `json:"error_msg,omitempty"`
	ErrorText string  `json:"error_text,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// LockVersion is the optimistic lock counter, incremented by the
	// store on every successful update.
	LockVersion int `json:"-"`
}

// SetStatus applies a status transition, stamping CompletedAt the first
// time the step enters a completed state. CompletedAt is never cleared or
// rewritten by later transitions.
func (s *Step) SetStatus(status Status, now time.Time) {
	s.Status = status
	if status.Terminal() && s.CompletedAt == nil {
		at := now.UTC()
		s.CompletedAt = &at
	}
}

// Clone returns a copy of the step. CompletedAt is copied by value so the
// clone cannot alias the original's timestamp.
func (s *Step) Clone() *Step {
	cp := *s
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}
