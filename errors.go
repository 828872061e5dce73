package workflow

import (
	"errors"
	"fmt"
)

var (
	// Store errors.
	ErrNoStore     = errors.New("workflow: no store configured")
	ErrStoreClosed = errors.New("workflow: store closed")

	// Not found errors.
	ErrTemplateNotFound = errors.New("workflow: template not found")
	ErrWorkflowNotFound = errors.New("workflow: workflow not found")
	ErrStepNotFound     = errors.New("workflow: step not found")
	ErrContextNotFound  = errors.New("workflow: version context not found")

	// Conflict errors.
	ErrConflict = errors.New("workflow: status conflict")
	ErrStale    = errors.New("workflow: step modified concurrently")

	// Validation errors.
	ErrInvalidStatus     = errors.New("workflow: invalid step status")
	ErrUnknownProcess    = errors.New("workflow: process not defined in template")
	ErrDuplicateProcess  = errors.New("workflow: duplicate process in scope")
	ErrMalformedTemplate = errors.New("workflow: malformed template")

	// State errors. Raised when the same process name resolves to more
	// than one row at the latest version — a data-integrity violation,
	// never disambiguated silently.
	ErrDuplicateStep = errors.New("workflow: duplicate step rows for process")
)

// ConflictError reports a failed optimistic current-status check on a
// step update. It matches ErrConflict under errors.Is.
type ConflictError struct {
	ObjectID string
	Process  string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("workflow: %s step %s is %q, caller expected %q",
		e.ObjectID, e.Process, e.Actual, e.Expected)
}

// Is reports whether target is ErrConflict.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
