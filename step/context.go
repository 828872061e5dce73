package step

import (
	"github.com/sul-dlss/workflow"
	"github.com/sul-dlss/workflow/id"
)

// VersionContext is an optional key/value bag scoped to (object, version),
// supplied by the workflow creator and attached to steps for external
// workers. At most one row exists per (ObjectID, Version).
type VersionContext struct {
	workflow.Entity

	ID       id.ContextID      `json:"id"`
	ObjectID string            `json:"object_id"`
	Version  int               `json:"version"`
	Values   map[string]string `json:"values"`
}
