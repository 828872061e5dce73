// Package template loads and parses workflow template definitions.
//
// Templates are file-backed XML documents, one per workflow name,
// describing the ordered list of named processes, their prerequisite
// edges, lifecycle labels, and lane assignments. The Loader caches
// parsed templates for the process lifetime: picking up template
// changes requires a restart.
package template

// Template is a named workflow definition: an ordered list of processes
// with prerequisite edges.
type Template struct {
	Name      string
	Processes []Process
}

// Process is one named unit of work within a workflow template.
type Process struct {
	// Name uniquely identifies the process within its workflow.
	Name string

	// Label is the human-readable description shown in reporting.
	Label string

	// Lifecycle is an optional milestone label attached to steps created
	// from this process. Empty means the process carries no milestone.
	Lifecycle string

	// Lane is the scheduling lane steps created from this process default
	// to. Empty means the engine's default lane.
	Lane string

	// SkipQueue marks processes advanced by external logic rather than
	// the scheduler; the scheduler never flips them to queued.
	SkipQueue bool

	// Prerequisites lists the process names that must be completed or
	// skipped before this process becomes eligible.
	Prerequisites []string
}

// Process returns the named process definition, or nil if the template
// does not define it.
func (t *Template) Process(name string) *Process {
	for i := range t.Processes {
		if t.Processes[i].Name == name {
			return &t.Processes[i]
		}
	}
	return nil
}

// First returns the first process in template order. Creation seeds the
// scheduler with it. Returns nil for an empty template.
func (t *Template) First() *Process {
	if len(t.Processes) == 0 {
		return nil
	}
	return &t.Processes[0]
}

// ProcessNames returns all process names in template order.
func (t *Template) ProcessNames() []string {
	names := make([]string, len(t.Processes))
	for i := range t.Processes {
		names[i] = t.Processes[i].Name
	}
	return names
}
