package workflow

import "time"

// Config holds engine-level configuration.
type Config struct {
	// DefaultLane is the scheduling lane assigned to steps whose template
	// declares no lane and whose creator supplies no override.
	DefaultLane string

	// TerminalWorkflow and TerminalProcess identify the (workflow, process)
	// pair whose completion marks an object fully processed. When that
	// step completes, a finished notification is published once.
	TerminalWorkflow string
	TerminalProcess  string

	// PublishDelay is how long to wait after the terminal step completes
	// before publishing the finished notification. The delay papers over a
	// commit-ordering race in the downstream search index; keep it
	// configurable rather than load-bearing.
	PublishDelay time.Duration

	// AccessionWorkflow is the workflow consulted by accessioning-state
	// queries. Its terminal process is TerminalProcess.
	AccessionWorkflow string

	// AssemblyWorkflow and AssemblyEndProcess drive the assembling-state
	// query: the object is assembling while any other step of the
	// assembly workflow is incomplete.
	AssemblyWorkflow   string
	AssemblyEndProcess string

	// AccessionedMilestone is the lifecycle label that marks an object as
	// having completed accessioning at least once.
	AccessionedMilestone string
}

// DefaultConfig returns a Config with the conventional workflow names.
func DefaultConfig() Config {
	return Config{
		DefaultLane:          "default",
		TerminalWorkflow:     "accessionWF",
		TerminalProcess:      "end-accession",
		PublishDelay:         time.Second,
		AccessionWorkflow:    "accessionWF",
		AssemblyWorkflow:     "assemblyWF",
		AssemblyEndProcess:   "accessioning-initiate",
		AccessionedMilestone: "accessioned",
	}
}
