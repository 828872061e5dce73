package template

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/sul-dlss/workflow"
)

// xmlWorkflow mirrors the on-disk template schema:
//
//	<workflow id="accessionWF">
//	  <process name="start-accession" sequence="1" lifecycle="submitted"/>
//	  <process name="publish" sequence="2" laneId="fast">
//	    <prereq>start-accession</prereq>
//	  </process>
//	</workflow>
type xmlWorkflow struct {
	XMLName   xml.Name     `xml:"workflow"`
	ID        string       `xml:"id,attr"`
	Processes []xmlProcess `xml:"process"`
}

type xmlProcess struct {
	Name      string   `xml:"name,attr"`
	Sequence  int      `xml:"sequence,attr"`
	Label     string   `xml:"label,attr"`
	Lifecycle string   `xml:"lifecycle,attr"`
	Lane      string   `xml:"laneId,attr"`
	SkipQueue bool     `xml:"skip-queue,attr"`
	Prereqs   []string `xml:"prereq"`
}

// Parse parses an XML workflow template document. Malformed content —
// bad XML, a missing id, duplicate or unknown process references — is
// reported as an error wrapping workflow.ErrMalformedTemplate, never
// silently ignored.
func Parse(data []byte) (*Template, error) {
	var doc xmlWorkflow
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("workflow/template: parse: %v: %w", err, workflow.ErrMalformedTemplate)
	}

	if doc.ID == "" {
		return nil, fmt.Errorf("workflow/template: parse: missing workflow id: %w", workflow.ErrMalformedTemplate)
	}
	if len(doc.Processes) == 0 {
		return nil, fmt.Errorf("workflow/template: parse %q: no processes: %w", doc.ID, workflow.ErrMalformedTemplate)
	}

	// Order by declared sequence; input documents keep them sorted but
	// the attribute is authoritative.
	procs := make([]xmlProcess, len(doc.Processes))
	copy(procs, doc.Processes)
	sort.SliceStable(procs, func(i, j int) bool { return procs[i].Sequence < procs[j].Sequence })

	t := &Template{Name: doc.ID, Processes: make([]Process, 0, len(procs))}
	seen := make(map[string]bool, len(procs))
	for _, p := range procs {
		if p.Name == "" {
			return nil, fmt.Errorf("workflow/template: parse %q: process without name: %w", doc.ID, workflow.ErrMalformedTemplate)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("workflow/template: parse %q: duplicate process %q: %w", doc.ID, p.Name, workflow.ErrMalformedTemplate)
		}
		seen[p.Name] = true

		t.Processes = append(t.Processes, Process{
			Name:          p.Name,
			Label:         p.Label,
			Lifecycle:     p.Lifecycle,
			Lane:          p.Lane,
			SkipQueue:     p.SkipQueue,
			Prerequisites: p.Prereqs,
		})
	}

	// Every prerequisite must name a process in the same template.
	for _, p := range t.Processes {
		for _, pre := range p.Prerequisites {
			if !seen[pre] {
				return nil, fmt.Errorf("workflow/template: parse %q: process %q requires unknown process %q: %w",
					doc.ID, p.Name, pre, workflow.ErrMalformedTemplate)
			}
		}
	}

	return t, nil
}
