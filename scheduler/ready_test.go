package scheduler

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/sul-dlss/workflow/step"
	"github.com/sul-dlss/workflow/template"
)

// TestReadyProcessesProperty checks the eligibility rule over randomly
// generated templates and step states: a process is ready exactly when it
// is not yet completed, is not flagged skip-queue, and every prerequisite
// has reached a completed status.
func TestReadyProcessesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "processes")

		tmpl := &template.Template{Name: "randomWF"}
		for i := 0; i < n; i++ {
			p := template.Process{
				Name:      fmt.Sprintf("p%d", i),
				SkipQueue: rapid.Bool().Draw(t, fmt.Sprintf("skip%d", i)),
			}
			// Prerequisites reference earlier processes only, keeping
			// the generated graph acyclic.
			if i > 0 {
				for _, j := range rapid.SliceOfNDistinct(rapid.IntRange(0, i-1), 0, i, rapid.ID).Draw(t, fmt.Sprintf("pre%d", i)) {
					p.Prerequisites = append(p.Prerequisites, fmt.Sprintf("p%d", j))
				}
			}
			tmpl.Processes = append(tmpl.Processes, p)
		}

		statuses := []step.Status{
			step.StatusWaiting, step.StatusQueued, step.StatusStarted,
			step.StatusCompleted, step.StatusError, step.StatusSkipped,
			step.StatusRetrying,
		}
		var all []*step.Step
		completed := make(map[string]bool)
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("p%d", i)
			st := statuses[rapid.IntRange(0, len(statuses)-1).Draw(t, "status"+name)]
			all = append(all, &step.Step{Process: name, Status: st})
			if st.Terminal() {
				completed[name] = true
			}
		}

		readySet := make(map[string]bool)
		for _, name := range readyProcesses(tmpl, all) {
			readySet[name] = true
		}

		for i := range tmpl.Processes {
			p := &tmpl.Processes[i]
			prereqsMet := true
			for _, pre := range p.Prerequisites {
				if !completed[pre] {
					prereqsMet = false
					break
				}
			}
			want := !completed[p.Name] && !p.SkipQueue && prereqsMet
			if readySet[p.Name] != want {
				t.Fatalf("process %s: ready = %v, want %v (completed=%v skipQueue=%v prereqsMet=%v)",
					p.Name, readySet[p.Name], want, completed[p.Name], p.SkipQueue, prereqsMet)
			}
		}
	})
}
