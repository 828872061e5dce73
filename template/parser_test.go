package template

import (
	"errors"
	"testing"

	"github.com/sul-dlss/workflow"
)

func TestParse(t *testing.T) {
	doc := []byte(`<workflow id="exampleWF">
		<process name="second" sequence="2" laneId="slow"><prereq>first</prereq></process>
		<process name="first" sequence="1" label="First" lifecycle="started"/>
		<process name="third" sequence="3" skip-queue="true">
			<prereq>first</prereq>
			<prereq>second</prereq>
		</process>
	</workflow>`)

	tmpl, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tmpl.Name != "exampleWF" {
		t.Errorf("Name = %q, want %q", tmpl.Name, "exampleWF")
	}
	got := tmpl.ProcessNames()
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("ProcessNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ProcessNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	first := tmpl.Process("first")
	if first == nil {
		t.Fatal("Process(first) = nil")
	}
	if first.Lifecycle != "started" {
		t.Errorf("first.Lifecycle = %q, want %q", first.Lifecycle, "started")
	}
	if first.Label != "First" {
		t.Errorf("first.Label = %q, want %q", first.Label, "First")
	}

	second := tmpl.Process("second")
	if second.Lane != "slow" {
		t.Errorf("second.Lane = %q, want %q", second.Lane, "slow")
	}
	if len(second.Prerequisites) != 1 || second.Prerequisites[0] != "first" {
		t.Errorf("second.Prerequisites = %v, want [first]", second.Prerequisites)
	}

	third := tmpl.Process("third")
	if !third.SkipQueue {
		t.Error("third.SkipQueue = false, want true")
	}
	if len(third.Prerequisites) != 2 {
		t.Errorf("third.Prerequisites = %v, want two entries", third.Prerequisites)
	}

	if f := tmpl.First(); f == nil || f.Name != "first" {
		t.Errorf("First() = %v, want first", f)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad xml", `<workflow id="x"><process`},
		{"missing id", `<workflow><process name="a" sequence="1"/></workflow>`},
		{"no processes", `<workflow id="x"></workflow>`},
		{"unnamed process", `<workflow id="x"><process sequence="1"/></workflow>`},
		{"duplicate process", `<workflow id="x"><process name="a" sequence="1"/><process name="a" sequence="2"/></workflow>`},
		{"unknown prereq", `<workflow id="x"><process name="a" sequence="1"><prereq>missing</prereq></process></workflow>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, workflow.ErrMalformedTemplate) {
				t.Errorf("Parse() error = %v, want ErrMalformedTemplate", err)
			}
		})
	}
}
