package passmanager

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Stage is an ordered group of passes sharing one optional condition. The
// condition is evaluated once per stage, immediately before it runs.
type Stage struct {
	// Condition is nil for unconditional stages.
	Condition Condition
	Passes    []Pass
}

// Always builds an unconditional stage.
func Always(passes ...Pass) Stage {
	return Stage{Passes: passes}
}

// When builds a stage that runs only when cond holds.
func When(cond Condition, passes ...Pass) Stage {
	return Stage{Condition: cond, Passes: passes}
}

// Conditional reports whether the stage has a condition.
func (s Stage) Conditional() bool {
	return s.Condition != nil
}

// PassNames returns the names of the stage's passes in order.
func (s Stage) PassNames() []string {
	names := make([]string, len(s.Passes))
	for i, p := range s.Passes {
		names[i] = p.Name()
	}
	return names
}

func (s Stage) String() string {
	cond := "always"
	if s.Condition != nil {
		cond = s.Condition.String()
	}
	return fmt.Sprintf("[%s] %s", cond, strings.Join(s.PassNames(), ", "))
}

// Pipeline is an immutable ordered sequence of stages.
type Pipeline struct {
	name   string
	stages []Stage
}

// New assembles a pipeline. Stages without passes are dropped.
func New(name string, stages ...Stage) *Pipeline {
	p := &Pipeline{name: name}
	for _, s := range stages {
		if len(s.Passes) == 0 {
			continue
		}
		p.stages = append(p.stages, Stage{
			Condition: s.Condition,
			Passes:    slices.Clone(s.Passes),
		})
	}
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return p.name
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Stages returns a copy of the stages.
func (p *Pipeline) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	for i, s := range p.stages {
		out[i] = Stage{Condition: s.Condition, Passes: slices.Clone(s.Passes)}
	}
	return out
}

// Describe returns one line per stage.
func (p *Pipeline) Describe() []string {
	lines := make([]string, len(p.stages))
	for i, s := range p.stages {
		lines[i] = fmt.Sprintf("%d %s", i, s)
	}
	return lines
}

// VerifyDataFlow checks that every key a stage condition reads is written by a
// pass in an earlier stage, or is listed in provided (keys produced outside
// this pipeline).
func VerifyDataFlow(p *Pipeline, provided ...string) error {
	available := map[string]bool{}
	for _, k := range provided {
		available[k] = true
	}
	for i, s := range p.stages {
		if s.Condition != nil {
			for _, k := range s.Condition.Reads() {
				if !available[k] {
					return errors.Errorf(
						"verify data flow: %s stage %d condition %q reads %s, which no "+
							"earlier stage writes",
						p.name,
						i,
						s.Condition,
						k,
					)
				}
			}
		}
		for _, pass := range s.Passes {
			if prod, ok := pass.(Producer); ok {
				for _, k := range prod.Writes() {
					available[k] = true
				}
			}
		}
	}
	return nil
}

// Writes returns the keys the pipeline's passes declare they write.
func (p *Pipeline) Writes() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range p.stages {
		for _, pass := range s.Passes {
			if prod, ok := pass.(Producer); ok {
				for _, k := range prod.Writes() {
					if !seen[k] {
						seen[k] = true
						out = append(out, k)
					}
				}
			}
		}
	}
	return out
}
