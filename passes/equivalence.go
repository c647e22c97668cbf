package passes

import (
	"math"
	"slices"

	"github.com/pkg/errors"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
)

// Equivalence is a rewrite rule expressing a gate in terms of other gates.
type Equivalence struct {
	Name      string
	NumQubits int
	NumParams int
	// Produces lists the gate emitted by each operation of the rule's body.
	Produces []string
	build    func(params []float64) *circuit.Circuit
}

// Apply expands op with the rule.
func (e Equivalence) Apply(op circuit.Operation) ([]circuit.Operation, error) {
	if len(op.Qubits) != e.NumQubits || len(op.Params) != e.NumParams {
		return nil, errors.Errorf(
			"rule for %s expects %d qubits and %d params, got %d and %d",
			e.Name,
			e.NumQubits,
			e.NumParams,
			len(op.Qubits),
			len(op.Params),
		)
	}
	return circuit.Inline(op, e.build(op.Params))
}

// EquivalenceLibrary holds the rewrite rules used for basis translation.
type EquivalenceLibrary struct {
	rules map[string][]Equivalence
}

// NewEquivalenceLibrary creates an empty library.
func NewEquivalenceLibrary() *EquivalenceLibrary {
	return &EquivalenceLibrary{rules: map[string][]Equivalence{}}
}

// Add registers a rule for name. build receives the operation parameters and
// returns the body over qubits [0, numQubits).
func (l *EquivalenceLibrary) Add(
	name string,
	numQubits int,
	numParams int,
	build func(params []float64) *circuit.Circuit,
) {
	body := build(make([]float64, numParams))
	produces := make([]string, len(body.Ops))
	for i, op := range body.Ops {
		produces[i] = op.Name
	}
	l.rules[name] = append(l.rules[name], Equivalence{
		Name:      name,
		NumQubits: numQubits,
		NumParams: numParams,
		Produces:  produces,
		build:     build,
	})
}

// Has reports whether any rule exists for name.
func (l *EquivalenceLibrary) Has(name string) bool {
	if l == nil {
		return false
	}
	return len(l.rules[name]) > 0
}

// Rules returns the rules registered for name.
func (l *EquivalenceLibrary) Rules(name string) []Equivalence {
	if l == nil {
		return nil
	}
	return slices.Clone(l.rules[name])
}

// Names returns every gate with at least one rule, sorted.
func (l *EquivalenceLibrary) Names() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l.rules))
	for name := range l.rules {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Expand returns the body of the first rule matching op's shape.
func (l *EquivalenceLibrary) Expand(op circuit.Operation) (*circuit.Circuit, bool) {
	for _, rule := range l.Rules(op.Name) {
		if rule.NumQubits == len(op.Qubits) && rule.NumParams == len(op.Params) {
			return rule.build(op.Params), true
		}
	}
	return nil, false
}

// StandardEquivalenceLibrary returns the rules for the standard gate set.
func StandardEquivalenceLibrary() *EquivalenceLibrary {
	l := NewEquivalenceLibrary()

	for _, name := range []string{
		"h", "s", "sdg", "t", "tdg", "z", "swap", "cz", "ccx", "cswap",
	} {
		n := 1
		switch name {
		case "swap", "cz":
			n = 2
		case "ccx", "cswap":
			n = 3
		}
		qubits := make([]int, n)
		for i := range qubits {
			qubits[i] = i
		}
		l.Add(name, n, 0, func([]float64) *circuit.Circuit {
			def, _ := circuit.StandardDefinition(circuit.Operation{
				Name:   name,
				Qubits: qubits,
			})
			return def
		})
	}

	l.Add("id", 1, 0, func([]float64) *circuit.Circuit {
		return circuit.New("id", 1, 0)
	})
	l.Add("x", 1, 0, func([]float64) *circuit.Circuit {
		return circuit.New("x", 1, 0).Add("sx", 0).Add("sx", 0)
	})
	l.Add("sxdg", 1, 0, func([]float64) *circuit.Circuit {
		return circuit.New("sxdg", 1, 0).Add("sx", 0).Add("sx", 0).Add("sx", 0)
	})
	l.Add("y", 1, 0, func([]float64) *circuit.Circuit {
		c := circuit.New("y", 1, 0)
		c.Ops = append(c.Ops, rz(math.Pi, 0))
		return c.Add("x", 0)
	})
	l.Add("rx", 1, 1, func(p []float64) *circuit.Circuit {
		c := circuit.New("rx", 1, 0).Add("h", 0)
		c.Ops = append(c.Ops, rz(p[0], 0))
		return c.Add("h", 0)
	})
	l.Add("ry", 1, 1, func(p []float64) *circuit.Circuit {
		c := circuit.New("ry", 1, 0).Add("sdg", 0)
		c.Ops = append(c.Ops, circuit.Operation{
			Name:   "rx",
			Qubits: []int{0},
			Params: []float64{p[0]},
		})
		return c.Add("s", 0)
	})
	for _, name := range []string{"p", "u1"} {
		l.Add(name, 1, 1, func(p []float64) *circuit.Circuit {
			c := circuit.New(name, 1, 0)
			c.Ops = append(c.Ops, rz(p[0], 0))
			return c
		})
	}
	for _, name := range []string{"u", "u3"} {
		l.Add(name, 1, 3, func(p []float64) *circuit.Circuit {
			c := circuit.New(name, 1, 0)
			c.Ops = append(c.Ops, rz(p[2], 0))
			c.Add("sx", 0)
			c.Ops = append(c.Ops, rz(p[0]+math.Pi, 0))
			c.Add("sx", 0)
			c.Ops = append(c.Ops, rz(p[1]+math.Pi, 0))
			return c
		})
	}
	l.Add("cx", 2, 0, func([]float64) *circuit.Circuit {
		return circuit.New("cx", 2, 0).Add("h", 1).Add("cz", 0, 1).Add("h", 1)
	})
	l.Add("rzz", 2, 1, func(p []float64) *circuit.Circuit {
		c := circuit.New("rzz", 2, 0).Add("cx", 0, 1)
		c.Ops = append(c.Ops, rz(p[0], 1))
		return c.Add("cx", 0, 1)
	})

	return l
}

func rz(theta float64, q int) circuit.Operation {
	return circuit.Operation{
		Name:   "rz",
		Qubits: []int{q},
		Params: []float64{theta},
	}
}

// BasisTranslator rewrites every operation into the basis by searching the
// equivalence library for the cheapest chain of rules reaching it.
type BasisTranslator struct {
	Basis   Basis
	Library *EquivalenceLibrary
}

func (BasisTranslator) Name() string { return "BasisTranslator" }

func (p BasisTranslator) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	if len(p.Basis) == 0 {
		return c, nil
	}
	plan := p.search()

	var translate func(op circuit.Operation, depth int) ([]circuit.Operation, error)
	translate = func(op circuit.Operation, depth int) ([]circuit.Operation, error) {
		if p.Basis.Contains(op.Name) {
			return []circuit.Operation{op}, nil
		}
		rule, ok := plan[op.Name]
		if !ok {
			return nil, errors.Errorf(
				"unable to translate %s to basis %v",
				op.Name,
				[]string(p.Basis),
			)
		}
		if depth >= maxExpansionDepth {
			return nil, errors.Errorf("translation of %s does not terminate", op.Name)
		}
		inner, err := rule.Apply(op)
		if err != nil {
			return nil, err
		}
		out := make([]circuit.Operation, 0, len(inner))
		for _, in := range inner {
			sub, err := translate(in, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	}

	out, err := rewriteOps(c, func(op circuit.Operation) ([]circuit.Operation, error) {
		return translate(op, 0)
	})
	return out, errors.Wrap(err, "basis translator")
}

// search picks, for every gate reachable from the basis, the rule with the
// lowest total number of basis operations. Costs are relaxed until they stop
// improving, which handles cyclic rule sets.
func (p BasisTranslator) search() map[string]Equivalence {
	cost := map[string]int{}
	for _, name := range p.Basis {
		cost[name] = 0
	}
	plan := map[string]Equivalence{}

	names := p.Library.Names()
	for changed := true; changed; {
		changed = false
		for _, name := range names {
			if p.Basis.Contains(name) {
				continue
			}
			for _, rule := range p.Library.Rules(name) {
				total, ok := 0, true
				for _, produced := range rule.Produces {
					c, known := cost[produced]
					if !known && !p.Basis.Contains(produced) {
						ok = false
						break
					}
					total += c
				}
				if !ok {
					continue
				}
				total++
				if old, known := cost[name]; !known || total < old {
					cost[name] = total
					plan[name] = rule
					changed = true
				}
			}
		}
	}
	return plan
}
