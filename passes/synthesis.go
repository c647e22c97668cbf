package passes

import (
	"slices"
	"sync"

	"github.com/pkg/errors"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

// UnitaryName is the name of dense unitary operations, as produced by
// ConsolidateBlocks or supplied by users.
const UnitaryName = "unitary"

// SynthesisOptions are handed to a unitary synthesis plugin.
type SynthesisOptions struct {
	Basis Basis
	// ApproximationDegree is nil for exact synthesis.
	ApproximationDegree *float64
	Coupling            *target.CouplingMap
	Config              map[string]any
}

// UnitarySynthesisPlugin synthesizes a unitary operation into the basis.
type UnitarySynthesisPlugin interface {
	Synthesize(
		op circuit.Operation,
		opts SynthesisOptions,
	) ([]circuit.Operation, error)
}

var (
	standardLibrary = StandardEquivalenceLibrary()

	pluginsMx sync.RWMutex
	plugins   = map[string]UnitarySynthesisPlugin{
		"default": defaultSynthesis{},
	}
)

// RegisterUnitarySynthesisPlugin makes a plugin available under name,
// replacing any earlier registration.
func RegisterUnitarySynthesisPlugin(name string, plugin UnitarySynthesisPlugin) {
	pluginsMx.Lock()
	defer pluginsMx.Unlock()
	plugins[name] = plugin
}

// LookupUnitarySynthesisPlugin returns the plugin registered under name.
func LookupUnitarySynthesisPlugin(name string) (UnitarySynthesisPlugin, bool) {
	pluginsMx.RLock()
	defer pluginsMx.RUnlock()
	p, ok := plugins[name]
	return p, ok
}

// UnitarySynthesisMethods lists the registered plugin names.
func UnitarySynthesisMethods() []string {
	pluginsMx.RLock()
	defer pluginsMx.RUnlock()
	out := make([]string, 0, len(plugins))
	for name := range plugins {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// defaultSynthesis expands the unitary's definition with the standard
// definitions until every operation is native. Approximation is not
// supported and the degree is ignored.
type defaultSynthesis struct{}

func (defaultSynthesis) Synthesize(
	op circuit.Operation,
	opts SynthesisOptions,
) ([]circuit.Operation, error) {
	if op.Definition == nil {
		return nil, errors.Errorf("unitary on %v has no matrix definition", op.Qubits)
	}
	done := func(o circuit.Operation) bool { return opts.Basis.Contains(o.Name) }
	return expandUntil(op, done, Unroller{Library: standardLibrary}.define, 0)
}

// UnitarySynthesis resynthesizes unitary operations acting on at least
// MinQubits qubits into the basis, through the plugin named by Method.
type UnitarySynthesis struct {
	Basis               Basis
	MinQubits           int
	ApproximationDegree *float64
	Method              string
	PluginConfig        map[string]any
	Coupling            *target.CouplingMap
}

func (UnitarySynthesis) Name() string { return "UnitarySynthesis" }

func (p UnitarySynthesis) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	if len(p.Basis) == 0 {
		return c, nil
	}
	method := p.Method
	if method == "" {
		method = "default"
	}
	plugin, ok := LookupUnitarySynthesisPlugin(method)
	if !ok {
		return nil, errors.Errorf("unitary synthesis plugin %q not registered", method)
	}
	opts := SynthesisOptions{
		Basis:               p.Basis,
		ApproximationDegree: p.ApproximationDegree,
		Coupling:            p.Coupling,
		Config:              p.PluginConfig,
	}

	out, err := rewriteOps(c, func(op circuit.Operation) ([]circuit.Operation, error) {
		if op.Name != UnitaryName || len(op.Qubits) < p.MinQubits {
			return []circuit.Operation{op}, nil
		}
		return plugin.Synthesize(op, opts)
	})
	return out, errors.Wrap(err, "unitary synthesis")
}

// HighLevelSynthesis synthesizes high-level objects: multi-controlled X gates
// and qubit permutations.
type HighLevelSynthesis struct {
	Basis Basis
}

func (HighLevelSynthesis) Name() string { return "HighLevelSynthesis" }

func (p HighLevelSynthesis) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	out, err := rewriteOps(c, func(op circuit.Operation) ([]circuit.Operation, error) {
		if p.Basis.Contains(op.Name) {
			return []circuit.Operation{op}, nil
		}
		switch op.Name {
		case "mcx":
			return synthesizeMCX(op)
		case "permutation":
			return synthesizePermutation(op)
		}
		return []circuit.Operation{op}, nil
	})
	return out, errors.Wrap(err, "high level synthesis")
}

func synthesizeMCX(op circuit.Operation) ([]circuit.Operation, error) {
	name := ""
	switch len(op.Qubits) {
	case 1:
		name = "x"
	case 2:
		name = "cx"
	case 3:
		name = "ccx"
	default:
		return nil, errors.Errorf(
			"mcx with %d controls needs ancillas",
			len(op.Qubits)-1,
		)
	}
	return []circuit.Operation{{
		Name:   name,
		Qubits: slices.Clone(op.Qubits),
		Label:  op.Label,
	}}, nil
}

// synthesizePermutation turns a permutation, given as Params where qubit i
// moves to position Params[i], into swaps following its cycles.
func synthesizePermutation(op circuit.Operation) ([]circuit.Operation, error) {
	n := len(op.Qubits)
	if len(op.Params) != n {
		return nil, errors.Errorf(
			"permutation on %d qubits has %d entries",
			n,
			len(op.Params),
		)
	}
	perm := make([]int, n)
	seen := make([]bool, n)
	for i, v := range op.Params {
		j := int(v)
		if float64(j) != v || j < 0 || j >= n || seen[j] {
			return nil, errors.Errorf("invalid permutation %v", op.Params)
		}
		seen[j] = true
		perm[i] = j
	}

	out := []circuit.Operation{}
	visited := make([]bool, n)
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		cycle := []int{start}
		visited[start] = true
		for next := perm[start]; next != start; next = perm[next] {
			visited[next] = true
			cycle = append(cycle, next)
		}
		for k := 1; k < len(cycle); k++ {
			out = append(out, circuit.Operation{
				Name:   "swap",
				Qubits: []int{op.Qubits[cycle[0]], op.Qubits[cycle[k]]},
			})
		}
	}
	return out, nil
}
