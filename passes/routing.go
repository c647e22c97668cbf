package passes

import (
	"slices"

	"github.com/pkg/errors"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

// CheckMap records whether every two-qubit gate acts on connected physical
// qubits, ignoring edge direction. Without a coupling map every circuit is
// mapped.
type CheckMap struct {
	Coupling *target.CouplingMap
}

func (CheckMap) Name() string { return "CheckMap" }

func (CheckMap) Writes() []string {
	return []string{passmanager.IsSwapMapped.Name()}
}

func (p CheckMap) Analyze(c *circuit.Circuit, ps *passmanager.PropertySet) error {
	passmanager.Set(ps, passmanager.IsSwapMapped, p.mapped(c))
	return nil
}

func (p CheckMap) mapped(c *circuit.Circuit) bool {
	if p.Coupling == nil {
		return true
	}
	for _, op := range c.Ops {
		if op.Name == circuit.Barrier || len(op.Qubits) != 2 {
			continue
		}
		if !p.Coupling.Connected(op.Qubits[0], op.Qubits[1]) {
			return false
		}
	}
	return true
}

// CheckGateDirection records whether every two-qubit gate follows the
// direction of a coupling map edge.
type CheckGateDirection struct {
	Coupling *target.CouplingMap
}

func (CheckGateDirection) Name() string { return "CheckGateDirection" }

func (CheckGateDirection) Writes() []string {
	return []string{passmanager.IsDirectionMapped.Name()}
}

func (p CheckGateDirection) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	mapped := true
	if p.Coupling != nil {
		for _, op := range c.Ops {
			if !op.IsGate() || len(op.Qubits) != 2 {
				continue
			}
			if !p.Coupling.HasEdge(op.Qubits[0], op.Qubits[1]) {
				mapped = false
				break
			}
		}
	}
	passmanager.Set(ps, passmanager.IsDirectionMapped, mapped)
	return nil
}

// symmetricGates act the same with their qubits exchanged.
var symmetricGates = map[string]bool{
	"cz": true, "swap": true, "rzz": true, "rxx": true,
}

// GateDirection flips two-qubit gates running against the coupling map edge.
// cx is conjugated with Hadamards; symmetric gates have their qubits
// exchanged. Any other gate, or a gate between unconnected qubits, fails.
type GateDirection struct {
	Coupling *target.CouplingMap
}

func (GateDirection) Name() string { return "GateDirection" }

func (p GateDirection) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	if p.Coupling == nil {
		return c, nil
	}
	out, err := rewriteOps(c, func(op circuit.Operation) ([]circuit.Operation, error) {
		if !op.IsGate() || len(op.Qubits) != 2 {
			return []circuit.Operation{op}, nil
		}
		a, b := op.Qubits[0], op.Qubits[1]
		if p.Coupling.HasEdge(a, b) {
			return []circuit.Operation{op}, nil
		}
		if !p.Coupling.HasEdge(b, a) {
			return nil, errors.Errorf("%s is not on a coupling map edge", op)
		}

		flipped := op.Clone()
		flipped.Qubits = []int{b, a}
		switch {
		case symmetricGates[op.Name]:
			return []circuit.Operation{flipped}, nil
		case op.Name == "cx":
			return []circuit.Operation{
				{Name: "h", Qubits: []int{a}},
				{Name: "h", Qubits: []int{b}},
				flipped,
				{Name: "h", Qubits: []int{a}},
				{Name: "h", Qubits: []int{b}},
			}, nil
		}
		return nil, errors.Errorf("flipping %s is not supported", op.Name)
	})
	return out, errors.Wrap(err, "gate direction")
}

// RemoveResetInZeroState drops resets applied before any other operation on
// their qubit, where the qubit is known to be in the zero state.
type RemoveResetInZeroState struct{}

func (RemoveResetInZeroState) Name() string { return "RemoveResetInZeroState" }

func (RemoveResetInZeroState) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	touched := make([]bool, c.NumQubits)
	ops := make([]circuit.Operation, 0, len(c.Ops))
	for _, op := range c.Ops {
		if op.Name == circuit.Reset && len(op.Qubits) == 1 && !touched[op.Qubits[0]] {
			continue
		}
		for _, q := range op.Qubits {
			touched[q] = true
		}
		ops = append(ops, op)
	}
	return c.WithOps(ops), nil
}

// BarrierBeforeFinalMeasurements inserts a barrier across the qubits of the
// final measurements, so that routing cannot move operations past them.
type BarrierBeforeFinalMeasurements struct{}

func (BarrierBeforeFinalMeasurements) Name() string {
	return "BarrierBeforeFinalMeasurements"
}

func (BarrierBeforeFinalMeasurements) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	// An operation is final when it is a measurement or barrier and only final
	// operations follow it on each of its qubits.
	final := make([]bool, len(c.Ops))
	blocked := make([]bool, c.NumQubits)
	for i := len(c.Ops) - 1; i >= 0; i-- {
		op := c.Ops[i]
		isFinal := op.Name == circuit.Measure || op.Name == circuit.Barrier
		for _, q := range op.Qubits {
			if blocked[q] {
				isFinal = false
			}
		}
		final[i] = isFinal
		if !isFinal {
			for _, q := range op.Qubits {
				blocked[q] = true
			}
		}
	}

	var qubits []int
	for i, op := range c.Ops {
		if final[i] && op.Name == circuit.Measure {
			qubits = append(qubits, op.Qubits...)
		}
	}
	if len(qubits) == 0 {
		return c, nil
	}
	slices.Sort(qubits)
	qubits = slices.Compact(qubits)

	ops := make([]circuit.Operation, 0, len(c.Ops)+1)
	for i, op := range c.Ops {
		if !final[i] {
			ops = append(ops, op)
		}
	}
	ops = append(ops, circuit.Operation{Name: circuit.Barrier, Qubits: qubits})
	for i, op := range c.Ops {
		if final[i] {
			ops = append(ops, op)
		}
	}
	return c.WithOps(ops), nil
}

// BasicSwap routes the circuit by walking the first qubit of every
// unconnected two-qubit gate along a shortest path towards the second with
// swaps. The resulting qubit permutation is recorded as the final layout.
type BasicSwap struct {
	Coupling *target.CouplingMap
}

func (BasicSwap) Name() string { return "BasicSwap" }

func (BasicSwap) Writes() []string {
	return []string{passmanager.FinalLayout.Name()}
}

func (p BasicSwap) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	if p.Coupling == nil {
		return nil, errors.New("basic swap needs a coupling map")
	}
	size := p.Coupling.Size()
	if c.NumQubits != size {
		return nil, errors.Errorf(
			"basic swap: circuit has %d qubits, device has %d; apply a layout first",
			c.NumQubits,
			size,
		)
	}

	// pos[w] is the physical qubit currently holding wire w; at is its inverse.
	pos := make([]int, size)
	at := make([]int, size)
	for i := range pos {
		pos[i], at[i] = i, i
	}
	swap := func(a, b int) {
		wa, wb := at[a], at[b]
		at[a], at[b] = wb, wa
		pos[wa], pos[wb] = b, a
	}

	ops := make([]circuit.Operation, 0, len(c.Ops))
	for _, op := range c.Ops {
		mapped := op.Clone()
		for k, q := range op.Qubits {
			mapped.Qubits[k] = pos[q]
		}
		if op.IsGate() && len(op.Qubits) > 2 {
			return nil, errors.Errorf("basic swap cannot route %s", op)
		}
		if op.IsGate() && len(op.Qubits) == 2 &&
			!p.Coupling.Connected(mapped.Qubits[0], mapped.Qubits[1]) {
			path, err := p.Coupling.ShortestPath(mapped.Qubits[0], mapped.Qubits[1])
			if err != nil {
				return nil, errors.Wrap(err, "basic swap")
			}
			for k := 0; k+2 < len(path); k++ {
				ops = append(ops, circuit.Operation{
					Name:   "swap",
					Qubits: []int{path[k], path[k+1]},
				})
				swap(path[k], path[k+1])
			}
			mapped.Qubits[0] = pos[op.Qubits[0]]
			mapped.Qubits[1] = pos[op.Qubits[1]]
		}
		ops = append(ops, mapped)
	}

	final := make([]int, c.NumQubits)
	for w := range final {
		final[w] = pos[w]
	}
	layout, err := circuit.NewLayout(final)
	if err != nil {
		return nil, errors.Wrap(err, "basic swap")
	}
	passmanager.Set(ps, passmanager.FinalLayout, layout)

	return c.WithOps(ops), nil
}
