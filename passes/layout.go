package passes

import (
	"github.com/pkg/errors"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

// SetLayout records a user supplied initial layout. Without one it does
// nothing.
type SetLayout struct {
	// Initial maps virtual qubit i to physical qubit Initial[i].
	Initial []int
}

func (SetLayout) Name() string { return "SetLayout" }

func (SetLayout) Writes() []string {
	return []string{passmanager.Layout.Name()}
}

func (p SetLayout) Analyze(c *circuit.Circuit, ps *passmanager.PropertySet) error {
	if p.Initial == nil {
		return nil
	}
	if len(p.Initial) != c.NumQubits {
		return errors.Errorf(
			"initial layout has %d entries, circuit has %d qubits",
			len(p.Initial),
			c.NumQubits,
		)
	}
	l, err := circuit.NewLayout(p.Initial)
	if err != nil {
		return errors.Wrap(err, "set layout")
	}
	passmanager.Set(ps, passmanager.Layout, l)
	return nil
}

// TrivialLayout places virtual qubit i on physical qubit i.
type TrivialLayout struct {
	Coupling *target.CouplingMap
}

func (TrivialLayout) Name() string { return "TrivialLayout" }

func (TrivialLayout) Writes() []string {
	return []string{passmanager.Layout.Name()}
}

func (p TrivialLayout) Analyze(c *circuit.Circuit, ps *passmanager.PropertySet) error {
	if p.Coupling != nil && c.NumQubits > p.Coupling.Size() {
		return errors.Errorf(
			"trivial layout: circuit has %d qubits, device has %d",
			c.NumQubits,
			p.Coupling.Size(),
		)
	}
	passmanager.Set(ps, passmanager.Layout, circuit.TrivialLayout(c.NumQubits))
	return nil
}

// TrivialLayoutScore scores the current layout by the number of extra hops
// two-qubit gates would need on the coupling map; 0 is a perfect layout.
// Without a layout nothing is written.
type TrivialLayoutScore struct {
	Coupling *target.CouplingMap
}

func (TrivialLayoutScore) Name() string { return "TrivialLayoutScore" }

func (TrivialLayoutScore) Writes() []string {
	return []string{passmanager.TrivialLayoutScore.Name()}
}

func (p TrivialLayoutScore) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	layout, ok := passmanager.Get(ps, passmanager.Layout)
	if !ok || layout == nil || p.Coupling == nil {
		return nil
	}

	score := 0
	for _, op := range c.Ops {
		if !op.IsGate() || len(op.Qubits) != 2 {
			continue
		}
		a, okA := layout.Physical(op.Qubits[0])
		b, okB := layout.Physical(op.Qubits[1])
		if !okA || !okB {
			return errors.Errorf("layout score: %s has unplaced qubits", op)
		}
		path, err := p.Coupling.ShortestPath(a, b)
		if err != nil {
			// unreachable pairs can never be routed; count them as the worst case
			score += p.Coupling.Size()
			continue
		}
		score += len(path) - 2
	}
	passmanager.Set(ps, passmanager.TrivialLayoutScore, score)
	return nil
}

// FullAncillaAllocation extends the layout so that every physical qubit of
// the device is mapped, placing fresh ancilla virtual qubits on the unused
// ones.
type FullAncillaAllocation struct {
	Coupling *target.CouplingMap
}

func (FullAncillaAllocation) Name() string { return "FullAncillaAllocation" }

func (FullAncillaAllocation) Writes() []string {
	return []string{passmanager.Layout.Name()}
}

func (p FullAncillaAllocation) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	if p.Coupling == nil {
		return errors.New("ancilla allocation needs a coupling map")
	}
	layout, ok := passmanager.Get(ps, passmanager.Layout)
	if !ok || layout == nil {
		return errors.New("ancilla allocation: no layout has been chosen")
	}
	if layout.Len() < c.NumQubits {
		return errors.Errorf(
			"ancilla allocation: layout places %d of %d qubits",
			layout.Len(),
			c.NumQubits,
		)
	}

	out := layout.Clone()
	next := c.NumQubits
	for _, v := range layout.VirtualQubits() {
		if v >= next {
			next = v + 1
		}
	}
	for phys := 0; phys < p.Coupling.Size(); phys++ {
		if _, used := out.Virtual(phys); used {
			continue
		}
		if err := out.Add(next, phys); err != nil {
			return errors.Wrap(err, "ancilla allocation")
		}
		next++
	}
	for _, phys := range out.PhysicalQubits() {
		if phys >= p.Coupling.Size() {
			return errors.Errorf(
				"ancilla allocation: physical qubit %d not on a %d qubit device",
				phys,
				p.Coupling.Size(),
			)
		}
	}

	passmanager.Set(ps, passmanager.Layout, out)
	return nil
}

// EnlargeWithAncilla widens the circuit to cover every virtual qubit of the
// layout, ancillas included.
type EnlargeWithAncilla struct{}

func (EnlargeWithAncilla) Name() string { return "EnlargeWithAncilla" }

func (EnlargeWithAncilla) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	layout, ok := passmanager.Get(ps, passmanager.Layout)
	if !ok || layout == nil {
		return nil, errors.New("enlarge with ancilla: no layout has been chosen")
	}
	if layout.Len() < c.NumQubits {
		return nil, errors.Errorf(
			"enlarge with ancilla: layout covers %d of %d qubits",
			layout.Len(),
			c.NumQubits,
		)
	}
	out := c.Clone()
	out.NumQubits = layout.Len()
	return out, nil
}

// ApplyLayout rewrites the circuit onto physical qubits. When a post layout is
// recorded, the already physical circuit is permuted by it instead, the
// layout is updated to the composition and a routing final layout is
// relabeled onto the new physical qubits; the post layout is consumed.
type ApplyLayout struct{}

func (ApplyLayout) Name() string { return "ApplyLayout" }

func (ApplyLayout) Writes() []string {
	return []string{passmanager.Layout.Name(), passmanager.FinalLayout.Name()}
}

func (ApplyLayout) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	layout, ok := passmanager.Get(ps, passmanager.Layout)
	if !ok || layout == nil {
		return nil, errors.New("apply layout: no layout has been chosen")
	}

	post, ok := passmanager.Get(ps, passmanager.PostLayout)
	if ok && post != nil {
		out, err := remap(c, post, c.NumQubits)
		if err != nil {
			return nil, errors.Wrap(err, "apply post layout")
		}
		composed, err := layout.Compose(post)
		if err != nil {
			return nil, errors.Wrap(err, "apply post layout")
		}
		if final, ok := passmanager.Get(ps, passmanager.FinalLayout); ok && final != nil {
			relabeled, err := final.Relabel(post)
			if err != nil {
				return nil, errors.Wrap(err, "apply post layout")
			}
			passmanager.Set(ps, passmanager.FinalLayout, relabeled)
		}
		passmanager.Set(ps, passmanager.Layout, composed)
		passmanager.Delete(ps, passmanager.PostLayout)
		return out, nil
	}

	if layout.Len() != c.NumQubits {
		return nil, errors.Errorf(
			"apply layout: layout has %d qubits, circuit has %d",
			layout.Len(),
			c.NumQubits,
		)
	}
	out, err := remap(c, layout, layout.Len())
	return out, errors.Wrap(err, "apply layout")
}

// remap moves every operation of c onto the physical qubits given by l.
func remap(c *circuit.Circuit, l *circuit.Layout, width int) (*circuit.Circuit, error) {
	out := c.Clone()
	out.NumQubits = width
	for i := range out.Ops {
		for k, v := range out.Ops[i].Qubits {
			p, ok := l.Physical(v)
			if !ok {
				return nil, errors.Errorf("qubit %d is not in the layout", v)
			}
			if p >= width {
				return nil, errors.Errorf("physical qubit %d out of range", p)
			}
			out.Ops[i].Qubits[k] = p
		}
	}
	if len(out.Calibrations) > 0 {
		// calibration keys hold qubit lists and are re-keyed with the ops
		out.Calibrations = map[string]int{}
		for _, op := range c.Ops {
			key := circuit.CalibrationKey(op.Name, op.Qubits)
			if d, ok := c.Calibrations[key]; ok {
				mapped := make([]int, len(op.Qubits))
				for k, v := range op.Qubits {
					mapped[k], _ = l.Physical(v)
				}
				out.Calibrations[circuit.CalibrationKey(op.Name, mapped)] = d
			}
		}
	}
	return out, nil
}
