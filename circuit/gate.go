package circuit

import (
	"math"
	"slices"

	"github.com/pkg/errors"
)

// ToGate converts the circuit into a single composite gate acting on all of
// the circuit's qubits. The definition keeps every operation on the same
// qubit positions. Circuits holding directives or classical bits cannot be
// converted.
func (c *Circuit) ToGate(label string) (Operation, error) {
	if c.NumClbits > 0 {
		return Operation{}, errors.Errorf(
			"circuit %q with classical bits cannot be converted to a gate",
			c.Name,
		)
	}
	for _, op := range c.Ops {
		if !op.IsGate() {
			return Operation{}, errors.Errorf(
				"circuit %q contains %s which cannot be converted to a gate",
				c.Name,
				op.Name,
			)
		}
	}

	def := c.Clone()
	def.Calibrations = nil
	name := c.Name
	if name == "" {
		name = "circuit"
	}

	qubits := make([]int, c.NumQubits)
	for i := range qubits {
		qubits[i] = i
	}

	return Operation{
		Name:       name,
		Qubits:     qubits,
		Label:      label,
		Definition: def,
	}, nil
}

// selfInverse holds the gates which are their own inverse.
var selfInverse = map[string]bool{
	"x": true, "y": true, "z": true, "h": true, "cx": true, "cz": true,
	"swap": true, "ccx": true, "cswap": true, "id": true,
}

// inversePairs maps gates to their named inverses.
var inversePairs = map[string]string{
	"s": "sdg", "sdg": "s", "t": "tdg", "tdg": "t", "sx": "sxdg", "sxdg": "sx",
}

// rotations are inverted by negating their parameters.
var rotations = map[string]bool{
	"rx": true, "ry": true, "rz": true, "p": true, "rzz": true, "rxx": true,
	"u1": true,
}

// Inverse returns the inverse of a gate. Composite gates are inverted by
// reversing and inverting their definition.
func (o Operation) Inverse() (Operation, error) {
	if !o.IsGate() {
		return Operation{}, errors.Errorf("%s has no inverse", o.Name)
	}
	inv := o.Clone()
	switch {
	case o.Definition != nil:
		def := o.Definition.Clone()
		def.Ops = make([]Operation, 0, len(o.Definition.Ops))
		for i := len(o.Definition.Ops) - 1; i >= 0; i-- {
			op, err := o.Definition.Ops[i].Inverse()
			if err != nil {
				return Operation{}, errors.Wrap(err, "inverse")
			}
			def.Ops = append(def.Ops, op)
		}
		inv.Definition = def
		inv.Name = o.Name + "_dg"
	case selfInverse[o.Name]:
	case inversePairs[o.Name] != "":
		inv.Name = inversePairs[o.Name]
	case rotations[o.Name]:
		for i, p := range inv.Params {
			inv.Params[i] = -p
		}
	default:
		return Operation{}, errors.Errorf("no inverse known for %s", o.Name)
	}
	return inv, nil
}

// StandardDefinition returns the decomposition of a standard gate into
// {rz, sx, x, cx}, or false if the gate has none.
func StandardDefinition(op Operation) (*Circuit, bool) {
	n := len(op.Qubits)
	def := New(op.Name, n, 0)
	rz := func(theta float64, q int) {
		def.Ops = append(def.Ops, Operation{
			Name:   "rz",
			Qubits: []int{q},
			Params: []float64{theta},
		})
	}
	gate := func(name string, qubits ...int) {
		def.Ops = append(def.Ops, Operation{Name: name, Qubits: qubits})
	}
	h := func(q int) {
		rz(math.Pi/2, q)
		gate("sx", q)
		rz(math.Pi/2, q)
	}

	switch {
	case op.Name == "h" && n == 1:
		h(0)
	case op.Name == "s" && n == 1:
		rz(math.Pi/2, 0)
	case op.Name == "sdg" && n == 1:
		rz(-math.Pi/2, 0)
	case op.Name == "t" && n == 1:
		rz(math.Pi/4, 0)
	case op.Name == "tdg" && n == 1:
		rz(-math.Pi/4, 0)
	case op.Name == "z" && n == 1:
		rz(math.Pi, 0)
	case op.Name == "swap" && n == 2:
		gate("cx", 0, 1)
		gate("cx", 1, 0)
		gate("cx", 0, 1)
	case op.Name == "cz" && n == 2:
		h(1)
		gate("cx", 0, 1)
		h(1)
	case op.Name == "ccx" && n == 3:
		h(2)
		gate("cx", 1, 2)
		rz(-math.Pi/4, 2)
		gate("cx", 0, 2)
		rz(math.Pi/4, 2)
		gate("cx", 1, 2)
		rz(-math.Pi/4, 2)
		gate("cx", 0, 2)
		rz(math.Pi/4, 1)
		rz(math.Pi/4, 2)
		h(2)
		gate("cx", 0, 1)
		rz(math.Pi/4, 0)
		rz(-math.Pi/4, 1)
		gate("cx", 0, 1)
	case op.Name == "cswap" && n == 3:
		gate("cx", 2, 1)
		gate("ccx", 0, 1, 2)
		gate("cx", 2, 1)
	default:
		return nil, false
	}
	return def, true
}

// DefinitionOf returns the operation's own definition, falling back to the
// standard decomposition.
func DefinitionOf(op Operation) (*Circuit, bool) {
	if op.Definition != nil {
		return op.Definition, true
	}
	return StandardDefinition(op)
}

// Decompose expands op one level, returning nil and false for opaque gates.
func Decompose(op Operation) ([]Operation, bool, error) {
	def, ok := DefinitionOf(op)
	if !ok {
		return nil, false, nil
	}
	ops, err := Inline(op, def)
	if err != nil {
		return nil, true, errors.Wrap(err, "decompose")
	}
	return ops, true, nil
}

// SortedQubits returns the distinct qubits touched by the operations.
func SortedQubits(ops []Operation) []int {
	seen := map[int]bool{}
	out := []int{}
	for _, op := range ops {
		for _, q := range op.Qubits {
			if !seen[q] {
				seen[q] = true
				out = append(out, q)
			}
		}
	}
	slices.Sort(out)
	return out
}
