package circuit

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// Directive operation names. Directives are never synthesized or translated.
const (
	Barrier = "barrier"
	Measure = "measure"
	Reset   = "reset"
	Delay   = "delay"
)

// Operation is a single instruction applied to a fixed list of qubits (and
// optionally classical bits).
type Operation struct {
	Name   string    `yaml:"name"`
	Qubits []int     `yaml:"qubits"`
	Clbits []int     `yaml:"clbits,omitempty"`
	Params []float64 `yaml:"params,omitempty"`
	// Duration and Unit are only meaningful for delays, or once a circuit has
	// gone through time unit conversion.
	Duration float64 `yaml:"duration,omitempty"`
	Unit     string  `yaml:"unit,omitempty"`
	Label    string  `yaml:"label,omitempty"`
	// Definition is the body of a composite operation, expressed over qubits
	// [0, len(Qubits)) of the definition circuit.
	Definition *Circuit `yaml:"definition,omitempty"`
}

// IsDirective reports whether the operation is a barrier, measurement, reset
// or delay.
func (o Operation) IsDirective() bool {
	switch o.Name {
	case Barrier, Measure, Reset, Delay:
		return true
	}
	return false
}

// IsGate reports whether the operation is a unitary gate.
func (o Operation) IsGate() bool {
	return !o.IsDirective() && len(o.Clbits) == 0
}

// Clone returns a deep copy of the operation.
func (o Operation) Clone() Operation {
	cpy := o
	cpy.Qubits = slices.Clone(o.Qubits)
	cpy.Clbits = slices.Clone(o.Clbits)
	cpy.Params = slices.Clone(o.Params)
	if o.Definition != nil {
		cpy.Definition = o.Definition.Clone()
	}
	return cpy
}

// Touches reports whether the operation acts on qubit q.
func (o Operation) Touches(q int) bool {
	return slices.Contains(o.Qubits, q)
}

func (o Operation) String() string {
	if len(o.Params) == 0 {
		return fmt.Sprintf("%s %v", o.Name, o.Qubits)
	}
	return fmt.Sprintf("%s(%v) %v", o.Name, o.Params, o.Qubits)
}

// Circuit is an ordered list of operations over NumQubits qubits.
type Circuit struct {
	Name      string      `yaml:"name"`
	NumQubits int         `yaml:"numQubits"`
	NumClbits int         `yaml:"numClbits,omitempty"`
	Ops       []Operation `yaml:"ops"`
	// Calibrations holds the duration (in dt) of custom pulse-level gate
	// definitions attached to this circuit, keyed by CalibrationKey.
	Calibrations map[string]int `yaml:"calibrations,omitempty"`
	// Duration and Unit are set once the circuit has been scheduled.
	Duration int    `yaml:"duration,omitempty"`
	Unit     string `yaml:"unit,omitempty"`
}

// New creates an empty circuit over the given number of qubits and classical
// bits.
func New(name string, numQubits, numClbits int) *Circuit {
	return &Circuit{
		Name:      name,
		NumQubits: numQubits,
		NumClbits: numClbits,
	}
}

// Append adds an operation to the end of the circuit, checking its operands
// are in range.
func (c *Circuit) Append(op Operation) error {
	for _, q := range op.Qubits {
		if q < 0 || q >= c.NumQubits {
			return errors.Wrap(
				errors.Errorf("qubit %d out of range [0, %d)", q, c.NumQubits),
				"append",
			)
		}
	}
	for _, b := range op.Clbits {
		if b < 0 || b >= c.NumClbits {
			return errors.Wrap(
				errors.Errorf("clbit %d out of range [0, %d)", b, c.NumClbits),
				"append",
			)
		}
	}
	c.Ops = append(c.Ops, op)
	return nil
}

// Add is a convenience form of Append for gates without parameters. It panics
// on out of range qubits, and is meant for building fixtures.
func (c *Circuit) Add(name string, qubits ...int) *Circuit {
	if err := c.Append(Operation{Name: name, Qubits: qubits}); err != nil {
		panic(err)
	}
	return c
}

// Validate checks every operation is in range.
func (c *Circuit) Validate() error {
	cpy := &Circuit{NumQubits: c.NumQubits, NumClbits: c.NumClbits}
	for i, op := range c.Ops {
		if err := cpy.Append(op); err != nil {
			return errors.Wrap(err, fmt.Sprintf("validate op %d", i))
		}
	}
	return nil
}

// Clone returns a deep copy of the circuit.
func (c *Circuit) Clone() *Circuit {
	if c == nil {
		return nil
	}
	cpy := *c
	cpy.Ops = make([]Operation, len(c.Ops))
	for i, op := range c.Ops {
		cpy.Ops[i] = op.Clone()
	}
	if c.Calibrations != nil {
		cpy.Calibrations = make(map[string]int, len(c.Calibrations))
		for k, v := range c.Calibrations {
			cpy.Calibrations[k] = v
		}
	}
	return &cpy
}

// WithOps returns a copy of the circuit header (name, widths, calibrations)
// holding the given operations.
func (c *Circuit) WithOps(ops []Operation) *Circuit {
	cpy := c.Clone()
	cpy.Ops = ops
	return cpy
}

// Count returns the number of operations with the given name.
func (c *Circuit) Count(name string) int {
	n := 0
	for _, op := range c.Ops {
		if op.Name == name {
			n++
		}
	}
	return n
}

// CountOps returns the number of operations per name.
func (c *Circuit) CountOps() map[string]int {
	counts := make(map[string]int)
	for _, op := range c.Ops {
		counts[op.Name]++
	}
	return counts
}

// Equal reports whether two circuits have the same width and operations.
func (c *Circuit) Equal(o *Circuit) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.NumQubits != o.NumQubits || c.NumClbits != o.NumClbits ||
		len(c.Ops) != len(o.Ops) {
		return false
	}
	for i := range c.Ops {
		if !operationsEqual(c.Ops[i], o.Ops[i]) {
			return false
		}
	}
	return true
}

func operationsEqual(a, b Operation) bool {
	if a.Name != b.Name || a.Duration != b.Duration || a.Unit != b.Unit ||
		!slices.Equal(a.Qubits, b.Qubits) || !slices.Equal(a.Clbits, b.Clbits) ||
		!slices.Equal(a.Params, b.Params) {
		return false
	}
	if (a.Definition == nil) != (b.Definition == nil) {
		return false
	}
	return a.Definition == nil || a.Definition.Equal(b.Definition)
}

// CalibrationKey is the key used in Circuit.Calibrations for a custom gate
// definition of name on the given qubits.
func CalibrationKey(name string, qubits []int) string {
	return fmt.Sprintf("%s%v", name, qubits)
}

// Inline returns the operations of def with qubits remapped onto the qubits of
// op, i.e. def's qubit i becomes op.Qubits[i].
func Inline(op Operation, def *Circuit) ([]Operation, error) {
	if def.NumQubits != len(op.Qubits) {
		return nil, errors.Errorf(
			"definition of %s has %d qubits, operation has %d",
			op.Name,
			def.NumQubits,
			len(op.Qubits),
		)
	}
	out := make([]Operation, 0, len(def.Ops))
	for _, inner := range def.Ops {
		mapped := inner.Clone()
		for i, q := range inner.Qubits {
			mapped.Qubits[i] = op.Qubits[q]
		}
		if len(inner.Clbits) > 0 {
			if len(op.Clbits) < def.NumClbits {
				return nil, errors.Errorf(
					"definition of %s uses clbits the operation does not carry",
					op.Name,
				)
			}
			for i, b := range inner.Clbits {
				mapped.Clbits[i] = op.Clbits[b]
			}
		}
		out = append(out, mapped)
	}
	return out, nil
}
