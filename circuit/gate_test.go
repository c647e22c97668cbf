package circuit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGateKeepsQubitPositions(t *testing.T) {
	circ := New("wide", 10, 0)
	circ.Add("cx", 1, 6)

	gate, err := circ.ToGate("")
	require.NoError(t, err)

	assert.Len(t, gate.Qubits, 10)
	require.NotNil(t, gate.Definition)
	require.Len(t, gate.Definition.Ops, 1)
	assert.Equal(t, []int{1, 6}, gate.Definition.Ops[0].Qubits)
	assert.Empty(t, gate.Definition.Ops[0].Clbits)
}

func TestToGateRejectsNonUnitaryCircuits(t *testing.T) {
	withBarrier := New("b", 3, 0)
	withBarrier.Add("x", 0).Add("cx", 0, 1).Add(Barrier, 0, 1, 2)

	withMeasure := New("m", 1, 1)
	require.NoError(t, withMeasure.Append(Operation{
		Name:   Measure,
		Qubits: []int{0},
		Clbits: []int{0},
	}))

	withReset := New("r", 1, 0)
	withReset.Add("x", 0).Add(Reset, 0)

	for _, c := range []*Circuit{withBarrier, withMeasure, withReset} {
		_, err := c.ToGate("")
		assert.Error(t, err, c.Name)
	}
}

func TestToGateLabelAndInverse(t *testing.T) {
	circ := New("a circuit name", 2, 0)
	circ.Add("cx", 1, 0).Add("t", 0)

	gate, err := circ.ToGate("a label")
	require.NoError(t, err)
	assert.Equal(t, "a label", gate.Label)
	assert.Equal(t, "a circuit name", gate.Name)

	inv, err := gate.Inverse()
	require.NoError(t, err)
	require.Len(t, inv.Definition.Ops, 2)
	assert.Equal(t, "tdg", inv.Definition.Ops[0].Name)
	assert.Equal(t, "cx", inv.Definition.Ops[1].Name)
	assert.Equal(t, []int{1, 0}, inv.Definition.Ops[1].Qubits)

	// the original definition is untouched
	assert.Equal(t, "cx", gate.Definition.Ops[0].Name)
}

func TestInverseRotation(t *testing.T) {
	op := Operation{Name: "rz", Qubits: []int{0}, Params: []float64{math.Pi / 3}}
	inv, err := op.Inverse()
	require.NoError(t, err)
	assert.Equal(t, -math.Pi/3, inv.Params[0])
	assert.Equal(t, math.Pi/3, op.Params[0])

	_, err = Operation{Name: Measure, Qubits: []int{0}, Clbits: []int{0}}.Inverse()
	assert.Error(t, err)
}

func TestStandardDefinitions(t *testing.T) {
	native := map[string]bool{"rz": true, "sx": true, "x": true, "cx": true}
	for _, tc := range []struct {
		name   string
		qubits []int
	}{
		{"h", []int{0}},
		{"s", []int{0}},
		{"tdg", []int{0}},
		{"swap", []int{0, 1}},
		{"cz", []int{0, 1}},
		{"ccx", []int{0, 1, 2}},
	} {
		def, ok := StandardDefinition(Operation{Name: tc.name, Qubits: tc.qubits})
		require.True(t, ok, tc.name)
		assert.Equal(t, len(tc.qubits), def.NumQubits, tc.name)
		for _, op := range def.Ops {
			assert.True(t, native[op.Name], "%s expands to %s", tc.name, op.Name)
		}
	}

	_, ok := StandardDefinition(Operation{Name: "cswap", Qubits: []int{0, 1, 2}})
	assert.True(t, ok)
	_, ok = StandardDefinition(Operation{Name: "mystery", Qubits: []int{0}})
	assert.False(t, ok)
	_, ok = StandardDefinition(Operation{Name: "h", Qubits: []int{0, 1}})
	assert.False(t, ok)
}

func TestDecomposeRemapsQubits(t *testing.T) {
	ops, ok, err := Decompose(Operation{Name: "swap", Qubits: []int{4, 2}})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, ops, 3)
	assert.Equal(t, []int{4, 2}, ops[0].Qubits)
	assert.Equal(t, []int{2, 4}, ops[1].Qubits)
}
