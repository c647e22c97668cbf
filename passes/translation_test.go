package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
)

var ibmBasis = Basis{"rz", "sx", "x", "cx"}

func assertInBasis(t *testing.T, basis Basis, c *circuit.Circuit) {
	t.Helper()
	for _, op := range c.Ops {
		assert.True(t, basis.Contains(op.Name), "%s not in basis %v", op, basis)
	}
}

func TestBasisContainsDirectives(t *testing.T) {
	assert.True(t, Basis{}.Contains("measure"))
	assert.True(t, ibmBasis.Contains("cx"))
	assert.False(t, ibmBasis.Contains("h"))
}

func TestUnroller(t *testing.T) {
	c := circuit.New("c", 2, 0).Add("h", 0).Add("cx", 0, 1)
	c.Ops = append(c.Ops, circuit.Operation{
		Name:   "rx",
		Qubits: []int{1},
		Params: []float64{0.5},
	})

	pass := Unroller{Basis: ibmBasis, Library: StandardEquivalenceLibrary()}
	out, err := pass.Transform(c, passmanager.NewPropertySet())
	require.NoError(t, err)
	assertInBasis(t, ibmBasis, out)
	assert.Equal(t, []string{"rz", "sx", "rz", "cx"}, opNames(out)[:4])
	assert.Len(t, out.Ops, 4+7)

	_, err = pass.Transform(
		circuit.New("c", 1, 0).Add("foo", 0),
		passmanager.NewPropertySet(),
	)
	assert.ErrorContains(t, err, "no rule to expand instruction foo")
}

func TestUnroll3qOrMore(t *testing.T) {
	c := circuit.New("c", 3, 0).Add("ccx", 0, 1, 2).Add("cswap", 2, 0, 1)

	out, err := Unroll3qOrMore{}.Transform(c, passmanager.NewPropertySet())
	require.NoError(t, err)
	require.NotEmpty(t, out.Ops)
	for _, op := range out.Ops {
		assert.LessOrEqual(t, len(op.Qubits), 2, op.String())
	}

	native, err := Unroll3qOrMore{Basis: Basis{"ccx"}}.Transform(
		c,
		passmanager.NewPropertySet(),
	)
	require.NoError(t, err)
	assert.Equal(t, "ccx", native.Ops[0].Name)
	assert.Greater(t, len(native.Ops), 1)

	_, err = Unroll3qOrMore{}.Transform(
		circuit.New("c", 3, 0).Add("opaque3", 0, 1, 2),
		passmanager.NewPropertySet(),
	)
	assert.Error(t, err)
}

func TestBasisTranslator(t *testing.T) {
	c := circuit.New("c", 2, 1).Add("h", 0).Add("cz", 0, 1).Add("swap", 0, 1)
	c.Ops = append(c.Ops,
		circuit.Operation{Name: "rx", Qubits: []int{0}, Params: []float64{0.25}},
		circuit.Operation{Name: "y", Qubits: []int{1}},
		circuit.Operation{Name: "measure", Qubits: []int{0}, Clbits: []int{0}},
	)

	lib := StandardEquivalenceLibrary()
	out, err := BasisTranslator{Basis: ibmBasis, Library: lib}.Transform(
		c,
		passmanager.NewPropertySet(),
	)
	require.NoError(t, err)
	assertInBasis(t, ibmBasis, out)
	assert.Equal(t, 1, out.Count("measure"))

	czBasis := Basis{"rz", "sx", "cz"}
	out, err = BasisTranslator{Basis: czBasis, Library: lib}.Transform(
		circuit.New("c", 2, 0).Add("cx", 0, 1),
		passmanager.NewPropertySet(),
	)
	require.NoError(t, err)
	assert.Equal(
		t,
		[]string{"rz", "sx", "rz", "cz", "rz", "sx", "rz"},
		opNames(out),
	)

	_, err = BasisTranslator{Basis: Basis{"rz"}, Library: lib}.Transform(
		circuit.New("c", 2, 0).Add("cx", 0, 1),
		passmanager.NewPropertySet(),
	)
	assert.ErrorContains(t, err, "unable to translate cx")
}

func TestBasisTranslatorWithoutBasisIsNoop(t *testing.T) {
	c := circuit.New("c", 1, 0).Add("anything", 0)
	out, err := BasisTranslator{Library: StandardEquivalenceLibrary()}.Transform(
		c,
		passmanager.NewPropertySet(),
	)
	require.NoError(t, err)
	assert.Same(t, c, out)
}

func TestUnrollCustomDefinitions(t *testing.T) {
	bell, err := circuit.New("bell", 2, 0).Add("h", 0).Add("cx", 0, 1).ToGate("")
	require.NoError(t, err)
	bell.Qubits = []int{2, 1}

	c := circuit.New("c", 3, 0)
	require.NoError(t, c.Append(bell))

	lib := StandardEquivalenceLibrary()
	out, err := UnrollCustomDefinitions{Basis: ibmBasis, Library: lib}.Transform(
		c,
		passmanager.NewPropertySet(),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"h", "cx"}, opNames(out))
	assert.Equal(t, []int{2}, out.Ops[0].Qubits)
	assert.Equal(t, []int{2, 1}, out.Ops[1].Qubits)

	_, err = UnrollCustomDefinitions{Basis: ibmBasis, Library: lib}.Transform(
		circuit.New("c", 1, 0).Add("mystery", 0),
		passmanager.NewPropertySet(),
	)
	assert.Error(t, err)
}

func TestHighLevelSynthesis(t *testing.T) {
	c := circuit.New("c", 3, 0)
	require.NoError(t, c.Append(circuit.Operation{Name: "mcx", Qubits: []int{0, 1, 2}}))
	require.NoError(t, c.Append(circuit.Operation{
		Name:   "permutation",
		Qubits: []int{0, 1, 2},
		Params: []float64{1, 2, 0},
	}))

	out, err := HighLevelSynthesis{Basis: ibmBasis}.Transform(
		c,
		passmanager.NewPropertySet(),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"ccx", "swap", "swap"}, opNames(out))
	assert.Equal(t, []int{0, 1}, out.Ops[1].Qubits)
	assert.Equal(t, []int{0, 2}, out.Ops[2].Qubits)

	wide := circuit.New("c", 5, 0)
	require.NoError(t, wide.Append(circuit.Operation{
		Name:   "mcx",
		Qubits: []int{0, 1, 2, 3, 4},
	}))
	_, err = HighLevelSynthesis{}.Transform(wide, passmanager.NewPropertySet())
	assert.ErrorContains(t, err, "needs ancillas")
}

func TestConsolidateAndResynthesize(t *testing.T) {
	c := circuit.New("c", 2, 0).Add("h", 0).Add("cx", 0, 1).Add("h", 1)
	ps := passmanager.NewPropertySet()

	require.NoError(t, Collect2qBlocks{}.Analyze(c, ps))
	require.NoError(t, Collect1qRuns{}.Analyze(c, ps))
	blocks, _ := passmanager.Get(ps, passmanager.BlockList)
	assert.Equal(t, [][]int{{0, 1, 2}}, blocks)

	consolidated, err := ConsolidateBlocks{}.Transform(c, ps)
	require.NoError(t, err)
	assert.Equal(t, []string{UnitaryName}, opNames(consolidated))
	assert.Equal(t, []int{0, 1}, consolidated.Ops[0].Qubits)
	assert.False(t, ps.Has(passmanager.BlockList.Name()))

	skipped, err := UnitarySynthesis{Basis: ibmBasis, MinQubits: 3}.Transform(
		consolidated,
		ps,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{UnitaryName}, opNames(skipped))

	out, err := UnitarySynthesis{Basis: ibmBasis}.Transform(consolidated, ps)
	require.NoError(t, err)
	assert.Equal(
		t,
		[]string{"rz", "sx", "rz", "cx", "rz", "sx", "rz"},
		opNames(out),
	)

	_, err = UnitarySynthesis{Basis: ibmBasis, Method: "bogus"}.Transform(
		consolidated,
		ps,
	)
	assert.ErrorContains(t, err, "not registered")
}

func TestCollect2qBlocksAbsorbsLeadingGates(t *testing.T) {
	c := circuit.New("c", 3, 0).
		Add("h", 0).
		Add("x", 1).
		Add("x", 2).
		Add("cx", 0, 1).
		Add("t", 0).
		Add("cx", 1, 2)
	ps := passmanager.NewPropertySet()
	require.NoError(t, Collect2qBlocks{}.Analyze(c, ps))
	blocks, _ := passmanager.Get(ps, passmanager.BlockList)
	assert.Equal(t, [][]int{{0, 1, 3, 4}, {2, 5}}, blocks)
}

func TestConsolidateWrapsForeignGates(t *testing.T) {
	collect := func(c *circuit.Circuit) *passmanager.PropertySet {
		ps := passmanager.NewPropertySet()
		require.NoError(t, Collect2qBlocks{}.Analyze(c, ps))
		require.NoError(t, Collect1qRuns{}.Analyze(c, ps))
		return ps
	}

	lone := circuit.New("lone", 1, 0).Add("h", 0)
	out, err := ConsolidateBlocks{}.Transform(lone, collect(lone))
	require.NoError(t, err)
	assert.Equal(t, []string{"h"}, opNames(out))

	out, err = ConsolidateBlocks{Basis: ibmBasis}.Transform(lone, collect(lone))
	require.NoError(t, err)
	assert.Equal(t, []string{UnitaryName}, opNames(out))

	native := circuit.New("native", 1, 0).Add("x", 0)
	out, err = ConsolidateBlocks{Basis: ibmBasis}.Transform(native, collect(native))
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, opNames(out))

	// t(0) trails a block closed through its partner qubit; its run is partly
	// taken by that block.
	c := circuit.New("c", 3, 0).
		Add("cx", 0, 1).
		Add("h", 0).
		Add("cx", 1, 2).
		Add("t", 0)
	ps := collect(c)
	out, err = ConsolidateBlocks{Basis: ibmBasis}.Transform(c, ps)
	require.NoError(t, err)
	assert.Equal(t, []string{UnitaryName, "cx", UnitaryName}, opNames(out))
	assert.Equal(t, []int{0}, out.Ops[2].Qubits)

	synthesized, err := UnitarySynthesis{Basis: ibmBasis}.Transform(out, ps)
	require.NoError(t, err)
	assertInBasis(t, ibmBasis, synthesized)
	assert.Equal(t, 2, synthesized.Count("cx"))

	// Unitaries are synthesized as they are, never wrapped again.
	def := circuit.New(UnitaryName, 1, 0).Add("h", 0)
	u := circuit.New("u", 1, 0)
	require.NoError(t, u.Append(circuit.Operation{
		Name:       UnitaryName,
		Qubits:     []int{0},
		Definition: def,
	}))
	out, err = ConsolidateBlocks{Basis: ibmBasis}.Transform(u, collect(u))
	require.NoError(t, err)
	assert.Same(t, def, out.Ops[0].Definition)
}

type countingPlugin struct {
	calls int
}

func (p *countingPlugin) Synthesize(
	op circuit.Operation,
	opts SynthesisOptions,
) ([]circuit.Operation, error) {
	p.calls++
	return []circuit.Operation{{Name: "cx", Qubits: op.Qubits}}, nil
}

func TestUnitarySynthesisPluginRegistry(t *testing.T) {
	plugin := &countingPlugin{}
	RegisterUnitarySynthesisPlugin("counting", plugin)
	assert.Contains(t, UnitarySynthesisMethods(), "counting")
	assert.Contains(t, UnitarySynthesisMethods(), "default")

	def := circuit.New(UnitaryName, 2, 0).Add("cz", 0, 1)
	c := circuit.New("c", 2, 0)
	require.NoError(t, c.Append(circuit.Operation{
		Name:       UnitaryName,
		Qubits:     []int{1, 0},
		Definition: def,
	}))

	out, err := UnitarySynthesis{Basis: ibmBasis, Method: "counting"}.Transform(
		c,
		passmanager.NewPropertySet(),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, plugin.calls)
	assert.Equal(t, []int{1, 0}, out.Ops[0].Qubits)
}

func TestEquivalenceLibrary(t *testing.T) {
	lib := StandardEquivalenceLibrary()
	assert.True(t, lib.Has("cx"))
	assert.False(t, lib.Has("rz"))
	assert.Contains(t, lib.Names(), "u3")

	rules := lib.Rules("rx")
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"h", "rz", "h"}, rules[0].Produces)

	_, err := rules[0].Apply(circuit.Operation{Name: "rx", Qubits: []int{0}})
	assert.Error(t, err, "missing parameter")

	ops, err := rules[0].Apply(circuit.Operation{
		Name:   "rx",
		Qubits: []int{3},
		Params: []float64{0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, ops[1].Params)
	assert.Equal(t, []int{3}, ops[1].Qubits)

	var nilLib *EquivalenceLibrary
	assert.False(t, nilLib.Has("cx"))
	_, ok := nilLib.Expand(circuit.Operation{Name: "cx", Qubits: []int{0, 1}})
	assert.False(t, ok)
}
