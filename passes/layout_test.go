package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

func physical(t *testing.T, l *circuit.Layout, v int) int {
	t.Helper()
	p, ok := l.Physical(v)
	require.True(t, ok, "virtual qubit %d unmapped", v)
	return p
}

func TestSetLayout(t *testing.T) {
	c := circuit.New("c", 3, 0)
	ps := passmanager.NewPropertySet()

	require.NoError(t, SetLayout{}.Analyze(c, ps))
	assert.False(t, ps.Has(passmanager.Layout.Name()))

	require.NoError(t, SetLayout{Initial: []int{2, 0, 1}}.Analyze(c, ps))
	l, ok := passmanager.Get(ps, passmanager.Layout)
	require.True(t, ok)
	assert.Equal(t, 2, physical(t, l, 0))

	assert.Error(t, SetLayout{Initial: []int{0, 1}}.Analyze(c, ps))
	assert.Error(t, SetLayout{Initial: []int{0, 0, 1}}.Analyze(c, ps))
}

func TestTrivialLayoutAndScore(t *testing.T) {
	line := target.LineCouplingMap(3)
	c := circuit.New("c", 3, 0).Add("cx", 0, 1).Add("cx", 0, 2)
	ps := passmanager.NewPropertySet()

	require.NoError(t, TrivialLayoutScore{Coupling: line}.Analyze(c, ps))
	assert.False(t, ps.Has(passmanager.TrivialLayoutScore.Name()))

	require.NoError(t, TrivialLayout{Coupling: line}.Analyze(c, ps))
	require.NoError(t, TrivialLayoutScore{Coupling: line}.Analyze(c, ps))
	score, ok := passmanager.Get(ps, passmanager.TrivialLayoutScore)
	require.True(t, ok)
	assert.Equal(t, 1, score)

	wide := circuit.New("c", 4, 0)
	assert.Error(t, TrivialLayout{Coupling: line}.Analyze(wide, ps))
}

func TestEmbedding(t *testing.T) {
	cm := target.LineCouplingMap(4)
	c := circuit.New("c", 2, 0).Add("cx", 0, 1)
	ps := passmanager.NewPropertySet()

	err := FullAncillaAllocation{Coupling: cm}.Analyze(c, ps)
	assert.ErrorContains(t, err, "no layout")

	layout, err := circuit.NewLayout([]int{3, 1})
	require.NoError(t, err)
	passmanager.Set(ps, passmanager.Layout, layout)

	require.NoError(t, FullAncillaAllocation{Coupling: cm}.Analyze(c, ps))
	full, _ := passmanager.Get(ps, passmanager.Layout)
	assert.Equal(t, 4, full.Len())
	v, _ := full.Virtual(0)
	assert.Equal(t, 2, v)
	v, _ = full.Virtual(2)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, layout.Len(), "original layout must not change")

	wide, err := EnlargeWithAncilla{}.Transform(c, ps)
	require.NoError(t, err)
	assert.Equal(t, 4, wide.NumQubits)
	assert.Equal(t, 2, c.NumQubits)

	out, err := ApplyLayout{}.Transform(wide, ps)
	require.NoError(t, err)
	assert.Equal(t, 4, out.NumQubits)
	assert.Equal(t, []int{3, 1}, out.Ops[0].Qubits)

	_, err = ApplyLayout{}.Transform(c, ps)
	assert.Error(t, err, "width mismatch")
}

func TestFullAncillaAllocationRejectsOffDeviceQubits(t *testing.T) {
	ps := passmanager.NewPropertySet()
	layout, err := circuit.NewLayout([]int{0, 5})
	require.NoError(t, err)
	passmanager.Set(ps, passmanager.Layout, layout)

	err = FullAncillaAllocation{Coupling: target.LineCouplingMap(3)}.Analyze(
		circuit.New("c", 2, 0),
		ps,
	)
	assert.Error(t, err)
}

func TestApplyPostLayout(t *testing.T) {
	ps := passmanager.NewPropertySet()
	passmanager.Set(ps, passmanager.Layout, circuit.TrivialLayout(3))
	post, err := circuit.NewLayout([]int{2, 0, 1})
	require.NoError(t, err)
	passmanager.Set(ps, passmanager.PostLayout, post)

	c := circuit.New("c", 3, 0).Add("cx", 0, 1)
	out, err := ApplyLayout{}.Transform(c, ps)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, out.Ops[0].Qubits)

	layout, _ := passmanager.Get(ps, passmanager.Layout)
	assert.True(t, layout.Equal(post))
	assert.False(t, ps.Has(passmanager.PostLayout.Name()))
}

func TestApplyPostLayoutRelabelsFinalLayout(t *testing.T) {
	ps := passmanager.NewPropertySet()
	passmanager.Set(ps, passmanager.Layout, circuit.TrivialLayout(3))
	final, err := circuit.NewLayout([]int{1, 0, 2})
	require.NoError(t, err)
	passmanager.Set(ps, passmanager.FinalLayout, final)
	post, err := circuit.NewLayout([]int{2, 1, 0})
	require.NoError(t, err)
	passmanager.Set(ps, passmanager.PostLayout, post)

	c := circuit.New("c", 3, 0).Add("swap", 0, 1).Add("cx", 0, 1)
	out, err := ApplyLayout{}.Transform(c, ps)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, out.Ops[0].Qubits)

	// The swap now exchanges physical qubits 2 and 1.
	relabeled, ok := passmanager.Get(ps, passmanager.FinalLayout)
	require.True(t, ok)
	got, err := relabeled.Slice()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 1}, got)
	assert.Equal(t, []int{1, 0, 2}, mustSlice(t, final))

	// Without a final layout nothing is recorded.
	ps = passmanager.NewPropertySet()
	passmanager.Set(ps, passmanager.Layout, circuit.TrivialLayout(3))
	passmanager.Set(ps, passmanager.PostLayout, post)
	_, err = ApplyLayout{}.Transform(c, ps)
	require.NoError(t, err)
	assert.False(t, ps.Has(passmanager.FinalLayout.Name()))
}

func mustSlice(t *testing.T, l *circuit.Layout) []int {
	t.Helper()
	s, err := l.Slice()
	require.NoError(t, err)
	return s
}

func TestVF2Layout(t *testing.T) {
	line := target.LineCouplingMap(3)
	c := circuit.New("c", 3, 0).Add("cx", 0, 2).Add("cx", 2, 1)
	ps := passmanager.NewPropertySet()

	require.NoError(t, VF2Layout{Coupling: line}.Analyze(c, ps))
	reason, _ := passmanager.Get(ps, passmanager.VF2LayoutStopReason)
	assert.Equal(t, passmanager.SolutionFound, reason)
	l, ok := passmanager.Get(ps, passmanager.Layout)
	require.True(t, ok)
	assert.Equal(t, 0, physical(t, l, 0))
	assert.Equal(t, 2, physical(t, l, 1))
	assert.Equal(t, 1, physical(t, l, 2))
}

func TestVF2LayoutStopReasons(t *testing.T) {
	line := target.LineCouplingMap(3)
	limit := 1

	tests := []struct {
		name  string
		c     *circuit.Circuit
		limit *int
		want  passmanager.StopReason
	}{
		{
			"budget exhausted",
			circuit.New("c", 3, 0).Add("cx", 0, 2).Add("cx", 2, 1),
			&limit,
			passmanager.NoSolutionFound,
		},
		{
			"triangle on a line",
			circuit.New("c", 3, 0).Add("cx", 0, 1).Add("cx", 1, 2).Add("cx", 0, 2),
			nil,
			passmanager.NoSolutionFound,
		},
		{
			"three qubit gate",
			circuit.New("c", 3, 0).Add("ccx", 0, 1, 2),
			nil,
			passmanager.MoreThan2Q,
		},
		{
			"too wide",
			circuit.New("c", 4, 0),
			nil,
			passmanager.NoSolutionFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := passmanager.NewPropertySet()
			pass := VF2Layout{Coupling: line, CallLimit: tt.limit}
			require.NoError(t, pass.Analyze(tt.c, ps))
			reason, ok := passmanager.Get(ps, passmanager.VF2LayoutStopReason)
			require.True(t, ok)
			assert.Equal(t, tt.want, reason)
			assert.False(t, ps.Has(passmanager.Layout.Name()))
		})
	}
}

func TestVF2LayoutSeedIsDeterministic(t *testing.T) {
	line := target.LineCouplingMap(5)
	c := circuit.New("c", 3, 0).Add("cx", 0, 1).Add("cx", 1, 2)
	seed := int64(42)

	layouts := make([]*circuit.Layout, 2)
	for i := range layouts {
		ps := passmanager.NewPropertySet()
		require.NoError(t, VF2Layout{Coupling: line, Seed: &seed}.Analyze(c, ps))
		layouts[i], _ = passmanager.Get(ps, passmanager.Layout)
	}
	require.NotNil(t, layouts[0])
	assert.True(t, layouts[0].Equal(layouts[1]))
}

func TestVF2PostLayout(t *testing.T) {
	line := target.LineCouplingMap(3)
	errs := target.ErrorMap{}
	errs.Set("cx", []int{0, 1}, 0.1)
	errs.Set("cx", []int{1, 2}, 0.01)
	c := circuit.New("c", 3, 0).Add("cx", 0, 1)

	ps := passmanager.NewPropertySet()
	require.NoError(t, VF2PostLayout{Coupling: line, Errors: errs}.Analyze(c, ps))
	reason, _ := passmanager.Get(ps, passmanager.VF2PostLayoutStopReason)
	assert.Equal(t, passmanager.SolutionFound, reason)
	post, ok := passmanager.Get(ps, passmanager.PostLayout)
	require.True(t, ok)
	assert.Equal(t, 1, physical(t, post, 0))
	assert.Equal(t, 2, physical(t, post, 1))

	ps = passmanager.NewPropertySet()
	require.NoError(t, VF2PostLayout{Coupling: line}.Analyze(c, ps))
	reason, _ = passmanager.Get(ps, passmanager.VF2PostLayoutStopReason)
	assert.Equal(t, passmanager.NoBetterSolutionFound, reason)
	assert.False(t, ps.Has(passmanager.PostLayout.Name()))
}
