package passmanager

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
)

type mockTransform struct {
	mock.Mock
	name string
}

func (m *mockTransform) Name() string { return m.name }

func (m *mockTransform) Transform(
	c *circuit.Circuit,
	ps *PropertySet,
) (*circuit.Circuit, error) {
	args := m.Called(c, ps)
	out, _ := args.Get(0).(*circuit.Circuit)
	return out, args.Error(1)
}

// setFlag is an analysis pass writing a fixed value.
type setFlag struct {
	key   Key[bool]
	value bool
}

func (p setFlag) Name() string     { return "SetFlag" }
func (p setFlag) Writes() []string { return []string{p.key.Name()} }

func (p setFlag) Analyze(c *circuit.Circuit, ps *PropertySet) error {
	Set(ps, p.key, p.value)
	return nil
}

// appendGate is a transformation pass adding a gate on qubit 0.
type appendGate struct {
	gate string
}

func (p appendGate) Name() string { return "Append_" + p.gate }

func (p appendGate) Transform(
	c *circuit.Circuit,
	ps *PropertySet,
) (*circuit.Circuit, error) {
	out := c.Clone()
	out.Add(p.gate, 0)
	return out, nil
}

// countingCondition records how often it is evaluated.
type countingCondition struct {
	evals *int
	holds bool
}

func (c countingCondition) String() string  { return "counting" }
func (c countingCondition) Reads() []string { return nil }

func (c countingCondition) Eval(ps *PropertySet) bool {
	*c.evals++
	return c.holds
}

func TestRunnerFeedsCircuitThroughPasses(t *testing.T) {
	p := New(
		"test",
		Always(appendGate{"x"}, appendGate{"h"}),
		Always(appendGate{"z"}),
	)
	in := circuit.New("c", 1, 0)

	out, err := NewRunner(zaptest.NewLogger(t)).Run(p, in, NewPropertySet())
	require.NoError(t, err)

	names := []string{}
	for _, op := range out.Ops {
		names = append(names, op.Name)
	}
	assert.Equal(t, []string{"x", "h", "z"}, names)
	assert.Empty(t, in.Ops, "input circuit must not be modified")
}

func TestRunnerSkipsStageWhenConditionFails(t *testing.T) {
	skipped := &mockTransform{name: "Routing"}
	p := New(
		"routing",
		Always(setFlag{IsSwapMapped, true}),
		When(Not(IsSwapMapped), skipped),
	)
	in := circuit.New("c", 2, 0)
	in.Add("cx", 0, 1)

	ps := NewPropertySet()
	out, err := NewRunner(nil).Run(p, in, ps)
	require.NoError(t, err)

	assert.Same(t, in, out)
	skipped.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything)
	mapped, ok := Get(ps, IsSwapMapped)
	assert.True(t, ok)
	assert.True(t, mapped)
}

func TestRunnerEvaluatesConditionOncePerStage(t *testing.T) {
	evals := 0
	p := New(
		"test",
		When(
			countingCondition{evals: &evals, holds: true},
			appendGate{"x"},
			appendGate{"y"},
			appendGate{"z"},
		),
	)
	out, err := NewRunner(nil).Run(p, circuit.New("c", 1, 0), NewPropertySet())
	require.NoError(t, err)
	assert.Equal(t, 1, evals)
	assert.Len(t, out.Ops, 3)
}

func TestRunnerConditionSeesEarlierStageOutput(t *testing.T) {
	p := New(
		"test",
		Always(setFlag{ContainsDelay, false}),
		When(Flag(ContainsDelay), appendGate{"x"}),
		Always(setFlag{ContainsDelay, true}),
		When(Flag(ContainsDelay), appendGate{"y"}),
	)
	out, err := NewRunner(nil).Run(p, circuit.New("c", 1, 0), NewPropertySet())
	require.NoError(t, err)
	require.Len(t, out.Ops, 1)
	assert.Equal(t, "y", out.Ops[0].Name)
}

func TestRunnerFailsFast(t *testing.T) {
	boom := errors.New("boom")
	failing := &mockTransform{name: "Failing"}
	failing.On("Transform", mock.Anything, mock.Anything).Return(nil, boom)
	after := &mockTransform{name: "After"}

	core, logs := observer.New(zapcore.ErrorLevel)
	p := New(
		"embed",
		Always(appendGate{"x"}),
		Always(failing, after),
		Always(after),
	)
	out, err := NewRunner(zap.New(core)).Run(
		p,
		circuit.New("c", 1, 0),
		NewPropertySet(),
	)
	require.Error(t, err)
	assert.Nil(t, out)

	var passErr *PassError
	require.True(t, errors.As(err, &passErr))
	assert.Equal(t, "embed", passErr.Pipeline)
	assert.Equal(t, 1, passErr.Stage)
	assert.Equal(t, "Failing", passErr.Pass)
	assert.True(t, errors.Is(err, boom))

	failing.AssertNumberOfCalls(t, "Transform", 1)
	after.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything)

	entries := logs.FilterMessage("pass failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Failing", entries[0].ContextMap()["pass"])
}

func TestRunnerRejectsNilTransformOutput(t *testing.T) {
	empty := &mockTransform{name: "Empty"}
	empty.On("Transform", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := NewRunner(nil).Run(
		New("test", Always(empty)),
		circuit.New("c", 1, 0),
		NewPropertySet(),
	)
	assert.Error(t, err)
}

func TestRunnerLogsSkippedStages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := New("pre-optimization", When(Not(IsDirectionMapped), appendGate{"x"}))

	ps := NewPropertySet()
	Set(ps, IsDirectionMapped, true)
	_, err := NewRunner(zap.New(core)).Run(p, circuit.New("c", 1, 0), ps)
	require.NoError(t, err)

	entries := logs.FilterMessage("skipping stage").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "not is_direction_mapped", entries[0].ContextMap()["condition"])
}

func TestNewDropsEmptyStages(t *testing.T) {
	p := New("test", Always(), When(Flag(ContainsDelay)), Always(appendGate{"x"}))
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, []string{"0 [always] Append_x"}, p.Describe())
}

func TestVerifyDataFlow(t *testing.T) {
	ok := New(
		"routing",
		Always(setFlag{IsSwapMapped, true}),
		When(Not(IsSwapMapped), appendGate{"x"}),
	)
	require.NoError(t, VerifyDataFlow(ok))

	bad := New("routing", When(Not(IsSwapMapped), appendGate{"x"}))
	assert.Error(t, VerifyDataFlow(bad))
	assert.NoError(t, VerifyDataFlow(bad, IsSwapMapped.Name()))

	assert.Equal(t, []string{IsSwapMapped.Name()}, ok.Writes())
}
