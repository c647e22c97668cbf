package passmanager

import (
	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
)

// Pass is a unit of work in a stage. Every pass is either an AnalysisPass or
// a TransformationPass. Passes must be deterministic for identical inputs and
// must not keep state between runs.
type Pass interface {
	Name() string
}

// AnalysisPass reads the circuit and records its findings in the property
// set. It must not modify the circuit.
type AnalysisPass interface {
	Pass
	Analyze(c *circuit.Circuit, ps *PropertySet) error
}

// TransformationPass returns a rewritten circuit. It may read (and, for
// bookkeeping such as layouts, write) the property set.
type TransformationPass interface {
	Pass
	Transform(c *circuit.Circuit, ps *PropertySet) (*circuit.Circuit, error)
}

// Producer is implemented by passes which declare the property set keys they
// write, so pipelines can be checked with VerifyDataFlow.
type Producer interface {
	Writes() []string
}
