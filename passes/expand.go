// Package passes is the stage library: the analysis and transformation passes
// the preset pipelines are assembled from.
package passes

import (
	"slices"

	"github.com/pkg/errors"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
)

// maxExpansionDepth bounds recursive definition expansion. Definition tables
// may be cyclic (cx through cz and back), so expansion has to be cut off.
const maxExpansionDepth = 32

// Basis is a native operation set. An empty basis means "anything goes" and
// disables the passes translating towards it.
type Basis []string

// Contains reports whether name is native. Directives always are.
func (b Basis) Contains(name string) bool {
	switch name {
	case circuit.Barrier, circuit.Measure, circuit.Reset, circuit.Delay:
		return true
	}
	return slices.Contains(b, name)
}

// definitionFunc returns the one-level expansion of an operation.
type definitionFunc func(op circuit.Operation) (*circuit.Circuit, bool)

// expandUntil replaces op by its definition, recursively, until done holds for
// every produced operation.
func expandUntil(
	op circuit.Operation,
	done func(circuit.Operation) bool,
	define definitionFunc,
	depth int,
) ([]circuit.Operation, error) {
	if done(op) {
		return []circuit.Operation{op}, nil
	}
	if depth >= maxExpansionDepth {
		return nil, errors.Errorf("expansion of %s does not terminate", op.Name)
	}

	def, ok := define(op)
	if !ok {
		return nil, errors.Errorf("no rule to expand instruction %s", op.Name)
	}
	inner, err := circuit.Inline(op, def)
	if err != nil {
		return nil, errors.Wrap(err, "expand")
	}

	out := make([]circuit.Operation, 0, len(inner))
	for _, in := range inner {
		sub, err := expandUntil(in, done, define, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// rewriteOps applies fn to every operation of c, collecting the result into a
// new circuit. fn returns the replacement operations.
func rewriteOps(
	c *circuit.Circuit,
	fn func(op circuit.Operation) ([]circuit.Operation, error),
) (*circuit.Circuit, error) {
	ops := make([]circuit.Operation, 0, len(c.Ops))
	for _, op := range c.Ops {
		repl, err := fn(op)
		if err != nil {
			return nil, err
		}
		ops = append(ops, repl...)
	}
	return c.WithOps(ops), nil
}

// Unroller recursively expands every operation outside the basis, using the
// operation's own definition, the standard definitions and finally the
// first matching rule of the equivalence library.
type Unroller struct {
	Basis   Basis
	Library *EquivalenceLibrary
}

func (Unroller) Name() string { return "Unroller" }

func (p Unroller) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	if len(p.Basis) == 0 {
		return c, nil
	}
	done := func(op circuit.Operation) bool { return p.Basis.Contains(op.Name) }
	out, err := rewriteOps(c, func(op circuit.Operation) ([]circuit.Operation, error) {
		return expandUntil(op, done, p.define, 0)
	})
	return out, errors.Wrap(err, "unroll")
}

func (p Unroller) define(op circuit.Operation) (*circuit.Circuit, bool) {
	if def, ok := circuit.DefinitionOf(op); ok {
		return def, true
	}
	return p.Library.Expand(op)
}

// Unroll3qOrMore expands every gate acting on three or more qubits that is not
// native, until only operations on at most two qubits remain.
type Unroll3qOrMore struct {
	Basis Basis
}

func (Unroll3qOrMore) Name() string { return "Unroll3qOrMore" }

func (p Unroll3qOrMore) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	done := func(op circuit.Operation) bool {
		return len(op.Qubits) < 3 || op.IsDirective() || p.Basis.Contains(op.Name)
	}
	out, err := rewriteOps(c, func(op circuit.Operation) ([]circuit.Operation, error) {
		return expandUntil(op, done, circuit.DefinitionOf, 0)
	})
	return out, errors.Wrap(err, "unroll 3q or more")
}

// UnrollCustomDefinitions inlines operations carrying their own definition
// when they are neither native nor known to the equivalence library, so the
// basis translator only sees operations it has rules for.
type UnrollCustomDefinitions struct {
	Basis   Basis
	Library *EquivalenceLibrary
}

func (UnrollCustomDefinitions) Name() string { return "UnrollCustomDefinitions" }

func (p UnrollCustomDefinitions) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	if len(p.Basis) == 0 {
		return c, nil
	}
	done := func(op circuit.Operation) bool {
		return p.Basis.Contains(op.Name) ||
			(op.Definition == nil && p.Library.Has(op.Name))
	}
	define := func(op circuit.Operation) (*circuit.Circuit, bool) {
		if op.Definition == nil {
			return nil, false
		}
		return op.Definition, true
	}
	out, err := rewriteOps(c, func(op circuit.Operation) ([]circuit.Operation, error) {
		return expandUntil(op, done, define, 0)
	})
	return out, errors.Wrap(err, "unroll custom definitions")
}
