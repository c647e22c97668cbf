package passes

import (
	"slices"

	"github.com/pkg/errors"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
)

// Collect2qBlocks greedily collects maximal blocks of gates acting on one
// pair of qubits, including the single-qubit gates on either qubit between
// them and those directly preceding the block's first two-qubit gate. Blocks
// are ascending lists of operation indices.
type Collect2qBlocks struct{}

func (Collect2qBlocks) Name() string { return "Collect2qBlocks" }

func (Collect2qBlocks) Writes() []string {
	return []string{passmanager.BlockList.Name()}
}

func (Collect2qBlocks) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	var blocks [][]int
	pair := [][2]int{}
	// open maps a qubit to the index of its open block, or -1.
	open := make([]int, c.NumQubits)
	for i := range open {
		open[i] = -1
	}
	// pending holds the single-qubit gates on a qubit without an open block,
	// since the last operation that closed it.
	pending := make([][]int, c.NumQubits)
	closeOn := func(qubits []int) {
		for _, q := range qubits {
			if b := open[q]; b >= 0 {
				p := pair[b]
				open[p[0]], open[p[1]] = -1, -1
			}
		}
	}

	for i, op := range c.Ops {
		switch {
		case !op.IsGate() || len(op.Qubits) > 2:
			closeOn(op.Qubits)
			for _, q := range op.Qubits {
				pending[q] = nil
			}
		case len(op.Qubits) == 1:
			q := op.Qubits[0]
			if b := open[q]; b >= 0 {
				blocks[b] = append(blocks[b], i)
			} else {
				pending[q] = append(pending[q], i)
			}
		default:
			a, b := op.Qubits[0], op.Qubits[1]
			if open[a] >= 0 && open[a] == open[b] {
				blocks[open[a]] = append(blocks[open[a]], i)
				continue
			}
			closeOn(op.Qubits)
			block := append(slices.Concat(pending[a], pending[b]), i)
			slices.Sort(block)
			pending[a], pending[b] = nil, nil
			blocks = append(blocks, block)
			pair = append(pair, [2]int{a, b})
			open[a], open[b] = len(blocks)-1, len(blocks)-1
		}
	}

	passmanager.Set(ps, passmanager.BlockList, blocks)
	return nil
}

// Collect1qRuns collects runs of consecutive single-qubit gates on each qubit.
type Collect1qRuns struct{}

func (Collect1qRuns) Name() string { return "Collect1qRuns" }

func (Collect1qRuns) Writes() []string {
	return []string{passmanager.RunList.Name()}
}

func (Collect1qRuns) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	var runs [][]int
	open := make([]int, c.NumQubits)
	for i := range open {
		open[i] = -1
	}

	for i, op := range c.Ops {
		if op.IsGate() && len(op.Qubits) == 1 {
			q := op.Qubits[0]
			if open[q] < 0 {
				runs = append(runs, nil)
				open[q] = len(runs) - 1
			}
			runs[open[q]] = append(runs[open[q]], i)
			continue
		}
		for _, q := range op.Qubits {
			open[q] = -1
		}
	}

	passmanager.Set(ps, passmanager.RunList, runs)
	return nil
}

// ConsolidateBlocks replaces every collected block of two or more operations
// by a single unitary whose definition is the block. With a basis, a block
// or run holding a non-native gate is consolidated even when it is a single
// operation, and any non-native gate left outside every block and run
// becomes a unitary of its own, so that unitary synthesis reaches all of
// them. Run operations already taken by a block are left to the block. The
// consumed block and run lists are cleared, as the indices they hold do not
// survive the rewrite.
type ConsolidateBlocks struct {
	Basis Basis
}

func (ConsolidateBlocks) Name() string { return "ConsolidateBlocks" }

func (p ConsolidateBlocks) Transform(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) (*circuit.Circuit, error) {
	blocks, _ := passmanager.Get(ps, passmanager.BlockList)
	runs, _ := passmanager.Get(ps, passmanager.RunList)
	passmanager.Delete(ps, passmanager.BlockList)
	passmanager.Delete(ps, passmanager.RunList)

	claimed := map[int]bool{}
	// replacement maps the last index of a group to the consolidated op.
	replacement := map[int]circuit.Operation{}
	foreign := func(op circuit.Operation) bool {
		return len(p.Basis) > 0 && op.IsGate() && op.Name != UnitaryName &&
			!p.Basis.Contains(op.Name)
	}
	group := func(indices []int) error {
		for _, i := range indices {
			if i < 0 || i >= len(c.Ops) {
				return errors.Errorf("block index %d out of range", i)
			}
		}
		indices = slices.DeleteFunc(slices.Clone(indices), func(i int) bool {
			return claimed[i]
		})
		if len(indices) == 0 {
			return nil
		}
		if len(indices) == 1 && !foreign(c.Ops[indices[0]]) {
			return nil
		}
		op, err := consolidate(c, indices)
		if err != nil {
			return err
		}
		for _, i := range indices {
			claimed[i] = true
		}
		replacement[slices.Max(indices)] = op
		return nil
	}

	for _, b := range blocks {
		if err := group(b); err != nil {
			return nil, errors.Wrap(err, "consolidate blocks")
		}
	}
	for _, r := range runs {
		if err := group(r); err != nil {
			return nil, errors.Wrap(err, "consolidate blocks")
		}
	}
	for i, op := range c.Ops {
		if !claimed[i] && foreign(op) {
			if err := group([]int{i}); err != nil {
				return nil, errors.Wrap(err, "consolidate blocks")
			}
		}
	}

	ops := make([]circuit.Operation, 0, len(c.Ops))
	for i, op := range c.Ops {
		if repl, ok := replacement[i]; ok {
			ops = append(ops, repl)
			continue
		}
		if claimed[i] {
			continue
		}
		ops = append(ops, op)
	}
	return c.WithOps(ops), nil
}

func consolidate(c *circuit.Circuit, indices []int) (circuit.Operation, error) {
	ops := make([]circuit.Operation, len(indices))
	for k, i := range indices {
		ops[k] = c.Ops[i]
	}
	qubits := circuit.SortedQubits(ops)
	local := make(map[int]int, len(qubits))
	for k, q := range qubits {
		local[q] = k
	}

	def := circuit.New(UnitaryName, len(qubits), 0)
	for _, op := range ops {
		inner := op.Clone()
		for k, q := range inner.Qubits {
			inner.Qubits[k] = local[q]
		}
		if err := def.Append(inner); err != nil {
			return circuit.Operation{}, err
		}
	}
	return circuit.Operation{
		Name:       UnitaryName,
		Qubits:     qubits,
		Definition: def,
	}, nil
}
