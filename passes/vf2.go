package passes

import (
	"math/rand"
	"slices"

	"github.com/pkg/errors"

	"source.quilibrium.com/quilibrium/monorepo/transpiler/circuit"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/passmanager"
	"source.quilibrium.com/quilibrium/monorepo/transpiler/target"
)

// vf2Search looks for a placement of the circuit's interaction graph onto the
// coupling map, backtracking VF2 style. Every recursive step counts as one
// call against the limit; a nil limit is unbounded. With an error map, all
// placements found within the limit are scored and the best one is kept;
// without one, the first placement wins.
type vf2Search struct {
	coupling  *target.CouplingMap
	errors    target.ErrorMap
	callLimit *int
	seed      *int64
	strict    bool

	calls   int
	stopped bool
}

type vf2Result struct {
	reason  passmanager.StopReason
	mapping []int
	score   float64
}

func (s *vf2Search) run(c *circuit.Circuit) vf2Result {
	size := s.coupling.Size()
	if c.NumQubits > size {
		return vf2Result{reason: passmanager.NoSolutionFound}
	}

	edges := map[[2]int]bool{}
	neighbors := make([]map[int]bool, c.NumQubits)
	for i := range neighbors {
		neighbors[i] = map[int]bool{}
	}
	for _, op := range c.Ops {
		if !op.IsGate() {
			continue
		}
		switch len(op.Qubits) {
		case 1:
		case 2:
			a, b := op.Qubits[0], op.Qubits[1]
			edges[[2]int{a, b}] = true
			neighbors[a][b] = true
			neighbors[b][a] = true
		default:
			return vf2Result{reason: passmanager.MoreThan2Q}
		}
	}

	var nodes, idle []int
	for v := 0; v < c.NumQubits; v++ {
		if len(neighbors[v]) > 0 {
			nodes = append(nodes, v)
		} else {
			idle = append(idle, v)
		}
	}
	slices.SortStableFunc(nodes, func(a, b int) int {
		return len(neighbors[b]) - len(neighbors[a])
	})

	candidates := make([]int, size)
	for i := range candidates {
		candidates[i] = i
	}
	if s.seed != nil {
		rng := rand.New(rand.NewSource(*s.seed))
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	}

	mapping := make([]int, c.NumQubits)
	for i := range mapping {
		mapping[i] = -1
	}
	used := make([]bool, size)
	best := vf2Result{reason: passmanager.NoSolutionFound}

	compatible := func(v, p int) bool {
		if len(s.coupling.Neighbors(p)) < len(neighbors[v]) {
			return false
		}
		for u := range neighbors[v] {
			q := mapping[u]
			if q < 0 {
				continue
			}
			if s.strict {
				if edges[[2]int{v, u}] && !s.coupling.HasEdge(p, q) {
					return false
				}
				if edges[[2]int{u, v}] && !s.coupling.HasEdge(q, p) {
					return false
				}
			} else if !s.coupling.Connected(p, q) {
				return false
			}
		}
		return true
	}

	var assign func(i int)
	assign = func(i int) {
		s.calls++
		if s.callLimit != nil && s.calls > *s.callLimit {
			s.stopped = true
			return
		}
		if i == len(nodes) {
			full := s.placeIdle(c, mapping, idle, used)
			score := s.score(c, full)
			if best.reason != passmanager.SolutionFound || score < best.score {
				best = vf2Result{
					reason:  passmanager.SolutionFound,
					mapping: full,
					score:   score,
				}
			}
			if len(s.errors) == 0 {
				s.stopped = true
			}
			return
		}
		v := nodes[i]
		for _, p := range candidates {
			if used[p] || !compatible(v, p) {
				continue
			}
			mapping[v] = p
			used[p] = true
			assign(i + 1)
			mapping[v] = -1
			used[p] = false
			if s.stopped {
				return
			}
		}
	}
	assign(0)

	return best
}

// placeIdle completes a placement of the interacting qubits with the qubits
// no two-qubit gate touches, each on the free physical qubit where its own
// operations are least error prone.
func (s *vf2Search) placeIdle(
	c *circuit.Circuit,
	mapping []int,
	idle []int,
	used []bool,
) []int {
	full := slices.Clone(mapping)
	taken := slices.Clone(used)
	for _, v := range idle {
		bestP, bestErr := -1, 0.0
		for p := range taken {
			if taken[p] {
				continue
			}
			e := 0.0
			for _, op := range c.Ops {
				if len(op.Qubits) == 1 && op.Qubits[0] == v {
					rate, _ := s.errors.Lookup(op.Name, []int{p})
					e += rate
				}
			}
			if bestP < 0 || e < bestErr {
				bestP, bestErr = p, e
			}
		}
		full[v] = bestP
		taken[bestP] = true
	}
	return full
}

// score sums the error rates of every operation under the placement.
func (s *vf2Search) score(c *circuit.Circuit, mapping []int) float64 {
	if len(s.errors) == 0 {
		return 0
	}
	total := 0.0
	for _, op := range c.Ops {
		if op.Name == circuit.Barrier {
			continue
		}
		qubits := make([]int, len(op.Qubits))
		for k, v := range op.Qubits {
			qubits[k] = mapping[v]
		}
		rate, _ := s.errors.Lookup(op.Name, qubits)
		total += rate
	}
	return total
}

// VF2Layout searches for a perfect initial layout, one where every two-qubit
// gate lands on a coupling map edge, within a call budget.
type VF2Layout struct {
	Coupling        *target.CouplingMap
	Errors          target.ErrorMap
	CallLimit       *int
	Seed            *int64
	StrictDirection bool
}

func (VF2Layout) Name() string { return "VF2Layout" }

func (VF2Layout) Writes() []string {
	return []string{
		passmanager.Layout.Name(),
		passmanager.VF2LayoutStopReason.Name(),
	}
}

func (p VF2Layout) Analyze(c *circuit.Circuit, ps *passmanager.PropertySet) error {
	if p.Coupling == nil {
		return errors.New("vf2 layout needs a coupling map")
	}
	search := &vf2Search{
		coupling:  p.Coupling,
		errors:    p.Errors,
		callLimit: p.CallLimit,
		seed:      p.Seed,
		strict:    p.StrictDirection,
	}
	res := search.run(c)
	passmanager.Set(ps, passmanager.VF2LayoutStopReason, res.reason)
	if res.reason != passmanager.SolutionFound {
		return nil
	}
	layout, err := circuit.NewLayout(res.mapping)
	if err != nil {
		return errors.Wrap(err, "vf2 layout")
	}
	passmanager.Set(ps, passmanager.Layout, layout)
	return nil
}

// VF2PostLayout looks, after routing, for a relabelling of the physical qubits
// that keeps every two-qubit gate on an edge and lowers the total error. It
// records the relabelling as the post layout only when it is strictly better
// than the current placement.
type VF2PostLayout struct {
	Coupling        *target.CouplingMap
	Errors          target.ErrorMap
	CallLimit       *int
	Seed            *int64
	StrictDirection bool
}

func (VF2PostLayout) Name() string { return "VF2PostLayout" }

func (VF2PostLayout) Writes() []string {
	return []string{
		passmanager.PostLayout.Name(),
		passmanager.VF2PostLayoutStopReason.Name(),
	}
}

func (p VF2PostLayout) Analyze(
	c *circuit.Circuit,
	ps *passmanager.PropertySet,
) error {
	if p.Coupling == nil {
		return errors.New("vf2 post layout needs a coupling map")
	}
	search := &vf2Search{
		coupling:  p.Coupling,
		errors:    p.Errors,
		callLimit: p.CallLimit,
		seed:      p.Seed,
		strict:    p.StrictDirection,
	}
	res := search.run(c)
	if res.reason != passmanager.SolutionFound {
		passmanager.Set(ps, passmanager.VF2PostLayoutStopReason, res.reason)
		return nil
	}

	identity := make([]int, c.NumQubits)
	for i := range identity {
		identity[i] = i
	}
	if res.score >= search.score(c, identity) {
		passmanager.Set(
			ps,
			passmanager.VF2PostLayoutStopReason,
			passmanager.NoBetterSolutionFound,
		)
		return nil
	}

	post, err := circuit.NewLayout(res.mapping)
	if err != nil {
		return errors.Wrap(err, "vf2 post layout")
	}
	passmanager.Set(ps, passmanager.PostLayout, post)
	passmanager.Set(ps, passmanager.VF2PostLayoutStopReason, passmanager.SolutionFound)
	return nil
}
