package circuit

import (
	"maps"
	"slices"

	"github.com/pkg/errors"
)

// Layout is a bijective mapping from virtual (circuit) qubits to physical
// (device) qubits.
type Layout struct {
	v2p map[int]int
	p2v map[int]int
}

// NewLayout builds a layout from a slice where index i is virtual qubit i and
// the value is its physical qubit.
func NewLayout(physical []int) (*Layout, error) {
	l := &Layout{
		v2p: make(map[int]int, len(physical)),
		p2v: make(map[int]int, len(physical)),
	}
	for v, p := range physical {
		if err := l.Add(v, p); err != nil {
			return nil, errors.Wrap(err, "new layout")
		}
	}
	return l, nil
}

// TrivialLayout maps virtual qubit i to physical qubit i for i in [0, n).
func TrivialLayout(n int) *Layout {
	l := &Layout{v2p: make(map[int]int, n), p2v: make(map[int]int, n)}
	for i := 0; i < n; i++ {
		l.v2p[i] = i
		l.p2v[i] = i
	}
	return l
}

// Add maps virtual qubit v to physical qubit p.
func (l *Layout) Add(v, p int) error {
	if v < 0 || p < 0 {
		return errors.Errorf("negative qubit in layout entry %d -> %d", v, p)
	}
	if _, ok := l.v2p[v]; ok {
		return errors.Errorf("virtual qubit %d already mapped", v)
	}
	if _, ok := l.p2v[p]; ok {
		return errors.Errorf("physical qubit %d already mapped", p)
	}
	l.v2p[v] = p
	l.p2v[p] = v
	return nil
}

// Physical returns the physical qubit for virtual qubit v.
func (l *Layout) Physical(v int) (int, bool) {
	p, ok := l.v2p[v]
	return p, ok
}

// Virtual returns the virtual qubit placed on physical qubit p.
func (l *Layout) Virtual(p int) (int, bool) {
	v, ok := l.p2v[p]
	return v, ok
}

// Len is the number of mapped qubits.
func (l *Layout) Len() int {
	return len(l.v2p)
}

// PhysicalQubits returns the mapped physical qubits in ascending order.
func (l *Layout) PhysicalQubits() []int {
	return slices.Sorted(maps.Keys(l.p2v))
}

// VirtualQubits returns the mapped virtual qubits in ascending order.
func (l *Layout) VirtualQubits() []int {
	return slices.Sorted(maps.Keys(l.v2p))
}

// Slice returns the physical qubit of each virtual qubit 0..Len()-1, or an
// error if the virtual qubits are not contiguous.
func (l *Layout) Slice() ([]int, error) {
	out := make([]int, l.Len())
	for v := range out {
		p, ok := l.v2p[v]
		if !ok {
			return nil, errors.Errorf("virtual qubit %d unmapped", v)
		}
		out[v] = p
	}
	return out, nil
}

// Clone returns a copy of the layout.
func (l *Layout) Clone() *Layout {
	return &Layout{v2p: maps.Clone(l.v2p), p2v: maps.Clone(l.p2v)}
}

// Compose returns the layout v -> next(l(v)): l takes virtual qubits to
// physical qubits, next permutes physical qubits.
func (l *Layout) Compose(next *Layout) (*Layout, error) {
	out := &Layout{
		v2p: make(map[int]int, len(l.v2p)),
		p2v: make(map[int]int, len(l.v2p)),
	}
	for _, v := range l.VirtualQubits() {
		p := l.v2p[v]
		q, ok := next.v2p[p]
		if !ok {
			return nil, errors.Errorf("physical qubit %d missing from permutation", p)
		}
		if err := out.Add(v, q); err != nil {
			return nil, errors.Wrap(err, "compose")
		}
	}
	return out, nil
}

// Relabel returns the layout with both sides renamed by perm, a permutation
// of physical qubits: perm(p) -> perm(l(p)) for every p -> l(p).
func (l *Layout) Relabel(perm *Layout) (*Layout, error) {
	out := &Layout{
		v2p: make(map[int]int, len(l.v2p)),
		p2v: make(map[int]int, len(l.v2p)),
	}
	for _, from := range l.VirtualQubits() {
		a, ok := perm.v2p[from]
		if !ok {
			return nil, errors.Errorf("qubit %d missing from permutation", from)
		}
		b, ok := perm.v2p[l.v2p[from]]
		if !ok {
			return nil, errors.Errorf("qubit %d missing from permutation", l.v2p[from])
		}
		if err := out.Add(a, b); err != nil {
			return nil, errors.Wrap(err, "relabel")
		}
	}
	return out, nil
}

// Equal reports whether both layouts hold the same mapping.
func (l *Layout) Equal(o *Layout) bool {
	if l == nil || o == nil {
		return l == o
	}
	return maps.Equal(l.v2p, o.v2p)
}
